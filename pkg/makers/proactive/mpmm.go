package proactive

import (
	"fmt"

	"github.com/johnayoung/go-amm-sim/pkg/arbitrage"
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// MPMM is the multi-token proactive market maker: every token held in a
// single Multi pool carries its own equilibrium reference, and a trade
// between any two of them applies the same curve PMM uses to its pair
// (spec §4.4 multi-asset generalization), with k taken as max(k[in],
// k[out]) over the two tokens' per-token shape parameters.
type MPMM struct {
	pool   *poolstate.Multi
	equil  *poolstate.EquilibriumMulti
	prices token.PriceMap
	cfg    marketmaker.SimulationConfig
}

// NewMPMM builds an MPMM over an already-constructed Multi pool, seeding
// its equilibrium from that pool's starting balances.
func NewMPMM(pool *poolstate.Multi) *MPMM {
	return &MPMM{pool: pool, equil: poolstate.NewEquilibriumMultiFrom(pool)}
}

func (m *MPMM) Variant() marketmaker.Variant { return marketmaker.VariantMPMM }

func (m *MPMM) Configure(cfg marketmaker.SimulationConfig) { m.cfg = cfg }

func (m *MPMM) SetPrices(prices token.PriceMap) { m.prices = prices }

func pairK(inK, outK primitives.Decimal) primitives.Decimal {
	if inK.GreaterThan(outK) {
		return inK
	}
	return outK
}

// Swap prices a trade against the pair's reference equilibrium via the
// spec §4.4 curve, then re-selects and stores both tokens' equilibrium
// from the post-trade balances, the per-swap drift-following update §4.4
// requires.
func (m *MPMM) Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error) {
	inBal, err := m.pool.Get(tx.InType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	outBal, err := m.pool.Get(tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	marketRate, err := m.prices.MarketRate(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	inE, ok := m.equil.Get(tx.InType)
	if !ok {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: no equilibrium for token %s", marketmaker.ErrInvalidPair, tx.InType)
	}
	outE, ok := m.equil.Get(tx.OutType)
	if !ok {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: no equilibrium for token %s", marketmaker.ErrInvalidPair, tx.OutType)
	}
	k := pairK(inBal.K, outBal.K)

	var inVal, outVal primitives.Decimal
	if outAmt != nil {
		outVal = *outAmt
		inVal, err = InverseIn(inBal.Balance, outVal, outBal.Balance, inE, outE, k)
		if err != nil {
			return txrecord.OutputTx{}, nil, err
		}
	} else {
		inVal = tx.InVal
		outVal, err = ForwardOut(inBal.Balance, inVal, outBal.Balance, inE, outE, k)
		if err != nil {
			return txrecord.OutputTx{}, nil, err
		}
	}

	newIn := inBal.Balance.Add(inVal)
	newOut := outBal.Balance.Sub(outVal)
	if newOut.IsNegative() {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: pair %s/%s", marketmaker.ErrInsufficientLiquidity, tx.InType, tx.OutType)
	}

	m.pool.Set(tx.InType, newIn)
	m.pool.Set(tx.OutType, newOut)

	newInE, newOutE, err := SelectEquilibrium(inE, outE, inBal.Balance, outBal.Balance, newIn, newOut, k)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	m.equil.Set(tx.InType, newInE)
	m.equil.Set(tx.OutType, newOutE)

	afterRate, err := MarginalRate(newIn, newOut, newInE, newOutE, k)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}

	out := txrecord.OutputTx{
		InType:       tx.InType,
		OutType:      tx.OutType,
		InVal:        inVal,
		OutVal:       outVal,
		InPoolInit:   inBal.Balance,
		OutPoolInit:  outBal.Balance,
		InPoolAfter:  newIn,
		OutPoolAfter: newOut,
		MarketRate:   marketRate,
		AfterRate:    afterRate,
	}
	return out, m.pool.Snapshot(), nil
}

// CalculateEquilibriums returns the stored equilibrium balances for both
// tokens, the most recent trade touching either of them (or, absent any
// trade, the pool's starting balances) has already selected.
func (m *MPMM) CalculateEquilibriums(intype, outtype token.ID) (primitives.Decimal, primitives.Decimal, error) {
	inE, ok := m.equil.Get(intype)
	if !ok {
		return primitives.Decimal{}, primitives.Decimal{}, fmt.Errorf("%w: %s", marketmaker.ErrInvalidPair, intype)
	}
	outE, ok := m.equil.Get(outtype)
	if !ok {
		return primitives.Decimal{}, primitives.Decimal{}, fmt.Errorf("%w: %s", marketmaker.ErrInvalidPair, outtype)
	}
	return inE, outE, nil
}

func (m *MPMM) Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	if !m.cfg.Arb {
		return nil, nil, nil
	}
	return arbitrage.Run(mpmmArbAdapter{m}, m.cfg.ArbActions)
}

func (m *MPMM) Snapshot() poolstate.Snapshot { return m.pool.Snapshot() }

type mpmmCheckpoint struct {
	pool  *poolstate.Multi
	equil *poolstate.EquilibriumMulti
}

func (m *MPMM) CheckpointState() any {
	return mpmmCheckpoint{pool: m.pool.Snapshot(), equil: m.equil.Snapshot()}
}

func (m *MPMM) RestoreState(checkpoint any) {
	cp := checkpoint.(mpmmCheckpoint)
	m.pool = cp.pool
	m.equil = cp.equil
}

type mpmmArbAdapter struct{ m *MPMM }

// Pairs scans every ordered pair of tokens held in the pool, excluding any
// pair whose output token is flagged as crashing (spec §4.5, §6
// configure_crash_types).
func (a mpmmArbAdapter) Pairs() []poolstate.PairKey {
	toks := a.m.pool.Tokens()
	pairs := make([]poolstate.PairKey, 0, len(toks)*(len(toks)-1))
	for _, in := range toks {
		for _, out := range toks {
			if in == out {
				continue
			}
			if token.Contains(a.m.cfg.CrashTypes, out) {
				continue
			}
			pairs = append(pairs, poolstate.PairKey{In: in, Out: out})
		}
	}
	return pairs
}

func (a mpmmArbAdapter) InternalRate(in, out token.ID) (primitives.Decimal, error) {
	inBal, err := a.m.pool.Get(in)
	if err != nil {
		return primitives.Decimal{}, err
	}
	outBal, err := a.m.pool.Get(out)
	if err != nil {
		return primitives.Decimal{}, err
	}
	inE, ok := a.m.equil.Get(in)
	if !ok {
		return primitives.Decimal{}, fmt.Errorf("%w: %s", marketmaker.ErrInvalidPair, in)
	}
	outE, ok := a.m.equil.Get(out)
	if !ok {
		return primitives.Decimal{}, fmt.Errorf("%w: %s", marketmaker.ErrInvalidPair, out)
	}
	return MarginalRate(inBal.Balance, outBal.Balance, inE, outE, pairK(inBal.K, outBal.K))
}

func (a mpmmArbAdapter) MarketRate(in, out token.ID) (primitives.Decimal, error) {
	return a.m.prices.MarketRate(in, out)
}

func (a mpmmArbAdapter) SwapToEquilibrium(in, out token.ID) (txrecord.OutputTx, poolstate.Snapshot, error) {
	inE, _, err := a.m.CalculateEquilibriums(in, out)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	inBal, err := a.m.pool.Get(in)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	inVal := inE.Sub(inBal.Balance)
	if !inVal.IsPositive() {
		return txrecord.OutputTx{}, nil, arbitrage.ErrNoOpportunity
	}
	return a.m.Swap(txrecord.NewSwapTx(in, out, inVal), nil)
}

var _ marketmaker.MarketMaker = (*MPMM)(nil)
