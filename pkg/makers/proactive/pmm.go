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

// PMM is the two-token proactive market maker. Each directed pair carries
// its own reference equilibrium, seeded from the pool's starting balances
// (spec §3 "Equilibrium state") and updated by every swap it executes.
type PMM struct {
	pool   *poolstate.Pairwise
	equil  *poolstate.EquilibriumPairwise
	prices token.PriceMap
	cfg    marketmaker.SimulationConfig
}

// NewPMM builds a PMM over an already-constructed Pairwise pool, seeding
// its equilibrium from that pool's starting balances.
func NewPMM(pool *poolstate.Pairwise) *PMM {
	return &PMM{pool: pool, equil: poolstate.NewEquilibriumPairwiseFrom(pool)}
}

func (m *PMM) Variant() marketmaker.Variant { return marketmaker.VariantPMM }

func (m *PMM) Configure(cfg marketmaker.SimulationConfig) { m.cfg = cfg }

func (m *PMM) SetPrices(prices token.PriceMap) { m.prices = prices }

// Swap prices a trade against the pair's reference equilibrium via the
// spec §4.4 curve, then re-selects and stores that equilibrium from the
// post-trade balances — "the mechanism by which PMM follows price drift" —
// with the mirror entry updated symmetrically by EquilibriumPairwise.Set.
func (m *PMM) Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error) {
	bal, err := m.pool.Get(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	marketRate, err := m.prices.MarketRate(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	inE, outE, ok := m.equil.Get(tx.InType, tx.OutType)
	if !ok {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: no equilibrium for pair %s/%s", marketmaker.ErrInvalidPair, tx.InType, tx.OutType)
	}

	var inVal, outVal primitives.Decimal
	if outAmt != nil {
		outVal = *outAmt
		inVal, err = InverseIn(bal.BalanceIn, outVal, bal.BalanceOut, inE, outE, bal.K)
		if err != nil {
			return txrecord.OutputTx{}, nil, err
		}
	} else {
		inVal = tx.InVal
		outVal, err = ForwardOut(bal.BalanceIn, inVal, bal.BalanceOut, inE, outE, bal.K)
		if err != nil {
			return txrecord.OutputTx{}, nil, err
		}
	}

	newIn := bal.BalanceIn.Add(inVal)
	newOut := bal.BalanceOut.Sub(outVal)
	if newOut.IsNegative() {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: pair %s/%s", marketmaker.ErrInsufficientLiquidity, tx.InType, tx.OutType)
	}

	m.pool.Set(tx.InType, tx.OutType, newIn, newOut, bal.K)

	newInE, newOutE, err := SelectEquilibrium(inE, outE, bal.BalanceIn, bal.BalanceOut, newIn, newOut, bal.K)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	m.equil.Set(tx.InType, tx.OutType, newInE, newOutE)

	afterRate, err := MarginalRate(newIn, newOut, newInE, newOutE, bal.K)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}

	out := txrecord.OutputTx{
		InType:       tx.InType,
		OutType:      tx.OutType,
		InVal:        inVal,
		OutVal:       outVal,
		InPoolInit:   bal.BalanceIn,
		OutPoolInit:  bal.BalanceOut,
		InPoolAfter:  newIn,
		OutPoolAfter: newOut,
		MarketRate:   marketRate,
		AfterRate:    afterRate,
	}
	return out, m.pool.Snapshot(), nil
}

// CalculateEquilibriums returns the pair's currently stored equilibrium
// reference, the target balances corresponding to a zero-gradient state
// against market_rate (spec §4.1): this is the equilibrium the most
// recent Swap (or, absent any trade, the pool's starting balances) has
// already selected.
func (m *PMM) CalculateEquilibriums(intype, outtype token.ID) (primitives.Decimal, primitives.Decimal, error) {
	inE, outE, ok := m.equil.Get(intype, outtype)
	if !ok {
		return primitives.Decimal{}, primitives.Decimal{}, fmt.Errorf("%w: %s/%s", marketmaker.ErrInvalidPair, intype, outtype)
	}
	return inE, outE, nil
}

func (m *PMM) Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	if !m.cfg.Arb {
		return nil, nil, nil
	}
	return arbitrage.Run(pmmArbAdapter{m}, m.cfg.ArbActions)
}

func (m *PMM) Snapshot() poolstate.Snapshot { return m.pool.Snapshot() }

type pmmCheckpoint struct {
	pool  *poolstate.Pairwise
	equil *poolstate.EquilibriumPairwise
}

func (m *PMM) CheckpointState() any {
	return pmmCheckpoint{pool: m.pool.Snapshot(), equil: m.equil.Snapshot()}
}

func (m *PMM) RestoreState(checkpoint any) {
	cp := checkpoint.(pmmCheckpoint)
	m.pool = cp.pool
	m.equil = cp.equil
}

// pmmArbAdapter adapts PMM to arbitrage.Pool. InternalRate is the curve's
// marginal rate at the pool's current state (spec §4.5); SwapToEquilibrium
// trades the in side toward its reference equilibrium, per the literal
// in_amt = in_e - current_in_balance formula.
type pmmArbAdapter struct{ m *PMM }

// Pairs excludes any pair whose output token is flagged as crashing (spec
// §4.5, §6 configure_crash_types).
func (a pmmArbAdapter) Pairs() []poolstate.PairKey {
	all := a.m.pool.Pairs()
	pairs := make([]poolstate.PairKey, 0, len(all))
	for _, p := range all {
		if token.Contains(a.m.cfg.CrashTypes, p.Out) {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs
}

func (a pmmArbAdapter) InternalRate(in, out token.ID) (primitives.Decimal, error) {
	bal, err := a.m.pool.Get(in, out)
	if err != nil {
		return primitives.Decimal{}, err
	}
	inE, outE, ok := a.m.equil.Get(in, out)
	if !ok {
		return primitives.Decimal{}, fmt.Errorf("%w: %s/%s", marketmaker.ErrInvalidPair, in, out)
	}
	return MarginalRate(bal.BalanceIn, bal.BalanceOut, inE, outE, bal.K)
}

func (a pmmArbAdapter) MarketRate(in, out token.ID) (primitives.Decimal, error) {
	return a.m.prices.MarketRate(in, out)
}

func (a pmmArbAdapter) SwapToEquilibrium(in, out token.ID) (txrecord.OutputTx, poolstate.Snapshot, error) {
	inE, _, err := a.m.CalculateEquilibriums(in, out)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	bal, err := a.m.pool.Get(in, out)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	inVal := inE.Sub(bal.BalanceIn)
	if !inVal.IsPositive() {
		return txrecord.OutputTx{}, nil, arbitrage.ErrNoOpportunity
	}
	return a.m.Swap(txrecord.NewSwapTx(in, out, inVal), nil)
}

var _ marketmaker.MarketMaker = (*PMM)(nil)
