package constantproduct

import (
	"fmt"

	"github.com/johnayoung/go-amm-sim/pkg/arbitrage"
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// MAMM is the multi-token constant-product maker: every pair of tokens
// held in a single Multi pool trades under its own x*y=k relationship
// between just those two balances (spec §4.2 "multi-asset" generalization;
// no cross-pair weighting is modeled, matching the scope of the original
// per-pair mamm.py logic rather than a joint Balancer-style invariant).
type MAMM struct {
	pool   *poolstate.Multi
	prices token.PriceMap
	cfg    marketmaker.SimulationConfig
}

// NewMAMM builds a MAMM over an already-constructed Multi pool.
func NewMAMM(pool *poolstate.Multi) *MAMM {
	return &MAMM{pool: pool}
}

func (m *MAMM) Variant() marketmaker.Variant { return marketmaker.VariantMAMM }

func (m *MAMM) Configure(cfg marketmaker.SimulationConfig) { m.cfg = cfg }

func (m *MAMM) SetPrices(prices token.PriceMap) { m.prices = prices }

func multiRate(in, out poolstate.TokenBalance) (primitives.Decimal, error) {
	return out.Balance.Div(in.Balance)
}

func (m *MAMM) Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error) {
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

	k := inBal.Balance.Mul(outBal.Balance)

	var inVal, outVal, newIn, newOut primitives.Decimal
	if outAmt != nil {
		outVal = *outAmt
		if !outVal.LessThan(outBal.Balance) {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: requested out %s >= pool balance %s", marketmaker.ErrInsufficientLiquidity, outVal, outBal.Balance)
		}
		newOut = outBal.Balance.Sub(outVal)
		newIn, err = k.Div(newOut)
		if err != nil {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
		}
		inVal = newIn.Sub(inBal.Balance)
	} else {
		inVal = tx.InVal
		newIn = inBal.Balance.Add(inVal)
		newOut, err = k.Div(newIn)
		if err != nil {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
		}
		outVal = outBal.Balance.Sub(newOut)
		if !outVal.LessThan(outBal.Balance) || outVal.IsNegative() {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: pair %s/%s", marketmaker.ErrInsufficientLiquidity, tx.InType, tx.OutType)
		}
	}

	m.pool.Set(tx.InType, newIn)
	m.pool.Set(tx.OutType, newOut)

	afterOutBal, _ := m.pool.Get(tx.OutType)
	afterInBal, _ := m.pool.Get(tx.InType)
	afterRate, err := multiRate(afterInBal, afterOutBal)
	if err != nil {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
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

func (m *MAMM) CalculateEquilibriums(intype, outtype token.ID) (primitives.Decimal, primitives.Decimal, error) {
	inBal, err := m.pool.Get(intype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	outBal, err := m.pool.Get(outtype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	marketRate, err := m.prices.MarketRate(intype, outtype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	k := inBal.Balance.Mul(outBal.Balance)
	ratio, err := k.Div(marketRate)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
	}
	inE, err := ratio.Sqrt()
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
	}
	outE := inE.Mul(marketRate)
	return inE, outE, nil
}

func (m *MAMM) Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	if !m.cfg.Arb {
		return nil, nil, nil
	}
	return arbitrage.Run(mammArbAdapter{m}, m.cfg.ArbActions)
}

func (m *MAMM) Snapshot() poolstate.Snapshot { return m.pool.Snapshot() }

type mammCheckpoint struct {
	pool *poolstate.Multi
}

func (m *MAMM) CheckpointState() any {
	return mammCheckpoint{pool: m.pool.Snapshot()}
}

func (m *MAMM) RestoreState(checkpoint any) {
	cp := checkpoint.(mammCheckpoint)
	m.pool = cp.pool
}

// mammArbAdapter adapts MAMM to arbitrage.Pool, scanning every ordered pair
// of tokens held in the pool (spec §4.5).
type mammArbAdapter struct{ m *MAMM }

// Pairs scans every ordered pair of tokens held in the pool, excluding any
// pair whose output token is flagged as crashing (spec §4.5, §6
// configure_crash_types).
func (a mammArbAdapter) Pairs() []poolstate.PairKey {
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

func (a mammArbAdapter) InternalRate(in, out token.ID) (primitives.Decimal, error) {
	inBal, err := a.m.pool.Get(in)
	if err != nil {
		return primitives.Decimal{}, err
	}
	outBal, err := a.m.pool.Get(out)
	if err != nil {
		return primitives.Decimal{}, err
	}
	return multiRate(inBal, outBal)
}

func (a mammArbAdapter) MarketRate(in, out token.ID) (primitives.Decimal, error) {
	return a.m.prices.MarketRate(in, out)
}

func (a mammArbAdapter) SwapToEquilibrium(in, out token.ID) (txrecord.OutputTx, poolstate.Snapshot, error) {
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
