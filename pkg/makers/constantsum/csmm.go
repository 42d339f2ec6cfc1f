// Package constantsum implements the constant-sum curve (spec §4.3): CSMM
// over a Pairwise pool and MCSMM over a Multi pool. Every swap executes at
// exactly the current market rate, so the pool's internal rate never
// diverges from the market and arbitrage against it is always a no-op. A
// swap that would drain the output side below zero is not an error: it is
// recorded as a zero-amount transaction, matching the refusal behavior the
// source models for constant-sum pools (spec §4.3, §7).
package constantsum

import (
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// CSMM is the two-token constant-sum maker.
type CSMM struct {
	pool   *poolstate.Pairwise
	prices token.PriceMap
	cfg    marketmaker.SimulationConfig
}

// NewCSMM builds a CSMM over an already-constructed Pairwise pool.
func NewCSMM(pool *poolstate.Pairwise) *CSMM {
	return &CSMM{pool: pool}
}

func (m *CSMM) Variant() marketmaker.Variant { return marketmaker.VariantCSMM }

func (m *CSMM) Configure(cfg marketmaker.SimulationConfig) { m.cfg = cfg }

func (m *CSMM) SetPrices(prices token.PriceMap) { m.prices = prices }

func (m *CSMM) Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error) {
	bal, err := m.pool.Get(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	marketRate, err := m.prices.MarketRate(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}

	var inVal, outVal primitives.Decimal
	if outAmt != nil {
		outVal = *outAmt
		inVal, err = outVal.Div(marketRate)
		if err != nil {
			return txrecord.OutputTx{}, nil, err
		}
	} else {
		inVal = tx.InVal
		outVal = inVal.Mul(marketRate)
	}

	newIn := bal.BalanceIn.Add(inVal)
	newOut := bal.BalanceOut.Sub(outVal)

	if newOut.IsNegative() {
		// Refuse: record a zero-amount transaction instead of driving the
		// pool insolvent (spec §4.3, §7 ErrInsufficientLiquidity recovery).
		zero := primitives.Zero()
		out := txrecord.OutputTx{
			InType:       tx.InType,
			OutType:      tx.OutType,
			InVal:        zero,
			OutVal:       zero,
			InPoolInit:   bal.BalanceIn,
			OutPoolInit:  bal.BalanceOut,
			InPoolAfter:  bal.BalanceIn,
			OutPoolAfter: bal.BalanceOut,
			MarketRate:   marketRate,
			AfterRate:    marketRate,
		}
		return out, m.pool.Snapshot(), nil
	}

	m.pool.Set(tx.InType, tx.OutType, newIn, newOut, bal.K)

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
		AfterRate:    marketRate,
	}
	return out, m.pool.Snapshot(), nil
}

// CalculateEquilibriums returns the pool's current balances unchanged: a
// constant-sum pool always trades at the market rate, so it is already at
// equilibrium by construction.
func (m *CSMM) CalculateEquilibriums(intype, outtype token.ID) (primitives.Decimal, primitives.Decimal, error) {
	bal, err := m.pool.Get(intype, outtype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	return bal.BalanceIn, bal.BalanceOut, nil
}

// Arbitrage is always a no-op for CSMM: the internal rate never diverges
// from the market rate, so there is nothing to arbitrage (spec §4.3).
func (m *CSMM) Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	return nil, nil, nil
}

func (m *CSMM) Snapshot() poolstate.Snapshot { return m.pool.Snapshot() }

type csmmCheckpoint struct {
	pool *poolstate.Pairwise
}

func (m *CSMM) CheckpointState() any {
	return csmmCheckpoint{pool: m.pool.Snapshot()}
}

func (m *CSMM) RestoreState(checkpoint any) {
	cp := checkpoint.(csmmCheckpoint)
	m.pool = cp.pool
}
