// Package constantproduct implements the constant-product curve (spec
// §4.2): AMM over a Pairwise pool and MAMM over a Multi pool. Both enforce
// balanceIn * balanceOut = k on every swap; CalculateEquilibriums solves
// for the balances at which the marginal rate balanceOut/balanceIn equals
// the market rate, holding k fixed.
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

// AMM is the two-token constant-product maker, one independent pairwise
// pool per traded pair.
type AMM struct {
	pool   *poolstate.Pairwise
	prices token.PriceMap
	cfg    marketmaker.SimulationConfig
}

// NewAMM builds an AMM over an already-constructed Pairwise pool.
func NewAMM(pool *poolstate.Pairwise) *AMM {
	return &AMM{pool: pool}
}

func (m *AMM) Variant() marketmaker.Variant { return marketmaker.VariantAMM }

func (m *AMM) Configure(cfg marketmaker.SimulationConfig) { m.cfg = cfg }

func (m *AMM) SetPrices(prices token.PriceMap) { m.prices = prices }

// rate returns the pool's current marginal price of out per unit of in:
// for x*y=k, that's balanceOut/balanceIn.
func rate(bal poolstate.Balances) (primitives.Decimal, error) {
	return bal.BalanceOut.Div(bal.BalanceIn)
}

func (m *AMM) Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error) {
	bal, err := m.pool.Get(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}
	marketRate, err := m.prices.MarketRate(tx.InType, tx.OutType)
	if err != nil {
		return txrecord.OutputTx{}, nil, err
	}

	k := bal.BalanceIn.Mul(bal.BalanceOut)

	var inVal, outVal, newIn, newOut primitives.Decimal
	if outAmt != nil {
		outVal = *outAmt
		if !outVal.LessThan(bal.BalanceOut) {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: requested out %s >= pool balance %s", marketmaker.ErrInsufficientLiquidity, outVal, bal.BalanceOut)
		}
		newOut = bal.BalanceOut.Sub(outVal)
		newIn, err = k.Div(newOut)
		if err != nil {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
		}
		inVal = newIn.Sub(bal.BalanceIn)
	} else {
		inVal = tx.InVal
		newIn = bal.BalanceIn.Add(inVal)
		newOut, err = k.Div(newIn)
		if err != nil {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
		}
		outVal = bal.BalanceOut.Sub(newOut)
		if !outVal.LessThan(bal.BalanceOut) || outVal.IsNegative() {
			return txrecord.OutputTx{}, nil, fmt.Errorf("%w: pair %s/%s", marketmaker.ErrInsufficientLiquidity, tx.InType, tx.OutType)
		}
	}

	m.pool.Set(tx.InType, tx.OutType, newIn, newOut, bal.K)

	afterBal, _ := m.pool.Get(tx.InType, tx.OutType)
	afterRate, err := rate(afterBal)
	if err != nil {
		return txrecord.OutputTx{}, nil, fmt.Errorf("%w: %s", marketmaker.ErrNumericFailure, err)
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

// CalculateEquilibriums solves inE*outE=k, outE/inE=marketRate for the pair
// (intype, outtype), holding the pool's current k fixed (spec §4.2).
func (m *AMM) CalculateEquilibriums(intype, outtype token.ID) (primitives.Decimal, primitives.Decimal, error) {
	bal, err := m.pool.Get(intype, outtype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	marketRate, err := m.prices.MarketRate(intype, outtype)
	if err != nil {
		return primitives.Decimal{}, primitives.Decimal{}, err
	}
	k := bal.BalanceIn.Mul(bal.BalanceOut)
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

func (m *AMM) Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	if !m.cfg.Arb {
		return nil, nil, nil
	}
	return arbitrage.Run(ammArbAdapter{m}, m.cfg.ArbActions)
}

func (m *AMM) Snapshot() poolstate.Snapshot { return m.pool.Snapshot() }

// ammCheckpoint is the opaque state CheckpointState/RestoreState exchange.
type ammCheckpoint struct {
	pool *poolstate.Pairwise
}

func (m *AMM) CheckpointState() any {
	return ammCheckpoint{pool: m.pool.Snapshot()}
}

func (m *AMM) RestoreState(checkpoint any) {
	cp := checkpoint.(ammCheckpoint)
	m.pool = cp.pool
}

// ammArbAdapter adapts AMM to arbitrage.Pool without exposing AMM's own
// Swap(outAmt) escape hatch to the generic scanner.
type ammArbAdapter struct{ m *AMM }

// Pairs excludes any pair whose output token is flagged as crashing: a
// crashed token's oracle price is no longer trustworthy enough to justify
// arbitraging the pool toward it (spec §4.5, §6 configure_crash_types).
func (a ammArbAdapter) Pairs() []poolstate.PairKey {
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

func (a ammArbAdapter) InternalRate(in, out token.ID) (primitives.Decimal, error) {
	bal, err := a.m.pool.Get(in, out)
	if err != nil {
		return primitives.Decimal{}, err
	}
	return rate(bal)
}

func (a ammArbAdapter) MarketRate(in, out token.ID) (primitives.Decimal, error) {
	return a.m.prices.MarketRate(in, out)
}

func (a ammArbAdapter) SwapToEquilibrium(in, out token.ID) (txrecord.OutputTx, poolstate.Snapshot, error) {
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
