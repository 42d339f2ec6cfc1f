// Package metrics computes the economic measures spec §4.6 and the
// supplemented original_source metrics describe: per-transaction price
// impact and slippage, and per-run impermanent gain/loss and capital
// efficiency over pool snapshots.
package metrics

import (
	"fmt"

	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// PriceImpact returns (AfterRate - MarketRate) / MarketRate: how far the
// maker's marginal rate moved away from the market rate as a result of the
// transaction.
func PriceImpact(tx txrecord.OutputTx) (primitives.Decimal, error) {
	if tx.MarketRate.IsZero() {
		return primitives.Decimal{}, fmt.Errorf("price impact: market rate is zero")
	}
	delta := tx.AfterRate.Sub(tx.MarketRate)
	return delta.Div(tx.MarketRate)
}

// Slippage returns (executedRate - MarketRate) / MarketRate, where
// executedRate is OutVal/InVal, the rate the trader actually received.
func Slippage(tx txrecord.OutputTx) (primitives.Decimal, error) {
	if tx.InVal.IsZero() {
		return primitives.Zero(), nil
	}
	if tx.MarketRate.IsZero() {
		return primitives.Decimal{}, fmt.Errorf("slippage: market rate is zero")
	}
	executedRate, err := tx.OutVal.Div(tx.InVal)
	if err != nil {
		return primitives.Decimal{}, err
	}
	delta := executedRate.Sub(tx.MarketRate)
	return delta.Div(tx.MarketRate)
}

// TokenBalanceChange returns, for every token present in both snapshots,
// balance_current/balance_initial - 1: the per-token balance drift a
// liquidity provider experiences (spec supplemented feature, generalizing
// the original per-token impermanent-loss view to both pool shapes via
// poolstate.Snapshot.TokenBalances rather than reading pool-shape-specific
// keys directly).
func TokenBalanceChange(initial, current poolstate.Snapshot) (map[token.ID]primitives.Decimal, error) {
	initBalances := initial.TokenBalances()
	currBalances := current.TokenBalances()

	out := make(map[token.ID]primitives.Decimal, len(initBalances))
	for tok, initBal := range initBalances {
		currBal, ok := currBalances[tok]
		if !ok {
			return nil, fmt.Errorf("token balance change: %s missing from current snapshot", tok)
		}
		if initBal.IsZero() {
			continue
		}
		ratio, err := currBal.Div(initBal)
		if err != nil {
			return nil, err
		}
		out[tok] = ratio.Sub(primitives.One())
	}
	return out, nil
}

// ImpermanentLoss returns poolValue/holdValue - 1, where holdValue is the
// value of the initial snapshot's balances priced at the current snapshot's
// market prices, and poolValue is the current snapshot's actual value. A
// negative result is impermanent loss; a positive result is impermanent
// gain (spec §4.6).
func ImpermanentLoss(initial, current poolstate.Snapshot, prices token.PriceMap) (primitives.Decimal, error) {
	holdValue := primitives.Zero()
	for tok, bal := range initial.TokenBalances() {
		price, err := prices.Price(tok)
		if err != nil {
			return primitives.Decimal{}, err
		}
		holdValue = holdValue.Add(bal.Mul(price.Decimal()))
	}
	if holdValue.IsZero() {
		return primitives.Decimal{}, fmt.Errorf("impermanent loss: hold value is zero")
	}

	poolValue, err := current.TotalValue(prices)
	if err != nil {
		return primitives.Decimal{}, err
	}

	ratio, err := poolValue.Div(holdValue)
	if err != nil {
		return primitives.Decimal{}, err
	}
	return ratio.Sub(primitives.One()), nil
}

// CapitalEfficiency returns current pool value relative to baseline pool
// value, both priced at the same map. A ratio below one means the pool's
// value has shrunk relative to the baseline for the same held positions;
// comparing this across maker variants seeded with identical starting
// balances is how the simulator's economic-comparison goal (spec §1
// OVERVIEW) is realized in code.
func CapitalEfficiency(baseline, current poolstate.Snapshot, prices token.PriceMap) (primitives.Decimal, error) {
	baselineValue, err := baseline.TotalValue(prices)
	if err != nil {
		return primitives.Decimal{}, err
	}
	if baselineValue.IsZero() {
		return primitives.Decimal{}, fmt.Errorf("capital efficiency: baseline value is zero")
	}
	currentValue, err := current.TotalValue(prices)
	if err != nil {
		return primitives.Decimal{}, err
	}
	return currentValue.Div(baselineValue)
}
