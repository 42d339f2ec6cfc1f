// Package balanceinit seeds pool balances from a target total value and a
// price map, the way the original source's balance initializer derives
// starting reserves for a requested notional instead of requiring the
// caller to compute per-token amounts by hand (spec supplemented feature,
// grounded on original_source/balance_initializer.py).
package balanceinit

import (
	"fmt"

	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// Pairwise builds a Pairwise pool for pairs, splitting totalValue evenly
// between each pair's two sides and converting to token units via prices.
// k is applied uniformly to every entry; pass requireKRange to match the
// target maker's validation (true for PMM, false otherwise).
func Pairwise(pairs []poolstate.PairKey, totalValue primitives.Decimal, prices token.PriceMap, k primitives.Decimal, requireKRange bool) (*poolstate.Pairwise, error) {
	half, err := totalValue.Div(primitives.NewDecimal(2))
	if err != nil {
		return nil, err
	}

	balancesA := make([]primitives.Decimal, len(pairs))
	balancesB := make([]primitives.Decimal, len(pairs))
	ks := make([]primitives.Decimal, len(pairs))

	for i, pair := range pairs {
		priceIn, err := prices.Price(pair.In)
		if err != nil {
			return nil, err
		}
		priceOut, err := prices.Price(pair.Out)
		if err != nil {
			return nil, err
		}
		if priceIn.IsZero() || priceOut.IsZero() {
			return nil, fmt.Errorf("balanceinit: zero price for pair %s/%s", pair.In, pair.Out)
		}
		balancesA[i], err = half.Div(priceIn.Decimal())
		if err != nil {
			return nil, err
		}
		balancesB[i], err = half.Div(priceOut.Decimal())
		if err != nil {
			return nil, err
		}
		ks[i] = k
	}

	return poolstate.NewPairwise(pairs, balancesA, balancesB, ks, requireKRange)
}

// Multi builds a Multi pool for tokens, splitting totalValue evenly across
// all of them.
func Multi(tokens []token.ID, totalValue primitives.Decimal, prices token.PriceMap, k primitives.Decimal, requireKRange bool) (*poolstate.Multi, error) {
	share, err := totalValue.Div(primitives.NewDecimal(int64(len(tokens))))
	if err != nil {
		return nil, err
	}

	balances := make([]primitives.Decimal, len(tokens))
	ks := make([]primitives.Decimal, len(tokens))

	for i, tok := range tokens {
		price, err := prices.Price(tok)
		if err != nil {
			return nil, err
		}
		if price.IsZero() {
			return nil, fmt.Errorf("balanceinit: zero price for token %s", tok)
		}
		balances[i], err = share.Div(price.Decimal())
		if err != nil {
			return nil, err
		}
		ks[i] = k
	}

	return poolstate.NewMulti(tokens, balances, ks, requireKRange)
}
