// Package arbitrage implements the rate-ranked, pass-based arbitrage loop
// shared by every maker variant (spec §4.5). Each variant adapts its own
// pool through the Pool interface; the scanning, ranking, and pass-limit
// logic lives here exactly once instead of being duplicated per curve, a
// deliberate generalization of the original's per-class arbitrage methods
// (spec §9 design note).
package arbitrage

import (
	"errors"
	"sort"

	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// ErrNoOpportunity is returned internally when no pair currently offers a
// profitable rate; Run treats it as a normal loop-termination signal rather
// than an error.
var ErrNoOpportunity = errors.New("no arbitrage opportunity")

// Pool is the narrow view of a maker's pool the arbitrage scanner needs. A
// maker variant implements this directly over its own pool state rather
// than exposing internals.
type Pool interface {
	// Pairs lists the directed pairs currently tradable.
	Pairs() []poolstate.PairKey

	// InternalRate returns the pool's current marginal rate of out per unit
	// of in (how much out one more unit of in buys, at the margin).
	InternalRate(in, out token.ID) (primitives.Decimal, error)

	// MarketRate returns the reference market rate of out per unit of in.
	MarketRate(in, out token.ID) (primitives.Decimal, error)

	// SwapToEquilibrium executes the arbitrage-sized swap for the pair
	// (in, out) that drives its internal rate back toward the market
	// rate, and returns the resulting transaction record and snapshot.
	SwapToEquilibrium(in, out token.ID) (txrecord.OutputTx, poolstate.Snapshot, error)
}

// candidate is one pair's opportunity score for a single ranking pass.
type candidate struct {
	pair poolstate.PairKey
	rate float64
}

// Run performs up to maxActions arbitrage swaps against p. On each pass it
// scans every directed pair, computes ratio = internalRate/marketRate, and
// keeps only pairs with ratio > 1 (the pool offers out cheaper than the
// market, so an arbitrageur profits buying out with in). Among those it
// executes the single largest-ratio pair, then re-scans, since one swap
// can change every other pair's rate. The loop stops early once no pair
// has ratio > 1 (spec §4.5, §9 design note (c): largest-rate-wins variant).
func Run(p Pool, maxActions int) ([]txrecord.OutputTx, []poolstate.Snapshot, error) {
	var (
		txs   []txrecord.OutputTx
		snaps []poolstate.Snapshot
	)

	for i := 0; i < maxActions; i++ {
		best, ok, err := bestCandidate(p)
		if err != nil {
			return txs, snaps, err
		}
		if !ok {
			break
		}

		out, snap, err := p.SwapToEquilibrium(best.pair.In, best.pair.Out)
		if errors.Is(err, ErrNoOpportunity) {
			break
		}
		if err != nil {
			return txs, snaps, err
		}
		txs = append(txs, out)
		snaps = append(snaps, snap)
	}

	return txs, snaps, nil
}

func bestCandidate(p Pool) (candidate, bool, error) {
	pairs := p.Pairs()
	candidates := make([]candidate, 0, len(pairs))

	for _, pair := range pairs {
		internal, err := p.InternalRate(pair.In, pair.Out)
		if err != nil {
			continue
		}
		market, err := p.MarketRate(pair.In, pair.Out)
		if err != nil {
			continue
		}
		if market.IsZero() {
			continue
		}
		ratioDec, err := internal.Div(market)
		if err != nil {
			continue
		}
		ratio := ratioDec.Float64()
		if ratio > 1 {
			candidates = append(candidates, candidate{pair: pair, rate: ratio})
		}
	}

	if len(candidates) == 0 {
		return candidate{}, false, nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].rate > candidates[j].rate })
	return candidates[0], true, nil
}
