package poolstate

import (
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// Snapshot is the common read surface over a deep-copied pool state,
// regardless of whether it backs a pairwise or multi-token maker. The
// simulation driver stores one Snapshot per executed action (spec §3
// "Pool snapshot"); pkg/metrics reads it back through this interface.
type Snapshot interface {
	// TokenBalances returns each token's total balance in the pool at the
	// time of the snapshot.
	TokenBalances() map[token.ID]primitives.Decimal

	// TotalValue returns the pool's total value given a price map.
	TotalValue(prices token.PriceMap) (primitives.Decimal, error)
}

var (
	_ Snapshot = (*Pairwise)(nil)
	_ Snapshot = (*Multi)(nil)
)
