// Package txrecord defines the input and output transaction records that
// flow through the simulator (spec DATA MODEL §3): the traffic tape is a
// stream of InputTx, and every executed swap or arbitrage action produces
// an OutputTx.
package txrecord

import (
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// InputTx is one entry from the traffic tape. When IsArb is true, InType,
// OutType, and InVal are ignored and the market-maker self-selects the
// arbitrage action (spec §3).
type InputTx struct {
	InType  token.ID
	OutType token.ID
	InVal   primitives.Decimal
	IsArb   bool
}

// NewSwapTx builds a regular (non-arbitrage) input transaction.
func NewSwapTx(inType, outType token.ID, inVal primitives.Decimal) InputTx {
	return InputTx{InType: inType, OutType: outType, InVal: inVal}
}

// NewArbTx builds an arbitrage-flagged input transaction; the market-maker
// ignores InType/OutType/InVal for these.
func NewArbTx() InputTx {
	return InputTx{IsArb: true}
}

// OutputTx is the per-executed-swap record spec §3 defines. MarketRate is
// price[outtype]/price[intype] at execution time; AfterRate is the
// marginal internal rate immediately after the swap.
type OutputTx struct {
	InType  token.ID
	OutType token.ID
	InVal   primitives.Decimal
	OutVal  primitives.Decimal

	InPoolInit   primitives.Decimal
	OutPoolInit  primitives.Decimal
	InPoolAfter  primitives.Decimal
	OutPoolAfter primitives.Decimal

	MarketRate primitives.Decimal
	AfterRate  primitives.Decimal
}
