package constantsum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnayoung/go-amm-sim/pkg/makers/constantsum"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

func newTestCSMM(t *testing.T, balA, balB float64) *constantsum.CSMM {
	t.Helper()
	pairs := []poolstate.PairKey{{In: "A", Out: "B"}, {In: "B", Out: "A"}}
	pool, err := poolstate.NewPairwise(
		pairs,
		[]primitives.Decimal{primitives.NewDecimalFromFloat(balA), primitives.NewDecimalFromFloat(balB)},
		[]primitives.Decimal{primitives.NewDecimalFromFloat(balB), primitives.NewDecimalFromFloat(balA)},
		[]primitives.Decimal{primitives.Zero(), primitives.Zero()},
		false,
	)
	require.NoError(t, err)
	return constantsum.NewCSMM(pool)
}

// TestCSMMIsLinear checks that output scales linearly with input at a
// fixed market rate, the defining property of a constant-sum pool
// (spec §8 "Linearity").
func TestCSMMIsLinear(t *testing.T) {
	csmm := newTestCSMM(t, 1000, 1000)
	csmm.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.NewDecimalFromFloat(2)),
	})

	out1, _, err := csmm.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(10)), nil)
	require.NoError(t, err)

	csmm2 := newTestCSMM(t, 1000, 1000)
	csmm2.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.NewDecimalFromFloat(2)),
	})
	out2, _, err := csmm2.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(20)), nil)
	require.NoError(t, err)

	doubled := out1.OutVal.Mul(primitives.NewDecimal(2))
	diff := out2.OutVal.Sub(doubled).Abs()
	assert.True(t, diff.LessThan(primitives.NewDecimalFromFloat(1e-9)))
}

// TestCSMMRefusesInsolventSwap checks that a swap which would drain the
// output side below zero is recorded as a zero-amount transaction instead
// of mutating the pool or returning an error (spec §4.3, §7).
func TestCSMMRefusesInsolventSwap(t *testing.T) {
	csmm := newTestCSMM(t, 1000, 10)
	csmm.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.One()),
	})

	out, _, err := csmm.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(50)), nil)
	require.NoError(t, err)

	assert.True(t, out.InVal.IsZero())
	assert.True(t, out.OutVal.IsZero())
	assert.True(t, out.InPoolAfter.Equal(out.InPoolInit))
	assert.True(t, out.OutPoolAfter.Equal(out.OutPoolInit))
}

// TestCSMMArbitrageIsNoOp checks that CSMM arbitrage never executes a
// trade, since the pool always trades at the market rate (spec §4.3).
func TestCSMMArbitrageIsNoOp(t *testing.T) {
	csmm := newTestCSMM(t, 1000, 1000)
	txs, snaps, err := csmm.Arbitrage()
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Empty(t, snaps)
}
