package proactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnayoung/go-amm-sim/pkg/makers/proactive"
	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

func newTestMPMM(t *testing.T, balA, balB, balC, k float64) *proactive.MPMM {
	t.Helper()
	tokens := []token.ID{"A", "B", "C"}
	pool, err := poolstate.NewMulti(
		tokens,
		[]primitives.Decimal{
			primitives.NewDecimalFromFloat(balA),
			primitives.NewDecimalFromFloat(balB),
			primitives.NewDecimalFromFloat(balC),
		},
		[]primitives.Decimal{
			primitives.NewDecimalFromFloat(k),
			primitives.NewDecimalFromFloat(k),
			primitives.NewDecimalFromFloat(k),
		},
		true,
	)
	require.NoError(t, err)
	m := proactive.NewMPMM(pool)
	m.Configure(marketmaker.SimulationConfig{Arb: true, ArbActions: 4})
	return m
}

// TestMPMMSwapIsolatedToTradedPair checks that a swap between two tokens
// leaves a third token's balance and equilibrium untouched.
func TestMPMMSwapIsolatedToTradedPair(t *testing.T) {
	mpmm := newTestMPMM(t, 1000, 1000, 500, 0.5)
	mpmm.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.One()),
		"C": primitives.MustPrice(primitives.One()),
	})

	cEBefore, _, err := mpmm.CalculateEquilibriums("C", "A")
	require.NoError(t, err)

	_, snap, err := mpmm.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(50)), nil)
	require.NoError(t, err)

	assert.True(t, snap.TokenBalances()["C"].Equal(primitives.NewDecimalFromFloat(500)))

	cEAfter, _, err := mpmm.CalculateEquilibriums("C", "A")
	require.NoError(t, err)
	assert.True(t, cEBefore.Equal(cEAfter))
}

// TestMPMMSwapUpdatesBothTokensEquilibrium checks that an executed swap
// moves the equilibrium of both the traded tokens (spec §4.4 drift
// following), while the untouched token's equilibrium (checked above)
// stays put.
func TestMPMMSwapUpdatesBothTokensEquilibrium(t *testing.T) {
	mpmm := newTestMPMM(t, 1000, 1000, 500, 0.5)
	mpmm.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.NewDecimalFromFloat(2)),
		"C": primitives.MustPrice(primitives.One()),
	})

	aEBefore, bEBefore, err := mpmm.CalculateEquilibriums("A", "B")
	require.NoError(t, err)
	assert.True(t, aEBefore.Equal(primitives.NewDecimal(1000)))
	assert.True(t, bEBefore.Equal(primitives.NewDecimal(1000)))

	_, _, err = mpmm.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(100)), nil)
	require.NoError(t, err)

	aEAfter, bEAfter, err := mpmm.CalculateEquilibriums("A", "B")
	require.NoError(t, err)
	assert.True(t, aEAfter.IsPositive())
	assert.True(t, bEAfter.IsPositive())
	assert.False(t, aEAfter.Equal(aEBefore), "A equilibrium did not move")
	assert.False(t, bEAfter.Equal(bEBefore), "B equilibrium did not move")
}

// TestMPMMCheckpointRestoreRevertsEquilibrium checks that RestoreState
// reverts both balances and every token's equilibrium a swap moved.
func TestMPMMCheckpointRestoreRevertsEquilibrium(t *testing.T) {
	mpmm := newTestMPMM(t, 1000, 1000, 500, 0.5)
	mpmm.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.One()),
		"C": primitives.MustPrice(primitives.One()),
	})

	checkpoint := mpmm.CheckpointState()

	_, _, err := mpmm.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(50)), nil)
	require.NoError(t, err)

	mpmm.RestoreState(checkpoint)

	aE, bE, err := mpmm.CalculateEquilibriums("A", "B")
	require.NoError(t, err)
	assert.True(t, aE.Equal(primitives.NewDecimal(1000)))
	assert.True(t, bE.Equal(primitives.NewDecimal(1000)))
}

// TestMPMMUsesMaxOfPerTokenK checks that a swap between tokens with
// different shape parameters does not error out, exercising the
// k = max(k[in], k[out]) rule spec §4.4 closes with.
func TestMPMMUsesMaxOfPerTokenK(t *testing.T) {
	tokens := []token.ID{"A", "B"}
	pool, err := poolstate.NewMulti(
		tokens,
		[]primitives.Decimal{primitives.NewDecimalFromFloat(1000), primitives.NewDecimalFromFloat(1000)},
		[]primitives.Decimal{primitives.NewDecimalFromFloat(0.1), primitives.NewDecimalFromFloat(0.9)},
		true,
	)
	require.NoError(t, err)
	mpmm := proactive.NewMPMM(pool)
	mpmm.Configure(marketmaker.SimulationConfig{Arb: true, ArbActions: 4})
	mpmm.SetPrices(token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.One()),
	})

	out, _, err := mpmm.Swap(txrecord.NewSwapTx("A", "B", primitives.NewDecimal(50)), nil)
	require.NoError(t, err)
	assert.True(t, out.OutVal.IsPositive())
}
