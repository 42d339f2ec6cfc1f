package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnayoung/go-amm-sim/pkg/metrics"
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

func newSnapshot(t *testing.T, balA, balB float64) poolstate.Snapshot {
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
	return pool.Snapshot()
}

func TestPriceImpactMatchesRateDelta(t *testing.T) {
	tx := txrecord.OutputTx{
		MarketRate: primitives.NewDecimalFromFloat(1.0),
		AfterRate:  primitives.NewDecimalFromFloat(1.1),
	}
	impact, err := metrics.PriceImpact(tx)
	require.NoError(t, err)
	assert.True(t, impact.Equal(primitives.NewDecimalFromFloat(0.1)))
}

func TestSlippageIsZeroForZeroInput(t *testing.T) {
	tx := txrecord.OutputTx{
		InVal:      primitives.Zero(),
		MarketRate: primitives.NewDecimalFromFloat(1.0),
	}
	slip, err := metrics.Slippage(tx)
	require.NoError(t, err)
	assert.True(t, slip.IsZero())
}

func TestSlippageMatchesExecutedRateDelta(t *testing.T) {
	tx := txrecord.OutputTx{
		InVal:      primitives.NewDecimalFromFloat(100),
		OutVal:     primitives.NewDecimalFromFloat(90),
		MarketRate: primitives.NewDecimalFromFloat(1.0),
	}
	slip, err := metrics.Slippage(tx)
	require.NoError(t, err)
	assert.True(t, slip.Equal(primitives.NewDecimalFromFloat(-0.1)))
}

func TestTokenBalanceChangeReportsDrift(t *testing.T) {
	initial := newSnapshot(t, 1000, 1000)
	current := newSnapshot(t, 1100, 910)

	changes, err := metrics.TokenBalanceChange(initial, current)
	require.NoError(t, err)

	assert.True(t, changes["A"].Equal(primitives.NewDecimalFromFloat(0.1)))
	assert.True(t, changes["B"].Equal(primitives.NewDecimalFromFloat(-0.09)))
}

func TestImpermanentLossIsZeroWhenPriceUnchanged(t *testing.T) {
	initial := newSnapshot(t, 1000, 1000)
	current := newSnapshot(t, 1000, 1000)
	prices := token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.One()),
	}

	il, err := metrics.ImpermanentLoss(initial, current, prices)
	require.NoError(t, err)
	assert.True(t, il.IsZero())
}

func TestCapitalEfficiencyIsOneAgainstSelf(t *testing.T) {
	snap := newSnapshot(t, 1000, 1000)
	prices := token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.One()),
	}

	eff, err := metrics.CapitalEfficiency(snap, snap, prices)
	require.NoError(t, err)
	assert.True(t, eff.Equal(primitives.One()))
}
