package poolstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

func TestNewPairwiseRejectsNegativeBalance(t *testing.T) {
	pairs := []poolstate.PairKey{{In: "A", Out: "B"}, {In: "B", Out: "A"}}
	_, err := poolstate.NewPairwise(
		pairs,
		[]primitives.Decimal{primitives.NewDecimal(-1), primitives.NewDecimal(100)},
		[]primitives.Decimal{primitives.NewDecimal(100), primitives.NewDecimal(-1)},
		[]primitives.Decimal{primitives.Zero(), primitives.Zero()},
		false,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, poolstate.ErrInvalidInput)
}

func TestNewPairwiseRequiresKInRange(t *testing.T) {
	pairs := []poolstate.PairKey{{In: "A", Out: "B"}, {In: "B", Out: "A"}}
	_, err := poolstate.NewPairwise(
		pairs,
		[]primitives.Decimal{primitives.NewDecimal(100), primitives.NewDecimal(100)},
		[]primitives.Decimal{primitives.NewDecimal(100), primitives.NewDecimal(100)},
		[]primitives.Decimal{primitives.NewDecimal(2), primitives.NewDecimal(2)},
		true,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, poolstate.ErrInvalidInput)
}

func TestSetKeepsMirrorConsistent(t *testing.T) {
	pairs := []poolstate.PairKey{{In: "A", Out: "B"}, {In: "B", Out: "A"}}
	p, err := poolstate.NewPairwise(
		pairs,
		[]primitives.Decimal{primitives.NewDecimal(1000), primitives.NewDecimal(1000)},
		[]primitives.Decimal{primitives.NewDecimal(1000), primitives.NewDecimal(1000)},
		[]primitives.Decimal{primitives.Zero(), primitives.Zero()},
		false,
	)
	require.NoError(t, err)

	p.Set("A", "B", primitives.NewDecimal(1100), primitives.NewDecimal(910), primitives.Zero())

	forward, err := p.Get("A", "B")
	require.NoError(t, err)
	mirror, err := p.Get("B", "A")
	require.NoError(t, err)

	assert.True(t, forward.BalanceIn.Equal(mirror.BalanceOut))
	assert.True(t, forward.BalanceOut.Equal(mirror.BalanceIn))
}

func TestTotalValueCountsEachPairOnce(t *testing.T) {
	pairs := []poolstate.PairKey{{In: "A", Out: "B"}, {In: "B", Out: "A"}}
	p, err := poolstate.NewPairwise(
		pairs,
		[]primitives.Decimal{primitives.NewDecimal(100), primitives.NewDecimal(200)},
		[]primitives.Decimal{primitives.NewDecimal(200), primitives.NewDecimal(100)},
		[]primitives.Decimal{primitives.Zero(), primitives.Zero()},
		false,
	)
	require.NoError(t, err)

	prices := token.PriceMap{
		"A": primitives.MustPrice(primitives.NewDecimal(2)),
		"B": primitives.MustPrice(primitives.NewDecimal(1)),
	}

	total, err := p.TotalValue(prices)
	require.NoError(t, err)
	// 100*2 + 200*1 = 400, counted once despite two mirrored map entries.
	assert.True(t, total.Equal(primitives.NewDecimal(400)))
}
