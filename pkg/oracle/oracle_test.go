package oracle_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnayoung/go-amm-sim/pkg/oracle"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

func initialPrices() token.PriceMap {
	return token.PriceMap{
		"A": primitives.MustPrice(primitives.One()),
		"B": primitives.MustPrice(primitives.NewDecimal(2)),
	}
}

func TestRandomPriceMovementIncludesInitialAsFirstStep(t *testing.T) {
	gen := oracle.RandomPriceMovement{
		Initial:    initialPrices(),
		Volatility: 0.05,
		Steps:      10,
		Rand:       rand.New(rand.NewSource(1)),
	}
	series := gen.Generate()
	require.Len(t, series, 11)

	pA, err := series[0].Price("A")
	require.NoError(t, err)
	assert.True(t, pA.Decimal().Equal(primitives.One()))
}

func TestRandomPriceMovementNeverGoesNegative(t *testing.T) {
	gen := oracle.RandomPriceMovement{
		Initial:    initialPrices(),
		Volatility: 5.0,
		Steps:      200,
		Rand:       rand.New(rand.NewSource(3)),
	}
	series := gen.Generate()
	for _, pm := range series {
		for _, p := range pm {
			assert.False(t, p.Decimal().IsNegative())
		}
	}
}

func TestPriceCrashAppliesOnlyFromStartBatch(t *testing.T) {
	batches := []token.PriceMap{initialPrices(), initialPrices(), initialPrices()}
	crash := oracle.PriceCrash{Tokens: []token.ID{"A"}, Factor: 0.5, StartBatch: 1}

	out, err := crash.Apply(batches)
	require.NoError(t, err)

	pre, err := out[0].Price("A")
	require.NoError(t, err)
	assert.True(t, pre.Decimal().Equal(primitives.One()))

	post, err := out[1].Price("A")
	require.NoError(t, err)
	assert.True(t, post.Decimal().Equal(primitives.NewDecimalFromFloat(0.5)))
}

func TestPriceCrashRejectsNegativeFactor(t *testing.T) {
	_, err := oracle.PriceCrash{Tokens: []token.ID{"A"}, Factor: -1, StartBatch: 0}.Apply([]token.PriceMap{initialPrices()})
	assert.Error(t, err)
}
