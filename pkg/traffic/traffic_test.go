package traffic_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/traffic"
)

func TestAmountTraverserAlternatesDirection(t *testing.T) {
	gen := traffic.AmountTraverser{
		InType:  "A",
		OutType: "B",
		Amounts: []primitives.Decimal{primitives.NewDecimal(10), primitives.NewDecimal(20), primitives.NewDecimal(30)},
	}
	tape := gen.Generate()
	assert.Len(t, tape, 3)
	assert.Equal(t, "A", string(tape[0].InType))
	assert.Equal(t, "B", string(tape[0].OutType))
	assert.Equal(t, "B", string(tape[1].InType))
	assert.Equal(t, "A", string(tape[1].OutType))
}

func TestNormallyDistributedClampsAtFloor(t *testing.T) {
	gen := traffic.NormallyDistributed{
		InType:  "A",
		OutType: "B",
		Mean:    0,
		StdDev:  1000,
		Floor:   5,
		Count:   50,
		Rand:    rand.New(rand.NewSource(42)),
	}
	tape := gen.Generate()
	assert.Len(t, tape, 50)
	for _, tx := range tape {
		assert.False(t, tx.InVal.LessThan(primitives.NewDecimalFromFloat(5)))
	}
}

func TestNormallyDistributedIsDeterministicForFixedSeed(t *testing.T) {
	gen := func() traffic.NormallyDistributed {
		return traffic.NormallyDistributed{
			InType: "A", OutType: "B", Mean: 100, StdDev: 10, Floor: 0, Count: 5,
			Rand: rand.New(rand.NewSource(7)),
		}
	}
	tape1 := gen().Generate()
	tape2 := gen().Generate()
	for i := range tape1 {
		assert.True(t, tape1[i].InVal.Equal(tape2[i].InVal))
	}
}
