// Package traffic generates input transaction tapes, the Go equivalent of
// the original source's trafficgens module (spec supplemented feature,
// grounded on original_source/trafficgens.py): a fixed-sequence traverser
// for reproducible test tapes, and a normally distributed generator for
// randomized simulation runs.
package traffic

import (
	"math/rand"

	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// AmountTraverser generates one swap transaction per amount in Amounts, in
// order, alternating direction between InType/OutType and OutType/InType
// every step so the tape exercises both sides of a pair.
type AmountTraverser struct {
	InType  token.ID
	OutType token.ID
	Amounts []primitives.Decimal
}

// Generate returns the full transaction tape.
func (g AmountTraverser) Generate() []txrecord.InputTx {
	tape := make([]txrecord.InputTx, len(g.Amounts))
	for i, amt := range g.Amounts {
		if i%2 == 0 {
			tape[i] = txrecord.NewSwapTx(g.InType, g.OutType, amt)
		} else {
			tape[i] = txrecord.NewSwapTx(g.OutType, g.InType, amt)
		}
	}
	return tape
}

// NormallyDistributed generates a tape of n swap transactions between
// InType and OutType, each with an input amount drawn from
// max(Floor, Mean + StdDev*z) for a standard-normal z, so no generated
// amount falls below Floor (spec supplemented feature: the original
// generator clamps a normal draw rather than rejecting negative samples).
type NormallyDistributed struct {
	InType  token.ID
	OutType token.ID
	Mean    float64
	StdDev  float64
	Floor   float64
	Count   int
	Rand    *rand.Rand
}

// Generate returns the generated transaction tape.
func (g NormallyDistributed) Generate() []txrecord.InputTx {
	r := g.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}

	tape := make([]txrecord.InputTx, g.Count)
	for i := 0; i < g.Count; i++ {
		sample := g.Mean + g.StdDev*r.NormFloat64()
		if sample < g.Floor {
			sample = g.Floor
		}
		amt := primitives.NewDecimalFromFloat(sample)
		if i%2 == 0 {
			tape[i] = txrecord.NewSwapTx(g.InType, g.OutType, amt)
		} else {
			tape[i] = txrecord.NewSwapTx(g.OutType, g.InType, amt)
		}
	}
	return tape
}
