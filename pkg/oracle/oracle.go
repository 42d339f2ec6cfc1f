// Package oracle generates the sequence of per-batch price maps a
// simulation run trades under, the Go equivalent of the original source's
// oracles module (spec supplemented feature, grounded on
// original_source/oracles.py): a random-walk price mover for ordinary
// runs, and a crash injector for the configure_crash_types scenarios spec
// §6 describes.
package oracle

import (
	"fmt"
	"math/rand"

	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// RandomPriceMovement generates n successive price maps starting from
// Initial, each token's price independently multiplied at every step by
// max(0, 1 + Volatility*z) for a standard-normal draw z.
type RandomPriceMovement struct {
	Initial    token.PriceMap
	Volatility float64
	Steps      int
	Rand       *rand.Rand
}

// Generate returns the sequence of price maps, Initial included as the
// first element.
func (g RandomPriceMovement) Generate() []token.PriceMap {
	r := g.Rand
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}

	out := make([]token.PriceMap, g.Steps+1)
	out[0] = g.Initial.Clone()

	current := g.Initial.Clone()
	for step := 1; step <= g.Steps; step++ {
		next := make(token.PriceMap, len(current))
		for tok, price := range current {
			factor := 1 + g.Volatility*r.NormFloat64()
			if factor < 0 {
				factor = 0
			}
			next[tok] = primitives.MustPrice(price.Decimal().Mul(primitives.NewDecimalFromFloat(factor)))
		}
		out[step] = next
		current = next
	}
	return out
}

// PriceCrash multiplies the price of every token in Tokens by Factor
// (e.g. 0.5 for a 50% crash) starting at batch StartBatch and holding for
// the rest of the sequence (spec §6 configure_crash_types).
type PriceCrash struct {
	Tokens     []token.ID
	Factor     float64
	StartBatch int
}

// Apply mutates a copy of batches, applying the crash from StartBatch
// onward, and returns it.
func (c PriceCrash) Apply(batches []token.PriceMap) ([]token.PriceMap, error) {
	if c.Factor < 0 {
		return nil, fmt.Errorf("oracle: crash factor must be non-negative, got %v", c.Factor)
	}

	out := make([]token.PriceMap, len(batches))
	for i, pm := range batches {
		if i < c.StartBatch {
			out[i] = pm
			continue
		}
		crashed := pm.Clone()
		for _, tok := range c.Tokens {
			price, err := crashed.Price(tok)
			if err != nil {
				return nil, err
			}
			crashed[tok] = primitives.MustPrice(price.Decimal().Mul(primitives.NewDecimalFromFloat(c.Factor)))
		}
		out[i] = crashed
	}
	return out, nil
}
