// Package poolstate implements the pairwise and multi-token pool
// containers (spec DATA MODEL §3) along with their deep-copy snapshot and
// equilibrium-state counterparts. A Pairwise pool mirrors every (A,B)
// entry with a (B,A) entry and keeps both consistent at all times; a Multi
// pool holds any number of tokens in one map and lets callers pick a pair
// for each swap.
package poolstate

import (
	"errors"
	"fmt"

	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// ErrInvalidInput indicates malformed pool state: a negative balance, a k
// outside (0,1) where k is meaningful, or an unknown token (spec §7).
var ErrInvalidInput = errors.New("invalid pool input")

// ErrInvalidPair indicates a swap was requested for a pair the pairwise
// maker does not hold (spec §7).
var ErrInvalidPair = errors.New("invalid trading pair")

// PairKey identifies a directed pairwise pool entry.
type PairKey struct {
	In  token.ID
	Out token.ID
}

func (k PairKey) mirror() PairKey { return PairKey{In: k.Out, Out: k.In} }

// Balances holds one directed pairwise pool entry: BalanceIn is the
// balance of the key's In token, BalanceOut the balance of its Out token,
// and K the curve-shape parameter (meaningful only for PMM; AMM/CSMM
// ignore it).
type Balances struct {
	BalanceIn  primitives.Decimal
	BalanceOut primitives.Decimal
	K          primitives.Decimal
}

// Pairwise is a mapping keyed by ordered token pairs (A,B) to their
// balances; the (B,A) mirror entry is always kept present and consistent.
type Pairwise struct {
	entries map[PairKey]Balances
}

// NewPairwise builds a Pairwise pool from parallel slices of pairs and
// (balanceA, balanceB, k) triples, as the constructor inputs in spec §6
// describe. Both (A,B) and (B,A) entries must already be present in pairs;
// NewPairwise does not synthesize the mirror automatically, matching the
// source contract that both directions are supplied explicitly.
//
// requireKRange enables the (0,1) check on k; pass false for AMM/CSMM/MAMM/
// MCSMM pools, where k is carried but not curve-relevant.
func NewPairwise(pairs []PairKey, balancesA, balancesB, ks []primitives.Decimal, requireKRange bool) (*Pairwise, error) {
	if len(pairs) != len(balancesA) || len(pairs) != len(balancesB) || len(pairs) != len(ks) {
		return nil, fmt.Errorf("%w: mismatched pairwise constructor slice lengths", ErrInvalidInput)
	}

	p := &Pairwise{entries: make(map[PairKey]Balances, len(pairs))}
	for i, pk := range pairs {
		if balancesA[i].IsNegative() || balancesB[i].IsNegative() {
			return nil, fmt.Errorf("%w: negative balance for pair %s/%s", ErrInvalidInput, pk.In, pk.Out)
		}
		if requireKRange {
			k := ks[i].Float64()
			if !(k > 0 && k < 1) {
				return nil, fmt.Errorf("%w: k=%v out of (0,1) for pair %s/%s", ErrInvalidInput, k, pk.In, pk.Out)
			}
		}
		p.entries[pk] = Balances{BalanceIn: balancesA[i], BalanceOut: balancesB[i], K: ks[i]}
	}
	return p, nil
}

// Get returns the balances stored for the directed pair (in, out).
func (p *Pairwise) Get(in, out token.ID) (Balances, error) {
	b, ok := p.entries[PairKey{In: in, Out: out}]
	if !ok {
		return Balances{}, fmt.Errorf("%w: %s/%s", ErrInvalidPair, in, out)
	}
	return b, nil
}

// Has reports whether the directed pair (in, out) exists.
func (p *Pairwise) Has(in, out token.ID) bool {
	_, ok := p.entries[PairKey{In: in, Out: out}]
	return ok
}

// Set stores new balances for the directed pair (in, out) and updates its
// mirror (out, in) entry symmetrically, preserving the invariant that the
// two entries are always reverses of one another (spec §3, §8 "Mirror
// consistency").
func (p *Pairwise) Set(in, out token.ID, balanceIn, balanceOut, k primitives.Decimal) {
	key := PairKey{In: in, Out: out}
	p.entries[key] = Balances{BalanceIn: balanceIn, BalanceOut: balanceOut, K: k}
	p.entries[key.mirror()] = Balances{BalanceIn: balanceOut, BalanceOut: balanceIn, K: k}
}

// Pairs returns the set of directed pairs held, in a stable order (sorted
// by In then Out) so arbitrage scans are deterministic (spec §5).
func (p *Pairwise) Pairs() []PairKey {
	out := make([]PairKey, 0, len(p.entries))
	for k := range p.entries {
		out = append(out, k)
	}
	sortPairKeys(out)
	return out
}

// Snapshot returns a deep, independent copy of the pool state.
func (p *Pairwise) Snapshot() *Pairwise {
	cp := &Pairwise{entries: make(map[PairKey]Balances, len(p.entries))}
	for k, v := range p.entries {
		cp.entries[k] = v
	}
	return cp
}

// TotalValue returns the pool's total value across all mirrored pairs,
// counting each unordered pair once.
func (p *Pairwise) TotalValue(prices token.PriceMap) (primitives.Decimal, error) {
	visited := make(map[PairKey]bool, len(p.entries)/2)
	total := primitives.Zero()
	for k, v := range p.entries {
		if visited[k.mirror()] {
			continue
		}
		visited[k] = true
		priceIn, err := prices.Price(k.In)
		if err != nil {
			return primitives.Decimal{}, err
		}
		priceOut, err := prices.Price(k.Out)
		if err != nil {
			return primitives.Decimal{}, err
		}
		total = total.Add(v.BalanceIn.Mul(priceIn.Decimal())).Add(v.BalanceOut.Mul(priceOut.Decimal()))
	}
	return total, nil
}

// TokenBalances sums each token's balance across every pool it appears in,
// counting each unordered pair once. This is the pairwise pool's
// contribution to the per-token view metrics.ImpermanentLoss needs (spec
// §4.6): a token split across several pairwise pools is reported as one
// aggregate balance.
func (p *Pairwise) TokenBalances() map[token.ID]primitives.Decimal {
	visited := make(map[PairKey]bool, len(p.entries)/2)
	totals := make(map[token.ID]primitives.Decimal)
	for k, v := range p.entries {
		if visited[k.mirror()] {
			continue
		}
		visited[k] = true
		totals[k.In] = totals[k.In].Add(v.BalanceIn)
		totals[k.Out] = totals[k.Out].Add(v.BalanceOut)
	}
	return totals
}

func sortPairKeys(keys []PairKey) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && less(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

func less(a, b PairKey) bool {
	if a.In != b.In {
		return a.In < b.In
	}
	return a.Out < b.Out
}
