package poolstate

import (
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// EquilibriumPairwise holds the reference equilibrium balances PMM follows
// for every directed pair it trades (spec §3 "Equilibrium state"). It has
// the same shape as Pairwise but carries no k (the shape parameter lives
// with the pool, not the equilibrium reference).
type EquilibriumPairwise struct {
	entries map[PairKey][2]primitives.Decimal // [in, out]
}

// NewEquilibriumPairwiseFrom seeds an equilibrium reference from a pool's
// starting balances, as required by spec §3 ("Initialized to the starting
// balances").
func NewEquilibriumPairwiseFrom(p *Pairwise) *EquilibriumPairwise {
	e := &EquilibriumPairwise{entries: make(map[PairKey][2]primitives.Decimal, len(p.entries))}
	for k, v := range p.entries {
		e.entries[k] = [2]primitives.Decimal{v.BalanceIn, v.BalanceOut}
	}
	return e
}

// Get returns the (in, out) reference equilibrium for the directed pair.
func (e *EquilibriumPairwise) Get(in, out token.ID) (inE, outE primitives.Decimal, ok bool) {
	v, ok := e.entries[PairKey{In: in, Out: out}]
	if !ok {
		return primitives.Decimal{}, primitives.Decimal{}, false
	}
	return v[0], v[1], true
}

// Set updates the reference equilibrium for the directed pair and its
// mirror, symmetrically (spec §4.4 "its mirror entry is updated
// symmetrically").
func (e *EquilibriumPairwise) Set(in, out token.ID, inE, outE primitives.Decimal) {
	key := PairKey{In: in, Out: out}
	e.entries[key] = [2]primitives.Decimal{inE, outE}
	e.entries[key.mirror()] = [2]primitives.Decimal{outE, inE}
}

// Snapshot returns a deep, independent copy of the equilibrium state.
func (e *EquilibriumPairwise) Snapshot() *EquilibriumPairwise {
	cp := &EquilibriumPairwise{entries: make(map[PairKey][2]primitives.Decimal, len(e.entries))}
	for k, v := range e.entries {
		cp.entries[k] = v
	}
	return cp
}

// EquilibriumMulti holds the reference equilibrium balance for each token
// in an MPMM pool.
type EquilibriumMulti struct {
	balances map[token.ID]primitives.Decimal
}

// NewEquilibriumMultiFrom seeds an equilibrium reference from a pool's
// starting balances.
func NewEquilibriumMultiFrom(m *Multi) *EquilibriumMulti {
	e := &EquilibriumMulti{balances: make(map[token.ID]primitives.Decimal, len(m.balances))}
	for k, v := range m.balances {
		e.balances[k] = v.Balance
	}
	return e
}

// Get returns the reference equilibrium balance for tok.
func (e *EquilibriumMulti) Get(tok token.ID) (primitives.Decimal, bool) {
	v, ok := e.balances[tok]
	return v, ok
}

// Set updates the reference equilibrium balance for tok.
func (e *EquilibriumMulti) Set(tok token.ID, balance primitives.Decimal) {
	e.balances[tok] = balance
}

// Snapshot returns a deep, independent copy of the equilibrium state.
func (e *EquilibriumMulti) Snapshot() *EquilibriumMulti {
	cp := &EquilibriumMulti{balances: make(map[token.ID]primitives.Decimal, len(e.balances))}
	for k, v := range e.balances {
		cp.balances[k] = v
	}
	return cp
}
