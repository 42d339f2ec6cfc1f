package poolstate

import (
	"fmt"
	"sort"

	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
)

// TokenBalance holds a single token's balance and curve-shape parameter k
// (meaningful only for MPMM; MAMM/MCSMM ignore it) inside a Multi pool.
type TokenBalance struct {
	Balance primitives.Decimal
	K       primitives.Decimal
}

// Multi is a single pool holding any number of tokens; a swap picks a pair
// of tokens inside it rather than routing to a dedicated pairwise pool.
type Multi struct {
	balances map[token.ID]TokenBalance
}

// NewMulti builds a Multi pool from parallel slices of token identifiers
// and (balance, k) pairs, as the constructor inputs in spec §6 describe.
// requireKRange enables the (0,1) check on k; pass false for MAMM/MCSMM.
func NewMulti(tokens []token.ID, balances, ks []primitives.Decimal, requireKRange bool) (*Multi, error) {
	if len(tokens) != len(balances) || len(tokens) != len(ks) {
		return nil, fmt.Errorf("%w: mismatched multi-pool constructor slice lengths", ErrInvalidInput)
	}

	m := &Multi{balances: make(map[token.ID]TokenBalance, len(tokens))}
	for i, tok := range tokens {
		if balances[i].IsNegative() {
			return nil, fmt.Errorf("%w: negative balance for token %s", ErrInvalidInput, tok)
		}
		if requireKRange {
			k := ks[i].Float64()
			if !(k > 0 && k < 1) {
				return nil, fmt.Errorf("%w: k=%v out of (0,1) for token %s", ErrInvalidInput, k, tok)
			}
		}
		m.balances[tok] = TokenBalance{Balance: balances[i], K: ks[i]}
	}
	return m, nil
}

// Get returns the balance stored for tok.
func (m *Multi) Get(tok token.ID) (TokenBalance, error) {
	b, ok := m.balances[tok]
	if !ok {
		return TokenBalance{}, fmt.Errorf("%w: unknown token %s", ErrInvalidInput, tok)
	}
	return b, nil
}

// Has reports whether tok is held in the pool.
func (m *Multi) Has(tok token.ID) bool {
	_, ok := m.balances[tok]
	return ok
}

// Set stores a new balance for tok, preserving its existing k.
func (m *Multi) Set(tok token.ID, balance primitives.Decimal) {
	cur := m.balances[tok]
	cur.Balance = balance
	m.balances[tok] = cur
}

// Tokens returns the held token identifiers in a stable (lexical) order,
// so arbitrage scans over all ordered pairs are deterministic (spec §5).
func (m *Multi) Tokens() []token.ID {
	out := make([]token.ID, 0, len(m.balances))
	for t := range m.balances {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a deep, independent copy of the pool state.
func (m *Multi) Snapshot() *Multi {
	cp := &Multi{balances: make(map[token.ID]TokenBalance, len(m.balances))}
	for k, v := range m.balances {
		cp.balances[k] = v
	}
	return cp
}

// TokenBalances returns each token's balance directly; a Multi pool never
// splits a token across more than one internal pool.
func (m *Multi) TokenBalances() map[token.ID]primitives.Decimal {
	out := make(map[token.ID]primitives.Decimal, len(m.balances))
	for k, v := range m.balances {
		out[k] = v.Balance
	}
	return out
}

// TotalValue returns the pool's total value across all held tokens.
func (m *Multi) TotalValue(prices token.PriceMap) (primitives.Decimal, error) {
	total := primitives.Zero()
	for tok, bal := range m.balances {
		price, err := prices.Price(tok)
		if err != nil {
			return primitives.Decimal{}, err
		}
		total = total.Add(bal.Balance.Mul(price.Decimal()))
	}
	return total, nil
}
