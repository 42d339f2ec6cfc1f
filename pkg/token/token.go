// Package token provides the token identifier and price-map primitives
// shared by every pool and market-maker variant. A token identifier is an
// opaque short string used purely as a dictionary key (spec DATA MODEL
// §3); no on-chain address or decimals are modeled since the simulator
// never touches a chain.
package token

import (
	"errors"
	"fmt"

	"github.com/johnayoung/go-amm-sim/pkg/primitives"
)

// ErrPriceMissing indicates the oracle's price map lacks a token referenced
// by a transaction (spec §7).
var ErrPriceMissing = errors.New("price missing for token")

// ID is an opaque token identifier, e.g. "BTC", "ETH", "USDT".
type ID string

// PriceMap maps a token identifier to its price in a common quote unit for
// one batch of simulated traffic. One PriceMap exists per batch.
type PriceMap map[ID]primitives.Price

// Price looks up the price of tok, returning ErrPriceMissing (wrapped with
// the token identifier) if the oracle tape didn't carry a quote for it.
func (m PriceMap) Price(tok ID) (primitives.Price, error) {
	p, ok := m[tok]
	if !ok {
		return primitives.Price{}, fmt.Errorf("%w: %s", ErrPriceMissing, tok)
	}
	return p, nil
}

// MarketRate returns price[outtype] / price[intype], the external exchange
// rate a swap from intype to outtype is judged against.
func (m PriceMap) MarketRate(intype, outtype ID) (primitives.Decimal, error) {
	pIn, err := m.Price(intype)
	if err != nil {
		return primitives.Decimal{}, err
	}
	pOut, err := m.Price(outtype)
	if err != nil {
		return primitives.Decimal{}, err
	}
	rate, err := pOut.Decimal().Div(pIn.Decimal())
	if err != nil {
		return primitives.Decimal{}, fmt.Errorf("market rate %s/%s: %w", outtype, intype, err)
	}
	return rate, nil
}

// Contains reports whether list holds tok, used to test a pair's output
// token against a configured crash-type list (spec §4.5, §6
// configure_crash_types).
func Contains(list []ID, tok ID) bool {
	for _, t := range list {
		if t == tok {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of the map (Price values are themselves
// immutable, so a shallow copy is a full value copy).
func (m PriceMap) Clone() PriceMap {
	out := make(PriceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
