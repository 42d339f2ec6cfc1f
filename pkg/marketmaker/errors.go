package marketmaker

import (
	"errors"

	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
)

// Error taxonomy for the simulator core (spec §7). Pool-shape errors
// (ErrInvalidInput, ErrInvalidPair) are re-exported from pkg/poolstate so
// callers can errors.Is against a single set of sentinels regardless of
// which layer raised them.

var (
	ErrInvalidInput = poolstate.ErrInvalidInput
	ErrInvalidPair  = poolstate.ErrInvalidPair
)

var (
	// ErrNumericFailure indicates a solver failed to converge or produced
	// a non-finite intermediate value. The arbitrage scanner recovers from
	// it locally (skip candidate); swap surfaces it to the caller.
	ErrNumericFailure = errors.New("numeric solver failure")

	// ErrInsufficientLiquidity indicates a swap would drain the output
	// side to zero or below. CSMM/MCSMM recover locally by converting the
	// swap into a zero-amount no-op record; AMM/MAMM/PMM/MPMM raise it.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)
