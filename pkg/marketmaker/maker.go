// Package marketmaker defines the contract every maker variant (AMM, CSMM,
// MAMM, MCSMM, PMM, MPMM) implements (spec §4.1), plus the simulation
// configuration and error taxonomy they share. The simulation driver
// (pkg/simulate) is the single dispatch point that calls into this
// interface; it never branches on the concrete variant.
package marketmaker

import (
	"github.com/johnayoung/go-amm-sim/pkg/poolstate"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
	"github.com/johnayoung/go-amm-sim/pkg/token"
	"github.com/johnayoung/go-amm-sim/pkg/txrecord"
)

// Variant identifies which curve a MarketMaker implements.
type Variant string

const (
	VariantAMM   Variant = "AMM"
	VariantCSMM  Variant = "CSMM"
	VariantMAMM  Variant = "MAMM"
	VariantMCSMM Variant = "MCSMM"
	VariantPMM   Variant = "PMM"
	VariantMPMM  Variant = "MPMM"
)

// SimulationConfig configures traffic simulation behavior (spec §6
// configure_simulation). ArbActions bounds how many rate-ranked swaps one
// Arbitrage call performs (spec §4.5).
type SimulationConfig struct {
	ResetTx    bool
	Arb        bool
	ArbActions int
	MultiToken bool
	CrashTypes []token.ID
}

// MarketMaker is the contract every curve variant implements (spec §4.1).
// Swap and Arbitrage mutate the maker's own pool (and, for PMM/MPMM,
// equilibrium) state; Snapshot/Restore let the simulation driver implement
// the per-transaction reset policy without each variant re-implementing
// its own copy of that bookkeeping.
type MarketMaker interface {
	// Variant identifies the curve this maker implements.
	Variant() Variant

	// Configure sets the simulation and crash-type flags (spec
	// configure_simulation/configure_crash_types).
	Configure(cfg SimulationConfig)

	// SetPrices installs the price map for the batch about to run. The
	// driver calls this once per batch before executing any of that
	// batch's transactions.
	SetPrices(prices token.PriceMap)

	// Swap executes tx. If outAmt is nil the maker computes the output
	// amount from its own invariant; otherwise it executes the transaction
	// moving exactly *outAmt of tx.OutType out and tx.InVal of tx.InType
	// in (used by the arbitrage engine, which has already solved for both
	// amounts). Returns ErrInvalidPair, ErrInsufficientLiquidity, or
	// ErrNumericFailure per spec §4.1/§7.
	Swap(tx txrecord.InputTx, outAmt *primitives.Decimal) (txrecord.OutputTx, poolstate.Snapshot, error)

	// Arbitrage performs up to SimulationConfig.ArbActions rate-ranked
	// arbitrage swaps (spec §4.5).
	Arbitrage() ([]txrecord.OutputTx, []poolstate.Snapshot, error)

	// CalculateEquilibriums returns the target balances of intype/outtype
	// at which the marginal internal rate equals the current market rate
	// (spec §4.1).
	CalculateEquilibriums(intype, outtype token.ID) (inE, outE primitives.Decimal, err error)

	// Snapshot returns a deep copy of the maker's current pool state.
	Snapshot() poolstate.Snapshot

	// CheckpointState returns an opaque, deep-copied checkpoint of
	// whatever mutable state the maker owns (pool balances, and for
	// PMM/MPMM the reference equilibrium). RestoreState installs a
	// previously returned checkpoint. The driver uses this pair to
	// implement SimulationConfig.ResetTx without needing to know what a
	// given variant's internal state looks like (spec §9 design note (d)).
	CheckpointState() any
	RestoreState(checkpoint any)
}
