// Package proactive implements the proactive market-maker curve (spec
// §4.4): PMM over a Pairwise pool and MPMM over a Multi pool. Each directed
// pair (or, for MPMM, each token) carries a reference equilibrium point
// (S_e, L_e) — a shortage-side balance and an excess-side balance — and a
// shape parameter k in (0,1). Which side of a pair is currently "short" is
// found by comparing live balances against that reference:
//
//	out/out_e > in/in_e  =>  in is the shortage side
//
// For a shortage-side balance x <= S_e, the excess-side balance the curve
// implies is
//
//	L(x) = L_e - p*(x-S_e)*(1-k+k*S_e/x),  p = L_e/S_e
//
// and its inverse, used once a trade pushes the shortage side past S_e into
// excess territory, is the positive root of the same relation solved for
// the shortage variable given an excess-side value y:
//
//	S(y) = ( (y-L_e) - p*S_e + 2*k*p*S_e - sqrt( (y-L_e)^2 - 2*(y-L_e)*p*S_e*(1-2k) + p^2*S_e^2 ) ) / (2*(k-1)*p)
//
// A swap from in to out moves the in balance to newIn = inBalance+inVal;
// outNewForTrade applies the curve's four steps to find the resulting out
// balance regardless of whether the trade stays on the shortage side,
// crosses the equilibrium, or starts on the excess side outright — L and S
// agree at the boundary (S_e, L_e), so one continuous evaluation covers the
// "static portion plus excess traversal" split the spec describes for a
// crossing trade.
package proactive

import (
	"fmt"
	"math"

	"github.com/johnayoung/go-amm-sim/pkg/marketmaker"
	"github.com/johnayoung/go-amm-sim/pkg/primitives"
)

const (
	newtonMaxIter   = 128
	newtonTol       = 1e-10
	replugTolerance = 1e-8
)

// forwardExcess evaluates L(x) for a shortage-side balance x <= se.
func forwardExcess(x, se, le, p, k float64) float64 {
	return le - p*(x-se)*(1-k+k*se/x)
}

// inverseShortage evaluates S(y), the inverse of forwardExcess for an
// excess-side balance y.
func inverseShortage(y, se, le, p, k float64) (float64, error) {
	denom := 2 * (k - 1) * p
	if denom == 0 {
		return 0, fmt.Errorf("%w: degenerate inverse-curve denominator", marketmaker.ErrNumericFailure)
	}
	diff := y - le
	disc := diff*diff - 2*diff*p*se*(1-2*k) + p*p*se*se
	if disc < 0 {
		return 0, fmt.Errorf("%w: negative discriminant in inverse curve", marketmaker.ErrNumericFailure)
	}
	root := math.Sqrt(disc)
	shortage := (diff - p*se + 2*k*p*se - root) / denom
	if math.IsNaN(shortage) || math.IsInf(shortage, 0) {
		return 0, fmt.Errorf("%w: non-finite inverse-curve result", marketmaker.ErrNumericFailure)
	}
	return shortage, nil
}

// outNewForTrade implements spec §4.4 steps 1-4: it determines the short
// side from the pre-trade balances and reference equilibrium, then returns
// the out-token balance once the in-token balance has moved to newIn.
func outNewForTrade(newIn, inBalance, outBalance, inE, outE, k float64) (float64, error) {
	inShort := outBalance/outE > inBalance/inE
	if inShort {
		se, le := inE, outE
		p := le / se
		if newIn <= se {
			return forwardExcess(newIn, se, le, p, k), nil
		}
		// Past S_e the in side is in excess and out is short: evaluate S
		// with out as the shortage side, which returns L_e at newIn == S_e.
		return inverseShortage(newIn, le, se, se/le, k)
	}
	se, le := outE, inE
	p := le / se
	return inverseShortage(newIn, se, le, p, k)
}

// ForwardOut returns the out-token amount a trade of inVal produces, given
// the pool's current balances and the pair's reference equilibrium.
func ForwardOut(inBalance, inVal, outBalance, inE, outE, k primitives.Decimal) (primitives.Decimal, error) {
	ib, iv, ob, ie, oe, kk := inBalance.Float64(), inVal.Float64(), outBalance.Float64(), inE.Float64(), outE.Float64(), k.Float64()
	if ib <= 0 || ob <= 0 || ie <= 0 || oe <= 0 {
		return primitives.Decimal{}, fmt.Errorf("%w: non-positive curve balance", marketmaker.ErrNumericFailure)
	}
	newIn := ib + iv
	if newIn <= 0 {
		return primitives.Decimal{}, fmt.Errorf("%w: non-positive post-trade balance", marketmaker.ErrInsufficientLiquidity)
	}
	outNew, err := outNewForTrade(newIn, ib, ob, ie, oe, kk)
	if err != nil {
		return primitives.Decimal{}, err
	}
	if math.IsNaN(outNew) || math.IsInf(outNew, 0) || outNew <= 0 {
		return primitives.Decimal{}, fmt.Errorf("%w: pair %v/%v", marketmaker.ErrInsufficientLiquidity, inE, outE)
	}
	outVal := ob - outNew
	if outVal < 0 {
		return primitives.Decimal{}, fmt.Errorf("%w: trade would invert the curve", marketmaker.ErrNumericFailure)
	}
	return primitives.NewDecimalFromFloat(outVal), nil
}

// InverseIn solves for the inVal that yields exactly outVal, given the same
// parameters ForwardOut takes. outNewForTrade is monotonically decreasing
// in newIn (forwardExcess's derivative is negative across its domain, and
// inverseShortage inherits monotonicity from it), so InverseIn brackets the
// root and bisects, halving the search whenever an iterate strays outside
// the curve's valid domain.
func InverseIn(inBalance, outVal, outBalance, inE, outE, k primitives.Decimal) (primitives.Decimal, error) {
	ib, ov, ob, ie, oe, kk := inBalance.Float64(), outVal.Float64(), outBalance.Float64(), inE.Float64(), outE.Float64(), k.Float64()
	if ib <= 0 || ob <= 0 || ie <= 0 || oe <= 0 || ov < 0 {
		return primitives.Decimal{}, fmt.Errorf("%w: non-positive curve parameter", marketmaker.ErrNumericFailure)
	}
	if ov >= ob {
		return primitives.Decimal{}, fmt.Errorf("%w: requested output exceeds pool balance", marketmaker.ErrInsufficientLiquidity)
	}
	target := ob - ov

	lo := ib
	hi := ib + math.Max(1, ib)
	expanded := false
	for i := 0; i < newtonMaxIter; i++ {
		outAtHi, err := outNewForTrade(hi, ib, ob, ie, oe, kk)
		if err != nil || math.IsNaN(outAtHi) || math.IsInf(outAtHi, 0) {
			hi = ib + (hi-ib)/2
			continue
		}
		if outAtHi <= target {
			expanded = true
			break
		}
		hi = ib + (hi-ib)*2
	}
	if !expanded {
		return primitives.Decimal{}, fmt.Errorf("%w: could not bracket inverse solution", marketmaker.ErrNumericFailure)
	}

	for iter := 0; iter < newtonMaxIter; iter++ {
		mid := (lo + hi) / 2
		outAtMid, err := outNewForTrade(mid, ib, ob, ie, oe, kk)
		if err != nil || math.IsNaN(outAtMid) || math.IsInf(outAtMid, 0) {
			hi = mid
			continue
		}
		if math.Abs(outAtMid-target) < newtonTol {
			lo, hi = mid, mid
			break
		}
		if outAtMid > target {
			lo = mid
		} else {
			hi = mid
		}
	}

	newIn := (lo + hi) / 2
	if math.IsNaN(newIn) || math.IsInf(newIn, 0) || newIn < ib {
		return primitives.Decimal{}, fmt.Errorf("%w: inverse solver did not converge", marketmaker.ErrNumericFailure)
	}
	return primitives.NewDecimalFromFloat(newIn - ib), nil
}

// MarginalRate computes after_rate by re-evaluating a unit input from the
// given state, "equivalent to a second, non-executing swap" (spec §4.4).
func MarginalRate(inBalance, outBalance, inE, outE, k primitives.Decimal) (primitives.Decimal, error) {
	return ForwardOut(inBalance, primitives.One(), outBalance, inE, outE, k)
}

// EquilibriumCandidate is one candidate reference equilibrium produced by
// the three-method selection spec §4.4 "Equilibrium selection" describes.
type EquilibriumCandidate struct {
	InE, OutE float64
}

// candidateSe evaluates Se(Le): the shortage-side equilibrium consistent
// with a curve of shape k through the fixed point (s, l) for a given
// excess-side equilibrium Le, per spec §4.4's derivation.
func candidateSe(le, s, l, p, k float64) (float64, error) {
	radicand := 1 + 4*k*(l-le)/(s*p)
	if radicand < 0 {
		return 0, fmt.Errorf("%w: negative radicand selecting equilibrium", marketmaker.ErrNumericFailure)
	}
	return s + s/(2*k)*(math.Sqrt(radicand)-1), nil
}

// argminLe finds the Le minimizing the squared Euclidean distance from
// (candidateSe(Le), Le) to the reference point (refS, refL). Spec §4.4
// allows either a closed-form quartic (Ferrari) solution or Newton
// iteration with a halving fallback for this argmin; this module uses
// Newton, with a numerical (central-difference) derivative of the distance
// gradient so the halving fallback has a single recovery path whether the
// non-finite value came from the objective or its derivative.
func argminLe(s, l, p, k, refS, refL float64) (float64, error) {
	grad := func(le float64) (float64, error) {
		se, err := candidateSe(le, s, l, p, k)
		if err != nil {
			return 0, err
		}
		radicand := 1 + 4*k*(l-le)/(s*p)
		if radicand <= 0 {
			return 0, fmt.Errorf("%w: equilibrium argmin left the curve domain", marketmaker.ErrNumericFailure)
		}
		dSeDLe := -1 / (p * math.Sqrt(radicand))
		return (se-refS)*dSeDLe + (le - refL), nil
	}

	le := l
	step := math.Max(1, math.Abs(l)) * 1e-4
	for iter := 0; iter < newtonMaxIter; iter++ {
		g, err := grad(le)
		if err != nil || math.IsNaN(g) || math.IsInf(g, 0) {
			le = (le + l) / 2
			continue
		}
		if math.Abs(g) < newtonTol {
			return le, nil
		}
		gPlus, errP := grad(le + step)
		gMinus, errM := grad(le - step)
		if errP != nil || errM != nil || math.IsNaN(gPlus) || math.IsNaN(gMinus) {
			le = (le + l) / 2
			continue
		}
		deriv := (gPlus - gMinus) / (2 * step)
		if deriv == 0 || math.IsNaN(deriv) || math.IsInf(deriv, 0) {
			le = (le + l) / 2
			continue
		}
		next := le - g/deriv
		if math.IsNaN(next) || math.IsInf(next, 0) {
			le = (le + l) / 2
			continue
		}
		le = next
	}
	return 0, fmt.Errorf("%w: equilibrium argmin did not converge", marketmaker.ErrNumericFailure)
}

// SelectEquilibrium implements spec §4.4 "Equilibrium selection": of the
// trivial, in-short, and out-short candidates, it accepts those passing the
// positivity, monotonicity, and curve re-plug checks (spec §8 "PMM
// equilibrium selection", within replugTolerance) and returns whichever
// accepted candidate is closest, in Euclidean balance space, to the prior
// reference equilibrium (refInE, refOutE). The trivial candidate always
// passes its own re-plug check (forwardExcess(se; se, le, ...) == le
// exactly at se), so selection never fails outright for a valid swap.
func SelectEquilibrium(refInE, refOutE, preIn, preOut, postIn, postOut, k primitives.Decimal) (primitives.Decimal, primitives.Decimal, error) {
	rie, roe := refInE.Float64(), refOutE.Float64()
	pi, po := preIn.Float64(), preOut.Float64()
	ni, no := postIn.Float64(), postOut.Float64()
	kk := k.Float64()

	candidates := []EquilibriumCandidate{{InE: ni, OutE: no}}

	if pi > 0 && po > 0 {
		if le, err := argminLe(pi, po, po/pi, kk, ni, no); err == nil {
			if se, err := candidateSe(le, pi, po, po/pi, kk); err == nil {
				candidates = append(candidates, EquilibriumCandidate{InE: se, OutE: le})
			}
		}
		if le, err := argminLe(po, pi, pi/po, kk, no, ni); err == nil {
			if se, err := candidateSe(le, po, pi, pi/po, kk); err == nil {
				candidates = append(candidates, EquilibriumCandidate{InE: le, OutE: se})
			}
		}
	}

	var best *EquilibriumCandidate
	bestDist := math.Inf(1)
	for i := range candidates {
		c := candidates[i]
		if !acceptCandidate(c, ni, no, kk) {
			continue
		}
		d := (c.InE-rie)*(c.InE-rie) + (c.OutE-roe)*(c.OutE-roe)
		if d < bestDist {
			bestDist = d
			best = &candidates[i]
		}
	}
	if best == nil {
		return primitives.Decimal{}, primitives.Decimal{}, fmt.Errorf("%w: no acceptable equilibrium candidate", marketmaker.ErrNumericFailure)
	}
	return primitives.NewDecimalFromFloat(best.InE), primitives.NewDecimalFromFloat(best.OutE), nil
}

// acceptCandidate applies spec §4.4's three acceptance checks against the
// current (post-swap) balances (curIn, curOut).
func acceptCandidate(c EquilibriumCandidate, curIn, curOut, k float64) bool {
	if c.InE <= 0 || c.OutE <= 0 {
		return false
	}
	if (c.InE-curIn)*(c.OutE-curOut) > 0 {
		return false
	}
	var s, l, se, le float64
	if curOut/c.OutE > curIn/c.InE {
		s, l, se, le = curIn, curOut, c.InE, c.OutE
	} else {
		s, l, se, le = curOut, curIn, c.OutE, c.InE
	}
	p := le / se
	reproduced := forwardExcess(s, se, le, p, k)
	return !math.IsNaN(reproduced) && !math.IsInf(reproduced, 0) && math.Abs(reproduced-l) < replugTolerance
}
