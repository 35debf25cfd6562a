// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for the inversion kernels.
// This file defines:
//   - InverseOption / InverseOptions (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - NewInverseOptions, which other inversion backends use to read the same knobs.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each flag impacts behavior and is covered by tests.
//   - Safe by construction: panic only on invalid parameters (programmer error).
package matrix

import (
	"fmt"
	"math"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultPivotTolerance selects the scale-aware threshold n·ε·max|a_ij|:
	// a pivot at or below it is rounding residue and the input is singular.
	DefaultPivotTolerance = 0.0

	// DefaultPartialPivoting enables row swaps on the largest |pivot| per column,
	// so permutation-like matrices such as [[0,1],[1,0]] invert cleanly.
	DefaultPartialPivoting = true
)

// Panic messages for invalid option values.
const (
	panicPivotTolerance = "matrix: WithPivotTolerance(%v): tolerance must be finite and >= 0"
)

// InverseOptions holds the resolved configuration for LU/Inverse.
// Fields are unexported; read them through the accessors.
type InverseOptions struct {
	pivotTol        float64
	partialPivoting bool
}

// InverseOption mutates InverseOptions. Options are applied in order;
// the last one for a given knob wins.
type InverseOption func(*InverseOptions)

// WithPivotTolerance sets eps so that any pivot with |p| <= eps is singular.
// eps = 0 restores the scale-aware default (see DefaultPivotTolerance).
// Panics if eps is negative, NaN or ±Inf.
func WithPivotTolerance(eps float64) InverseOption {
	if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		panic(fmt.Sprintf(panicPivotTolerance, eps))
	}

	return func(o *InverseOptions) { o.pivotTol = eps }
}

// WithPartialPivoting toggles row-swap partial pivoting.
// Disabling it reproduces plain Doolittle (bit-for-bit deterministic, but
// fails on any zero leading pivot even for invertible inputs).
func WithPartialPivoting(enabled bool) InverseOption {
	return func(o *InverseOptions) { o.partialPivoting = enabled }
}

// NewInverseOptions applies opts over the defaults. nil options are skipped.
func NewInverseOptions(opts ...InverseOption) InverseOptions {
	o := InverseOptions{
		pivotTol:        DefaultPivotTolerance,
		partialPivoting: DefaultPartialPivoting,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}

// PivotTolerance returns the configured singular-pivot threshold
// (0 = scale-aware default).
func (o InverseOptions) PivotTolerance() float64 { return o.pivotTol }

// PartialPivoting reports whether row swaps are enabled.
func (o InverseOptions) PartialPivoting() bool { return o.partialPivoting }
