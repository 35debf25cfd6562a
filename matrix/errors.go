// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// Every algorithm returns (possibly wrapped) sentinels from this file and
// tests check them via errors.Is. No exported function panics on
// user-triggered conditions; panics are reserved for invalid options.

package matrix

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "matrix: ..." for easy grepping across logs.
// Kernels wrap sentinels as "<Op>: <sentinel>" via matrixErrorf; callers
// still match with errors.Is.
//
// ERROR KINDS seen by cache callers:
//   - InvalidInput: ErrNilMatrix, ErrNonSquare.
//   - Singular:     ErrSingular.

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrBadShape is returned when row data is ragged (rows of unequal length).
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set) return this, never panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates that a nil Matrix was passed in.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrSingular is returned when a pivot within tolerance of zero is met
	// during LU factorization or inversion.
	ErrSingular = errors.New("matrix: singular matrix")
)
