// SPDX-License-Identifier: MIT

// Package matrix is a small dense linear-algebra kit built around inversion.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with bounds-checked At/Set.
//   - LU, a Doolittle factorization P·A = L·U with optional partial pivoting.
//   - Inverse, built on LU and per-column triangular solves.
//   - Mul, Identity, ToRows and AllClose for composing and checking results.
//
// All failures are sentinel errors (see errors.go) wrapped with the name of
// the operation, e.g. "Inverse: LU: matrix: singular matrix". Match them with
// errors.Is.
//
// Inversion is O(n³) in time and O(n²) in memory. Callers that ask for the
// same inverse repeatedly should memoize it (see package cache).
package matrix
