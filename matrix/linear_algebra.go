// SPDX-License-Identifier: MIT
// Package matrix provides the inversion kernels (LU, Inverse) and the small
// set of helpers used to compose and check their results (Mul, Identity,
// ToRows, AllClose). All functions perform strict fail-fast validation and
// return wrapped sentinels on misuse.
//
// Notes:
//   - Kernels never mutate their inputs; every result is a freshly allocated Dense.
//   - *Dense operands hit a flat-slice fast path; any other Matrix goes through At/Set.

package matrix

import (
	"fmt"
	"math"
)

// ZeroSum is the initial sum value for forward/backward substitution and similar.
const ZeroSum = 0.0

// machineEpsilon is the gap between 1 and the next float64 (2^-52).
const machineEpsilon = 0x1p-52

// Operation name constants for unified error wrapping.
const (
	opMul      = "Mul"
	opInverse  = "Inverse"
	opLU       = "LU"
	opIdentity = "Identity"
	opAllClose = "AllClose"
	opToRows   = "ToRows"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// luFactors is the packed result of factor: strictly-lower part of a holds L
// (unit diagonal implied), upper part including the diagonal holds U, and
// perm[i] is the row of A that ended up in row i of P·A.
type luFactors struct {
	n    int
	a    []float64
	perm []int
}

// swapRows exchanges rows i and k of the packed buffer and the permutation.
func (f *luFactors) swapRows(i, k int) {
	n := f.n
	ri, rk := f.a[i*n:(i+1)*n], f.a[k*n:(k+1)*n]
	for j := 0; j < n; j++ {
		ri[j], rk[j] = rk[j], ri[j]
	}
	f.perm[i], f.perm[k] = f.perm[k], f.perm[i]
}

// factor computes P·A = L·U in a packed n×n buffer.
//
// Implementation:
//   - Stage 1: ValidateSquareNonNil(m).
//   - Stage 2: load A into a flat buffer (copy for *Dense, At-loop otherwise)
//     and record max|a_ij|.
//   - Stage 3: resolve tol: the configured pivot tolerance, or
//     n·ε·max|a_ij| when it is 0, so rounding residue of a rank-deficient
//     input is not taken for a pivot.
//   - Stage 4: for k=0..n-1 pick the pivot row (largest |a[i,k]|, i≥k, when
//     partial pivoting is on), guard |pivot| > tol, then eliminate below it,
//     storing multipliers in place.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare (Stage 1).
//   - ErrNaNInf (non-finite entry read through the generic path).
//   - ErrSingular (|pivot| <= tol).
//
// Determinism:
//   - Fixed k→i→j order; ties in pivot search keep the lowest row index.
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func factor(m Matrix, o InverseOptions) (*luFactors, error) {
	if err := ValidateSquareNonNil(m); err != nil {
		return nil, err
	}

	n := m.Rows()
	f := &luFactors{n: n, a: make([]float64, n*n), perm: make([]int, n)}

	var (
		i, j, k int
		v, amax float64
		err     error
	)
	if d, ok := m.(*Dense); ok {
		copy(f.a, d.data) // Dense data is finite by construction
		for _, v = range f.a {
			amax = math.Max(amax, math.Abs(v))
		}
	} else {
		for i = 0; i < n; i++ {
			for j = 0; j < n; j++ {
				if v, err = m.At(i, j); err != nil {
					return nil, fmt.Errorf("At(%d,%d): %w", i, j, err)
				}
				if !isFinite(v) {
					return nil, fmt.Errorf("At(%d,%d): %w", i, j, ErrNaNInf)
				}
				f.a[i*n+j] = v
				amax = math.Max(amax, math.Abs(v))
			}
		}
	}
	for i = 0; i < n; i++ {
		f.perm[i] = i
	}

	tol := o.pivotTol
	if tol == 0 {
		tol = float64(n) * machineEpsilon * amax
	}

	var (
		p, baseI, baseK int
		best, pivot, l  float64
	)
	for k = 0; k < n; k++ {
		if o.partialPivoting {
			p, best = k, math.Abs(f.a[k*n+k])
			for i = k + 1; i < n; i++ {
				if v = math.Abs(f.a[i*n+k]); v > best {
					p, best = i, v
				}
			}
			if p != k {
				f.swapRows(k, p)
			}
		}

		baseK = k * n
		pivot = f.a[baseK+k]
		if math.Abs(pivot) <= tol {
			return nil, fmt.Errorf("zero pivot at %d: %w", k, ErrSingular)
		}

		for i = k + 1; i < n; i++ {
			baseI = i * n
			l = f.a[baseI+k] / pivot
			f.a[baseI+k] = l
			if l == 0 {
				continue // nothing to eliminate in this row
			}
			for j = k + 1; j < n; j++ {
				f.a[baseI+j] -= l * f.a[baseK+j]
			}
		}
	}

	return f, nil
}

// LU computes the factorization P·A = L·U with unit diagonal on L.
//
// Inputs:
//   - m: square Matrix (n×n).
//   - opts: WithPartialPivoting, WithPivotTolerance.
//
// Returns:
//   - L (unit lower triangular), U (upper triangular), both fresh *Dense.
//   - perm: row i of P·A is row perm[i] of A. Identity when pivoting is off.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf, ErrSingular; wrapped as "LU: ...".
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func LU(m Matrix, opts ...InverseOption) (Matrix, Matrix, []int, error) {
	f, err := factor(m, NewInverseOptions(opts...))
	if err != nil {
		return nil, nil, nil, matrixErrorf(opLU, err)
	}

	n := f.n
	L := &Dense{r: n, c: n, data: make([]float64, n*n)}
	U := &Dense{r: n, c: n, data: make([]float64, n*n)}
	var i, j, off int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			off = i*n + j
			switch {
			case j < i:
				L.data[off] = f.a[off]
			case j == i:
				L.data[off] = 1.0
				U.data[off] = f.a[off]
			default:
				U.data[off] = f.a[off]
			}
		}
	}

	perm := make([]int, n)
	copy(perm, f.perm)

	return L, U, perm, nil
}

// Inverse returns the inverse of the square matrix m.
// Blueprint:
//
//	Stage 1 (Validate + Decompose): P·A = L·U via factor.
//	Stage 2 (Prepare): allocate result and scratch slices.
//	Stage 3 (Execute): for each identity column e_col, solve L·y = P·e_col then U·x = y.
//	Stage 4 (Finalize): write x into column col; reject non-finite results.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare (invalid input).
//   - ErrSingular (|pivot| <= tolerance during factorization, or a solve
//     overflowed). An overflow also matches ErrNaNInf.
//
// All wrapped as "Inverse: ...".
//
// Complexity: O(n³) time, O(n²) memory, where n = m.Rows().
//
// Notes:
//   - Input m is read-only.
//   - If you only need A^{-1}·b, factor once and solve; forming A^{-1} costs more.
func Inverse(m Matrix, opts ...InverseOption) (Matrix, error) {
	f, err := factor(m, NewInverseOptions(opts...))
	if err != nil {
		return nil, matrixErrorf(opInverse, matrixErrorf(opLU, err))
	}

	n := f.n
	inv := &Dense{r: n, c: n, data: make([]float64, n*n)}

	var (
		col, i, k, base int
		sum             float64
	)
	y := make([]float64, n) // forward substitution workspace
	x := make([]float64, n) // backward substitution workspace
	lu, perm := f.a, f.perm
	for col = 0; col < n; col++ {
		// Forward substitution: L·y = P·e_col
		for i = 0; i < n; i++ {
			sum = ZeroSum
			base = i * n
			for k = 0; k < i; k++ {
				sum += lu[base+k] * y[k]
			}
			if perm[i] == col {
				y[i] = 1.0 - sum
			} else {
				y[i] = ZeroSum - sum // avoids -0 in the output
			}
		}

		// Backward substitution: U·x = y
		for i = n - 1; i >= 0; i-- {
			sum = ZeroSum
			base = i * n
			for k = i + 1; k < n; k++ {
				sum += lu[base+k] * x[k]
			}
			x[i] = (y[i] - sum) / lu[base+i]
			if !isFinite(x[i]) {
				return nil, matrixErrorf(opInverse, fmt.Errorf("column %d row %d: %w: %w", col, i, ErrSingular, ErrNaNInf))
			}
		}

		for i = 0; i < n; i++ {
			inv.data[i*n+col] = x[i]
		}
	}

	return inv, nil
}

// Mul computes the matrix product a·b into a fresh Dense.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (a.Cols != b.Rows); wrapped as "Mul: ...".
//
// Complexity:
//   - Time O(r·k·c), Space O(r·c).
func Mul(a, b Matrix) (Matrix, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	aRows, aCols, bCols := a.Rows(), a.Cols(), b.Cols()
	res := &Dense{r: aRows, c: bCols, data: make([]float64, aRows*bCols)}
	var (
		i, j, k         int
		av, bv, current float64
		err             error
	)
	// Fast-path for two Dense matrices
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			var rowOffsetA, rowOffsetB, rowOffsetR int
			for i = 0; i < aRows; i++ {
				rowOffsetA = i * aCols
				rowOffsetR = i * bCols
				for k = 0; k < aCols; k++ {
					av = da.data[rowOffsetA+k]
					if av == 0 {
						continue
					}
					rowOffsetB = k * bCols
					for j = 0; j < bCols; j++ {
						res.data[rowOffsetR+j] += av * db.data[rowOffsetB+j]
					}
				}
			}

			return res, nil
		}
	}

	// Fallback: generic interface triple-loop (i-j-k)
	for i = 0; i < aRows; i++ {
		for j = 0; j < bCols; j++ {
			current = ZeroSum
			for k = 0; k < aCols; k++ {
				if av, err = a.At(i, k); err != nil {
					return nil, matrixErrorf(opMul, fmt.Errorf("At(%d,%d): %w", i, k, err))
				}
				if av == 0 {
					continue
				}
				if bv, err = b.At(k, j); err != nil {
					return nil, matrixErrorf(opMul, fmt.Errorf("At(%d,%d): %w", k, j, err))
				}
				current += av * bv
			}
			if err = res.Set(i, j, current); err != nil {
				return nil, matrixErrorf(opMul, err)
			}
		}
	}

	return res, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) (*Dense, error) {
	m, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf(opIdentity, err)
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1.0
	}

	return m, nil
}

// ToRows materializes any Matrix as a fresh slice of rows.
func ToRows(m Matrix) ([][]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opToRows, err)
	}
	if d, ok := m.(*Dense); ok {
		return d.ToRows(), nil
	}

	r, c := m.Rows(), m.Cols()
	out := make([][]float64, r)
	var err error
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			if out[i][j], err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opToRows, err)
			}
		}
	}

	return out, nil
}

// AllClose reports whether |a[i,j] - b[i,j]| <= atol + rtol·|b[i,j]| for all i,j.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch; wrapped as "AllClose: ...".
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if err := ValidateNotNil(a); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}

	var (
		av, bv float64
		err    error
	)
	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			if av, err = a.At(i, j); err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if bv, err = b.At(i, j); err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if math.Abs(av-bv) > atol+rtol*math.Abs(bv) {
				return false, nil
			}
		}
	}

	return true, nil
}
