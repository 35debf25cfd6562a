// SPDX-License-Identifier: MIT

// Package gonuminv inverts matrix.Matrix values with gonum's LAPACK-backed
// mat.Dense.Inverse, exposing the same signature and error sentinels as
// matrix.Inverse so callers can swap one for the other.
//
// Option mapping:
//   - WithPivotTolerance(eps): eps > 0 rejects inputs whose reciprocal
//     1-norm condition number is below eps. 0 keeps gonum's own threshold
//     (mat.ConditionTolerance).
//   - WithPartialPivoting: ignored; gonum's Getrf always pivots.
package gonuminv

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/invcache/matrix"
)

const opInverse = "gonuminv.Inverse"

// Inverse returns the inverse of m computed by gonum.
//
// Errors (wrapped as "gonuminv.Inverse: ..."):
//   - matrix.ErrNilMatrix, matrix.ErrNonSquare for invalid input.
//   - matrix.ErrNaNInf when m holds a non-finite value.
//   - matrix.ErrSingular when gonum reports a mat.Condition error, or the
//     condition check from WithPivotTolerance fails.
func Inverse(m matrix.Matrix, opts ...matrix.InverseOption) (matrix.Matrix, error) {
	if err := matrix.ValidateSquareNonNil(m); err != nil {
		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}
	o := matrix.NewInverseOptions(opts...)

	a, err := toGonum(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}

	if eps := o.PivotTolerance(); eps > 0 {
		if rc := 1 / mat.Cond(a, 1); rc < eps {
			return nil, fmt.Errorf("%s: rcond %g < %g: %w", opInverse, rc, eps, matrix.ErrSingular)
		}
	}

	var inv mat.Dense
	if err = inv.Inverse(a); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%s: %v: %w", opInverse, err, matrix.ErrSingular)
		}

		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}

	out, err := fromGonum(&inv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}

	return out, nil
}

// toGonum copies m into a fresh *mat.Dense, rejecting NaN/Inf.
func toGonum(m matrix.Matrix) (*mat.Dense, error) {
	rows, err := matrix.ToRows(m)
	if err != nil {
		return nil, err
	}
	// Round-trip through NewDenseFrom to apply the finite-value policy.
	if _, err = matrix.NewDenseFrom(rows); err != nil {
		return nil, err
	}

	r, c := len(rows), len(rows[0])
	data := make([]float64, 0, r*c)
	for _, row := range rows {
		data = append(data, row...)
	}

	return mat.NewDense(r, c, data), nil
}

// fromGonum copies a gonum matrix back into a matrix.Dense.
func fromGonum(g mat.Matrix) (*matrix.Dense, error) {
	r, c := g.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = g.At(i, j)
		}
	}

	return matrix.NewDenseFrom(rows)
}
