// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic test fixtures and utilities for kernels.
//   • Keep fixtures finite unless a test is explicitly about the numeric policy.

package matrix_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/invcache/matrix"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing kernels onto their generic At/Set path.
type hide struct{ matrix.Matrix }

// rawMatrix is an unvalidated [][]float64 Matrix, used to feed values that
// Dense refuses to store (NaN/Inf) through the generic path.
type rawMatrix [][]float64

func (r rawMatrix) Rows() int { return len(r) }
func (r rawMatrix) Cols() int { return len(r[0]) }
func (r rawMatrix) At(i, j int) (float64, error) {
	if i < 0 || i >= len(r) || j < 0 || j >= len(r[i]) {
		return 0, matrix.ErrOutOfRange
	}

	return r[i][j], nil
}
func (r rawMatrix) Set(i, j int, v float64) error {
	if i < 0 || i >= len(r) || j < 0 || j >= len(r[i]) {
		return matrix.ErrOutOfRange
	}
	r[i][j] = v

	return nil
}
func (r rawMatrix) Clone() matrix.Matrix {
	out := make(rawMatrix, len(r))
	for i := range r {
		out[i] = append([]float64(nil), r[i]...)
	}

	return out
}

// MustDense allocates an r×c *Dense or fails the test.
func MustDense(t *testing.T, r, c int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(r, c)
	require.NoError(t, err, "NewDense(%d,%d)", r, c)

	return m
}

// MustFrom builds a *Dense from row literals or fails the test.
func MustFrom(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(rows)
	require.NoError(t, err, "NewDenseFrom(%v)", rows)

	return m
}

// MustRows materializes m as [][]float64 or fails the test.
func MustRows(t *testing.T, m matrix.Matrix) [][]float64 {
	t.Helper()
	rows, err := matrix.ToRows(m)
	require.NoError(t, err)

	return rows
}

// RequireClose asserts a ≈ b elementwise within atol (absolute).
func RequireClose(t *testing.T, want, got matrix.Matrix, atol float64) {
	t.Helper()
	ok, err := matrix.AllClose(got, want, 0, atol)
	require.NoError(t, err)
	require.Truef(t, ok, "want\n%v\ngot\n%v", MustRows(t, want), MustRows(t, got))
}

// RequireIdentityProduct asserts A·inv ≈ I and inv·A ≈ I.
func RequireIdentityProduct(t *testing.T, a, inv matrix.Matrix, atol float64) {
	t.Helper()
	id, err := matrix.Identity(a.Rows())
	require.NoError(t, err)

	left, err := matrix.Mul(a, inv)
	require.NoError(t, err)
	RequireClose(t, id, left, atol)

	right, err := matrix.Mul(inv, a)
	require.NoError(t, err)
	RequireClose(t, id, right, atol)
}

// DominantDense returns a random n×n strictly diagonally dominant matrix,
// which is always invertible and well-conditioned.
func DominantDense(t *testing.T, n int, seed int64) *matrix.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	m := MustDense(t, n, n)
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			v := rng.Float64()*2 - 1
			if i == j {
				v += float64(n) + 1
			}
			require.NoError(t, m.Set(i, j, v))
		}
	}

	return m
}
