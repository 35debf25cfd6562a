// Package invcache inverts a matrix once and keeps the result until the
// matrix changes.
//
// What is inside?
//
//	cache            CachedMatrix (one matrix, one inverse slot) and ResolveInverse
//	matrix           Dense storage, LU with partial pivoting, Inverse, Mul, AllClose
//	matrix/gonuminv  the same Inverse contract backed by gonum/mat
//	cmd/invcache     CLI to replay YAML sessions, invert a single matrix
//
// Quick example:
//
//	a, _ := matrix.NewDenseFrom([][]float64{{1, 2}, {3, 4}})
//	c := cache.New(a)
//	inv, _ := cache.ResolveInverse(c) // [[-2 1] [1.5 -0.5]], computed
//	inv, _ = cache.ResolveInverse(c)  // same value, from the cache
//	c.SetMatrix(b)                    // cache cleared
//
// Errors are sentinels from package matrix (ErrSingular, ErrNonSquare, ...)
// and always match with errors.Is. Failed inversions are never cached.
//
// SPDX-License-Identifier: MIT
package invcache
