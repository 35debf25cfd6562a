// SPDX-License-Identifier: MIT

package cache

import (
	"errors"

	"github.com/katalvlaran/invcache/matrix"
)

// ErrNilCache is returned by ResolveInverse when given a nil *CachedMatrix.
var ErrNilCache = errors.New("cache: nil CachedMatrix")

// ResolveInverse returns the inverse of c's matrix, computing it only when
// the cache slot is empty.
//
// Hit: the cached inverse is returned; the InverseFunc is not called and
// the slot is untouched.
//
// Miss: the InverseFunc runs on the current matrix with opts forwarded
// verbatim. On success the result is stored in the slot and returned. On
// failure the error is returned as is (errors.Is still matches
// matrix.ErrSingular, matrix.ErrNonSquare, ...) and the slot stays empty,
// so the next call computes again.
//
// Complexity: O(1) plus an O(r*c) copy on a hit; the InverseFunc cost
// (O(n³) for the LU kernels) on a miss.
func ResolveInverse(c *CachedMatrix, opts ...matrix.InverseOption) (matrix.Matrix, error) {
	if c == nil {
		return nil, ErrNilCache
	}

	if inv, ok := c.CachedInverse(); ok {
		c.stats.Hits++
		c.fields("resolve").Debug("inverse cache hit")

		return inv, nil
	}

	c.stats.Misses++
	inv, err := c.invert(c.matrix, opts...)
	if err != nil {
		c.stats.Failures++
		c.fields("resolve").WithError(err).Warn("inverse computation failed")

		return nil, err
	}

	c.SetCachedInverse(inv)
	c.fields("resolve").Debug("inverse cache miss, computed")

	return inv, nil
}
