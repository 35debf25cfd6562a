// SPDX-License-Identifier: MIT

// Package cache memoizes the inverse of a matrix.
//
// A CachedMatrix owns one matrix and a single cache slot for its inverse.
// ResolveInverse fills the slot on the first request (a miss) and returns it
// unchanged on every later request (a hit) until SetMatrix replaces the
// matrix, which empties the slot in the same call.
//
//	c := cache.New(a)
//	inv, err := cache.ResolveInverse(c) // computes
//	inv, err = cache.ResolveInverse(c)  // cached
//	c.SetMatrix(b)                      // slot cleared
//	inv, err = cache.ResolveInverse(c)  // computes b⁻¹
//
// The inversion itself is delegated to an InverseFunc (matrix.Inverse by
// default, or gonuminv.Inverse). Failures such as matrix.ErrSingular or
// matrix.ErrNonSquare are returned unchanged and never cached, so the next
// call retries.
//
// Known limitation: InverseOption values passed to ResolveInverse only shape
// the computation on a miss. They are not part of the cache key, so a hit
// returns whatever the miss computed, regardless of the options given now.
// Call Invalidate first when switching options.
//
// Copies: a hit is one slot check plus a Clone of the cached inverse, so it
// costs O(r·c) rather than O(1). Callers may mutate what they receive
// without corrupting the slot.
package cache
