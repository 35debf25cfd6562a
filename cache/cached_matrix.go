// SPDX-License-Identifier: MIT

package cache

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/invcache/matrix"
)

// InverseFunc computes the inverse of m. It must not retain or mutate m.
// matrix.Inverse and gonuminv.Inverse both satisfy it.
type InverseFunc func(m matrix.Matrix, opts ...matrix.InverseOption) (matrix.Matrix, error)

// Stats counts cache events over the lifetime of a CachedMatrix.
type Stats struct {
	Hits          uint64 // resolves served from the slot
	Misses        uint64 // resolves that called the InverseFunc
	Failures      uint64 // misses whose InverseFunc returned an error
	Invalidations uint64 // populated slots cleared by SetMatrix or Invalidate
}

// CachedMatrix holds a matrix and at most one cached inverse of it.
//
// Invariant: the slot is either empty or holds the inverse of the current
// matrix. SetMatrix empties the slot before returning.
//
// Both the stored matrix and the cached inverse are private copies: values
// passed in are cloned, and values handed out are clones, so no caller alias
// can desynchronize the pair.
//
// A CachedMatrix is not safe for concurrent use. A host sharing one across
// goroutines must hold a mutex around ResolveInverse (the check-then-populate
// sequence) and around SetMatrix.
type CachedMatrix struct {
	matrix  matrix.Matrix
	inverse matrix.Matrix // nil = not computed
	invert  InverseFunc
	log     logrus.FieldLogger
	stats   Stats
}

// Option configures a CachedMatrix at construction.
type Option func(*CachedMatrix)

// WithInverter replaces the inversion routine (default matrix.Inverse).
// Panics on nil.
func WithInverter(fn InverseFunc) Option {
	if fn == nil {
		panic("cache: WithInverter(nil)")
	}

	return func(c *CachedMatrix) { c.invert = fn }
}

// WithLogger routes hit/miss/invalidation events to l (default: discarded).
// Panics on nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic("cache: WithLogger(nil)")
	}

	return func(c *CachedMatrix) { c.log = l }
}

// New wraps initial with an empty cache slot. initial is not validated;
// nil, non-square or singular matrices are accepted and only fail when
// ResolveInverse attempts the inversion.
//
// "No matrix" is an untyped nil or a nil *matrix.Dense. A nil pointer of
// any other Matrix implementation is not recognized and must be passed as
// an untyped nil instead: New and SetMatrix clone their argument, and
// Clone on such a pointer panics.
func New(initial matrix.Matrix, opts ...Option) *CachedMatrix {
	c := &CachedMatrix{
		matrix: cloneOrNil(initial),
		invert: matrix.Inverse,
		log:    discardLogger(),
	}
	for _, fn := range opts {
		if fn != nil {
			fn(c)
		}
	}

	return c
}

// Matrix returns a copy of the current matrix (nil if none was given).
func (c *CachedMatrix) Matrix() matrix.Matrix {
	return cloneOrNil(c.matrix)
}

// SetMatrix replaces the matrix and empties the cache slot.
// m is not validated; nil follows the same rules as in New.
func (c *CachedMatrix) SetMatrix(m matrix.Matrix) {
	c.matrix = cloneOrNil(m)
	c.clear("set-matrix")
}

// CachedInverse returns a copy of the cached inverse and true, or nil and
// false when the slot is empty. No side effects.
func (c *CachedMatrix) CachedInverse() (matrix.Matrix, bool) {
	if c.inverse == nil {
		return nil, false
	}

	return c.inverse.Clone(), true
}

// SetCachedInverse overwrites the slot with a copy of inv. inv is trusted to
// be the inverse of the current matrix; nothing checks it. nil empties the slot.
func (c *CachedMatrix) SetCachedInverse(inv matrix.Matrix) {
	c.inverse = cloneOrNil(inv)
}

// Invalidate empties the cache slot without touching the matrix.
func (c *CachedMatrix) Invalidate() {
	c.clear("invalidate")
}

// Stats returns a snapshot of the event counters.
func (c *CachedMatrix) Stats() Stats {
	return c.stats
}

// clear empties the slot, counting and logging only when it was populated.
func (c *CachedMatrix) clear(op string) {
	if c.inverse == nil {
		return
	}
	c.inverse = nil
	c.stats.Invalidations++
	c.fields(op).Debug("inverse cache invalidated")
}

// fields returns a log entry tagged with op and the current matrix shape.
func (c *CachedMatrix) fields(op string) *logrus.Entry {
	f := logrus.Fields{"op": op}
	if matrix.ValidateNotNil(c.matrix) == nil {
		f["rows"], f["cols"] = c.matrix.Rows(), c.matrix.Cols()
	}

	return c.log.WithFields(f)
}

// cloneOrNil deep-copies m, passing nil and nil *matrix.Dense through.
func cloneOrNil(m matrix.Matrix) matrix.Matrix {
	if matrix.ValidateNotNil(m) != nil {
		return nil
	}

	return m.Clone()
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
