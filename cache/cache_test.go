package cache_test

import (
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/invcache/cache"
	"github.com/katalvlaran/invcache/matrix"
	"github.com/katalvlaran/invcache/matrix/gonuminv"
)

// counter wraps an InverseFunc and records every call.
type counter struct {
	calls int
	opts  [][]matrix.InverseOption
	next  cache.InverseFunc
}

func (c *counter) invert(m matrix.Matrix, opts ...matrix.InverseOption) (matrix.Matrix, error) {
	c.calls++
	c.opts = append(c.opts, opts)

	return c.next(m, opts...)
}

func mustFrom(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(rows)
	require.NoError(t, err)

	return m
}

func requireRowsClose(t *testing.T, want [][]float64, got matrix.Matrix) {
	t.Helper()
	ok, err := matrix.AllClose(got, mustFrom(t, want), 0, 1e-12)
	require.NoError(t, err)
	require.True(t, ok, "want %v got %v", want, got)
}

// CachedMatrixSuite walks the cache slot through its absent/populated states.
type CachedMatrixSuite struct {
	suite.Suite
	count *counter
	c     *cache.CachedMatrix
}

func (s *CachedMatrixSuite) SetupTest() {
	s.count = &counter{next: matrix.Inverse}
	s.c = cache.New(mustFrom(s.T(), [][]float64{{1, 2}, {3, 4}}), cache.WithInverter(s.count.invert))
}

// TestScenario replays the reference sequence end to end.
func (s *CachedMatrixSuite) TestScenario() {
	t := s.T()

	_, ok := s.c.CachedInverse()
	require.False(t, ok)

	inv, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)
	requireRowsClose(t, [][]float64{{-2, 1}, {1.5, -0.5}}, inv)

	cached, ok := s.c.CachedInverse()
	require.True(t, ok)
	requireRowsClose(t, [][]float64{{-2, 1}, {1.5, -0.5}}, cached)

	s.c.SetMatrix(mustFrom(t, [][]float64{{5, 6}, {7, 8}}))
	_, ok = s.c.CachedInverse()
	require.False(t, ok)

	inv, err = cache.ResolveInverse(s.c)
	require.NoError(t, err)
	requireRowsClose(t, [][]float64{{-4, 3}, {3.5, -2.5}}, inv)
	require.Equal(t, 2, s.count.calls)
}

// TestMatrixRoundTrip: New(M).Matrix() equals M.
func (s *CachedMatrixSuite) TestMatrixRoundTrip() {
	t := s.T()
	rows := [][]float64{{1, 2, 3}, {4, 5, 6}}
	c := cache.New(mustFrom(t, rows))

	got, err := matrix.ToRows(c.Matrix())
	require.NoError(t, err)
	require.Equal(t, rows, got)
}

// TestFirstResolvePopulates: the first resolve returns M⁻¹ and fills the slot.
func (s *CachedMatrixSuite) TestFirstResolvePopulates() {
	t := s.T()

	inv, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)

	cached, ok := s.c.CachedInverse()
	require.True(t, ok)
	require.Equal(t, inv, cached)

	id, err := matrix.Identity(2)
	require.NoError(t, err)
	prod, err := matrix.Mul(s.c.Matrix(), inv)
	require.NoError(t, err)
	ok, err = matrix.AllClose(prod, id, 0, 1e-12)
	require.NoError(t, err)
	require.True(t, ok)
}

// TestComputesOnce: repeated resolves call the inverter exactly once.
func (s *CachedMatrixSuite) TestComputesOnce() {
	t := s.T()

	first, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := cache.ResolveInverse(s.c)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	require.Equal(t, 1, s.count.calls)
	require.Equal(t, cache.Stats{Hits: 5, Misses: 1}, s.c.Stats())
}

// TestSetMatrixClearsSlot: any SetMatrix empties a populated slot.
func (s *CachedMatrixSuite) TestSetMatrixClearsSlot() {
	t := s.T()

	for _, next := range []matrix.Matrix{
		mustFrom(t, [][]float64{{1, 2}, {3, 4}}), // same content
		mustFrom(t, [][]float64{{1, 2}, {2, 4}}), // singular
		mustFrom(t, [][]float64{{1, 2, 3}}),      // non-square
		nil,
	} {
		c := cache.New(mustFrom(t, [][]float64{{1, 2}, {3, 4}}))
		_, err := cache.ResolveInverse(c)
		require.NoError(t, err)
		_, ok := c.CachedInverse()
		require.True(t, ok)

		c.SetMatrix(next)
		_, ok = c.CachedInverse()
		require.False(t, ok)
		require.Equal(t, uint64(1), c.Stats().Invalidations)
	}
}

// TestResolveAfterSetMatrix: the new inverse is of N, with one new computation.
func (s *CachedMatrixSuite) TestResolveAfterSetMatrix() {
	t := s.T()

	_, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)
	require.Equal(t, 1, s.count.calls)

	s.c.SetMatrix(mustFrom(t, [][]float64{{2, 0, 0}, {0, 4, 0}, {0, 0, 8}}))
	inv, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)
	requireRowsClose(t, [][]float64{{0.5, 0, 0}, {0, 0.25, 0}, {0, 0, 0.125}}, inv)
	require.Equal(t, 2, s.count.calls)

	_, err = cache.ResolveInverse(s.c)
	require.NoError(t, err)
	require.Equal(t, 2, s.count.calls)
	require.Equal(t, cache.Stats{Hits: 1, Misses: 2, Invalidations: 1}, s.c.Stats())
}

// TestSingularIsNotCached: failures propagate and every call retries.
func (s *CachedMatrixSuite) TestSingularIsNotCached() {
	t := s.T()
	s.c.SetMatrix(mustFrom(t, [][]float64{{1, 2}, {2, 4}}))

	for i := 1; i <= 3; i++ {
		inv, err := cache.ResolveInverse(s.c)
		require.ErrorIs(t, err, matrix.ErrSingular)
		require.Nil(t, inv)
		_, ok := s.c.CachedInverse()
		require.False(t, ok)
		require.Equal(t, i, s.count.calls)
	}
	require.Equal(t, cache.Stats{Misses: 3, Failures: 3}, s.c.Stats())

	// Correcting the matrix lets the next resolve succeed.
	s.c.SetMatrix(mustFrom(t, [][]float64{{1, 2}, {3, 4}}))
	_, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)
	require.Equal(t, 4, s.count.calls)
}

// TestInvalidInput: non-square and nil matrices surface their sentinels uncached.
func (s *CachedMatrixSuite) TestInvalidInput() {
	t := s.T()

	s.c.SetMatrix(mustFrom(t, [][]float64{{1, 2, 3}, {4, 5, 6}}))
	_, err := cache.ResolveInverse(s.c)
	require.ErrorIs(t, err, matrix.ErrNonSquare)
	_, ok := s.c.CachedInverse()
	require.False(t, ok)

	s.c.SetMatrix(nil)
	require.Nil(t, s.c.Matrix())
	_, err = cache.ResolveInverse(s.c)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
	require.Equal(t, 2, s.count.calls)
}

// TestOptionsForwardedOnMissOnly: options reach the inverter on a miss and
// do not affect a hit.
func (s *CachedMatrixSuite) TestOptionsForwardedOnMissOnly() {
	t := s.T()

	_, err := cache.ResolveInverse(s.c, matrix.WithPivotTolerance(0.5))
	require.NoError(t, err)
	require.Len(t, s.count.opts, 1)
	require.Len(t, s.count.opts[0], 1)

	// A tolerance that would fail a fresh computation still hits the slot.
	_, err = cache.ResolveInverse(s.c, matrix.WithPivotTolerance(1))
	require.NoError(t, err)
	require.Equal(t, 1, s.count.calls)

	s.c.Invalidate()
	_, err = cache.ResolveInverse(s.c, matrix.WithPivotTolerance(1))
	require.ErrorIs(t, err, matrix.ErrSingular)
	require.Equal(t, 2, s.count.calls)
}

// TestSetCachedInverse: the slot is overwritten without validation.
func (s *CachedMatrixSuite) TestSetCachedInverse() {
	t := s.T()

	bogus := mustFrom(t, [][]float64{{9, 9}, {9, 9}})
	s.c.SetCachedInverse(bogus)

	inv, err := cache.ResolveInverse(s.c)
	require.NoError(t, err)
	require.Equal(t, bogus.ToRows(), inv.(*matrix.Dense).ToRows())
	require.Zero(t, s.count.calls)

	s.c.SetCachedInverse(nil)
	_, ok := s.c.CachedInverse()
	require.False(t, ok)
}

// TestDefensiveCopies: caller aliases never reach internal state.
func (s *CachedMatrixSuite) TestDefensiveCopies() {
	t := s.T()

	src := mustFrom(t, [][]float64{{1, 2}, {3, 4}})
	c := cache.New(src)
	require.NoError(t, src.Set(0, 0, 100))

	got := c.Matrix()
	v, err := got.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
	require.NoError(t, got.Set(0, 0, 100))

	inv, err := cache.ResolveInverse(c)
	require.NoError(t, err)
	requireRowsClose(t, [][]float64{{-2, 1}, {1.5, -0.5}}, inv)

	require.NoError(t, inv.Set(0, 0, 42))
	cached, _ := c.CachedInverse()
	v, err = cached.At(0, 0)
	require.NoError(t, err)
	require.InDelta(t, -2.0, v, 1e-12)
}

func TestCachedMatrixSuite(t *testing.T) {
	suite.Run(t, new(CachedMatrixSuite))
}

func TestResolveInverse_NilCache(t *testing.T) {
	_, err := cache.ResolveInverse(nil)
	require.ErrorIs(t, err, cache.ErrNilCache)
}

func TestInvalidate_OnlyCountsPopulatedSlot(t *testing.T) {
	c := cache.New(mustFrom(t, [][]float64{{2}}))
	c.Invalidate()
	c.SetMatrix(mustFrom(t, [][]float64{{4}}))
	require.Zero(t, c.Stats().Invalidations)

	_, err := cache.ResolveInverse(c)
	require.NoError(t, err)
	c.Invalidate()
	require.Equal(t, uint64(1), c.Stats().Invalidations)
}

func TestWithGonumInverter(t *testing.T) {
	c := cache.New(mustFrom(t, [][]float64{{1, 2}, {3, 4}}), cache.WithInverter(gonuminv.Inverse))

	inv, err := cache.ResolveInverse(c)
	require.NoError(t, err)
	requireRowsClose(t, [][]float64{{-2, 1}, {1.5, -0.5}}, inv)

	c.SetMatrix(mustFrom(t, [][]float64{{1, 2}, {2, 4}}))
	_, err = cache.ResolveInverse(c)
	require.ErrorIs(t, err, matrix.ErrSingular)
}

// Every backend must report numerically singular inputs as ErrSingular,
// leave the slot empty and compute again on the next call.
func TestSingularInputs_AllBackends(t *testing.T) {
	inputs := []struct {
		name string
		rows [][]float64
	}{
		{"exact_duplicate_row", [][]float64{{1, 2}, {2, 4}}},
		{"rank2_3x3", [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}},
		{"rank2_3x3_exact_zero", [][]float64{{2, 4, 6}, {1, 2, 3}, {0, 1, 1}}},
		{"near_duplicate_row", [][]float64{{1, 100}, {1, math.Nextafter(100, 101)}}},
	}
	backends := []struct {
		name   string
		invert cache.InverseFunc
	}{
		{"lu", matrix.Inverse},
		{"gonum", gonuminv.Inverse},
	}

	for _, b := range backends {
		for _, in := range inputs {
			t.Run(b.name+"/"+in.name, func(t *testing.T) {
				count := &counter{next: b.invert}
				c := cache.New(mustFrom(t, in.rows), cache.WithInverter(count.invert))

				for i := 1; i <= 2; i++ {
					inv, err := cache.ResolveInverse(c)
					require.ErrorIs(t, err, matrix.ErrSingular)
					require.Nil(t, inv)
					_, ok := c.CachedInverse()
					require.False(t, ok)
					require.Equal(t, i, count.calls)
				}
				require.Equal(t, cache.Stats{Misses: 2, Failures: 2}, c.Stats())
			})
		}
	}
}

func TestTypedNilDenseIsAbsent(t *testing.T) {
	var d *matrix.Dense

	c := cache.New(d)
	require.Nil(t, c.Matrix())
	_, err := cache.ResolveInverse(c)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)

	c.SetMatrix(mustFrom(t, [][]float64{{2}}))
	_, err = cache.ResolveInverse(c)
	require.NoError(t, err)

	c.SetMatrix(d)
	require.Nil(t, c.Matrix())
	_, ok := c.CachedInverse()
	require.False(t, ok)
}

func TestCustomInverterErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	c := cache.New(nil, cache.WithInverter(func(matrix.Matrix, ...matrix.InverseOption) (matrix.Matrix, error) {
		return nil, boom
	}))

	_, err := cache.ResolveInverse(c)
	require.Same(t, boom, err)
}

func TestLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c := cache.New(mustFrom(t, [][]float64{{1, 2}, {3, 4}}), cache.WithLogger(logger))
	_, err := cache.ResolveInverse(c)
	require.NoError(t, err)
	_, err = cache.ResolveInverse(c)
	require.NoError(t, err)
	c.SetMatrix(mustFrom(t, [][]float64{{1, 2}, {2, 4}}))
	_, err = cache.ResolveInverse(c)
	require.Error(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 4)
	require.Equal(t, "inverse cache miss, computed", entries[0].Message)
	require.Equal(t, "inverse cache hit", entries[1].Message)
	require.Equal(t, "inverse cache invalidated", entries[2].Message)
	require.Equal(t, "set-matrix", entries[2].Data["op"])
	require.Equal(t, logrus.WarnLevel, entries[3].Level)
	require.Equal(t, 2, entries[3].Data["rows"])
	require.ErrorIs(t, entries[3].Data[logrus.ErrorKey].(error), matrix.ErrSingular)
}

func TestOptionConstructorsPanicOnNil(t *testing.T) {
	require.Panics(t, func() { cache.WithInverter(nil) })
	require.Panics(t, func() { cache.WithLogger(nil) })
}
