package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

func TestFreshOpLeavesOneEvent(t *testing.T) {
	ctx := newTestContext(t)

	a, err := Arange(ctx, 100, dtype.Float32)
	require.NoError(t, err)
	defer a.Release()
	assert.Equal(t, 1, a.Pending())

	b, err := a.MulScalar(2)
	require.NoError(t, err)
	defer b.Release()
	assert.Equal(t, 1, b.Pending())

	require.NoError(t, b.Finish())
	assert.Equal(t, 0, b.Pending())
}

func TestRepeatedFillsStayBounded(t *testing.T) {
	ctx := newTestContext(t)

	a, err := Empty(ctx, shape.Shape{16}, dtype.Float32)
	require.NoError(t, err)
	defer a.Release()

	for i := 0; i < 1000; i++ {
		require.NoError(t, a.Fill(i))
	}
	assert.Less(t, a.Pending(), 100)

	require.NoError(t, a.Finish())
	h, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, []float32{
		999, 999, 999, 999, 999, 999, 999, 999,
		999, 999, 999, 999, 999, 999, 999, 999,
	}, h.AsFloat32())
}

func TestViewWritesOrderAgainstParent(t *testing.T) {
	ctx := newTestContext(t)

	a, err := Zeros(ctx, shape.Shape{8}, dtype.Float64)
	require.NoError(t, err)
	defer a.Release()

	v, err := a.Slice(shape.Span(4, 8))
	require.NoError(t, err)
	defer v.Release()

	// Writes through the view and through the parent share one pending
	// set, so they execute in order.
	require.NoError(t, v.Fill(5))
	sum, err := a.AddScalar(1)
	require.NoError(t, err)
	defer sum.Release()

	h, err := sum.Get()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 6, 6, 6, 6}, h.AsFloat64())
}

func TestContextFinishDrainsQueue(t *testing.T) {
	ctx := newTestContext(t)

	a, err := Arange(ctx, 10, dtype.Float32)
	require.NoError(t, err)
	defer a.Release()
	b, err := a.MulScalar(3)
	require.NoError(t, err)
	defer b.Release()

	require.NoError(t, ctx.Finish())
}

func TestWithMaxPendingBound(t *testing.T) {
	ctx := newTestContext(t, WithMaxPending(8))

	a, err := Empty(ctx, shape.Shape{4}, dtype.Float32)
	require.NoError(t, err)
	defer a.Release()

	for i := 0; i < 50; i++ {
		require.NoError(t, a.Fill(i))
	}
	assert.LessOrEqual(t, a.Pending(), 8)
}
