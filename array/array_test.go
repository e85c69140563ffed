package array_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-ml/vortex/array"
	"github.com/vortex-ml/vortex/driver/sim"
)

func TestEndToEnd(t *testing.T) {
	drv := sim.New()
	defer drv.Close()
	ctx := array.NewContext(drv)
	defer ctx.Close()

	a, err := array.Arange(ctx, 6, array.Float64)
	require.NoError(t, err)
	defer a.Release()

	m, err := a.Reshape(2, 3)
	require.NoError(t, err)
	defer m.Release()

	scaled, err := m.MulScalar(10)
	require.NoError(t, err)
	defer scaled.Release()

	h, err := scaled.Get()
	require.NoError(t, err)
	assert.Equal(t, array.Shape{2, 3}, h.Shape)
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50}, h.AsFloat64())
}

func TestSliceAssignThroughPublicAPI(t *testing.T) {
	drv := sim.New()
	defer drv.Close()
	ctx := array.NewContext(drv)
	defer ctx.Close()

	a, err := array.Zeros(ctx, array.Shape{10}, array.Float32)
	require.NoError(t, err)
	defer a.Release()

	v, err := a.Slice(array.Span(3, 6))
	require.NoError(t, err)
	defer v.Release()
	require.NoError(t, v.Fill(1))

	h, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 1, 1, 0, 0, 0, 0}, h.AsFloat32())
}
