package kernel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/device/sim"
	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

func addSpec(cls shape.Contiguity) device.KernelSpec {
	return device.KernelSpec{
		Op: dtype.OpAdd,
		Operands: []device.Operand{
			{DType: dtype.Float32, Class: cls},
			{DType: dtype.Float32, Class: cls},
		},
		Result: dtype.Float32,
	}
}

func TestGetOrCompileCompilesOnce(t *testing.T) {
	d := sim.New()
	defer d.Close()
	c := NewCache(d.Compiler())

	k1, err := c.GetOrCompile(addSpec(shape.Contiguous))
	require.NoError(t, err)
	k2, err := c.GetOrCompile(addSpec(shape.Contiguous))
	require.NoError(t, err)

	assert.Same(t, k1, k2)
	assert.Equal(t, 1, d.Compiles())
	assert.Equal(t, 1, c.Len())
}

func TestDistinctSignaturesCompileSeparately(t *testing.T) {
	d := sim.New()
	defer d.Close()
	c := NewCache(d.Compiler())

	_, err := c.GetOrCompile(addSpec(shape.Contiguous))
	require.NoError(t, err)
	_, err = c.GetOrCompile(addSpec(shape.Strided))
	require.NoError(t, err)

	// Same operator, different contiguity class: different kernel.
	assert.Equal(t, 2, d.Compiles())
	assert.Equal(t, 2, c.Len())
}

func TestCompileErrorIsWrapped(t *testing.T) {
	d := sim.New()
	defer d.Close()
	c := NewCache(d.Compiler())

	// Wrong arity is rejected by the compiler and surfaces wrapped.
	bad := device.KernelSpec{
		Op:       dtype.OpAdd,
		Operands: []device.Operand{{DType: dtype.Float32}},
		Result:   dtype.Float32,
	}
	_, err := c.GetOrCompile(bad)
	assert.ErrorIs(t, err, ErrCompilation)
	assert.Equal(t, 0, c.Len())
}

func TestSpecKeyShapesTheCache(t *testing.T) {
	spec := device.KernelSpec{
		Op: dtype.OpMul,
		Operands: []device.Operand{
			{DType: dtype.Float32, Class: shape.Contiguous},
			{DType: dtype.Float32, Scalar: true},
		},
		Result: dtype.Float32,
	}
	assert.Equal(t, "mul|float32:c,float32:v|float32", spec.Key())
}

func TestSynthesizeContiguous(t *testing.T) {
	src := Synthesize(addSpec(shape.Contiguous))

	assert.Contains(t, src, "@compute @workgroup_size(256)")
	assert.Contains(t, src, "out[i + u32(params.out_offset)] = r;")
	// Contiguous operands address flat: no index decomposition.
	assert.NotContains(t, src, "var idx:")
}

func TestSynthesizeFlatPathCarriesOffsets(t *testing.T) {
	// A contiguous slice view starts at a nonzero element offset, so the
	// flat path must add each operand's offset to the invocation index.
	src := Synthesize(addSpec(shape.Contiguous))

	assert.Contains(t, src, "offset0: i32,")
	assert.Contains(t, src, "offset1: i32,")
	assert.Contains(t, src, "in0[i + u32(params.offset0)]")
	assert.Contains(t, src, "in1[i + u32(params.offset1)]")
	assert.NotContains(t, src, "in0[i]")
	assert.NotContains(t, src, "out[i]")
}

func TestSynthesizeStrided(t *testing.T) {
	spec := device.KernelSpec{
		Op: dtype.OpAdd,
		Operands: []device.Operand{
			{DType: dtype.Float32, Class: shape.Strided},
			{DType: dtype.Float32, Class: shape.Contiguous},
		},
		Result: dtype.Float32,
	}
	src := Synthesize(spec)

	assert.Contains(t, src, "var idx:")
	assert.Contains(t, src, "strides0")
	assert.Contains(t, src, "out_strides")
	// The contiguous operand still reads flat from its offset.
	assert.Contains(t, src, "in1[i + u32(params.offset1)]")
}

func TestSynthesizeScalarAndComplex(t *testing.T) {
	spec := device.KernelSpec{
		Op: dtype.OpMul,
		Operands: []device.Operand{
			{DType: dtype.Complex64, Class: shape.Contiguous},
			{DType: dtype.Complex64, Scalar: true},
		},
		Result: dtype.Complex64,
	}
	src := Synthesize(spec)

	assert.Contains(t, src, "scalar1: vec2<f32>")
	assert.Contains(t, src, "fn cmul")
	assert.Contains(t, src, "cmul(v0, v1)")
	// Scalar operands bind no storage buffer.
	assert.Equal(t, 1, strings.Count(src, "var<storage, read>"))
}
