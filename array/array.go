// Package array is the public API of the vortex array engine: strided
// N-dimensional typed arrays whose elementwise operations run
// asynchronously on a compute device behind a command queue.
//
// Example:
//
//	drv := sim.New()
//	defer drv.Close()
//	ctx := array.NewContext(drv)
//	defer ctx.Close()
//
//	a, _ := array.Arange(ctx, 10, array.Float32)
//	b, _ := a.MulScalar(2)
//	h, _ := b.Get()
//	fmt.Println(h.AsFloat32())
package array

import (
	"io"

	"github.com/vortex-ml/vortex/internal/array"
	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/pool"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Array is a strided N-dimensional array backed by device memory.
type Array = array.Array

// Context scopes a device's queue, memory pool, and kernel cache.
type Context = array.Context

// Option configures a Context.
type Option = array.Option

// HostArray is shaped, typed data in host memory.
type HostArray = array.HostArray

// Filler generates element values for Rand.
type Filler = array.Filler

// Uniform draws samples from [Lo, Hi).
type Uniform = array.Uniform

// DType identifies an element type.
type DType = dtype.DType

// Element types.
const (
	Int8       = dtype.Int8
	Int16      = dtype.Int16
	Int32      = dtype.Int32
	Int64      = dtype.Int64
	Uint8      = dtype.Uint8
	Uint16     = dtype.Uint16
	Uint32     = dtype.Uint32
	Uint64     = dtype.Uint64
	Float32    = dtype.Float32
	Float64    = dtype.Float64
	Complex64  = dtype.Complex64
	Complex128 = dtype.Complex128
)

// Shape holds per-axis extents; Strides holds per-axis element strides.
type (
	Shape   = shape.Shape
	Strides = shape.Strides
)

// Range selects part of one axis when slicing.
type Range = shape.Range

// All selects a whole axis.
var All = shape.All

// Span selects [start, stop) with step 1.
func Span(start, stop int) Range { return shape.Span(start, stop) }

// Infer marks a reshape extent to be derived from the element count; End
// marks a Range bound left at its axis default.
const (
	Infer = shape.Infer
	End   = shape.End
)

// Sentinel errors.
var (
	ErrIncompatibleShapes = shape.ErrIncompatibleShapes
	ErrInvalidShape       = shape.ErrInvalidShape
	ErrInvalidAxis        = shape.ErrInvalidAxis
	ErrViewSizeMismatch   = shape.ErrViewSizeMismatch
	ErrNoCommonType       = dtype.ErrNoCommonType
	ErrOutOfMemory        = pool.ErrOutOfMemory
)

// NewContext builds a context over a device driver.
func NewContext(driver device.Driver, opts ...Option) *Context {
	return array.NewContext(driver, opts...)
}

// WithLogger and WithMaxPending configure a new context.
var (
	WithLogger     = array.WithLogger
	WithMaxPending = array.WithMaxPending
)

// Empty allocates an uninitialized array.
func Empty(ctx *Context, dims Shape, dt DType) (*Array, error) {
	return array.Empty(ctx, dims, dt)
}

// Zeros allocates a zero-filled array.
func Zeros(ctx *Context, dims Shape, dt DType) (*Array, error) {
	return array.Zeros(ctx, dims, dt)
}

// Arange creates a 1-D array holding 0, 1, ..., n-1.
func Arange(ctx *Context, n int, dt DType) (*Array, error) {
	return array.Arange(ctx, n, dt)
}

// FromSlice copies a Go slice onto the device.
func FromSlice[T dtype.Element](ctx *Context, data []T, dims ...int) (*Array, error) {
	return array.FromSlice(ctx, data, dims...)
}

// HostFromSlice wraps a copy of a Go slice as a host array.
func HostFromSlice[T dtype.Element](data []T, dims ...int) (*HostArray, error) {
	return array.HostFromSlice(data, dims...)
}

// NewHost allocates a zeroed row-major host array.
func NewHost(dims Shape, dt DType) *HostArray {
	return array.NewHost(dims, dt)
}

// ToDevice copies a host array onto the device.
func ToDevice(ctx *Context, h *HostArray) (*Array, error) {
	return array.ToDevice(ctx, h)
}

// Rand creates an array populated by a filler.
func Rand(ctx *Context, dims Shape, dt DType, f Filler) (*Array, error) {
	return array.Rand(ctx, dims, dt, f)
}

// Concatenate joins arrays along an axis.
func Concatenate(axis int, arrays ...*Array) (*Array, error) {
	return array.Concatenate(axis, arrays...)
}

// Load reads a CBOR snapshot and places it on the device.
func Load(ctx *Context, r io.Reader) (*Array, error) {
	return array.Load(ctx, r)
}
