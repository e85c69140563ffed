package array

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// HostArray is shaped, typed data in host memory: the source of a
// host-to-device transfer and the result of a device-to-host read. Nil
// Strides mean row-major. Data always starts at element offset zero.
type HostArray struct {
	Shape   shape.Shape
	Strides shape.Strides
	DType   dtype.DType
	Data    []byte
}

// NewHost allocates a zeroed row-major host array.
func NewHost(dims shape.Shape, dt dtype.DType) *HostArray {
	return &HostArray{
		Shape: dims.Clone(),
		DType: dt,
		Data:  make([]byte, dims.Size()*dt.Size()),
	}
}

// HostFromSlice wraps a copy of a Go slice as a row-major host array. With
// no dims the array is 1-D.
func HostFromSlice[T dtype.Element](data []T, dims ...int) (*HostArray, error) {
	s := shape.Shape(dims)
	if len(dims) == 0 {
		s = shape.Shape{len(data)}
	}
	if s.Size() != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, slice has %d",
			shape.ErrInvalidShape, s, s.Size(), len(data))
	}
	dt := dtype.Of[T]()
	h := NewHost(s, dt)
	if len(data) > 0 {
		src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*dt.Size())
		copy(h.Data, src)
	}
	return h, nil
}

// Size returns the number of elements.
func (h *HostArray) Size() int { return h.Shape.Size() }

// strides returns the effective strides.
func (h *HostArray) strides() shape.Strides {
	if h.Strides != nil {
		return h.Strides
	}
	return h.Shape.CStrides()
}

// Transpose returns a reversed-axes view of the same host data. Useful for
// staging F-contiguous inputs.
func (h *HostArray) Transpose() *HostArray {
	ns, nst, _ := shape.Transpose(h.Shape, h.strides(), nil)
	return &HostArray{Shape: ns, Strides: nst, DType: h.DType, Data: h.Data}
}

// Contiguous returns the data in row-major order, copying only when the
// layout demands it.
func (h *HostArray) Contiguous() *HostArray {
	if h.Strides == nil || shape.Classify(h.Shape, h.Strides) == shape.Contiguous {
		return &HostArray{Shape: h.Shape, DType: h.DType, Data: h.Data}
	}
	out := NewHost(h.Shape, h.DType)
	st := h.strides()
	idx := make([]int, len(h.Shape))
	for i := 0; i < h.Size(); i++ {
		elem := 0
		rem := i
		for d := len(h.Shape) - 1; d >= 0; d-- {
			idx[d] = rem % h.Shape[d]
			rem /= h.Shape[d]
			elem += idx[d] * st[d]
		}
		out.setComplex(i, h.getComplex(elem))
	}
	return out
}

// AsFloat32 reinterprets the data as []float32. Panics on dtype mismatch.
func (h *HostArray) AsFloat32() []float32 { return hostSlice[float32](h, dtype.Float32) }

// AsFloat64 reinterprets the data as []float64. Panics on dtype mismatch.
func (h *HostArray) AsFloat64() []float64 { return hostSlice[float64](h, dtype.Float64) }

// AsInt8 reinterprets the data as []int8. Panics on dtype mismatch.
func (h *HostArray) AsInt8() []int8 { return hostSlice[int8](h, dtype.Int8) }

// AsInt32 reinterprets the data as []int32. Panics on dtype mismatch.
func (h *HostArray) AsInt32() []int32 { return hostSlice[int32](h, dtype.Int32) }

// AsInt64 reinterprets the data as []int64. Panics on dtype mismatch.
func (h *HostArray) AsInt64() []int64 { return hostSlice[int64](h, dtype.Int64) }

// AsComplex64 reinterprets the data as []complex64. Panics on dtype mismatch.
func (h *HostArray) AsComplex64() []complex64 { return hostSlice[complex64](h, dtype.Complex64) }

// AsComplex128 reinterprets the data as []complex128. Panics on dtype mismatch.
func (h *HostArray) AsComplex128() []complex128 { return hostSlice[complex128](h, dtype.Complex128) }

func hostSlice[T dtype.Element](h *HostArray, want dtype.DType) []T {
	if h.DType != want {
		panic(fmt.Sprintf("host array dtype is %s, not %s", h.DType, want))
	}
	n := len(h.Data) / want.Size()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&h.Data[0])), n)
}

// getComplex reads the element at the given flat index as a complex128.
func (h *HostArray) getComplex(elem int) complex128 {
	off := elem * h.DType.Size()
	b := h.Data
	switch h.DType {
	case dtype.Int8:
		return complex(float64(int8(b[off])), 0)
	case dtype.Int16:
		return complex(float64(int16(binary.LittleEndian.Uint16(b[off:]))), 0)
	case dtype.Int32:
		return complex(float64(int32(binary.LittleEndian.Uint32(b[off:]))), 0)
	case dtype.Int64:
		return complex(float64(int64(binary.LittleEndian.Uint64(b[off:]))), 0)
	case dtype.Uint8:
		return complex(float64(b[off]), 0)
	case dtype.Uint16:
		return complex(float64(binary.LittleEndian.Uint16(b[off:])), 0)
	case dtype.Uint32:
		return complex(float64(binary.LittleEndian.Uint32(b[off:])), 0)
	case dtype.Uint64:
		return complex(float64(binary.LittleEndian.Uint64(b[off:])), 0)
	case dtype.Float32:
		return complex(float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))), 0)
	case dtype.Float64:
		return complex(math.Float64frombits(binary.LittleEndian.Uint64(b[off:])), 0)
	case dtype.Complex64:
		re := math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:]))
		return complex(float64(re), float64(im))
	case dtype.Complex128:
		re := math.Float64frombits(binary.LittleEndian.Uint64(b[off:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[off+8:]))
		return complex(re, im)
	default:
		panic("unknown dtype")
	}
}

// setComplex stores a complex128 into the element at the given flat index,
// casting to the array's dtype.
func (h *HostArray) setComplex(elem int, v complex128) {
	off := elem * h.DType.Size()
	b := h.Data
	switch h.DType {
	case dtype.Int8, dtype.Uint8:
		b[off] = byte(int64(real(v)))
	case dtype.Int16, dtype.Uint16:
		binary.LittleEndian.PutUint16(b[off:], uint16(int64(real(v))))
	case dtype.Int32, dtype.Uint32:
		binary.LittleEndian.PutUint32(b[off:], uint32(int64(real(v))))
	case dtype.Int64, dtype.Uint64:
		binary.LittleEndian.PutUint64(b[off:], uint64(int64(real(v))))
	case dtype.Float32:
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(real(v))))
	case dtype.Float64:
		binary.LittleEndian.PutUint64(b[off:], math.Float64bits(real(v)))
	case dtype.Complex64:
		binary.LittleEndian.PutUint32(b[off:], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(b[off+4:], math.Float32bits(float32(imag(v))))
	case dtype.Complex128:
		binary.LittleEndian.PutUint64(b[off:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(b[off+8:], math.Float64bits(imag(v)))
	default:
		panic("unknown dtype")
	}
}
