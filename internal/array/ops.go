package array

import (
	"fmt"
	"math"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// operand is one launch input: an array, or a scalar already cast for the
// kernel.
type operand struct {
	arr    *Array
	scalar complex128
	dt     dtype.DType
}

// launch drives the whole operation pipeline: output allocation from the
// pool, signature construction, kernel lookup/compilation, and enqueue
// with the union of the sources' pending events as the wait list. The
// fresh destination's pending set becomes the single new event.
func (c *Context) launch(op dtype.Op, outShape shape.Shape, outDT dtype.DType, ops []operand) (*Array, error) {
	dst, err := Empty(c, outShape, outDT)
	if err != nil {
		return nil, err
	}

	spec := device.KernelSpec{Op: op, Result: outDT}
	d := device.Dispatch{
		N:     outShape.Size(),
		Shape: outShape,
		Out:   device.BufferArg(dst.mem.buf, dst.offset, nil),
	}
	var wait []device.Event
	for _, o := range ops {
		if o.arr == nil {
			spec.Operands = append(spec.Operands, device.Operand{DType: o.dt, Scalar: true})
			d.In = append(d.In, device.ScalarArg(o.scalar))
			continue
		}
		arg, cls, argErr := o.arr.arg(outShape)
		if argErr != nil {
			dst.Release()
			return nil, argErr
		}
		spec.Operands = append(spec.Operands, device.Operand{DType: o.arr.dtype, Class: cls})
		d.In = append(d.In, arg)
		wait = append(wait, o.arr.events.Snapshot()...)
	}

	k, err := c.kernels.GetOrCompile(spec)
	if err != nil {
		dst.Release()
		return nil, err
	}
	ev, err := c.queue.Enqueue(k, d, wait)
	if err != nil {
		dst.Release()
		return nil, err
	}
	dst.events.Replace(ev)
	return dst, nil
}

func (a *Array) binary(op dtype.Op, b *Array) (*Array, error) {
	if a.ctx != b.ctx {
		return nil, fmt.Errorf("arrays belong to different contexts")
	}
	rs, err := shape.Broadcast(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	rdt, err := dtype.Promote(op, a.dtype, b.dtype)
	if err != nil {
		return nil, err
	}
	return a.ctx.launch(op, rs, rdt, []operand{{arr: a}, {arr: b}})
}

func (a *Array) binaryScalar(op dtype.Op, v any, reversed bool) (*Array, error) {
	s, isComplex, err := toScalar(v)
	if err != nil {
		return nil, err
	}
	rdt := dtype.PromoteScalar(op, a.dtype, isComplex)

	// The scalar is cast to the array operand's type (kind aside), never
	// pushing the result to a higher precision.
	castTo := a.dtype
	if isComplex {
		castTo = a.dtype.ToComplex()
	}
	sc := operand{scalar: castScalar(s, castTo), dt: castTo}

	ops := []operand{{arr: a}, sc}
	if reversed {
		ops = []operand{sc, {arr: a}}
	}
	return a.ctx.launch(op, a.shape, rdt, ops)
}

func (a *Array) unary(op dtype.Op, rdt dtype.DType) (*Array, error) {
	return a.ctx.launch(op, a.shape, rdt, []operand{{arr: a}})
}

// Add returns a + b with broadcasting and type promotion.
func (a *Array) Add(b *Array) (*Array, error) { return a.binary(dtype.OpAdd, b) }

// Sub returns a - b.
func (a *Array) Sub(b *Array) (*Array, error) { return a.binary(dtype.OpSub, b) }

// Mul returns the elementwise product a * b.
func (a *Array) Mul(b *Array) (*Array, error) { return a.binary(dtype.OpMul, b) }

// Div returns a / b. Two integer operands promote to the default float.
func (a *Array) Div(b *Array) (*Array, error) { return a.binary(dtype.OpDiv, b) }

// Pow returns a ** b.
func (a *Array) Pow(b *Array) (*Array, error) { return a.binary(dtype.OpPow, b) }

// AddScalar returns a + v.
func (a *Array) AddScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpAdd, v, false) }

// SubScalar returns a - v.
func (a *Array) SubScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpSub, v, false) }

// RSubScalar returns v - a.
func (a *Array) RSubScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpSub, v, true) }

// MulScalar returns a * v.
func (a *Array) MulScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpMul, v, false) }

// DivScalar returns a / v.
func (a *Array) DivScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpDiv, v, false) }

// RDivScalar returns v / a.
func (a *Array) RDivScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpDiv, v, true) }

// PowScalar returns a ** v.
func (a *Array) PowScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpPow, v, false) }

// RPowScalar returns v ** a.
func (a *Array) RPowScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpPow, v, true) }

// Eq returns the elementwise comparison a == b as an int8 array of 0s and 1s.
func (a *Array) Eq(b *Array) (*Array, error) { return a.binary(dtype.OpEq, b) }

// Ne returns a != b as an int8 array.
func (a *Array) Ne(b *Array) (*Array, error) { return a.binary(dtype.OpNe, b) }

// Lt returns a < b as an int8 array.
func (a *Array) Lt(b *Array) (*Array, error) { return a.binary(dtype.OpLt, b) }

// Le returns a <= b as an int8 array.
func (a *Array) Le(b *Array) (*Array, error) { return a.binary(dtype.OpLe, b) }

// Gt returns a > b as an int8 array.
func (a *Array) Gt(b *Array) (*Array, error) { return a.binary(dtype.OpGt, b) }

// Ge returns a >= b as an int8 array.
func (a *Array) Ge(b *Array) (*Array, error) { return a.binary(dtype.OpGe, b) }

// EqScalar returns a == v as an int8 array.
func (a *Array) EqScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpEq, v, false) }

// NeScalar returns a != v as an int8 array.
func (a *Array) NeScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpNe, v, false) }

// LtScalar returns a < v as an int8 array.
func (a *Array) LtScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpLt, v, false) }

// LeScalar returns a <= v as an int8 array.
func (a *Array) LeScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpLe, v, false) }

// GtScalar returns a > v as an int8 array.
func (a *Array) GtScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpGt, v, false) }

// GeScalar returns a >= v as an int8 array.
func (a *Array) GeScalar(v any) (*Array, error) { return a.binaryScalar(dtype.OpGe, v, false) }

// Neg returns -a.
func (a *Array) Neg() (*Array, error) { return a.unary(dtype.OpNeg, a.dtype) }

// Abs returns |a|. For complex arrays the result is the real component type.
func (a *Array) Abs() (*Array, error) { return a.unary(dtype.OpAbs, a.dtype.Component()) }

// Real returns the real part of a as the component type.
func (a *Array) Real() (*Array, error) { return a.unary(dtype.OpReal, a.dtype.Component()) }

// Imag returns the imaginary part of a as the component type.
func (a *Array) Imag() (*Array, error) { return a.unary(dtype.OpImag, a.dtype.Component()) }

// Conj returns the complex conjugate of a.
func (a *Array) Conj() (*Array, error) { return a.unary(dtype.OpConj, a.dtype) }

// Copy returns a fresh row-major copy of a.
func (a *Array) Copy() (*Array, error) { return a.unary(dtype.OpCopy, a.dtype) }

// Fill overwrites every element of a, in place, with the given value. The
// new event is appended to the pending set and the set is compacted, so
// unbounded repetition keeps a bounded event count.
func (a *Array) Fill(v any) error {
	s, _, err := toScalar(v)
	if err != nil {
		return err
	}
	out, err := a.writeArg()
	if err != nil {
		return err
	}
	spec := device.KernelSpec{
		Op:       dtype.OpFill,
		Operands: []device.Operand{{DType: a.dtype, Scalar: true}},
		Result:   a.dtype,
	}
	k, err := a.ctx.kernels.GetOrCompile(spec)
	if err != nil {
		return err
	}
	d := device.Dispatch{
		N:     a.Size(),
		Shape: a.shape,
		Out:   out,
		In:    []device.Arg{device.ScalarArg(castScalar(s, a.dtype))},
	}
	ev, err := a.ctx.queue.Enqueue(k, d, a.events.Snapshot())
	if err != nil {
		return err
	}
	return a.events.Add(ev)
}

// Assign copies src into a, in place, casting to a's dtype and
// broadcasting src to a's shape. a may be a strided view; the write is
// scattered through its strides.
func (a *Array) Assign(src *Array) error {
	if a.ctx != src.ctx {
		return fmt.Errorf("arrays belong to different contexts")
	}
	out, err := a.writeArg()
	if err != nil {
		return err
	}
	arg, cls, err := src.arg(a.shape)
	if err != nil {
		return err
	}
	spec := device.KernelSpec{
		Op:       dtype.OpCopy,
		Operands: []device.Operand{{DType: src.dtype, Class: cls}},
		Result:   a.dtype,
	}
	k, err := a.ctx.kernels.GetOrCompile(spec)
	if err != nil {
		return err
	}
	d := device.Dispatch{N: a.Size(), Shape: a.shape, Out: out, In: []device.Arg{arg}}
	wait := append(src.events.Snapshot(), a.events.Snapshot()...)
	ev, err := a.ctx.queue.Enqueue(k, d, wait)
	if err != nil {
		return err
	}
	return a.events.Add(ev)
}

// SetRange assigns src into a[start:stop) along the leading axis.
func (a *Array) SetRange(start, stop int, src *Array) error {
	v, err := a.Slice(shape.Span(start, stop))
	if err != nil {
		return err
	}
	defer v.Release()
	return v.Assign(src)
}

// toScalar normalizes any Go numeric value to a complex128 and reports
// whether it carried an imaginary part.
func toScalar(v any) (complex128, bool, error) {
	switch x := v.(type) {
	case int:
		return complex(float64(x), 0), false, nil
	case int8:
		return complex(float64(x), 0), false, nil
	case int16:
		return complex(float64(x), 0), false, nil
	case int32:
		return complex(float64(x), 0), false, nil
	case int64:
		return complex(float64(x), 0), false, nil
	case uint:
		return complex(float64(x), 0), false, nil
	case uint8:
		return complex(float64(x), 0), false, nil
	case uint16:
		return complex(float64(x), 0), false, nil
	case uint32:
		return complex(float64(x), 0), false, nil
	case uint64:
		return complex(float64(x), 0), false, nil
	case float32:
		return complex(float64(x), 0), false, nil
	case float64:
		return complex(x, 0), false, nil
	case complex64:
		return complex128(x), imag(x) != 0, nil
	case complex128:
		return x, imag(x) != 0, nil
	default:
		return 0, false, fmt.Errorf("unsupported scalar type %T", v)
	}
}

// castScalar casts a scalar value through the target element type, so the
// kernel sees exactly what a stored element would hold.
func castScalar(v complex128, dt dtype.DType) complex128 {
	switch dt {
	case dtype.Float32:
		return complex(float64(float32(real(v))), 0)
	case dtype.Float64:
		return complex(real(v), 0)
	case dtype.Complex64:
		return complex(float64(float32(real(v))), float64(float32(imag(v))))
	case dtype.Complex128:
		return v
	default: // integer types truncate toward zero
		return complex(math.Trunc(real(v)), 0)
	}
}
