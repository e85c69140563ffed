package sim

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
)

// execute interprets one elementwise dispatch. Arithmetic runs in int64,
// uint64 or complex128 depending on the result type; values are cast to the
// destination type on store, mirroring what a generated device kernel does.
func execute(spec device.KernelSpec, d device.Dispatch) error {
	outBuf, err := hostBytes(d.Out)
	if err != nil {
		return err
	}
	inBufs := make([][]byte, len(d.In))
	for i, arg := range d.In {
		if arg.IsScalar() {
			continue
		}
		if inBufs[i], err = hostBytes(arg); err != nil {
			return err
		}
	}

	needIdx := d.Out.Strides != nil
	for _, arg := range d.In {
		if !arg.IsScalar() && arg.Strides != nil {
			needIdx = true
		}
	}

	intPath := integerPath(spec)
	idx := make([]int, len(d.Shape))
	for i := 0; i < d.N; i++ {
		if needIdx {
			decompose(i, d.Shape, idx)
		}
		var out complex128
		if intPath {
			var vals [2]int64
			for j, arg := range d.In {
				if arg.IsScalar() {
					vals[j] = int64(real(arg.Scalar))
				} else {
					vals[j] = loadInt(inBufs[j], spec.Operands[j].DType, elemIndex(d.In[j], i, idx))
				}
			}
			r, opErr := evalInt(spec.Op, vals[0], vals[1], unsignedPath(spec))
			if opErr != nil {
				return opErr
			}
			out = complex(float64(r), 0)
			if spec.Result == dtype.Int64 || spec.Result == dtype.Uint64 {
				storeInt(outBuf, spec.Result, elemIndex(d.Out, i, idx), r)
				continue
			}
		} else {
			var vals [2]complex128
			for j, arg := range d.In {
				if arg.IsScalar() {
					vals[j] = arg.Scalar
				} else {
					vals[j] = loadComplex(inBufs[j], spec.Operands[j].DType, elemIndex(d.In[j], i, idx))
				}
			}
			var opErr error
			out, opErr = evalComplex(spec.Op, vals[0], vals[1])
			if opErr != nil {
				return opErr
			}
		}
		storeComplex(outBuf, spec.Result, elemIndex(d.Out, i, idx), out)
	}
	return nil
}

func hostBytes(arg device.Arg) ([]byte, error) {
	b, ok := arg.Buf.(*buffer)
	if !ok {
		return nil, fmt.Errorf("sim: foreign buffer in dispatch")
	}
	return b.data, nil
}

// integerPath reports whether the whole computation stays in integer space.
func integerPath(spec device.KernelSpec) bool {
	for _, op := range spec.Operands {
		if !op.DType.IsInteger() {
			return false
		}
	}
	if spec.Op.IsComparison() {
		return true
	}
	return spec.Result.IsInteger()
}

// unsignedPath reports whether integer arithmetic must use unsigned
// semantics. Comparisons key off the operands: their int8 result says
// nothing about how uint64 values order.
func unsignedPath(spec device.KernelSpec) bool {
	for _, op := range spec.Operands {
		if op.DType == dtype.Uint64 {
			return true
		}
	}
	return spec.Result.Kind() == dtype.KindUint
}

func decompose(flat int, dims, idx []int) {
	for d := len(dims) - 1; d >= 0; d-- {
		if dims[d] == 0 {
			idx[d] = 0
			continue
		}
		idx[d] = flat % dims[d]
		flat /= dims[d]
	}
}

func elemIndex(arg device.Arg, flat int, idx []int) int {
	if arg.Strides == nil {
		return arg.Offset + flat
	}
	e := arg.Offset
	for d, st := range arg.Strides {
		e += idx[d] * st
	}
	return e
}

func evalInt(op dtype.Op, a, b int64, unsigned bool) (int64, error) {
	switch op {
	case dtype.OpAdd:
		return a + b, nil
	case dtype.OpSub:
		return a - b, nil
	case dtype.OpMul:
		return a * b, nil
	case dtype.OpNeg:
		return -a, nil
	case dtype.OpAbs:
		if unsigned || a >= 0 {
			return a, nil
		}
		return -a, nil
	case dtype.OpReal, dtype.OpConj, dtype.OpCopy, dtype.OpFill:
		return a, nil
	case dtype.OpImag:
		return 0, nil
	case dtype.OpEq:
		return boolInt(a == b), nil
	case dtype.OpNe:
		return boolInt(a != b), nil
	case dtype.OpLt:
		return boolInt(intLess(a, b, unsigned)), nil
	case dtype.OpLe:
		return boolInt(!intLess(b, a, unsigned)), nil
	case dtype.OpGt:
		return boolInt(intLess(b, a, unsigned)), nil
	case dtype.OpGe:
		return boolInt(!intLess(a, b, unsigned)), nil
	default:
		return 0, fmt.Errorf("sim: operator %s has no integer form", op)
	}
}

func intLess(a, b int64, unsigned bool) bool {
	if unsigned {
		return uint64(a) < uint64(b)
	}
	return a < b
}

func boolInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func evalComplex(op dtype.Op, a, b complex128) (complex128, error) {
	switch op {
	case dtype.OpAdd:
		return a + b, nil
	case dtype.OpSub:
		return a - b, nil
	case dtype.OpMul:
		return a * b, nil
	case dtype.OpDiv:
		return a / b, nil
	case dtype.OpPow:
		return pow(a, b), nil
	case dtype.OpNeg:
		return -a, nil
	case dtype.OpAbs:
		return complex(cmplx.Abs(a), 0), nil
	case dtype.OpReal:
		return complex(real(a), 0), nil
	case dtype.OpImag:
		return complex(imag(a), 0), nil
	case dtype.OpConj:
		return cmplx.Conj(a), nil
	case dtype.OpCopy, dtype.OpFill:
		return a, nil
	case dtype.OpEq:
		return cbool(a == b), nil
	case dtype.OpNe:
		return cbool(a != b), nil
	case dtype.OpLt:
		return cbool(real(a) < real(b)), nil
	case dtype.OpLe:
		return cbool(real(a) <= real(b)), nil
	case dtype.OpGt:
		return cbool(real(a) > real(b)), nil
	case dtype.OpGe:
		return cbool(real(a) >= real(b)), nil
	default:
		return 0, fmt.Errorf("sim: unknown operator %s", op)
	}
}

func cbool(v bool) complex128 {
	if v {
		return 1
	}
	return 0
}

// pow evaluates exponentiation. A negative integer exponent is computed as
// the reciprocal of the positive power, so a**(-1) matches 1/a exactly.
func pow(base, expo complex128) complex128 {
	if imag(expo) == 0 {
		r := real(expo)
		if r == math.Trunc(r) && math.Abs(r) <= 64 {
			n := int(r)
			if n < 0 {
				return 1 / ipow(base, -n)
			}
			return ipow(base, n)
		}
	}
	return cmplx.Pow(base, expo)
}

// ipow is exponentiation by squaring for small non-negative exponents.
func ipow(base complex128, n int) complex128 {
	result := complex128(1)
	for n > 0 {
		if n&1 == 1 {
			result *= base
		}
		base *= base
		n >>= 1
	}
	return result
}

func loadInt(b []byte, dt dtype.DType, elem int) int64 {
	off := elem * dt.Size()
	switch dt {
	case dtype.Int8:
		return int64(int8(b[off]))
	case dtype.Int16:
		return int64(int16(binary.LittleEndian.Uint16(b[off:])))
	case dtype.Int32:
		return int64(int32(binary.LittleEndian.Uint32(b[off:])))
	case dtype.Int64:
		return int64(binary.LittleEndian.Uint64(b[off:]))
	case dtype.Uint8:
		return int64(b[off])
	case dtype.Uint16:
		return int64(binary.LittleEndian.Uint16(b[off:]))
	case dtype.Uint32:
		return int64(binary.LittleEndian.Uint32(b[off:]))
	case dtype.Uint64:
		return int64(binary.LittleEndian.Uint64(b[off:]))
	default:
		panic("sim: non-integer load")
	}
}

func storeInt(b []byte, dt dtype.DType, elem int, v int64) {
	off := elem * dt.Size()
	switch dt {
	case dtype.Int64, dtype.Uint64:
		binary.LittleEndian.PutUint64(b[off:], uint64(v))
	default:
		storeComplex(b, dt, elem, complex(float64(v), 0))
	}
}

func loadComplex(b []byte, dt dtype.DType, elem int) complex128 {
	off := elem * dt.Size()
	switch dt {
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
		return complex(float64(loadInt(b, dt, elem)), 0)
	}
}

func storeComplex(b []byte, dt dtype.DType, elem int, v complex128) {
	off := elem * dt.Size()
	switch dt {
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
		panic("sim: unknown store dtype")
	}
}
