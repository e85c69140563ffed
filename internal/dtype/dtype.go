// Package dtype provides element type descriptors and the promotion table
// for device arrays.
package dtype

// Kind classifies an element type.
type Kind int

// Element type kinds.
const (
	KindInt Kind = iota
	KindUint
	KindFloat
	KindComplex
)

// DType identifies the element type of an array.
type DType int

// Supported element types.
const (
	Int8 DType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
)

// Size returns the byte size of one element.
func (dt DType) Size() int {
	switch dt {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		panic("unknown dtype")
	}
}

// Kind returns the kind of the element type.
func (dt DType) Kind() Kind {
	switch dt {
	case Int8, Int16, Int32, Int64:
		return KindInt
	case Uint8, Uint16, Uint32, Uint64:
		return KindUint
	case Float32, Float64:
		return KindFloat
	case Complex64, Complex128:
		return KindComplex
	default:
		panic("unknown dtype")
	}
}

// String returns a human-readable name for the element type.
func (dt DType) String() string {
	switch dt {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return "unknown"
	}
}

// IsComplex reports whether the element type is complex.
func (dt DType) IsComplex() bool {
	return dt.Kind() == KindComplex
}

// IsInteger reports whether the element type is a signed or unsigned integer.
func (dt DType) IsInteger() bool {
	k := dt.Kind()
	return k == KindInt || k == KindUint
}

// Component returns the real component type of a complex type.
// For non-complex types it returns the type itself.
func (dt DType) Component() DType {
	switch dt {
	case Complex64:
		return Float32
	case Complex128:
		return Float64
	default:
		return dt
	}
}

// ToComplex returns the complex type whose component matches the given
// floating type. Float32 maps to Complex64, everything else to Complex128.
func (dt DType) ToComplex() DType {
	if dt.IsComplex() {
		return dt
	}
	if dt == Float32 {
		return Complex64
	}
	return Complex128
}

// DefaultFloat is the result type of true division on integer operands.
const DefaultFloat = Float64

// Element is the constraint for Go types that can back an array element.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// Of infers the DType for a Go element type.
func Of[T Element]() DType {
	var dummy T
	switch any(dummy).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		panic("unsupported element type")
	}
}
