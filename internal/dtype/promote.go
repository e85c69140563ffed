package dtype

import (
	"errors"
	"fmt"
)

// ErrNoCommonType is returned when no result type is defined for an
// operand type pairing (e.g. uint64 combined with a signed integer).
var ErrNoCommonType = errors.New("no common type")

// Promote computes the result type of a binary operation on two array
// operands.
//
// Rules:
//   - two floats promote to the wider float
//   - real + complex promotes to the complex type whose component precision
//     matches the wider of the two
//   - two complex types promote to the wider
//   - integers follow standard widening; a signed/unsigned mix promotes to
//     the signed type able to represent both, or fails
//   - true division on two integer operands promotes to the default float
//   - comparisons are computed on the promoted type but yield int8
func Promote(op Op, a, b DType) (DType, error) {
	if op.IsComparison() {
		if _, err := promotePair(a, b); err != nil {
			return 0, err
		}
		return Int8, nil
	}

	r, err := promotePair(a, b)
	if err != nil {
		return 0, err
	}

	// Integer true division and integer exponentiation land in float space.
	if (op == OpDiv || op == OpPow) && r.IsInteger() {
		return DefaultFloat, nil
	}
	return r, nil
}

// PromoteScalar computes the result type of a binary operation between an
// array operand and a bare host scalar. The scalar's value is cast to the
// array's type: it may raise the kind (a complex-valued scalar against a
// real array yields the matching complex type) but never the precision.
func PromoteScalar(op Op, array DType, scalarComplex bool) DType {
	if op.IsComparison() {
		return Int8
	}
	r := array
	if scalarComplex && !r.IsComplex() {
		r = r.ToComplex()
	}
	if (op == OpDiv || op == OpPow) && r.IsInteger() {
		return DefaultFloat
	}
	return r
}

func promotePair(a, b DType) (DType, error) {
	if a == b {
		return a, nil
	}

	ka, kb := a.Kind(), b.Kind()

	// Complex wins; component precision follows the wider operand.
	if ka == KindComplex || kb == KindComplex {
		ca, cb := a.Component(), b.Component()
		w := widerFloatish(ca, cb)
		return w.ToComplex(), nil
	}

	// Any float operand pulls the result into float space.
	if ka == KindFloat || kb == KindFloat {
		if ka == KindFloat && kb == KindFloat {
			return widerFloatish(a, b), nil
		}
		if ka == KindFloat {
			return a, nil
		}
		return b, nil
	}

	// Both integers.
	return promoteIntegers(a, b)
}

// widerFloatish returns the wider of two floating types.
func widerFloatish(a, b DType) DType {
	if a.Size() >= b.Size() {
		return a
	}
	return b
}

func promoteIntegers(a, b DType) (DType, error) {
	ka, kb := a.Kind(), b.Kind()

	if ka == kb {
		if a.Size() >= b.Size() {
			return a, nil
		}
		return b, nil
	}

	// Mixed signedness: the signed type must be able to hold the full
	// unsigned range.
	signed, unsigned := a, b
	if ka == KindUint {
		signed, unsigned = b, a
	}
	if signed.Size() > unsigned.Size() {
		return signed, nil
	}
	next, ok := widerSigned(unsigned.Size())
	if !ok {
		return 0, fmt.Errorf("%w: %s and %s", ErrNoCommonType, a, b)
	}
	return next, nil
}

// widerSigned returns the signed type strictly wider than size bytes.
func widerSigned(size int) (DType, bool) {
	switch size {
	case 1:
		return Int16, true
	case 2:
		return Int32, true
	case 4:
		return Int64, true
	default:
		return 0, false
	}
}
