// Package shape provides pure data-layout math for strided N-dimensional
// arrays: stride computation, contiguity classification, broadcasting, and
// view reinterpretation. It never touches device state.
package shape

import (
	"errors"
	"fmt"
)

// Layout errors surfaced by the shape engine.
var (
	ErrIncompatibleShapes = errors.New("incompatible shapes")
	ErrInvalidShape       = errors.New("invalid shape")
	ErrInvalidAxis        = errors.New("invalid axis")
	ErrViewSizeMismatch   = errors.New("view size mismatch")
)

// Shape is the ordered sequence of extents of an array. Extents may be zero
// (an empty axis); negative extents are invalid except for the reshape
// inference sentinel.
type Shape []int

// Strides is the ordered sequence of signed element steps, one per axis.
// A broadcast view carries stride 0 on the broadcast axes.
type Strides []int

// Size returns the number of elements: the product of all extents, zero if
// any extent is zero, one for a rank-0 shape.
func (s Shape) Size() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that all extents are non-negative.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("%w: negative extent %d at axis %d", ErrInvalidShape, dim, i)
		}
	}
	return nil
}

// Equal reports whether two shapes match extent for extent.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// Clone returns a copy of the strides.
func (st Strides) Clone() Strides {
	return append(Strides(nil), st...)
}

// Equal reports whether two stride vectors match axis for axis.
func (st Strides) Equal(other Strides) bool {
	if len(st) != len(other) {
		return false
	}
	for i := range st {
		if st[i] != other[i] {
			return false
		}
	}
	return true
}

// CStrides computes row-major element strides for the shape.
func (s Shape) CStrides() Strides {
	st := make(Strides, len(s))
	if len(s) == 0 {
		return st
	}
	st[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		st[i] = st[i+1] * max(s[i+1], 1)
	}
	return st
}

// FStrides computes column-major element strides for the shape.
func (s Shape) FStrides() Strides {
	st := make(Strides, len(s))
	if len(s) == 0 {
		return st
	}
	st[0] = 1
	for i := 1; i < len(s); i++ {
		st[i] = st[i-1] * max(s[i-1], 1)
	}
	return st
}

// Contiguity classifies an array's memory layout.
type Contiguity int

// Contiguity classes. Classification is part of the operation signature:
// contiguous operands use flat kernel addressing, strided ones pay a
// per-element index computation.
const (
	Contiguous Contiguity = iota // row-major (C order)
	FContiguous
	Strided
)

// String returns the class mnemonic used in operation signatures.
func (c Contiguity) String() string {
	switch c {
	case Contiguous:
		return "c"
	case FContiguous:
		return "f"
	case Strided:
		return "s"
	default:
		return "?"
	}
}

// Classify recomputes the contiguity class from shape and strides. It is a
// pure function and must be re-evaluated after every shape/stride mutation.
// Axes of extent <= 1 place no constraint on layout; a shape that is both C-
// and F-contiguous (rank <= 1, or degenerate) classifies as Contiguous.
func Classify(s Shape, st Strides) Contiguity {
	if isCOrder(s, st) {
		return Contiguous
	}
	if isFOrder(s, st) {
		return FContiguous
	}
	return Strided
}

func isCOrder(s Shape, st Strides) bool {
	expect := 1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == 0 {
			return true // empty arrays are trivially contiguous
		}
		if s[i] == 1 {
			continue
		}
		if st[i] != expect {
			return false
		}
		expect *= s[i]
	}
	return true
}

func isFOrder(s Shape, st Strides) bool {
	expect := 1
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
		if s[i] == 1 {
			continue
		}
		if st[i] != expect {
			return false
		}
		expect *= s[i]
	}
	return true
}

// Broadcast applies the NumPy broadcasting rule to any number of shapes:
// shapes align on the trailing axis, each axis pair must be equal or one
// side must be 1 (or absent). The result extent is the larger of the two.
func Broadcast(shapes ...Shape) (Shape, error) {
	if len(shapes) == 0 {
		return Shape{}, nil
	}
	rank := 0
	for _, s := range shapes {
		rank = max(rank, len(s))
	}
	result := make(Shape, rank)
	for i := range result {
		result[i] = 1
	}
	for _, s := range shapes {
		off := rank - len(s)
		for i, dim := range s {
			r := result[off+i]
			switch {
			case r == dim || dim == 1:
			case r == 1:
				result[off+i] = dim
			default:
				return nil, fmt.Errorf("%w: cannot broadcast %v against extent %d at axis %d",
					ErrIncompatibleShapes, s, r, off+i)
			}
		}
	}
	return result, nil
}

// BroadcastStrides expands an operand's strides to a broadcast result shape.
// Missing leading axes and axes of extent 1 stretched by the broadcast carry
// stride 0. Such views are legal for read operands only.
func BroadcastStrides(s Shape, st Strides, result Shape) (Strides, error) {
	if len(s) > len(result) {
		return nil, fmt.Errorf("%w: operand rank %d exceeds result rank %d",
			ErrIncompatibleShapes, len(s), len(result))
	}
	out := make(Strides, len(result))
	off := len(result) - len(s)
	for i, dim := range s {
		switch {
		case dim == result[off+i]:
			out[off+i] = st[i]
		case dim == 1:
			out[off+i] = 0
		default:
			return nil, fmt.Errorf("%w: extent %d vs %d at axis %d",
				ErrIncompatibleShapes, dim, result[off+i], off+i)
		}
	}
	return out, nil
}
