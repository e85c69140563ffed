package array

import (
	"fmt"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Reshape returns an array with the same elements and a new shape. One
// extent may be shape.Infer. A row-major contiguous array reshapes as a
// zero-copy view; anything else is copied to a fresh contiguous array
// first.
func (a *Array) Reshape(dims ...int) (*Array, error) {
	ns, err := shape.ResolveReshape(a.Size(), shape.Shape(dims))
	if err != nil {
		return nil, err
	}
	if a.CContiguous() {
		return a.view(ns, ns.CStrides(), a.offset), nil
	}
	c, err := a.Copy()
	if err != nil {
		return nil, err
	}
	out := c.view(ns, ns.CStrides(), c.offset)
	c.Release()
	return out, nil
}

// Slice returns a zero-copy view selecting the given ranges, one per
// leading axis. Trailing axes are kept whole.
func (a *Array) Slice(ranges ...shape.Range) (*Array, error) {
	ns, nst, off, err := shape.Slice(a.shape, a.strides, a.offset, ranges)
	if err != nil {
		return nil, err
	}
	return a.view(ns, nst, off), nil
}

// Index returns a zero-copy view of row i along the leading axis, with the
// axis removed.
func (a *Array) Index(i int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, fmt.Errorf("%w: cannot index a rank-0 array", shape.ErrInvalidAxis)
	}
	n := a.shape[0]
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: index %d out of range for extent %d", shape.ErrInvalidAxis, i, n)
	}
	return a.view(a.shape[1:].Clone(), a.strides[1:].Clone(), a.offset+i*a.strides[0]), nil
}

// Transpose returns a zero-copy view with permuted axes. An empty
// permutation reverses them.
func (a *Array) Transpose(perm ...int) (*Array, error) {
	ns, nst, err := shape.Transpose(a.shape, a.strides, perm)
	if err != nil {
		return nil, err
	}
	return a.view(ns, nst, a.offset), nil
}

// T returns the full axis reversal of a.
func (a *Array) T() *Array {
	v, _ := a.Transpose()
	return v
}

// Squeeze returns a zero-copy view with unit axes removed. With no axes
// named every unit axis is dropped.
func (a *Array) Squeeze(axes ...int) (*Array, error) {
	ns, nst, err := shape.Squeeze(a.shape, a.strides, axes)
	if err != nil {
		return nil, err
	}
	return a.view(ns, nst, a.offset), nil
}

// ViewAs reinterprets the underlying bytes as another element type,
// adjusting the trailing axis extent. The same device bytes back both
// arrays; no data is converted.
func (a *Array) ViewAs(dt dtype.DType) (*Array, error) {
	ns, nst, off, err := shape.Reinterpret(a.shape, a.strides, a.offset, a.dtype.Size(), dt.Size())
	if err != nil {
		return nil, err
	}
	v := a.view(ns, nst, off)
	v.dtype = dt
	return v, nil
}

// Concatenate joins arrays of identical dtype along the given axis. Every
// other extent must match. The result is a fresh contiguous array; its
// pending set holds one copy event per input.
func Concatenate(axis int, arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", shape.ErrInvalidShape)
	}
	first := arrays[0]
	rank := len(first.shape)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return nil, fmt.Errorf("%w: axis %d out of range for rank %d", shape.ErrInvalidAxis, axis, rank)
	}
	total := 0
	for _, arr := range arrays {
		if arr.ctx != first.ctx {
			return nil, fmt.Errorf("arrays belong to different contexts")
		}
		if arr.dtype != first.dtype {
			return nil, fmt.Errorf("%w: dtype %s vs %s", dtype.ErrNoCommonType, arr.dtype, first.dtype)
		}
		if len(arr.shape) != rank {
			return nil, fmt.Errorf("%w: rank %d vs %d", shape.ErrIncompatibleShapes, len(arr.shape), rank)
		}
		for i, dim := range arr.shape {
			if i != axis && dim != first.shape[i] {
				return nil, fmt.Errorf("%w: extent %d vs %d at axis %d",
					shape.ErrIncompatibleShapes, dim, first.shape[i], i)
			}
		}
		total += arr.shape[axis]
	}
	dims := first.shape.Clone()
	dims[axis] = total
	out, err := Empty(first.ctx, dims, first.dtype)
	if err != nil {
		return nil, err
	}
	pos := 0
	for _, arr := range arrays {
		sel := make([]shape.Range, axis+1)
		for i := range sel {
			sel[i] = shape.All
		}
		sel[axis] = shape.Span(pos, pos+arr.shape[axis])
		dst, err := out.Slice(sel...)
		if err != nil {
			out.Release()
			return nil, err
		}
		err = dst.Assign(arr)
		dst.Release()
		if err != nil {
			out.Release()
			return nil, err
		}
		pos += arr.shape[axis]
	}
	return out, nil
}

// Diff returns the first difference a[1:] - a[:n-1] of a 1-D array.
func (a *Array) Diff() (*Array, error) {
	if len(a.shape) != 1 {
		return nil, fmt.Errorf("%w: diff needs a 1-D array, got rank %d", shape.ErrInvalidAxis, len(a.shape))
	}
	n := a.shape[0]
	hi, err := a.Slice(shape.Span(1, n))
	if err != nil {
		return nil, err
	}
	defer hi.Release()
	lo, err := a.Slice(shape.Span(0, n-1))
	if err != nil {
		return nil, err
	}
	defer lo.Release()
	return hi.Sub(lo)
}
