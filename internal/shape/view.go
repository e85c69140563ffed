package shape

import (
	"fmt"
	"math"
)

// Infer is the reshape sentinel for a single to-be-inferred extent.
const Infer = -1

// ResolveReshape resolves a requested shape against the element count,
// filling in at most one Infer extent. More than one Infer extent, or a
// request whose size does not match, fails with ErrInvalidShape.
func ResolveReshape(size int, req Shape) (Shape, error) {
	out := req.Clone()
	inferAt := -1
	known := 1
	for i, dim := range out {
		switch {
		case dim == Infer:
			if inferAt >= 0 {
				return nil, fmt.Errorf("%w: more than one inferred extent in %v", ErrInvalidShape, req)
			}
			inferAt = i
		case dim < 0:
			return nil, fmt.Errorf("%w: negative extent %d", ErrInvalidShape, dim)
		default:
			known *= dim
		}
	}
	if inferAt >= 0 {
		if known == 0 || size%known != 0 {
			return nil, fmt.Errorf("%w: cannot infer extent for %v from %d elements", ErrInvalidShape, req, size)
		}
		out[inferAt] = size / known
		known *= out[inferAt]
	}
	if known != size {
		return nil, fmt.Errorf("%w: %v has %d elements, array has %d", ErrInvalidShape, req, known, size)
	}
	return out, nil
}

// End marks a Range bound left at its axis default.
const End = math.MaxInt

// All selects a whole axis.
var All = Range{Start: 0, Stop: End, Step: 1}

// Range selects part of one axis. A zero Step means 1. Negative bounds
// count from the end of the axis; out-of-range bounds are clipped, so an
// empty selection yields a zero-extent axis rather than an error.
type Range struct {
	Start, Stop, Step int
}

// Span selects [start, stop) with step 1.
func Span(start, stop int) Range {
	return Range{Start: start, Stop: stop, Step: 1}
}

// normalize resolves the range against an axis of extent n, returning the
// first selected index, the signed step, and the selected extent.
func (r Range) normalize(n int) (start, step, extent int) {
	step = r.Step
	if step == 0 {
		step = 1
	}
	start, stop := r.Start, r.Stop
	if step > 0 {
		if start == End {
			start = n
		} else if start < 0 {
			start += n
		}
		start = clamp(start, 0, n)
		if stop == End {
			stop = n
		} else if stop < 0 {
			stop += n
		}
		stop = clamp(stop, 0, n)
		extent = ceilDiv(stop-start, step)
	} else {
		if start == End {
			start = n - 1
		} else if start < 0 {
			start += n
		}
		start = clamp(start, -1, n-1)
		if stop == End {
			stop = -1
		} else if stop < 0 {
			stop += n
		}
		stop = clamp(stop, -1, n-1)
		extent = ceilDiv(start-stop, -step)
	}
	return start, step, max(extent, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Slice applies per-axis ranges to a layout and returns the view layout.
// It never copies: the new offset and strides address the same buffer.
// Fewer ranges than axes leave the trailing axes untouched.
func Slice(s Shape, st Strides, offset int, ranges []Range) (Shape, Strides, int, error) {
	if len(ranges) > len(s) {
		return nil, nil, 0, fmt.Errorf("%w: %d ranges for rank %d", ErrInvalidAxis, len(ranges), len(s))
	}
	ns := s.Clone()
	nst := st.Clone()
	for i, r := range ranges {
		start, step, extent := r.normalize(s[i])
		if extent > 0 {
			offset += start * st[i]
		}
		ns[i] = extent
		nst[i] = st[i] * step
	}
	return ns, nst, offset, nil
}

// Squeeze drops axes of extent 1. With no axes named, every unit axis is
// dropped; otherwise only the named axes, which must exist and have extent 1.
// The caller must reclassify contiguity: squeezing does not guarantee it.
func Squeeze(s Shape, st Strides, axes []int) (Shape, Strides, error) {
	drop := make([]bool, len(s))
	if len(axes) == 0 {
		for i, dim := range s {
			drop[i] = dim == 1
		}
	} else {
		for _, ax := range axes {
			if ax < 0 {
				ax += len(s)
			}
			if ax < 0 || ax >= len(s) {
				return nil, nil, fmt.Errorf("%w: axis %d out of range for rank %d", ErrInvalidAxis, ax, len(s))
			}
			if s[ax] != 1 {
				return nil, nil, fmt.Errorf("%w: axis %d has extent %d, expected 1", ErrInvalidAxis, ax, s[ax])
			}
			drop[ax] = true
		}
	}
	ns := make(Shape, 0, len(s))
	nst := make(Strides, 0, len(st))
	for i := range s {
		if !drop[i] {
			ns = append(ns, s[i])
			nst = append(nst, st[i])
		}
	}
	return ns, nst, nil
}

// Transpose permutes shape and strides. An empty permutation reverses all
// axes. The permutation must name every axis exactly once.
func Transpose(s Shape, st Strides, perm []int) (Shape, Strides, error) {
	if len(perm) == 0 {
		perm = make([]int, len(s))
		for i := range perm {
			perm[i] = len(s) - 1 - i
		}
	}
	if len(perm) != len(s) {
		return nil, nil, fmt.Errorf("%w: permutation %v for rank %d", ErrInvalidAxis, perm, len(s))
	}
	seen := make([]bool, len(s))
	ns := make(Shape, len(s))
	nst := make(Strides, len(st))
	for i, p := range perm {
		if p < 0 {
			p += len(s)
		}
		if p < 0 || p >= len(s) || seen[p] {
			return nil, nil, fmt.Errorf("%w: bad permutation %v", ErrInvalidAxis, perm)
		}
		seen[p] = true
		ns[i] = s[p]
		nst[i] = st[p]
	}
	return ns, nst, nil
}

// Reinterpret recomputes a layout for a change of element size. Only the
// trailing axis's extent changes; the array must be element-contiguous in
// its trailing axis, and every byte quantity involved must divide evenly
// into the new element size.
func Reinterpret(s Shape, st Strides, offset, oldSize, newSize int) (Shape, Strides, int, error) {
	if oldSize == newSize {
		return s.Clone(), st.Clone(), offset, nil
	}
	if len(s) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: cannot reinterpret a rank-0 array", ErrViewSizeMismatch)
	}
	last := len(s) - 1
	if st[last] != 1 {
		return nil, nil, 0, fmt.Errorf("%w: trailing axis is not contiguous", ErrViewSizeMismatch)
	}
	lastBytes := s[last] * oldSize
	if lastBytes%newSize != 0 {
		return nil, nil, 0, fmt.Errorf("%w: trailing extent %d of %d-byte elements does not fit %d-byte elements",
			ErrViewSizeMismatch, s[last], oldSize, newSize)
	}
	if (offset*oldSize)%newSize != 0 {
		return nil, nil, 0, fmt.Errorf("%w: offset is not aligned to the new element size", ErrViewSizeMismatch)
	}
	ns := s.Clone()
	nst := make(Strides, len(st))
	ns[last] = lastBytes / newSize
	nst[last] = 1
	for i := 0; i < last; i++ {
		b := st[i] * oldSize
		if b%newSize != 0 {
			return nil, nil, 0, fmt.Errorf("%w: stride at axis %d is not aligned to the new element size",
				ErrViewSizeMismatch, i)
		}
		nst[i] = b / newSize
	}
	return ns, nst, offset * oldSize / newSize, nil
}

// MaxExtent returns the highest element index reachable from offset plus one,
// i.e. the minimum buffer length (in elements) the layout requires.
func MaxExtent(s Shape, st Strides, offset int) int {
	if s.Size() == 0 {
		return offset
	}
	hi := offset
	for i, dim := range s {
		if span := (dim - 1) * st[i]; span > 0 {
			hi += span
		}
	}
	return hi + 1
}
