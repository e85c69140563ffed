package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReshape(t *testing.T) {
	got, err := ResolveReshape(24, Shape{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 4}, got)

	got, err = ResolveReshape(24, Shape{2, Infer})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 12}, got)

	got, err = ResolveReshape(24, Shape{Infer})
	require.NoError(t, err)
	assert.Equal(t, Shape{24}, got)

	_, err = ResolveReshape(24, Shape{Infer, Infer, 6})
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = ResolveReshape(24, Shape{5, Infer})
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = ResolveReshape(24, Shape{2, 5})
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestSliceBasic(t *testing.T) {
	s := Shape{6, 4}
	st := s.CStrides()

	ns, nst, off, err := Slice(s, st, 0, []Range{Span(1, 4)})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, ns)
	assert.Equal(t, Strides{4, 1}, nst)
	assert.Equal(t, 4, off)

	// Step 2 doubles the stride.
	ns, nst, off, err = Slice(s, st, 0, []Range{{Start: 0, Stop: 6, Step: 2}, Span(1, 3)})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, ns)
	assert.Equal(t, Strides{8, 1}, nst)
	assert.Equal(t, 1, off)
}

func TestSliceNegativeAndClipped(t *testing.T) {
	s := Shape{10}
	st := s.CStrides()

	// Negative bounds count from the end.
	ns, _, off, err := Slice(s, st, 0, []Range{Span(-3, End)})
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, ns)
	assert.Equal(t, 7, off)

	// Out-of-range bounds clip to an empty axis.
	ns, _, _, err = Slice(s, st, 0, []Range{Span(15, 20)})
	require.NoError(t, err)
	assert.Equal(t, Shape{0}, ns)

	// Negative step reverses.
	ns, nst, off, err := Slice(s, st, 0, []Range{{Start: End, Stop: End, Step: -1}})
	require.NoError(t, err)
	assert.Equal(t, Shape{10}, ns)
	assert.Equal(t, Strides{-1}, nst)
	assert.Equal(t, 9, off)

	_, _, _, err = Slice(s, st, 0, []Range{All, All})
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestSqueeze(t *testing.T) {
	ns, nst, err := Squeeze(Shape{1, 3, 1, 4}, Strides{12, 4, 4, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, ns)
	assert.Equal(t, Strides{4, 1}, nst)

	ns, nst, err = Squeeze(Shape{1, 3, 1}, Strides{3, 1, 1}, []int{-1})
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 3}, ns)
	assert.Equal(t, Strides{3, 1}, nst)

	_, _, err = Squeeze(Shape{2, 3}, Strides{3, 1}, []int{0})
	assert.ErrorIs(t, err, ErrInvalidAxis)

	_, _, err = Squeeze(Shape{2, 3}, Strides{3, 1}, []int{5})
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestTranspose(t *testing.T) {
	ns, nst, err := Transpose(Shape{2, 3, 4}, Strides{12, 4, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 3, 2}, ns)
	assert.Equal(t, Strides{1, 4, 12}, nst)

	ns, nst, err = Transpose(Shape{2, 3, 4}, Strides{12, 4, 1}, []int{1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2, 4}, ns)
	assert.Equal(t, Strides{4, 12, 1}, nst)

	_, _, err = Transpose(Shape{2, 3}, Strides{3, 1}, []int{0, 0})
	assert.ErrorIs(t, err, ErrInvalidAxis)
}

func TestReinterpret(t *testing.T) {
	// 4 complex64 elements viewed as 8 float32.
	ns, nst, off, err := Reinterpret(Shape{4}, Strides{1}, 0, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, Shape{8}, ns)
	assert.Equal(t, Strides{1}, nst)
	assert.Equal(t, 0, off)

	// 8 float32 back to 4 complex64, with an aligned offset.
	ns, nst, off, err = Reinterpret(Shape{8}, Strides{1}, 2, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, Shape{4}, ns)
	assert.Equal(t, 1, off)
	assert.Equal(t, Strides{1}, nst)

	// Odd trailing extent cannot pair into wider elements.
	_, _, _, err = Reinterpret(Shape{5}, Strides{1}, 0, 4, 8)
	assert.ErrorIs(t, err, ErrViewSizeMismatch)

	// Matrix case: leading stride scales with the element size.
	ns, nst, _, err = Reinterpret(Shape{3, 4}, Strides{4, 1}, 0, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 8}, ns)
	assert.Equal(t, Strides{8, 1}, nst)

	// A non-contiguous trailing axis cannot be reinterpreted.
	_, _, _, err = Reinterpret(Shape{4}, Strides{2}, 0, 4, 8)
	assert.ErrorIs(t, err, ErrViewSizeMismatch)
}

func TestMaxExtent(t *testing.T) {
	assert.Equal(t, 24, MaxExtent(Shape{2, 3, 4}, Strides{12, 4, 1}, 0))
	assert.Equal(t, 27, MaxExtent(Shape{2, 3, 4}, Strides{12, 4, 1}, 3))
	// Negative strides reach down from the offset.
	assert.Equal(t, 10, MaxExtent(Shape{10}, Strides{-1}, 9))
	assert.Equal(t, 0, MaxExtent(Shape{0, 4}, Strides{4, 1}, 0))
}
