package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeAndStrides(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.Size())
	assert.Equal(t, Strides{12, 4, 1}, s.CStrides())
	assert.Equal(t, Strides{1, 2, 6}, s.FStrides())

	assert.Equal(t, 1, Shape{}.Size())
	assert.Equal(t, 0, Shape{3, 0, 2}.Size())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.NoError(t, Shape{0}.Validate())
	assert.ErrorIs(t, Shape{2, -1}.Validate(), ErrInvalidShape)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		s    Shape
		st   Strides
		want Contiguity
	}{
		{"c order", Shape{2, 3}, Strides{3, 1}, Contiguous},
		{"f order", Shape{2, 3}, Strides{1, 2}, FContiguous},
		{"1d is both, classified c", Shape{5}, Strides{1}, Contiguous},
		{"sliced", Shape{2, 3}, Strides{6, 1}, Strided},
		{"stepped", Shape{5}, Strides{2}, Strided},
		{"unit axis ignored", Shape{1, 3}, Strides{99, 1}, Contiguous},
		{"empty", Shape{0, 3}, Strides{3, 1}, Contiguous},
		{"rank 0", Shape{}, Strides{}, Contiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.s, tt.st))
		})
	}
}

func TestBroadcast(t *testing.T) {
	got, err := Broadcast(Shape{3, 1}, Shape{1, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 4}, got)

	got, err = Broadcast(Shape{2, 3, 4}, Shape{4})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 4}, got)

	got, err = Broadcast(Shape{5}, Shape{5})
	require.NoError(t, err)
	assert.Equal(t, Shape{5}, got)

	_, err = Broadcast(Shape{3, 4}, Shape{5})
	assert.ErrorIs(t, err, ErrIncompatibleShapes)

	_, err = Broadcast(Shape{2}, Shape{3})
	assert.ErrorIs(t, err, ErrIncompatibleShapes)
}

func TestBroadcastStrides(t *testing.T) {
	// A (3,1) operand against a (3,4) result broadcasts its last axis with
	// stride 0.
	st, err := BroadcastStrides(Shape{3, 1}, Strides{1, 1}, Shape{3, 4})
	require.NoError(t, err)
	assert.Equal(t, Strides{1, 0}, st)

	// A missing leading axis also gets stride 0.
	st, err = BroadcastStrides(Shape{4}, Strides{1}, Shape{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Strides{0, 0, 1}, st)

	_, err = BroadcastStrides(Shape{3}, Strides{1}, Shape{2, 4})
	assert.ErrorIs(t, err, ErrIncompatibleShapes)
}
