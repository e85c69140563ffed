package dtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotePairs(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		a, b DType
		want DType
	}{
		{"same float", OpAdd, Float32, Float32, Float32},
		{"float widens", OpAdd, Float32, Float64, Float64},
		{"real plus complex", OpAdd, Float32, Complex64, Complex64},
		{"real widens complex component", OpAdd, Float64, Complex64, Complex128},
		{"complex widens complex", OpMul, Complex64, Complex128, Complex128},
		{"int plus float", OpAdd, Int32, Float32, Float32},
		{"signed widens", OpAdd, Int8, Int32, Int32},
		{"unsigned widens", OpAdd, Uint8, Uint16, Uint16},
		{"signed absorbs smaller unsigned", OpAdd, Int16, Uint8, Int16},
		{"unsigned forces wider signed", OpAdd, Int8, Uint8, Int16},
		{"uint32 with int32", OpAdd, Int32, Uint32, Int64},
		{"int div promotes to float", OpDiv, Int32, Int32, Float64},
		{"int pow promotes to float", OpPow, Int64, Int16, Float64},
		{"float div keeps float", OpDiv, Float32, Float32, Float32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Promote(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Promotion is symmetric.
			rev, err := Promote(tt.op, tt.b, tt.a)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rev)
		})
	}
}

func TestPromoteUint64WithSigned(t *testing.T) {
	_, err := Promote(OpAdd, Uint64, Int32)
	assert.ErrorIs(t, err, ErrNoCommonType)
}

func TestPromoteComparisonsYieldInt8(t *testing.T) {
	for _, op := range []Op{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe} {
		got, err := Promote(op, Float32, Float64)
		require.NoError(t, err)
		assert.Equal(t, Int8, got, op.String())
	}
}

func TestPromoteScalar(t *testing.T) {
	// A scalar never raises the array's precision.
	assert.Equal(t, Float32, PromoteScalar(OpAdd, Float32, false))
	assert.Equal(t, Int16, PromoteScalar(OpMul, Int16, false))

	// A complex scalar raises the kind but keeps component precision.
	assert.Equal(t, Complex64, PromoteScalar(OpMul, Float32, true))
	assert.Equal(t, Complex128, PromoteScalar(OpMul, Float64, true))

	// Integer division and pow by any scalar go through the default float.
	assert.Equal(t, Float64, PromoteScalar(OpDiv, Int32, false))
	assert.Equal(t, Float64, PromoteScalar(OpPow, Uint8, false))

	// Comparisons always come back as int8 flags.
	assert.Equal(t, Int8, PromoteScalar(OpLt, Float64, false))
}

func TestComponentAndComplex(t *testing.T) {
	assert.Equal(t, Float32, Complex64.Component())
	assert.Equal(t, Float64, Complex128.Component())
	assert.Equal(t, Float32, Float32.Component())
	assert.Equal(t, Complex64, Float32.ToComplex())
	assert.Equal(t, Complex128, Float64.ToComplex())
	assert.Equal(t, Complex128, Int32.ToComplex())
}
