package array

import (
	"math/rand"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Filler generates element values for array initialization.
type Filler interface {
	// Fill populates h in place.
	Fill(h *HostArray)
}

// Uniform draws host-side samples from [lo, hi). Complex dtypes get
// independent real and imaginary parts; integer dtypes truncate. A nil Rng
// falls back to the shared global source.
type Uniform struct {
	Lo, Hi float64
	Rng    *rand.Rand
}

func (u Uniform) Fill(h *HostArray) {
	next := rand.Float64
	if u.Rng != nil {
		next = u.Rng.Float64
	}
	sample := func() float64 {
		return u.Lo + (u.Hi-u.Lo)*next()
	}
	complexKind := h.DType.IsComplex()
	for i := 0; i < h.Size(); i++ {
		if complexKind {
			h.setComplex(i, complex(sample(), sample()))
		} else {
			h.setComplex(i, complex(sample(), 0))
		}
	}
}

// Rand creates an array populated by the given filler. Generation happens
// on the host; one write event transfers the result.
func Rand(ctx *Context, dims shape.Shape, dt dtype.DType, f Filler) (*Array, error) {
	h := NewHost(dims, dt)
	f.Fill(h)
	return ToDevice(ctx, h)
}
