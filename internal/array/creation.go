package array

import (
	"fmt"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/event"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Empty allocates an uninitialized array with row-major layout. No
// operation is enqueued; the pending-event set starts empty.
func Empty(ctx *Context, dims shape.Shape, dt dtype.DType) (*Array, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	s := dims.Clone()
	buf, err := ctx.pool.Allocate(s.Size() * dt.Size())
	if err != nil {
		return nil, err
	}
	return &Array{
		ctx:     ctx,
		shape:   s,
		strides: s.CStrides(),
		dtype:   dt,
		mem:     newMemory(ctx.pool, buf),
		events:  event.NewTracker(ctx.maxPending),
	}, nil
}

// Zeros allocates an array and fills it with zero.
func Zeros(ctx *Context, dims shape.Shape, dt dtype.DType) (*Array, error) {
	a, err := Empty(ctx, dims, dt)
	if err != nil {
		return nil, err
	}
	if err := a.Fill(0); err != nil {
		a.Release()
		return nil, err
	}
	return a, nil
}

// Arange creates a 1-D array holding 0, 1, ..., n-1.
func Arange(ctx *Context, n int, dt dtype.DType) (*Array, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", shape.ErrInvalidShape, n)
	}
	h := NewHost(shape.Shape{n}, dt)
	for i := 0; i < n; i++ {
		h.setComplex(i, complex(float64(i), 0))
	}
	return ToDevice(ctx, h)
}

// FromSlice copies a Go slice onto the device as a fresh contiguous array.
func FromSlice[T dtype.Element](ctx *Context, data []T, dims ...int) (*Array, error) {
	h, err := HostFromSlice(data, dims...)
	if err != nil {
		return nil, err
	}
	return ToDevice(ctx, h)
}

// ToDevice copies host-resident shaped, typed data into a freshly
// allocated device array, recording one completion event. The host layout,
// including non-C strides, is preserved.
func ToDevice(ctx *Context, h *HostArray) (*Array, error) {
	if err := h.Shape.Validate(); err != nil {
		return nil, err
	}
	st := h.Strides
	if st == nil {
		st = h.Shape.CStrides()
	}
	buf, err := ctx.pool.Allocate(len(h.Data))
	if err != nil {
		return nil, err
	}
	a := &Array{
		ctx:     ctx,
		shape:   h.Shape.Clone(),
		strides: st.Clone(),
		dtype:   h.DType,
		mem:     newMemory(ctx.pool, buf),
		events:  event.NewTracker(ctx.maxPending),
	}
	ev, err := ctx.queue.Write(buf, 0, h.Data, nil)
	if err != nil {
		a.Release()
		return nil, err
	}
	a.events.Replace(ev)
	return a, nil
}
