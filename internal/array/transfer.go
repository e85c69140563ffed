package array

import (
	"fmt"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Get transfers the array's elements to host memory. It waits out the
// pending set first, so the returned data reflects every enqueued
// operation. Contiguous arrays (row- or column-major) come back as one
// flat read preserving their stride order; strided views are read once as
// their reachable span and gathered into row-major order on the host.
func (a *Array) Get() (*HostArray, error) {
	if err := a.events.Wait(); err != nil {
		return nil, err
	}
	es := a.dtype.Size()
	if a.Size() == 0 {
		return &HostArray{Shape: a.shape.Clone(), DType: a.dtype}, nil
	}

	switch a.Contiguity() {
	case shape.Contiguous:
		h := NewHost(a.shape, a.dtype)
		if err := a.ctx.queue.Read(h.Data, a.mem.buf, a.offset*es, nil); err != nil {
			return nil, err
		}
		return h, nil
	case shape.FContiguous:
		h := NewHost(a.shape, a.dtype)
		h.Strides = a.strides.Clone()
		if err := a.ctx.queue.Read(h.Data, a.mem.buf, a.offset*es, nil); err != nil {
			return nil, err
		}
		return h, nil
	}

	// Strided view: one read of the reachable span, then a host-side gather.
	lo := a.offset
	for i, dim := range a.shape {
		if span := (dim - 1) * a.strides[i]; span < 0 {
			lo += span
		}
	}
	hi := shape.MaxExtent(a.shape, a.strides, a.offset)
	span := &HostArray{
		Shape: shape.Shape{hi - lo},
		DType: a.dtype,
		Data:  make([]byte, (hi-lo)*es),
	}
	if err := a.ctx.queue.Read(span.Data, a.mem.buf, lo*es, nil); err != nil {
		return nil, err
	}

	out := NewHost(a.shape, a.dtype)
	idx := make([]int, len(a.shape))
	for i := 0; i < a.Size(); i++ {
		elem := a.offset - lo
		rem := i
		for d := len(a.shape) - 1; d >= 0; d-- {
			idx[d] = rem % a.shape[d]
			rem /= a.shape[d]
			elem += idx[d] * a.strides[d]
		}
		out.setComplex(i, span.getComplex(elem))
	}
	return out, nil
}

// Any reports whether any element is nonzero. NaN counts as nonzero. The
// scan runs on the host after a transfer.
func (a *Array) Any() (bool, error) {
	h, err := a.Get()
	if err != nil {
		return false, err
	}
	for i := 0; i < h.Size(); i++ {
		if h.getComplex(i) != 0 {
			return true, nil
		}
	}
	return false, nil
}

// All reports whether every element is nonzero.
func (a *Array) All() (bool, error) {
	h, err := a.Get()
	if err != nil {
		return false, err
	}
	for i := 0; i < h.Size(); i++ {
		if h.getComplex(i) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Set overwrites the array's elements from host data of the same shape and
// dtype. The array must be contiguous; strided views take Assign instead.
func (a *Array) Set(h *HostArray) error {
	if !a.shape.Equal(h.Shape) {
		return fmt.Errorf("%w: %v vs %v", shape.ErrIncompatibleShapes, a.shape, h.Shape)
	}
	if a.dtype != h.DType {
		return fmt.Errorf("%w: %s vs %s", dtype.ErrNoCommonType, a.dtype, h.DType)
	}
	cls := a.Contiguity()
	if cls != shape.Contiguous && cls != shape.FContiguous {
		return fmt.Errorf("%w: cannot set a strided view from host data", shape.ErrInvalidShape)
	}
	src := h
	if cls == shape.Contiguous {
		src = h.Contiguous()
	} else if !h.strides().Equal(a.strides) {
		// Column-major destination: the flat write lands bytes in the
		// device layout, so host data in any other order is gathered
		// into that layout first.
		src = &HostArray{
			Shape:   h.Shape.Clone(),
			Strides: a.strides.Clone(),
			DType:   h.DType,
			Data:    make([]byte, len(h.Data)),
		}
		hst := h.strides()
		idx := make([]int, len(h.Shape))
		for i := 0; i < h.Size(); i++ {
			from, to := 0, 0
			rem := i
			for d := len(h.Shape) - 1; d >= 0; d-- {
				idx[d] = rem % h.Shape[d]
				rem /= h.Shape[d]
				from += idx[d] * hst[d]
				to += idx[d] * a.strides[d]
			}
			src.setComplex(to, h.getComplex(from))
		}
	}
	ev, err := a.ctx.queue.Write(a.mem.buf, a.offset*a.dtype.Size(), src.Data, a.events.Snapshot())
	if err != nil {
		return err
	}
	return a.events.Add(ev)
}
