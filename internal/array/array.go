package array

import (
	"fmt"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/event"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Array is an N-dimensional, strided, typed array backed by device memory.
// Views (reshape, slice, transpose, squeeze) share the underlying buffer
// and its pending-event tracker; the buffer lives until the last holder
// releases it, then returns to the pool.
type Array struct {
	ctx     *Context
	shape   shape.Shape
	strides shape.Strides
	dtype   dtype.DType
	offset  int // element offset into the buffer
	mem     *memory
	events  *event.Tracker

	// base points at the array this view was derived from. Diagnostic
	// only: buffer lifetime is governed by the reference count alone.
	base *Array
}

// Shape returns the array's extents.
func (a *Array) Shape() shape.Shape { return a.shape }

// Strides returns the array's element strides.
func (a *Array) Strides() shape.Strides { return a.strides }

// DType returns the element type.
func (a *Array) DType() dtype.DType { return a.dtype }

// Size returns the number of elements.
func (a *Array) Size() int { return a.shape.Size() }

// Len returns the extent of the leading axis.
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// Context returns the owning context.
func (a *Array) Context() *Context { return a.ctx }

// Base returns the array this view was derived from, or nil.
func (a *Array) Base() *Array { return a.base }

// Contiguity returns the array's current layout class.
func (a *Array) Contiguity() shape.Contiguity {
	return shape.Classify(a.shape, a.strides)
}

// CContiguous reports whether the array is row-major contiguous.
func (a *Array) CContiguous() bool {
	return a.Contiguity() == shape.Contiguous
}

// Pending reports the number of outstanding completion handles.
func (a *Array) Pending() int { return a.events.Len() }

// Finish blocks until every pending operation on this array completes and
// clears the pending set. Device-side faults from previously enqueued
// kernels surface here.
func (a *Array) Finish() error {
	return a.events.Wait()
}

// Release drops this holder's reference to the buffer. The buffer returns
// to the pool once the last view releases it.
func (a *Array) Release() {
	if a.mem != nil {
		a.mem.release()
		a.mem = nil
	}
}

// String describes the array without transferring data.
func (a *Array) String() string {
	return fmt.Sprintf("Array[%s]%v on %s", a.dtype, a.shape, a.ctx.driver.Name())
}

// view derives a new array sharing this array's buffer and event tracker.
func (a *Array) view(s shape.Shape, st shape.Strides, offset int) *Array {
	a.mem.retain()
	return &Array{
		ctx:     a.ctx,
		shape:   s,
		strides: st,
		dtype:   a.dtype,
		offset:  offset,
		mem:     a.mem,
		events:  a.events,
		base:    a,
	}
}

// arg builds this array's dispatch operand. A C-contiguous operand whose
// shape equals the output shape addresses flat; everything else carries
// broadcast-expanded strides.
func (a *Array) arg(out shape.Shape) (device.Arg, shape.Contiguity, error) {
	if a.shape.Equal(out) && a.CContiguous() {
		return device.BufferArg(a.mem.buf, a.offset, nil), shape.Contiguous, nil
	}
	st, err := shape.BroadcastStrides(a.shape, a.strides, out)
	if err != nil {
		return device.Arg{}, 0, err
	}
	cls := a.Contiguity()
	if cls == shape.Contiguous {
		cls = shape.Strided // broadcast layout, no flat addressing
	}
	return device.BufferArg(a.mem.buf, a.offset, st), cls, nil
}

// writeArg builds this array's dispatch operand as a write target. A
// broadcast view (stride 0 on an axis with extent > 1) is read-only and is
// rejected.
func (a *Array) writeArg() (device.Arg, error) {
	for i, st := range a.strides {
		if st == 0 && a.shape[i] > 1 {
			return device.Arg{}, fmt.Errorf("%w: broadcast view cannot be a write target", shape.ErrInvalidShape)
		}
	}
	if a.CContiguous() {
		return device.BufferArg(a.mem.buf, a.offset, nil), nil
	}
	return device.BufferArg(a.mem.buf, a.offset, []int(a.strides)), nil
}
