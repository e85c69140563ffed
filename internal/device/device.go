// Package device defines the contracts between the array engine and its
// external collaborators: the command queue, the raw allocator, and the
// kernel compiler. Drivers (the in-process simulator, WebGPU) implement
// these interfaces; the engine never talks to hardware directly.
package device

import (
	"strings"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// Buffer is a block of device memory. Buffers are handed out by an
// Allocator and addressed by byte offsets in kernel dispatches.
type Buffer interface {
	// Size returns the allocated extent in bytes.
	Size() int
}

// Event is a completion handle for one enqueued operation.
type Event interface {
	// Done reports completion without blocking.
	Done() bool
	// Wait blocks until the operation completes and returns any
	// device-side fault it produced.
	Wait() error
}

// Kernel is an opaque compiled compute kernel. Queues type-assert it to
// their driver's concrete kernel type.
type Kernel interface {
	Name() string
}

// Allocator is the underlying device allocator. The memory pool sits on
// top of it; engine code should not call it directly.
type Allocator interface {
	Alloc(size int) (Buffer, error)
	Free(Buffer) error
}

// Compiler turns synthesized kernel source into an invocable kernel.
// The spec describes the operation to a driver that executes descriptors
// rather than source.
type Compiler interface {
	Compile(source string, spec KernelSpec) (Kernel, error)
}

// Queue is a FIFO device command queue. Enqueue never blocks the host; the
// returned event completes when the device finishes the operation after all
// events in the wait list.
type Queue interface {
	Enqueue(k Kernel, d Dispatch, wait []Event) (Event, error)
	// Write copies host bytes into a buffer region.
	Write(dst Buffer, dstOff int, src []byte, wait []Event) (Event, error)
	// Read copies a buffer region back to host bytes, blocking until the
	// wait list and the copy itself complete.
	Read(dst []byte, src Buffer, srcOff int, wait []Event) error
	// Finish blocks until every previously enqueued operation completes.
	Finish() error
}

// Driver bundles a device's collaborators.
type Driver interface {
	Name() string
	Queue() Queue
	Allocator() Allocator
	Compiler() Compiler
	Close() error
}

// Operand describes one kernel operand for compilation purposes.
type Operand struct {
	DType  dtype.DType
	Class  shape.Contiguity
	Scalar bool
}

// KernelSpec is the compile-time description of an elementwise kernel:
// the operator, the operand types and addressing classes, and the result
// type. It is the immutable cache key for compiled kernels.
type KernelSpec struct {
	Op       dtype.Op
	Operands []Operand
	Result   dtype.DType
}

// Key renders the spec as a canonical signature string, e.g.
// "mul|float32:c,float32:v|float32".
func (ks KernelSpec) Key() string {
	var b strings.Builder
	b.WriteString(ks.Op.String())
	b.WriteByte('|')
	for i, op := range ks.Operands {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(op.DType.String())
		b.WriteByte(':')
		if op.Scalar {
			b.WriteString("v")
		} else {
			b.WriteString(op.Class.String())
		}
	}
	b.WriteByte('|')
	b.WriteString(ks.Result.String())
	return b.String()
}

// Arg is one dispatch-time operand: either a scalar value or a buffer with
// an element offset and optional element strides. Nil strides mean flat
// addressing over the output index.
type Arg struct {
	Buf     Buffer
	Offset  int
	Strides []int
	Scalar  complex128
}

// IsScalar reports whether the operand is a bare value rather than a buffer.
func (a Arg) IsScalar() bool {
	return a.Buf == nil
}

// BufferArg builds a buffer operand.
func BufferArg(buf Buffer, offset int, strides []int) Arg {
	return Arg{Buf: buf, Offset: offset, Strides: strides}
}

// ScalarArg builds a scalar operand. Every numeric scalar travels as a
// complex128 and is cast inside the kernel.
func ScalarArg(v complex128) Arg {
	return Arg{Scalar: v}
}

// Dispatch carries the runtime geometry of one kernel invocation. N is the
// output element count; Shape is the output shape used to reconstruct
// multi-indices for strided operands.
type Dispatch struct {
	N     int
	Shape []int
	Out   Arg
	In    []Arg
}
