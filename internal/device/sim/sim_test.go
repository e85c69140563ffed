package sim

import (
	"math/cmplx"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
)

func TestAllocatorLimit(t *testing.T) {
	d := New(WithMemoryLimit(100))
	defer d.Close()

	buf, err := d.Allocator().Alloc(60)
	require.NoError(t, err)
	assert.Equal(t, 60, buf.Size())

	_, err = d.Allocator().Alloc(50)
	assert.ErrorIs(t, err, ErrDeviceMemory)

	require.NoError(t, d.Allocator().Free(buf))
	_, err = d.Allocator().Alloc(100)
	assert.NoError(t, err)
}

func TestWriteRead(t *testing.T) {
	d := New()
	defer d.Close()
	q := d.Queue()

	buf, err := d.Allocator().Alloc(8)
	require.NoError(t, err)

	ev, err := q.Write(buf, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8}, nil)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())

	got := make([]byte, 4)
	require.NoError(t, q.Read(got, buf, 2, nil))
	assert.Equal(t, []byte{3, 4, 5, 6}, got)
}

func TestWriteOutOfBoundsFaultsOnEvent(t *testing.T) {
	d := New()
	defer d.Close()

	buf, err := d.Allocator().Alloc(4)
	require.NoError(t, err)

	ev, err := d.Queue().Write(buf, 2, []byte{1, 2, 3, 4}, nil)
	require.NoError(t, err) // enqueue itself never blocks or fails
	assert.Error(t, ev.Wait())
}

func TestQueueIsAsynchronousAndOrdered(t *testing.T) {
	d := New()
	defer d.Close()
	q := d.queue

	var order atomic.Int32
	release := make(chan struct{})

	first, err := q.submit(func() error {
		<-release
		order.CompareAndSwap(0, 1)
		return nil
	}, nil)
	require.NoError(t, err)

	second, err := q.submit(func() error {
		order.CompareAndSwap(1, 2)
		return nil
	}, nil)
	require.NoError(t, err)

	// Neither job ran yet: the host was never blocked.
	assert.False(t, first.Done())
	assert.False(t, second.Done())

	close(release)
	require.NoError(t, second.Wait())
	assert.True(t, first.Done())
	assert.Equal(t, int32(2), order.Load())
}

func TestWaitListDefersExecution(t *testing.T) {
	d := New()
	defer d.Close()
	q := d.queue

	gate := newEvent()
	ran := make(chan struct{})
	_, err := q.submit(func() error {
		close(ran)
		return nil
	}, []device.Event{gate})
	require.NoError(t, err)

	select {
	case <-ran:
		t.Fatal("job ran before its dependency completed")
	case <-time.After(20 * time.Millisecond):
	}

	gate.complete(nil)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job never ran after dependency completed")
	}
}

func TestCompileCountsAndValidatesArity(t *testing.T) {
	d := New()
	defer d.Close()

	spec := device.KernelSpec{
		Op:       dtype.OpAdd,
		Operands: []device.Operand{{DType: dtype.Float32}, {DType: dtype.Float32}},
		Result:   dtype.Float32,
	}
	_, err := d.Compiler().Compile("", spec)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Compiles())

	bad := device.KernelSpec{Op: dtype.OpAdd, Operands: []device.Operand{{DType: dtype.Float32}}, Result: dtype.Float32}
	_, err = d.Compiler().Compile("", bad)
	assert.Error(t, err)
	assert.Equal(t, 1, d.Compiles())
}

func TestEnqueueExecutesElementwise(t *testing.T) {
	d := New()
	defer d.Close()
	q := d.Queue()

	spec := device.KernelSpec{
		Op:       dtype.OpMul,
		Operands: []device.Operand{{DType: dtype.Float32}, {DType: dtype.Float32, Scalar: true}},
		Result:   dtype.Float32,
	}
	k, err := d.Compiler().Compile("", spec)
	require.NoError(t, err)

	in, err := d.Allocator().Alloc(16)
	require.NoError(t, err)
	out, err := d.Allocator().Alloc(16)
	require.NoError(t, err)

	src := make([]byte, 16)
	for i, v := range []float32{1, 2, 3, 4} {
		storeComplex(src, dtype.Float32, i, complex(float64(v), 0))
	}
	wev, err := q.Write(in, 0, src, nil)
	require.NoError(t, err)

	disp := device.Dispatch{
		N:     4,
		Shape: []int{4},
		Out:   device.BufferArg(out, 0, nil),
		In:    []device.Arg{device.BufferArg(in, 0, nil), device.ScalarArg(10)},
	}
	ev, err := q.Enqueue(k, disp, []device.Event{wev})
	require.NoError(t, err)
	require.NoError(t, ev.Wait())

	got := make([]byte, 16)
	require.NoError(t, q.Read(got, out, 0, nil))
	for i, want := range []float64{10, 20, 30, 40} {
		assert.Equal(t, want, real(loadComplex(got, dtype.Float32, i)))
	}
}

func TestPowIntegerExponent(t *testing.T) {
	// a**(-1) must be exactly the reciprocal of a.
	a := complex(1.7, -0.3)
	assert.Equal(t, 1/a, pow(a, -1))

	assert.Equal(t, complex128(8), pow(2, 3))
	assert.Equal(t, complex128(1), pow(2, 0))
	assert.InDelta(t, 0.125, real(pow(2, -3)), 1e-15)

	// Non-integer exponents fall back to the transcendental form.
	want := cmplx.Pow(2, 0.5)
	assert.Equal(t, want, pow(2, 0.5))
}

func TestCloseDrainsQueue(t *testing.T) {
	d := New()
	buf, err := d.Allocator().Alloc(4)
	require.NoError(t, err)

	ev, err := d.Queue().Write(buf, 0, []byte{9, 9, 9, 9}, nil)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.True(t, ev.Done())

	_, err = d.queue.submit(func() error { return nil }, nil)
	assert.Error(t, err)
}
