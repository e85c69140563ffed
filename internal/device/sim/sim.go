// Package sim implements an in-process reference driver for the array
// engine: host-memory buffers, a FIFO command queue served by a worker
// goroutine, and an interpreter that executes compiled kernel descriptors.
// It exists so the engine's full asynchronous contract can run and be
// tested without a physical device.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vortex-ml/vortex/internal/device"
)

// ErrDeviceMemory is the driver-level out-of-memory failure. The memory
// pool compacts and retries once before giving up on it.
var ErrDeviceMemory = errors.New("sim: device memory exhausted")

// Driver is a simulated compute device.
type Driver struct {
	alloc    *allocator
	queue    *queue
	compiler *compiler
}

// Option configures the simulated device.
type Option func(*Driver)

// WithMemoryLimit caps total allocated bytes, after which Alloc fails with
// ErrDeviceMemory. Zero means unlimited.
func WithMemoryLimit(bytes int) Option {
	return func(d *Driver) {
		d.alloc.limit = bytes
	}
}

// New creates a simulated device and starts its queue worker.
func New(opts ...Option) *Driver {
	d := &Driver{
		alloc:    &allocator{},
		compiler: &compiler{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = newQueue()
	return d
}

// Name identifies the driver.
func (d *Driver) Name() string { return "sim" }

// Queue returns the device's single FIFO command queue.
func (d *Driver) Queue() device.Queue { return d.queue }

// Allocator returns the underlying device allocator.
func (d *Driver) Allocator() device.Allocator { return d.alloc }

// Compiler returns the kernel compiler.
func (d *Driver) Compiler() device.Compiler { return d.compiler }

// Compiles returns the number of kernel compilations performed. The kernel
// cache must keep this at one per distinct signature.
func (d *Driver) Compiles() int { return int(d.compiler.compiles.Load()) }

// Close drains the queue and stops the worker.
func (d *Driver) Close() error {
	return d.queue.close()
}

// allocator hands out host-backed buffers, optionally capped.
type allocator struct {
	mu    sync.Mutex
	limit int
	used  int
}

type buffer struct {
	data  []byte
	owner *allocator
}

func (b *buffer) Size() int { return len(b.data) }

func (a *allocator) Alloc(size int) (device.Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("sim: negative allocation size %d", size)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limit > 0 && a.used+size > a.limit {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrDeviceMemory, size, a.used, a.limit)
	}
	a.used += size
	return &buffer{data: make([]byte, size), owner: a}, nil
}

func (a *allocator) Free(b device.Buffer) error {
	sb, ok := b.(*buffer)
	if !ok || sb.owner != a {
		return fmt.Errorf("sim: foreign buffer")
	}
	a.mu.Lock()
	a.used -= len(sb.data)
	a.mu.Unlock()
	sb.data = nil
	return nil
}

// compiler builds interpreter kernels from kernel descriptors. The source
// text is retained for diagnostics only.
type compiler struct {
	compiles atomic.Int64
}

type kernel struct {
	spec   device.KernelSpec
	source string
}

func (k *kernel) Name() string { return k.spec.Key() }

func (c *compiler) Compile(source string, spec device.KernelSpec) (device.Kernel, error) {
	if len(spec.Operands) != spec.Op.Arity() {
		return nil, fmt.Errorf("sim: %s expects %d operands, got %d",
			spec.Op, spec.Op.Arity(), len(spec.Operands))
	}
	c.compiles.Add(1)
	return &kernel{spec: spec, source: source}, nil
}

// event is a completion handle backed by a channel.
type event struct {
	done chan struct{}
	err  error
}

func newEvent() *event {
	return &event{done: make(chan struct{})}
}

func (e *event) Done() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *event) Wait() error {
	<-e.done
	return e.err
}

func (e *event) complete(err error) {
	e.err = err
	close(e.done)
}

// job is one queued command.
type job struct {
	run  func() error
	wait []device.Event
	ev   *event
}

// queue executes jobs in submission order on a single worker goroutine,
// waiting out each job's dependency list first. Relative to the host it is
// fully asynchronous.
type queue struct {
	mu     sync.Mutex
	jobs   chan job
	closed bool
	wg     sync.WaitGroup
}

func newQueue() *queue {
	q := &queue{jobs: make(chan job, 1024)}
	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		err := waitAll(j.wait)
		if err == nil {
			err = j.run()
		}
		j.ev.complete(err)
	}
}

func waitAll(events []device.Event) error {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if err := ev.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (q *queue) submit(run func() error, wait []device.Event) (*event, error) {
	ev := newEvent()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, errors.New("sim: queue closed")
	}
	q.jobs <- job{run: run, wait: wait, ev: ev}
	return ev, nil
}

func (q *queue) Enqueue(k device.Kernel, d device.Dispatch, wait []device.Event) (device.Event, error) {
	sk, ok := k.(*kernel)
	if !ok {
		return nil, fmt.Errorf("sim: kernel %q compiled by a different driver", k.Name())
	}
	return q.submit(func() error { return execute(sk.spec, d) }, wait)
}

func (q *queue) Write(dst device.Buffer, dstOff int, src []byte, wait []device.Event) (device.Event, error) {
	b, ok := dst.(*buffer)
	if !ok {
		return nil, fmt.Errorf("sim: foreign destination buffer")
	}
	return q.submit(func() error {
		if dstOff+len(src) > len(b.data) {
			return fmt.Errorf("sim: write of %d bytes at %d exceeds buffer of %d", len(src), dstOff, len(b.data))
		}
		copy(b.data[dstOff:], src)
		return nil
	}, wait)
}

func (q *queue) Read(dst []byte, src device.Buffer, srcOff int, wait []device.Event) error {
	b, ok := src.(*buffer)
	if !ok {
		return fmt.Errorf("sim: foreign source buffer")
	}
	ev, err := q.submit(func() error {
		if srcOff+len(dst) > len(b.data) {
			return fmt.Errorf("sim: read of %d bytes at %d exceeds buffer of %d", len(dst), srcOff, len(b.data))
		}
		copy(dst, b.data[srcOff:])
		return nil
	}, wait)
	if err != nil {
		return err
	}
	return ev.Wait()
}

func (q *queue) Finish() error {
	ev, err := q.submit(func() error { return nil }, nil)
	if err != nil {
		return err
	}
	return ev.Wait()
}

func (q *queue) close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
	return nil
}
