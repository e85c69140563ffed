// Package array implements the device array engine: a strided, typed,
// N-dimensional array backed by device memory, with elementwise arithmetic
// compiled on demand, pooled allocation, and asynchronous completion
// tracking. All device interaction goes through the collaborator
// interfaces in the device package.
package array

import (
	"github.com/rs/zerolog"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/kernel"
	"github.com/vortex-ml/vortex/internal/pool"
)

// Context scopes the mutable machinery every array operation touches: the
// command queue, the kernel cache, and the memory pool. There is no
// process-global state; independent contexts never share kernels or
// buffers.
type Context struct {
	driver     device.Driver
	queue      device.Queue
	pool       *pool.Pool
	kernels    *kernel.Cache
	log        zerolog.Logger
	maxPending int
}

// Option configures a Context.
type Option func(*Context)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Context) { c.log = log }
}

// WithMaxPending overrides the per-array pending-event bound.
func WithMaxPending(n int) Option {
	return func(c *Context) { c.maxPending = n }
}

// NewContext creates a context over a device driver.
func NewContext(driver device.Driver, opts ...Option) *Context {
	c := &Context{
		driver: driver,
		queue:  driver.Queue(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pool = pool.New(driver.Allocator(), pool.WithLogger(c.log))
	c.kernels = kernel.NewCache(driver.Compiler(), kernel.WithLogger(c.log))
	return c
}

// Finish blocks until every operation enqueued through this context has
// completed.
func (c *Context) Finish() error {
	return c.queue.Finish()
}

// Close drains the queue and returns all idle pooled memory to the device.
// The driver itself stays open; it belongs to the caller.
func (c *Context) Close() error {
	err := c.queue.Finish()
	c.pool.Reset()
	return err
}

// Pool exposes the context's memory pool.
func (c *Context) Pool() *pool.Pool {
	return c.pool
}

// Kernels exposes the context's kernel cache.
func (c *Context) Kernels() *kernel.Cache {
	return c.kernels
}
