package array

import (
	"sync/atomic"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/pool"
)

// memory is a reference-counted device buffer. An array and every view of
// it share one memory; the last holder to release returns the block to the
// pool, not to the device.
type memory struct {
	buf  device.Buffer
	pool *pool.Pool
	refs atomic.Int32
}

func newMemory(p *pool.Pool, buf device.Buffer) *memory {
	m := &memory{buf: buf, pool: p}
	m.refs.Store(1)
	return m
}

// retain increments the reference count (views, clones).
func (m *memory) retain() {
	m.refs.Add(1)
}

// release decrements the reference count and returns the block to the pool
// when it reaches zero. In-flight operations need not be drained first:
// the in-order queue sequences them before anything a later holder
// enqueues.
func (m *memory) release() {
	if m.refs.Add(-1) == 0 {
		m.pool.Release(m.buf)
		m.buf = nil
	}
}
