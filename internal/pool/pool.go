// Package pool provides a size-bucketed free list over the device
// allocator, amortizing allocation cost across array lifetimes. Released
// blocks stay resident until the pool is reset or closed.
package pool

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vortex-ml/vortex/internal/device"
)

// ErrOutOfMemory is returned when the device allocator fails and freeing
// the pool's own idle blocks did not help.
var ErrOutOfMemory = errors.New("out of memory")

// minBucket is the smallest size class in bytes. Requests below it round up.
const minBucket = 256

// Pool is a bucketed memory pool. Buckets are keyed by the power-of-two
// rounding of the request size, so requests of similar size reuse one
// bucket rather than needing an exact match. All bucket mutation happens
// under one mutex: a block leaves the free state atomically.
type Pool struct {
	mu    sync.Mutex
	alloc device.Allocator
	free  map[int][]device.Buffer
	log   zerolog.Logger

	held    int // bytes sitting idle in buckets
	inUse   int // bytes handed out
	hits    int
	misses  int
	retries int
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger attaches a logger for allocation diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// New creates a pool over the given device allocator.
func New(alloc device.Allocator, opts ...Option) *Pool {
	p := &Pool{
		alloc: alloc,
		free:  make(map[int][]device.Buffer),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// roundSize maps a request to its bucket: the next power of two, with a
// floor of minBucket.
func roundSize(size int) int {
	if size <= minBucket {
		return minBucket
	}
	return 1 << bits.Len(uint(size-1))
}

// Allocate returns a buffer of at least size bytes, reusing a pooled block
// when the bucket has one. On device exhaustion the pool frees every idle
// block it holds and retries exactly once before surfacing ErrOutOfMemory.
func (p *Pool) Allocate(size int) (device.Buffer, error) {
	bucket := roundSize(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if blocks := p.free[bucket]; len(blocks) > 0 {
		buf := blocks[len(blocks)-1]
		p.free[bucket] = blocks[:len(blocks)-1]
		p.held -= bucket
		p.inUse += bucket
		p.hits++
		poolHits.Inc()
		poolHeldBytes.Set(float64(p.held))
		return buf, nil
	}

	p.misses++
	poolMisses.Inc()
	buf, err := p.alloc.Alloc(bucket)
	if err != nil {
		p.retries++
		reclaimed := p.compactLocked()
		p.log.Debug().Int("bucket", bucket).Int("reclaimed", reclaimed).
			Msg("device allocation failed, retrying after pool compaction")
		buf, err = p.alloc.Alloc(bucket)
		if err != nil {
			return nil, fmt.Errorf("%w: %d bytes: %v", ErrOutOfMemory, bucket, err)
		}
	}
	p.inUse += bucket
	return buf, nil
}

// Release marks a block free and keeps it resident for reuse. The block
// must have come from Allocate. A released block may still have enqueued
// operations against it; reuse is safe because the device queue executes
// in submission order, so a new holder's writes land after them.
func (p *Pool) Release(buf device.Buffer) {
	if buf == nil {
		return
	}
	bucket := buf.Size()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free[bucket] = append(p.free[bucket], buf)
	p.inUse -= bucket
	p.held += bucket
	poolHeldBytes.Set(float64(p.held))
}

// compactLocked returns every idle block to the device allocator.
func (p *Pool) compactLocked() int {
	reclaimed := 0
	for bucket, blocks := range p.free {
		for _, buf := range blocks {
			if err := p.alloc.Free(buf); err == nil {
				reclaimed += bucket
			}
		}
		delete(p.free, bucket)
	}
	p.held = 0
	poolHeldBytes.Set(0)
	return reclaimed
}

// Reset frees all idle blocks. Blocks still handed out are unaffected.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.compactLocked()
}

// Stats reports pool counters.
func (p *Pool) Stats() (hits, misses, retries, heldBytes, inUseBytes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses, p.retries, p.held, p.inUse
}
