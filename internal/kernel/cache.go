// Package kernel turns operation signatures into compiled, reusable device
// kernels. Each distinct signature is synthesized and compiled at most once
// per cache lifetime; every later use is a map lookup.
package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vortex-ml/vortex/internal/device"
)

// ErrCompilation wraps kernel synthesis or device compile failures. It
// names the operator and operand types and is never retried automatically.
var ErrCompilation = errors.New("kernel compilation failed")

// Cache is the per-context kernel cache.
type Cache struct {
	mu       sync.RWMutex
	compiler device.Compiler
	kernels  map[string]device.Kernel
	log      zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger attaches a logger for compile diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// NewCache creates a kernel cache over the given compiler.
func NewCache(compiler device.Compiler, opts ...Option) *Cache {
	c := &Cache{
		compiler: compiler,
		kernels:  make(map[string]device.Kernel),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompile returns the kernel for the signature, compiling it on first
// use. Concurrent callers for the same signature may race to compile; one
// result wins and is kept.
func (c *Cache) GetOrCompile(spec device.KernelSpec) (device.Kernel, error) {
	key := spec.Key()

	c.mu.RLock()
	k, ok := c.kernels[key]
	c.mu.RUnlock()
	if ok {
		cacheHits.Inc()
		return k, nil
	}

	source := Synthesize(spec)
	k, err := c.compiler.Compile(source, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompilation, key, err)
	}
	cacheCompiles.Inc()
	c.log.Debug().Str("signature", key).Msg("compiled kernel")

	c.mu.Lock()
	if existing, ok := c.kernels[key]; ok {
		k = existing
	} else {
		c.kernels[key] = k
	}
	c.mu.Unlock()
	return k, nil
}

// Len reports the number of cached kernels.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.kernels)
}
