// Package sim exposes the in-process device simulator: host-memory
// buffers behind a real FIFO command queue, useful for tests and for
// running the engine without a GPU.
package sim

import (
	internalsim "github.com/vortex-ml/vortex/internal/device/sim"
)

// Driver is the simulator device.
type Driver = internalsim.Driver

// Option configures a new driver.
type Option = internalsim.Option

// ErrDeviceMemory is returned by allocations past the configured limit.
var ErrDeviceMemory = internalsim.ErrDeviceMemory

// New creates a simulator driver.
func New(opts ...Option) *Driver {
	return internalsim.New(opts...)
}

// WithMemoryLimit caps the simulated device memory in bytes.
func WithMemoryLimit(bytes int) Option {
	return internalsim.WithMemoryLimit(bytes)
}
