//go:build gpu

// Package webgpu exposes the WebGPU device driver. It needs the native
// wgpu library at runtime and supports 32-bit element types only; use
// the simulator for the full element-type set.
package webgpu

import (
	internalwebgpu "github.com/vortex-ml/vortex/internal/device/webgpu"

	"github.com/vortex-ml/vortex/internal/device"
)

// Driver is the WebGPU device.
type Driver = internalwebgpu.Driver

var _ device.Driver = (*Driver)(nil)

// New initializes a WebGPU device driver.
func New() (*Driver, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU device can be initialized,
// allowing graceful fallback to the simulator.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
