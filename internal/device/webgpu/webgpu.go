//go:build gpu

// Package webgpu implements the device contracts on a WebGPU compute
// device through go-webgpu's zero-CGO bindings. WGSL has no f64, 64-bit
// integer, or complex storage types, so this driver accepts f32 and
// 32-bit integer kernels only and rejects everything else at compile
// time; the in-process simulator covers the full element-type set.
package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
)

// workgroupSize matches the thread count in synthesized kernel source.
const workgroupSize = 256

type buffer struct {
	raw  *wgpu.Buffer
	size int
}

func (b *buffer) Size() int { return b.size }

type kernel struct {
	spec     device.KernelSpec
	pipeline *wgpu.ComputePipeline
}

func (k *kernel) Name() string { return k.spec.Key() }

// event is a completion handle. The WebGPU queue is strictly ordered and
// faults surface on readback, so an enqueued operation is considered
// complete once submitted.
type event struct {
	err error
}

func (e *event) Done() bool  { return true }
func (e *event) Wait() error { return e.err }

// Driver is a WebGPU-backed device.
type Driver struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	dev      *wgpu.Device
	queue    *wgpu.Queue

	alloc *allocator
	comp  *compiler
	q     *cmdQueue
}

// New initializes the WebGPU instance, adapter, and device.
func New() (d *Driver, err error) {
	// The native library loads lazily and panics when absent.
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, aerr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if aerr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", aerr)
	}
	dev, derr := adapter.RequestDevice(nil)
	if derr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", derr)
	}
	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: no default queue")
	}

	d = &Driver{instance: instance, adapter: adapter, dev: dev, queue: queue}
	d.alloc = &allocator{d: d}
	d.comp = &compiler{d: d}
	d.q = &cmdQueue{d: d}
	return d, nil
}

// IsAvailable reports whether a WebGPU device can be initialized.
func IsAvailable() bool {
	d, err := New()
	if err != nil {
		return false
	}
	d.Close()
	return true
}

func (d *Driver) Name() string                { return "webgpu" }
func (d *Driver) Queue() device.Queue         { return d.q }
func (d *Driver) Allocator() device.Allocator { return d.alloc }
func (d *Driver) Compiler() device.Compiler   { return d.comp }

func (d *Driver) Close() error {
	d.dev.Release()
	d.adapter.Release()
	d.instance.Release()
	return nil
}

type allocator struct {
	d *Driver
}

func (a *allocator) Alloc(size int) (device.Buffer, error) {
	raw := a.d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(max(size, 4)),
	})
	if raw == nil {
		return nil, fmt.Errorf("webgpu: buffer allocation of %d bytes failed", size)
	}
	return &buffer{raw: raw, size: size}, nil
}

func (a *allocator) Free(b device.Buffer) error {
	b.(*buffer).raw.Release()
	return nil
}

type compiler struct {
	d *Driver
}

func (c *compiler) Compile(source string, spec device.KernelSpec) (device.Kernel, error) {
	if err := checkTypes(spec); err != nil {
		return nil, err
	}
	shader := c.d.dev.CreateShaderModuleWGSL(source)
	pipeline := c.d.dev.CreateComputePipelineSimple(nil, shader, "main")
	if pipeline == nil {
		return nil, fmt.Errorf("webgpu: pipeline creation failed for %s", spec.Key())
	}
	return &kernel{spec: spec, pipeline: pipeline}, nil
}

// checkTypes rejects element types WGSL cannot store.
func checkTypes(spec device.KernelSpec) error {
	ok := func(dt dtype.DType) bool {
		switch dt {
		case dtype.Float32, dtype.Int8, dtype.Int16, dtype.Int32,
			dtype.Uint8, dtype.Uint16, dtype.Uint32:
			return true
		}
		return false
	}
	if !ok(spec.Result) {
		return fmt.Errorf("webgpu: result type %s not supported", spec.Result)
	}
	for _, op := range spec.Operands {
		if !ok(op.DType) {
			return fmt.Errorf("webgpu: operand type %s not supported", op.DType)
		}
	}
	return nil
}

type cmdQueue struct {
	d *Driver
}

func (q *cmdQueue) Enqueue(k device.Kernel, d device.Dispatch, wait []device.Event) (device.Event, error) {
	for _, ev := range wait {
		if err := ev.Wait(); err != nil {
			return nil, err
		}
	}
	kn := k.(*kernel)

	params := packParams(kn.spec, d)
	paramsBuf := q.createMapped(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer paramsBuf.Release()

	var entries []wgpu.BindGroupEntry
	binding := uint32(0)
	for _, in := range d.In {
		if in.IsScalar() {
			continue
		}
		b := in.Buf.(*buffer)
		entries = append(entries, wgpu.BufferBindingEntry(binding, b.raw, 0, uint64(b.size)))
		binding++
	}
	out := d.Out.Buf.(*buffer)
	entries = append(entries, wgpu.BufferBindingEntry(binding, out.raw, 0, uint64(out.size)))
	binding++
	entries = append(entries, wgpu.BufferBindingEntry(binding, paramsBuf, 0, uint64(len(params))))

	layout := kn.pipeline.GetBindGroupLayout(0)
	group := q.d.dev.CreateBindGroupSimple(layout, entries)
	defer group.Release()

	encoder := q.d.dev.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(kn.pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.DispatchWorkgroups(uint32((d.N+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()
	q.d.queue.Submit(encoder.Finish(nil))
	return &event{}, nil
}

func (q *cmdQueue) Write(dst device.Buffer, dstOff int, src []byte, wait []device.Event) (device.Event, error) {
	for _, ev := range wait {
		if err := ev.Wait(); err != nil {
			return nil, err
		}
	}
	q.d.queue.WriteBuffer(dst.(*buffer).raw, uint64(dstOff), src)
	return &event{}, nil
}

func (q *cmdQueue) Read(dst []byte, src device.Buffer, srcOff int, wait []device.Event) error {
	for _, ev := range wait {
		if err := ev.Wait(); err != nil {
			return err
		}
	}
	size := uint64(len(dst))
	staging := q.d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := q.d.dev.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src.(*buffer).raw, uint64(srcOff), staging, 0, size)
	q.d.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(q.d.dev, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	copy(dst, unsafe.Slice((*byte)(mapped), size))
	staging.Unmap()
	return nil
}

func (q *cmdQueue) Finish() error {
	// Submission order is completion order; a zero-byte readback fences.
	probe := q.d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  4,
	})
	defer probe.Release()
	if err := probe.MapAsync(q.d.dev, wgpu.MapModeRead, 0, 4); err != nil {
		return fmt.Errorf("webgpu: fence: %w", err)
	}
	probe.Unmap()
	return nil
}

// createMapped uploads data through a buffer mapped at creation, padded to
// the 16-byte alignment uniform buffers require.
func (q *cmdQueue) createMapped(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := (uint64(len(data)) + 15) &^ 15
	buf := q.d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := buf.GetMappedRange(0, size)
	copy(unsafe.Slice((*byte)(mapped), size), data)
	buf.Unmap()
	return buf
}

// packParams lays out the dispatch geometry to match the Params struct in
// synthesized source under uniform address-space rules: arrays carry a
// 16-byte element stride, and each array starts on a 16-byte boundary.
func packParams(spec device.KernelSpec, d device.Dispatch) []byte {
	var p paramPacker
	p.u32(uint32(d.N))
	p.u32(uint32(len(d.Shape)))
	p.intArray8(d.Shape)
	for i, op := range spec.Operands {
		in := d.In[i]
		if op.Scalar {
			p.f32(float32(real(in.Scalar)))
			continue
		}
		if in.Strides != nil {
			p.intArray8(in.Strides)
		}
		p.i32(int32(in.Offset))
	}
	outStrides := d.Out.Strides
	if outStrides == nil {
		outStrides = make([]int, len(d.Shape))
	}
	p.intArray8(outStrides)
	p.i32(int32(d.Out.Offset))
	return p.buf
}

type paramPacker struct {
	buf []byte
}

func (p *paramPacker) align(n int) {
	for len(p.buf)%n != 0 {
		p.buf = append(p.buf, 0)
	}
}

func (p *paramPacker) u32(v uint32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *paramPacker) i32(v int32) { p.u32(uint32(v)) }

func (p *paramPacker) f32(v float32) {
	p.u32(math.Float32bits(v))
}

func (p *paramPacker) intArray8(vals []int) {
	p.align(16)
	for i := 0; i < 8; i++ {
		var v int
		if i < len(vals) {
			v = vals[i]
		}
		p.i32(int32(v))
		p.buf = append(p.buf, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	}
}
