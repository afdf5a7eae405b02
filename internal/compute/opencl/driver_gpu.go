//go:build gpu

package opencl

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/cwbudde/clfilter/internal/compute"
)

// Driver implements compute.Driver on top of the system OpenCL ICD loader.
type Driver struct{}

// NewDriver returns the OpenCL driver.
func NewDriver() (compute.Driver, error) {
	return &Driver{}, nil
}

// Platforms lists the installed OpenCL platforms.
func (d *Driver) Platforms() ([]compute.Platform, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		serr := statusError("clGetPlatformIDs", err)
		if strings.Contains(err.Error(), "-1001") {
			return nil, fmt.Errorf("no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`: %w", serr)
		}
		return nil, serr
	}
	out := make([]compute.Platform, len(platforms))
	for i, p := range platforms {
		out[i] = &platform{p: p}
	}
	return out, nil
}

// CreateContext creates a single-device context.
func (d *Driver) CreateContext(dev compute.Device) (compute.Context, error) {
	cd, ok := dev.(*device)
	if !ok {
		return nil, fmt.Errorf("device %T does not belong to the OpenCL driver", dev)
	}
	ctx, err := cl.CreateContext([]*cl.Device{cd.d})
	if err != nil {
		return nil, statusError("clCreateContext", err)
	}
	return &context{c: ctx}, nil
}

type platform struct {
	p *cl.Platform
}

func (p *platform) Info() compute.PlatformInfo {
	return compute.PlatformInfo{
		Name:    p.p.Name(),
		Vendor:  p.p.Vendor(),
		Version: p.p.Version(),
	}
}

func (p *platform) Devices(t compute.DeviceType) ([]compute.Device, error) {
	devices, err := p.p.GetDevices(deviceTypeToCL(t))
	if err == cl.ErrDeviceNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, statusError("clGetDeviceIDs", err)
	}
	out := make([]compute.Device, len(devices))
	for i, d := range devices {
		out[i] = &device{d: d}
	}
	return out, nil
}

type device struct {
	d *cl.Device
}

func (d *device) Info() compute.DeviceInfo {
	return compute.DeviceInfo{
		Name:            d.d.Name(),
		Vendor:          d.d.Vendor(),
		Version:         d.d.Version(),
		Type:            deviceTypeFromCL(d.d.Type()),
		MaxComputeUnits: d.d.MaxComputeUnits(),
		ImageSupport:    d.d.ImageSupport(),
	}
}

type context struct {
	c *cl.Context
}

func (c *context) CreateQueue(dev compute.Device, profiling bool) (compute.Queue, error) {
	cd, ok := dev.(*device)
	if !ok {
		return nil, fmt.Errorf("device %T does not belong to the OpenCL driver", dev)
	}
	var props cl.CommandQueueProperty
	if profiling {
		props |= cl.CommandQueueProfilingEnable
	}
	q, err := c.c.CreateCommandQueue(cd.d, props)
	if err != nil {
		return nil, statusError("clCreateCommandQueue", err)
	}
	return &queue{q: q}, nil
}

func (c *context) CreateProgram(source string) (compute.Program, error) {
	p, err := c.c.CreateProgramWithSource([]string{source})
	if err != nil {
		return nil, statusError("clCreateProgramWithSource", err)
	}
	return &program{p: p}, nil
}

func (c *context) CreateBuffer(mode compute.AccessMode, data []byte) (compute.Buffer, error) {
	if len(data) == 0 {
		return nil, compute.NewStatusError("clCreateBuffer", compute.StatusInvalidBufferSize)
	}
	flags := memFlags(mode) | cl.MemCopyHostPtr
	mem, err := c.c.CreateBufferUnsafe(flags, len(data), unsafe.Pointer(&data[0]))
	if err != nil {
		return nil, statusError("clCreateBuffer", err)
	}
	return &buffer{m: mem, size: len(data)}, nil
}

func (c *context) Release() {
	if c.c != nil {
		c.c.Release()
		c.c = nil
	}
}

type program struct {
	p      *cl.Program
	status int
	log    string
}

// Build compiles the program. On failure the bindings read the build log
// into a fixed 1 MiB buffer and return it as a cl.BuildError. A longer log
// makes that read fail, so the error carries a status and no log.
func (p *program) Build(dev compute.Device, options string) error {
	cd, ok := dev.(*device)
	if !ok {
		return fmt.Errorf("device %T does not belong to the OpenCL driver", dev)
	}
	err := p.p.BuildProgram([]*cl.Device{cd.d}, options)
	if err == nil {
		p.status = compute.StatusSuccess
		p.log = ""
		return nil
	}
	var buildErr cl.BuildError
	if errors.As(err, &buildErr) {
		p.status = compute.StatusBuildProgramFailure
		p.log = string(buildErr)
		return compute.NewStatusError("clBuildProgram", p.status)
	}
	serr := statusError("clBuildProgram", err)
	p.status = compute.StatusBuildProgramFailure
	var se *compute.StatusError
	if errors.As(serr, &se) {
		p.status = se.Code
	}
	return serr
}

func (p *program) BuildStatus() int { return p.status }

func (p *program) BuildLog() (string, error) { return p.log, nil }

func (p *program) CreateKernel(name string) (compute.Kernel, error) {
	k, err := p.p.CreateKernel(name)
	if err != nil {
		return nil, statusError("clCreateKernel", err)
	}
	return &kernel{k: k, name: name}, nil
}

func (p *program) Release() {
	if p.p != nil {
		p.p.Release()
		p.p = nil
	}
}

type kernel struct {
	k    *cl.Kernel
	name string
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArg(index int, value any) error {
	var err error
	switch v := value.(type) {
	case *buffer:
		err = k.k.SetArgBuffer(index, v.m)
	case int32:
		err = k.k.SetArgInt32(index, v)
	case float32:
		err = k.k.SetArgFloat32(index, v)
	default:
		return compute.NewStatusError(fmt.Sprintf("clSetKernelArg(%d, %T)", index, value), compute.StatusInvalidArgValue)
	}
	if err != nil {
		return statusError(fmt.Sprintf("clSetKernelArg(%d)", index), err)
	}
	return nil
}

func (k *kernel) Release() {
	if k.k != nil {
		k.k.Release()
		k.k = nil
	}
}

type buffer struct {
	m    *cl.MemObject
	size int
}

func (b *buffer) Size() int { return b.size }

func (b *buffer) Release() {
	if b.m != nil {
		b.m.Release()
		b.m = nil
	}
}

type queue struct {
	q *cl.CommandQueue
}

func (q *queue) EnqueueNDRange(k compute.Kernel, global, local []int) (compute.Event, error) {
	ck, ok := k.(*kernel)
	if !ok {
		return nil, fmt.Errorf("kernel %T does not belong to the OpenCL driver", k)
	}
	ev, err := q.q.EnqueueNDRangeKernel(ck.k, nil, global, local, nil)
	if err != nil {
		return nil, statusError("clEnqueueNDRangeKernel", err)
	}
	return &event{e: ev}, nil
}

func (q *queue) ReadBuffer(b compute.Buffer, dst []byte) error {
	cb, ok := b.(*buffer)
	if !ok {
		return fmt.Errorf("buffer %T does not belong to the OpenCL driver", b)
	}
	if len(dst) == 0 {
		return nil
	}
	if len(dst) > cb.size {
		return compute.NewStatusError("clEnqueueReadBuffer", compute.StatusInvalidValue)
	}
	ev, err := q.q.EnqueueReadBuffer(cb.m, true, 0, len(dst), unsafe.Pointer(&dst[0]), nil)
	if err != nil {
		return statusError("clEnqueueReadBuffer", err)
	}
	if ev != nil {
		ev.Release()
	}
	return nil
}

func (q *queue) Finish() error {
	if err := q.q.Finish(); err != nil {
		return statusError("clFinish", err)
	}
	return nil
}

func (q *queue) Release() {
	if q.q != nil {
		q.q.Release()
		q.q = nil
	}
}

type event struct {
	e *cl.Event
}

func (e *event) Wait() error {
	if err := cl.WaitForEvents([]*cl.Event{e.e}); err != nil {
		return statusError("clWaitForEvents", err)
	}
	return nil
}

func (e *event) Timestamps() (int64, int64, error) {
	start, err := e.e.GetEventProfilingInfo(cl.ProfilingInfoCommandStart)
	if err != nil {
		return 0, 0, statusError("clGetEventProfilingInfo(start)", err)
	}
	end, err := e.e.GetEventProfilingInfo(cl.ProfilingInfoCommandEnd)
	if err != nil {
		return 0, 0, statusError("clGetEventProfilingInfo(end)", err)
	}
	return start, end, nil
}

func (e *event) Release() {
	if e.e != nil {
		e.e.Release()
		e.e = nil
	}
}

func memFlags(mode compute.AccessMode) cl.MemFlag {
	switch mode {
	case compute.ReadOnly:
		return cl.MemReadOnly
	case compute.WriteOnly:
		return cl.MemWriteOnly
	default:
		return cl.MemReadWrite
	}
}

func deviceTypeToCL(t compute.DeviceType) cl.DeviceType {
	switch t {
	case compute.DeviceTypeGPU:
		return cl.DeviceTypeGPU
	case compute.DeviceTypeCPU:
		return cl.DeviceTypeCPU
	case compute.DeviceTypeAccelerator:
		return cl.DeviceTypeAccelerator
	case compute.DeviceTypeDefault:
		return cl.DeviceTypeDefault
	default:
		return cl.DeviceTypeAll
	}
}

func deviceTypeFromCL(dt cl.DeviceType) compute.DeviceType {
	switch {
	case dt&cl.DeviceTypeGPU != 0:
		return compute.DeviceTypeGPU
	case dt&cl.DeviceTypeCPU != 0:
		return compute.DeviceTypeCPU
	case dt&cl.DeviceTypeAccelerator != 0:
		return compute.DeviceTypeAccelerator
	case dt&cl.DeviceTypeDefault != 0:
		return compute.DeviceTypeDefault
	default:
		return compute.DeviceTypeUnknown
	}
}
