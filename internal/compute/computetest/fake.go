// Package computetest provides an in-memory compute driver for tests. It
// records every driver call, can inject failures at each stage and runs
// kernels as host functions.
package computetest

import (
	"errors"
	"fmt"

	"github.com/cwbudde/clfilter/internal/compute"
)

// KernelFunc emulates a device kernel. args holds the bound values by
// index: *Buffer, int32 or float32.
type KernelFunc func(args []any, global, local [2]int) error

// BoundArg records one SetArg call.
type BoundArg struct {
	Index int
	Value any
}

// Driver is a fake compute.Driver.
type Driver struct {
	PlatformList []*Platform
	// PlatformErr is returned by Platforms when set.
	PlatformErr error
	// Kernels maps entry-point names to host implementations.
	Kernels map[string]KernelFunc
	// Signature is the argument list every kernel declares.
	Signature []compute.ArgKind

	// Failure injection.
	FailContext  bool
	FailQueue    bool
	BuildFailLog string // non-empty makes Build fail with this log
	FailBufferAt int    // 1-based index of the CreateBuffer call to fail, 0 disables
	FailSetArgAt int    // argument index whose SetArg fails, -1 disables
	FailEnqueue  bool
	FailRead     bool
	ElapsedNanos int64

	// Observations.
	Calls           []string
	PlatformQueries int
	DeviceQueries   int
	Buffers         []*Buffer
	CreatedKernels  []*Kernel
	Dispatches      []compute.NDRange
	Released        []string
}

// New returns a driver with one platform exposing one GPU device and the
// Gaussian filter kernel registered as "gauss_filter4".
func New() *Driver {
	d := &Driver{
		Kernels:      map[string]KernelFunc{"gauss_filter4": GaussianKernel},
		Signature:    compute.FilterSignature,
		FailSetArgAt: -1,
		ElapsedNanos: 250_000,
	}
	d.PlatformList = []*Platform{{
		driver: d,
		info:   compute.PlatformInfo{Name: "Fake Platform", Vendor: "clfilter", Version: "OpenCL 1.2"},
		devices: []*Device{{info: compute.DeviceInfo{
			Name:            "Fake GPU",
			Vendor:          "clfilter",
			Version:         "OpenCL 1.2",
			Type:            compute.DeviceTypeGPU,
			MaxComputeUnits: 8,
			ImageSupport:    true,
		}}},
	}}
	return d
}

// SetDevices replaces the devices of the first platform.
func (d *Driver) SetDevices(infos ...compute.DeviceInfo) {
	p := d.PlatformList[0]
	p.devices = p.devices[:0]
	for _, info := range infos {
		p.devices = append(p.devices, &Device{info: info})
	}
}

// AddPlatform appends a platform with the given devices.
func (d *Driver) AddPlatform(name string, infos ...compute.DeviceInfo) {
	p := &Platform{driver: d, info: compute.PlatformInfo{Name: name}}
	for _, info := range infos {
		p.devices = append(p.devices, &Device{info: info})
	}
	d.PlatformList = append(d.PlatformList, p)
}

// LiveBuffers returns the number of buffers not yet released.
func (d *Driver) LiveBuffers() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.released {
			n++
		}
	}
	return n
}

func (d *Driver) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Driver) released(name string) {
	d.Released = append(d.Released, name)
}

func (d *Driver) Platforms() ([]compute.Platform, error) {
	d.PlatformQueries++
	d.record("platforms")
	if d.PlatformErr != nil {
		return nil, d.PlatformErr
	}
	out := make([]compute.Platform, len(d.PlatformList))
	for i, p := range d.PlatformList {
		out[i] = p
	}
	return out, nil
}

func (d *Driver) CreateContext(dev compute.Device) (compute.Context, error) {
	d.record("createContext")
	if d.FailContext {
		return nil, compute.NewStatusError("clCreateContext", compute.StatusOutOfHostMemory)
	}
	if _, ok := dev.(*Device); !ok {
		return nil, errors.New("foreign device")
	}
	return &Context{driver: d}, nil
}

// Platform is a fake platform.
type Platform struct {
	driver  *Driver
	info    compute.PlatformInfo
	devices []*Device
}

func (p *Platform) Info() compute.PlatformInfo { return p.info }

func (p *Platform) Devices(t compute.DeviceType) ([]compute.Device, error) {
	p.driver.DeviceQueries++
	p.driver.record("devices(%s)", t)
	var out []compute.Device
	for _, dev := range p.devices {
		if t == compute.DeviceTypeAll || dev.info.Type == t {
			out = append(out, dev)
		}
	}
	return out, nil
}

// Device is a fake device.
type Device struct {
	info compute.DeviceInfo
}

func (d *Device) Info() compute.DeviceInfo { return d.info }

// Context is a fake context.
type Context struct {
	driver *Driver
}

func (c *Context) CreateQueue(_ compute.Device, profiling bool) (compute.Queue, error) {
	c.driver.record("createQueue(profiling=%t)", profiling)
	if c.driver.FailQueue {
		return nil, compute.NewStatusError("clCreateCommandQueue", compute.StatusOutOfResources)
	}
	return &Queue{driver: c.driver, profiling: profiling}, nil
}

func (c *Context) CreateProgram(source string) (compute.Program, error) {
	c.driver.record("createProgram")
	if source == "" {
		return nil, compute.NewStatusError("clCreateProgramWithSource", compute.StatusInvalidValue)
	}
	return &Program{driver: c.driver, source: source}, nil
}

func (c *Context) CreateBuffer(mode compute.AccessMode, data []byte) (compute.Buffer, error) {
	d := c.driver
	d.record("createBuffer(%s,%d)", mode, len(data))
	if d.FailBufferAt > 0 && len(d.Buffers)+1 == d.FailBufferAt {
		return nil, compute.NewStatusError("clCreateBuffer", compute.StatusMemAllocationFailure)
	}
	if len(data) == 0 {
		return nil, compute.NewStatusError("clCreateBuffer", compute.StatusInvalidBufferSize)
	}
	b := &Buffer{
		driver: d,
		ID:     len(d.Buffers) + 1,
		Mode:   mode,
		Data:   append([]byte(nil), data...),
	}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (c *Context) Release() {
	c.driver.released("context")
}

// Program is a fake program.
type Program struct {
	driver *Driver
	source string
	built  bool
	status int
	log    string
}

func (p *Program) Build(_ compute.Device, options string) error {
	p.driver.record("build(%q)", options)
	if p.driver.BuildFailLog != "" {
		p.status = compute.StatusBuildProgramFailure
		p.log = p.driver.BuildFailLog
		return compute.NewStatusError("clBuildProgram", p.status)
	}
	p.built = true
	return nil
}

func (p *Program) BuildStatus() int { return p.status }

func (p *Program) BuildLog() (string, error) { return p.log, nil }

func (p *Program) CreateKernel(name string) (compute.Kernel, error) {
	p.driver.record("createKernel(%s)", name)
	if !p.built {
		return nil, compute.NewStatusError("clCreateKernel", compute.StatusInvalidProgramExec)
	}
	fn, ok := p.driver.Kernels[name]
	if !ok {
		return nil, compute.NewStatusError("clCreateKernel", compute.StatusInvalidKernelName)
	}
	k := &Kernel{driver: p.driver, name: name, fn: fn}
	p.driver.CreatedKernels = append(p.driver.CreatedKernels, k)
	return k, nil
}

func (p *Program) Release() {
	p.driver.released("program")
}

// Kernel is a fake kernel.
type Kernel struct {
	driver *Driver
	name   string
	fn     KernelFunc
	Bound  []BoundArg
	args   map[int]any
}

func (k *Kernel) Name() string { return k.name }

func (k *Kernel) SetArg(index int, value any) error {
	k.driver.record("setArg(%d)", index)
	sig := k.driver.Signature
	if index < 0 || index >= len(sig) {
		return compute.NewStatusError("clSetKernelArg", compute.StatusInvalidArgIndex)
	}
	if index == k.driver.FailSetArgAt {
		return compute.NewStatusError("clSetKernelArg", compute.StatusInvalidArgSize)
	}
	if !matchesKind(sig[index], value) {
		return compute.NewStatusError("clSetKernelArg", compute.StatusInvalidArgValue)
	}
	if k.args == nil {
		k.args = make(map[int]any)
	}
	k.args[index] = value
	k.Bound = append(k.Bound, BoundArg{Index: index, Value: value})
	return nil
}

func (k *Kernel) Release() {
	k.driver.released("kernel")
}

func matchesKind(kind compute.ArgKind, value any) bool {
	switch kind {
	case compute.ArgBuffer:
		_, ok := value.(*Buffer)
		return ok
	case compute.ArgInt32:
		_, ok := value.(int32)
		return ok
	case compute.ArgFloat32:
		_, ok := value.(float32)
		return ok
	}
	return false
}

// Buffer is a fake device buffer backed by host memory.
type Buffer struct {
	driver   *Driver
	ID       int
	Mode     compute.AccessMode
	Data     []byte
	released bool
}

func (b *Buffer) Size() int { return len(b.Data) }

func (b *Buffer) Release() {
	b.released = true
	b.driver.released(fmt.Sprintf("buffer#%d", b.ID))
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool { return b.released }

// Queue is a fake in-order queue that runs kernels synchronously.
type Queue struct {
	driver    *Driver
	profiling bool
}

func (q *Queue) EnqueueNDRange(k compute.Kernel, global, local []int) (compute.Event, error) {
	d := q.driver
	d.record("enqueue(%s)", k.Name())
	if d.FailEnqueue {
		return nil, compute.NewStatusError("clEnqueueNDRangeKernel", compute.StatusOutOfResources)
	}
	fk, ok := k.(*Kernel)
	if !ok {
		return nil, errors.New("foreign kernel")
	}
	if len(global) != 2 || len(local) != 2 {
		return nil, compute.NewStatusError("clEnqueueNDRangeKernel", compute.StatusInvalidValue)
	}
	for i := range global {
		if local[i] <= 0 || global[i]%local[i] != 0 {
			return nil, compute.NewStatusError("clEnqueueNDRangeKernel", compute.StatusInvalidWorkGroupSize)
		}
	}
	args := make([]any, len(d.Signature))
	for i := range args {
		v, ok := fk.args[i]
		if !ok {
			return nil, compute.NewStatusError("clEnqueueNDRangeKernel", compute.StatusInvalidKernelArgs)
		}
		args[i] = v
	}
	g := [2]int{global[0], global[1]}
	l := [2]int{local[0], local[1]}
	d.Dispatches = append(d.Dispatches, compute.NDRange{Global: g, Local: l})
	if err := fk.fn(args, g, l); err != nil {
		return nil, err
	}
	return &Event{driver: d, profiling: q.profiling, start: 1_000, end: 1_000 + d.ElapsedNanos}, nil
}

func (q *Queue) ReadBuffer(b compute.Buffer, dst []byte) error {
	q.driver.record("readBuffer(%d)", len(dst))
	if q.driver.FailRead {
		return compute.NewStatusError("clEnqueueReadBuffer", compute.StatusOutOfResources)
	}
	fb, ok := b.(*Buffer)
	if !ok {
		return errors.New("foreign buffer")
	}
	if len(dst) > len(fb.Data) {
		return compute.NewStatusError("clEnqueueReadBuffer", compute.StatusInvalidValue)
	}
	copy(dst, fb.Data)
	return nil
}

func (q *Queue) Finish() error {
	q.driver.record("finish")
	return nil
}

func (q *Queue) Release() {
	q.driver.released("queue")
}

// Event is a completed fake event.
type Event struct {
	driver     *Driver
	profiling  bool
	start, end int64
	waited     bool
}

func (e *Event) Wait() error {
	e.waited = true
	return nil
}

func (e *Event) Timestamps() (int64, int64, error) {
	if !e.profiling {
		return 0, 0, compute.NewStatusError("clGetEventProfilingInfo", compute.StatusProfilingNotAvailable)
	}
	if !e.waited {
		return 0, 0, compute.NewStatusError("clGetEventProfilingInfo", compute.StatusInvalidValue)
	}
	return e.start, e.end, nil
}

func (e *Event) Release() {
	e.driver.released("event")
}
