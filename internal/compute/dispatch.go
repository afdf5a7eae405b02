package compute

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultTile is the side of the square work-group used for 2-D launches.
const DefaultTile = 16

// ArgKind is the declared type of a kernel argument.
type ArgKind int

const (
	ArgBuffer ArgKind = iota
	ArgInt32
	ArgFloat32
)

func (k ArgKind) String() string {
	switch k {
	case ArgBuffer:
		return "buffer"
	case ArgInt32:
		return "int"
	case ArgFloat32:
		return "float"
	default:
		return "unknown"
	}
}

// KernelArg is one entry of an ordered kernel argument list.
type KernelArg struct {
	Name  string
	Kind  ArgKind
	Value any
}

// FilterArgs are the inputs of one filter dispatch.
type FilterArgs struct {
	Input        *ImageBuffer
	Output       *ImageBuffer
	Radius       int
	Sigma        float32
	Norm         float32
	Coefficients *CoefficientBuffer
}

// FilterSignature is the argument list the filter kernel must declare.
var FilterSignature = []ArgKind{
	ArgBuffer,  // input
	ArgBuffer,  // output
	ArgInt32,   // width
	ArgInt32,   // height
	ArgInt32,   // radius
	ArgFloat32, // sigma
	ArgFloat32, // norm
	ArgBuffer,  // coefficients
}

// Ordered returns the arguments in the order the filter kernel declares them.
// This is the only place that order is defined.
func (a FilterArgs) Ordered() []KernelArg {
	var in, out, coeffs Buffer
	var width, height int
	if a.Input != nil {
		in = a.Input.Buffer
		width, height = a.Input.Width, a.Input.Height
	}
	if a.Output != nil {
		out = a.Output.Buffer
	}
	if a.Coefficients != nil {
		coeffs = a.Coefficients.Buffer
	}

	return []KernelArg{
		{Name: "input", Kind: ArgBuffer, Value: in},
		{Name: "output", Kind: ArgBuffer, Value: out},
		{Name: "width", Kind: ArgInt32, Value: int32(width)},
		{Name: "height", Kind: ArgInt32, Value: int32(height)},
		{Name: "radius", Kind: ArgInt32, Value: int32(a.Radius)},
		{Name: "sigma", Kind: ArgFloat32, Value: a.Sigma},
		{Name: "norm", Kind: ArgFloat32, Value: a.Norm},
		{Name: "coefficients", Kind: ArgBuffer, Value: coeffs},
	}
}

// BindArgs binds args to kernel in order. The Go value of every argument must
// match its declared kind.
func BindArgs(kernel Kernel, args []KernelArg) error {
	for i, arg := range args {
		if err := checkKind(arg); err != nil {
			return &ArgumentBindError{Index: i, Name: arg.Name, Err: err}
		}
		if err := kernel.SetArg(i, arg.Value); err != nil {
			return &ArgumentBindError{Index: i, Name: arg.Name, Err: err}
		}
	}
	slog.Debug("Kernel arguments bound", "kernel", kernel.Name(), "count", len(args))
	return nil
}

func checkKind(arg KernelArg) error {
	ok := false
	switch arg.Kind {
	case ArgBuffer:
		b, isBuf := arg.Value.(Buffer)
		ok = isBuf && b != nil
	case ArgInt32:
		_, ok = arg.Value.(int32)
	case ArgFloat32:
		_, ok = arg.Value.(float32)
	}
	if !ok {
		return fmt.Errorf("value %T does not match declared kind %s", arg.Value, arg.Kind)
	}
	return nil
}

// RoundUp returns the smallest multiple of group that is not below extent.
func RoundUp(group, extent int) int {
	r := extent % group
	if r == 0 {
		return extent
	}
	return extent + group - r
}

// NDRange is the 2-D launch geometry of one dispatch.
type NDRange struct {
	Global [2]int
	Local  [2]int
}

// LaunchGeometry covers a width x height image with square tiles of the
// given side. The global size may exceed the image; the kernel must ignore
// out-of-range work-items.
func LaunchGeometry(width, height, tile int) (NDRange, error) {
	if tile <= 0 {
		return NDRange{}, fmt.Errorf("%w: invalid work-group tile %d", ErrExecution, tile)
	}
	if width <= 0 || height <= 0 {
		return NDRange{}, fmt.Errorf("%w: invalid grid %dx%d", ErrExecution, width, height)
	}
	return NDRange{
		Global: [2]int{RoundUp(tile, width), RoundUp(tile, height)},
		Local:  [2]int{tile, tile},
	}, nil
}

// Dispatch enqueues kernel over the geometry and returns its completion
// event. The caller owns the event.
func (s *Session) Dispatch(kernel Kernel, geom NDRange) (Event, error) {
	ev, err := s.queue.EnqueueNDRange(kernel, geom.Global[:], geom.Local[:])
	if err != nil {
		return nil, fmt.Errorf("%w: enqueueing %s: %w", ErrExecution, kernel.Name(), err)
	}
	slog.Debug("Kernel enqueued", "kernel", kernel.Name(), "global", geom.Global, "local", geom.Local)
	return ev, nil
}

// ProfilingResult holds device timestamps of a completed command.
type ProfilingResult struct {
	Start int64
	End   int64
}

// Elapsed returns the device-side execution time.
func (p ProfilingResult) Elapsed() time.Duration {
	return time.Duration(p.End - p.Start)
}

// WaitForProfile blocks until ev has completed and reads its timestamps.
func WaitForProfile(ev Event) (ProfilingResult, error) {
	if err := ev.Wait(); err != nil {
		return ProfilingResult{}, fmt.Errorf("%w: waiting for completion: %w", ErrExecution, err)
	}
	start, end, err := ev.Timestamps()
	if err != nil {
		return ProfilingResult{}, fmt.Errorf("%w: reading profiling info: %w", ErrExecution, err)
	}
	return ProfilingResult{Start: start, End: end}, nil
}
