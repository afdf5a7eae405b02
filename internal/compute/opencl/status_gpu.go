//go:build gpu

package opencl

import (
	"errors"
	"fmt"

	"github.com/jgillich/go-opencl/cl"

	"github.com/cwbudde/clfilter/internal/compute"
)

// clStatusCodes maps the bindings' sentinel errors back to status codes so
// every failure is reported through the compute status table.
var clStatusCodes = map[error]int{
	cl.ErrDeviceNotFound:             -1,
	cl.ErrDeviceNotAvailable:         -2,
	cl.ErrCompilerNotAvailable:       -3,
	cl.ErrMemObjectAllocationFailure: -4,
	cl.ErrOutOfResources:             -5,
	cl.ErrOutOfHostMemory:            -6,
	cl.ErrProfilingInfoNotAvailable:  -7,
	cl.ErrBuildProgramFailure:        -11,
	cl.ErrInvalidValue:               -30,
	cl.ErrInvalidPlatform:            -32,
	cl.ErrInvalidDevice:              -33,
	cl.ErrInvalidContext:             -34,
	cl.ErrInvalidCommandQueue:        -36,
	cl.ErrInvalidMemObject:           -38,
	cl.ErrInvalidProgram:             -44,
	cl.ErrInvalidProgramExecutable:   -45,
	cl.ErrInvalidKernelName:          -46,
	cl.ErrInvalidKernel:              -48,
	cl.ErrInvalidArgIndex:            -49,
	cl.ErrInvalidArgValue:            -50,
	cl.ErrInvalidArgSize:             -51,
	cl.ErrInvalidKernelArgs:          -52,
	cl.ErrInvalidWorkDimension:       -53,
	cl.ErrInvalidWorkGroupSize:       -54,
	cl.ErrInvalidWorkItemSize:        -55,
	cl.ErrInvalidEvent:               -58,
	cl.ErrInvalidOperation:           -59,
	cl.ErrInvalidBufferSize:          -61,
	cl.ErrInvalidGlobalWorkSize:      -63,
}

func statusError(op string, err error) error {
	var other cl.ErrOther
	if errors.As(err, &other) {
		return &compute.StatusError{Op: op, Code: int(other), Err: err}
	}
	if code, ok := clStatusCodes[err]; ok {
		return &compute.StatusError{Op: op, Code: code, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
