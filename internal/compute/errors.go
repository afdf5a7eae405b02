package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrPlatform indicates that platform discovery failed.
	ErrPlatform = errors.New("platform error")
	// ErrNoDevice indicates that no platform or no usable device was found.
	ErrNoDevice = errors.New("no compute device found")
	// ErrBuild matches every *BuildError and kernel derivation failures.
	ErrBuild = errors.New("program build failed")
	// ErrAllocation indicates a device buffer could not be created.
	ErrAllocation = errors.New("device allocation failed")
	// ErrArgumentBind matches every *ArgumentBindError.
	ErrArgumentBind = errors.New("kernel argument binding failed")
	// ErrExecution indicates the kernel could not be submitted or did not complete.
	ErrExecution = errors.New("kernel execution failed")
	// ErrReadback indicates the result copy from device to host failed.
	ErrReadback = errors.New("readback failed")
	// ErrIO indicates a kernel source or image file could not be read or written.
	ErrIO = errors.New("i/o error")
)

// BuildError carries the compiler diagnostics of a failed program build.
type BuildError struct {
	Status int
	Log    string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%v: %s (%d)", ErrBuild, StatusName(e.Status), e.Status)
}

// Is reports ErrBuild as the category of every BuildError.
func (e *BuildError) Is(target error) bool { return target == ErrBuild }

// ArgumentBindError identifies the kernel argument that could not be bound.
type ArgumentBindError struct {
	Index int
	Name  string
	Err   error
}

func (e *ArgumentBindError) Error() string {
	return fmt.Sprintf("%v: argument %d (%s): %v", ErrArgumentBind, e.Index, e.Name, e.Err)
}

func (e *ArgumentBindError) Is(target error) bool { return target == ErrArgumentBind }

func (e *ArgumentBindError) Unwrap() error { return e.Err }
