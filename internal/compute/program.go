package compute

import (
	"fmt"
	"log/slog"
	"os"
)

// CompiledProgram is a program built for the session's device.
type CompiledProgram struct {
	program Program
	Status  int
	Log     string
}

// ReadSource loads kernel source text from path.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading kernel source: %w", ErrIO, err)
	}
	return string(data), nil
}

// Compile creates a program from source and builds it for the session's
// device. On a build failure it returns the program together with a
// *BuildError carrying the build log, so the caller can release the program.
func (s *Session) Compile(source, options string) (*CompiledProgram, error) {
	program, err := s.context.CreateProgram(source)
	if err != nil {
		return nil, fmt.Errorf("%w: creating program: %w", ErrBuild, err)
	}

	cp := &CompiledProgram{program: program}

	if err := program.Build(s.Device.device, options); err != nil {
		cp.Status = program.BuildStatus()
		if cp.Status == StatusSuccess {
			cp.Status = StatusBuildProgramFailure
		}
		log, logErr := program.BuildLog()
		if logErr != nil {
			slog.Error("Failed to fetch build log", "err", logErr)
		}
		cp.Log = log
		slog.Error("Program build failed", "status", StatusName(cp.Status), "log_bytes", len(log))
		return cp, &BuildError{Status: cp.Status, Log: log}
	}

	// Successful builds may still carry warnings.
	if log, err := program.BuildLog(); err == nil {
		cp.Log = log
	}
	slog.Info("Program built", "device", s.Device.Device.Name, "log_bytes", len(cp.Log))

	return cp, nil
}

// Release releases the program handle.
func (p *CompiledProgram) Release() {
	if p == nil || p.program == nil {
		return
	}
	p.program.Release()
	p.program = nil
}

// Kernel derives the kernel for the named entry point. A program whose build
// did not succeed never yields a kernel.
func (p *CompiledProgram) Kernel(name string) (Kernel, error) {
	if p == nil || p.program == nil {
		return nil, fmt.Errorf("%w: program released", ErrBuild)
	}
	if p.Status != StatusSuccess {
		return nil, &BuildError{Status: p.Status, Log: p.Log}
	}
	kernel, err := p.program.CreateKernel(name)
	if err != nil {
		return nil, fmt.Errorf("%w: creating kernel %q: %w", ErrBuild, name, err)
	}
	return kernel, nil
}
