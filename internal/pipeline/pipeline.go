package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/clfilter/internal/compute"
	"github.com/cwbudde/clfilter/internal/filter"
	"github.com/cwbudde/clfilter/internal/imageio"
)

// Default file and entry-point names.
const (
	DefaultKernelFile = "copyimage.cl"
	DefaultKernelName = "gauss_filter4"
	DefaultInput      = "manet.jpg"
	DefaultOutput     = "result.png"
)

// DefaultTolerance is the largest channel difference accepted by verification.
const DefaultTolerance = 1

// ErrMismatch indicates the device result differs from the host reference.
var ErrMismatch = errors.New("error in computation")

// Config describes one filter run.
type Config struct {
	KernelFile   string
	KernelName   string
	BuildOptions string
	InputPath    string
	OutputPath   string // empty skips writing the result
	Radius       int
	Sigma        float64
	Tile         int
	Device       compute.DeviceType

	// Verify compares the device result against a host reference and fails
	// the run when any channel differs by more than Tolerance.
	Verify    bool
	Tolerance int
}

// DefaultConfig returns the conventional configuration for the given radius.
func DefaultConfig(radius int) Config {
	return Config{
		KernelFile: DefaultKernelFile,
		KernelName: DefaultKernelName,
		InputPath:  DefaultInput,
		OutputPath: DefaultOutput,
		Radius:     radius,
		Sigma:      filter.DefaultSigma,
		Tile:       compute.DefaultTile,
		Device:     compute.DeviceTypeGPU,
		Tolerance:  DefaultTolerance,
	}
}

// Result summarizes a completed run.
type Result struct {
	RunID    string
	Device   compute.DeviceInfo
	Width    int
	Height   int
	Geometry compute.NDRange
	Profile  compute.ProfilingResult
	Output   *image.NRGBA

	// Difference is set when the run was verified.
	Difference *filter.Difference
}

// Run filters cfg.InputPath on a device obtained from drv and writes the
// result to cfg.OutputPath. Every device resource acquired along the way is
// released in reverse order before Run returns, whatever the outcome. No
// output file is written unless every stage succeeded.
func Run(drv compute.Driver, cfg Config) (*Result, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID)
	start := time.Now()

	weights, norm, err := filter.GaussianWeights(cfg.Radius, cfg.Sigma)
	if err != nil {
		return nil, err
	}
	logger.Debug("Coefficients generated", "radius", cfg.Radius, "sigma", cfg.Sigma, "norm", norm, "weight_sum", filter.Sum(weights))

	scope := compute.NewScope()
	defer scope.Close()

	desc, err := compute.SelectDevice(drv, cfg.Device)
	if err != nil {
		return nil, err
	}

	sess, err := compute.NewSession(drv, desc)
	if err != nil {
		return nil, err
	}
	scope.Add("session", sess.Close)

	source, err := compute.ReadSource(cfg.KernelFile)
	if err != nil {
		return nil, err
	}

	program, err := sess.Compile(source, cfg.BuildOptions)
	if program != nil {
		scope.Add("program", program.Release)
	}
	if err != nil {
		return nil, err
	}

	img, err := imageio.Load(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", compute.ErrIO, err)
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	logger.Info("Loaded input image", "path", cfg.InputPath, "width", width, "height", height, "channels", compute.Channels)

	input, err := sess.CreateInputBuffer(img.Pix, width, height)
	if err != nil {
		return nil, err
	}
	scope.Add("input buffer", input.Release)

	output, err := sess.CreateOutputBuffer(width, height)
	if err != nil {
		return nil, err
	}
	scope.Add("output buffer", output.Release)

	kernel, err := program.Kernel(cfg.KernelName)
	if err != nil {
		return nil, err
	}
	scope.Add("kernel", kernel.Release)

	coeffs, err := sess.CreateCoefficientBuffer(weights)
	if err != nil {
		return nil, err
	}
	scope.Add("coefficient buffer", coeffs.Release)

	args := compute.FilterArgs{
		Input:        input,
		Output:       output,
		Radius:       cfg.Radius,
		Sigma:        float32(cfg.Sigma),
		Norm:         norm,
		Coefficients: coeffs,
	}
	if err := compute.BindArgs(kernel, args.Ordered()); err != nil {
		return nil, err
	}

	geom, err := compute.LaunchGeometry(width, height, cfg.Tile)
	if err != nil {
		return nil, err
	}

	event, err := sess.Dispatch(kernel, geom)
	if err != nil {
		return nil, err
	}
	scope.Add("event", event.Release)

	profile, err := compute.WaitForProfile(event)
	if err != nil {
		return nil, err
	}
	logger.Info("Kernel finished",
		"kernel", cfg.KernelName,
		"global", geom.Global,
		"local", geom.Local,
		"elapsed", profile.Elapsed(),
		"seconds", fmt.Sprintf("%.4g", profile.Elapsed().Seconds()),
	)

	pix, err := sess.Readback(output)
	if err != nil {
		return nil, err
	}

	// Device objects are no longer needed once the result is on the host.
	scope.Close()

	result, err := imageio.FromPixels(pix, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", compute.ErrReadback, err)
	}

	var diff *filter.Difference
	if cfg.Verify {
		d, err := verify(img, result, weights)
		if err != nil {
			return nil, err
		}
		diff = &d
		logger.Info("Verified against host reference", "mse", d.MSE, "max_abs", d.MaxAbs, "tolerance", cfg.Tolerance)
		if d.MaxAbs > cfg.Tolerance {
			return nil, fmt.Errorf("%w: channel difference %d exceeds tolerance %d", ErrMismatch, d.MaxAbs, cfg.Tolerance)
		}
	}

	if cfg.OutputPath != "" {
		if err := imageio.Save(cfg.OutputPath, result); err != nil {
			return nil, fmt.Errorf("%w: %w", compute.ErrIO, err)
		}
		logger.Info("Wrote output image", "path", cfg.OutputPath)
	}

	logger.Debug("Run complete", "wall_time", time.Since(start))

	return &Result{
		RunID:      runID,
		Device:     desc.Device,
		Width:      width,
		Height:     height,
		Geometry:   geom,
		Profile:    profile,
		Output:     result,
		Difference: diff,
	}, nil
}

func verify(input, output *image.NRGBA, weights []float32) (filter.Difference, error) {
	ref, err := filter.Reference(input, weights)
	if err != nil {
		return filter.Difference{}, err
	}
	return filter.Compare(output, ref)
}
