package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cwbudde/clfilter/internal/compute"
	"github.com/cwbudde/clfilter/internal/filter"
	"github.com/cwbudde/clfilter/internal/pipeline"
)

type runOptions struct {
	kernelFile   string
	kernelName   string
	buildOptions string
	input        string
	output       string
	sigma        float64
	tile         int
	device       string
	verify       bool
	tolerance    int
}

func defaultRunOptions() *runOptions {
	return &runOptions{}
}

func (o *runOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.kernelFile, "kernel-file", pipeline.DefaultKernelFile, "OpenCL source file")
	cmd.Flags().StringVar(&o.kernelName, "kernel-name", pipeline.DefaultKernelName, "Kernel entry point")
	cmd.Flags().StringVar(&o.buildOptions, "build-options", "", "Options passed to the OpenCL compiler")
	cmd.Flags().StringVar(&o.input, "input", pipeline.DefaultInput, "Input image path")
	cmd.Flags().StringVar(&o.output, "output", pipeline.DefaultOutput, "Output image path")
	cmd.Flags().Float64Var(&o.sigma, "sigma", filter.DefaultSigma, "Standard deviation of the Gaussian window")
	cmd.Flags().IntVar(&o.tile, "tile", compute.DefaultTile, "Work-group tile side")
	cmd.Flags().StringVar(&o.device, "device", "gpu", "Preferred device type: gpu, cpu, accelerator")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "Compare the device result with a host reference")
	cmd.Flags().IntVar(&o.tolerance, "tolerance", pipeline.DefaultTolerance, "Largest channel difference accepted by --verify")
}

func (o *runOptions) config(radius int) (pipeline.Config, error) {
	deviceType, err := compute.NormalizeDeviceType(o.device)
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg := pipeline.DefaultConfig(radius)
	cfg.KernelFile = o.kernelFile
	cfg.KernelName = o.kernelName
	cfg.BuildOptions = o.buildOptions
	cfg.InputPath = o.input
	cfg.OutputPath = o.output
	cfg.Sigma = o.sigma
	cfg.Tile = o.tile
	cfg.Device = deviceType
	cfg.Verify = o.verify
	cfg.Tolerance = o.tolerance
	return cfg, nil
}

func parseFilterSize(arg string) (int, error) {
	radius, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("filter_size %q is not an integer", arg)
	}
	if radius < 0 {
		return 0, fmt.Errorf("filter_size %d must not be negative", radius)
	}
	if radius > filter.MaxRadius {
		return 0, fmt.Errorf("filter_size %d exceeds %d", radius, filter.MaxRadius)
	}
	return radius, nil
}

func runFilter(out io.Writer, opts *runOptions, arg string) error {
	radius, err := parseFilterSize(arg)
	if err != nil {
		return err
	}
	cfg, err := opts.config(radius)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "working on filter size: %d\n", radius)
	slog.Info("Starting filter", "radius", radius, "sigma", cfg.Sigma, "kernel", cfg.KernelName, "device", cfg.Device)

	drv, err := newDriver()
	if err != nil {
		return err
	}

	result, err := pipeline.Run(drv, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Execution time: %.4g seconds\n", result.Profile.Elapsed().Seconds())
	fmt.Fprintf(out, "Wrote %s (%dx%d on %s)\n", cfg.OutputPath, result.Width, result.Height, result.Device.Name)
	if result.Difference != nil {
		fmt.Fprintf(out, "Passed! (max channel difference %d, mse %.4g)\n", result.Difference.MaxAbs, result.Difference.MSE)
	}

	return nil
}
