package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/clfilter/internal/compute"
	"github.com/cwbudde/clfilter/internal/compute/opencl"
)

// newDriver constructs the compute driver. Tests replace it with a fake.
var newDriver = opencl.NewDriver

var errFilterSize = errors.New("requires 1 argument: filter_size")

func newRootCmd(out io.Writer) *cobra.Command {
	var logLevel string
	opts := defaultRunOptions()

	rootCmd := &cobra.Command{
		Use:   "clfilter filter_size",
		Short: "Gaussian image filter running on an OpenCL device",
		Long: `clfilter blurs an image with a Gaussian window of the given radius.
The filter kernel is compiled at run time from an OpenCL source file and
executed on the first GPU, or on a CPU device when no GPU is present.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errFilterSize
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logger
			var level slog.Level
			switch logLevel {
			case "debug":
				level = slog.LevelDebug
			case "info":
				level = slog.LevelInfo
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			default:
				level = slog.LevelInfo
			}

			handler := slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.OutOrStdout(), opts, args[0])
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	opts.register(rootCmd)

	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// execute runs the command line and returns the process exit code.
func execute(args []string, out io.Writer) int {
	rootCmd := newRootCmd(out)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		var buildErr *compute.BuildError
		if errors.As(err, &buildErr) && buildErr.Log != "" {
			fmt.Fprintf(out, "Build log:\n%s\n", buildErr.Log)
		}
		return 1
	}
	return 0
}
