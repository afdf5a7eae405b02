package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/clfilter/internal/compute"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List OpenCL platforms and devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, err := newDriver()
			if err != nil {
				return err
			}
			platforms, err := compute.EnumeratePlatforms(drv)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(platforms) == 0 {
				fmt.Fprintln(out, "No OpenCL platforms found")
				return nil
			}
			for i, p := range platforms {
				fmt.Fprintf(out, "Platform %d: %s (%s, %s)\n", i, p.Name, p.Vendor, p.Version)
				for j, d := range p.Devices {
					fmt.Fprintf(out, "  Device %d: %s [%s] %s, %d compute units, image support: %t\n",
						j, d.Name, d.Type, d.Version, d.MaxComputeUnits, d.ImageSupport)
				}
			}
			return nil
		},
	}
}
