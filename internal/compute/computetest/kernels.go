package computetest

import (
	"fmt"

	"github.com/cwbudde/clfilter/internal/compute"
	"github.com/cwbudde/clfilter/internal/filter"
)

// GaussianKernel is a host rendition of a filter kernel honouring the
// argument contract. It convolves the input with filter.Convolve once the
// launch grid covers the image; work-items beyond the image extent do
// nothing.
func GaussianKernel(args []any, global, _ [2]int) error {
	in, ok := args[0].(*Buffer)
	if !ok {
		return fmt.Errorf("arg 0: %T", args[0])
	}
	out, ok := args[1].(*Buffer)
	if !ok {
		return fmt.Errorf("arg 1: %T", args[1])
	}
	width := int(args[2].(int32))
	height := int(args[3].(int32))
	radius := int(args[4].(int32))
	coeffs, ok := args[7].(*Buffer)
	if !ok {
		return fmt.Errorf("arg 7: %T", args[7])
	}
	e := compute.DecodeFloat32s(coeffs.Data)
	if len(e) != 2*radius+1 {
		return fmt.Errorf("coefficient array holds %d weights, want %d", len(e), 2*radius+1)
	}
	if global[0] < width || global[1] < height {
		return fmt.Errorf("grid %v does not cover %dx%d", global, width, height)
	}
	return filter.Convolve(out.Data, in.Data, width, height, e)
}

// CopyKernel writes the input image to the output unchanged.
func CopyKernel(args []any, _, _ [2]int) error {
	in, ok := args[0].(*Buffer)
	if !ok {
		return fmt.Errorf("arg 0: %T", args[0])
	}
	out, ok := args[1].(*Buffer)
	if !ok {
		return fmt.Errorf("arg 1: %T", args[1])
	}
	copy(out.Data, in.Data)
	return nil
}
