//go:build !gpu

package opencl

import (
	"fmt"

	"github.com/cwbudde/clfilter/internal/compute"
)

// ErrNotBuilt indicates the binary was built without OpenCL support.
var ErrNotBuilt = fmt.Errorf("%w: opencl support requires building with '-tags gpu'", compute.ErrPlatform)

// NewDriver returns an error when OpenCL support is not compiled in.
func NewDriver() (compute.Driver, error) {
	return nil, ErrNotBuilt
}
