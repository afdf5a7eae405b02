//go:build !gpu

package opencl

import (
	"errors"
	"testing"

	"github.com/cwbudde/clfilter/internal/compute"
)

func TestNewDriverNotBuilt(t *testing.T) {
	drv, err := NewDriver()
	if drv != nil {
		t.Error("Expected no driver without the gpu build tag")
	}
	if !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Expected ErrNotBuilt, got %v", err)
	}
	if !errors.Is(err, compute.ErrPlatform) {
		t.Errorf("Expected ErrNotBuilt to be a platform error, got %v", err)
	}
}
