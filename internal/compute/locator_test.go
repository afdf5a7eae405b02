package compute_test

import (
	"errors"
	"testing"

	"github.com/cwbudde/clfilter/internal/compute"
	"github.com/cwbudde/clfilter/internal/compute/computetest"
)

func TestSelectDevicePrefersGPU(t *testing.T) {
	drv := computetest.New()
	drv.SetDevices(
		compute.DeviceInfo{Name: "cpu0", Type: compute.DeviceTypeCPU},
		compute.DeviceInfo{Name: "gpu0", Type: compute.DeviceTypeGPU, ImageSupport: true},
		compute.DeviceInfo{Name: "gpu1", Type: compute.DeviceTypeGPU},
	)

	desc, err := compute.SelectDevice(drv, compute.DeviceTypeGPU)
	if err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	if desc.Device.Name != "gpu0" {
		t.Errorf("Expected first GPU, got %s", desc.Device.Name)
	}
	if desc.Platform.Name != "Fake Platform" {
		t.Errorf("Expected first platform, got %s", desc.Platform.Name)
	}
	if !desc.ImageSupport() {
		t.Error("Expected image support")
	}
}

func TestSelectDeviceFallsBackToCPU(t *testing.T) {
	drv := computetest.New()
	drv.SetDevices(compute.DeviceInfo{Name: "cpu0", Type: compute.DeviceTypeCPU})

	desc, err := compute.SelectDevice(drv, compute.DeviceTypeGPU)
	if err != nil {
		t.Fatalf("SelectDevice failed: %v", err)
	}
	if desc.Device.Name != "cpu0" {
		t.Errorf("Expected CPU fallback, got %s", desc.Device.Name)
	}
	if drv.DeviceQueries != 2 {
		t.Errorf("Expected 2 device queries, got %d", drv.DeviceQueries)
	}
	if desc.ImageSupport() {
		t.Error("Expected no image support")
	}
}

func TestSelectDeviceUsesFirstPlatformOnly(t *testing.T) {
	drv := computetest.New()
	drv.SetDevices()
	drv.AddPlatform("Other", compute.DeviceInfo{Name: "gpu-other", Type: compute.DeviceTypeGPU})

	_, err := compute.SelectDevice(drv, compute.DeviceTypeGPU)
	if !errors.Is(err, compute.ErrNoDevice) {
		t.Fatalf("Expected ErrNoDevice, got %v", err)
	}
}

func TestSelectDeviceErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(d *computetest.Driver)
		wantErr error
	}{
		{
			name:    "platform query fails",
			setup:   func(d *computetest.Driver) { d.PlatformErr = compute.NewStatusError("clGetPlatformIDs", compute.StatusPlatformNotFoundKHR) },
			wantErr: compute.ErrPlatform,
		},
		{
			name:    "no platforms",
			setup:   func(d *computetest.Driver) { d.PlatformList = nil },
			wantErr: compute.ErrNoDevice,
		},
		{
			name:    "no devices",
			setup:   func(d *computetest.Driver) { d.SetDevices() },
			wantErr: compute.ErrNoDevice,
		},
		{
			name: "accelerator only",
			setup: func(d *computetest.Driver) {
				d.SetDevices(compute.DeviceInfo{Name: "acc0", Type: compute.DeviceTypeAccelerator})
			},
			wantErr: compute.ErrNoDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := computetest.New()
			tt.setup(drv)

			desc, err := compute.SelectDevice(drv, compute.DeviceTypeGPU)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if desc != nil {
				t.Error("Expected no descriptor")
			}
		})
	}
}

func TestSelectDeviceCPUPreferredQueriesOnce(t *testing.T) {
	drv := computetest.New()

	_, err := compute.SelectDevice(drv, compute.DeviceTypeCPU)
	if !errors.Is(err, compute.ErrNoDevice) {
		t.Fatalf("Expected ErrNoDevice, got %v", err)
	}
	if drv.DeviceQueries != 1 {
		t.Errorf("Expected 1 device query, got %d", drv.DeviceQueries)
	}
}

func TestNormalizeDeviceType(t *testing.T) {
	tests := []struct {
		in      string
		want    compute.DeviceType
		wantErr bool
	}{
		{"", compute.DeviceTypeGPU, false},
		{"gpu", compute.DeviceTypeGPU, false},
		{" GPU ", compute.DeviceTypeGPU, false},
		{"cpu", compute.DeviceTypeCPU, false},
		{"acc", compute.DeviceTypeAccelerator, false},
		{"Accelerator", compute.DeviceTypeAccelerator, false},
		{"fpga", compute.DeviceTypeUnknown, true},
	}

	for _, tt := range tests {
		got, err := compute.NormalizeDeviceType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeDeviceType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("NormalizeDeviceType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEnumeratePlatforms(t *testing.T) {
	drv := computetest.New()
	drv.AddPlatform("Second", compute.DeviceInfo{Name: "cpu0", Type: compute.DeviceTypeCPU}, compute.DeviceInfo{Name: "acc0", Type: compute.DeviceTypeAccelerator})

	platforms, err := compute.EnumeratePlatforms(drv)
	if err != nil {
		t.Fatalf("EnumeratePlatforms failed: %v", err)
	}
	if len(platforms) != 2 {
		t.Fatalf("Expected 2 platforms, got %d", len(platforms))
	}
	if len(platforms[0].Devices) != 1 || platforms[0].Devices[0].Name != "Fake GPU" {
		t.Errorf("Unexpected devices on first platform: %+v", platforms[0].Devices)
	}
	if len(platforms[1].Devices) != 2 {
		t.Errorf("Expected 2 devices on second platform, got %d", len(platforms[1].Devices))
	}
}
