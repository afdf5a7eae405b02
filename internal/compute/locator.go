package compute

import (
	"fmt"
	"log/slog"
	"strings"
)

// DeviceDescriptor identifies the selected platform and device. It is
// created once by SelectDevice and not modified afterwards.
type DeviceDescriptor struct {
	platform Platform
	device   Device

	Platform PlatformInfo
	Device   DeviceInfo
}

// ImageSupport reports whether the device supports image memory objects.
func (d *DeviceDescriptor) ImageSupport() bool { return d.Device.ImageSupport }

// NormalizeDeviceType maps arbitrary user input to a device type.
func NormalizeDeviceType(name string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gpu":
		return DeviceTypeGPU, nil
	case "cpu":
		return DeviceTypeCPU, nil
	case "accelerator", "acc":
		return DeviceTypeAccelerator, nil
	default:
		return DeviceTypeUnknown, fmt.Errorf("unknown device type %q", name)
	}
}

// SelectDevice picks the first platform and the first device of the
// preferred type on it, falling back to a CPU device.
func SelectDevice(drv Driver, preferred DeviceType) (*DeviceDescriptor, error) {
	platforms, err := drv.Platforms()
	if err != nil {
		return nil, fmt.Errorf("%w: querying platforms: %w", ErrPlatform, err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no platforms available", ErrNoDevice)
	}

	platform := platforms[0]
	pinfo := platform.Info()
	slog.Debug("Platform chosen", "platform", pinfo.Name, "vendor", pinfo.Vendor, "available", len(platforms))

	candidates := []DeviceType{preferred}
	if preferred != DeviceTypeCPU {
		candidates = append(candidates, DeviceTypeCPU)
	}

	var device Device
	for _, t := range candidates {
		devices, err := platform.Devices(t)
		if err != nil {
			return nil, fmt.Errorf("%w: querying %s devices: %w", ErrNoDevice, t, err)
		}
		slog.Debug("Device query", "type", t, "count", len(devices))
		if len(devices) > 0 {
			device = devices[0]
			break
		}
		if t == preferred && preferred != DeviceTypeCPU {
			slog.Warn("No device of preferred type, falling back to CPU", "preferred", preferred)
		}
	}
	if device == nil {
		return nil, fmt.Errorf("%w: no %s or CPU device on platform %q", ErrNoDevice, preferred, pinfo.Name)
	}

	desc := &DeviceDescriptor{
		platform: platform,
		device:   device,
		Platform: pinfo,
		Device:   device.Info(),
	}

	if !desc.ImageSupport() {
		slog.Warn("Device does not support images; using linear buffers", "device", desc.Device.Name)
	}

	return desc, nil
}

// EnumeratePlatforms returns every platform with all of its devices.
func EnumeratePlatforms(drv Driver) ([]PlatformInfo, error) {
	platforms, err := drv.Platforms()
	if err != nil {
		return nil, fmt.Errorf("%w: querying platforms: %w", ErrPlatform, err)
	}

	out := make([]PlatformInfo, 0, len(platforms))
	for _, p := range platforms {
		info := p.Info()
		devices, err := p.Devices(DeviceTypeAll)
		if err != nil {
			return nil, fmt.Errorf("%w: querying devices of %q: %w", ErrNoDevice, info.Name, err)
		}
		info.Devices = make([]DeviceInfo, len(devices))
		for i, d := range devices {
			info.Devices[i] = d.Info()
		}
		out = append(out, info)
	}
	return out, nil
}
