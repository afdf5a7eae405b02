package compute

import (
	"fmt"
	"log/slog"
)

// Session owns the context and the profiling-enabled command queue bound to
// one device. It is created by the orchestrator and passed explicitly to
// every stage that talks to the device.
type Session struct {
	Device  *DeviceDescriptor
	context Context
	queue   Queue
}

// NewSession creates a context and an in-order, profiling-enabled queue on
// the selected device.
func NewSession(drv Driver, desc *DeviceDescriptor) (*Session, error) {
	if desc == nil || desc.device == nil {
		return nil, fmt.Errorf("%w: no device selected", ErrNoDevice)
	}

	ctx, err := drv.CreateContext(desc.device)
	if err != nil {
		return nil, fmt.Errorf("%w: creating context: %w", ErrPlatform, err)
	}

	queue, err := ctx.CreateQueue(desc.device, true)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("%w: creating command queue: %w", ErrPlatform, err)
	}

	slog.Info("Compute session created",
		"platform", desc.Platform.Name,
		"device", desc.Device.Name,
		"type", desc.Device.Type,
		"compute_units", desc.Device.MaxComputeUnits,
	)

	return &Session{
		Device:  desc,
		context: ctx,
		queue:   queue,
	}, nil
}

// Close drains the queue, then releases the queue and the context.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.queue != nil {
		if err := s.queue.Finish(); err != nil {
			slog.Warn("Command queue did not drain", "err", err)
		}
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}
