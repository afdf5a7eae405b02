package compute

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
)

// Channels is the number of 8-bit channels per pixel in device images.
const Channels = 4

// ImageByteSize returns the byte size of a width x height image with
// Channels 8-bit channels.
func ImageByteSize(width, height int) int {
	return width * height * Channels
}

// ImageBuffer is a device buffer holding an RGBA-equivalent 8-bit image.
type ImageBuffer struct {
	Buffer Buffer
	Width  int
	Height int
	Mode   AccessMode
}

// ByteSize returns width*height*channels.
func (b *ImageBuffer) ByteSize() int {
	return ImageByteSize(b.Width, b.Height)
}

// Release releases the device buffer.
func (b *ImageBuffer) Release() {
	if b == nil || b.Buffer == nil {
		return
	}
	b.Buffer.Release()
	b.Buffer = nil
}

// CoefficientBuffer is a device buffer holding the filter weights.
type CoefficientBuffer struct {
	Buffer  Buffer
	Weights []float32
}

// Release releases the device buffer.
func (b *CoefficientBuffer) Release() {
	if b == nil || b.Buffer == nil {
		return
	}
	b.Buffer.Release()
	b.Buffer = nil
}

// CreateInputBuffer allocates a read-only buffer initialised from pix.
func (s *Session) CreateInputBuffer(pix []byte, width, height int) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid image size %dx%d", ErrAllocation, width, height)
	}
	size := ImageByteSize(width, height)
	if len(pix) != size {
		return nil, fmt.Errorf("%w: input holds %d bytes, want %d", ErrAllocation, len(pix), size)
	}

	buf, err := s.context.CreateBuffer(ReadOnly, pix)
	if err != nil {
		return nil, fmt.Errorf("%w: input image: %w", ErrAllocation, err)
	}
	slog.Debug("Input buffer allocated", "bytes", size)

	return &ImageBuffer{Buffer: buf, Width: width, Height: height, Mode: ReadOnly}, nil
}

// CreateOutputBuffer allocates a write-only buffer initialised from a zeroed
// host slice, so device writes are observable against a known baseline.
func (s *Session) CreateOutputBuffer(width, height int) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid image size %dx%d", ErrAllocation, width, height)
	}
	size := ImageByteSize(width, height)
	zeroed := make([]byte, size)

	buf, err := s.context.CreateBuffer(WriteOnly, zeroed)
	if err != nil {
		return nil, fmt.Errorf("%w: output image: %w", ErrAllocation, err)
	}
	slog.Debug("Output buffer allocated", "bytes", size)

	return &ImageBuffer{Buffer: buf, Width: width, Height: height, Mode: WriteOnly}, nil
}

// CreateCoefficientBuffer allocates a read-only buffer holding weights as
// host-endian float32 values.
func (s *Session) CreateCoefficientBuffer(weights []float32) (*CoefficientBuffer, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: empty coefficient array", ErrAllocation)
	}

	buf, err := s.context.CreateBuffer(ReadOnly, EncodeFloat32s(weights))
	if err != nil {
		return nil, fmt.Errorf("%w: coefficients: %w", ErrAllocation, err)
	}
	slog.Debug("Coefficient buffer allocated", "weights", len(weights))

	return &CoefficientBuffer{Buffer: buf, Weights: weights}, nil
}

// EncodeFloat32s lays out values in host byte order, as device memory expects.
func EncodeFloat32s(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.NativeEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// DecodeFloat32s is the inverse of EncodeFloat32s.
func DecodeFloat32s(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(data[i*4:]))
	}
	return out
}
