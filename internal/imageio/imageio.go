// Package imageio decodes images into 8-bit, 4-channel pixel buffers and
// encodes such buffers back to files.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned by Save for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Load decodes the image at path and normalizes it to a tightly packed
// NRGBA image with origin (0,0).
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return ToNRGBA(img), nil
}

// ToNRGBA converts img to a tightly packed NRGBA image with origin (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	// Copy rows directly when no color conversion is needed.
	if src, ok := img.(*image.NRGBA); ok {
		rowBytes := bounds.Dx() * 4
		for y := 0; y < bounds.Dy(); y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], src.Pix[srcOff:srcOff+rowBytes])
		}
		return dst
	}

	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst
}

// FromPixels wraps a tightly packed width x height NRGBA pixel slice.
func FromPixels(pix []byte, width, height int) (*image.NRGBA, error) {
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer holds %d bytes, want %d", len(pix), width*height*4)
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// Save encodes img to path, choosing the encoder from the file extension.
// The file is only created once the format is known.
func Save(path string, img image.Image) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return f.Close()
}

type encodeFunc func(f *os.File, img image.Image) error

func encoderFor(path string) (encodeFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return func(f *os.File, img image.Image) error { return png.Encode(f, img) }, nil
	case ".jpg", ".jpeg":
		return func(f *os.File, img image.Image) error {
			return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
		}, nil
	case ".gif":
		return func(f *os.File, img image.Image) error { return gif.Encode(f, img, nil) }, nil
	case ".bmp":
		return func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }, nil
	case ".tif", ".tiff":
		return func(f *os.File, img image.Image) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
