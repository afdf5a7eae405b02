package filter

import (
	"fmt"
	"image"
	"math"
)

const channels = 4

// Convolve applies the separable window w[dx]*w[dy] to a width x height image
// of 4-channel 8-bit pixels in src and writes the result to dst. Taps outside
// the image are skipped and every output pixel is divided by the sum of the
// weights that contributed, so a uniform image stays uniform.
func Convolve(dst, src []byte, width, height int, weights []float32) error {
	if len(weights)%2 != 1 {
		return fmt.Errorf("%w: %d weights is not an odd window", ErrInvalidFilter, len(weights))
	}
	size := width * height * channels
	if width <= 0 || height <= 0 || len(src) < size || len(dst) < size {
		return fmt.Errorf("image buffers smaller than %dx%d", width, height)
	}
	radius := len(weights) / 2

	for gy := 0; gy < height; gy++ {
		for gx := 0; gx < width; gx++ {
			var acc [channels]float64
			var wsum float64
			for dy := -radius; dy <= radius; dy++ {
				y := gy + dy
				if y < 0 || y >= height {
					continue
				}
				wy := float64(weights[dy+radius])
				for dx := -radius; dx <= radius; dx++ {
					x := gx + dx
					if x < 0 || x >= width {
						continue
					}
					w := wy * float64(weights[dx+radius])
					off := (y*width + x) * channels
					acc[0] += w * float64(src[off])
					acc[1] += w * float64(src[off+1])
					acc[2] += w * float64(src[off+2])
					acc[3] += w * float64(src[off+3])
					wsum += w
				}
			}
			off := (gy*width + gx) * channels
			for c := 0; c < channels; c++ {
				dst[off+c] = clampToByte(acc[c] / wsum)
			}
		}
	}
	return nil
}

// Reference filters img on the host.
func Reference(img *image.NRGBA, weights []float32) (*image.NRGBA, error) {
	b := img.Bounds()
	src := img
	if img.Stride != b.Dx()*channels || b.Min != (image.Point{}) {
		src = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			off := img.PixOffset(b.Min.X, b.Min.Y+y)
			copy(src.Pix[y*src.Stride:], img.Pix[off:off+b.Dx()*channels])
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if err := Convolve(out.Pix, src.Pix, b.Dx(), b.Dy(), weights); err != nil {
		return nil, err
	}
	return out, nil
}

func clampToByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
