package filter

import (
	"fmt"
	"image"
)

// Difference summarizes how far two images of equal size are apart over all
// four channels.
type Difference struct {
	SSD    float64 // sum of squared channel differences
	MSE    float64 // SSD / (pixels * 4)
	MaxAbs int     // largest absolute channel difference
}

// Compare measures the per-channel difference between a and b.
func Compare(a, b *image.NRGBA) (Difference, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return Difference{}, fmt.Errorf("image sizes differ: %v vs %v", ab.Size(), bb.Size())
	}
	width, height := ab.Dx(), ab.Dy()
	if width == 0 || height == 0 {
		return Difference{}, nil
	}

	var ssd int64
	maxAbs := 0
	for y := 0; y < height; y++ {
		ra := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
		rb := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]

		n := width * channels
		i := 0
		// Four channels (one pixel) per iteration.
		for ; i+3 < n; i += 4 {
			d0 := int(ra[i]) - int(rb[i])
			d1 := int(ra[i+1]) - int(rb[i+1])
			d2 := int(ra[i+2]) - int(rb[i+2])
			d3 := int(ra[i+3]) - int(rb[i+3])
			ssd += int64(d0*d0 + d1*d1 + d2*d2 + d3*d3)
			maxAbs = max(maxAbs, abs(d0), abs(d1), abs(d2), abs(d3))
		}
	}

	return Difference{
		SSD:    float64(ssd),
		MSE:    float64(ssd) / float64(width*height*channels),
		MaxAbs: maxAbs,
	}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
