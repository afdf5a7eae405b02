package filter

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFilter is returned for filter parameters that do not describe a
// Gaussian window.
var ErrInvalidFilter = errors.New("invalid filter parameters")

// DefaultSigma is the standard deviation used when none is configured.
const DefaultSigma = 10.0

// MaxRadius is the largest accepted radius. The window length 2*radius+1
// stays far inside int32, which is how the radius reaches the kernel.
const MaxRadius = 1 << 15

// GaussianWeights returns the 2*radius+1 unnormalized Gaussian weights
// centred on index radius, and the normalization factor 1/sqrt(2*pi*sigma^2).
// The weights are not multiplied by norm; the kernel applies normalization.
func GaussianWeights(radius int, sigma float64) ([]float32, float32, error) {
	if radius < 0 {
		return nil, 0, fmt.Errorf("%w: radius %d is negative", ErrInvalidFilter, radius)
	}
	if radius > MaxRadius {
		return nil, 0, fmt.Errorf("%w: radius %d exceeds %d", ErrInvalidFilter, radius, MaxRadius)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, 0, fmt.Errorf("%w: sigma %v must be positive", ErrInvalidFilter, sigma)
	}

	n := 2*radius + 1
	weights := make([]float32, n)
	twoSigmaSq := 2 * sigma * sigma
	for x := 0; x <= radius; x++ {
		d := float64(x - radius)
		w := float32(math.Exp(-(d * d) / twoSigmaSq))
		// Mirror so the array is exactly symmetric.
		weights[x] = w
		weights[n-1-x] = w
	}

	norm := float32(1 / math.Sqrt(2*math.Pi*sigma*sigma))
	return weights, norm, nil
}

// Sum returns the sum of weights.
func Sum(weights []float32) float64 {
	var s float64
	for _, w := range weights {
		s += float64(w)
	}
	return s
}
