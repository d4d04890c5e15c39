package bilateral

import (
	"depthrefine/pkg/mathutil"
	"depthrefine/pkg/raster"
)

// RangeSigma is the fixed standard deviation of the photometric kernel
// for guide samples normalized to [0,1].
const RangeSigma = 0.1

// weightModel scores a neighbour by spatial proximity and by photometric
// similarity in the guide image.
type weightModel struct {
	guide   *raster.Image
	spatial []float64
	radius  int
}

func newWeightModel(guide *raster.Image, sigma float64, radius int) *weightModel {
	side := 2*radius + 1
	spatial := make([]float64, side*side)
	for ky := -radius; ky <= radius; ky++ {
		for kx := -radius; kx <= radius; kx++ {
			spatial[(ky+radius)*side+kx+radius] = mathutil.Gaussian2D(float64(kx), float64(ky), sigma, sigma)
		}
	}
	return &weightModel{
		guide:   guide,
		spatial: spatial,
		radius:  radius,
	}
}

// spatialWeight returns the precomputed spatial term for offset (kx, ky).
func (w *weightModel) spatialWeight(kx, ky int) float64 {
	side := 2*w.radius + 1
	return w.spatial[(ky+w.radius)*side+kx+w.radius]
}

// rangeWeight multiplies the per-channel photometric terms between the
// guide samples at (nx, ny) and the centre (cx, cy).
func (w *weightModel) rangeWeight(nx, ny, cx, cy int) float64 {
	weight := 1.0
	for c := 0; c < w.guide.Channels; c++ {
		weight *= mathutil.Gaussian(w.guide.At(nx, ny, c)-w.guide.At(cx, cy, c), RangeSigma)
	}
	return weight
}

// weight combines the spatial term of offset (kx, ky) with the range term
// of neighbour (nx, ny) against centre (cx, cy).
func (w *weightModel) weight(kx, ky, nx, ny, cx, cy int) float64 {
	return w.spatialWeight(kx, ky) * w.rangeWeight(nx, ny, cx, cy)
}
