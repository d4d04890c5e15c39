package bilateral

import (
	"depthrefine/pkg/raster"
)

// SpatialFilterDepth smooths depth with the spatial Gaussian alone, on the
// depth map's own grid. Cells without measurement are skipped exactly as in
// the joint filter, so the only difference to FilterDepth is the missing
// photometric term. It serves as the non-edge-aware baseline.
func SpatialFilterDepth(depth *raster.Image, sigma float64, kernelSize int, workers int) (*raster.Image, error) {
	if err := raster.CheckDepth(depth); err != nil {
		return nil, err
	}
	f, err := New(Options{Sigma: sigma, KernelSize: kernelSize, Workers: workers})
	if err != nil {
		return nil, err
	}

	// A flat guide makes every range term exp(0) = 1
	flat, err := raster.New(depth.Width, depth.Height, 1)
	if err != nil {
		return nil, err
	}
	return f.Apply(depth, flat)
}
