package raster

import "depthrefine/pkg/mathutil"

// ResampleNearest maps dm onto a width x height grid by scaling each target
// coordinate with source/target size and truncating, clamped to the source
// grid. No interpolation is performed, so invalid cells stay invalid.
func ResampleNearest(dm *Image, width, height int) (*Image, error) {
	if err := CheckDepth(dm); err != nil {
		return nil, err
	}
	out, err := New(width, height, 1)
	if err != nil {
		return nil, err
	}

	scaleX := float64(dm.Width) / float64(width)
	scaleY := float64(dm.Height) / float64(height)
	for y := 0; y < height; y++ {
		sy := mathutil.Clamp(int(scaleY*float64(y)), 0, dm.Height-1)
		for x := 0; x < width; x++ {
			sx := mathutil.Clamp(int(scaleX*float64(x)), 0, dm.Width-1)
			out.Set(x, y, 0, dm.At(sx, sy, 0))
		}
	}
	return out, nil
}
