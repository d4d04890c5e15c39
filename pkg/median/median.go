// Package median provides a windowed median filter for single channel
// rasters such as depth maps.
package median

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"depthrefine/pkg/mathutil"
	"depthrefine/pkg/raster"
)

// MaxWindowSize is the largest accepted window side length.
const MaxWindowSize = 255

// Filter replaces every cell of channel 0 of grid with the median of the
// windowSize x windowSize neighbourhood around it. Coordinates outside the
// grid are clamped to the nearest edge. The result is a new single channel
// raster of the same size.
//
// A nil grid or a window outside [1, MaxWindowSize] is rejected with an error wrapping
// raster.ErrInvalidArgument before anything is allocated.
func Filter(grid *raster.Image, windowSize int) (*raster.Image, error) {
	if grid == nil {
		return nil, errors.Wrap(raster.ErrInvalidArgument, "nil image given")
	}
	if windowSize < 1 || windowSize > MaxWindowSize {
		return nil, errors.Wrapf(raster.ErrInvalidArgument,
			"window size must be in [1, %d], got %d", MaxWindowSize, windowSize)
	}
	if grid.Width < 1 || grid.Height < 1 || grid.Channels < 1 ||
		len(grid.Data) != grid.Width*grid.Height*grid.Channels {
		return nil, errors.Wrapf(raster.ErrInvalidArgument, "malformed image %dx%dx%d",
			grid.Width, grid.Height, grid.Channels)
	}

	out, err := raster.New(grid.Width, grid.Height, 1)
	if err != nil {
		return nil, err
	}
	out.Fill(0)

	// Even sizes extend one cell further towards negative offsets
	lo := -(windowSize / 2)
	hi := lo + windowSize - 1
	window := make([]float64, 0, windowSize*windowSize)

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			window = window[:0]
			for ky := lo; ky <= hi; ky++ {
				sy := mathutil.Clamp(y+ky, 0, grid.Height-1)
				for kx := lo; kx <= hi; kx++ {
					sx := mathutil.Clamp(x+kx, 0, grid.Width-1)
					window = append(window, grid.At(sx, sy, 0))
				}
			}
			out.Set(x, y, 0, Median(window))
		}
	}
	return out, nil
}

// Median returns the median of values, sorting them in place. For an even
// count the lower of the two middle values is returned, so the result is
// always one of the inputs. An empty slice yields 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil)
}
