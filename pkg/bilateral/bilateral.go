// Package bilateral implements a joint (cross) bilateral filter that
// denoises and resamples a depth map using a guide image as edge prior.
//
// The output has the guide's resolution. For every output pixel the filter
// walks a square window in guide coordinates, maps each neighbour to the
// nearest depth cell, skips cells without measurement and averages the
// remaining depths weighted by a spatial Gaussian times a photometric
// Gaussian on the guide. Pixels whose window holds no valid depth keep the
// invalid value 0.
package bilateral

import (
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"depthrefine/pkg/mathutil"
	"depthrefine/pkg/raster"
)

// Options configures a Filter.
type Options struct {
	// Sigma is the standard deviation of the spatial kernel in guide pixels
	Sigma float64

	// KernelSize is the half width of the square window; the window side
	// is 2*KernelSize+1
	KernelSize int

	// Workers is the number of goroutines sharing the output rows.
	// Zero or negative selects runtime.NumCPU().
	Workers int
}

// Filter is a configured joint bilateral filter. It holds no state between
// calls and may be used concurrently.
type Filter struct {
	opts Options
}

// New validates opts and returns a Filter.
func New(opts Options) (*Filter, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if !positiveFinite(opts.Sigma) {
		return nil, errors.Wrapf(raster.ErrInvalidArgument, "sigma must be positive and finite, got %v", opts.Sigma)
	}
	if opts.KernelSize < 0 {
		return nil, errors.Wrapf(raster.ErrInvalidArgument, "kernel size must be >= 0, got %d", opts.KernelSize)
	}
	return &Filter{opts: opts}, nil
}

// Options returns the effective options after defaults were applied.
func (f *Filter) Options() Options {
	return f.opts
}

// FilterDepth filters depth with guide using spatial standard deviation
// sigma and window half width kernelSize. The
// result has the guide's width and height and a single channel.
func FilterDepth(depth, guide *raster.Image, sigma float64, kernelSize int) (*raster.Image, error) {
	f, err := New(Options{Sigma: sigma, KernelSize: kernelSize, Workers: 1})
	if err != nil {
		return nil, err
	}
	return f.Apply(depth, guide)
}

// Apply runs the filter. Inputs are only read; the returned depth map is
// newly allocated. Invalid arguments are reported with an error wrapping
// raster.ErrInvalidArgument before any output is allocated.
func (f *Filter) Apply(depth, guide *raster.Image) (*raster.Image, error) {
	if err := raster.CheckDepth(depth); err != nil {
		return nil, err
	}
	if err := raster.CheckGuide(guide); err != nil {
		return nil, err
	}

	mapper := newGridMapper(depth.Width, depth.Height, guide.Width, guide.Height)
	if !mapper.valid() {
		return nil, errors.Wrapf(raster.ErrInvalidArgument,
			"invalid scale factors %v x %v", mapper.scaleX, mapper.scaleY)
	}

	out, err := raster.New(guide.Width, guide.Height, 1)
	if err != nil {
		return nil, err
	}
	out.Fill(raster.Invalid)

	weights := newWeightModel(guide, f.opts.Sigma, f.opts.KernelSize)
	forEachRow(guide.Height, f.opts.Workers, func(y int) {
		for x := 0; x < guide.Width; x++ {
			var accum mathutil.Accum
			f.accumulate(&accum, depth, guide, mapper, weights, x, y)
			if accum.Valid() {
				out.Set(x, y, 0, accum.Normalized())
			}
		}
	})
	return out, nil
}

// accumulate folds the valid depth samples of the window around guide
// pixel (x, y) into accum.
func (f *Filter) accumulate(accum *mathutil.Accum, depth, guide *raster.Image,
	mapper gridMapper, weights *weightModel, x, y int) {
	k := f.opts.KernelSize
	for ky := -k; ky <= k; ky++ {
		for kx := -k; kx <= k; kx++ {
			cx := mathutil.Clamp(x+kx, 0, guide.Width-1)
			cy := mathutil.Clamp(y+ky, 0, guide.Height-1)
			dx, dy := mapper.depthCoord(cx, cy)

			d := depth.At(dx, dy, 0)
			if !raster.Valid(d) {
				continue
			}
			accum.Add(d, weights.weight(kx, ky, cx, cy, x, y))
		}
	}
}

// forEachRow calls fn for every row in [0, height), splitting the rows
// into contiguous bands across workers goroutines.
func forEachRow(height, workers int, fn func(y int)) {
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		for y := 0; y < height; y++ {
			fn(y)
		}
		return
	}

	rowsPerWorker := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, height)
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				fn(y)
			}
		}(start, end)
	}
	wg.Wait()
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
