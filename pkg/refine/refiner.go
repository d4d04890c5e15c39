// Package refine runs depth refinement for single views and batches: it
// loads a depth map and its guide image, applies the configured filter,
// writes the result and reports quality metrics.
package refine

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/floats"

	"depthrefine/internal/models"
	"depthrefine/pkg/bilateral"
	"depthrefine/pkg/config"
	"depthrefine/pkg/median"
	"depthrefine/pkg/progress"
	"depthrefine/pkg/raster"
	"depthrefine/pkg/visualization"
)

// Metrics describes how a view changed during refinement.
type Metrics struct {
	// Input and Output summarize the valid cells before and after filtering
	Input  raster.DepthStats
	Output raster.DepthStats

	// FillGain is the change of the valid cell ratio; positive values mean
	// holes were filled
	FillGain float64

	// RMSE is the root mean square difference between the output and the
	// input resampled onto the output grid, over cells valid in both
	RMSE float64

	// Compared is the number of cells that entered RMSE
	Compared int

	// Duration is the wall time of the filter step alone
	Duration time.Duration
}

// Result is the outcome of refining one view.
type Result struct {
	View    models.View
	Depth   *raster.Image
	Metrics Metrics
}

// Refiner applies the filter described by a configuration to views.
type Refiner struct {
	cfg *config.Config
	log io.Writer
}

// NewRefiner validates cfg and creates a refiner. Step messages go to
// standard output when cfg.Output.Verbose is set.
func NewRefiner(cfg *config.Config) (*Refiner, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Refiner{cfg: cfg, log: io.Discard}
	if cfg.Output.Verbose {
		r.log = os.Stdout
	}
	return r, nil
}

// SetLogOutput redirects step messages.
func (r *Refiner) SetLogOutput(w io.Writer) {
	r.log = w
}

func (r *Refiner) logf(format string, args ...interface{}) {
	fmt.Fprintf(r.log, format, args...)
}

// Process refines a single view: load, filter, save and measure.
func (r *Refiner) Process(view models.View) (*Result, error) {
	r.logf("Step 1: Loading view %s...\n", view.ID)
	depth, err := raster.LoadDepth(view.Depth, r.cfg.Input.DepthScale)
	if err != nil {
		return nil, fmt.Errorf("failed to load depth map: %w", err)
	}

	var guide *raster.Image
	if r.cfg.Filter.Mode == config.ModeBilateral {
		guide, err = raster.LoadGuide(view.Guide, r.cfg.Input.GuideChannels)
		if err != nil {
			return nil, fmt.Errorf("failed to load guide image: %w", err)
		}
		r.logf("Loaded depth %dx%d and guide %dx%dx%d\n",
			depth.Width, depth.Height, guide.Width, guide.Height, guide.Channels)
	} else {
		r.logf("Loaded depth %dx%d\n", depth.Width, depth.Height)
	}

	r.saveStage(view, "01_input_depth", depth)
	if guide != nil {
		r.saveStage(view, "02_guide", guide)
	}

	r.logf("Step 2: Applying %s filter...\n", r.cfg.Filter.Mode)
	res, err := r.Refine(view, depth, guide)
	if err != nil {
		return nil, err
	}
	r.saveStage(view, "03_filtered_depth", res.Depth)

	if view.Output != "" {
		r.logf("Step 3: Saving refined depth to %s\n", view.Output)
		if err := raster.SaveDepth(view.Output, res.Depth, r.cfg.Input.DepthScale); err != nil {
			return nil, fmt.Errorf("failed to save depth map: %w", err)
		}
	}

	r.logf("Valid cells: %.1f%% -> %.1f%%, RMSE %.6f over %d cells (%s)\n",
		100*res.Metrics.Input.ValidRatio, 100*res.Metrics.Output.ValidRatio,
		res.Metrics.RMSE, res.Metrics.Compared, res.Metrics.Duration.Round(time.Millisecond))
	return res, nil
}

// Refine filters in-memory rasters. guide may be nil for the median and
// gaussian modes.
func (r *Refiner) Refine(view models.View, depth, guide *raster.Image) (*Result, error) {
	start := time.Now()
	out, err := r.filter(depth, guide)
	if err != nil {
		return nil, fmt.Errorf("%s filter failed: %w", r.cfg.Filter.Mode, err)
	}
	elapsed := time.Since(start)

	metrics, err := Measure(depth, out)
	if err != nil {
		return nil, err
	}
	metrics.Duration = elapsed
	return &Result{View: view, Depth: out, Metrics: metrics}, nil
}

func (r *Refiner) filter(depth, guide *raster.Image) (*raster.Image, error) {
	f := r.cfg.Filter
	switch f.Mode {
	case config.ModeMedian:
		return median.Filter(depth, f.MedianWindow)
	case config.ModeGaussian:
		return bilateral.SpatialFilterDepth(depth, f.Sigma, f.KernelSize, f.Workers)
	default:
		jbf, err := bilateral.New(bilateral.Options{
			Sigma:      f.Sigma,
			KernelSize: f.KernelSize,
			Workers:    f.Workers,
		})
		if err != nil {
			return nil, err
		}
		return jbf.Apply(depth, guide)
	}
}

// Measure compares a filtered depth map against its input.
func Measure(input, output *raster.Image) (Metrics, error) {
	var m Metrics
	var err error
	if m.Input, err = raster.Stats(input); err != nil {
		return m, err
	}
	if m.Output, err = raster.Stats(output); err != nil {
		return m, err
	}
	m.FillGain = m.Output.ValidRatio - m.Input.ValidRatio

	resampled, err := raster.ResampleNearest(input, output.Width, output.Height)
	if err != nil {
		return m, err
	}
	var a, b []float64
	for i, v := range output.Data {
		if raster.Valid(v) && raster.Valid(resampled.Data[i]) {
			a = append(a, v)
			b = append(b, resampled.Data[i])
		}
	}
	m.Compared = len(a)
	if m.Compared > 0 {
		m.RMSE = floats.Distance(a, b, 2) / math.Sqrt(float64(m.Compared))
	}
	return m, nil
}

// saveStage writes a preview of img for the given stage when intermediary
// results are enabled. Failures are reported but do not stop processing.
func (r *Refiner) saveStage(view models.View, stage string, img *raster.Image) {
	if !r.cfg.Output.SaveIntermediaryResults {
		return
	}
	viewer, err := visualization.NewViewer(img)
	if err == nil {
		path := filepath.Join(r.cfg.Output.IntermediaryDir, view.ID, stage+".png")
		err = viewer.SavePreview(path, r.cfg.Output.PreviewMaxSize)
	}
	if err != nil {
		r.logf("Warning: Failed to save %s for view %s: %v\n", stage, view.ID, err)
	}
}

// RunBatch refines views one after another, reporting their status to
// printer (which may be nil). A failing view is marked Failed and the batch
// continues; views without a depth path are Ignored. The first error is
// returned after all views were attempted. Cancelling ctx stops before the
// next view.
func (r *Refiner) RunBatch(ctx context.Context, views []models.View, printer *progress.Printer) ([]*Result, error) {
	results := make([]*Result, len(views))
	setStatus := func(i int, s progress.Status) {
		if printer != nil {
			printer.SetStatus(i, s)
		}
	}

	var firstErr error
	for i, view := range views {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if view.Depth == "" {
			setStatus(i, progress.Ignored)
			continue
		}

		setStatus(i, progress.InProgress)
		res, err := r.Process(view)
		if err != nil {
			setStatus(i, progress.Failed)
			r.logf("Warning: view %s failed: %v\n", view.ID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("view %s: %w", view.ID, err)
			}
			continue
		}
		results[i] = res
		setStatus(i, progress.Done)
	}
	return results, firstErr
}
