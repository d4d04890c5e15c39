package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DepthStats summarizes the valid cells of a depth map.
type DepthStats struct {
	Cells      int
	ValidCells int
	ValidRatio float64
	Min        float64
	Max        float64
	Mean       float64
	StdDev     float64
}

// ValidDepths returns the valid samples of a single channel depth map.
func ValidDepths(dm *Image) []float64 {
	values := make([]float64, 0, len(dm.Data))
	for _, v := range dm.Data {
		if Valid(v) {
			values = append(values, v)
		}
	}
	return values
}

// Stats computes DepthStats for dm. Min, Max, Mean and StdDev are zero
// when the map holds no valid cell.
func Stats(dm *Image) (DepthStats, error) {
	if err := CheckDepth(dm); err != nil {
		return DepthStats{}, err
	}

	values := ValidDepths(dm)
	s := DepthStats{
		Cells:      len(dm.Data),
		ValidCells: len(values),
	}
	s.ValidRatio = float64(s.ValidCells) / float64(s.Cells)
	if len(values) == 0 {
		return s, nil
	}

	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if len(values) == 1 {
		s.Mean = values[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	return s, nil
}
