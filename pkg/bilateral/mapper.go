package bilateral

import (
	"math"

	"depthrefine/pkg/mathutil"
)

// gridMapper converts guide image coordinates into the nearest depth map
// cell when the two grids have different resolutions.
type gridMapper struct {
	scaleX float64
	scaleY float64
	maxX   int
	maxY   int
}

func newGridMapper(depthW, depthH, guideW, guideH int) gridMapper {
	return gridMapper{
		scaleX: float64(depthW) / float64(guideW),
		scaleY: float64(depthH) / float64(guideH),
		maxX:   depthW - 1,
		maxY:   depthH - 1,
	}
}

// valid reports whether both scale factors are finite and positive.
func (m gridMapper) valid() bool {
	return m.scaleX > 0 && m.scaleY > 0 &&
		!math.IsInf(m.scaleX, 0) && !math.IsInf(m.scaleY, 0)
}

// depthCoord maps guide pixel (x, y) to a depth cell by scaling and
// truncating, clamped into the depth grid.
func (m gridMapper) depthCoord(x, y int) (int, int) {
	dx := int(math.Floor(m.scaleX * float64(x)))
	dy := int(math.Floor(m.scaleY * float64(y)))
	return mathutil.Clamp(dx, 0, m.maxX), mathutil.Clamp(dy, 0, m.maxY)
}
