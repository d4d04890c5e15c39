// Package visualization renders depth maps and guide images into viewable
// previews for inspecting the stages of a refinement run.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"depthrefine/pkg/raster"
)

// Viewer renders a raster as an 8/16-bit preview. Depth maps are mapped
// linearly from their valid [min, max] range onto gray levels; cells without
// measurement are drawn black.
type Viewer struct {
	img *raster.Image

	// value range used for normalization of depth maps
	min float64
	max float64
}

// NewViewer creates a viewer for a single channel depth map or a 1 or 3
// channel guide image.
func NewViewer(img *raster.Image) (*Viewer, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if img.Channels != 1 && img.Channels != 3 {
		return nil, fmt.Errorf("cannot render %d channels", img.Channels)
	}

	v := &Viewer{img: img}
	if img.Channels == 1 {
		v.min, v.max = depthRange(img)
	}
	return v, nil
}

// Range returns the depth range used for normalization.
func (v *Viewer) Range() (min, max float64) {
	return v.min, v.max
}

// Render converts the raster to an image. Single channel rasters become
// image.Gray16 with valid depths in [1, 65535]; three channel guides become
// image.RGBA64 assuming samples in [0,1].
func (v *Viewer) Render() image.Image {
	if v.img.Channels == 3 {
		return v.renderColor()
	}
	return v.renderDepth()
}

func (v *Viewer) renderDepth() *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, v.img.Width, v.img.Height))
	span := v.max - v.min

	for y := 0; y < v.img.Height; y++ {
		for x := 0; x < v.img.Width; x++ {
			d := v.img.At(x, y, 0)
			if !raster.Valid(d) {
				continue
			}
			t := 1.0
			if span > 0 {
				t = (d - v.min) / span
			}
			// Keep valid cells distinguishable from holes
			level := 1 + math.Round(t*65534)
			out.SetGray16(x, y, color.Gray16{Y: uint16(math.Max(1, math.Min(65535, level)))})
		}
	}
	return out
}

func (v *Viewer) renderColor() *image.RGBA64 {
	out := image.NewRGBA64(image.Rect(0, 0, v.img.Width, v.img.Height))
	for y := 0; y < v.img.Height; y++ {
		for x := 0; x < v.img.Width; x++ {
			out.SetRGBA64(x, y, color.RGBA64{
				R: to16(v.img.At(x, y, 0)),
				G: to16(v.img.At(x, y, 1)),
				B: to16(v.img.At(x, y, 2)),
				A: 0xffff,
			})
		}
	}
	return out
}

// Preview renders the raster and scales it down so that its longer side is
// at most maxSize. A maxSize of 0, or an image already small enough, is
// returned at full resolution.
func (v *Viewer) Preview(maxSize int) image.Image {
	img := v.Render()
	w, h := v.img.Width, v.img.Height
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}

	scale := float64(maxSize) / float64(max(w, h))
	pw := max(1, int(math.Round(float64(w)*scale)))
	ph := max(1, int(math.Round(float64(h)*scale)))

	var dst draw.Image
	if v.img.Channels == 1 {
		// Nearest neighbour keeps holes from smearing into valid depth
		g := image.NewGray16(image.Rect(0, 0, pw, ph))
		draw.NearestNeighbor.Scale(g, g.Bounds(), img, img.Bounds(), draw.Src, nil)
		dst = g
	} else {
		c := image.NewRGBA64(image.Rect(0, 0, pw, ph))
		draw.CatmullRom.Scale(c, c.Bounds(), img, img.Bounds(), draw.Src, nil)
		dst = c
	}
	return dst
}

// SavePreview writes a preview to filename as PNG, or as JPEG when the
// extension is .jpg or .jpeg.
func (v *Viewer) SavePreview(filename string, maxSize int) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	img := v.Preview(maxSize)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(file, img)
	}
}

// depthRange returns the minimum and maximum valid depth, or (0, 0) when
// there is none.
func depthRange(img *raster.Image) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, d := range img.Data {
		if !raster.Valid(d) {
			continue
		}
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	if math.IsInf(min, 1) {
		return 0, 0
	}
	return min, max
}

func to16(v float64) uint16 {
	return uint16(math.Max(0, math.Min(65535, math.Round(v*65535))))
}
