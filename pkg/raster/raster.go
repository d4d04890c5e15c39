// Package raster holds the floating point image grid shared by the depth
// filters, together with conversion from Go images and file I/O.
//
// Samples are stored row-major with interleaved channels. A depth map is an
// Image with a single channel in which 0 marks a cell without measurement.
package raster

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned (wrapped) whenever a caller passes a
// missing image or parameters outside their documented domain.
var ErrInvalidArgument = errors.New("invalid argument")

// Invalid is the depth value marking a cell without measurement.
const Invalid = 0.0

// MaxSamples bounds Width*Height*Channels of any allocated image (2 GiB of
// float64 samples).
const MaxSamples = 1 << 28

// Image is a width x height grid of float64 samples with a fixed number of
// channels per cell.
type Image struct {
	Width    int
	Height   int
	Channels int

	// Data holds Width*Height*Channels samples, row-major, channels interleaved
	Data []float64
}

// New allocates a zero-filled image.
func New(width, height, channels int) (*Image, error) {
	if width < 1 || height < 1 || channels < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"image dimensions must be positive, got %dx%dx%d", width, height, channels)
	}
	if width > MaxSamples/height/channels {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"image %dx%dx%d exceeds %d samples", width, height, channels, MaxSamples)
	}
	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float64, width*height*channels),
	}, nil
}

// FromData wraps an existing sample slice. The slice is not copied.
func FromData(width, height, channels int, data []float64) (*Image, error) {
	if width < 1 || height < 1 || channels < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"image dimensions must be positive, got %dx%dx%d", width, height, channels)
	}
	if len(data) != width*height*channels {
		return nil, errors.Wrapf(ErrInvalidArgument,
			"expected %d samples for %dx%dx%d image, got %d",
			width*height*channels, width, height, channels, len(data))
	}
	return &Image{Width: width, Height: height, Channels: channels, Data: data}, nil
}

// index returns the offset of sample (x, y, c) in Data.
func (m *Image) index(x, y, c int) int {
	return (y*m.Width+x)*m.Channels + c
}

// At returns the sample at (x, y, c).
func (m *Image) At(x, y, c int) float64 {
	return m.Data[m.index(x, y, c)]
}

// Set stores v at (x, y, c).
func (m *Image) Set(x, y, c int, v float64) {
	m.Data[m.index(x, y, c)] = v
}

// In reports whether (x, y) lies inside the grid.
func (m *Image) In(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Fill sets every sample to v.
func (m *Image) Fill(v float64) {
	for i := range m.Data {
		m.Data[i] = v
	}
}

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return &Image{Width: m.Width, Height: m.Height, Channels: m.Channels, Data: data}
}

// Channel extracts channel c as a new single channel image.
func (m *Image) Channel(c int) (*Image, error) {
	if c < 0 || c >= m.Channels {
		return nil, errors.Wrapf(ErrInvalidArgument, "channel %d out of range [0,%d)", c, m.Channels)
	}
	out, _ := New(m.Width, m.Height, 1)
	for i := 0; i < m.Width*m.Height; i++ {
		out.Data[i] = m.Data[i*m.Channels+c]
	}
	return out, nil
}

// Valid reports whether a depth sample carries a measurement.
func Valid(v float64) bool {
	return v != Invalid && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckDepth verifies that dm is a usable single channel depth map.
func CheckDepth(dm *Image) error {
	if dm == nil {
		return errors.Wrap(ErrInvalidArgument, "nil depth map")
	}
	if dm.Width < 1 || dm.Height < 1 {
		return errors.Wrapf(ErrInvalidArgument, "empty depth map %dx%d", dm.Width, dm.Height)
	}
	if dm.Channels != 1 {
		return errors.Wrapf(ErrInvalidArgument, "depth map must have 1 channel, got %d", dm.Channels)
	}
	if len(dm.Data) != dm.Width*dm.Height {
		return errors.Wrapf(ErrInvalidArgument, "depth map holds %d samples, want %d", len(dm.Data), dm.Width*dm.Height)
	}
	return nil
}

// CheckGuide verifies that g is a usable guide image.
func CheckGuide(g *Image) error {
	if g == nil {
		return errors.Wrap(ErrInvalidArgument, "nil guide image")
	}
	if g.Width < 1 || g.Height < 1 {
		return errors.Wrapf(ErrInvalidArgument, "empty guide image %dx%d", g.Width, g.Height)
	}
	if g.Channels < 1 {
		return errors.Wrap(ErrInvalidArgument, "guide image has no channels")
	}
	if len(g.Data) != g.Width*g.Height*g.Channels {
		return errors.Wrapf(ErrInvalidArgument, "guide image holds %d samples, want %d",
			len(g.Data), g.Width*g.Height*g.Channels)
	}
	return nil
}
