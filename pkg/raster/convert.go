package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// FromImage converts a decoded image into a guide raster with samples in
// [0,1]. channels selects the layout: 1 yields luminance, 3 yields RGB and
// 0 picks 1 for gray sources and 3 otherwise.
func FromImage(img image.Image, channels int) (*Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil image")
	}
	if channels == 0 {
		channels = 3
		if isGray(img) {
			channels = 1
		}
	}
	if channels != 1 && channels != 3 {
		return nil, errors.Wrapf(ErrInvalidArgument, "unsupported channel count %d", channels)
	}

	b := img.Bounds()
	out, err := New(b.Dx(), b.Dy(), channels)
	if err != nil {
		return nil, err
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if channels == 1 {
				g := color.Gray16Model.Convert(c).(color.Gray16)
				out.Set(x, y, 0, float64(g.Y)/65535.0)
				continue
			}
			r, g, bl, _ := c.RGBA()
			out.Set(x, y, 0, float64(r)/65535.0)
			out.Set(x, y, 1, float64(g)/65535.0)
			out.Set(x, y, 2, float64(bl)/65535.0)
		}
	}
	return out, nil
}

// ConvertChannels returns img with the requested channel layout. 0 keeps
// img unchanged, 1 reduces RGB to luminance and 3 replicates a single
// channel. Other combinations are rejected.
func ConvertChannels(img *Image, channels int) (*Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil image")
	}
	if channels == 0 || channels == img.Channels {
		return img, nil
	}

	out, err := New(img.Width, img.Height, channels)
	if err != nil {
		return nil, err
	}
	switch {
	case channels == 1 && img.Channels == 3:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				l := 0.299*img.At(x, y, 0) + 0.587*img.At(x, y, 1) + 0.114*img.At(x, y, 2)
				out.Set(x, y, 0, l)
			}
		}
	case channels == 3 && img.Channels == 1:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				v := img.At(x, y, 0)
				out.Set(x, y, 0, v)
				out.Set(x, y, 1, v)
				out.Set(x, y, 2, v)
			}
		}
	default:
		return nil, errors.Wrapf(ErrInvalidArgument,
			"cannot convert %d channels to %d", img.Channels, channels)
	}
	return out, nil
}

// NormalizeUnit rescales img in place to [0,1] using its minimum and
// maximum sample when any finite sample lies outside that range. Non-finite
// samples become 0.
func NormalizeUnit(img *Image) {
	finite := make([]float64, 0, len(img.Data))
	for i, v := range img.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			img.Data[i] = 0
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return
	}
	lo, hi := floats.Min(finite), floats.Max(finite)
	if lo >= 0 && hi <= 1 {
		return
	}
	span := hi - lo
	for i, v := range img.Data {
		if span == 0 {
			img.Data[i] = 0
			continue
		}
		img.Data[i] = (v - lo) / span
	}
}

// DepthFromImage converts a gray image holding integer depth units into a
// depth map. Each raw sample (8-bit for gray sources, 16-bit otherwise) is
// multiplied by scale; raw 0 stays the invalid marker.
func DepthFromImage(img image.Image, scale float64) (*Image, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil image")
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, errors.Wrapf(ErrInvalidArgument, "depth scale must be positive, got %v", scale)
	}

	b := img.Bounds()
	out, err := New(b.Dx(), b.Dy(), 1)
	if err != nil {
		return nil, err
	}

	gray16, _ := img.(*image.Gray16)
	gray8 := img.ColorModel() == color.GrayModel
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			px, py := b.Min.X+x, b.Min.Y+y
			var raw uint16
			switch {
			case gray16 != nil:
				raw = gray16.Gray16At(px, py).Y
			case gray8:
				raw = uint16(color.GrayModel.Convert(img.At(px, py)).(color.Gray).Y)
			default:
				raw = color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y
			}
			out.Set(x, y, 0, float64(raw)*scale)
		}
	}
	return out, nil
}

// ToDepthImage quantizes a depth map back to 16-bit integer units. Values
// are divided by scale, rounded and clamped to the uint16 range; invalid
// cells become 0.
func ToDepthImage(dm *Image, scale float64) (*image.Gray16, error) {
	if err := CheckDepth(dm); err != nil {
		return nil, err
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, errors.Wrapf(ErrInvalidArgument, "depth scale must be positive, got %v", scale)
	}

	img := image.NewGray16(image.Rect(0, 0, dm.Width, dm.Height))
	for y := 0; y < dm.Height; y++ {
		for x := 0; x < dm.Width; x++ {
			v := dm.At(x, y, 0)
			if !Valid(v) {
				continue
			}
			raw := math.Round(v / scale)
			raw = math.Max(0, math.Min(65535, raw))
			img.SetGray16(x, y, color.Gray16{Y: uint16(raw)})
		}
	}
	return img, nil
}

// isGray reports whether img uses a single-channel color model.
func isGray(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}
