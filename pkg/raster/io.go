package raster

import (
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeFile decodes any registered image format (PNG, JPEG, TIFF, BMP,
// WebP) from disk.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// LoadDepth reads a depth map. PFM files are taken as float depth
// directly; integer images are converted with DepthFromImage using scale.
func LoadDepth(path string, scale float64) (*Image, error) {
	if isPFM(path) {
		img, err := LoadPFM(path)
		if err != nil {
			return nil, err
		}
		if img.Channels != 1 {
			return img.Channel(0)
		}
		return img, nil
	}

	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return DepthFromImage(img, scale)
}

// LoadGuide reads a guide image with samples normalized to [0,1]. See
// FromImage for the meaning of channels. PFM guides whose samples leave
// [0,1] are rescaled linearly from their own minimum and maximum.
func LoadGuide(path string, channels int) (*Image, error) {
	if isPFM(path) {
		img, err := LoadPFM(path)
		if err != nil {
			return nil, err
		}
		img, err = ConvertChannels(img, channels)
		if err != nil {
			return nil, err
		}
		NormalizeUnit(img)
		return img, nil
	}

	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img, channels)
}

// SaveDepth writes a depth map, choosing the format by extension: .pfm
// keeps full precision, .tif/.tiff and .png store 16-bit units of scale.
// Unsupported extensions are rejected before anything is written.
func SaveDepth(path string, dm *Image, scale float64) error {
	if err := CheckDepth(dm); err != nil {
		return err
	}

	var encode func(w io.Writer, img image.Image) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfm":
	case ".tif", ".tiff":
		encode = func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}
	case ".png":
		encode = png.Encode
	default:
		return errors.Wrapf(ErrInvalidArgument, "unsupported depth format %q", filepath.Ext(path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	if encode == nil {
		return SavePFM(path, dm)
	}

	img, err := ToDepthImage(dm, scale)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

func isPFM(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pfm")
}
