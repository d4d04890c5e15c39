package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// ReadPFM decodes a portable float map. "Pf" files yield one channel and
// "PF" files three. Rows are stored bottom to top; a negative scale in the
// header marks little-endian samples.
func ReadPFM(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	var magic string
	var width, height int
	var scale float64
	if _, err := fmt.Fscan(br, &magic, &width, &height, &scale); err != nil {
		return nil, errors.Wrap(err, "read pfm header")
	}
	// Exactly one whitespace byte separates the header from the samples
	if _, err := br.ReadByte(); err != nil {
		return nil, errors.Wrap(err, "read pfm header")
	}

	channels := 0
	switch magic {
	case "Pf":
		channels = 1
	case "PF":
		channels = 3
	default:
		return nil, errors.Errorf("unsupported pfm magic %q", magic)
	}
	if scale == 0 {
		return nil, errors.New("pfm scale must be non-zero")
	}

	var order binary.ByteOrder = binary.BigEndian
	if scale < 0 {
		order = binary.LittleEndian
	}

	img, err := New(width, height, channels)
	if err != nil {
		return nil, err
	}

	row := make([]float32, width*channels)
	for y := height - 1; y >= 0; y-- {
		if err := binary.Read(br, order, row); err != nil {
			return nil, errors.Wrapf(err, "read pfm row %d", y)
		}
		base := y * width * channels
		for i, v := range row {
			img.Data[base+i] = float64(v)
		}
	}
	return img, nil
}

// WritePFM encodes img as a little-endian portable float map. Only 1 and 3
// channel images can be represented.
func WritePFM(w io.Writer, img *Image) error {
	if img == nil {
		return errors.Wrap(ErrInvalidArgument, "nil image")
	}
	magic := ""
	switch img.Channels {
	case 1:
		magic = "Pf"
	case 3:
		magic = "PF"
	default:
		return errors.Wrapf(ErrInvalidArgument, "pfm cannot store %d channels", img.Channels)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n-1.0\n", magic, img.Width, img.Height); err != nil {
		return err
	}

	row := make([]float32, img.Width*img.Channels)
	for y := img.Height - 1; y >= 0; y-- {
		base := y * img.Width * img.Channels
		for i := range row {
			v := img.Data[base+i]
			if math.IsNaN(v) {
				v = 0
			}
			row[i] = float32(v)
		}
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return errors.Wrapf(err, "write pfm row %d", y)
		}
	}
	return bw.Flush()
}

// LoadPFM reads a portable float map from disk.
func LoadPFM(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := ReadPFM(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// SavePFM writes img to disk as a portable float map.
func SavePFM(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePFM(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}
