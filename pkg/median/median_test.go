package median

import (
	"testing"

	"github.com/pkg/errors"

	"depthrefine/pkg/raster"
)

// TestFilterNil verifies that a missing input is rejected
func TestFilterNil(t *testing.T) {
	out, err := Filter(nil, 3)
	if !errors.Is(err, raster.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if out != nil {
		t.Errorf("No output should be allocated for a nil input")
	}

	img, _ := raster.New(2, 2, 1)
	if _, err := Filter(img, 0); !errors.Is(err, raster.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for window 0, got %v", err)
	}
	if _, err := Filter(img, 1<<31); !errors.Is(err, raster.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for an oversized window, got %v", err)
	}
	if _, err := Filter(img, MaxWindowSize); err != nil {
		t.Errorf("Window %d should be accepted, got %v", MaxWindowSize, err)
	}
}

// TestFilterRemovesOutlier checks that an isolated spike is removed
func TestFilterRemovesOutlier(t *testing.T) {
	img, _ := raster.New(5, 5, 1)
	img.Fill(1)
	img.Set(2, 2, 0, 100)

	out, err := Filter(img, 3)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if out.Width != 5 || out.Height != 5 || out.Channels != 1 {
		t.Fatalf("Unexpected output size %dx%dx%d", out.Width, out.Height, out.Channels)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if got := out.At(x, y, 0); got != 1 {
				t.Errorf("(%d,%d): expected 1, got %f", x, y, got)
			}
		}
	}
	if img.At(2, 2, 0) != 100 {
		t.Errorf("Input should not be modified")
	}
}

// TestFilterPreservesStep checks that a median keeps a straight edge
func TestFilterPreservesStep(t *testing.T) {
	img, _ := raster.New(6, 4, 1)
	for y := 0; y < 4; y++ {
		for x := 3; x < 6; x++ {
			img.Set(x, y, 0, 5)
		}
	}

	out, err := Filter(img, 3)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if out.At(x, y, 0) != img.At(x, y, 0) {
				t.Errorf("(%d,%d): expected %f, got %f", x, y, img.At(x, y, 0), out.At(x, y, 0))
			}
		}
	}
}

// TestFilterWindowOne is the identity
func TestFilterWindowOne(t *testing.T) {
	img, _ := raster.FromData(3, 1, 1, []float64{3, 1, 2})
	out, err := Filter(img, 1)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	for i := range img.Data {
		if out.Data[i] != img.Data[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, img.Data[i], out.Data[i])
		}
	}
}

// TestMedian covers odd, even and empty inputs
func TestMedian(t *testing.T) {
	cases := []struct {
		values []float64
		want   float64
	}{
		{[]float64{}, 0},
		{[]float64{4}, 4},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2},
		{[]float64{0, 0, 7, 7, 7}, 7},
	}
	for _, tc := range cases {
		if got := Median(append([]float64(nil), tc.values...)); got != tc.want {
			t.Errorf("Median(%v) = %f, want %f", tc.values, got, tc.want)
		}
	}
}
