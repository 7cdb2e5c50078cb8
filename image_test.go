package dest

import (
	"math"
	"testing"
)

func TestNewImageValidation(t *testing.T) {

	tests := []struct {
		pixels  []uint8
		rows    int
		cols    int
		wantErr bool
	}{
		{make([]uint8, 6), 2, 3, false},
		{make([]uint8, 5), 2, 3, true},
		{nil, 0, 0, true},
		{make([]uint8, 4), -2, -2, true},
	}

	for i, tc := range tests {
		_, err := NewImage(tc.pixels, tc.rows, tc.cols)

		if (err != nil) != tc.wantErr {
			t.Errorf("test %d: got err %v, wantErr %v", i, err, tc.wantErr)
		}
	}
}

func TestImageSample(t *testing.T) {

	// 2x2 checkerboard
	img, err := NewImage([]uint8{0, 100, 100, 0}, 2, 2)

	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x    float32
		y    float32
		want float32
	}{
		// exact pixel positions
		{0, 0, 0},
		{1, 0, 100},
		{0, 1, 100},
		{1, 1, 0},
		// midpoint interpolates all four neighbours
		{0.5, 0.5, 50},
		// border clamp
		{-5, -5, 0},
		{10, 10, 0},
	}

	for i, tc := range tests {
		if got := img.Sample(tc.x, tc.y); math.Abs(float64(got-tc.want)) > 1e-4 {
			t.Errorf("test %d: Sample(%f, %f) = %f, want %f",
				i, tc.x, tc.y, got, tc.want)
		}
	}
}
