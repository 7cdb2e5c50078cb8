package dest

import (
	"math"
	"testing"
)

func TestShapeBounds(t *testing.T) {

	tests := []struct {
		shape   Shape
		wantMin Point
		wantMax Point
	}{
		{
			shape:   Shape{{X: 1, Y: 2}, {X: 3, Y: 0}, {X: 2, Y: 5}},
			wantMin: Point{X: 1, Y: 0},
			wantMax: Point{X: 3, Y: 5},
		},
		{
			shape:   Shape{{X: -2, Y: -3}},
			wantMin: Point{X: -2, Y: -3},
			wantMax: Point{X: -2, Y: -3},
		},
	}

	for i, tc := range tests {
		min, max := tc.shape.Bounds()

		if min != tc.wantMin || max != tc.wantMax {
			t.Errorf("test %d: got bounds %v %v, want %v %v",
				i, min, max, tc.wantMin, tc.wantMax)
		}
	}
}

func TestShapeCenter(t *testing.T) {

	s := Shape{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}
	c := s.Center()

	if c.X != 1 || c.Y != 1 {
		t.Errorf("got center %v, want (1,1)", c)
	}
}

func TestShapeClosestLandmark(t *testing.T) {

	s := Shape{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}

	tests := []struct {
		p    Point
		want int
	}{
		{Point{X: 1, Y: 1}, 0},
		{Point{X: 9, Y: 1}, 1},
		{Point{X: 1, Y: 9}, 2},
	}

	for i, tc := range tests {
		if got := s.ClosestLandmark(tc.p); got != tc.want {
			t.Errorf("test %d: got landmark %d, want %d", i, got, tc.want)
		}
	}
}

func TestShapeResidualAndAddVector(t *testing.T) {

	est := Shape{{X: 1, Y: 1}, {X: 2, Y: 2}}
	gt := Shape{{X: 2, Y: 0}, {X: 4, Y: 4}}

	res := est.Residual(gt)

	want := []float32{1, -1, 2, 2}

	for i := range want {
		if res[i] != want[i] {
			t.Fatalf("residual[%d] = %f, want %f", i, res[i], want[i])
		}
	}

	// adding the full residual must reproduce the ground truth
	est.AddVector(res, 1)

	for i := range gt {
		if est[i] != gt[i] {
			t.Errorf("landmark %d = %v, want %v", i, est[i], gt[i])
		}
	}
}

func TestMeanShape(t *testing.T) {

	shapes := []Shape{
		{{X: 0, Y: 0}, {X: 2, Y: 2}},
		{{X: 2, Y: 2}, {X: 4, Y: 4}},
	}

	mean := MeanShape(shapes)

	want := Shape{{X: 1, Y: 1}, {X: 3, Y: 3}}

	for i := range want {
		if mean[i] != want[i] {
			t.Errorf("mean[%d] = %v, want %v", i, mean[i], want[i])
		}
	}
}

func TestMeanLandmarkError(t *testing.T) {

	a := Shape{{X: 0, Y: 0}, {X: 0, Y: 0}}
	b := Shape{{X: 3, Y: 4}, {X: 0, Y: 0}}

	// one landmark displaced by 5, one by 0
	if got := MeanLandmarkError(a, b); math.Abs(float64(got)-2.5) > 1e-6 {
		t.Errorf("got error %f, want 2.5", got)
	}
}

func TestShapeCloneIsIndependent(t *testing.T) {

	s := Shape{{X: 1, Y: 1}}
	c := s.Clone()
	c[0].X = 99

	if s[0].X != 1 {
		t.Error("modifying the clone changed the original shape")
	}
}
