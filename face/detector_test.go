package face

import (
	"testing"

	"github.com/VeenLee/dest"
)

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestBestRect(t *testing.T) {

	shape := dest.Shape{
		{X: 10, Y: 10}, {X: 20, Y: 10},
		{X: 10, Y: 20}, {X: 20, Y: 20},
	}

	full := dest.NewRect(5, 5, 20, 20)
	half := dest.NewRect(5, 5, 10, 10) // covers only the top-left landmark
	miss := dest.NewRect(100, 100, 10, 10)

	r, ok := BestRect(shape, []dest.Rect{miss, half, full}, 0.5)

	if !ok {
		t.Fatal("no detection accepted")
	}

	if r != full {
		t.Errorf("selected %v, want the full-coverage rect", r)
	}

	// coverage below the threshold rejects everything
	if _, ok := BestRect(shape, []dest.Rect{half, miss}, 0.5); ok {
		t.Error("low-coverage detection accepted")
	}

	if _, ok := BestRect(shape, nil, 0.1); ok {
		t.Error("empty detection list accepted")
	}
}

func TestDetectorStyleBounds(t *testing.T) {

	shape := dest.Shape{
		{X: 10, Y: 20}, {X: 50, Y: 20},
		{X: 10, Y: 40}, {X: 50, Y: 40},
	}

	r := DetectorStyleBounds(shape)

	min, max := r.Shape().Bounds()

	w := max.X - min.X
	h := max.Y - min.Y

	// square, sized from the longer shape extent with margin
	if w != h {
		t.Errorf("rect %fx%f is not square", w, h)
	}

	want := float32(40 * 1.1)

	if w < want-1e-3 || w > want+1e-3 {
		t.Errorf("side %f, want %f", w, want)
	}

	// centered on the shape
	c := r.Center()
	sc := shape.Center()

	if abs(c.X-sc.X) > 1e-3 || abs(c.Y-sc.Y) > 1e-3 {
		t.Errorf("rect center %v, shape center %v", c, sc)
	}

	// every landmark falls inside
	for i, p := range shape {
		if !r.Contains(p) {
			t.Errorf("landmark %d at %v outside fallback rect", i, p)
		}
	}
}
