package dest

import (
	"math"
)

// Point represents a single 2D landmark position
type Point struct {
	X float32
	Y float32
}

// Shape is an ordered set of landmark points describing the pose of a
// deformable object.  The landmark count is fixed per dataset and two
// coordinate frames are used: image space (pixel coordinates) and
// normalized space (relative to a reference rectangle)
type Shape []Point

// NewShape creates a shape with the given number of landmarks, all
// initialized to the origin
func NewShape(numLandmarks int) Shape {
	return make(Shape, numLandmarks)
}

// Clone returns a deep copy of the shape
func (s Shape) Clone() Shape {
	c := make(Shape, len(s))
	copy(c, s)
	return c
}

// Bounds returns the minimum and maximum corner points of the shape
func (s Shape) Bounds() (min, max Point) {

	if len(s) == 0 {
		return Point{}, Point{}
	}

	min = s[0]
	max = s[0]

	for _, p := range s[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}

	return min, max
}

// Center returns the centroid of all landmarks
func (s Shape) Center() Point {

	var cx, cy float32

	for _, p := range s {
		cx += p.X
		cy += p.Y
	}

	n := float32(len(s))

	return Point{X: cx / n, Y: cy / n}
}

// ClosestLandmark returns the index of the landmark nearest to the
// given point
func (s Shape) ClosestLandmark(p Point) int {

	best := 0
	bestDist := float32(math.MaxFloat32)

	for i, lm := range s {
		dx := lm.X - p.X
		dy := lm.Y - p.Y
		d := dx*dx + dy*dy

		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	return best
}

// Vector flattens the shape into an interleaved x0,y0,x1,y1,... slice
func (s Shape) Vector() []float32 {

	v := make([]float32, 2*len(s))

	for i, p := range s {
		v[2*i] = p.X
		v[2*i+1] = p.Y
	}

	return v
}

// AddVector adds scale times the interleaved displacement vector v to
// the shape in place.  The vector length must equal twice the number
// of landmarks
func (s Shape) AddVector(v []float32, scale float32) {
	for i := range s {
		s[i].X += scale * v[2*i]
		s[i].Y += scale * v[2*i+1]
	}
}

// Residual returns the interleaved displacement vector gt minus s
func (s Shape) Residual(gt Shape) []float32 {

	v := make([]float32, 2*len(s))

	for i := range s {
		v[2*i] = gt[i].X - s[i].X
		v[2*i+1] = gt[i].Y - s[i].Y
	}

	return v
}

// SquaredNorm returns the sum of squared landmark coordinates of the
// interleaved vector v
func SquaredNorm(v []float32) float32 {

	var sum float32

	for _, x := range v {
		sum += x * x
	}

	return sum
}

// MeanShape computes the per-landmark mean of the given shapes.  All
// shapes must share the same landmark count
func MeanShape(shapes []Shape) Shape {

	if len(shapes) == 0 {
		return nil
	}

	mean := NewShape(len(shapes[0]))

	for _, s := range shapes {
		for i, p := range s {
			mean[i].X += p.X
			mean[i].Y += p.Y
		}
	}

	n := float32(len(shapes))

	for i := range mean {
		mean[i].X /= n
		mean[i].Y /= n
	}

	return mean
}

// MeanLandmarkError returns the average Euclidean landmark distance
// between the two shapes
func MeanLandmarkError(a, b Shape) float32 {

	if len(a) == 0 {
		return 0
	}

	var sum float64

	for i := range a {
		dx := float64(a[i].X - b[i].X)
		dy := float64(a[i].Y - b[i].Y)
		sum += math.Sqrt(dx*dx + dy*dy)
	}

	return float32(sum / float64(len(a)))
}
