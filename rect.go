package dest

import (
	clipper "github.com/ctessum/go.clipper"
)

// Rect is a four corner rectangle given in top-left, top-right,
// bottom-left, bottom-right order.  Corners are free points, so a Rect
// may represent a rotated detector region as well as an axis-aligned
// bounding box
type Rect [4]Point

// NewRect creates an axis-aligned rectangle from position and size
func NewRect(x, y, width, height float32) Rect {
	return Rect{
		{X: x, Y: y},
		{X: x + width, Y: y},
		{X: x, Y: y + height},
		{X: x + width, Y: y + height},
	}
}

// UnitRect returns the unit square, the reference frame of normalized
// shape space
func UnitRect() Rect {
	return NewRect(0, 0, 1, 1)
}

// RectFromBounds creates an axis-aligned rectangle spanning the two
// corner points
func RectFromBounds(min, max Point) Rect {
	return NewRect(min.X, min.Y, max.X-min.X, max.Y-min.Y)
}

// ShapeBounds returns the tight axis-aligned bounding rectangle of a
// shape
func ShapeBounds(s Shape) Rect {
	min, max := s.Bounds()
	return RectFromBounds(min, max)
}

// Shape returns the rectangle corners as a four landmark shape, used
// when estimating transforms between rectangles
func (r Rect) Shape() Shape {
	return Shape{r[0], r[1], r[2], r[3]}
}

// Center returns the centroid of the rectangle corners
func (r Rect) Center() Point {
	return r.Shape().Center()
}

// Contains reports whether the point lies inside the axis-aligned
// bounds of the rectangle
func (r Rect) Contains(p Point) bool {
	min, max := r.Shape().Bounds()
	return p.X >= min.X && p.X <= max.X && p.Y >= min.Y && p.Y <= max.Y
}

// clipper works on integer coordinates, scale up to keep sub-pixel
// corner positions
const clipperScale = 1024

// clipperPath converts the rectangle into a closed clipper path with
// corners in winding order
func (r Rect) clipperPath() clipper.Path {

	// winding order is top-left, top-right, bottom-right, bottom-left
	order := [4]int{0, 1, 3, 2}

	path := make(clipper.Path, 0, 4)

	for _, i := range order {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(r[i].X * clipperScale),
			Y: clipper.CInt(r[i].Y * clipperScale),
		})
	}

	return path
}

// Area returns the polygon area of the rectangle
func (r Rect) Area() float32 {
	a := clipper.Area(r.clipperPath())
	return abs32(float32(a / (clipperScale * clipperScale)))
}

// OverlapRatio returns the intersection area of the two rectangles
// divided by the area of r.  Both rectangles may be rotated quads
func (r Rect) OverlapRatio(other Rect) float32 {

	area := r.Area()

	if area == 0 {
		return 0
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(r.clipperPath(), clipper.PtSubject, true)
	c.AddPath(other.clipperPath(), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection,
		clipper.PftEvenOdd, clipper.PftEvenOdd)

	if !ok {
		return 0
	}

	var inter float64

	for _, path := range solution {
		inter += clipper.Area(path)
	}

	return abs32(float32(inter/(clipperScale*clipperScale))) / area
}

// IoU returns the intersection over union of the two rectangles
func (r Rect) IoU(other Rect) float32 {

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(r.clipperPath(), clipper.PtSubject, true)
	c.AddPath(other.clipperPath(), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection,
		clipper.PftEvenOdd, clipper.PftEvenOdd)

	if !ok {
		return 0
	}

	var inter float64

	for _, path := range solution {
		inter += clipper.Area(path)
	}

	interArea := abs32(float32(inter / (clipperScale * clipperScale)))
	union := r.Area() + other.Area() - interArea

	if union <= 0 {
		return 0
	}

	return interArea / union
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
