// Package render draws landmark shapes and rectangles onto gocv Mats
// for visual inspection of datasets and tracker output.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/VeenLee/dest"
	"gocv.io/x/gocv"
)

// Landmarks draws a filled circle at every landmark of the shape
func Landmarks(img *gocv.Mat, shape dest.Shape, clr color.RGBA, radius int) {

	for _, p := range shape {
		gocv.Circle(img, image.Pt(int(p.X), int(p.Y)), radius, clr, -1)
	}
}

// NumberedLandmarks draws landmarks with their index next to each
// point, useful when working out mirror permutation pairs
func NumberedLandmarks(img *gocv.Mat, shape dest.Shape, clr color.RGBA,
	radius int, font Font) {

	for i, p := range shape {
		pt := image.Pt(int(p.X), int(p.Y))

		gocv.Circle(img, pt, radius, clr, -1)
		gocv.PutTextWithParams(img, fmt.Sprintf("%d", i),
			image.Pt(pt.X+radius+2, pt.Y),
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Rect draws the four corner rectangle as line segments, so rotated
// detector rects render correctly
func Rect(img *gocv.Mat, rect dest.Rect, clr color.RGBA, thickness int) {

	// corner order is top-left, top-right, bottom-left, bottom-right
	edges := [4][2]int{{0, 1}, {1, 3}, {3, 2}, {2, 0}}

	for _, e := range edges {
		a := image.Pt(int(rect[e[0]].X), int(rect[e[0]].Y))
		b := image.Pt(int(rect[e[1]].X), int(rect[e[1]].Y))

		gocv.Line(img, a, b, clr, thickness)
	}
}

// ShapeComparison draws an initial estimate and a refined shape in
// two colors with the mean landmark error as a label, used to
// visualize how far a prediction moved from its initialization
func ShapeComparison(img *gocv.Mat, initial, refined dest.Shape, font Font) {

	Landmarks(img, initial, Gray, 2)
	Landmarks(img, refined, Green, 2)

	label := fmt.Sprintf("mean landmark error %.2f",
		dest.MeanLandmarkError(initial, refined))

	gocv.PutTextWithParams(img, label, image.Pt(8, 20),
		font.Face, font.Scale, font.Color, font.Thickness,
		font.LineType, false)
}
