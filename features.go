package dest

import (
	"math"
	"math/rand"
)

// PixelCoordinate is one shape-indexed feature location.  The offset
// is stored relative to the nearest landmark of the stage's mean
// shape and re-anchored to each sample's current estimate at
// evaluation time, which lets the same learned tree generalize across
// poses
type PixelCoordinate struct {
	// Landmark is the index of the anchoring mean-shape landmark
	Landmark int32
	// Offset is the position relative to the anchor landmark
	Offset Point
	// Pos is the absolute position in the mean-shape frame, kept for
	// distance-based split candidate sampling
	Pos Point
}

// samplePixelCoordinates draws n random feature locations inside the
// bounds of the mean shape and anchors each to its closest landmark
func samplePixelCoordinates(meanShape Shape, n int, rnd *rand.Rand) []PixelCoordinate {

	min, max := meanShape.Bounds()
	coords := make([]PixelCoordinate, n)

	for i := range coords {
		pos := Point{
			X: min.X + rnd.Float32()*(max.X-min.X),
			Y: min.Y + rnd.Float32()*(max.Y-min.Y),
		}

		lm := meanShape.ClosestLandmark(pos)

		coords[i] = PixelCoordinate{
			Landmark: int32(lm),
			Offset: Point{
				X: pos.X - meanShape[lm].X,
				Y: pos.Y - meanShape[lm].Y,
			},
			Pos: pos,
		}
	}

	return coords
}

// coordDistance returns the Euclidean distance between two feature
// locations in the mean-shape frame
func coordDistance(a, b PixelCoordinate) float32 {
	dx := float64(a.Pos.X - b.Pos.X)
	dy := float64(a.Pos.Y - b.Pos.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}

// sampleIntensities reads the image intensity at every feature
// location re-anchored to the given estimate.  The estimate lives in
// normalized space, shapeToImage maps it into pixel coordinates of
// the image.  The out slice must have the same length as coords
func sampleIntensities(img *Image, estimate Shape, meanShape Shape,
	shapeToImage Transform, coords []PixelCoordinate, out []float32) {

	// offsets rotate and scale with the pose of the estimate relative
	// to the mean shape
	anchor := EstimateSimilarity(meanShape, estimate)

	for i, c := range coords {
		off := anchor.ApplyVector(c.Offset)

		pos := Point{
			X: estimate[c.Landmark].X + off.X,
			Y: estimate[c.Landmark].Y + off.Y,
		}

		imgPos := shapeToImage.Apply(pos)
		out[i] = img.Sample(imgPos.X, imgPos.Y)
	}
}
