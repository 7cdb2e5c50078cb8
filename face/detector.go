// Package face generates initial face rectangles for training and
// tracking using the pigo pixel-intensity comparison detector.
package face

import (
	"fmt"
	"os"

	"github.com/VeenLee/dest"
	pigo "github.com/esimov/pigo/core"
)

// DefaultMinCoverage is the fraction of landmarks a detection must
// cover to be accepted as the training rect for a shape
const DefaultMinCoverage = 0.3

// DetectorParams configure the sliding window sweep of the detector
type DetectorParams struct {
	// MinSize and MaxSize bound the detection window in pixels
	MinSize int
	MaxSize int
	// ShiftFactor determines to what percentage to move the detection
	// window over its size
	ShiftFactor float64
	// ScaleFactor defines in percentage the resize value of the
	// detection window when moving to a higher scale
	ScaleFactor float64
	// MinQuality is the minimum classification score of a detection
	MinQuality float32
	// ClusterIoU is the intersection over union used when clustering
	// overlapping detections
	ClusterIoU float64
}

// DefaultDetectorParams returns detection settings suitable for
// typical portrait datasets
func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		MinSize:     60,
		MaxSize:     1000,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		MinQuality:  5.0,
		ClusterIoU:  0.2,
	}
}

// Detector wraps a pigo classifier to produce dest rectangles
type Detector struct {
	classifier *pigo.Pigo
	Params     DetectorParams
}

// NewDetector reads and unpacks a binary pigo cascade file
func NewDetector(cascadePath string, params DetectorParams) (*Detector, error) {

	cascadeFile, err := os.ReadFile(cascadePath)

	if err != nil {
		return nil, fmt.Errorf("error reading the cascade file: %w", err)
	}

	p := pigo.NewPigo()

	classifier, err := p.Unpack(cascadeFile)

	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}

	return &Detector{classifier: classifier, Params: params}, nil
}

// Detect runs the classifier over the image and returns the clustered
// face rectangles ordered as produced by the cascade
func (d *Detector) Detect(img *dest.Image) []dest.Rect {

	maxSize := d.Params.MaxSize

	if maxSize > img.Cols {
		maxSize = img.Cols
	}
	if maxSize > img.Rows {
		maxSize = img.Rows
	}

	cParams := pigo.CascadeParams{
		MinSize:     d.Params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.Params.ShiftFactor,
		ScaleFactor: d.Params.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: img.Pixels,
			Rows:   img.Rows,
			Cols:   img.Cols,
			Dim:    img.Cols,
		},
	}

	faces := d.classifier.RunCascade(cParams, 0.0)
	faces = d.classifier.ClusterDetections(faces, d.Params.ClusterIoU)

	var rects []dest.Rect

	for _, det := range faces {
		if det.Q < d.Params.MinQuality {
			continue
		}

		half := float32(det.Scale) / 2

		rects = append(rects, dest.NewRect(
			float32(det.Col)-half,
			float32(det.Row)-half,
			float32(det.Scale),
			float32(det.Scale),
		))
	}

	return rects
}

// BestRect selects the detection covering the largest fraction of the
// shape's landmarks, provided the fraction reaches minCoverage.  The
// second return value reports whether any detection was acceptable
func BestRect(shape dest.Shape, dets []dest.Rect, minCoverage float32) (dest.Rect, bool) {

	var best dest.Rect
	bestCoverage := float32(0)

	for _, r := range dets {
		covered := 0

		for _, p := range shape {
			if r.Contains(p) {
				covered++
			}
		}

		coverage := float32(covered) / float32(len(shape))

		if coverage > bestCoverage {
			bestCoverage = coverage
			best = r
		}
	}

	if bestCoverage < minCoverage {
		return dest.Rect{}, false
	}

	return best, true
}

// DetectorStyleBounds converts the tight bounding box of a shape into
// a square rectangle with the geometry a face detector would produce,
// used as the fallback when no acceptable detection exists.  The
// square is centered on the shape and enlarged slightly, faces sit
// inside detector windows with margin
func DetectorStyleBounds(shape dest.Shape) dest.Rect {

	min, max := shape.Bounds()

	w := max.X - min.X
	h := max.Y - min.Y

	side := w

	if h > side {
		side = h
	}

	side *= 1.1

	center := shape.Center()

	return dest.NewRect(center.X-side/2, center.Y-side/2, side, side)
}

// TrainingRects produces one rectangle per shape: the best acceptable
// detection where one exists, the detector-style shape bounds
// otherwise.  The returned count reports how many entries fell back
func (d *Detector) TrainingRects(images []*dest.Image, shapes []dest.Shape,
	minCoverage float32) ([]dest.Rect, int) {

	rects := make([]dest.Rect, len(shapes))
	fallbacks := 0

	for i := range shapes {
		dets := d.Detect(images[i])

		if r, ok := BestRect(shapes[i], dets, minCoverage); ok {
			rects[i] = r
			continue
		}

		rects[i] = DetectorStyleBounds(shapes[i])
		fallbacks++
	}

	return rects, fallbacks
}
