package dest

import (
	"fmt"
	"math"
	"math/rand"
)

// SampleStrategy selects how initial shape estimates are generated
// for training samples
type SampleStrategy int

const (
	// StrategyKazemi initializes each image with ground-truth shapes
	// of other images drawn at random
	StrategyKazemi SampleStrategy = 0
	// StrategyLinearCombinations initializes with random convex
	// combinations of all ground-truth shapes
	StrategyLinearCombinations SampleStrategy = 1
)

func (s SampleStrategy) String() string {

	switch s {
	case StrategyKazemi:
		return "kazemi"
	case StrategyLinearCombinations:
		return "linear-combinations"
	}

	return "unknown"
}

// Sample pairs a dataset image index with the shape estimate currently
// associated with it.  Estimates live in normalized shape space and
// are refined in place as stages and trees are trained
type Sample struct {
	// Idx is the index of the image and ground-truth shape
	Idx int
	// Estimate is the current shape estimate in normalized space
	Estimate Shape
}

// TrainingData owns the raw dataset and the working sample set.  The
// Shapes are held in normalized shape space once constructed
type TrainingData struct {
	Images []*Image
	Shapes []Shape
	Rects  []Rect

	TrainSamples    []Sample
	ValidateSamples []Sample

	Params AlgorithmParameters
}

// NewTrainingData validates the dataset arrays and converts the
// ground-truth shapes into normalized shape space.  When rects is nil
// bounding rectangles are derived from the shapes themselves.  The
// caller's shape slices are not modified
func NewTrainingData(images []*Image, shapes []Shape, rects []Rect,
	params AlgorithmParameters) (*TrainingData, error) {

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if len(shapes) == 0 || len(images) == 0 {
		return nil, ErrNoTrainingData
	}

	if len(images) != len(shapes) {
		return nil, fmt.Errorf("%w: %d images vs %d shapes",
			ErrShapeRectMismatch, len(images), len(shapes))
	}

	if rects == nil {
		rects = CreateTrainingRectsFromShapeBounds(shapes)
	}

	if len(rects) != len(shapes) {
		return nil, fmt.Errorf("%w: %d shapes vs %d rects",
			ErrShapeRectMismatch, len(shapes), len(rects))
	}

	numLandmarks := len(shapes[0])

	if numLandmarks == 0 {
		return nil, fmt.Errorf("shapes have zero landmarks")
	}

	normalized := make([]Shape, len(shapes))

	for i, s := range shapes {
		if len(s) != numLandmarks {
			return nil, fmt.Errorf("shape %d has %d landmarks, want %d",
				i, len(s), numLandmarks)
		}
		normalized[i] = s.Clone()
	}

	ConvertShapesToNormalizedShapeSpace(rects, normalized)

	return &TrainingData{
		Images: images,
		Shapes: normalized,
		Rects:  rects,
		Params: params,
	}, nil
}

// NumLandmarks returns the landmark count shared by all shapes
func (td *TrainingData) NumLandmarks() int {

	if len(td.Shapes) == 0 {
		return 0
	}

	return len(td.Shapes[0])
}

// ShapeToImage returns the transform from normalized shape space into
// image space for the given dataset index
func (td *TrainingData) ShapeToImage(idx int) Transform {
	return RectTransform(UnitRect(), td.Rects[idx])
}

// BuildSamples generates the working sample set with the given
// initialization strategy and partitions off the validation hold-out
func (td *TrainingData) BuildSamples(strategy SampleStrategy, rnd *rand.Rand,
	numInitializationsPerImage int, validatePercent float32) error {

	var samples []Sample

	switch strategy {
	case StrategyKazemi:
		samples = CreateTrainingSamplesKazemi(td.Shapes, rnd,
			numInitializationsPerImage)
	case StrategyLinearCombinations:
		samples = CreateTrainingSamplesThroughLinearCombinations(td.Shapes,
			rnd, numInitializationsPerImage)
	default:
		return fmt.Errorf("unknown sample strategy %d", strategy)
	}

	if len(samples) == 0 {
		return ErrNoTrainingData
	}

	td.TrainSamples, td.ValidateSamples =
		RandomPartitionTrainingSamples(samples, rnd, validatePercent)

	if len(td.TrainSamples) == 0 {
		return ErrNoTrainingData
	}

	return nil
}

// CreateTrainingSamplesKazemi generates numInitializationsPerImage
// samples per image, each initialized with the ground-truth shape of
// a different image drawn uniformly at random.  Bootstrapping from
// the true shape distribution makes the regressor robust to detector
// inaccuracy
func CreateTrainingSamplesKazemi(shapes []Shape, rnd *rand.Rand,
	numInitializationsPerImage int) []Sample {

	if len(shapes) == 0 {
		return nil
	}

	samples := make([]Sample, 0, len(shapes)*numInitializationsPerImage)

	for i := range shapes {
		for k := 0; k < numInitializationsPerImage; k++ {

			// draw any other image's ground truth as initial estimate
			other := i

			if len(shapes) > 1 {
				for other == i {
					other = rnd.Intn(len(shapes))
				}
			}

			samples = append(samples, Sample{
				Idx:      i,
				Estimate: shapes[other].Clone(),
			})
		}
	}

	return samples
}

// CreateTrainingSamplesThroughLinearCombinations generates
// numInitializationsPerImage samples per image, each initialized with
// a random convex combination of all ground-truth shapes.  Produces
// smoother, population representative initializations
func CreateTrainingSamplesThroughLinearCombinations(shapes []Shape,
	rnd *rand.Rand, numInitializationsPerImage int) []Sample {

	if len(shapes) == 0 {
		return nil
	}

	numLandmarks := len(shapes[0])
	samples := make([]Sample, 0, len(shapes)*numInitializationsPerImage)
	weights := make([]float32, len(shapes))

	for i := range shapes {
		for k := 0; k < numInitializationsPerImage; k++ {

			// random non-negative weights summing to one
			var total float32

			for w := range weights {
				weights[w] = rnd.Float32()
				total += weights[w]
			}

			estimate := NewShape(numLandmarks)

			for s, shape := range shapes {
				w := weights[s] / total
				for l, p := range shape {
					estimate[l].X += w * p.X
					estimate[l].Y += w * p.Y
				}
			}

			samples = append(samples, Sample{Idx: i, Estimate: estimate})
		}
	}

	return samples
}

// ConvertShapesToNormalizedShapeSpace maps each shape from image pixel
// coordinates into its rect-relative normalized frame, in place
func ConvertShapesToNormalizedShapeSpace(rects []Rect, shapes []Shape) {

	for i := range shapes {
		t := RectTransform(rects[i], UnitRect())
		copy(shapes[i], t.ApplyShape(shapes[i]))
	}
}

// CreateTrainingRectsFromShapeBounds derives a bounding rectangle per
// shape, used when no detector rectangles are supplied
func CreateTrainingRectsFromShapeBounds(shapes []Shape) []Rect {

	rects := make([]Rect, len(shapes))

	for i, s := range shapes {
		rects[i] = ShapeBounds(s)
	}

	return rects
}

// RandomPartitionTrainingSamples shuffles the samples and splits off
// round(len(samples) * validatePercent) of them as the validation
// hold-out.  The two returned sets are disjoint and together cover
// the input
func RandomPartitionTrainingSamples(samples []Sample, rnd *rand.Rand,
	validatePercent float32) (train, validate []Sample) {

	rnd.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})

	numValidate := int(math.Round(float64(validatePercent) * float64(len(samples))))

	if numValidate > len(samples) {
		numValidate = len(samples)
	}

	return samples[numValidate:], samples[:numValidate]
}
