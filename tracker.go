package dest

import (
	"context"
	"fmt"
	"math/rand"
)

// Progress carries per-stage (and optionally per-tree) training
// diagnostics.  Tree is -1 on stage boundary events
type Progress struct {
	Stage int
	Tree  int
	// TrainError and ValidateError are mean landmark residual
	// magnitudes in normalized space
	TrainError    float64
	ValidateError float64
}

// TrainOptions configure one training run of a Tracker
type TrainOptions struct {
	// Strategy selects the sample initialization strategy
	Strategy SampleStrategy
	// NumInitializationsPerImage is the number of synthetic starting
	// poses generated per dataset image
	NumInitializationsPerImage int
	// ValidatePercent is the fraction of samples held out for
	// validation error reporting
	ValidatePercent float32
	// Seed is the master seed all randomness derives from.  Two runs
	// with identical inputs and seed produce identical trackers
	Seed int64
	// Workers is the worker pool size for data-parallel phases, zero
	// means one worker per CPU
	Workers int
	// Progress, when set, is invoked once per trained stage.  Return
	// false to stop training before the next stage begins
	Progress func(Progress) bool
	// TreeProgress additionally invokes Progress after every tree
	TreeProgress bool
}

// DefaultTrainOptions returns the option values used by the reference
// training setup
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Strategy:                   StrategyKazemi,
		NumInitializationsPerImage: 20,
		ValidatePercent:            0.1,
		Seed:                       1,
	}
}

// Tracker is the complete cascade model: the initial mean shape and
// the ordered, immutable stages produced by training.  A trained
// Tracker is stateless and safe for concurrent prediction
type Tracker struct {
	InitialShape Shape
	Stages       []*Regressor
	Params       AlgorithmParameters
}

// Train fits a full cascade on the given training data.  Stages train
// strictly in order, each against the residual the previous stages
// left behind.  Cancellation through ctx takes effect at stage and
// tree boundaries only, a started tree always completes.  Errors
// carry the stage and tree index of the failing unit
func Train(ctx context.Context, td *TrainingData, opts TrainOptions) (*Tracker, error) {

	if err := td.Params.Validate(); err != nil {
		return nil, err
	}

	rnd := rand.New(rand.NewSource(opts.Seed))

	if len(td.TrainSamples) == 0 {
		numInit := opts.NumInitializationsPerImage

		if numInit <= 0 {
			numInit = DefaultTrainOptions().NumInitializationsPerImage
		}

		err := td.BuildSamples(opts.Strategy, rnd, numInit, opts.ValidatePercent)

		if err != nil {
			return nil, err
		}
	}

	t := &Tracker{
		InitialShape: MeanShape(td.Shapes),
		Params:       td.Params,
		Stages:       make([]*Regressor, 0, td.Params.NumCascades),
	}

	stopped := false

	for k := 0; k < td.Params.NumCascades && !stopped; k++ {

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stage %d: %w", k, err)
		}

		var onTree func(tree int, trainErr, validateErr float64) bool

		lastTrainErr := 0.0
		lastValidateErr := 0.0

		onTree = func(tree int, trainErr, validateErr float64) bool {
			lastTrainErr = trainErr
			lastValidateErr = validateErr

			if ctx.Err() != nil {
				return false
			}

			if opts.TreeProgress && opts.Progress != nil {
				return opts.Progress(Progress{
					Stage:         k,
					Tree:          tree,
					TrainError:    trainErr,
					ValidateError: validateErr,
				})
			}

			return true
		}

		reg, stop, err := trainRegressor(td, td.TrainSamples,
			td.ValidateSamples, rnd, opts.Workers, onTree)

		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", k, err)
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stage %d: %w", k, err)
		}

		t.Stages = append(t.Stages, reg)
		stopped = stop

		if opts.Progress != nil {
			cont := opts.Progress(Progress{
				Stage:         k,
				Tree:          -1,
				TrainError:    lastTrainErr,
				ValidateError: lastValidateErr,
			})

			if !cont {
				stopped = true
			}
		}
	}

	return t, nil
}

// NumLandmarks returns the landmark count of the tracked shape
func (t *Tracker) NumLandmarks() int {
	return len(t.InitialShape)
}

// Predict runs the cascade on an image given an initial rectangle,
// typically a face detector output, and returns the final landmark
// shape in image space
func (t *Tracker) Predict(img *Image, rect Rect) Shape {

	shapeToImage := RectTransform(UnitRect(), rect)
	estimate := t.InitialShape.Clone()

	t.run(img, estimate, shapeToImage)

	return shapeToImage.ApplyShape(estimate)
}

// PredictShape runs the cascade starting from an explicit initial
// shape in image space instead of the trained mean shape
func (t *Tracker) PredictShape(img *Image, initial Shape) Shape {

	rect := ShapeBounds(initial)
	shapeToImage := RectTransform(UnitRect(), rect)
	estimate := shapeToImage.Invert().ApplyShape(initial)

	t.run(img, estimate, shapeToImage)

	return shapeToImage.ApplyShape(estimate)
}

// run applies every stage in trained order to the normalized
// estimate.  No stage may be skipped, the accuracy of the cascade
// depends on this exact sequential refinement
func (t *Tracker) run(img *Image, estimate Shape, shapeToImage Transform) {
	for _, stage := range t.Stages {
		stage.Apply(img, estimate, shapeToImage)
	}
}
