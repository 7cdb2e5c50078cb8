package dest

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Regressor is one committed cascade stage: the stage's reference mean
// shape, its shape-indexed feature pool and the ordered list of
// boosted regression trees.  Immutable once trained
type Regressor struct {
	MeanShape    Shape
	Coords       []PixelCoordinate
	Trees        []Tree
	LearningRate float32
}

// regressorTraining bundles the per-stage training context.  It
// borrows the dataset and the sample slices for the lifetime of one
// stage
type regressorTraining struct {
	td       *TrainingData
	train    []Sample
	validate []Sample
	workers  int

	// per-sample residuals and intensities, indexed in step with the
	// sample slices.  Recomputed together at stage start, residuals
	// again after every boosting update
	trainRes       [][]float32
	trainIntens    [][]float32
	validateRes    [][]float32
	validateIntens [][]float32
}

// trainRegressor trains the trees of one cascade stage against the
// current residual and applies the learning-rate shrunk boosting
// update after each tree.  The onTree callback receives per-tree
// hold-out diagnostics and may stop the stage early by returning
// false; the returned bool reports whether a stop was requested
func trainRegressor(td *TrainingData, train, validate []Sample,
	rnd *rand.Rand, workers int,
	onTree func(tree int, trainErr, validateErr float64) bool) (*Regressor, bool, error) {

	params := td.Params

	// the stage's reference frame is the mean of the current
	// estimates, recomputed from scratch every stage
	estimates := make([]Shape, len(train))

	for i := range train {
		estimates[i] = train[i].Estimate
	}

	reg := &Regressor{
		MeanShape:    MeanShape(estimates),
		LearningRate: params.LearningRate,
		Trees:        make([]Tree, 0, params.NumTrees),
	}

	reg.Coords = samplePixelCoordinates(reg.MeanShape,
		params.NumRandomPixelCoordinates, rnd)

	rt := &regressorTraining{
		td:       td,
		train:    train,
		validate: validate,
		workers:  workers,
	}

	rt.trainRes, rt.trainIntens = rt.prepareSamples(train, reg)
	rt.validateRes, rt.validateIntens = rt.prepareSamples(validate, reg)

	tt := &treeTraining{
		residuals:   rt.trainRes,
		intensities: rt.trainIntens,
		coords:      reg.Coords,
		params:      params,
		workers:     workers,
	}

	for t := 0; t < params.NumTrees; t++ {

		tree, err := trainTree(tt, rnd)

		if err != nil {
			return nil, false, fmt.Errorf("tree %d: %w", t, err)
		}

		reg.Trees = append(reg.Trees, tree)

		// boosting update: each following tree fits the error the
		// ensemble so far leaves behind
		rt.boostUpdate(&tree, train, rt.trainRes, rt.trainIntens, params.LearningRate)
		rt.boostUpdate(&tree, validate, rt.validateRes, rt.validateIntens, params.LearningRate)

		if onTree != nil {
			trainErr := meanResidualError(rt.trainRes)
			validateErr := meanResidualError(rt.validateRes)

			if !onTree(t, trainErr, validateErr) {
				return reg, true, nil
			}
		}
	}

	return reg, false, nil
}

// prepareSamples computes residuals and feature intensities for every
// sample at its current estimate, fanned out across the worker pool.
// Samples are independent, so chunks share no mutable state
func (rt *regressorTraining) prepareSamples(samples []Sample,
	reg *Regressor) (res, intens [][]float32) {

	res = make([][]float32, len(samples))
	intens = make([][]float32, len(samples))

	parallelFor(len(samples), rt.workers, func(start, end int) {
		for i := start; i < end; i++ {
			s := samples[i]
			gt := rt.td.Shapes[s.Idx]

			res[i] = s.Estimate.Residual(gt)
			intens[i] = make([]float32, len(reg.Coords))

			sampleIntensities(rt.td.Images[s.Idx], s.Estimate, reg.MeanShape,
				rt.td.ShapeToImage(s.Idx), reg.Coords, intens[i])
		}
	})

	return res, intens
}

// boostUpdate adds the shrunk tree prediction to every sample's
// estimate and recomputes its residual.  Intensities stay anchored to
// the estimates the stage started from
func (rt *regressorTraining) boostUpdate(tree *Tree, samples []Sample,
	res, intens [][]float32, learningRate float32) {

	parallelFor(len(samples), rt.workers, func(start, end int) {
		for i := start; i < end; i++ {
			pred := tree.Predict(intens[i])
			samples[i].Estimate.AddVector(pred, learningRate)

			gt := rt.td.Shapes[samples[i].Idx]
			copy(res[i], samples[i].Estimate.Residual(gt))
		}
	})
}

// meanResidualError summarizes a residual set as the mean landmark
// displacement magnitude in normalized space
func meanResidualError(residuals [][]float32) float64 {

	if len(residuals) == 0 {
		return 0
	}

	errs := make([]float64, len(residuals))

	for i, r := range residuals {
		var sum float64

		for l := 0; l < len(r); l += 2 {
			dx := float64(r[l])
			dy := float64(r[l+1])
			sum += sqrt64(dx*dx + dy*dy)
		}

		errs[i] = sum / float64(len(r)/2)
	}

	return stat.Mean(errs, nil)
}

// Apply advances the estimate by one stage: the feature intensities
// are sampled once at the estimate the stage starts from, every
// tree's leaf displacement is summed and the learning-rate shrunk sum
// added to the estimate in place
func (r *Regressor) Apply(img *Image, estimate Shape, shapeToImage Transform) {

	intensities := make([]float32, len(r.Coords))
	sampleIntensities(img, estimate, r.MeanShape, shapeToImage, r.Coords,
		intensities)

	sum := make([]float32, 2*len(estimate))

	for i := range r.Trees {
		pred := r.Trees[i].Predict(intensities)

		for d, v := range pred {
			sum[d] += v
		}
	}

	estimate.AddVector(sum, r.LearningRate)
}
