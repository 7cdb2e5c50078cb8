package dest

import (
	"math/rand"
	"testing"
)

// syntheticDataset builds a two cluster dataset: even images are
// bright on the left half with an interior landmark on the left, odd
// images mirror that.  Four corner landmarks are shared.  The
// intensity pattern fully determines the interior landmark, so the
// cascade has real signal to learn from
func syntheticDataset(n int) ([]*Image, []Shape) {

	images := make([]*Image, n)
	shapes := make([]Shape, n)

	for i := 0; i < n; i++ {
		pixels := make([]uint8, 64*64)

		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				bright := x < 32

				if i%2 == 1 {
					bright = !bright
				}

				if bright {
					pixels[y*64+x] = 220
				} else {
					pixels[y*64+x] = 30
				}
			}
		}

		images[i], _ = NewImage(pixels, 64, 64)

		interior := Point{X: 16, Y: 32}

		if i%2 == 1 {
			interior = Point{X: 48, Y: 32}
		}

		shapes[i] = Shape{
			{X: 8, Y: 8}, {X: 56, Y: 8},
			{X: 8, Y: 56}, {X: 56, Y: 56},
			interior,
		}
	}

	return images, shapes
}

func syntheticTrainingData(t *testing.T, n int, params AlgorithmParameters,
	seed int64, numInit int) *TrainingData {

	t.Helper()

	images, shapes := syntheticDataset(n)

	td, err := NewTrainingData(images, shapes, nil, params)

	if err != nil {
		t.Fatal(err)
	}

	rnd := rand.New(rand.NewSource(seed))

	if err := td.BuildSamples(StrategyKazemi, rnd, numInit, 0.1); err != nil {
		t.Fatal(err)
	}

	return td
}

// meanSquaredResidual measures the boosting objective directly from
// the live sample estimates
func meanSquaredResidual(td *TrainingData, samples []Sample) float64 {

	var sum float64

	for _, s := range samples {
		r := s.Estimate.Residual(td.Shapes[s.Idx])
		sum += float64(SquaredNorm(r))
	}

	return sum / float64(len(samples))
}

// after each tree within a stage the mean squared residual over the
// training set must not increase
func TestStageBoostingMonotonicity(t *testing.T) {

	params := AlgorithmParameters{
		NumCascades:                1,
		NumTrees:                   8,
		MaxTreeDepth:               3,
		NumRandomPixelCoordinates:  64,
		NumRandomSplitTestsPerNode: 10,
		ExponentialLambda:          0.1,
		LearningRate:               0.5,
	}

	td := syntheticTrainingData(t, 20, params, 3, 5)

	rnd := rand.New(rand.NewSource(3))

	prev := meanSquaredResidual(td, td.TrainSamples)
	initial := prev

	onTree := func(tree int, trainErr, validateErr float64) bool {
		cur := meanSquaredResidual(td, td.TrainSamples)

		if cur > prev+1e-6 {
			t.Errorf("tree %d: mean squared residual rose from %g to %g",
				tree, prev, cur)
		}

		prev = cur

		return true
	}

	reg, stopped, err := trainRegressor(td, td.TrainSamples,
		td.ValidateSamples, rnd, 0, onTree)

	if err != nil {
		t.Fatal(err)
	}

	if stopped {
		t.Fatal("stage reported an unrequested stop")
	}

	if len(reg.Trees) != params.NumTrees {
		t.Fatalf("got %d trees, want %d", len(reg.Trees), params.NumTrees)
	}

	if prev >= initial {
		t.Errorf("stage did not reduce training residual: %g -> %g",
			initial, prev)
	}
}

// a stage must stop early when the tree callback requests it
func TestStageEarlyStop(t *testing.T) {

	params := AlgorithmParameters{
		NumCascades:                1,
		NumTrees:                   10,
		MaxTreeDepth:               2,
		NumRandomPixelCoordinates:  32,
		NumRandomSplitTestsPerNode: 5,
		ExponentialLambda:          0.1,
		LearningRate:               0.1,
	}

	td := syntheticTrainingData(t, 10, params, 5, 4)

	rnd := rand.New(rand.NewSource(5))

	onTree := func(tree int, trainErr, validateErr float64) bool {
		return tree < 2
	}

	reg, stopped, err := trainRegressor(td, td.TrainSamples,
		td.ValidateSamples, rnd, 0, onTree)

	if err != nil {
		t.Fatal(err)
	}

	if !stopped {
		t.Error("stop request not reported")
	}

	if len(reg.Trees) != 3 {
		t.Errorf("got %d trees, want 3", len(reg.Trees))
	}
}

// applying a committed stage at inference must replay the boosting
// updates the training samples received
func TestStageApplyMatchesTraining(t *testing.T) {

	params := AlgorithmParameters{
		NumCascades:                1,
		NumTrees:                   5,
		MaxTreeDepth:               3,
		NumRandomPixelCoordinates:  64,
		NumRandomSplitTestsPerNode: 10,
		ExponentialLambda:          0.1,
		LearningRate:               0.1,
	}

	td := syntheticTrainingData(t, 12, params, 9, 4)

	// remember one training sample's starting estimate
	probe := td.TrainSamples[0]
	start := probe.Estimate.Clone()

	rnd := rand.New(rand.NewSource(9))

	reg, _, err := trainRegressor(td, td.TrainSamples, td.ValidateSamples,
		rnd, 0, nil)

	if err != nil {
		t.Fatal(err)
	}

	// replay the stage on the recorded starting estimate
	replay := start.Clone()
	reg.Apply(td.Images[probe.Idx], replay, td.ShapeToImage(probe.Idx))

	trained := td.TrainSamples[0].Estimate

	for l := range trained {
		if !pointsClose(replay[l], trained[l], 1e-4) {
			t.Errorf("landmark %d: replay %v, training result %v",
				l, replay[l], trained[l])
		}
	}
}
