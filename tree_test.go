package dest

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

// buildTreeContext creates a small synthetic tree training context
// with the given residual generator
func buildTreeContext(numSamples, numLandmarks, numCoords int,
	rnd *rand.Rand, residual func(i int) []float32) *treeTraining {

	meanShape := Shape{
		{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.1}, {X: 0.5, Y: 0.5},
		{X: 0.1, Y: 0.9}, {X: 0.9, Y: 0.9},
	}[:numLandmarks]

	coords := samplePixelCoordinates(meanShape, numCoords, rnd)

	tt := &treeTraining{
		residuals:   make([][]float32, numSamples),
		intensities: make([][]float32, numSamples),
		coords:      coords,
		params: AlgorithmParameters{
			NumCascades:                1,
			NumTrees:                   1,
			MaxTreeDepth:               3,
			NumRandomPixelCoordinates:  numCoords,
			NumRandomSplitTestsPerNode: 20,
			ExponentialLambda:          0.1,
			LearningRate:               0.1,
		},
		workers: 4,
	}

	for i := 0; i < numSamples; i++ {
		tt.residuals[i] = residual(i)

		tt.intensities[i] = make([]float32, numCoords)
		for c := range tt.intensities[i] {
			tt.intensities[i][c] = rnd.Float32() * 255
		}
	}

	return tt
}

// zero residual variance means no beneficial split exists: every leaf
// of the trained tree must carry the constant residual vector
func TestTrainTreeConstantResidual(t *testing.T) {

	rnd := rand.New(rand.NewSource(21))

	v := []float32{0.5, -0.25, 0.125, 1}

	tt := buildTreeContext(40, 2, 30, rnd, func(i int) []float32 {
		r := make([]float32, len(v))
		copy(r, v)
		return r
	})

	tree, err := trainTree(tt, rnd)

	if err != nil {
		t.Fatal(err)
	}

	for i := range tree.Nodes {
		if !tree.Nodes[i].IsLeaf() {
			continue
		}

		for d := range v {
			if math.Abs(float64(tree.Nodes[i].Mean[d]-v[d])) > 1e-5 {
				t.Fatalf("leaf %d dim %d = %f, want %f",
					i, d, tree.Nodes[i].Mean[d], v[d])
			}
		}
	}

	// prediction returns the constant regardless of features
	intensities := make([]float32, len(tt.coords))

	for c := range intensities {
		intensities[c] = rnd.Float32() * 255
	}

	pred := tree.Predict(intensities)

	for d := range v {
		if math.Abs(float64(pred[d]-v[d])) > 1e-5 {
			t.Errorf("predict dim %d = %f, want %f", d, pred[d], v[d])
		}
	}
}

func TestTrainTreeDeterministic(t *testing.T) {

	build := func() Tree {
		rnd := rand.New(rand.NewSource(99))

		tt := buildTreeContext(60, 3, 40, rnd, func(i int) []float32 {
			r := make([]float32, 6)
			for d := range r {
				r[d] = rnd.Float32() - 0.5
			}
			return r
		})

		tree, err := trainTree(tt, rnd)

		if err != nil {
			t.Fatal(err)
		}

		return tree
	}

	a := build()
	b := build()

	if !reflect.DeepEqual(a, b) {
		t.Error("two runs with the same seed produced different trees")
	}
}

func TestTrainTreeRespectsDepth(t *testing.T) {

	rnd := rand.New(rand.NewSource(5))

	tt := buildTreeContext(50, 2, 25, rnd, func(i int) []float32 {
		return []float32{rnd.Float32(), rnd.Float32(), rnd.Float32(), rnd.Float32()}
	})

	tt.params.MaxTreeDepth = 2

	tree, err := trainTree(tt, rnd)

	if err != nil {
		t.Fatal(err)
	}

	if len(tree.Nodes) != numTreeNodes(2) {
		t.Fatalf("got %d nodes, want %d", len(tree.Nodes), numTreeNodes(2))
	}

	// every root to leaf path ends within the depth limit
	var walk func(idx, depth int)

	walk = func(idx, depth int) {
		if tree.Nodes[idx].IsLeaf() {
			return
		}

		if depth == 2 {
			t.Fatalf("split node %d at maximum depth", idx)
		}

		walk(2*idx+1, depth+1)
		walk(2*idx+2, depth+1)
	}

	walk(0, 0)
}

func TestTrainTreeNonFiniteResidual(t *testing.T) {

	rnd := rand.New(rand.NewSource(5))

	tt := buildTreeContext(10, 2, 25, rnd, func(i int) []float32 {
		return []float32{float32(math.NaN()), 0, 0, 0}
	})

	if _, err := trainTree(tt, rnd); err == nil {
		t.Error("NaN residual accepted")
	}
}

func BenchmarkTreePredict(b *testing.B) {

	rnd := rand.New(rand.NewSource(1))

	tt := buildTreeContext(200, 5, 100, rnd, func(i int) []float32 {
		r := make([]float32, 10)
		for d := range r {
			r[d] = rnd.Float32()
		}
		return r
	})

	tree, err := trainTree(tt, rnd)

	if err != nil {
		b.Fatal(err)
	}

	intensities := tt.intensities[0]

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		tree.Predict(intensities)
	}
}
