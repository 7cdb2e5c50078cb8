package dest

import (
	"fmt"
	"math"
	"math/rand"
)

// maxPairDraws bounds the rejection sampling loop when drawing a
// distance-weighted feature pair
const maxPairDraws = 100

// treeTraining is the per-tree context.  It borrows the stage's
// residuals, intensities and feature pool for the lifetime of one
// tree's growth
type treeTraining struct {
	// residuals holds the regression target per sample, interleaved
	// x,y in normalized space
	residuals [][]float32
	// intensities holds the sampled feature intensities per sample
	intensities [][]float32
	// coords is the stage's feature pool
	coords []PixelCoordinate

	params  AlgorithmParameters
	workers int
}

// splitCandidate is one evaluated split test
type splitCandidate struct {
	idx1      int32
	idx2      int32
	threshold float32
	score     float64
	valid     bool
}

// trainTree grows one randomized regression tree against the current
// residuals.  All randomness flows through rnd in a fixed sequential
// order; parallel candidate scoring uses sub-generators derived from
// a per-node seed plus the candidate index, so results are
// independent of goroutine scheduling
func trainTree(tt *treeTraining, rnd *rand.Rand) (Tree, error) {

	tree := Tree{
		Depth: int32(tt.params.MaxTreeDepth),
		Nodes: make([]TreeNode, numTreeNodes(tt.params.MaxTreeDepth)),
	}

	root := make([]int, len(tt.residuals))

	for i := range root {
		root[i] = i
	}

	if err := tt.grow(&tree, 0, 0, root, rnd); err != nil {
		return Tree{}, err
	}

	return tree, nil
}

// grow recursively builds the subtree rooted at nodeIdx from the
// given sample subset
func (tt *treeTraining) grow(tree *Tree, nodeIdx, depth int,
	samples []int, rnd *rand.Rand) error {

	if depth == tt.params.MaxTreeDepth || len(samples) < 2 {
		return tt.makeLeaf(tree, nodeIdx, samples)
	}

	// project residuals onto a single random direction so split
	// scoring stays linear in the sample count
	dir := randomUnitVector(len(tt.residuals[0]), rnd)
	proj := make([]float64, len(samples))

	for i, s := range samples {
		var p float64

		for d, r := range tt.residuals[s] {
			p += float64(dir[d]) * float64(r)
		}

		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("node %d: non-finite residual: %w",
				nodeIdx, ErrDegenerateData)
		}

		proj[i] = p
	}

	// candidates draw from deterministic per-index sub-generators so
	// they can be generated and scored concurrently
	nodeSeed := rnd.Int63()
	candidates := make([]splitCandidate, tt.params.NumRandomSplitTestsPerNode)

	parallelFor(len(candidates), tt.workers, func(start, end int) {
		for c := start; c < end; c++ {
			candidates[c] = tt.evaluateCandidate(taskRand(nodeSeed, c),
				samples, proj)
		}
	})

	best := -1

	for c := range candidates {
		if !candidates[c].valid {
			continue
		}
		if best < 0 || candidates[c].score > candidates[best].score {
			best = c
		}
	}

	if best < 0 {
		// no candidate produced two non-empty children, typically a
		// node with identical samples
		return tt.makeLeaf(tree, nodeIdx, samples)
	}

	chosen := candidates[best]

	tree.Nodes[nodeIdx] = TreeNode{
		Idx1:      chosen.idx1,
		Idx2:      chosen.idx2,
		Threshold: chosen.threshold,
	}

	var left, right []int

	for _, s := range samples {
		if tt.intensities[s][chosen.idx1]-tt.intensities[s][chosen.idx2] > chosen.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	if err := tt.grow(tree, 2*nodeIdx+1, depth+1, left, rnd); err != nil {
		return err
	}

	return tt.grow(tree, 2*nodeIdx+2, depth+1, right, rnd)
}

// evaluateCandidate draws one split test and scores it by the
// variance reduction of the projected residual across both children
func (tt *treeTraining) evaluateCandidate(rnd *rand.Rand, samples []int,
	proj []float64) splitCandidate {

	idx1, idx2 := tt.drawFeaturePair(rnd)

	// threshold from the observed intensity difference range of the
	// node's samples
	minDiff := float32(math.MaxFloat32)
	maxDiff := float32(-math.MaxFloat32)

	for _, s := range samples {
		d := tt.intensities[s][idx1] - tt.intensities[s][idx2]

		if d < minDiff {
			minDiff = d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}

	if maxDiff <= minDiff {
		return splitCandidate{}
	}

	threshold := minDiff + rnd.Float32()*(maxDiff-minDiff)

	// partition by the sign of the thresholded intensity difference
	// and accumulate the projected residual sums per child
	var sumLeft, sumRight float64
	var nLeft, nRight int

	for i, s := range samples {
		if tt.intensities[s][idx1]-tt.intensities[s][idx2] > threshold {
			sumLeft += proj[i]
			nLeft++
		} else {
			sumRight += proj[i]
			nRight++
		}
	}

	if nLeft == 0 || nRight == 0 {
		return splitCandidate{}
	}

	// maximizing n*mean^2 over both children is equivalent to
	// minimizing the total squared deviation from the child means
	score := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)

	return splitCandidate{
		idx1:      idx1,
		idx2:      idx2,
		threshold: threshold,
		score:     score,
		valid:     true,
	}
}

// drawFeaturePair picks two distinct feature pool entries, preferring
// pairs with small spatial distance with probability decaying
// exponentially at rate ExponentialLambda.  Nearby pairs carry more
// local, less noisy signal
func (tt *treeTraining) drawFeaturePair(rnd *rand.Rand) (int32, int32) {

	n := len(tt.coords)

	if n < 2 {
		return 0, 0
	}

	var a, b int

	for try := 0; try < maxPairDraws; try++ {
		a = rnd.Intn(n)

		b = rnd.Intn(n)
		for b == a {
			b = rnd.Intn(n)
		}

		dist := coordDistance(tt.coords[a], tt.coords[b])

		if rnd.Float64() < math.Exp(-float64(tt.params.ExponentialLambda)*float64(dist)) {
			break
		}
	}

	return int32(a), int32(b)
}

// makeLeaf commits the mean residual of the samples reaching this
// node as the leaf displacement
func (tt *treeTraining) makeLeaf(tree *Tree, nodeIdx int, samples []int) error {

	dim := len(tt.residuals[0])
	mean := make([]float32, dim)

	if len(samples) == 0 {
		// an empty leaf only occurs for degenerate inputs, the split
		// selection rejects candidates with an empty child
		return fmt.Errorf("node %d: empty leaf: %w", nodeIdx, ErrDegenerateData)
	}

	for _, s := range samples {
		for d, r := range tt.residuals[s] {
			mean[d] += r
		}
	}

	inv := 1 / float32(len(samples))

	for d := range mean {
		v := mean[d] * inv

		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("node %d: non-finite leaf value: %w",
				nodeIdx, ErrDegenerateData)
		}

		mean[d] = v
	}

	tree.Nodes[nodeIdx].Mean = mean

	return nil
}
