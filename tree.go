package dest

// TreeNode is one node of a regression tree.  Split nodes compare the
// intensity difference of two feature-pool entries against a
// threshold.  Leaf nodes carry the mean residual of the training
// samples that reached them and have Mean set
type TreeNode struct {
	// Idx1 and Idx2 index the stage's feature pool
	Idx1 int32
	Idx2 int32
	// Threshold is compared against intensity[Idx1] - intensity[Idx2]
	Threshold float32
	// Mean is the leaf shape displacement in normalized space,
	// interleaved x,y per landmark.  Nil on split nodes
	Mean []float32
}

// IsLeaf reports whether the node is a leaf
func (n *TreeNode) IsLeaf() bool {
	return n.Mean != nil
}

// Tree is a fixed-depth binary regression tree stored as a flat array
// in heap order, children of node i at 2i+1 and 2i+2.  Immutable once
// trained
type Tree struct {
	// Depth is the maximum number of split levels
	Depth int32
	// Nodes has length 2^(Depth+1) - 1.  Unreached slots below early
	// leaves stay zero valued
	Nodes []TreeNode
}

// numTreeNodes returns the flat array length for the given depth
func numTreeNodes(depth int) int {
	return (1 << (depth + 1)) - 1
}

// Predict walks from the root to a leaf using the sample's feature
// intensities and returns the leaf displacement vector.  The returned
// slice is owned by the tree and must not be modified
func (t *Tree) Predict(intensities []float32) []float32 {

	i := 0

	for {
		n := &t.Nodes[i]

		if n.IsLeaf() {
			return n.Mean
		}

		if intensities[n.Idx1]-intensities[n.Idx2] > n.Threshold {
			i = 2*i + 1
		} else {
			i = 2*i + 2
		}
	}
}
