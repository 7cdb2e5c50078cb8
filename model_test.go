package dest

import (
	"bytes"
	"math"
	"reflect"
	"testing"
)

// testTracker builds a small handcrafted tracker covering split
// nodes, early leaves and unreached slots
func testTracker() *Tracker {

	tree := Tree{
		Depth: 2,
		Nodes: make([]TreeNode, numTreeNodes(2)),
	}

	// root split
	tree.Nodes[0] = TreeNode{Idx1: 3, Idx2: 7, Threshold: 12.5}
	// left child is an early leaf, its subtree slots stay empty
	tree.Nodes[1] = TreeNode{Mean: []float32{0.25, -0.75, 1.5, 0}}
	// right child splits once more
	tree.Nodes[2] = TreeNode{Idx1: 0, Idx2: 9, Threshold: -3.25}
	tree.Nodes[5] = TreeNode{Mean: []float32{-1, 2, -3, 4}}
	tree.Nodes[6] = TreeNode{Mean: []float32{0.125, 0.25, 0.5, 1}}

	stage := &Regressor{
		MeanShape:    Shape{{X: 0.2, Y: 0.3}, {X: 0.8, Y: 0.7}},
		LearningRate: 0.1,
		Coords: []PixelCoordinate{
			{Landmark: 0, Offset: Point{X: 0.1, Y: -0.1}, Pos: Point{X: 0.3, Y: 0.2}},
			{Landmark: 1, Offset: Point{X: -0.2, Y: 0.05}, Pos: Point{X: 0.6, Y: 0.75}},
		},
		Trees: []Tree{tree},
	}

	return &Tracker{
		InitialShape: Shape{{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.75}},
		Stages:       []*Regressor{stage},
		Params:       DefaultParameters(),
	}
}

func TestModelRoundTrip(t *testing.T) {

	tr := testTracker()

	var buf bytes.Buffer

	if err := tr.Save(&buf); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTracker(&buf)

	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(tr, loaded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, tr)
	}
}

func TestModelRoundTripCompact(t *testing.T) {

	tr := testTracker()

	var buf bytes.Buffer

	if err := tr.SaveCompact(&buf); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTracker(&buf)

	if err != nil {
		t.Fatal(err)
	}

	// half precision leaves round trip within float16 tolerance, all
	// other fields exactly
	if !reflect.DeepEqual(tr.InitialShape, loaded.InitialShape) {
		t.Error("initial shape mismatch")
	}

	for s := range tr.Stages {
		want := tr.Stages[s]
		got := loaded.Stages[s]

		if !reflect.DeepEqual(want.MeanShape, got.MeanShape) {
			t.Errorf("stage %d mean shape mismatch", s)
		}

		if !reflect.DeepEqual(want.Coords, got.Coords) {
			t.Errorf("stage %d coords mismatch", s)
		}

		for ti := range want.Trees {
			for n := range want.Trees[ti].Nodes {
				wn := &want.Trees[ti].Nodes[n]
				gn := &got.Trees[ti].Nodes[n]

				if wn.IsLeaf() != gn.IsLeaf() {
					t.Fatalf("tree %d node %d kind mismatch", ti, n)
				}

				if !wn.IsLeaf() {
					if !reflect.DeepEqual(*wn, *gn) {
						t.Errorf("tree %d split node %d mismatch", ti, n)
					}
					continue
				}

				for d := range wn.Mean {
					diff := math.Abs(float64(wn.Mean[d] - gn.Mean[d]))

					if diff > 1e-2 {
						t.Errorf("tree %d leaf %d dim %d: %f vs %f",
							ti, n, d, wn.Mean[d], gn.Mean[d])
					}
				}
			}
		}
	}

	// compact encoding must be smaller than full precision
	var full bytes.Buffer

	if err := tr.Save(&full); err != nil {
		t.Fatal(err)
	}

	if buf.Len() >= full.Len() {
		t.Errorf("compact model (%d bytes) not smaller than full (%d bytes)",
			buf.Len(), full.Len())
	}
}

func TestLoadTrackerRejectsGarbage(t *testing.T) {

	tests := [][]byte{
		nil,
		[]byte("BOGUS MODEL DATA"),
		[]byte("DES"),
	}

	for i, data := range tests {
		if _, err := LoadTracker(bytes.NewReader(data)); err == nil {
			t.Errorf("test %d: garbage input accepted", i)
		}
	}
}

func TestSaveLoadFile(t *testing.T) {

	tr := testTracker()

	path := t.TempDir() + "/tracker.bin"

	if err := tr.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTrackerFile(path)

	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(tr, loaded) {
		t.Error("file round trip mismatch")
	}
}
