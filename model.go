package dest

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/x448/float16"
)

// model file layout: little-endian packed magic, version, flags,
// algorithm parameters, initial shape and stages.  Leaf displacement
// vectors are stored as float32 or, with flagHalfLeaves set, as IEEE
// half precision to shrink large cascades
const (
	modelMagic   = "DEST"
	modelVersion = uint32(1)

	flagHalfLeaves = uint32(1 << 0)

	nodeKindEmpty = uint8(0)
	nodeKindSplit = uint8(1)
	nodeKindLeaf  = uint8(2)
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// Save writes the tracker in full float32 precision
func (t *Tracker) Save(w io.Writer) error {
	return t.save(w, 0)
}

// SaveCompact writes the tracker with leaf vectors encoded as half
// precision floats, roughly halving the model size.  Leaf values
// round-trip within half precision tolerance
func (t *Tracker) SaveCompact(w io.Writer) error {
	return t.save(w, flagHalfLeaves)
}

// SaveFile writes the tracker to the given file path
func (t *Tracker) SaveFile(path string) error {

	f, err := os.Create(path)

	if err != nil {
		return fmt.Errorf("error creating model file: %w", err)
	}

	defer f.Close()

	if err := t.Save(f); err != nil {
		return err
	}

	return f.Sync()
}

func (t *Tracker) save(w io.Writer, flags uint32) error {

	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(modelMagic); err != nil {
		return err
	}

	head := []any{
		modelVersion,
		flags,
		int32(t.Params.NumCascades),
		int32(t.Params.NumTrees),
		int32(t.Params.MaxTreeDepth),
		int32(t.Params.NumRandomPixelCoordinates),
		int32(t.Params.NumRandomSplitTestsPerNode),
		t.Params.ExponentialLambda,
		t.Params.LearningRate,
		uint32(len(t.InitialShape)),
	}

	for _, v := range head {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if err := writeShape(bw, t.InitialShape); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(t.Stages))); err != nil {
		return err
	}

	for _, stage := range t.Stages {
		if err := writeStage(bw, stage, flags); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeStage(w io.Writer, stage *Regressor, flags uint32) error {

	if err := writeShape(w, stage.MeanShape); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, stage.LearningRate); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(stage.Coords))); err != nil {
		return err
	}

	for _, c := range stage.Coords {
		vals := []any{c.Landmark, c.Offset.X, c.Offset.Y, c.Pos.X, c.Pos.Y}

		for _, v := range vals {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(stage.Trees))); err != nil {
		return err
	}

	for i := range stage.Trees {
		if err := writeTree(w, &stage.Trees[i], flags); err != nil {
			return err
		}
	}

	return nil
}

func writeTree(w io.Writer, tree *Tree, flags uint32) error {

	if err := binary.Write(w, binary.LittleEndian, tree.Depth); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(tree.Nodes))); err != nil {
		return err
	}

	for i := range tree.Nodes {
		n := &tree.Nodes[i]

		switch {
		case n.IsLeaf():
			if err := binary.Write(w, binary.LittleEndian, nodeKindLeaf); err != nil {
				return err
			}

			if err := binary.Write(w, binary.LittleEndian, uint32(len(n.Mean))); err != nil {
				return err
			}

			if flags&flagHalfLeaves != 0 {
				for _, v := range n.Mean {
					bits := float16.Fromfloat32(v).Bits()

					if err := binary.Write(w, binary.LittleEndian, bits); err != nil {
						return err
					}
				}
			} else {
				if err := binary.Write(w, binary.LittleEndian, n.Mean); err != nil {
					return err
				}
			}

		case n.Idx1 == 0 && n.Idx2 == 0 && n.Threshold == 0:
			// unreached slot below an early leaf
			if err := binary.Write(w, binary.LittleEndian, nodeKindEmpty); err != nil {
				return err
			}

		default:
			if err := binary.Write(w, binary.LittleEndian, nodeKindSplit); err != nil {
				return err
			}

			vals := []any{n.Idx1, n.Idx2, n.Threshold}

			for _, v := range vals {
				if err := binary.Write(w, binary.LittleEndian, v); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// LoadTracker reads a tracker previously written with Save or
// SaveCompact
func LoadTracker(r io.Reader) (*Tracker, error) {

	br := bufio.NewReader(r)

	magic := make([]byte, len(modelMagic))

	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("error reading model header: %w", err)
	}

	if string(magic) != modelMagic {
		return nil, fmt.Errorf("not a tracker model file")
	}

	var version, flags uint32

	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}

	if version != modelVersion {
		return nil, fmt.Errorf("unsupported model version %d", version)
	}

	if err := binary.Read(br, binary.LittleEndian, &flags); err != nil {
		return nil, err
	}

	t := &Tracker{}

	var cascades, trees, depth, coords, splitTests int32

	ints := []*int32{&cascades, &trees, &depth, &coords, &splitTests}

	for _, v := range ints {
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}

	if err := binary.Read(br, binary.LittleEndian, &t.Params.ExponentialLambda); err != nil {
		return nil, err
	}

	if err := binary.Read(br, binary.LittleEndian, &t.Params.LearningRate); err != nil {
		return nil, err
	}

	t.Params.NumCascades = int(cascades)
	t.Params.NumTrees = int(trees)
	t.Params.MaxTreeDepth = int(depth)
	t.Params.NumRandomPixelCoordinates = int(coords)
	t.Params.NumRandomSplitTestsPerNode = int(splitTests)

	var numLandmarks uint32

	if err := binary.Read(br, binary.LittleEndian, &numLandmarks); err != nil {
		return nil, err
	}

	shape, err := readShape(br, int(numLandmarks))

	if err != nil {
		return nil, err
	}

	t.InitialShape = shape

	var numStages uint32

	if err := binary.Read(br, binary.LittleEndian, &numStages); err != nil {
		return nil, err
	}

	t.Stages = make([]*Regressor, numStages)

	for i := range t.Stages {
		stage, err := readStage(br, int(numLandmarks), flags)

		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}

		t.Stages[i] = stage
	}

	return t, nil
}

// LoadTrackerFile reads a tracker model from the given file path
func LoadTrackerFile(path string) (*Tracker, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening model file: %w", err)
	}

	defer f.Close()

	return LoadTracker(f)
}

func readStage(r io.Reader, numLandmarks int, flags uint32) (*Regressor, error) {

	stage := &Regressor{}

	shape, err := readShape(r, numLandmarks)

	if err != nil {
		return nil, err
	}

	stage.MeanShape = shape

	if err := binary.Read(r, binary.LittleEndian, &stage.LearningRate); err != nil {
		return nil, err
	}

	var numCoords uint32

	if err := binary.Read(r, binary.LittleEndian, &numCoords); err != nil {
		return nil, err
	}

	stage.Coords = make([]PixelCoordinate, numCoords)

	for i := range stage.Coords {
		c := &stage.Coords[i]

		vals := []any{&c.Landmark, &c.Offset.X, &c.Offset.Y, &c.Pos.X, &c.Pos.Y}

		for _, v := range vals {
			if err := binary.Read(r, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
	}

	var numTrees uint32

	if err := binary.Read(r, binary.LittleEndian, &numTrees); err != nil {
		return nil, err
	}

	stage.Trees = make([]Tree, numTrees)

	for i := range stage.Trees {
		if err := readTree(r, &stage.Trees[i], flags); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	return stage, nil
}

func readTree(r io.Reader, tree *Tree, flags uint32) error {

	if err := binary.Read(r, binary.LittleEndian, &tree.Depth); err != nil {
		return err
	}

	var numNodes uint32

	if err := binary.Read(r, binary.LittleEndian, &numNodes); err != nil {
		return err
	}

	tree.Nodes = make([]TreeNode, numNodes)

	for i := range tree.Nodes {
		n := &tree.Nodes[i]

		var kind uint8

		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return err
		}

		switch kind {
		case nodeKindEmpty:
			// zero valued slot

		case nodeKindSplit:
			vals := []any{&n.Idx1, &n.Idx2, &n.Threshold}

			for _, v := range vals {
				if err := binary.Read(r, binary.LittleEndian, v); err != nil {
					return err
				}
			}

		case nodeKindLeaf:
			var dim uint32

			if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
				return err
			}

			n.Mean = make([]float32, dim)

			if flags&flagHalfLeaves != 0 {
				for d := range n.Mean {
					var bits uint16

					if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
						return err
					}

					n.Mean[d] = f16LookupTable[bits]
				}
			} else {
				if err := binary.Read(r, binary.LittleEndian, n.Mean); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("unknown node kind %d", kind)
		}
	}

	return nil
}

func writeShape(w io.Writer, s Shape) error {
	return binary.Write(w, binary.LittleEndian, s.Vector())
}

func readShape(r io.Reader, numLandmarks int) (Shape, error) {

	v := make([]float32, 2*numLandmarks)

	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return nil, err
	}

	s := NewShape(numLandmarks)
	s.AddVector(v, 1)

	return s, nil
}
