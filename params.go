package dest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTrainingData is returned when no usable samples exist
	ErrNoTrainingData = errors.New("no training data")
	// ErrShapeRectMismatch is returned when the shape and rect arrays
	// have different lengths
	ErrShapeRectMismatch = errors.New("shape and rect count mismatch")
	// ErrDegenerateData is returned when tree growth encounters data
	// it cannot recover from, such as an empty leaf or a non-finite
	// residual
	ErrDegenerateData = errors.New("degenerate training data")
)

// AlgorithmParameters are the immutable hyperparameters of one
// training run
type AlgorithmParameters struct {
	// NumCascades is the number of boosting stages
	NumCascades int
	// NumTrees is the number of regression trees per stage
	NumTrees int
	// MaxTreeDepth is the maximum number of split levels per tree
	MaxTreeDepth int
	// NumRandomPixelCoordinates is the size of the shape-indexed
	// feature pool sampled per stage
	NumRandomPixelCoordinates int
	// NumRandomSplitTestsPerNode is the number of candidate splits
	// evaluated at each tree node
	NumRandomSplitTestsPerNode int
	// ExponentialLambda controls the spatial decay preferring nearby
	// pixel pairs when sampling split candidates
	ExponentialLambda float32
	// LearningRate is the boosting shrinkage factor in (0, 1]
	LearningRate float32
}

// DefaultParameters returns the parameter values from the one
// millisecond face alignment paper
func DefaultParameters() AlgorithmParameters {
	return AlgorithmParameters{
		NumCascades:                10,
		NumTrees:                   500,
		MaxTreeDepth:               5,
		NumRandomPixelCoordinates:  500,
		NumRandomSplitTestsPerNode: 20,
		ExponentialLambda:          0.1,
		LearningRate:               0.1,
	}
}

// Validate checks the parameters for configuration errors before any
// training work begins
func (p AlgorithmParameters) Validate() error {

	if p.NumCascades <= 0 {
		return fmt.Errorf("numCascades must be positive, got %d", p.NumCascades)
	}

	if p.NumTrees <= 0 {
		return fmt.Errorf("numTrees must be positive, got %d", p.NumTrees)
	}

	if p.MaxTreeDepth <= 0 {
		return fmt.Errorf("maxTreeDepth must be positive, got %d", p.MaxTreeDepth)
	}

	if p.NumRandomPixelCoordinates <= 0 {
		return fmt.Errorf("numRandomPixelCoordinates must be positive, got %d",
			p.NumRandomPixelCoordinates)
	}

	if p.NumRandomSplitTestsPerNode <= 0 {
		return fmt.Errorf("numRandomSplitTestsPerNode must be positive, got %d",
			p.NumRandomSplitTestsPerNode)
	}

	if p.ExponentialLambda <= 0 {
		return fmt.Errorf("exponentialLambda must be positive, got %f",
			p.ExponentialLambda)
	}

	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learningRate must be in (0, 1], got %f",
			p.LearningRate)
	}

	return nil
}
