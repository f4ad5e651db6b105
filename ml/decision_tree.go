package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted binary tree stored as a flat node array rooted
// at index 0.
type DecisionTree struct {
	nFeatures int
	nodes     []TreeNode
}

// TreeNode is one entry of the flattened tree. Value holds the training
// class counts (or fractions) that reached the node.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value"`
}

type decisionTreeArtifact struct {
	NFeatures int        `json:"n_features"`
	Nodes     []TreeNode `json:"nodes"`
}

// NewDecisionTree checks that every path ends in a non-empty leaf.
func NewDecisionTree(nFeatures int, nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{nFeatures: nFeatures, nodes: nodes}
	if err := dt.check(); err != nil {
		return nil, err
	}
	return dt, nil
}

// NumFeatures is the input width the tree was fitted on.
func (dt *DecisionTree) NumFeatures() int {
	return dt.nFeatures
}

// Predict returns the majority class of the reached leaf.
func (dt *DecisionTree) Predict(features []float64) (int, error) {
	proba, err := dt.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

// PredictProba returns the class fractions of the reached leaf.
func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	if len(features) != dt.nFeatures {
		return nil, fmt.Errorf("%w: got %d, tree expects %d", ErrFeatureMismatch, len(features), dt.nFeatures)
	}
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	return normalize(leaf.Value), nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	idx := 0
	// A valid tree reaches a leaf in at most len(nodes) steps.
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return TreeNode{}, errors.New("invalid tree state")
}

func (dt *DecisionTree) check() error {
	if dt.nFeatures <= 0 {
		return fmt.Errorf("%w: tree has %d features", ErrInvalidArtifact, dt.nFeatures)
	}
	if len(dt.nodes) == 0 {
		return fmt.Errorf("%w: tree has no nodes", ErrInvalidArtifact)
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			if len(node.Value) != 2 {
				return fmt.Errorf("%w: leaf %d has %d classes", ErrInvalidArtifact, i, len(node.Value))
			}
			if sum(node.Value) <= 0 {
				return fmt.Errorf("%w: leaf %d is empty", ErrInvalidArtifact, i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dt.nFeatures {
			return fmt.Errorf("%w: node %d feature index %d out of range", ErrInvalidArtifact, i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(dt.nodes) {
				return fmt.Errorf("%w: node %d has child %d", ErrInvalidArtifact, i, child)
			}
		}
	}
	return nil
}

func normalize(values []float64) []float64 {
	total := sum(values)
	out := make([]float64, len(values))
	if total == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / total
	}
	return out
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// argmax returns the first index of the largest value.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
