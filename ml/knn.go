package ml

import (
	"fmt"
	"math"
	"sort"
)

const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// KNNClassifier votes among the K nearest stored points by Euclidean
// distance.
type KNNClassifier struct {
	k       int
	weights string
	points  [][]float64
	labels  []int
}

type knnArtifact struct {
	NNeighbors int         `json:"n_neighbors"`
	Weights    string      `json:"weights"`
	Points     [][]float64 `json:"points"`
	Labels     []int       `json:"labels"`
}

// NewKNNClassifier validates the stored points. An empty weights string
// means uniform.
func NewKNNClassifier(k int, weights string, points [][]float64, labels []int) (*KNNClassifier, error) {
	if weights == "" {
		weights = WeightsUniform
	}
	if weights != WeightsUniform && weights != WeightsDistance {
		return nil, fmt.Errorf("%w: unsupported knn weights %q", ErrInvalidArtifact, weights)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: n_neighbors must be positive", ErrInvalidArtifact)
	}
	if len(points) == 0 || len(points) != len(labels) {
		return nil, fmt.Errorf("%w: %d points and %d labels", ErrInvalidArtifact, len(points), len(labels))
	}
	if k > len(points) {
		return nil, fmt.Errorf("%w: n_neighbors %d exceeds %d stored points", ErrInvalidArtifact, k, len(points))
	}
	width := len(points[0])
	for i, p := range points {
		if len(p) != width {
			return nil, fmt.Errorf("%w: point %d has %d features, want %d", ErrInvalidArtifact, i, len(p), width)
		}
		if labels[i] != 0 && labels[i] != 1 {
			return nil, fmt.Errorf("%w: point %d has label %d", ErrInvalidArtifact, i, labels[i])
		}
	}
	return &KNNClassifier{k: k, weights: weights, points: points, labels: labels}, nil
}

// NumFeatures is the width of the stored points.
func (m *KNNClassifier) NumFeatures() int {
	return len(m.points[0])
}

// Predict returns the class with the larger vote, 0 on ties.
func (m *KNNClassifier) Predict(features []float64) (int, error) {
	proba, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

// PredictProba returns the normalized votes of the k nearest points.
func (m *KNNClassifier) PredictProba(features []float64) ([]float64, error) {
	if len(features) != m.NumFeatures() {
		return nil, fmt.Errorf("%w: got %d, knn expects %d", ErrFeatureMismatch, len(features), m.NumFeatures())
	}

	type neighbor struct {
		dist  float64
		label int
	}
	nbrs := make([]neighbor, len(m.points))
	for i, p := range m.points {
		nbrs[i] = neighbor{dist: euclidSquared(features, p), label: m.labels[i]}
	}
	// Stable so equal distances keep training order.
	sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].dist < nbrs[b].dist })
	nbrs = nbrs[:m.k]

	votes := make([]float64, 2)
	if m.weights == WeightsDistance {
		// Exact matches take all the weight.
		exact := false
		for _, n := range nbrs {
			if n.dist == 0 {
				votes[n.label]++
				exact = true
			}
		}
		if exact {
			return normalize(votes), nil
		}
		for _, n := range nbrs {
			votes[n.label] += 1 / math.Sqrt(n.dist)
		}
		return normalize(votes), nil
	}
	for _, n := range nbrs {
		votes[n.label]++
	}
	return normalize(votes), nil
}

func euclidSquared(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		d := a[i] - b[i]
		total += d * d
	}
	return total
}
