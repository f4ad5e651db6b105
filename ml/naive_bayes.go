package ml

import (
	"fmt"
	"math"
)

// GaussianNB scores each class with independent normal likelihoods per
// feature.
type GaussianNB struct {
	classPrior []float64
	theta      [][]float64
	variance   [][]float64
}

type gaussianNBArtifact struct {
	ClassPrior []float64   `json:"class_prior"`
	Theta      [][]float64 `json:"theta"`
	Var        [][]float64 `json:"var"`
}

// NewGaussianNB checks that priors, means and variances agree in shape.
func NewGaussianNB(classPrior []float64, theta, variance [][]float64) (*GaussianNB, error) {
	if len(classPrior) != 2 || len(theta) != 2 || len(variance) != 2 {
		return nil, fmt.Errorf("%w: gaussian nb needs 2 classes, got priors=%d theta=%d var=%d",
			ErrInvalidArtifact, len(classPrior), len(theta), len(variance))
	}
	width := len(theta[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: gaussian nb has no features", ErrInvalidArtifact)
	}
	for c := range classPrior {
		if classPrior[c] <= 0 || !finite(classPrior[c]) {
			return nil, fmt.Errorf("%w: class %d prior %v", ErrInvalidArtifact, c, classPrior[c])
		}
		if len(theta[c]) != width || len(variance[c]) != width {
			return nil, fmt.Errorf("%w: class %d parameter widths differ", ErrInvalidArtifact, c)
		}
		for j, v := range variance[c] {
			if v <= 0 || !finite(v) || !finite(theta[c][j]) {
				return nil, fmt.Errorf("%w: class %d feature %d has mean=%v var=%v",
					ErrInvalidArtifact, c, j, theta[c][j], v)
			}
		}
	}
	return &GaussianNB{classPrior: classPrior, theta: theta, variance: variance}, nil
}

// NumFeatures is the length of each per-class mean vector.
func (m *GaussianNB) NumFeatures() int {
	return len(m.theta[0])
}

// Predict returns the class with the higher posterior, 0 on ties.
func (m *GaussianNB) Predict(features []float64) (int, error) {
	jll, err := m.jointLogLikelihood(features)
	if err != nil {
		return 0, err
	}
	return argmax(jll), nil
}

// PredictProba returns the normalized posteriors.
func (m *GaussianNB) PredictProba(features []float64) ([]float64, error) {
	jll, err := m.jointLogLikelihood(features)
	if err != nil {
		return nil, err
	}
	norm := logSumExp(jll)
	proba := make([]float64, len(jll))
	for i, v := range jll {
		proba[i] = math.Exp(v - norm)
	}
	return proba, nil
}

func (m *GaussianNB) jointLogLikelihood(features []float64) ([]float64, error) {
	if len(features) != m.NumFeatures() {
		return nil, fmt.Errorf("%w: got %d, gaussian nb expects %d", ErrFeatureMismatch, len(features), m.NumFeatures())
	}
	jll := make([]float64, len(m.classPrior))
	for c := range m.classPrior {
		ll := math.Log(m.classPrior[c])
		for j, x := range features {
			v := m.variance[c][j]
			d := x - m.theta[c][j]
			ll -= 0.5*math.Log(2*math.Pi*v) + d*d/(2*v)
		}
		jll[c] = ll
	}
	return jll, nil
}

func logSumExp(values []float64) float64 {
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	total := 0.0
	for _, v := range values {
		total += math.Exp(v - peak)
	}
	return peak + math.Log(total)
}
