package ml

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPassenger = errors.New("invalid passenger record")
	ErrUnknownModel     = errors.New("unknown model")
	ErrFeatureMismatch  = errors.New("feature count mismatch")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
)

// Classifier is a fitted binary classifier. Both methods take one
// already scaled row.
type Classifier interface {
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
	NumFeatures() int
}

// ModelKind enumerates the classifiers served by the registry.
type ModelKind int

const (
	KNN ModelKind = iota
	DecisionTreeModel
	GaussianNBModel

	numModelKinds
)

var modelKindInfo = [numModelKinds]struct {
	slug string
	name string
}{
	KNN:               {"knn", "K-Nearest Neighbors"},
	DecisionTreeModel: {"dtree", "Decision Tree"},
	GaussianNBModel:   {"gnb", "Gaussian Naive Bayes"},
}

// AllModelKinds returns every kind in display order.
func AllModelKinds() []ModelKind {
	kinds := make([]ModelKind, 0, numModelKinds)
	for k := ModelKind(0); k < numModelKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k is one of the known kinds.
func (k ModelKind) Valid() bool {
	return k >= 0 && k < numModelKinds
}

// Slug is the short identifier used in URLs, config and form values.
func (k ModelKind) Slug() string {
	if !k.Valid() {
		return fmt.Sprintf("model(%d)", int(k))
	}
	return modelKindInfo[k].slug
}

// String returns the display name.
func (k ModelKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ModelKind(%d)", int(k))
	}
	return modelKindInfo[k].name
}

// ParseModelKind accepts either the slug or the display name.
func ParseModelKind(s string) (ModelKind, error) {
	s = strings.TrimSpace(s)
	for k := ModelKind(0); k < numModelKinds; k++ {
		if strings.EqualFold(s, modelKindInfo[k].slug) || strings.EqualFold(s, modelKindInfo[k].name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// PredictionResult is the dispatcher output. Probabilities[1] is the
// probability of survival.
type PredictionResult struct {
	Model         ModelKind  `json:"-"`
	Label         int        `json:"label"`
	Probabilities [2]float64 `json:"probabilities"`
}

// Survived reports whether the predicted label is 1.
func (p PredictionResult) Survived() bool {
	return p.Label == 1
}

// SurvivalProbability is the probability of class 1.
func (p PredictionResult) SurvivalProbability() float64 {
	return p.Probabilities[1]
}

// DeathProbability is the probability of class 0.
func (p PredictionResult) DeathProbability() float64 {
	return p.Probabilities[0]
}
