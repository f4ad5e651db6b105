package ml

import (
	"fmt"
	"math"
)

// Registry maps every ModelKind to its loaded classifier. It is built once
// and never modified.
type Registry struct {
	models map[ModelKind]Classifier
}

// NewRegistry requires a classifier for every kind, each accepting
// FeatureCount inputs.
func NewRegistry(models map[ModelKind]Classifier) (*Registry, error) {
	r := &Registry{models: make(map[ModelKind]Classifier, len(models))}
	for _, kind := range AllModelKinds() {
		model, ok := models[kind]
		if !ok || model == nil {
			return nil, fmt.Errorf("%w: no classifier registered for %s", ErrUnknownModel, kind)
		}
		if n := model.NumFeatures(); n != FeatureCount {
			return nil, fmt.Errorf("%w: %s expects %d features, preprocessing yields %d",
				ErrFeatureMismatch, kind, n, FeatureCount)
		}
		r.models[kind] = model
	}
	return r, nil
}

// Kinds lists the registered kinds in display order.
func (r *Registry) Kinds() []ModelKind {
	kinds := make([]ModelKind, 0, len(r.models))
	for _, kind := range AllModelKinds() {
		if _, ok := r.models[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Predict runs one scaled row through the selected classifier.
func (r *Registry) Predict(kind ModelKind, v FeatureVector) (PredictionResult, error) {
	model, ok := r.models[kind]
	if !ok {
		return PredictionResult{}, fmt.Errorf("%w: %v", ErrUnknownModel, kind)
	}
	row := v.Slice()
	label, err := model.Predict(row)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("%s predict: %w", kind, err)
	}
	proba, err := model.PredictProba(row)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("%s predict proba: %w", kind, err)
	}
	if len(proba) != 2 {
		return PredictionResult{}, fmt.Errorf("%w: %s returned %d probabilities", ErrFeatureMismatch, kind, len(proba))
	}
	if label != 0 && label != 1 {
		return PredictionResult{}, fmt.Errorf("%s returned label %d", kind, label)
	}
	for _, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return PredictionResult{}, fmt.Errorf("%s returned probability %v", kind, p)
		}
	}
	return PredictionResult{
		Model:         kind,
		Label:         label,
		Probabilities: [2]float64{proba[0], proba[1]},
	}, nil
}
