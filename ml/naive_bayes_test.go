package ml

import (
	"errors"
	"math"
	"testing"
)

func TestGaussianNBPredict(t *testing.T) {
	model, err := NewGaussianNB(
		[]float64{0.5, 0.5},
		[][]float64{{-1, 0}, {1, 0}},
		[][]float64{{1, 1}, {1, 1}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proba, err := model.PredictProba([]float64{0, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[0]-0.5) > 1e-12 || math.Abs(proba[1]-0.5) > 1e-12 {
		t.Fatalf("expected even split at the midpoint, got %v", proba)
	}

	proba, err = model.PredictProba([]float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Log odds are ((x+1)^2 - (x-1)^2) / 2 = 2x.
	want := 1 / (1 + math.Exp(-2))
	if math.Abs(proba[1]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, proba[1])
	}
	label, err := model.Predict([]float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestGaussianNBStableForFarInputs(t *testing.T) {
	model, err := NewGaussianNB(
		[]float64{0.6, 0.4},
		[][]float64{{0}, {1}},
		[][]float64{{0.01}, {0.01}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := model.PredictProba([]float64{1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(proba[0]) || math.IsNaN(proba[1]) {
		t.Fatalf("unexpected NaN: %v", proba)
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-9 {
		t.Fatalf("probabilities do not sum to 1: %v", proba)
	}
}

func TestGaussianNBRejectsBadArtifacts(t *testing.T) {
	if _, err := NewGaussianNB([]float64{1}, [][]float64{{0}}, [][]float64{{1}}); !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("expected invalid artifact for one class, got %v", err)
	}
	if _, err := NewGaussianNB([]float64{0.5, 0.5}, [][]float64{{0}, {0}}, [][]float64{{1}, {0}}); !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("expected invalid artifact for zero variance, got %v", err)
	}
	if _, err := NewGaussianNB([]float64{0.5, 0.5}, [][]float64{{0}, {0, 1}}, [][]float64{{1}, {1, 1}}); !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("expected invalid artifact for ragged params, got %v", err)
	}
}
