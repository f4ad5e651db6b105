package ml

import (
	"fmt"
	"math"
)

// StandardScaler applies persisted z-score parameters. It never fits.
type StandardScaler struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// Check verifies that the parameters line up with FeatureNames().
func (s *StandardScaler) Check() error {
	if s == nil {
		return fmt.Errorf("%w: scaler is nil", ErrInvalidArtifact)
	}
	if len(s.Mean) != FeatureCount || len(s.Scale) != FeatureCount {
		return fmt.Errorf("%w: scaler has %d means and %d scales, want %d",
			ErrFeatureMismatch, len(s.Mean), len(s.Scale), FeatureCount)
	}
	if len(s.FeatureNames) > 0 {
		names := FeatureNames()
		if len(s.FeatureNames) != len(names) {
			return fmt.Errorf("%w: scaler names %v", ErrFeatureMismatch, s.FeatureNames)
		}
		for i, name := range names {
			if s.FeatureNames[i] != name {
				return fmt.Errorf("%w: scaler column %d is %q, want %q",
					ErrFeatureMismatch, i, s.FeatureNames[i], name)
			}
		}
	}
	for i := 0; i < FeatureCount; i++ {
		if !finite(s.Mean[i]) || !finite(s.Scale[i]) || s.Scale[i] < 0 {
			return fmt.Errorf("%w: scaler column %d has mean=%v scale=%v",
				ErrInvalidArtifact, i, s.Mean[i], s.Scale[i])
		}
	}
	return nil
}

// Transform standardizes one vector. Zero scales are treated as 1.
func (s *StandardScaler) Transform(v FeatureVector) FeatureVector {
	var out FeatureVector
	for i := range v {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v[i] - s.Mean[i]) / scale
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
