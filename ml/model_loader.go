package ml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

// Artifacts locates the persisted scaler and classifiers.
type Artifacts struct {
	Dir          string `yaml:"dir"`
	Scaler       string `yaml:"scaler"`
	KNN          string `yaml:"knn"`
	DecisionTree string `yaml:"dtree"`
	GaussianNB   string `yaml:"gnb"`
}

// DefaultArtifacts expects the four JSON files under ./models.
func DefaultArtifacts() Artifacts {
	return Artifacts{
		Dir:          "models",
		Scaler:       "scaler.json",
		KNN:          "knn_model.json",
		DecisionTree: "dtree_model.json",
		GaussianNB:   "gnb_model.json",
	}
}

// ScalerPath is the full path of the scaler file.
func (a Artifacts) ScalerPath() string {
	return filepath.Join(a.Dir, a.Scaler)
}

// ModelPath is the full path of the file for kind, or "" for an unknown kind.
func (a Artifacts) ModelPath(kind ModelKind) string {
	switch kind {
	case KNN:
		return filepath.Join(a.Dir, a.KNN)
	case DecisionTreeModel:
		return filepath.Join(a.Dir, a.DecisionTree)
	case GaussianNBModel:
		return filepath.Join(a.Dir, a.GaussianNB)
	default:
		return ""
	}
}

// Files lists every artifact file name, scaler first.
func (a Artifacts) Files() []string {
	return []string{a.Scaler, a.KNN, a.DecisionTree, a.GaussianNB}
}

// MissingArtifactsHint is the guidance shown when an artifact file is absent.
func (a Artifacts) MissingArtifactsHint() string {
	return fmt.Sprintf("make sure %s are present in %q", strings.Join(a.Files(), ", "), a.Dir)
}

// LoadScaler reads and checks a persisted StandardScaler.
func LoadScaler(path string) (*StandardScaler, error) {
	var scaler StandardScaler
	if err := readArtifact(path, &scaler); err != nil {
		return nil, err
	}
	if err := scaler.Check(); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &scaler, nil
}

// LoadModel reads the artifact for kind and builds its classifier.
func LoadModel(kind ModelKind, path string) (Classifier, error) {
	var (
		model Classifier
		err   error
	)
	switch kind {
	case KNN:
		var a knnArtifact
		if err := readArtifact(path, &a); err != nil {
			return nil, err
		}
		model, err = NewKNNClassifier(a.NNeighbors, a.Weights, a.Points, a.Labels)
	case DecisionTreeModel:
		var a decisionTreeArtifact
		if err := readArtifact(path, &a); err != nil {
			return nil, err
		}
		model, err = NewDecisionTree(a.NFeatures, a.Nodes)
	case GaussianNBModel:
		var a gaussianNBArtifact
		if err := readArtifact(path, &a); err != nil {
			return nil, err
		}
		model, err = NewGaussianNB(a.ClassPrior, a.Theta, a.Var)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownModel, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return model, nil
}

// LoadAll reads the scaler and every model. Any failure is a startup error.
func LoadAll(a Artifacts, caps OutlierCaps) (*Preprocessor, *Registry, error) {
	scaler, err := LoadScaler(a.ScalerPath())
	if err != nil {
		return nil, nil, err
	}
	pre, err := NewPreprocessor(caps, scaler)
	if err != nil {
		return nil, nil, err
	}

	models := make(map[ModelKind]Classifier, len(AllModelKinds()))
	for _, kind := range AllModelKinds() {
		model, err := LoadModel(kind, a.ModelPath(kind))
		if err != nil {
			return nil, nil, err
		}
		models[kind] = model
	}
	registry, err := NewRegistry(models)
	if err != nil {
		return nil, nil, err
	}
	return pre, registry, nil
}

// IsMissingArtifact reports whether err was caused by an absent file.
func IsMissingArtifact(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func readArtifact(path string, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w: %v", path, ErrInvalidArtifact, err)
	}
	return nil
}
