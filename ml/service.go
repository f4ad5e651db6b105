package ml

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of predictions kept when config omits it.
const DefaultCacheSize = 1024

// Prediction is everything shown for one request.
type Prediction struct {
	Passenger PassengerRecord  `json:"passenger"`
	Features  FeatureVector    `json:"features"`
	Scaled    FeatureVector    `json:"scaled"`
	Result    PredictionResult `json:"result"`
	Cached    bool             `json:"cached"`
}

type cacheKey struct {
	kind      ModelKind
	passenger PassengerRecord
}

// Service runs preprocessing and dispatch. Outputs are a pure function of
// (model, record), so they are memoized in a bounded LRU cache.
type Service struct {
	pre      *Preprocessor
	registry *Registry
	cache    *lru.Cache[cacheKey, Prediction]
	logger   *zap.Logger
}

// NewService wires preprocessing and dispatch. A cacheSize of zero or less
// disables caching; a nil logger discards logs.
func NewService(pre *Preprocessor, registry *Registry, cacheSize int, logger *zap.Logger) (*Service, error) {
	if pre == nil || registry == nil {
		return nil, errors.New("preprocessor and registry are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{pre: pre, registry: registry, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, Prediction](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Models lists the kinds that can be predicted.
func (s *Service) Models() []ModelKind {
	return s.registry.Kinds()
}

// Predict validates the record, transforms it and asks the selected model.
func (s *Service) Predict(kind ModelKind, passenger PassengerRecord) (Prediction, error) {
	if err := passenger.Validate(); err != nil {
		return Prediction{}, err
	}
	key := cacheKey{kind: kind, passenger: passenger}
	if s.cache != nil {
		if p, ok := s.cache.Get(key); ok {
			p.Cached = true
			return p, nil
		}
	}

	features := s.pre.Engineer(passenger)
	scaled := s.pre.Scale(features)
	result, err := s.registry.Predict(kind, scaled)
	if err != nil {
		s.logger.Error("prediction failed", zap.Stringer("model", kind), zap.Error(err))
		return Prediction{}, err
	}
	p := Prediction{
		Passenger: passenger,
		Features:  features,
		Scaled:    scaled,
		Result:    result,
	}
	if s.cache != nil {
		s.cache.Add(key, p)
	}
	s.logger.Debug("prediction",
		zap.Stringer("model", kind),
		zap.Int("label", result.Label),
		zap.Float64("p_survived", result.SurvivalProbability()),
	)
	return p, nil
}
