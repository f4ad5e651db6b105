package ml

// FeatureCount is the width of every model input.
const FeatureCount = 8

// FeatureVector holds the engineered columns in training order:
// Pclass, Sex, Age, SibSp, Parch, Fare, Embarked_Q, Embarked_S.
type FeatureVector [FeatureCount]float64

// FeatureNames returns the column names in FeatureVector order.
func FeatureNames() []string {
	return []string{
		"Pclass",
		"Sex",
		"Age",
		"SibSp",
		"Parch",
		"Fare",
		"Embarked_Q",
		"Embarked_S",
	}
}

// Slice returns a copy usable by a Classifier.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// OutlierCaps are the IQR bounds measured on the training set.
type OutlierCaps struct {
	FareUpper float64 `yaml:"fare_upper"`
	AgeLower  float64 `yaml:"age_lower"`
	AgeUpper  float64 `yaml:"age_upper"`
}

// DefaultOutlierCaps are the bounds measured on the Titanic training set.
func DefaultOutlierCaps() OutlierCaps {
	return OutlierCaps{
		FareUpper: 65.65,
		AgeLower:  2.50,
		AgeUpper:  64.37,
	}
}

// Apply clamps age into [AgeLower, AgeUpper] and fare to at most FareUpper.
func (c OutlierCaps) Apply(age, fare float64) (float64, float64) {
	if fare > c.FareUpper {
		fare = c.FareUpper
	}
	if age > c.AgeUpper {
		age = c.AgeUpper
	}
	if age < c.AgeLower {
		age = c.AgeLower
	}
	return age, fare
}

// EncodeSex maps Male to 0 and Female to 1.
func EncodeSex(s Sex) float64 {
	if s == Female {
		return 1
	}
	return 0
}

// EncodeEmbarked returns the Embarked_Q and Embarked_S indicators.
// Cherbourg is the reference category.
func EncodeEmbarked(p Port) (q, s bool) {
	return p == Queenstown, p == Southampton
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Preprocessor reproduces the training-time feature pipeline. It is
// immutable after construction and safe for concurrent use.
type Preprocessor struct {
	caps   OutlierCaps
	scaler *StandardScaler
}

// NewPreprocessor fails when the scaler does not match FeatureNames.
func NewPreprocessor(caps OutlierCaps, scaler *StandardScaler) (*Preprocessor, error) {
	if err := scaler.Check(); err != nil {
		return nil, err
	}
	return &Preprocessor{caps: caps, scaler: scaler}, nil
}

// Scale standardizes an engineered vector with the persisted scaler.
func (p *Preprocessor) Scale(v FeatureVector) FeatureVector {
	return p.scaler.Transform(v)
}

// Engineer encodes, caps and orders the record without scaling.
func (p *Preprocessor) Engineer(r PassengerRecord) FeatureVector {
	q, s := EncodeEmbarked(r.Embarked)
	age, fare := p.caps.Apply(r.Age, r.Fare)
	return FeatureVector{
		float64(r.Pclass),
		EncodeSex(r.Sex),
		age,
		float64(r.SibSp),
		float64(r.Parch),
		fare,
		indicator(q),
		indicator(s),
	}
}

// Transform returns the scaled model input for r.
func (p *Preprocessor) Transform(r PassengerRecord) FeatureVector {
	return p.Scale(p.Engineer(r))
}
