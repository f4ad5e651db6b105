package ml

import (
	"errors"
	"math"
	"testing"
)

func identityScaler() *StandardScaler {
	s := &StandardScaler{
		FeatureNames: FeatureNames(),
		Mean:         make([]float64, FeatureCount),
		Scale:        make([]float64, FeatureCount),
	}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}

func newTestPreprocessor(t *testing.T) *Preprocessor {
	t.Helper()
	pre, err := NewPreprocessor(DefaultOutlierCaps(), identityScaler())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pre
}

func samplePassenger() PassengerRecord {
	return PassengerRecord{
		Pclass:   3,
		Sex:      Male,
		Age:      22,
		SibSp:    1,
		Parch:    0,
		Fare:     7.25,
		Embarked: Southampton,
	}
}

func TestEngineerOrder(t *testing.T) {
	pre := newTestPreprocessor(t)
	got := pre.Engineer(samplePassenger())
	want := FeatureVector{3, 0, 22, 1, 0, 7.25, 0, 1}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(got.Slice()) != len(FeatureNames()) {
		t.Fatalf("vector length %d does not match %d names", len(got.Slice()), len(FeatureNames()))
	}
}

func TestTransformIsIdempotent(t *testing.T) {
	scaler := identityScaler()
	for i := range scaler.Mean {
		scaler.Mean[i] = float64(i) * 0.5
		scaler.Scale[i] = float64(i) + 1
	}
	pre, err := NewPreprocessor(DefaultOutlierCaps(), scaler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record := PassengerRecord{Pclass: 1, Sex: Female, Age: 70, SibSp: 3, Parch: 2, Fare: 250, Embarked: Queenstown}
	first := pre.Transform(record)
	second := pre.Transform(record)
	if first != second {
		t.Fatalf("transform is not deterministic: %v vs %v", first, second)
	}
	if staged := pre.Scale(pre.Engineer(record)); staged != first {
		t.Fatalf("engineer then scale gave %v, transform gave %v", staged, first)
	}
	if record.Age != 70 || record.Fare != 250 {
		t.Fatalf("input record was modified: %+v", record)
	}
}

func TestOutlierCaps(t *testing.T) {
	tests := []struct {
		name     string
		age      float64
		fare     float64
		wantAge  float64
		wantFare float64
	}{
		{"age at upper bound", 64.37, 10, 64.37, 10},
		{"age above upper bound", 70, 10, 64.37, 10},
		{"age below lower bound", 1, 10, 2.50, 10},
		{"age at lower bound", 2.5, 10, 2.50, 10},
		{"fare above bound", 30, 100, 30, 65.65},
		{"fare at bound", 30, 65.65, 30, 65.65},
		{"fare inside", 30, 0, 30, 0},
	}

	pre := newTestPreprocessor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := samplePassenger()
			record.Age = tt.age
			record.Fare = tt.fare
			v := pre.Engineer(record)
			if v[2] != tt.wantAge {
				t.Errorf("age: expected %v, got %v", tt.wantAge, v[2])
			}
			if v[5] != tt.wantFare {
				t.Errorf("fare: expected %v, got %v", tt.wantFare, v[5])
			}
		})
	}
}

func TestOutlierCapsFromConfig(t *testing.T) {
	caps := OutlierCaps{FareUpper: 50, AgeLower: 5, AgeUpper: 60}
	age, fare := caps.Apply(1, 80)
	if age != 5 || fare != 50 {
		t.Fatalf("expected (5, 50), got (%v, %v)", age, fare)
	}
}

func TestEncodeEmbarked(t *testing.T) {
	tests := []struct {
		port  Port
		wantQ bool
		wantS bool
	}{
		{Queenstown, true, false},
		{Southampton, false, true},
		{Cherbourg, false, false},
	}
	pre := newTestPreprocessor(t)
	for _, tt := range tests {
		t.Run(string(tt.port), func(t *testing.T) {
			q, s := EncodeEmbarked(tt.port)
			if q != tt.wantQ || s != tt.wantS {
				t.Fatalf("expected (%v, %v), got (%v, %v)", tt.wantQ, tt.wantS, q, s)
			}
			record := samplePassenger()
			record.Embarked = tt.port
			v := pre.Engineer(record)
			if (v[6] == 1) != tt.wantQ || (v[7] == 1) != tt.wantS {
				t.Fatalf("unexpected indicator columns: %v", v)
			}
		})
	}
}

func TestEncodeSex(t *testing.T) {
	if got := EncodeSex(Male); got != 0 {
		t.Fatalf("expected Male=0, got %v", got)
	}
	if got := EncodeSex(Female); got != 1 {
		t.Fatalf("expected Female=1, got %v", got)
	}
}

func TestScalerTransform(t *testing.T) {
	scaler := identityScaler()
	scaler.Mean[2] = 30
	scaler.Scale[2] = 10
	scaler.Scale[5] = 0
	got := scaler.Transform(FeatureVector{3, 0, 40, 1, 0, 7.25, 0, 1})
	if math.Abs(got[2]-1) > 1e-12 {
		t.Fatalf("expected scaled age 1, got %v", got[2])
	}
	if got[5] != 7.25 {
		t.Fatalf("zero scale should pass value through, got %v", got[5])
	}
}

func TestNewPreprocessorRejectsBadScaler(t *testing.T) {
	short := identityScaler()
	short.Mean = short.Mean[:5]

	renamed := identityScaler()
	renamed.FeatureNames = []string{"Sex", "Pclass", "Age", "SibSp", "Parch", "Fare", "Embarked_Q", "Embarked_S"}

	nan := identityScaler()
	nan.Scale[3] = math.NaN()

	tests := []struct {
		name   string
		scaler *StandardScaler
		want   error
	}{
		{"nil", nil, ErrInvalidArtifact},
		{"short", short, ErrFeatureMismatch},
		{"column order", renamed, ErrFeatureMismatch},
		{"nan scale", nan, ErrInvalidArtifact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreprocessor(DefaultOutlierCaps(), tt.scaler)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
