package ml

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
)

func newTestService(t *testing.T, cacheSize int) *Service {
	t.Helper()
	registry, err := NewRegistry(fakeModels())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc, err := NewService(newTestPreprocessor(t), registry, cacheSize, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestServicePredict(t *testing.T) {
	svc := newTestService(t, 8)
	p, err := svc.Predict(KNN, samplePassenger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Cached {
		t.Fatal("first prediction should not be cached")
	}
	if p.Features != (FeatureVector{3, 0, 22, 1, 0, 7.25, 0, 1}) {
		t.Fatalf("unexpected features: %v", p.Features)
	}
	if p.Result.Label != 1 || p.Passenger != samplePassenger() {
		t.Fatalf("unexpected prediction: %+v", p)
	}

	again, err := svc.Predict(KNN, samplePassenger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.Cached || again.Result != p.Result {
		t.Fatalf("expected cached copy of %+v, got %+v", p.Result, again)
	}

	other, err := svc.Predict(DecisionTreeModel, samplePassenger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Cached || other.Result.Model != DecisionTreeModel {
		t.Fatalf("cache must be keyed by model: %+v", other)
	}
}

func TestServiceWithoutCache(t *testing.T) {
	svc := newTestService(t, 0)
	for i := 0; i < 2; i++ {
		p, err := svc.Predict(GaussianNBModel, samplePassenger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Cached {
			t.Fatal("cache disabled but result marked cached")
		}
	}
}

func TestServiceRejectsInvalidPassenger(t *testing.T) {
	svc := newTestService(t, 8)
	tests := []struct {
		name   string
		mutate func(*PassengerRecord)
	}{
		{"pclass", func(r *PassengerRecord) { r.Pclass = 4 }},
		{"sex", func(r *PassengerRecord) { r.Sex = "Other" }},
		{"age low", func(r *PassengerRecord) { r.Age = 0.1 }},
		{"age high", func(r *PassengerRecord) { r.Age = 81 }},
		{"sibsp", func(r *PassengerRecord) { r.SibSp = 9 }},
		{"parch", func(r *PassengerRecord) { r.Parch = -1 }},
		{"fare", func(r *PassengerRecord) { r.Fare = 500.5 }},
		{"embarked", func(r *PassengerRecord) { r.Embarked = "X" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := samplePassenger()
			tt.mutate(&record)
			if _, err := svc.Predict(KNN, record); !errors.Is(err, ErrInvalidPassenger) {
				t.Fatalf("expected invalid passenger, got %v", err)
			}
		})
	}
}

func TestParseSexAndPort(t *testing.T) {
	if s, err := ParseSex("female"); err != nil || s != Female {
		t.Fatalf("expected Female, got %q (%v)", s, err)
	}
	if _, err := ParseSex("x"); !errors.Is(err, ErrInvalidPassenger) {
		t.Fatalf("expected invalid passenger, got %v", err)
	}
	if p, err := ParsePort("q"); err != nil || p != Queenstown {
		t.Fatalf("expected Q, got %q (%v)", p, err)
	}
	if PortName(Cherbourg) != "Cherbourg" || ClassName(2) != "Second" {
		t.Fatal("unexpected display names")
	}
}

func TestPassengerRecordJSONIgnoresCase(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sex      Sex
		embarked Port
		valid    bool
	}{
		{"canonical", `{"pclass":3,"sex":"Male","age":22,"sibsp":1,"fare":7.25,"embarked":"S"}`, Male, Southampton, true},
		{"lowercase", `{"pclass":3,"sex":"male","age":22,"sibsp":1,"fare":7.25,"embarked":"s"}`, Male, Southampton, true},
		{"mixed case", `{"pclass":1,"sex":"fEmAlE","age":30,"fare":80,"embarked":"c"}`, Female, Cherbourg, true},
		{"unknown values", `{"pclass":3,"sex":"other","age":22,"fare":7.25,"embarked":"x"}`, "other", "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var record PassengerRecord
			if err := json.Unmarshal([]byte(tt.body), &record); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if record.Sex != tt.sex || record.Embarked != tt.embarked {
				t.Fatalf("decoded sex=%q embarked=%q", record.Sex, record.Embarked)
			}
			if err := record.Validate(); (err == nil) != tt.valid {
				t.Fatalf("Validate() = %v, want valid=%v", err, tt.valid)
			}
		})
	}
}

func TestPassengerRecordJSONRejectsNonString(t *testing.T) {
	var record PassengerRecord
	if err := json.Unmarshal([]byte(`{"sex":1}`), &record); err == nil {
		t.Fatal("expected error for numeric sex")
	}
}
