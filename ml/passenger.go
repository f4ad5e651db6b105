package ml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// Sex is the passenger's sex as offered by the form.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

// Port is the embarkation port code.
type Port string

const (
	Southampton Port = "S"
	Cherbourg   Port = "C"
	Queenstown  Port = "Q"
)

// PassengerRecord is one raw set of form attributes. It is a value type so
// it can be copied freely and used as a map or cache key.
type PassengerRecord struct {
	Pclass   int     `json:"pclass" validate:"oneof=1 2 3"`
	Sex      Sex     `json:"sex" validate:"oneof=Male Female"`
	Age      float64 `json:"age" validate:"gte=0.5,lte=80"`
	SibSp    int     `json:"sibsp" validate:"gte=0,lte=8"`
	Parch    int     `json:"parch" validate:"gte=0,lte=6"`
	Fare     float64 `json:"fare" validate:"gte=0,lte=500"`
	Embarked Port    `json:"embarked" validate:"oneof=S C Q"`
}

var validate = validator.New()

// Validate checks the record against the ranges offered by the input form.
func (r PassengerRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%v)", strings.ToLower(fe.Field()), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidPassenger, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPassenger, err)
	}
	return nil
}

// ClassName returns the ticket class label shown next to Pclass.
func ClassName(pclass int) string {
	switch pclass {
	case 1:
		return "First"
	case 2:
		return "Second"
	case 3:
		return "Third"
	default:
		return ""
	}
}

// PortName returns the full name of an embarkation port.
func PortName(p Port) string {
	switch p {
	case Southampton:
		return "Southampton"
	case Cherbourg:
		return "Cherbourg"
	case Queenstown:
		return "Queenstown"
	default:
		return ""
	}
}

// UnmarshalJSON accepts any casing. Unknown values are kept as given so
// Validate reports them as an invalid record.
func (s *Sex) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := ParseSex(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = Sex(raw)
	return nil
}

// UnmarshalJSON accepts any casing, like Sex.
func (p *Port) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := ParsePort(raw); err == nil {
		*p = parsed
		return nil
	}
	*p = Port(raw)
	return nil
}

// ParseSex accepts the form values case-insensitively.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return Male, nil
	case "female":
		return Female, nil
	default:
		return "", fmt.Errorf("%w: sex %q", ErrInvalidPassenger, s)
	}
}

// ParsePort accepts a port code case-insensitively.
func ParsePort(s string) (Port, error) {
	switch Port(strings.ToUpper(strings.TrimSpace(s))) {
	case Southampton:
		return Southampton, nil
	case Cherbourg:
		return Cherbourg, nil
	case Queenstown:
		return Queenstown, nil
	default:
		return "", fmt.Errorf("%w: embarked %q", ErrInvalidPassenger, s)
	}
}
