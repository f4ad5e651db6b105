package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"survivalpredict/ml"
)

// parsePredictForm reads the form fields. The returned formValues echo
// whatever could be parsed so the page can be re-rendered on error.
func parsePredictForm(r *http.Request, models []ml.ModelKind) (formValues, ml.ModelKind, ml.PassengerRecord, error) {
	form := defaultFormValues(models)
	if err := r.ParseForm(); err != nil {
		return form, 0, ml.PassengerRecord{}, fmt.Errorf("%w: %v", ml.ErrInvalidPassenger, err)
	}

	var problems []string
	intField := func(name string, dst *int) {
		v, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get(name)))
		if err != nil {
			problems = append(problems, name+" must be a whole number")
			return
		}
		*dst = v
	}
	floatField := func(name string, dst *float64) {
		v, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get(name)), 64)
		if err != nil {
			problems = append(problems, name+" must be a number")
			return
		}
		*dst = v
	}

	intField("pclass", &form.Pclass)
	floatField("age", &form.Age)
	intField("sibsp", &form.SibSp)
	intField("parch", &form.Parch)
	floatField("fare", &form.Fare)
	form.Sex = r.PostForm.Get("sex")
	form.Embarked = r.PostForm.Get("embarked")
	form.Model = r.PostForm.Get("model")

	sex, err := ml.ParseSex(form.Sex)
	if err != nil {
		problems = append(problems, "sex must be Male or Female")
	}
	port, err := ml.ParsePort(form.Embarked)
	if err != nil {
		problems = append(problems, "embarked must be S, C or Q")
	}
	if len(problems) > 0 {
		return form, 0, ml.PassengerRecord{}, fmt.Errorf("%w: %s", ml.ErrInvalidPassenger, strings.Join(problems, "; "))
	}
	kind, err := ml.ParseModelKind(form.Model)
	if err != nil {
		return form, 0, ml.PassengerRecord{}, err
	}

	record := ml.PassengerRecord{
		Pclass:   form.Pclass,
		Sex:      sex,
		Age:      form.Age,
		SibSp:    form.SibSp,
		Parch:    form.Parch,
		Fare:     form.Fare,
		Embarked: port,
	}
	return form, kind, record, nil
}
