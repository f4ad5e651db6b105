package http

import (
	"embed"
	"html/template"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"survivalpredict/ml"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

var supportedLanguages = []language.Tag{language.English, language.Indonesian}

var languageMatcher = language.NewMatcher(supportedLanguages)

// UI strings are keyed by their English text.
var indonesian = map[string]string{
	"Titanic Passenger Survival Prediction": "Prediksi Survival Penumpang Titanic",
	"Choose a machine learning model and enter passenger data to predict survival.": "Pilih model Machine Learning dan masukkan data penumpang untuk memprediksi survival.",
	"Passenger data":                  "Masukkan Data Penumpang",
	"Ticket class (Pclass)":           "Kelas Tiket (Pclass)",
	"Sex":                             "Jenis Kelamin",
	"Age":                             "Umur",
	"Siblings/spouses aboard (SibSp)": "Jumlah Saudara/Pasangan di Kapal (SibSp)",
	"Parents/children aboard (Parch)": "Jumlah Orang Tua/Anak di Kapal (Parch)",
	"Ticket fare (Fare)":              "Harga Tiket (Fare)",
	"Port of embarkation":             "Pelabuhan Keberangkatan",
	"Choose a model":                  "Pilih Model untuk Prediksi",
	"Model":                           "Pilih Model",
	"Predict survival":                "Prediksi Survival",
	"Raw input data":                  "Data Input Mentah",
	"Prediction result":               "Hasil Prediksi",
	"Passenger predicted to SURVIVE!": "Penumpang Diprediksi SELAMAT!",
	"Passenger predicted NOT to survive.": "Penumpang Diprediksi TIDAK SELAMAT.",
	"Survival probability":                "Probabilitas Selamat",
	"Non-survival probability":            "Probabilitas Tidak Selamat",
	"Model accuracy depends on the training data and the algorithm used.": "Akurasi model ini tergantung pada data pelatihan dan algoritma yang digunakan.",
	"Invalid input":        "Input tidak valid",
	"Something went wrong": "Terjadi kesalahan",
}

func init() {
	for key, msg := range indonesian {
		if err := message.SetString(language.Indonesian, key, msg); err != nil {
			panic(err)
		}
	}
}

// matchLanguage picks the closest supported language, falling back to
// English.
func matchLanguage(prefs ...string) language.Tag {
	tags := make([]language.Tag, 0, len(prefs))
	for _, pref := range prefs {
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

// formatPercent renders a probability as a percentage with two decimals
// using the language's number symbols.
func formatPercent(p *message.Printer, prob float64) string {
	return p.Sprintf("%.2f%%", prob*100)
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type formValues struct {
	Pclass   int
	Sex      string
	Age      float64
	SibSp    int
	Parch    int
	Fare     float64
	Embarked string
	Model    string
}

func defaultFormValues(models []ml.ModelKind) formValues {
	f := formValues{
		Pclass:   1,
		Sex:      string(ml.Male),
		Age:      25,
		Fare:     30,
		Embarked: string(ml.Southampton),
	}
	if len(models) > 0 {
		f.Model = models[0].Slug()
	}
	return f
}

type passengerRow struct {
	Name  string
	Value string
}

type resultView struct {
	ModelName   string
	Survived    bool
	Verdict     string
	SurvivalPct string
	DeathPct    string
	Passenger   []passengerRow
}

// pageData feeds index.html. ErrorTitle is translated by the template,
// Error is shown as is.
type pageData struct {
	Lang       string
	Form       formValues
	Models     []option
	Classes    []option
	Sexes      []option
	Ports      []option
	ErrorTitle string
	Error      string
	Result     *resultView

	printer *message.Printer
}

// T translates a UI string.
func (d pageData) T(key string) string {
	return d.printer.Sprintf(key)
}

// FormatFloat prints form values without trailing zeros.
func (d pageData) FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newPageData(tag language.Tag, form formValues, models []ml.ModelKind) pageData {
	d := pageData{
		Lang:    tag.String(),
		Form:    form,
		printer: message.NewPrinter(tag),
	}
	for _, kind := range models {
		d.Models = append(d.Models, option{Value: kind.Slug(), Label: kind.String(), Selected: kind.Slug() == form.Model})
	}
	for _, class := range []int{1, 2, 3} {
		d.Classes = append(d.Classes, option{
			Value:    strconv.Itoa(class),
			Label:    strconv.Itoa(class) + " - " + ml.ClassName(class),
			Selected: class == form.Pclass,
		})
	}
	for _, sex := range []ml.Sex{ml.Male, ml.Female} {
		d.Sexes = append(d.Sexes, option{Value: string(sex), Label: string(sex), Selected: string(sex) == form.Sex})
	}
	for _, port := range []ml.Port{ml.Southampton, ml.Cherbourg, ml.Queenstown} {
		d.Ports = append(d.Ports, option{
			Value:    string(port),
			Label:    string(port) + " - " + ml.PortName(port),
			Selected: string(port) == form.Embarked,
		})
	}
	return d
}

func newResultView(p *message.Printer, pred ml.Prediction) *resultView {
	verdict := "Passenger predicted NOT to survive."
	if pred.Result.Survived() {
		verdict = "Passenger predicted to SURVIVE!"
	}
	rec := pred.Passenger
	return &resultView{
		ModelName:   pred.Result.Model.String(),
		Survived:    pred.Result.Survived(),
		Verdict:     p.Sprintf(verdict),
		SurvivalPct: formatPercent(p, pred.Result.SurvivalProbability()),
		DeathPct:    formatPercent(p, pred.Result.DeathProbability()),
		Passenger: []passengerRow{
			{"Pclass", strconv.Itoa(rec.Pclass)},
			{"Sex", string(rec.Sex)},
			{"Age", strconv.FormatFloat(rec.Age, 'f', -1, 64)},
			{"SibSp", strconv.Itoa(rec.SibSp)},
			{"Parch", strconv.Itoa(rec.Parch)},
			{"Fare", strconv.FormatFloat(rec.Fare, 'f', -1, 64)},
			{"Embarked", string(rec.Embarked)},
		},
	}
}

func renderPage(w io.Writer, d pageData) error {
	return pageTemplate.Execute(w, d)
}
