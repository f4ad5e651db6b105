// Command predict scores one passenger from the command line using the same
// artifacts and preprocessing as the web service.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"survivalpredict/config"
	"survivalpredict/ml"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./config.yaml or ../config.yaml)")
	model := flag.String("model", "all", "model slug or name, or \"all\"")
	pclass := flag.Int("pclass", 1, "ticket class (1, 2 or 3)")
	sex := flag.String("sex", "Male", "Male or Female")
	age := flag.Float64("age", 25, "age in years")
	sibsp := flag.Int("sibsp", 0, "siblings/spouses aboard")
	parch := flag.Int("parch", 0, "parents/children aboard")
	fare := flag.Float64("fare", 30, "ticket fare")
	embarked := flag.String("embarked", "S", "port of embarkation (S, C or Q)")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = config.Find("config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	passenger, err := buildPassenger(*pclass, *sex, *age, *sibsp, *parch, *fare, *embarked)
	if err != nil {
		log.Fatalf("invalid passenger: %v", err)
	}
	kinds, err := selectModels(*model)
	if err != nil {
		log.Fatal(err)
	}

	pre, registry, err := ml.LoadAll(cfg.Artifacts, cfg.Preprocessing.Caps)
	if err != nil {
		if ml.IsMissingArtifact(err) {
			log.Fatal(cfg.Artifacts.MissingArtifactsHint())
		}
		log.Fatalf("failed to load model artifacts: %v", err)
	}
	svc, err := ml.NewService(pre, registry, 0, nil)
	if err != nil {
		log.Fatalf("failed to create prediction service: %v", err)
	}

	if err := run(os.Stdout, svc, kinds, passenger); err != nil {
		log.Fatal(err)
	}
}

func buildPassenger(pclass int, sex string, age float64, sibsp, parch int, fare float64, embarked string) (ml.PassengerRecord, error) {
	s, err := ml.ParseSex(sex)
	if err != nil {
		return ml.PassengerRecord{}, err
	}
	port, err := ml.ParsePort(embarked)
	if err != nil {
		return ml.PassengerRecord{}, err
	}
	record := ml.PassengerRecord{
		Pclass:   pclass,
		Sex:      s,
		Age:      age,
		SibSp:    sibsp,
		Parch:    parch,
		Fare:     fare,
		Embarked: port,
	}
	return record, record.Validate()
}

func selectModels(name string) ([]ml.ModelKind, error) {
	if strings.EqualFold(strings.TrimSpace(name), "all") {
		return ml.AllModelKinds(), nil
	}
	kind, err := ml.ParseModelKind(name)
	if err != nil {
		return nil, err
	}
	return []ml.ModelKind{kind}, nil
}

func run(w io.Writer, svc *ml.Service, kinds []ml.ModelKind, passenger ml.PassengerRecord) error {
	for _, kind := range kinds {
		p, err := svc.Predict(kind, passenger)
		if err != nil {
			return err
		}
		verdict := "not survived"
		if p.Result.Survived() {
			verdict = "survived"
		}
		fmt.Fprintf(w, "%-22s %-13s p(survived)=%.2f%% p(not survived)=%.2f%%\n",
			kind.String(), verdict, p.Result.SurvivalProbability()*100, p.Result.DeathProbability()*100)
	}
	return nil
}
