// Package config loads config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"survivalpredict/logging"
	"survivalpredict/ml"
)

// Config mirrors config.yaml.
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log           logging.Config `yaml:"log"`
	Artifacts     ml.Artifacts   `yaml:"artifacts"`
	Preprocessing struct {
		Caps ml.OutlierCaps `yaml:"caps"`
	} `yaml:"preprocessing"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
	UI struct {
		Language       string `yaml:"language"`
		WatchArtifacts bool   `yaml:"watch_artifacts"`
	} `yaml:"ui"`
}

// Default returns the settings used for keys missing from config.yaml.
func Default() *Config {
	c := &Config{}
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.MaxBodyBytes = 64 << 10
	c.Log = logging.DefaultConfig()
	c.Artifacts = ml.DefaultArtifacts()
	c.Preprocessing.Caps = ml.DefaultOutlierCaps()
	c.Cache.Size = ml.DefaultCacheSize
	c.UI.Language = "en"
	return c
}

// Load decodes path over Default(). Relative artifact and log paths are
// resolved against the config file's directory.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if !filepath.IsAbs(config.Artifacts.Dir) {
		config.Artifacts.Dir = filepath.Join(base, config.Artifacts.Dir)
	}
	if config.Log.File != "" && !filepath.IsAbs(config.Log.File) {
		config.Log.File = filepath.Join(base, config.Log.File)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Find returns the first existing candidate, looking in the parent
// directory as well so binaries can run from cmd/ subfolders.
func Find(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	parent := filepath.Join("..", name)
	if _, err := os.Stat(parent); err == nil {
		return parent
	}
	return name
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.Http.Port))
	}
	if c.Http.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	caps := c.Preprocessing.Caps
	if caps.AgeLower > caps.AgeUpper {
		errs = append(errs, fmt.Errorf("preprocessing.caps: age_lower %v above age_upper %v", caps.AgeLower, caps.AgeUpper))
	}
	if caps.FareUpper <= 0 {
		errs = append(errs, errors.New("preprocessing.caps.fare_upper must be positive"))
	}
	if c.Artifacts.Dir == "" {
		errs = append(errs, errors.New("artifacts.dir is required"))
	}
	for _, name := range c.Artifacts.Files() {
		if name == "" {
			errs = append(errs, errors.New("artifacts: every file name is required"))
			break
		}
	}
	if c.Cache.Size < 0 {
		errs = append(errs, errors.New("cache.size must not be negative"))
	}
	return errors.Join(errs...)
}
