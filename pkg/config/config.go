// Package config loads plenario settings from defaults, an optional YAML
// file and PLENARIO_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/plenario/pkg/camara"
)

// Default collection window. The chamber publishes roll calls from 2001
// on, but this project tracks the recent legislatures.
const (
	DefaultStartYear = 2018
	DefaultEndYear   = 2022
)

// Config holds everything the plenario commands need.
type Config struct {
	DataDir   string    `yaml:"data_dir" envconfig:"DATA_DIR"`
	OutputDir string    `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Years     []int     `yaml:"years,omitempty" envconfig:"YEARS"`
	Workers   int       `yaml:"workers" envconfig:"WORKERS"`
	API       APIConfig `yaml:"api"`
}

// APIConfig controls access to the chamber API.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url" envconfig:"API_BASE_URL"`
	UserAgent    string        `yaml:"user_agent" envconfig:"API_USER_AGENT"`
	PageSize     int           `yaml:"page_size" envconfig:"API_PAGE_SIZE"`
	RequestPause time.Duration `yaml:"request_pause" envconfig:"API_REQUEST_PAUSE"`
	RetryWait    time.Duration `yaml:"retry_wait" envconfig:"API_RETRY_WAIT"`
	MaxAttempts  int           `yaml:"max_attempts" envconfig:"API_MAX_ATTEMPTS"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"API_TIMEOUT"`
	MetricsAddr  string        `yaml:"metrics_addr,omitempty" envconfig:"API_METRICS_ADDR"`
}

// Default returns the configuration used when nothing overrides it. The
// dataset layout sits under the working directory, matching the paths the
// collection scripts always used.
func Default() Config {
	return Config{
		DataDir:   ".",
		OutputDir: ".",
		Workers:   4,
		API: APIConfig{
			BaseURL:      camara.DefaultBaseURL,
			UserAgent:    camara.DefaultUserAgent,
			PageSize:     camara.DefaultPageSize,
			RequestPause: camara.DefaultRequestPause,
			RetryWait:    camara.DefaultRetryWait,
			MaxAttempts:  camara.DefaultMaxAttempts,
			Timeout:      camara.DefaultTimeout,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then PLENARIO_* environment variables.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("plenario", &config); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return config, nil
}

// ClientConfig converts the API settings for the camara client.
func (api APIConfig) ClientConfig() camara.ClientConfig {
	return camara.ClientConfig{
		BaseURL:      api.BaseURL,
		UserAgent:    api.UserAgent,
		PageSize:     api.PageSize,
		RequestPause: api.RequestPause,
		RetryWait:    api.RetryWait,
		MaxAttempts:  api.MaxAttempts,
		Timeout:      api.Timeout,
	}
}

// CollectYears returns the configured years, falling back to the default
// collection window.
func (config Config) CollectYears() []int {
	if len(config.Years) > 0 {
		return config.Years
	}
	years := make([]int, 0, DefaultEndYear-DefaultStartYear+1)
	for year := DefaultStartYear; year <= DefaultEndYear; year++ {
		years = append(years, year)
	}
	return years
}
