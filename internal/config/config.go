/*
PURPOSE:
  Defines the configuration structure and loading logic for an1-bench.
  Configuration is resolved once at the CLI boundary and passed down explicitly;
  no other component reads environment state.

REQUIREMENTS:
  User-specified:
  - Endpoint URL is required; bearer credential, expected mode, request limit
    and timeout are optional (AN1_* environment variables).

  Implementation-discovered:
  - Needs YAML file support with environment overrides layered on top,
    and CLI flag overrides on top of that (file < env < flags).
  - Missing endpoint must be fatal before any request is sent.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/output
  - Dependencies: gopkg.in/yaml.v3

ERROR HANDLING:
  - Returns explicit error if a specified config file is invalid.
  - A missing default config file is not an error (defaults apply).

IMPLEMENTATION RULES:
  - Defaults must match the published harness behavior (120s timeout,
    3 retries, dim 256).

USAGE:
  cfg, err := config.Load("an1_bench.yaml")
  cfg.ApplyEnv()
  err = cfg.Validate()

RELATED FILES:
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for a benchmark run.
type Config struct {
	// URL is the AN1 endpoint the harness posts infer_z requests to.
	URL string `yaml:"url"`
	// APIKey is the bearer credential. May be empty for local endpoints.
	APIKey string `yaml:"api_key"`
	// ExpectedMode, when set, is compared against the response's mode field.
	// A mismatch is a warning, never a failure. It also labels the artifacts.
	ExpectedMode string `yaml:"expected_mode"`

	DataFile  string `yaml:"data_file"`
	OutputDir string `yaml:"output_dir"`
	// MaxRequests truncates the input set when > 0 (dry-subset runs).
	MaxRequests int `yaml:"max_requests"`

	// Timeout applies per attempt, not per logical request.
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`

	Dim int `yaml:"dim"`

	// Concurrency > 1 enables the bounded worker pool. Output order stays
	// input order regardless.
	Concurrency int `yaml:"concurrency"`
	// RateLimit caps outbound requests per second. 0 disables the limiter.
	RateLimit float64 `yaml:"rate_limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataFile:    "data/sessions_v1.json",
		OutputDir:   "out",
		Timeout:     120 * time.Second,
		MaxRetries:  3,
		BackoffBase: 1 * time.Second,
		BackoffCap:  30 * time.Second,
		Dim:         256,
		Concurrency: 1,
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file is found, returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		defaults := []string{"an1_bench.yaml", "an1-bench.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name // record which file we loaded
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays the AN1_* environment variables onto the config.
// Unset variables leave the existing values untouched.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("AN1_API_URL"); v != "" {
		c.URL = v
	} else if v := os.Getenv("AN1_BENCH_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("AN1_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("AN1_EXPECTED_MODE"); v != "" {
		c.ExpectedMode = v
	}
	if v := os.Getenv("AN1_NUM_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRequests = n
		}
	}
	if v := os.Getenv("AN1_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Timeout = time.Duration(n) * time.Second
		}
	}
}

// Validate checks the invariants that must hold before any request is sent.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("endpoint URL is required (set AN1_API_URL, the url config key, or --url)")
	}
	if c.Dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", c.Dim)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// Label names the output artifact pair so that runs under different expected
// modes do not overwrite each other.
func (c *Config) Label() string {
	if c.ExpectedMode != "" {
		return c.ExpectedMode
	}
	return "run"
}
