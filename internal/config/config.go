// Package config provides configuration loading for newsbatch.
//
// A single immutable Config is loaded once at startup (defaults, then an
// optional YAML file, then environment overrides) and validated before any
// component runs. Every tunable of the wave scheduler lives here; nothing is
// passed as loose ad-hoc parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name looked up in the working directory.
const DefaultConfigFile = "newsbatch.yaml"

// Environment variables recognized at load time.
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvAPIKeyLegacy = "GOOGLE_API_KEY"
	EnvLogLevel     = "NEWSBATCH_LOG_LEVEL"
	EnvBaseURL      = "NEWSBATCH_BASE_URL"
)

// Config is the root configuration for a newsbatch run.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`

	// WorkDir is where batch files, identity mappings, the job tracking log,
	// and result files are written.
	WorkDir string `yaml:"work_dir"`
}

// ServiceConfig configures the external batch job service.
type ServiceConfig struct {
	// Model is the model name used for every batch request.
	Model string `yaml:"model"`

	// BaseURL overrides the service endpoint. Empty uses the public API.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests. Usually supplied via GEMINI_API_KEY
	// rather than the config file.
	APIKey string `yaml:"api_key"`
}

// SchedulerConfig holds every tunable of the wave scheduler.
type SchedulerConfig struct {
	// MaxBatchSize is the maximum number of items per submitted sub-batch.
	MaxBatchSize int `yaml:"max_batch_size"`

	// CostPerItem is the estimated enqueued-token cost of one item.
	CostPerItem int64 `yaml:"cost_per_item"`

	// PerWaveBudget is the enqueued-token budget for one wave. It should sit
	// below the service's hard enqueued-token quota with a safety margin.
	PerWaveBudget int64 `yaml:"per_wave_budget"`

	// PollSeconds is the delay in seconds between job state polls while
	// monitoring a wave.
	PollSeconds int `yaml:"poll_interval_seconds"`

	// MaxWaitSeconds caps in seconds how long one wave is monitored before
	// its still-running jobs are reported as timed out.
	MaxWaitSeconds int `yaml:"max_wait_per_wave_seconds"`

	// MaxRetries bounds retried submissions for quota and network errors.
	MaxRetries int `yaml:"max_retries"`
}

// PollInterval returns the poll delay as a duration.
func (s SchedulerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollSeconds) * time.Second
}

// MaxWaitPerWave returns the per-wave monitoring ceiling as a duration.
func (s SchedulerConfig) MaxWaitPerWave() time.Duration {
	return time.Duration(s.MaxWaitSeconds) * time.Second
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns a Config with production defaults. The scheduler defaults
// mirror the service's documented tier-1 quotas: a 10M enqueued-token ceiling
// used at 90%, ~2800 input tokens per average article, 1000 items per batch.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Model: "gemini-2.0-flash",
		},
		Scheduler: SchedulerConfig{
			MaxBatchSize:   1000,
			CostPerItem:    2800,
			PerWaveBudget:  9_000_000,
			PollSeconds:    30,
			MaxWaitSeconds: 3600,
			MaxRetries:     3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		WorkDir: "./batch_jobs",
	}
}

// Load builds the effective configuration: defaults, overlaid with the YAML
// file at path (skipped when path is empty and the default file is absent),
// then environment overrides. The result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults apply.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Service.APIKey = key
	} else if key := os.Getenv(EnvAPIKeyLegacy); key != "" && cfg.Service.APIKey == "" {
		cfg.Service.APIKey = key
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		cfg.Service.BaseURL = url
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
}

// Validate checks that every tunable is usable. It is called once at load;
// components may assume a validated config.
func (c *Config) Validate() error {
	if c.Service.Model == "" {
		return errors.New("service.model is required")
	}
	if c.Scheduler.MaxBatchSize < 1 {
		return fmt.Errorf("scheduler.max_batch_size must be >= 1, got %d", c.Scheduler.MaxBatchSize)
	}
	if c.Scheduler.CostPerItem < 1 {
		return fmt.Errorf("scheduler.cost_per_item must be >= 1, got %d", c.Scheduler.CostPerItem)
	}
	if c.Scheduler.PerWaveBudget < 1 {
		return fmt.Errorf("scheduler.per_wave_budget must be >= 1, got %d", c.Scheduler.PerWaveBudget)
	}
	if c.Scheduler.PollSeconds <= 0 {
		return errors.New("scheduler.poll_interval_seconds must be positive")
	}
	if c.Scheduler.MaxWaitSeconds <= 0 {
		return errors.New("scheduler.max_wait_per_wave_seconds must be positive")
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("scheduler.max_retries must be >= 0, got %d", c.Scheduler.MaxRetries)
	}
	if c.WorkDir == "" {
		return errors.New("work_dir is required")
	}
	return nil
}
