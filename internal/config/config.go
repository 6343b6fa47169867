package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

// DefaultBenchConfig returns a BenchConfig with default values.
func DefaultBenchConfig() models.BenchConfig {
	return models.BenchConfig{
		Model:          "gpt-4o-mini",
		OutputDir:      ".",
		Concurrency:    4,
		GracePeriodSec: 5.0,
		LogLevel:       "info",
		API: models.APIConfig{
			KeyEnv: "OPENAI_API_KEY",
		},
		Retry: models.RetryConfig{
			MaxAttempts:    3,
			InitialDelayMs: 1000,
			MaxDelayMs:     30000,
			Multiplier:     2.0,
		},
		Workloads: []models.Workload{
			{Category: "AI", Style: "tech"},
		},
	}
}

// LoadBenchConfig loads and parses a benchmark.yaml file. A missing path
// ("") returns the defaults untouched.
func LoadBenchConfig(path string) (models.BenchConfig, error) {
	cfg := DefaultBenchConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading benchmark config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing benchmark config: %w", err)
	}

	// Validate workloads
	for i, w := range cfg.Workloads {
		if w.Category == "" {
			return cfg, fmt.Errorf("workload[%d]: category must not be empty", i)
		}
		if w.Style == "" {
			return cfg, fmt.Errorf("workload[%d]: style must not be empty", i)
		}
	}

	// Apply defaults for missing values
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	if cfg.GracePeriodSec == 0 {
		cfg.GracePeriodSec = 5.0
	}
	if cfg.API.KeyEnv == "" {
		cfg.API.KeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.InitialDelayMs == 0 {
		cfg.Retry.InitialDelayMs = 1000
	}
	if cfg.Retry.MaxDelayMs == 0 {
		cfg.Retry.MaxDelayMs = 30000
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2.0
	}
	if len(cfg.Workloads) == 0 {
		cfg.Workloads = []models.Workload{{Category: "AI", Style: "tech"}}
	}

	return cfg, nil
}
