package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ctrlbench/ctrlbench/internal/llm"
	"github.com/ctrlbench/ctrlbench/internal/models"
)

// Controller is a pluggable content-generation strategy under comparison.
// Implementations must be safe to invoke repeatedly; the orchestrator issues
// at most one outstanding Process call per instance at a time.
//
// Process returns the generated content, or an error wrapped through
// models.Transient / models.Permanent so the retry invoker can classify it.
type Controller interface {
	Type() string
	Process(ctx context.Context, workload models.Workload) (string, error)
}

// Config carries everything a factory needs to build a controller instance.
type Config struct {
	Spec   models.ControllerSpec
	Model  string // overrides Spec.Model when set
	Client llm.Client
	Logger *slog.Logger
}

// model returns the effective model identifier for this config.
func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return c.Spec.Model
}

func (c Config) validate() error {
	if c.Client == nil {
		return fmt.Errorf("controller config: llm client is required")
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Factory builds a controller instance from configuration.
type Factory func(cfg Config) (Controller, error)

// systemPrompt renders the persona section shared by both variants.
func systemPrompt(spec models.ControllerSpec) string {
	s := fmt.Sprintf("You are %s. Your goal: %s.", spec.Role, spec.Goal)
	if spec.Backstory != "" {
		s += " " + spec.Backstory
	}
	return s
}
