package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/ctrlbench/ctrlbench/internal/llm"
	"github.com/ctrlbench/ctrlbench/internal/models"
)

// TypeSequential identifies the single-writer pipeline variant.
const TypeSequential = "sequential"

// sequentialController produces an article in three fixed passes against one
// persona: plan, draft, polish. Each pass feeds the next.
type sequentialController struct {
	cfg Config
}

// NewSequential is the factory for the sequential variant.
func NewSequential(cfg Config) (Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &sequentialController{cfg: cfg}, nil
}

func (c *sequentialController) Type() string { return TypeSequential }

func (c *sequentialController) Process(ctx context.Context, workload models.Workload) (string, error) {
	log := c.cfg.logger().With("controller", TypeSequential, "workload", workload.String())
	system := systemPrompt(c.cfg.Spec)

	plan, err := c.complete(ctx, system, fmt.Sprintf(
		"Outline an article about %q written in a %s style. List 3-5 section headings, one per line.",
		workload.Category, workload.Style))
	if err != nil {
		return "", fmt.Errorf("plan phase: %w", err)
	}
	log.Debug("plan phase complete", "outline_lines", strings.Count(plan, "\n")+1)

	draft, err := c.complete(ctx, system, fmt.Sprintf(
		"Write the full article about %q in a %s style, following this outline:\n\n%s",
		workload.Category, workload.Style, plan))
	if err != nil {
		return "", fmt.Errorf("draft phase: %w", err)
	}
	log.Debug("draft phase complete", "chars", len(draft))

	final, err := c.complete(ctx, system, fmt.Sprintf(
		"Polish the following article for publication. Fix flow and tone, keep the structure:\n\n%s",
		draft))
	if err != nil {
		return "", fmt.Errorf("polish phase: %w", err)
	}

	final = strings.TrimSpace(final)
	if final == "" {
		return "", models.Permanentf("polish phase produced empty content")
	}
	return final, nil
}

func (c *sequentialController) complete(ctx context.Context, system, prompt string) (string, error) {
	return c.cfg.Client.Complete(ctx, llm.Request{
		Model:       c.cfg.model(),
		System:      system,
		Prompt:      prompt,
		Temperature: 0.7,
	})
}
