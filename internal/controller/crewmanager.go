package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/ctrlbench/ctrlbench/internal/llm"
	"github.com/ctrlbench/ctrlbench/internal/models"
)

// TypeCrewManager identifies the manager/worker delegation variant.
const TypeCrewManager = "crew_manager"

// maxSections bounds how many delegated section briefs the manager may
// produce; anything past this is ignored rather than failed.
const maxSections = 6

// crewManagerController splits the work across a managing persona and a
// writing persona. The manager plans section briefs and assembles the final
// piece; the writer drafts each section from its brief.
type crewManagerController struct {
	cfg Config
}

// NewCrewManager is the factory for the crew_manager variant.
func NewCrewManager(cfg Config) (Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &crewManagerController{cfg: cfg}, nil
}

func (c *crewManagerController) Type() string { return TypeCrewManager }

func (c *crewManagerController) Process(ctx context.Context, workload models.Workload) (string, error) {
	log := c.cfg.logger().With("controller", TypeCrewManager, "workload", workload.String())

	managerSystem := systemPrompt(c.cfg.Spec) +
		" You manage a team of writers: plan the work, brief each writer, and assemble the result."
	writerSystem := fmt.Sprintf(
		"You are a staff writer producing %s-style copy about %s. Write only the section you are briefed on.",
		workload.Style, workload.Category)

	briefing, err := c.complete(ctx, managerSystem, fmt.Sprintf(
		"Plan an article about %q in a %s style. Produce one section brief per line, format: TITLE: what the section must cover.",
		workload.Category, workload.Style))
	if err != nil {
		return "", fmt.Errorf("manager briefing: %w", err)
	}

	briefs := parseBriefs(briefing)
	if len(briefs) == 0 {
		return "", models.Permanentf("manager produced no usable section briefs")
	}
	log.Debug("briefs prepared", "sections", len(briefs))

	sections := make([]string, 0, len(briefs))
	for i, brief := range briefs {
		section, err := c.complete(ctx, writerSystem, fmt.Sprintf(
			"Section %d of %d. Brief: %s\n\nWrite this section in full.", i+1, len(briefs), brief))
		if err != nil {
			return "", fmt.Errorf("writer section %d: %w", i+1, err)
		}
		sections = append(sections, strings.TrimSpace(section))
	}

	assembled, err := c.complete(ctx, managerSystem, fmt.Sprintf(
		"Assemble and lightly edit the following sections into one coherent article about %q (%s style). Keep section order.\n\n%s",
		workload.Category, workload.Style, strings.Join(sections, "\n\n---\n\n")))
	if err != nil {
		return "", fmt.Errorf("manager assembly: %w", err)
	}

	assembled = strings.TrimSpace(assembled)
	if assembled == "" {
		return "", models.Permanentf("assembly produced empty content")
	}
	return assembled, nil
}

func (c *crewManagerController) complete(ctx context.Context, system, prompt string) (string, error) {
	return c.cfg.Client.Complete(ctx, llm.Request{
		Model:       c.cfg.model(),
		System:      system,
		Prompt:      prompt,
		Temperature: 0.7,
	})
}

// parseBriefs extracts non-empty brief lines from the manager's plan,
// stripping list markers the model tends to prepend.
func parseBriefs(plan string) []string {
	var briefs []string
	for _, line := range strings.Split(plan, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		briefs = append(briefs, line)
		if len(briefs) == maxSections {
			break
		}
	}
	return briefs
}
