// Package report renders a benchmark run and its aggregated statistics into
// a deterministic markdown document and persists it.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ctrlbench/ctrlbench/internal/models"
	"github.com/ctrlbench/ctrlbench/internal/util"
)

// previewLen bounds the content preview column in the results table.
const previewLen = 80

// Generator renders and writes benchmark reports.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate renders run + stats and writes the document to outputPath (a
// timestamp-derived default in the working directory when empty). The
// rendered text is returned even when the write fails; a write failure is
// the only error this can surface.
func (g *Generator) Generate(run *models.BenchmarkRun, stats models.AggregateStats, outputPath string) (*models.Report, error) {
	text := Render(run, stats)
	rep := &models.Report{Markdown: text}

	if outputPath == "" {
		outputPath = util.TimestampedPath(".", "benchmark_report", ".md", run.StartedAt)
	}

	if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
		g.logger.Error("report write failed", "path", outputPath, "error", err)
		return rep, fmt.Errorf("writing report to %s: %w", outputPath, err)
	}

	rep.FilePath = outputPath
	g.logger.Info("report written", "path", outputPath, "bytes", len(text))
	return rep, nil
}

// Render produces the report text: header, per-controller results table,
// overall statistics. Section order is fixed and results keep the run's
// positional order, so identical runs render identically up to the
// timestamp and run-id fields.
func Render(run *models.BenchmarkRun, stats models.AggregateStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Controller Benchmark Report\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", run.ID)
	fmt.Fprintf(&b, "- Category: %s\n", run.Workload.Category)
	fmt.Fprintf(&b, "- Style: %s\n", run.Workload.Style)
	fmt.Fprintf(&b, "- Started: %s\n", run.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Finished: %s\n", run.FinishedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", run.Duration().Round(time.Millisecond))

	fmt.Fprintf(&b, "\n## Results\n\n")
	fmt.Fprintf(&b, "| Controller | Status | Attempts | Elapsed | Output |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	for _, res := range run.Results {
		status := "ok"
		output := util.TableCell(res.Content, previewLen)
		if !res.Success {
			status = "failed"
			output = "-"
			if res.Error != nil {
				status = fmt.Sprintf("failed (%s)", res.Error.Type)
				output = util.TableCell(res.Error.Message, previewLen)
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			res.ControllerType, status, res.Attempts, res.Elapsed.Round(time.Millisecond), output)
	}

	fmt.Fprintf(&b, "\n## Statistics\n\n")
	fmt.Fprintf(&b, "- Controllers: %d\n", stats.TotalControllers)
	fmt.Fprintf(&b, "- Successes: %d\n", stats.Successes)
	fmt.Fprintf(&b, "- Failures: %d\n", stats.Failures)
	fmt.Fprintf(&b, "- Success rate: %.1f%%\n", stats.SuccessRate*100)
	fmt.Fprintf(&b, "- Mean elapsed (successful): %s\n", stats.MeanElapsed.Round(time.Millisecond))

	return b.String()
}
