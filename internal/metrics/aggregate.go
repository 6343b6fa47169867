// Package metrics derives summary statistics from completed benchmark runs.
package metrics

import (
	"time"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

// Aggregate computes statistics over a finished run. It is a pure function:
// identical runs always produce identical stats. The success rate counts
// every result; the latency mean counts successful results only, so failed
// entries cannot skew it. An empty run yields zeroes, never a
// divide-by-zero fault.
func Aggregate(run *models.BenchmarkRun) models.AggregateStats {
	stats := models.AggregateStats{
		TotalControllers: len(run.Results),
		PerController:    make(map[string]models.ControllerSummary, len(run.Results)),
	}

	var elapsedSum time.Duration
	for _, res := range run.Results {
		summary := models.ControllerSummary{
			Success:  res.Success,
			Elapsed:  res.Elapsed,
			Attempts: res.Attempts,
		}

		if res.Success {
			stats.Successes++
			if res.Elapsed >= 0 {
				elapsedSum += res.Elapsed
			}
		} else {
			stats.Failures++
			if res.Error != nil {
				summary.ErrorType = res.Error.Type
			}
		}

		stats.PerController[res.ControllerType] = summary
	}

	if stats.TotalControllers > 0 {
		stats.SuccessRate = float64(stats.Successes) / float64(stats.TotalControllers)
	}
	if stats.Successes > 0 {
		stats.MeanElapsed = elapsedSum / time.Duration(stats.Successes)
	}

	return stats
}
