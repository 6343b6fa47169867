package models

import "time"

// ControllerResult is the outcome of one controller's participation in a run.
// Invariant: Success=false implies Content is empty and Error is populated;
// Success=true implies Error is nil.
type ControllerResult struct {
	ControllerType string        `json:"controller_type"`
	Content        string        `json:"content,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
	Attempts       int           `json:"attempts"`
	Success        bool          `json:"success"`
	Error          *ResultError  `json:"error,omitempty"`
}

// BenchmarkRun is one execution of a workload across a set of controllers.
// Results is index-aligned with RequestedTypes: a controller that could not
// be resolved still occupies its slot as a failed entry. The run is
// immutable once the orchestrator returns it.
type BenchmarkRun struct {
	ID             string             `json:"id"`
	Workload       Workload           `json:"workload"`
	RequestedTypes []string           `json:"requested_controller_types"`
	Results        []ControllerResult `json:"results"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// Duration returns the wall-clock span of the run.
func (r *BenchmarkRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// AggregateStats is derived from exactly one BenchmarkRun, recomputed on
// demand and never mutated in place.
type AggregateStats struct {
	TotalControllers int                          `json:"total_controllers"`
	Successes        int                          `json:"successes"`
	Failures         int                          `json:"failures"`
	SuccessRate      float64                      `json:"success_rate"`
	MeanElapsed      time.Duration                `json:"mean_elapsed"`
	PerController    map[string]ControllerSummary `json:"per_controller"`
}

// ControllerSummary is the per-controller slice of AggregateStats.
type ControllerSummary struct {
	Success   bool          `json:"success"`
	Elapsed   time.Duration `json:"elapsed"`
	Attempts  int           `json:"attempts"`
	ErrorType ErrorType     `json:"error_type,omitempty"`
}

// Report is the rendered comparison document for one run. FilePath is empty
// when the report was rendered but not persisted.
type Report struct {
	Markdown string `json:"markdown"`
	FilePath string `json:"file_path,omitempty"`
}
