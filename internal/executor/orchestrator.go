package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ctrlbench/ctrlbench/internal/controller"
	"github.com/ctrlbench/ctrlbench/internal/llm"
	"github.com/ctrlbench/ctrlbench/internal/models"
	"github.com/ctrlbench/ctrlbench/internal/registry"
	"github.com/ctrlbench/ctrlbench/internal/retry"
)

const (
	// defaultMaxConcurrent caps in-flight controllers when the caller does
	// not configure a limit.
	defaultMaxConcurrent = 4

	// defaultGracePeriod is how long an in-flight attempt may keep running
	// after the run is cancelled.
	defaultGracePeriod = 5 * time.Second
)

// Options configures an Orchestrator.
type Options struct {
	Registry      *registry.Registry
	Client        llm.Client
	Specs         map[string]models.ControllerSpec // per-type definitions; missing types get a minimal default
	Model         string                           // model override passed to every factory
	Policy        retry.Policy
	MaxConcurrent int           // 0 = defaultMaxConcurrent
	GracePeriod   time.Duration // 0 = defaultGracePeriod
	Logger        *slog.Logger
}

// Orchestrator owns the registry and the initialized controller instances,
// and drives benchmark runs. Controllers are created once and shared
// read-only across runs; the orchestrator issues at most one outstanding
// Process call per controller instance.
type Orchestrator struct {
	registry      *registry.Registry
	client        llm.Client
	specs         map[string]models.ControllerSpec
	model         string
	invoker       *retry.Invoker
	maxConcurrent int
	gracePeriod   time.Duration
	logger        *slog.Logger

	controllers map[string]controller.Controller
	resolveErrs map[string]error
	order       []string // initialization order, default run order
}

// NewOrchestrator creates an orchestrator. The registry and client are
// required; everything else has defaults.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("orchestrator: registry is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("orchestrator: llm client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultGracePeriod
	}
	if opts.Policy.MaxRetries == 0 && opts.Policy.InitialDelay == 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}

	return &Orchestrator{
		registry:      opts.Registry,
		client:        opts.Client,
		specs:         opts.Specs,
		model:         opts.Model,
		invoker:       retry.NewInvoker(opts.Policy, opts.Logger),
		maxConcurrent: opts.MaxConcurrent,
		gracePeriod:   opts.GracePeriod,
		logger:        opts.Logger,
		controllers:   make(map[string]controller.Controller),
		resolveErrs:   make(map[string]error),
	}, nil
}

// InitializeControllers resolves and constructs the requested controller
// types. With no arguments it resolves every registered type. Resolution
// failures are recorded, not fatal: unresolved types are skipped for
// execution but still show up as failed entries in later runs. The returned
// slice lists the per-type failures.
func (o *Orchestrator) InitializeControllers(typeIDs ...string) []error {
	if len(typeIDs) == 0 {
		typeIDs = o.registry.Types()
	}

	var errs []error
	for _, typeID := range typeIDs {
		if _, done := o.controllers[typeID]; done {
			continue
		}
		if _, failed := o.resolveErrs[typeID]; failed {
			continue
		}

		o.order = append(o.order, typeID)

		spec, ok := o.specs[typeID]
		if !ok {
			spec = models.ControllerSpec{Type: typeID, Role: "content writer", Goal: "produce a publishable article"}
		}

		c, err := o.registry.Resolve(typeID, controller.Config{
			Spec:   spec,
			Model:  o.model,
			Client: o.client,
			Logger: o.logger,
		})
		if err != nil {
			o.logger.Warn("controller resolution failed", "type", typeID, "error", err)
			o.resolveErrs[typeID] = err
			errs = append(errs, err)
			continue
		}

		o.logger.Debug("controller initialized", "type", typeID)
		o.controllers[typeID] = c
	}

	return errs
}

// RunBenchmark executes one workload across the requested controllers and
// returns the completed, immutable run. With no typeIDs it runs every
// initialized (or initialization-failed) type in initialization order.
//
// Individual controller failure never aborts the run; the only run-level
// error is models.ErrNoControllers when the request resolves to nothing.
func (o *Orchestrator) RunBenchmark(ctx context.Context, workload models.Workload, typeIDs ...string) (*models.BenchmarkRun, error) {
	if len(typeIDs) == 0 {
		typeIDs = o.order
	}
	if deduped := dedupeTypes(typeIDs); len(deduped) != len(typeIDs) {
		// A controller instance must never see two outstanding Process
		// calls in one run, so repeated type ids collapse to one slot.
		o.logger.Warn("duplicate controller types requested",
			"requested", len(typeIDs), "kept", len(deduped))
		typeIDs = deduped
	}
	if len(typeIDs) == 0 {
		return nil, models.ErrNoControllers
	}

	run := &models.BenchmarkRun{
		ID:             uuid.NewString(),
		Workload:       workload,
		RequestedTypes: append([]string(nil), typeIDs...),
		Results:        make([]models.ControllerResult, len(typeIDs)),
		StartedAt:      time.Now(),
	}

	o.logger.Info("benchmark run starting",
		"run_id", run.ID,
		"workload", workload.String(),
		"controllers", len(typeIDs))

	// Attempts run on the grace context: when the run is cancelled, an
	// in-flight call may drain for gracePeriod before it is cut off. The
	// invoker still checks the run context between attempts and during
	// backoff sleeps, so no fresh attempt starts after cancellation.
	attemptCtx, stop := graceContext(ctx, o.gracePeriod)
	defer stop()

	g := &errgroup.Group{}
	g.SetLimit(o.maxConcurrent)

	for i, typeID := range typeIDs {
		i, typeID := i, typeID
		ctrl, ok := o.controllers[typeID]
		if !ok {
			// Resolution failed (or was never attempted): failed placeholder,
			// Process is never invoked.
			err, recorded := o.resolveErrs[typeID]
			if !recorded {
				err = &models.ResolutionError{ControllerType: typeID}
			}
			run.Results[i] = failedResult(typeID, err, 0, 0)
			continue
		}

		g.Go(func() error {
			out := o.invoker.Invoke(ctx, func(context.Context) (string, error) {
				return ctrl.Process(attemptCtx, workload)
			})
			run.Results[i] = newResult(typeID, out)

			o.logger.Info("controller finished",
				"run_id", run.ID,
				"type", typeID,
				"success", out.Success(),
				"attempts", out.Attempts,
				"elapsed", out.Elapsed)
			return nil
		})
	}

	// Each index is written by exactly one goroutine; the join below is the
	// barrier that makes the run immutable.
	g.Wait()
	run.FinishedAt = time.Now()

	o.logger.Info("benchmark run finished",
		"run_id", run.ID,
		"duration", run.Duration())

	return run, nil
}

// newResult converts a retry outcome into the run's positional result.
func newResult(typeID string, out retry.Outcome) models.ControllerResult {
	if out.Success() {
		return models.ControllerResult{
			ControllerType: typeID,
			Content:        out.Content,
			Elapsed:        out.Elapsed,
			Attempts:       out.Attempts,
			Success:        true,
		}
	}
	return failedResult(typeID, out.Err, out.Attempts, out.Elapsed)
}

func failedResult(typeID string, err error, attempts int, elapsed time.Duration) models.ControllerResult {
	return models.ControllerResult{
		ControllerType: typeID,
		Elapsed:        elapsed,
		Attempts:       attempts,
		Error:          models.NewResultError(err),
	}
}

// dedupeTypes drops repeated type ids, keeping first-occurrence order.
func dedupeTypes(typeIDs []string) []string {
	seen := make(map[string]struct{}, len(typeIDs))
	out := make([]string, 0, len(typeIDs))
	for _, id := range typeIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// graceContext returns a context that outlives parent's cancellation by
// grace, so in-flight work can finish its current attempt. The returned
// stop function releases the watcher goroutine and must be called once the
// run completes.
func graceContext(parent context.Context, grace time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stopped := make(chan struct{})

	go func() {
		select {
		case <-stopped:
			cancel()
		case <-parent.Done():
			timer := time.NewTimer(grace)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-stopped:
			}
			cancel()
		}
	}()

	var once sync.Once
	return ctx, func() { once.Do(func() { close(stopped) }) }
}
