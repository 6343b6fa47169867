package executor_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctrlbench/ctrlbench/internal/controller"
	"github.com/ctrlbench/ctrlbench/internal/executor"
	"github.com/ctrlbench/ctrlbench/internal/llm"
	"github.com/ctrlbench/ctrlbench/internal/metrics"
	"github.com/ctrlbench/ctrlbench/internal/models"
	"github.com/ctrlbench/ctrlbench/internal/registry"
	"github.com/ctrlbench/ctrlbench/internal/retry"
)

// fakeClient satisfies the orchestrator's client requirement; stub
// controllers never touch it.
type fakeClient struct{}

func (fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	return "stubbed", nil
}

// stubController runs a scripted Process function.
type stubController struct {
	typeID  string
	process func(ctx context.Context, w models.Workload) (string, error)

	mu    sync.Mutex
	calls int
}

func (c *stubController) Type() string { return c.typeID }

func (c *stubController) Process(ctx context.Context, w models.Workload) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.process(ctx, w)
}

func (c *stubController) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func stubRegistry(controllers ...*stubController) *registry.Registry {
	r := registry.New()
	for _, c := range controllers {
		c := c
		r.Register(c.typeID, func(cfg controller.Config) (controller.Controller, error) {
			return c, nil
		})
	}
	return r
}

func newOrchestrator(t *testing.T, r *registry.Registry, policy retry.Policy) *executor.Orchestrator {
	t.Helper()
	orch, err := executor.NewOrchestrator(executor.Options{
		Registry:    r,
		Client:      fakeClient{},
		Policy:      policy,
		GracePeriod: 200 * time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return orch
}

func fastPolicy(maxRetries int) retry.Policy {
	return retry.Policy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	}
}

func ok(content string) func(context.Context, models.Workload) (string, error) {
	return func(ctx context.Context, w models.Workload) (string, error) {
		return content, nil
	}
}

func alwaysTransient(ctx context.Context, w models.Workload) (string, error) {
	return "", models.Transientf("upstream timeout")
}

var workload = models.Workload{Category: "AI", Style: "tech"}

func TestRunBenchmarkPreservesRequestOrder(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("A")}
	b := &stubController{typeID: "b", process: alwaysTransient}
	c := &stubController{typeID: "c", process: ok("C")}

	orch := newOrchestrator(t, stubRegistry(a, b, c), fastPolicy(2))
	require.Empty(t, orch.InitializeControllers("c", "a", "b"))

	run, err := orch.RunBenchmark(context.Background(), workload, "c", "a", "b")
	require.NoError(t, err)

	require.Len(t, run.Results, 3)
	assert.Equal(t, []string{"c", "a", "b"}, run.RequestedTypes)
	for i, typeID := range run.RequestedTypes {
		assert.Equal(t, typeID, run.Results[i].ControllerType, "results must be index-aligned")
	}
	assert.Equal(t, "C", run.Results[0].Content)
	assert.Equal(t, "A", run.Results[1].Content)
	assert.False(t, run.Results[2].Success)
	assert.NotNil(t, run.Results[2].Error)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
	assert.NotEmpty(t, run.ID)
}

func TestRunBenchmarkMixedOutcomes(t *testing.T) {
	seq := &stubController{typeID: "sequential", process: alwaysTransient}
	crew := &stubController{typeID: "crew_manager", process: ok("OK")}

	orch := newOrchestrator(t, stubRegistry(seq, crew), fastPolicy(3))
	require.Empty(t, orch.InitializeControllers("sequential", "crew_manager"))

	run, err := orch.RunBenchmark(context.Background(), workload, "sequential", "crew_manager")
	require.NoError(t, err)

	require.Len(t, run.Results, 2)
	assert.False(t, run.Results[0].Success)
	require.NotNil(t, run.Results[0].Error)
	assert.Equal(t, models.ErrTypeRetryExhausted, run.Results[0].Error.Type)
	assert.Equal(t, 3, run.Results[0].Attempts)
	assert.Empty(t, run.Results[0].Content, "failed results carry no content")

	assert.True(t, run.Results[1].Success)
	assert.Equal(t, "OK", run.Results[1].Content)
	assert.Nil(t, run.Results[1].Error)
	assert.Equal(t, 1, run.Results[1].Attempts)
	assert.Equal(t, 1, crew.callCount())
	assert.Equal(t, 3, seq.callCount())

	stats := metrics.Aggregate(run)
	assert.Equal(t, 0.5, stats.SuccessRate)
}

func TestRunBenchmarkUnresolvedTypeBecomesFailedPlaceholder(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("A")}
	orch := newOrchestrator(t, stubRegistry(a), fastPolicy(1))

	errs := orch.InitializeControllers("a", "ghost")
	require.Len(t, errs, 1)

	run, err := orch.RunBenchmark(context.Background(), workload, "a", "ghost")
	require.NoError(t, err)

	require.Len(t, run.Results, 2)
	assert.True(t, run.Results[0].Success)

	ghost := run.Results[1]
	assert.Equal(t, "ghost", ghost.ControllerType)
	assert.False(t, ghost.Success)
	require.NotNil(t, ghost.Error)
	assert.Equal(t, models.ErrTypeUnresolved, ghost.Error.Type)
	assert.Zero(t, ghost.Attempts, "process must never be invoked for an unresolved type")
}

func TestRunBenchmarkRequestedButUninitializedType(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("A")}
	orch := newOrchestrator(t, stubRegistry(a), fastPolicy(1))
	require.Empty(t, orch.InitializeControllers("a"))

	// "never-registered" skipped initialization entirely; the run still
	// reports it as a failed slot.
	run, err := orch.RunBenchmark(context.Background(), workload, "a", "never-registered")
	require.NoError(t, err)
	require.Len(t, run.Results, 2)
	assert.Equal(t, models.ErrTypeUnresolved, run.Results[1].Error.Type)
}

func TestRunBenchmarkNoControllers(t *testing.T) {
	orch := newOrchestrator(t, registry.New(), fastPolicy(1))

	_, err := orch.RunBenchmark(context.Background(), workload)
	require.ErrorIs(t, err, models.ErrNoControllers)
}

func TestRunBenchmarkDefaultsToInitializedOrder(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("A")}
	b := &stubController{typeID: "b", process: ok("B")}

	orch := newOrchestrator(t, stubRegistry(a, b), fastPolicy(1))
	require.Empty(t, orch.InitializeControllers("b", "a"))

	run, err := orch.RunBenchmark(context.Background(), workload)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, run.RequestedTypes)
}

func TestRunBenchmarkCancellationDuringBackoff(t *testing.T) {
	slow := &stubController{typeID: "slow", process: alwaysTransient}
	policy := retry.Policy{
		MaxRetries:   3,
		InitialDelay: 10 * time.Second, // run would take ~30s without early abort
		Multiplier:   2.0,
	}

	orch := newOrchestrator(t, stubRegistry(slow), policy)
	require.Empty(t, orch.InitializeControllers("slow"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	run, err := orch.RunBenchmark(ctx, workload, "slow")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second, "backoff sleep must abort on cancellation")
	require.Len(t, run.Results, 1)
	res := run.Results[0]
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, models.ErrTypeCancelled, res.Error.Type)
	assert.Equal(t, 1, slow.callCount(), "no fresh attempt after cancellation")
}

func TestRunBenchmarkGracePeriodCutsOffHungAttempt(t *testing.T) {
	// Blocks until its context is cancelled, which only happens once the
	// grace period after run cancellation expires.
	hung := &stubController{typeID: "hung", process: func(ctx context.Context, w models.Workload) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}

	orch := newOrchestrator(t, stubRegistry(hung), fastPolicy(3))
	require.Empty(t, orch.InitializeControllers("hung"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	run, err := orch.RunBenchmark(ctx, workload, "hung")
	require.NoError(t, err)

	// cancel at ~50ms plus the 200ms grace; generous bound for slow machines
	assert.Less(t, time.Since(start), 3*time.Second, "run must return once the grace period expires")

	require.Len(t, run.Results, 1)
	res := run.Results[0]
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, models.ErrTypeCancelled, res.Error.Type)
	assert.Equal(t, 1, hung.callCount(), "no fresh attempt after cancellation")
}

func TestRunBenchmarkDeduplicatesRequestedTypes(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("A")}
	b := &stubController{typeID: "b", process: ok("B")}

	orch := newOrchestrator(t, stubRegistry(a, b), fastPolicy(1))
	require.Empty(t, orch.InitializeControllers("a", "b"))

	run, err := orch.RunBenchmark(context.Background(), workload, "a", "b", "a", "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, run.RequestedTypes)
	require.Len(t, run.Results, 2)
	assert.Equal(t, 1, a.callCount(), "one outstanding call per instance per run")
	assert.Equal(t, 1, b.callCount())
}

func TestRunBenchmarkDeterministicStats(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("fixed output A")}
	b := &stubController{typeID: "b", process: func(ctx context.Context, w models.Workload) (string, error) {
		return "", models.Permanentf("bad config")
	}}

	orch := newOrchestrator(t, stubRegistry(a, b), fastPolicy(2))
	require.Empty(t, orch.InitializeControllers("a", "b"))

	run1, err := orch.RunBenchmark(context.Background(), workload, "a", "b")
	require.NoError(t, err)
	run2, err := orch.RunBenchmark(context.Background(), workload, "a", "b")
	require.NoError(t, err)

	assert.NotEqual(t, run1.ID, run2.ID)

	stats1 := metrics.Aggregate(run1)
	stats2 := metrics.Aggregate(run2)

	// Latency fields vary between runs; the derived rates and breakdown
	// shapes must not.
	assert.Equal(t, stats1.SuccessRate, stats2.SuccessRate)
	assert.Equal(t, stats1.Successes, stats2.Successes)
	assert.Equal(t, stats1.Failures, stats2.Failures)
	assert.Equal(t, stats1.PerController["b"].ErrorType, stats2.PerController["b"].ErrorType)
}

func TestControllersSharedAcrossRuns(t *testing.T) {
	a := &stubController{typeID: "a", process: ok("A")}
	orch := newOrchestrator(t, stubRegistry(a), fastPolicy(1))
	require.Empty(t, orch.InitializeControllers("a"))

	for i := 0; i < 3; i++ {
		_, err := orch.RunBenchmark(context.Background(), workload, "a")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, a.callCount())
}
