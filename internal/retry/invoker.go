package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

// Operation is a fallible content-producing call.
type Operation func(ctx context.Context) (string, error)

// Outcome is the terminal state of an invocation. Exhausted retries and
// permanent failures are carried in Err; the invoker never panics and never
// propagates an error any other way, so a failed call can never abort a
// sibling controller.
type Outcome struct {
	Content  string
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// Success reports whether the operation produced content.
func (o Outcome) Success() bool { return o.Err == nil }

// SleepFunc suspends for d or until ctx is done, returning the context
// error on early wakeup. Injectable so tests can observe the schedule.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Invoker drives operations through a retry policy.
type Invoker struct {
	policy Policy
	logger *slog.Logger
	sleep  SleepFunc
}

// NewInvoker creates an invoker for the given policy. The logger is
// required by construction convention; pass slog.Default() if you have
// nothing better.
func NewInvoker(policy Policy, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{policy: policy, logger: logger, sleep: defaultSleep}
}

// WithSleep replaces the sleep function. Intended for tests.
func (iv *Invoker) WithSleep(sleep SleepFunc) *Invoker {
	iv.sleep = sleep
	return iv
}

// Invoke attempts op under the invoker's policy. The context is checked
// before every attempt and aborts backoff sleeps early; cancellation
// surfaces as an Outcome whose Err classifies as cancelled.
func (iv *Invoker) Invoke(ctx context.Context, op Operation) Outcome {
	start := time.Now()
	out := Outcome{}

	budget := iv.policy.attempts()
	delay := iv.policy.InitialDelay

	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			out.Err = err
			out.Elapsed = time.Since(start)
			return out
		}

		out.Attempts = attempt
		content, err := op(ctx)
		if err == nil {
			out.Content = content
			out.Elapsed = time.Since(start)
			return out
		}

		out.Err = err

		if !iv.policy.retryable(err) {
			iv.logger.Debug("non-retryable failure", "attempt", attempt, "error", err)
			out.Elapsed = time.Since(start)
			return out
		}

		if attempt == budget {
			break
		}

		iv.logger.Debug("retrying after transient failure",
			"attempt", attempt, "delay", delay, "error", err)

		if err := iv.sleep(ctx, delay); err != nil {
			out.Err = err
			out.Elapsed = time.Since(start)
			return out
		}
		delay = iv.policy.nextDelay(delay)
	}

	out.Err = &models.RetryExhaustedError{Attempts: out.Attempts, Err: out.Err}
	out.Elapsed = time.Since(start)
	return out
}
