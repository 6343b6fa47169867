package retry

import (
	"fmt"
	"time"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

// Policy configures bounded exponential backoff.
//
// MaxRetries is the total attempt budget, including the initial attempt.
// Values below one are treated as a single attempt. The delay before
// attempt n (0-indexed, n>=1) is InitialDelay * Multiplier^(n-1), capped
// at MaxDelay when set.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration // 0 = uncapped
	Multiplier   float64
	Retryable    func(error) bool // nil = models.IsTransient
}

// FromConfig converts the serializable retry block into a Policy.
// Zero fields fall back to the defaults.
func FromConfig(cfg models.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxRetries = cfg.MaxAttempts
	}
	if cfg.InitialDelayMs > 0 {
		p.InitialDelay = time.Duration(cfg.InitialDelayMs) * time.Millisecond
	}
	if cfg.MaxDelayMs > 0 {
		p.MaxDelay = time.Duration(cfg.MaxDelayMs) * time.Millisecond
	}
	if cfg.Multiplier >= 1.0 {
		p.Multiplier = cfg.Multiplier
	}
	return p
}

// DefaultPolicy returns the policy used when the config carries none.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Retryable:    models.IsTransient,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.InitialDelay <= 0 {
		return fmt.Errorf("retry policy: initial delay must be positive, got %s", p.InitialDelay)
	}
	if p.Multiplier < 1.0 {
		return fmt.Errorf("retry policy: multiplier must be >= 1, got %g", p.Multiplier)
	}
	if p.MaxDelay != 0 && p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("retry policy: max delay %s below initial delay %s", p.MaxDelay, p.InitialDelay)
	}
	return nil
}

// attempts returns the effective attempt budget.
func (p Policy) attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

// retryable reports whether err should trigger another attempt.
func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return models.IsTransient(err)
}

// nextDelay advances the backoff schedule.
func (p Policy) nextDelay(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * p.Multiplier)
	if p.MaxDelay != 0 && next > p.MaxDelay {
		return p.MaxDelay
	}
	return next
}
