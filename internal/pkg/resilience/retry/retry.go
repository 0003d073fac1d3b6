// Package retry provides a small retry mechanism for operations that may
// fail transiently. It wraps avast/retry-go behind one interface with
// functional options, defaulting to exponential backoff.
package retry

import (
	"context"
	"time"

	retrygo "github.com/avast/retry-go/v4"
)

// Retry executes operations with automatic retry on failure.
type Retry interface {
	// Execute runs operation with the configured retry policy. The
	// operation should be idempotent. Execute returns nil once an attempt
	// succeeds, the accumulated (or last, per configuration) error when
	// every attempt fails, or the context error if ctx ends first.
	Execute(ctx context.Context, operation func() error) error
}

// config holds the retry policy settings.
type config struct {
	attempts    uint
	delay       time.Duration
	maxDelay    time.Duration
	lastErrOnly bool
}

// Option customizes the retry policy.
type Option func(*config)

// WithAttempts sets the maximum number of attempts. Default: 3.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay between attempts. Default: 1s.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the backoff delay between attempts. Default: 10s.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithLastErrorOnly controls whether Execute returns only the final
// attempt's error instead of the joined history. Default: true.
func WithLastErrorOnly(lastOnly bool) Option {
	return func(c *config) {
		c.lastErrOnly = lastOnly
	}
}

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	return retrygo.Do(
		operation,
		retrygo.Context(ctx),
		retrygo.Attempts(r.cfg.attempts),
		retrygo.Delay(r.cfg.delay),
		retrygo.MaxDelay(r.cfg.maxDelay),
		retrygo.LastErrorOnly(r.cfg.lastErrOnly),
		retrygo.DelayType(retrygo.BackOffDelay),
	)
}

// New builds a Retry with exponential backoff, customized by the given
// options.
func New(opts ...Option) *retrier {
	cfg := config{
		attempts:    3,
		delay:       time.Second,
		maxDelay:    10 * time.Second,
		lastErrOnly: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}
