// Package retry provides retry functionality with exponential backoff and jitter.
// Used to re-run whole database transactions that failed on lock timeouts,
// deadlocks or serialization failures.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including first attempt).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the initial delay before first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the factor by which delay increases after each attempt.
	// Default: 2.0
	Multiplier float64

	// JitterFactor adds randomness to delays (0.0 = no jitter, 1.0 = full jitter).
	// Default: 0.1
	JitterFactor float64

	// RetryIf decides whether an error should be retried.
	// If nil, every error is retried.
	RetryIf func(error) bool

	// OnRetry is called before each retry with the number of the attempt
	// that just failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Option is a functional option for configuring retries.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the initial delay before first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay sets the maximum delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m >= 1.0 {
			c.Multiplier = m
		}
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1.0 {
			c.JitterFactor = j
		}
	}
}

// WithRetryIf sets a custom function to determine if an error should be retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry sets a callback function called before each retry.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Retrier manages retry operations.
type Retrier struct {
	config Config
}

// New creates a new Retrier with the given options.
func New(opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

func (r *Retrier) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.InitialDelay
	b.MaxInterval = r.config.MaxDelay
	b.Multiplier = r.config.Multiplier
	b.RandomizationFactor = r.config.JitterFactor
	b.MaxElapsedTime = 0

	retries := r.config.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return true
}

// Do executes the operation with retries. The error of the last attempt is
// returned as is.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := operation(ctx)
			if err == nil {
				return nil
			}
			if !r.shouldRetry(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		r.policy(ctx),
		func(err error, delay time.Duration) {
			if r.config.OnRetry != nil {
				r.config.OnRetry(attempt, err, delay)
			}
		},
	)
}

// TransactionRetrier returns a Retrier configured for re-running database
// transactions. Delays stay short because the caller is waiting on an HTTP
// response.
func TransactionRetrier(maxAttempts int, retryIf func(error) bool, opts ...Option) *Retrier {
	base := []Option{
		WithMaxAttempts(maxAttempts),
		WithInitialDelay(25 * time.Millisecond),
		WithMaxDelay(500 * time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0.2),
		WithRetryIf(retryIf),
	}
	return New(append(base, opts...)...)
}
