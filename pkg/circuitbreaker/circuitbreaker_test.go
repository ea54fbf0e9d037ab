package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("connection refused")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(opts ...Option) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := New("test", append([]Option{WithFailureThreshold(2), WithCooldown(time.Second)}, opts...)...)
	cb.now = clock.now
	return cb, clock
}

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker()
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker()
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, succeed)
	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ProbeAfterCooldown(t *testing.T) {
	cb, clock := newTestBreaker()
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)

	clock.advance(time.Second)
	assert.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock := newTestBreaker()
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)

	clock.advance(time.Second)
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrOpen)
}

func TestCircuitBreaker_OneProbeAtATime(t *testing.T) {
	cb, clock := newTestBreaker()
	ctx := context.Background()
	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clock.advance(time.Second)

	err := cb.Execute(ctx, func(ctx context.Context) error {
		assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrOpen)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CancellationIsNotAFailure(t *testing.T) {
	cb, _ := newTestBreaker()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = cb.Execute(ctx, func(context.Context) error { return context.Canceled })
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ReportsTransitions(t *testing.T) {
	var seen []string
	cb, clock := newTestBreaker(WithOnStateChange(func(name string, from, to State) {
		seen = append(seen, name+":"+from.String()+"->"+to.String())
	}))
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clock.advance(time.Second)
	_ = cb.Execute(ctx, succeed)

	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half-open",
		"test:half-open->closed",
	}, seen)
}
