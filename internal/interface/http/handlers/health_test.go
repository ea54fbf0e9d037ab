package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker_AllPass(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", NewPingCheck(pingFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", NewPingCheck(pingFunc(func(context.Context) error { return nil })))

	status := c.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Len(t, status.Checks, 2)
	assert.Equal(t, "test", status.Version)
}

func TestCompositeHealthChecker_FailureNamesTheCheck(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", NewPingCheck(pingFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", NewPingCheck(pingFunc(func(context.Context) error { return errors.New("connection refused") })))

	status := c.Check(context.Background())
	assert.False(t, status.Ready)
	assert.Equal(t, "Some checks failed: redis", status.Message)
	require.Contains(t, status.Checks, "redis")
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.SetTimeout(20 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Checks["slow"].Message, "deadline")
}

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("test").Check(context.Background())
	assert.True(t, status.Ready)
}
