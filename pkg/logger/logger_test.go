package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(LevelDebug)
	return FromZap(zap.New(core)), logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestFromContext_PrefersAttachedLogger(t *testing.T) {
	attached, logs := observed()
	fallback, fallbackLogs := observed()
	ctx := WithContext(context.Background(), attached)

	FromContextOr(ctx, fallback).Info("hello")

	assert.Equal(t, 1, logs.Len())
	assert.Zero(t, fallbackLogs.Len())
	assert.Same(t, attached, FromContext(ctx))
}

func TestFromContextOr_UsesFallback(t *testing.T) {
	fallback, logs := observed()

	FromContextOr(context.Background(), fallback).Warn("no request logger")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "no request logger", logs.All()[0].Message)
	assert.NotNil(t, FromContextOr(context.Background(), nil))
}

func TestWith_CarriesFields(t *testing.T) {
	l, logs := observed()

	l.Named("lifecycle").WithRequestID("req-1").Info("accepted", CardID("card"), Tier(2), Err(nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "lifecycle", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields[RequestIDKey])
	assert.Equal(t, "card", fields["card_id"])
	assert.Equal(t, int64(2), fields["tier"])
	assert.NotContains(t, fields, "error")
}
