package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestSetLoggerRoutesPackageHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	With(zap.String("request_id", "r1")).Info("hello")
	Warn("careful")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "hello", entries[0].Message)
		assert.Equal(t, "r1", entries[0].ContextMap()["request_id"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	FromContext(context.Background()).Info("global")

	scoped := With(zap.String("request_id", "r2"))
	FromContext(WithContext(context.Background(), scoped)).Info("scoped")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.NotContains(t, entries[0].ContextMap(), "request_id")
		assert.Equal(t, "r2", entries[1].ContextMap()["request_id"])
	}
}
