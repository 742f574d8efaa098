package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFixedAndBoundFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core), observability.F("component", "bot"))

	log.With(observability.F("user_id", int64(42))).Warn("unauthorized_admin_access",
		observability.F("command", "add_category"),
		observability.Err(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "bot", fields["component"])
	assert.Equal(t, int64(42), fields["user_id"])
	assert.Equal(t, "add_category", fields["command"])
	assert.Equal(t, "boom", fields["error"])
}

func TestNilBaseDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { New(nil).Info("noop") })
}
