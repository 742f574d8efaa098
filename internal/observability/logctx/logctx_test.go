package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

type namedLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l namedLogger) With(fields ...observability.Field) observability.Logger {
	return namedLogger{Logger: l.Logger, fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := namedLogger{Logger: observability.NopLogger()}

	assert.Nil(t, From(context.Background()))
	assert.Equal(t, fallback, FromOr(context.Background(), fallback))

	stored := namedLogger{Logger: observability.NopLogger(), fields: []observability.Field{observability.F("a", 1)}}
	ctx := With(context.Background(), stored)
	assert.Equal(t, stored, FromOr(ctx, fallback))
}

func TestEnrichStacksFields(t *testing.T) {
	base := namedLogger{Logger: observability.NopLogger()}

	ctx, first := Enrich(context.Background(), base, observability.F("request_id", "r1"))
	_, second := Enrich(ctx, base, observability.F("use_case", "order.approve"))

	assert.Equal(t, []observability.Field{observability.F("request_id", "r1")}, first.(namedLogger).fields)
	assert.Equal(t, []observability.Field{
		observability.F("request_id", "r1"),
		observability.F("use_case", "order.approve"),
	}, second.(namedLogger).fields)
}

func TestEnrichWithoutLogger(t *testing.T) {
	ctx, logger := Enrich(context.Background(), nil)
	assert.NotNil(t, logger)
	assert.NotNil(t, From(ctx))
}
