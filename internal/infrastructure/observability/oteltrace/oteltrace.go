package oteltrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

type tracer struct {
	t     trace.Tracer
	fixed []attribute.KeyValue
}

// New returns a tracer from the global provider. fixed attributes are added
// to every span it starts. Spans are no-ops until an SDK provider is installed.
func New(name string, fixed ...attribute.KeyValue) observability.Tracer {
	if name == "" {
		name = "storebot"
	}
	return &tracer{t: otel.Tracer(name), fixed: fixed}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if len(t.fixed) > 0 {
		attrs = append(append(make([]attribute.KeyValue, 0, len(t.fixed)+len(attrs)), t.fixed...), attrs...)
	}
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
