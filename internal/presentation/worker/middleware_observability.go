package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"
)

// Unit describes one unit of background work, such as a chat update handled
// on its own goroutine.
type Unit struct {
	// ID is generated when empty so every log line can be pivoted on it.
	ID string
	// Name is the low-cardinality kind of work, e.g. "bot_update".
	Name string
	// Attrs are extra low-cardinality attributes (route, update kind).
	Attrs map[string]string
}

// WithEventContext binds a logger for u to ctx, carrying event_id, event,
// the span identifiers from sc when valid, the attributes and any fields.
func WithEventContext(ctx context.Context, base observability.Logger, sc trace.SpanContext, u Unit, fields ...observability.Field) context.Context {
	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}

	all := make([]observability.Field, 0, 4+len(u.Attrs)+len(fields))
	all = append(all, observability.F("event_id", id))
	if u.Name != "" {
		all = append(all, observability.F("event", u.Name))
	}
	if sc.IsValid() {
		all = append(all,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	for k, v := range u.Attrs {
		if v == "" {
			continue
		}
		all = append(all, observability.F(k, v))
	}
	all = append(all, fields...)

	ctx, _ = logctx.Enrich(ctx, base, all...)
	return ctx
}
