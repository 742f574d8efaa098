package httppresentation

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability/logctx"
)

const (
	headerRequestID = "X-Request-ID"
	unknownRoute    = "unknown"
)

// routeOf returns the registered route template, keeping metric labels low-cardinality.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unknownRoute
}

// Trace extracts W3C trace context and opens a server span per request.
func Trace(tel observability.Observability) gin.HandlerFunc {
	prop := otel.GetTextMapPropagator()
	return func(c *gin.Context) {
		r := c.Request
		parent := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := r.Method + " " + routeOf(c)
		ctx, span := tel.Tracer().Start(parent, spanName,
			attribute.String("http.method", r.Method),
			attribute.String("http.route", routeOf(c)),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
	}
}

// RequestLogger injects a request-scoped logger with the request id and
// trace identifiers, generating and echoing X-Request-ID.
func RequestLogger(base observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		ctx := c.Request.Context()
		fields := []observability.Field{observability.F("request_id", rid)}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		ctx, _ = logctx.Enrich(ctx, base, fields...)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// HTTPMetrics records RED metrics with the injected instruments.
func HTTPMetrics(tel observability.Observability) gin.HandlerFunc {
	requests := tel.Metrics().Counter(observability.MHTTPRequests)
	durations := tel.Metrics().Histogram(observability.MHTTPRequestDuration)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		labels := []observability.Label{
			observability.L("method", c.Request.Method),
			observability.L("route", routeOf(c)),
			observability.L("status", strconv.Itoa(c.Writer.Status())),
		}
		requests.Add(1, labels...)
		durations.Observe(time.Since(start).Seconds(), labels...)
	}
}

// AccessLog writes one line per request through the request-scoped logger.
func AccessLog(base observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logctx.FromOr(c.Request.Context(), base).Info("http_access",
			observability.F("method", c.Request.Method),
			observability.F("route", routeOf(c)),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	}
}
