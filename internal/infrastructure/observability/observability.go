package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storebot/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

// Options describes the telemetry of one storebot process.
type Options struct {
	Service    string
	Env        string
	Namespace  string
	Logger     observability.Logger
	Registerer prometheus.Registerer
}

// Setup registers the standard instruments on opts.Registerer and returns a
// provider whose spans carry the service name and environment.
func Setup(opts Options) observability.Observability {
	counters, histograms := prometrics.Standard(prometrics.New(opts.Namespace, "", opts.Registerer))
	var fixed []attribute.KeyValue
	if opts.Env != "" {
		fixed = append(fixed, attribute.String("service.env", opts.Env))
	}
	return New(oteltrace.New(opts.Service, fixed...), opts.Logger, counters, histograms)
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics instruments
}

type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// Unknown keys resolve to no-ops so components never need to nil-check.
func (m instruments) Counter(name observability.MetricKey) observability.Counter {
	if c := m.counters[name]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h := m.histograms[name]; h != nil {
		return h
	}
	return observability.NopHistogram()
}

// New composes a provider from explicit parts; nil parts become no-ops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	m := instruments{
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	for k, v := range counters {
		if v != nil {
			m.counters[k] = v
		}
	}
	for k, v := range histograms {
		if v != nil {
			m.histograms[k] = v
		}
	}
	return &provider{tracer: tracer, logger: logger, metrics: m}
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
