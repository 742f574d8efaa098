package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry exposes the subset of Prometheus registry functionality needed by the application.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	counters   sync.Map // name -> *prometheus.CounterVec
	histograms sync.Map // name -> *prometheus.HistogramVec
	namespace  string
	subsystem  string
	reg        prometheus.Registerer
}

// New builds a registry that registers every vector on reg (the default registerer when nil).
func New(namespace, subsystem string, reg prometheus.Registerer) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{namespace: namespace, subsystem: subsystem, reg: reg}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	// ensure only registered once
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(cv)
	r.counters.Store(name, cv)
	return &counter{v: cv}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(hv)
	r.histograms.Store(name, hv)
	return &histogram{v: hv}
}

// Standard registers the instruments every component of the bot expects.
func Standard(r Registry) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counter := func(k observability.MetricKey, labels ...string) observability.Counter {
		return r.Counter(string(k), k.Help(), labels...)
	}
	histogram := func(k observability.MetricKey, labels ...string) observability.Histogram {
		return r.Histogram(string(k), k.Help(), nil, labels...)
	}

	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests:  counter(observability.MUsecaseRequests, "use_case", "outcome"),
		observability.MExternalRequests: counter(observability.MExternalRequests, "peer", "endpoint", "outcome"),
		observability.MHTTPRequests:     counter(observability.MHTTPRequests, "method", "route", "status"),
		observability.MBotUpdates:       counter(observability.MBotUpdates, "kind", "outcome"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration:         histogram(observability.MUsecaseDuration, "use_case"),
		observability.MExternalRequestDuration: histogram(observability.MExternalRequestDuration, "peer", "endpoint"),
		observability.MHTTPRequestDuration:     histogram(observability.MHTTPRequestDuration, "method", "route", "status"),
	}
	return counters, histograms
}
