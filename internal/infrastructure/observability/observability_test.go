package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
)

type countingCounter struct{ total float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.total += d }

func TestProviderFallsBackToNops(t *testing.T) {
	p := New(nil, nil, nil, nil)

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Logger())
	assert.NotPanics(t, func() {
		p.Metrics().Counter(observability.MUsecaseRequests).Add(1)
		p.Metrics().Histogram(observability.MUsecaseDuration).Observe(1)
	})
}

func TestProviderReturnsRegisteredInstruments(t *testing.T) {
	c := &countingCounter{}
	p := New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MBotUpdates:      c,
		observability.MUsecaseRequests: nil,
	}, nil)

	p.Metrics().Counter(observability.MBotUpdates).Add(2)
	p.Metrics().Counter(observability.MUsecaseRequests).Add(5)

	assert.Equal(t, 2.0, c.total)
}

func TestSetupRegistersStandardInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := Setup(Options{Service: "storebot", Env: "test", Namespace: "storebot", Registerer: reg})

	p.Metrics().Counter(observability.MBotUpdates).Add(1,
		observability.L("kind", "command"),
		observability.L("outcome", "success"),
	)
	_, span := p.Tracer().Start(context.Background(), "UC.Checkout")
	span.End()

	count, err := testutil.GatherAndCount(reg, "storebot_bot_updates_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
