package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-storebot/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("storebot", "", reg)

	c1 := r.Counter("orders_total", "orders", "outcome")
	c2 := r.Counter("orders_total", "orders", "outcome")
	c1.Add(1, observability.L("outcome", "success"))
	c2.Add(2, observability.L("outcome", "success"))

	count, err := testutil.GatherAndCount(reg, "storebot_orders_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cv, ok := r.(*registry).counters.Load("orders_total")
	require.True(t, ok)
	assert.InDelta(t, 3.0, testutil.ToFloat64(cv.(*prometheus.CounterVec).WithLabelValues("success")), 0.0001)
}

func TestStandardInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New("", "", reg))

	assert.Contains(t, counters, observability.MUsecaseRequests)
	assert.Contains(t, counters, observability.MBotUpdates)
	assert.Contains(t, histograms, observability.MUsecaseDuration)

	assert.NotPanics(t, func() {
		counters[observability.MBotUpdates].Add(1,
			observability.L("kind", "command"),
			observability.L("outcome", "success"),
		)
		histograms[observability.MHTTPRequestDuration].Observe(0.2,
			observability.L("method", "GET"),
			observability.L("route", "/health"),
			observability.L("status", "200"),
		)
	})
}
