package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRequest("cart.add", 200, 10*time.Millisecond)
	m.ObserveRequest("cart.add", 200, 20*time.Millisecond)
	m.ObserveRefresh("cart", "applied")
	m.SetMirrorSize("cart", 3)
	m.ObserveTick("orders", true)
	m.ObserveTick("orders", false)

	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestCount("cart.add", 200)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshCount("cart", "applied")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.MirrorSize("cart")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TickCount("orders", "skipped")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.TickCount("orders", "run")))

	count, err := testutil.GatherAndCount(reg, "storefront_api_request_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	require.NotPanics(t, func() {
		m.ObserveRequest("x", 500, time.Second)
		m.ObserveRefresh("x", "failed")
		m.SetMirrorSize("x", 1)
		m.ObserveTick("x", false)
	})
}
