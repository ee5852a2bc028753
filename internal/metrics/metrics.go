// Package metrics holds the prometheus collectors for API traffic, mirror refreshes and polling.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

type Metrics struct {
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	mirrorRefreshes *prometheus.CounterVec
	mirrorSize      *prometheus.GaugeVec
	pollTicks       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Storefront API calls by operation and HTTP status (0 for transport failures).",
		}, []string{"operation", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Storefront API call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		mirrorRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_refreshes_total",
			Help:      "Collection mirror refreshes by collection and outcome.",
		}, []string{"collection", "outcome"}),
		mirrorSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mirror_lines",
			Help:      "Lines currently held by each collection mirror.",
		}, []string{"collection"}),
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Poller ticks by task and result (run or skipped).",
		}, []string{"task", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.apiRequests, m.apiDuration, m.mirrorRefreshes, m.mirrorSize, m.pollTicks)
	}
	return m
}

func (m *Metrics) ObserveRequest(operation string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveRefresh outcome is one of "applied", "stale" or "failed"
func (m *Metrics) ObserveRefresh(collection, outcome string) {
	if m == nil {
		return
	}
	m.mirrorRefreshes.WithLabelValues(collection, outcome).Inc()
}

func (m *Metrics) SetMirrorSize(collection string, lines int) {
	if m == nil {
		return
	}
	m.mirrorSize.WithLabelValues(collection).Set(float64(lines))
}

func (m *Metrics) ObserveTick(task string, skipped bool) {
	if m == nil {
		return
	}
	result := "run"
	if skipped {
		result = "skipped"
	}
	m.pollTicks.WithLabelValues(task, result).Inc()
}

// RequestCount exposes the api_requests_total counter for an operation/status pair.
func (m *Metrics) RequestCount(operation string, status int) prometheus.Counter {
	return m.apiRequests.WithLabelValues(operation, strconv.Itoa(status))
}

func (m *Metrics) RefreshCount(collection, outcome string) prometheus.Counter {
	return m.mirrorRefreshes.WithLabelValues(collection, outcome)
}

func (m *Metrics) TickCount(task, result string) prometheus.Counter {
	return m.pollTicks.WithLabelValues(task, result)
}

func (m *Metrics) MirrorSize(collection string) prometheus.Gauge {
	return m.mirrorSize.WithLabelValues(collection)
}
