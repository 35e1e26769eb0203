// Package metrics exposes the Prometheus registry used by the onePA client and
// dashboard. Metrics are defined with promauto in the packages that own them
// (client, onepa, dashboard); this package serves them and documents the set.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all promauto metrics in this module use.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an HTTP handler exposing every registered metric.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics
//
// Request metrics (pkg/client):
//   - onepa_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - onepa_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - onepa_errors_total{class} (Counter): errors by class (client, server, network, decode, unexpected)
//
// Fetch metrics (pkg/onepa), operation is directory, availability or time_slots:
//   - onepa_fetch_requests{operation} (Histogram): sub-requests issued per fetch call
//   - onepa_fetch_duration_seconds{operation} (Histogram): wall time of a whole fetch call
//   - onepa_fetch_failures_total{operation} (Counter): fetch calls that failed
//
// Dashboard metrics (internal/dashboard):
//   - onepa_dashboard_requests_total{route, code} (Counter): HTTP requests served
//   - onepa_dashboard_request_duration_seconds{route} (Histogram): handler latency
//   - onepa_dashboard_resets_total (Counter): facility registry resets
//
// Example queries:
//
//	# P95 availability fetch time
//	histogram_quantile(0.95, rate(onepa_fetch_duration_seconds_bucket{operation="availability"}[5m]))
//
//	# Upstream error rate by class
//	sum by (class) (rate(onepa_errors_total[5m]))
//
//	# Requests per availability fetch
//	rate(onepa_fetch_requests_sum{operation="availability"}[1h]) / rate(onepa_fetch_requests_count{operation="availability"}[1h])
