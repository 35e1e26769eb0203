package onepa

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch operations, used as metric labels.
const (
	opDirectory    = "directory"
	opAvailability = "availability"
	opTimeSlots    = "time_slots"
)

var (
	fetchRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onepa_fetch_requests",
		Help:    "Number of sub-requests issued per fetch call by operation",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"operation"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onepa_fetch_duration_seconds",
		Help:    "Wall time of a whole fetch call by operation",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"operation"})

	fetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepa_fetch_failures_total",
		Help: "Total failed fetch calls by operation",
	}, []string{"operation"})
)

func observeFetch(op string, requests int, d time.Duration) {
	fetchRequests.WithLabelValues(op).Observe(float64(requests))
	fetchDuration.WithLabelValues(op).Observe(d.Seconds())
}
