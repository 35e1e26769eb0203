package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sternrassler/onepa-availability/pkg/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepa_dashboard_requests_total",
		Help: "Total dashboard HTTP requests by route and status code",
	}, []string{"route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onepa_dashboard_request_duration_seconds",
		Help:    "Dashboard handler latency in seconds by route",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"route"})

	registryResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onepa_dashboard_resets_total",
		Help: "Total facility registry resets",
	})
)

// requestContext tags the request with an ID (the caller's, or a new UUID)
// and, when a span is active, its trace ID, and stores a logger carrying both
// in the request context.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		lc := s.logger.With().Str("request_id", requestID)
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			lc = lc.Str("trace_id", uuid.UUID(sc.TraceID()).String())
		}

		ctx := logging.WithContext(r.Context(), lc.Logger())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog records metrics and an access log line once the handler returns.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		elapsed := time.Since(start)

		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		logging.FromContext(r.Context()).Info().
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Msg("Request served")
	})
}

// routePattern returns the matched chi pattern so metric labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
