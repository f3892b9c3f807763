package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/newtuple/dialogtuple/internal/logging"
	"github.com/newtuple/dialogtuple/pkg/interfaces"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Metrics records request counts and latencies.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialogtuple",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dialogtuple",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// MiddlewareConfig selects the wrappers applied by Handler.
type MiddlewareConfig struct {
	Logger  interfaces.Logger
	Metrics *Metrics
	// Tracing wraps the handler with otelhttp using the global tracer provider.
	Tracing bool
}

// Handler wraps next with request ids, access logging, metrics and optional
// tracing. Request ids are applied outermost so every log line carries one.
func Handler(next http.Handler, cfg MiddlewareConfig) http.Handler {
	handler := accessLog(next, logging.Ensure(cfg.Logger), cfg.Metrics)
	if cfg.Tracing {
		handler = otelhttp.NewHandler(handler, "dialogtuple.http")
	}
	return requestID(handler)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := logging.ContextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func accessLog(next http.Handler, logger interfaces.Logger, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		// ServeMux records the matched pattern on the request.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(started)

		if metrics != nil {
			metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())
		}

		entry := logger.WithContext(r.Context())
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			entry.Error("http.request", args...)
			return
		}
		entry.Info("http.request", args...)
	})
}
