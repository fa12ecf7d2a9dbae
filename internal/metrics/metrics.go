// Package metrics exposes Prometheus counters for the shortener and its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so that several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	urlsShortened     prometheus.Counter
	batchesRejected   prometheus.Counter
	redirects         *prometheus.CounterVec
	remoteLogsDropped prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		urlsShortened: factory.NewCounter(prometheus.CounterOpts{
			Name: "urls_shortened_total",
			Help: "Total number of short URLs created",
		}),
		batchesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "batches_rejected_total",
			Help: "Total number of shortening batches rejected",
		}),
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of redirect lookups partitioned by result",
		}, []string{"result"}),
		remoteLogsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "remote_logs_dropped_total",
			Help: "Total number of log entries dropped before reaching the collector",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

func (m *Metrics) URLsShortened(n int) {
	m.urlsShortened.Add(float64(n))
}

func (m *Metrics) BatchRejected() {
	m.batchesRejected.Inc()
}

func (m *Metrics) Redirected(result string) {
	m.redirects.WithLabelValues(result).Inc()
}

func (m *Metrics) RemoteLogDropped() {
	m.remoteLogsDropped.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latencies. The route label is the
// matched chi pattern so that short codes do not inflate cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		m.httpRequests.With(labels).Inc()
		m.httpDuration.With(labels).Observe(time.Since(start).Seconds())
	}

	return http.HandlerFunc(fn)
}
