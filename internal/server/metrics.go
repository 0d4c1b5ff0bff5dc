package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	uploadsTotal      *prometheus.CounterVec
	machinesTotal     *prometheus.CounterVec
	uploadRows        prometheus.Histogram
}

// NewMetrics registers collectors on a private registry so several servers (and
// tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetrisk_uploads_total",
			Help: "Uploads processed, by result kind (ok or an error kind).",
		}, []string{"result"}),
		machinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetrisk_machines_classified_total",
			Help: "Machines classified, by risk level.",
		}, []string{"level"}),
		uploadRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetrisk_upload_rows",
			Help:    "Rows per accepted upload.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.uploadsTotal,
		m.machinesTotal,
		m.uploadRows,
	)
	for _, l := range machine.Levels {
		m.machinesTotal.WithLabelValues(string(l)).Add(0)
	}
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency under a fixed route label.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Upload records the outcome of one upload. result is "ok" or an error kind.
func (m *Metrics) Upload(result string, recs []machine.Scored) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
	if result != "ok" {
		return
	}
	m.uploadRows.Observe(float64(len(recs)))
	for lvl, n := range machine.CountByLevel(recs) {
		m.machinesTotal.WithLabelValues(string(lvl)).Add(float64(n))
	}
}
