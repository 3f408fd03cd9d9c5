package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	runTotal    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	runRows     *prometheus.CounterVec
	runFiles    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "retl",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retl",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total completed pipeline runs by exit status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retl",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds by exit status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	runRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retl",
			Subsystem: "pipeline",
			Name:      "rows_total",
			Help:      "Total rows produced by pipeline runs by validation outcome.",
		},
		[]string{"service", "outcome"},
	)
	runFiles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retl",
			Subsystem: "pipeline",
			Name:      "files_total",
			Help:      "Total input files seen by pipeline runs by disposition.",
		},
		[]string{"service", "disposition"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		runTotal,
		runDuration,
		runRows,
		runFiles,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		runTotal:        runTotal,
		runDuration:     runDuration,
		runRows:         runRows,
		runFiles:        runFiles,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRun(service, status string, duration time.Duration, cleanRows, invalidRows int) {
	if status == "" {
		status = "unknown"
	}
	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if cleanRows > 0 {
		m.runRows.WithLabelValues(service, "clean").Add(float64(cleanRows))
	}
	if invalidRows > 0 {
		m.runRows.WithLabelValues(service, "invalid").Add(float64(invalidRows))
	}
}

func (m *HTTPServerMetrics) RecordRunFiles(service string, fetched, skipped, read, failed int) {
	add := func(disposition string, count int) {
		if count > 0 {
			m.runFiles.WithLabelValues(service, disposition).Add(float64(count))
		}
	}
	add("fetched", fetched)
	add("skipped_duplicate", skipped)
	add("read", read)
	add("failed", failed)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
