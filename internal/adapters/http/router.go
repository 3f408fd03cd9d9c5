// Package httpadapter exposes the pipeline over HTTP: a synchronous /run
// endpoint that blocks until the run finishes, an asynchronous /run/async
// endpoint that enqueues a run request, and the usual health and metrics
// surfaces.
package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/report-etl/internal/core/domain"
	"github.com/kirillkom/report-etl/internal/core/ports"
	"github.com/kirillkom/report-etl/internal/observability/metrics"
)

type Router struct {
	runner  ports.PipelineRunner
	queue   ports.RunQueue
	metrics *metrics.HTTPServerMetrics

	rateLimitRPS   int
	rateLimitBurst int
	runMaxInFlight int
}

type Options struct {
	RateLimitRPS   int
	RateLimitBurst int
	RunMaxInFlight int
}

// NewRouter wires the run endpoints. queue may be nil, in which case
// /run/async responds 503.
func NewRouter(runner ports.PipelineRunner, queue ports.RunQueue, m *metrics.HTTPServerMetrics, options Options) *Router {
	return &Router{
		runner:         runner,
		queue:          queue,
		metrics:        m,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		runMaxInFlight: options.RunMaxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/run", rt.runSync)
	mux.HandleFunc("/run/async", rt.runAsync)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	if rt.runMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.runMaxInFlight, 50*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runRequest struct {
	Query string `json:"query"`
}

func decodeRunRequest(r *http.Request) (runRequest, error) {
	var req runRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return req, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.New("invalid json")
	}
	return req, nil
}

func (rt *Router) runSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	req, err := decodeRunRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	report, err := rt.runner.Run(r.Context(), req.Query)
	if err != nil {
		slog.Error("run_failed",
			"request_id", requestIDFromContext(r.Context()),
			"run_id", report.RunID,
			"error", err,
		)
	}
	if rt.metrics != nil {
		rt.metrics.RecordRun("api", report.Status.String(), time.Duration(report.Duration*float64(time.Second)), report.CleanRows, report.InvalidRows)
		rt.metrics.RecordRunFiles("api", report.FilesFetched, report.FilesSkipped, report.FilesRead, report.FilesFailed)
	}

	status := http.StatusOK
	if report.Status != domain.StatusOK {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, runResponse(report))
}

func (rt *Router) runAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run queue is not configured"})
		return
	}
	req, err := decodeRunRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := rt.queue.PublishRunRequested(r.Context(), req.Query); err != nil {
		slog.Error("run_enqueue_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue run"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "query": req.Query})
}

func runResponse(report domain.RunReport) map[string]any {
	return map[string]any{
		"run_id":           report.RunID,
		"status":           report.Status.String(),
		"code":             int(report.Status),
		"files_fetched":    report.FilesFetched,
		"files_skipped":    report.FilesSkipped,
		"files_read":       report.FilesRead,
		"files_failed":     report.FilesFailed,
		"clean_rows":       report.CleanRows,
		"invalid_rows":     report.InvalidRows,
		"started_at":       report.StartedAt,
		"duration_seconds": report.Duration,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
