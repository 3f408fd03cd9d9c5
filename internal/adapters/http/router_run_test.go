package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/report-etl/internal/core/domain"
	"github.com/kirillkom/report-etl/internal/core/ports"
	"github.com/kirillkom/report-etl/internal/observability/metrics"
)

type runnerFake struct {
	report  domain.RunReport
	err     error
	queries []string
}

func (f *runnerFake) Run(_ context.Context, query string) (domain.RunReport, error) {
	f.queries = append(f.queries, query)
	return f.report, f.err
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishRunRequested(_ context.Context, query string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, query)
	return nil
}

func (f *queueFake) SubscribeRunRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func newTestHandler(runner *runnerFake, queue *queueFake, options Options) http.Handler {
	var q ports.RunQueue
	if queue != nil {
		q = queue
	}
	return NewRouter(runner, q, metrics.NewHTTPServerMetrics("api-test"), options).Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(&runnerFake{}, nil, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRunSyncOK(t *testing.T) {
	runner := &runnerFake{report: domain.RunReport{
		RunID:     "run-1",
		Status:    domain.StatusOK,
		FilesRead: 2,
		CleanRows: 7,
	}}
	handler := newTestHandler(runner, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"query":"*.csv"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(runner.queries) != 1 || runner.queries[0] != "*.csv" {
		t.Fatalf("runner saw queries %v", runner.queries)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["clean_rows"].(float64) != 7 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRunSyncEmptyBodyRunsDefaultQuery(t *testing.T) {
	runner := &runnerFake{report: domain.RunReport{Status: domain.StatusOK}}
	handler := newTestHandler(runner, nil, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/run", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(runner.queries) != 1 || runner.queries[0] != "" {
		t.Fatalf("expected one run with empty query, got %v", runner.queries)
	}
}

func TestRunSyncNonZeroStatusMapsTo500(t *testing.T) {
	runner := &runnerFake{report: domain.RunReport{Status: domain.StatusAllInvalid}}
	handler := newTestHandler(runner, nil, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/run", nil))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "all_invalid" || body["code"].(float64) != 3 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRunSyncRejectsGet(t *testing.T) {
	handler := newTestHandler(&runnerFake{}, nil, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/run", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestRunAsyncEnqueues(t *testing.T) {
	queue := &queueFake{}
	handler := newTestHandler(&runnerFake{}, queue, Options{})

	req := httptest.NewRequest(http.MethodPost, "/run/async", strings.NewReader(`{"query":"ventas*"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if len(queue.published) != 1 || queue.published[0] != "ventas*" {
		t.Fatalf("queue saw %v", queue.published)
	}
}

func TestRunAsyncWithoutQueueReturns503(t *testing.T) {
	handler := newTestHandler(&runnerFake{}, nil, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/run/async", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestRunAsyncPublishFailureReturns500(t *testing.T) {
	queue := &queueFake{publishErr: errors.New("nats down")}
	handler := newTestHandler(&runnerFake{}, queue, Options{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/run/async", nil))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}
