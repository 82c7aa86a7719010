package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

func TestMetrics_GraphOperations(t *testing.T) {
	_, _, h := newTestServer(t)
	a := apiCreate(t, h, "A")
	b := apiCreate(t, h, "B")

	okBefore := testutil.ToFloat64(graphOps.WithLabelValues("dependency_added", "ok"))
	errBefore := testutil.ToFloat64(graphOps.WithLabelValues("dependency_added", "error"))
	cyclesBefore := testutil.ToFloat64(cyclesRejected)
	changesBefore := testutil.ToFloat64(statusChanges)

	apiDepend(t, h, a, b)
	rec := doRequest(t, h, http.MethodPost, "/v1/tasks/"+b+"/dependencies", map[string]string{"depends_on_id": a})
	requireCode(t, rec, http.StatusBadRequest)
	apiSetStatus(t, h, b, model.StatusCompleted)

	if got := testutil.ToFloat64(graphOps.WithLabelValues("dependency_added", "ok")) - okBefore; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(graphOps.WithLabelValues("dependency_added", "error")) - errBefore; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(cyclesRejected) - cyclesBefore; got != 1 {
		t.Errorf("cycles delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(statusChanges) - changesBefore; got != 1 {
		t.Errorf("status changes delta = %v, want 1", got)
	}
}

func TestMetrics_Endpoint(t *testing.T) {
	_, _, h := newTestServer(t)
	apiCreate(t, h, "A")

	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	requireCode(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, name := range []string{"taskdeps_http_requests_total", "taskdeps_events_published_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestMetrics_EndpointDisabled(t *testing.T) {
	srv := NewTasksServer(newMockStore(), nil)
	rec := doRequest(t, srv.NewHTTPHandler(false), http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLoggingMiddleware_CountsByRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := LoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)), mux)

	counter := httpRequests.WithLabelValues("GET", "GET /v1/things/{id}", "418")
	before := testutil.ToFloat64(counter)
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/"+id, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("route counter delta = %v, want 2", got)
	}
}

func TestLoggingMiddleware_RecoversPanic(t *testing.T) {
	h := LoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil)),
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
