package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When withMetrics is true, GET /metrics serves the Prometheus registry.
func (s *TasksServer) NewHTTPHandler(withMetrics bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("GET /v1/tasks/{id}/dependencies", s.handleGetDependencies)
	mux.HandleFunc("POST /v1/tasks/{id}/dependencies", s.handleAddDependency)
	mux.HandleFunc("DELETE /v1/tasks/{id}/dependencies/{depends_on_id}", s.handleRemoveDependency)
	mux.HandleFunc("GET /v1/tasks/{id}/dependents", s.handleGetDependents)
	mux.HandleFunc("GET /v1/tasks/{id}/cycle", s.handleDetectCycle)
	mux.HandleFunc("GET /v1/tasks/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /v1/graph", s.handleGetGraph)
	mux.HandleFunc("GET /v1/stats", s.handleGetStats)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	if withMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	return LoggingMiddleware(s.logger, mux)
}

// handleHome handles GET /.
func (s *TasksServer) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task Dependency Tracker API is running"})
}

// handleHealth handles GET /v1/health.
func (s *TasksServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeGraphError reports an operation error. Cycle errors carry the loop
// in "path" next to the message.
func (s *TasksServer) writeGraphError(w http.ResponseWriter, r *http.Request, err error) {
	c := classify(err)
	if c.httpStatus == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	if c.path != nil {
		writeJSON(w, c.httpStatus, map[string]any{"error": c.message, "path": c.path})
		return
	}
	writeError(w, c.httpStatus, c.message)
}
