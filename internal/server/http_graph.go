package server

import (
	"net/http"
	"strconv"
)

// defaultGraphLimit caps the node count of GET /v1/graph.
const defaultGraphLimit = 500

// handleGetGraph handles GET /v1/graph.
// Returns the most recently updated tasks as nodes, the edges between them,
// and status counts over the whole store.
func (s *TasksServer) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	limit := defaultGraphLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	graph, err := s.store.GetGraph(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to get graph", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to get graph")
		return
	}

	writeJSON(w, http.StatusOK, graph)
}

// handleGetStats handles GET /v1/stats.
func (s *TasksServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.logger.Error("failed to get stats", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
