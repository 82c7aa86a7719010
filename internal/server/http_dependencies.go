package server

import (
	"encoding/json"
	"net/http"
)

// handleAddDependency handles POST /v1/tasks/{id}/dependencies.
func (s *TasksServer) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var in addDependencyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.addDependency(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleRemoveDependency handles DELETE /v1/tasks/{id}/dependencies/{depends_on_id}.
func (s *TasksServer) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	_, err := s.removeDependency(r.Context(), r.PathValue("id"), r.PathValue("depends_on_id"), r.URL.Query().Get("actor"))
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDependencies handles GET /v1/tasks/{id}/dependencies.
func (s *TasksServer) handleGetDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := s.getDependencies(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

// handleGetDependents handles GET /v1/tasks/{id}/dependents.
func (s *TasksServer) handleGetDependents(w http.ResponseWriter, r *http.Request) {
	deps, err := s.getDependents(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deps)
}

// handleDetectCycle handles GET /v1/tasks/{id}/cycle?depends_on_id=.
func (s *TasksServer) handleDetectCycle(w http.ResponseWriter, r *http.Request) {
	res, err := s.detectCycle(r.Context(), r.PathValue("id"), r.URL.Query().Get("depends_on_id"))
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
