package server

import (
	"encoding/json"
	"net/http"
)

// handleCreateTask handles POST /v1/tasks.
func (s *TasksServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in createTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.createTask(r.Context(), in)
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// handleListTasks handles GET /v1/tasks.
func (s *TasksServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.listTasks(r.Context())
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleGetTask handles GET /v1/tasks/{id}.
func (s *TasksServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.getTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask handles PATCH /v1/tasks/{id}.
func (s *TasksServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in updateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.updateTask(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDeleteTask handles DELETE /v1/tasks/{id}.
func (s *TasksServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deleteTask(r.Context(), r.PathValue("id"), r.URL.Query().Get("actor")); err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetEvents handles GET /v1/tasks/{id}/events.
func (s *TasksServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.store.GetEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGraphError(w, r, err)
		return
	}
	if evts == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, evts)
}
