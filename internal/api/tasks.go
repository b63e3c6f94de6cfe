package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/project"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	tasks, err := s.projects.ListTasks(r.Context(), id, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err, "list tasks")
		return
	}
	if tasks == nil {
		tasks = []project.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var in project.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}

	t, err := s.projects.CreateTask(r.Context(), id, chi.URLParam(r, "projectID"), in)
	if err != nil {
		s.writeServiceError(w, r, err, "create task")
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityTask, t.ID, id.AccountID,
		map[string]any{"project_id": t.ProjectID, "name": t.Name})
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	t, err := s.projects.AuthorizeTask(r.Context(), id,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeServiceError(w, r, err, "get task")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// handleUpdateTask overwrites name, description and due date. A body
// without "status" leaves the status as it was.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var in project.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}

	t, err := s.projects.UpdateTask(r.Context(), id,
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), in)
	if err != nil {
		s.writeServiceError(w, r, err, "update task")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityTask, t.ID, id.AccountID,
		map[string]any{"project_id": t.ProjectID, "status": string(t.Status)})
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	projectID, taskID := chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID")
	if err := s.projects.DeleteTask(r.Context(), id, projectID, taskID); err != nil {
		s.writeServiceError(w, r, err, "delete task")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityTask, taskID, id.AccountID,
		map[string]any{"project_id": projectID})
	w.WriteHeader(http.StatusNoContent)
}
