package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/project"
)

// handleListProjects returns the caller's projects.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	projects, err := s.projects.ListProjects(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "list projects")
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "count": len(projects)})
}

// handleCreateProject creates a project owned by the caller.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var in project.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := s.projects.CreateProject(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, r, err, "create project")
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityProject, p.ID, id.AccountID,
		map[string]any{"name": p.Name})
	writeJSON(w, http.StatusCreated, p)
}

// handleGetProject returns one of the caller's projects.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	p, err := s.projects.AuthorizeProject(r.Context(), id, chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err, "get project")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleUpdateProject replaces a project's name, description and dates.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var in project.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := s.projects.UpdateProject(r.Context(), id, chi.URLParam(r, "projectID"), in)
	if err != nil {
		s.writeServiceError(w, r, err, "update project")
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityProject, p.ID, id.AccountID, nil)
	writeJSON(w, http.StatusOK, p)
}

// handleDeleteProject deletes a project and its tasks.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := s.projects.DeleteProject(r.Context(), id, projectID); err != nil {
		s.writeServiceError(w, r, err, "delete project")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityProject, projectID, id.AccountID, nil)
	w.WriteHeader(http.StatusNoContent)
}
