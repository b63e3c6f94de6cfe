package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/auth"
)

// identityFrom returns the request's identity, writing a 401 when absent.
func identityFrom(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
	}
	return id, ok
}

// handleGetAccount returns the caller's own account.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}

	account, err := s.accounts.GetByID(r.Context(), id.AccountID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "account not found")
			return
		}
		s.logger.Error("failed to get account", "account_id", id.AccountID, "error", err)
		writeInternalError(w, "failed to get account")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// handleAccountActivity returns the caller's audit trail, newest first.
//
// Query parameters:
//   - action: filter by action (login, create, update, delete, ...)
//   - entity_type: filter by entity type (account, project, task)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleAccountActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if s.auditRepo == nil {
		writeInternalError(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		UserID:     id.AccountID,
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "account_id", id.AccountID, "error", err)
		writeInternalError(w, "failed to list activity")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
