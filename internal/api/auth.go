package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/auth"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/influxdb"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleRegister creates an account. It does not log the caller in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegistrationInput
	if !decodeJSON(w, r, &in) {
		return
	}

	account, err := s.registrar.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameExists), errors.Is(err, auth.ErrEmailExists):
			s.influx.WriteAuthEvent("register", influxdb.OutcomeFailure, "conflict")
			writeConflict(w, err.Error())
		case errors.Is(err, auth.ErrInvalidUsername),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong),
			errors.Is(err, auth.ErrPasswordWeak):
			s.influx.WriteAuthEvent("register", influxdb.OutcomeFailure, "validation")
			writeValidationError(w, err.Error())
		default:
			s.logger.Error("registration failed", "error", err)
			writeInternalError(w, "failed to register account")
		}
		return
	}

	s.logger.Info("account registered", "account_id", account.ID, "username", account.Username)
	s.influx.WriteAuthEvent("register", influxdb.OutcomeSuccess, "")
	s.auditLog(audit.ActionRegister, audit.EntityAccount, account.ID, account.ID, nil)

	writeJSON(w, http.StatusCreated, account)
}

// handleLogin exchanges a username and password for a bearer token.
// An unknown username and a wrong password get the same 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	identity, err := s.authenticator.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
			reason := "invalid_credentials"
			if errors.Is(err, auth.ErrAccountNotFound) {
				reason = "not_found"
			}
			s.logger.Warn("login failed", "username", username, "reason", reason)
			s.influx.WriteAuthEvent("login", influxdb.OutcomeFailure, reason)
			s.auditLog(audit.ActionLoginFailed, audit.EntityAccount, "", "",
				map[string]any{"username": username})
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "username", username, "error", err)
		writeInternalError(w, "failed to authenticate")
		return
	}

	token, err := s.codec.Issue(identity, s.now())
	if err != nil {
		s.logger.Error("issuing token", "account_id", identity.AccountID, "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	s.influx.WriteAuthEvent("login", influxdb.OutcomeSuccess, "")
	s.auditLog(audit.ActionLogin, audit.EntityAccount, identity.AccountID, identity.AccountID, nil)

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token.Value,
		TokenType:   strings.TrimSpace(auth.BearerPrefix),
		ExpiresIn:   int(token.ExpiresAt.Sub(token.IssuedAt).Seconds()),
		ExpiresAt:   token.ExpiresAt,
	})
}
