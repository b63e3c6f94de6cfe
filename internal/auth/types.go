package auth

import (
	"errors"
	"time"
)

// Account is a registered user. Every project belongs to exactly one account.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated principal of a single request.
// It is derived from a verified token and never persisted.
type Identity struct {
	AccountID string
	Username  string
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidUsername    = errors.New("username must be 3-100 characters and not blank")
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrPasswordWeak       = errors.New("password is too weak")
)

// Token validation failures. The kind is kept for logs and telemetry; HTTP
// clients see one generic message for all three.
var (
	ErrTokenMalformed    = errors.New("token is malformed")
	ErrTokenBadSignature = errors.New("token signature is invalid")
	ErrTokenExpired      = errors.New("token has expired")
)

// TokenErrorReason returns a short, log-friendly label for a token error,
// or "" if err is not a token error.
func TokenErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return ""
	}
}
