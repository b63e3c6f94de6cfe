package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// AccountLookup is the read side of the account store used to resolve
// credentials and token subjects.
type AccountLookup interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
}

// Authenticator checks username/password pairs against the account store.
// It creates no session or token; callers issue a token on success.
type Authenticator struct {
	accounts AccountLookup
}

// NewAuthenticator creates an Authenticator over accounts.
func NewAuthenticator(accounts AccountLookup) *Authenticator {
	return &Authenticator{accounts: accounts}
}

// Authenticate returns the identity for username if password matches.
//
// It fails with ErrAccountNotFound when no account has that username and
// ErrInvalidCredentials when the password does not verify. Callers that
// respond to clients should treat both the same way.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	account, err := a.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Spend the same hashing work as a real check.
			VerifyPassword(password, dummyHash())
			return Identity{}, ErrAccountNotFound
		}
		return Identity{}, fmt.Errorf("looking up account: %w", err)
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{AccountID: account.ID, Username: account.Username}, nil
}

var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("not-a-real-password")
	if err != nil {
		return ""
	}
	return h
})
