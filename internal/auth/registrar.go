package auth

import (
	"context"
	"errors"
	"fmt"
)

// RegistrationInput is the data a new user submits.
type RegistrationInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registrar creates accounts.
type Registrar struct {
	accounts AccountRepository
	policy   PasswordPolicy
}

// NewRegistrar creates a Registrar enforcing policy on new passwords.
func NewRegistrar(accounts AccountRepository, policy PasswordPolicy) *Registrar {
	return &Registrar{accounts: accounts, policy: policy}
}

// Register validates in, rejects a taken username or email (checked in that
// order) and stores the account with a hashed password.
//
// Concurrent registrations of the same name both pass the pre-checks; the
// unique index then rejects the second insert with the same sentinel.
func (r *Registrar) Register(ctx context.Context, in RegistrationInput) (*Account, error) {
	username, err := NormalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := r.policy.Validate(in.Password); err != nil {
		return nil, err
	}

	if err := r.ensureFree(ctx, r.accounts.GetByUsername, username, ErrUsernameExists); err != nil {
		return nil, err
	}
	if err := r.ensureFree(ctx, r.accounts.GetByEmail, email, ErrEmailExists); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &Account{Username: username, Email: email, PasswordHash: hash}
	if err := r.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *Registrar) ensureFree(ctx context.Context,
	lookup func(context.Context, string) (*Account, error), value string, taken error,
) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, ErrAccountNotFound):
		return nil
	default:
		return fmt.Errorf("checking availability: %w", err)
	}
}
