package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

// Token is a signed identity token and the window it is valid for.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and validates HS256 identity tokens.
//
// The codec holds only the secret and TTL, both fixed at construction, so a
// single instance is shared by all requests without locking.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec returns a codec signing with secret. Tokens expire ttl after issue.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %v", ttl)
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime given to every issued token.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for identity, valid from now until now+TTL.
// Timestamps are truncated to whole seconds, the resolution of the
// token's numeric dates.
func (c *TokenCodec) Issue(identity Identity, now time.Time) (Token, error) {
	if identity.Username == "" {
		return Token{}, errors.New("issuing token: identity has no username")
	}

	issued := now.UTC().Truncate(time.Second)
	expires := issued.Add(c.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   identity.Username,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("signing token: %w", err)
	}

	return Token{Value: signed, IssuedAt: issued, ExpiresAt: expires}, nil
}

// ParseAndValidate verifies value's signature and expiry as of now and
// returns the claimed identity. Only Username is set: the caller must still
// resolve it against the account store.
//
// Errors are ErrTokenBadSignature, ErrTokenExpired (now >= expiry) or
// ErrTokenMalformed, checked in that order.
func (c *TokenCodec) ParseAndValidate(value string, now time.Time) (Identity, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(value, claims,
		func(_ *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Identity{}, fmt.Errorf("%w: %w", ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return Identity{}, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	return Identity{Username: claims.Subject}, nil
}
