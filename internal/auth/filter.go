package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/logging"
)

// BearerPrefix is the exact, case-sensitive scheme prefix of the
// Authorization header.
const BearerPrefix = "Bearer "

// IdentityFilter establishes the Resolved Identity for one request.
type IdentityFilter struct {
	codec    *TokenCodec
	accounts AccountLookup
	logger   *logging.Logger
}

// NewIdentityFilter creates a filter that validates tokens with codec and
// resolves their subjects through accounts.
func NewIdentityFilter(codec *TokenCodec, accounts AccountLookup, logger *logging.Logger) *IdentityFilter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &IdentityFilter{codec: codec, accounts: accounts, logger: logger}
}

// Apply returns ctx carrying the identity named by the Authorization header
// value, validated as of now.
//
//   - ctx already carries an identity: ctx is returned as is. Nothing is
//     re-validated or looked up.
//   - No "Bearer " prefix: ctx is returned unchanged (anonymous).
//   - A present token that fails validation: the token error is returned and
//     the request must be rejected.
//   - A valid token whose subject no longer resolves: ctx is returned
//     unchanged (anonymous).
func (f *IdentityFilter) Apply(ctx context.Context, authorization string, now time.Time) (context.Context, error) {
	if _, ok := IdentityFromContext(ctx); ok {
		return ctx, nil
	}

	raw, ok := strings.CutPrefix(authorization, BearerPrefix)
	if !ok {
		return ctx, nil
	}

	claimed, err := f.codec.ParseAndValidate(raw, now)
	if err != nil {
		return ctx, err
	}

	account, err := f.accounts.GetByUsername(ctx, claimed.Username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			f.logger.Info("token subject has no account", "subject", claimed.Username)
		} else {
			f.logger.Error("resolving token subject", "subject", claimed.Username, "error", err)
		}
		return ctx, nil
	}

	return WithIdentity(ctx, Identity{AccountID: account.ID, Username: account.Username}), nil
}
