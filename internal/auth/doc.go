// Package auth implements account authentication and per-request identity
// for the tracker.
//
// It provides:
//   - Argon2id password hashing with constant-time verification
//   - A registration password policy
//   - HS256 identity tokens with a fixed lifetime (no refresh, no revocation)
//   - The Authenticator, which checks a username/password pair
//   - The IdentityFilter, which turns an Authorization header into a
//     Resolved Identity carried on the request context
//
// Tokens are stateless: the signing secret is the only server-side state and
// is read-only after startup. A token's subject is re-resolved against the
// account store on every request so a deleted account cannot keep acting.
package auth
