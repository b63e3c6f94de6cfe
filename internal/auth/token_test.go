package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var issueTime = time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC)

func TestNewTokenCodec_Validation(t *testing.T) {
	if _, err := NewTokenCodec("short", time.Hour); err == nil {
		t.Error("NewTokenCodec() should reject a short secret")
	}
	if _, err := NewTokenCodec(testSecret, 0); err == nil {
		t.Error("NewTokenCodec() should reject a zero TTL")
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := testCodec(t)

	tok, err := codec.Issue(Identity{AccountID: "acc-1", Username: "alice"}, issueTime)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if tok.Value == "" || strings.Count(tok.Value, ".") != 2 {
		t.Fatalf("Issue() value %q is not a compact JWS", tok.Value)
	}
	if want := issueTime.Truncate(time.Second); !tok.IssuedAt.Equal(want) {
		t.Errorf("IssuedAt = %v, want %v", tok.IssuedAt, want)
	}
	if got := tok.ExpiresAt.Sub(tok.IssuedAt); got != 24*time.Hour {
		t.Errorf("ExpiresAt - IssuedAt = %v, want 24h", got)
	}

	id, err := codec.ParseAndValidate(tok.Value, issueTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("ParseAndValidate() error = %v", err)
	}
	if id.Username != "alice" {
		t.Errorf("Username = %q, want alice", id.Username)
	}
	if id.AccountID != "" {
		t.Errorf("AccountID = %q, want empty for an unresolved claim", id.AccountID)
	}
}

func TestTokenCodec_IssueRequiresUsername(t *testing.T) {
	if _, err := testCodec(t).Issue(Identity{}, issueTime); err == nil {
		t.Error("Issue() should fail without a username")
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	codec := testCodec(t)
	tok, err := codec.Issue(Identity{Username: "alice"}, issueTime)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"just before expiry", tok.ExpiresAt.Add(-time.Second), nil},
		{"exactly at expiry", tok.ExpiresAt, ErrTokenExpired},
		{"after expiry", tok.ExpiresAt.Add(time.Minute), ErrTokenExpired},
		{"long after expiry", tok.ExpiresAt.Add(365 * 24 * time.Hour), ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ParseAndValidate(tok.Value, tt.now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseAndValidate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenCodec_BadSignature(t *testing.T) {
	s1 := testCodec(t)
	s2, err := NewTokenCodec("another-secret-key-at-least-32-chars", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}

	tok, err := s1.Issue(Identity{Username: "alice"}, issueTime)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = s2.ParseAndValidate(tok.Value, issueTime)
	if !errors.Is(err, ErrTokenBadSignature) {
		t.Errorf("ParseAndValidate() under another secret = %v, want ErrTokenBadSignature", err)
	}

	// Signature is checked before expiry.
	_, err = s2.ParseAndValidate(tok.Value, tok.ExpiresAt.Add(time.Hour))
	if !errors.Is(err, ErrTokenBadSignature) {
		t.Errorf("expired token under another secret = %v, want ErrTokenBadSignature", err)
	}

	// Tampered payload.
	parts := strings.Split(tok.Value, ".")
	forged := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := s1.ParseAndValidate(forged, issueTime); err == nil {
		t.Error("ParseAndValidate() accepted a tampered token")
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(issueTime.Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing HS512 token: %v", err)
	}

	codec := testCodec(t)
	for name, tok := range map[string]string{"none": unsigned, "HS512": hs512} {
		if _, err := codec.ParseAndValidate(tok, issueTime); !errors.Is(err, ErrTokenBadSignature) {
			t.Errorf("%s token: error = %v, want ErrTokenBadSignature", name, err)
		}
	}
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := testCodec(t)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(issueTime.Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
		{"bad base64", "!!!.@@@.###"},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ParseAndValidate(tt.token, issueTime)
			if !errors.Is(err, ErrTokenMalformed) {
				t.Errorf("ParseAndValidate(%q) error = %v, want ErrTokenMalformed", tt.token, err)
			}
		})
	}
}

func TestTokenErrorReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrTokenExpired, "expired"},
		{ErrTokenBadSignature, "bad_signature"},
		{ErrTokenMalformed, "malformed"},
		{errors.New("other"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := TokenErrorReason(tt.err); got != tt.want {
			t.Errorf("TokenErrorReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
