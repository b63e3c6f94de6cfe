package auth

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/config"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 100
	maxEmailLength    = 254
)

// PasswordPolicy constrains passwords chosen at registration.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RejectVeryWeak bool
}

// DefaultPasswordPolicy matches the defaults in config.
var DefaultPasswordPolicy = PasswordPolicy{MinLength: 8, MaxLength: 128, RejectVeryWeak: true}

// PolicyFromConfig builds a PasswordPolicy from the security.password section.
func PolicyFromConfig(cfg config.PasswordConfig) PasswordPolicy {
	return PasswordPolicy{
		MinLength:      cfg.MinLength,
		MaxLength:      cfg.MaxLength,
		RejectVeryWeak: cfg.RejectVeryWeak,
	}
}

// Validate checks password against the policy. Lengths count runes, not bytes.
func (p PasswordPolicy) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if n < p.MinLength {
		return ErrPasswordTooShort
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return ErrPasswordTooLong
	}
	if p.RejectVeryWeak && looksVeryWeak(password) {
		return ErrPasswordWeak
	}
	return nil
}

// looksVeryWeak catches only the most trivial choices. It is not an
// entropy estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	onlyDigits := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) == -1
	if onlyDigits && utf8.RuneCountInString(s) < 12 {
		return true
	}

	switch strings.ToLower(s) {
	case "password", "password1", "password123", "qwerty", "qwerty123", "letmein", "iloveyou", "12345678", "123456789":
		return true
	}
	return false
}

// NormalizeUsername trims surrounding whitespace and checks the 3-100
// character rule.
func NormalizeUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	n := utf8.RuneCountInString(u)
	if n < minUsernameLength || n > maxUsernameLength {
		return "", ErrInvalidUsername
	}
	if strings.IndexFunc(u, unicode.IsControl) != -1 {
		return "", ErrInvalidUsername
	}
	return u, nil
}

// NormalizeEmail trims and lower-cases an address and checks it is a bare
// addr-spec (no display name).
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" || len(e) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return e, nil
}
