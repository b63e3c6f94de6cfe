package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
	_ "github.com/cenitiumdev/project-tracker/migrations" // registers the schema
)

const testSecret = "test-secret-key-at-least-32-chars!"

// testDB opens a temporary SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db.DB
}

// seedAccount registers an account directly through the repository.
func seedAccount(t *testing.T, repo AccountRepository, username, password string) *Account {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	a := &Account{Username: username, Email: username + "@example.com", PasswordHash: hash}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("seeding account %q: %v", username, err)
	}
	return a
}

func testCodec(t *testing.T) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(testSecret, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}
	return c
}

// countingLookup is an in-memory AccountLookup that records calls.
type countingLookup struct {
	accounts map[string]*Account
	err      error
	calls    int
}

func (l *countingLookup) GetByUsername(_ context.Context, username string) (*Account, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	a, ok := l.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}
