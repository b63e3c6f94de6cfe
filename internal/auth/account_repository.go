package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// AccountRepository persists accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteAccountRepository implements AccountRepository on the accounts table.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a SQLite-backed account repository.
func NewAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

const accountColumns = "id, username, email, password_hash, created_at, updated_at"

// Create inserts account, generating its ID and timestamps.
// A duplicate username or email yields ErrUsernameExists or ErrEmailExists.
func (r *SQLiteAccountRepository) Create(ctx context.Context, account *Account) error {
	if account.ID == "" {
		account.ID = "acc-" + uuid.NewString()
	}

	now := time.Now().UTC().Truncate(time.Second)
	account.CreatedAt = now
	account.UpdatedAt = now
	ts := now.Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		account.ID, account.Username, account.Email, account.PasswordHash, ts, ts,
	)
	if err != nil {
		if conflict := uniqueConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// GetByID returns the account with id, or ErrAccountNotFound.
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	return r.getOne(ctx, "id", id)
}

// GetByUsername returns the account with username, or ErrAccountNotFound.
func (r *SQLiteAccountRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getOne(ctx, "username", username)
}

// GetByEmail returns the account with email, or ErrAccountNotFound.
func (r *SQLiteAccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(ctx, "email", email)
}

// Count returns the number of registered accounts.
func (r *SQLiteAccountRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}

// getOne looks up a single account by a unique column. column is always a
// constant from this file.
func (r *SQLiteAccountRepository) getOne(ctx context.Context, column, value string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE "+column+" = ?", value) //nolint:gosec // column is not user input

	var (
		a                    Account
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &a, nil
}

// uniqueConflict maps a UNIQUE constraint failure on accounts to the
// matching sentinel. It returns nil for any other error.
func uniqueConflict(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}
	// Message form: "UNIQUE constraint failed: accounts.email"
	if strings.Contains(sqliteErr.Error(), "accounts.email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}
