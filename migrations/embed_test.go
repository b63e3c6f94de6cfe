package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
)

func TestSchemaUpAndDown(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "schema.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"accounts", "projects", "tasks", "audit_logs"} {
		var n int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&n); err != nil || n != 1 {
			t.Errorf("table %s missing after Migrate (n=%d, err=%v)", table, n, err)
		}
	}

	// Task status is constrained to the known values.
	if _, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash) VALUES ('acc-1', 'alice', 'a@example.com', 'x');
		INSERT INTO projects (id, owner_id, name, start_date, end_date) VALUES ('prj-1', 'acc-1', 'Alpha', '2026-01-01', '2026-02-01');
	`); err != nil {
		t.Fatalf("seed error = %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO tasks (id, project_id, name, due_date, status) VALUES ('tsk-1', 'prj-1', 'Task', '2026-01-10', 'BLOCKED')",
	); err == nil {
		t.Error("status outside the allowed set should be rejected")
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('accounts','projects','tasks','audit_logs')",
	).Scan(&n); err != nil {
		t.Fatalf("sqlite_master query error = %v", err)
	}
	if n != 0 {
		t.Errorf("%d tables remain after MigrateDown, want 0", n)
	}
}
