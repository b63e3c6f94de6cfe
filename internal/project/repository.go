package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
)

// Repository is the owner- and parent-scoped store the service depends on.
// Every lookup is a single query; there is no unscoped "get by id".
type Repository interface {
	ListProjectsByOwner(ctx context.Context, owner string) ([]Project, error)
	FindProjectByIDAndOwner(ctx context.Context, id, owner string) (*Project, error)
	CreateProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	ListTasksByProject(ctx context.Context, projectID string) ([]Task, error)
	FindTaskByIDAndProject(ctx context.Context, id, projectID string) (*Task, error)
	CreateTask(ctx context.Context, t *Task) error
	UpdateTask(ctx context.Context, t *Task) error
	DeleteTask(ctx context.Context, id, projectID string) error

	// InTx runs fn with a Repository bound to one transaction.
	InTx(ctx context.Context, fn func(tx Repository) error) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements Repository on the projects and tasks tables.
type SQLiteRepository struct {
	db *database.DB
	q  queryer
}

// NewSQLiteRepository creates a SQLite-backed project repository.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, q: db.DB}
}

// InTx implements Repository.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(tx Repository) error) error {
	if _, nested := r.q.(*sql.Tx); nested {
		return fn(r)
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(&SQLiteRepository{db: r.db, q: tx})
	})
}

const projectColumns = "p.id, p.owner_id, p.name, p.description, p.start_date, p.end_date, p.created_at, p.updated_at"

// ListProjectsByOwner returns the projects of the account named owner,
// oldest first.
func (r *SQLiteRepository) ListProjectsByOwner(ctx context.Context, owner string) ([]Project, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p JOIN accounts a ON a.id = p.owner_id
		 WHERE a.username = ?
		 ORDER BY p.created_at, p.rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// FindProjectByIDAndOwner returns project id if the account named owner
// owns it, and ErrNotFound otherwise.
func (r *SQLiteRepository) FindProjectByIDAndOwner(ctx context.Context, id, owner string) (*Project, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p JOIN accounts a ON a.id = p.owner_id
		 WHERE p.id = ? AND a.username = ?`, id, owner)
	return scanProject(row)
}

// CreateProject inserts p, generating its ID and timestamps.
func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = newID("prj")
	}
	stamp := now()
	p.CreatedAt, p.UpdatedAt = stamp, stamp

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO projects (id, owner_id, name, description, start_date, end_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Description, p.StartDate.String(), p.EndDate.String(),
		formatTime(stamp), formatTime(stamp),
	)
	if err != nil {
		return fmt.Errorf("inserting project %s: %w", p.ID, err)
	}
	return nil
}

// UpdateProject writes p's mutable fields. owner_id is never written.
func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Project) error {
	p.UpdatedAt = now()
	res, err := r.q.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, start_date = ?, end_date = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.StartDate.String(), p.EndDate.String(), formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	return expectOneRow(res)
}

// DeleteProject removes project id; its tasks go with it (ON DELETE CASCADE).
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return expectOneRow(res)
}

const taskColumns = "id, project_id, name, description, due_date, status, created_at, updated_at"

// ListTasksByProject returns the tasks of projectID, oldest first.
func (r *SQLiteRepository) ListTasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY created_at, rowid", projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// FindTaskByIDAndProject returns task id if it belongs to projectID, and
// ErrNotFound otherwise.
func (r *SQLiteRepository) FindTaskByIDAndProject(ctx context.Context, id, projectID string) (*Task, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND project_id = ?", id, projectID)
	return scanTask(row)
}

// CreateTask inserts t, generating its ID and timestamps.
func (r *SQLiteRepository) CreateTask(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = newID("tsk")
	}
	stamp := now()
	t.CreatedAt, t.UpdatedAt = stamp, stamp

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, name, description, due_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Name, t.Description, t.DueDate.String(), string(t.Status),
		formatTime(stamp), formatTime(stamp),
	)
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTask writes t's mutable fields. project_id is never written.
func (r *SQLiteRepository) UpdateTask(ctx context.Context, t *Task) error {
	t.UpdatedAt = now()
	res, err := r.q.ExecContext(ctx,
		`UPDATE tasks SET name = ?, description = ?, due_date = ?, status = ?, updated_at = ?
		 WHERE id = ? AND project_id = ?`,
		t.Name, t.Description, t.DueDate.String(), string(t.Status), formatTime(t.UpdatedAt),
		t.ID, t.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	return expectOneRow(res)
}

// DeleteTask removes task id from projectID.
func (r *SQLiteRepository) DeleteTask(ctx context.Context, id, projectID string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND project_id = ?", id, projectID)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return expectOneRow(res)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*Project, error) {
	var (
		p                    Project
		start, end           string
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &start, &end, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	var err error
	if p.StartDate, err = ParseDate(start); err != nil {
		return nil, fmt.Errorf("project %s start_date: %w", p.ID, err)
	}
	if p.EndDate, err = ParseDate(end); err != nil {
		return nil, fmt.Errorf("project %s end_date: %w", p.ID, err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanTask(s scanner) (*Task, error) {
	var (
		t                    Task
		due, status          string
		createdAt, updatedAt string
	)
	if err := s.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &due, &status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	var err error
	if t.DueDate, err = ParseDate(due); err != nil {
		return nil, fmt.Errorf("task %s due_date: %w", t.ID, err)
	}
	t.Status = TaskStatus(status)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func expectOneRow(res sql.Result) error {
	n, _ := res.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s) //nolint:errcheck // written by formatTime or the column default
	return t
}
