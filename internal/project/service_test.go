package project

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/auth"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
	_ "github.com/cenitiumdev/project-tracker/migrations" // registers the schema
)

type fixture struct {
	db    *database.DB
	svc   *Service
	notes *recordingNotifier
	alice auth.Identity
	bob   auth.Identity
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (n *recordingNotifier) NotifyChange(_ context.Context, c Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
	return n.err
}

func (n *recordingNotifier) last() Change {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.changes) == 0 {
		return Change{}
	}
	return n.changes[len(n.changes)-1]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "project-test.db"),
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

	accounts := auth.NewAccountRepository(db.DB)
	identity := func(username string) auth.Identity {
		a := &auth.Account{Username: username, Email: username + "@example.com", PasswordHash: "x"}
		if err := accounts.Create(ctx, a); err != nil {
			t.Fatalf("creating account %s: %v", username, err)
		}
		return auth.Identity{AccountID: a.ID, Username: a.Username}
	}

	notes := &recordingNotifier{}
	return &fixture{
		db:    db,
		svc:   NewService(NewSQLiteRepository(db), notes, nil),
		notes: notes,
		alice: identity("alice"),
		bob:   identity("bob"),
	}
}

func datePtr(y int, m time.Month, d int) *Date {
	v := NewDate(y, m, d)
	return &v
}

func statusPtr(s TaskStatus) *TaskStatus { return &s }

func projectInput(name string) ProjectInput {
	return ProjectInput{
		Name:        name,
		Description: "a project",
		StartDate:   datePtr(2026, 1, 1),
		EndDate:     datePtr(2026, 6, 30),
	}
}

func taskInput(name string) TaskInput {
	return TaskInput{Name: name, Description: "a task", DueDate: datePtr(2026, 2, 1)}
}

func (f *fixture) mustProject(t *testing.T, id auth.Identity, name string) *Project {
	t.Helper()
	p, err := f.svc.CreateProject(context.Background(), id, projectInput(name))
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return p
}

func (f *fixture) mustTask(t *testing.T, id auth.Identity, projectID, name string) *Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), id, projectID, taskInput(name))
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

func (f *fixture) countTasks(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		t.Fatalf("counting tasks: %v", err)
	}
	return n
}

func TestService_ProjectsAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.ListProjects(ctx, f.alice)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListProjects() = %v, want empty non-nil slice", empty)
	}

	a1 := f.mustProject(t, f.alice, "Alpha")
	a2 := f.mustProject(t, f.alice, "Beta")
	f.mustProject(t, f.bob, "Bobs")

	if !strings.HasPrefix(a1.ID, "prj-") || a1.OwnerID != f.alice.AccountID {
		t.Errorf("created project = %+v", a1)
	}

	got, err := f.svc.ListProjects(ctx, f.alice)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != a1.ID || got[1].ID != a2.ID {
		t.Errorf("ListProjects(alice) = %+v, want [Alpha Beta]", got)
	}

	p, err := f.svc.AuthorizeProject(ctx, f.alice, a1.ID)
	if err != nil {
		t.Fatalf("AuthorizeProject() error = %v", err)
	}
	if p.Name != "Alpha" || p.StartDate.String() != "2026-01-01" || p.EndDate.String() != "2026-06-30" {
		t.Errorf("AuthorizeProject() = %+v", p)
	}
}

func TestService_ForeignAccessIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.mustProject(t, f.alice, "Alpha")
	task := f.mustTask(t, f.alice, p.ID, "Write docs")
	before := f.countTasks(t)

	checks := map[string]func() error{
		"authorize project": func() error { _, err := f.svc.AuthorizeProject(ctx, f.bob, p.ID); return err },
		"missing project":   func() error { _, err := f.svc.AuthorizeProject(ctx, f.alice, "prj-missing"); return err },
		"update project":    func() error { _, err := f.svc.UpdateProject(ctx, f.bob, p.ID, projectInput("Hijacked")); return err },
		"delete project":    func() error { return f.svc.DeleteProject(ctx, f.bob, p.ID) },
		"list tasks":        func() error { _, err := f.svc.ListTasks(ctx, f.bob, p.ID); return err },
		"create task":       func() error { _, err := f.svc.CreateTask(ctx, f.bob, p.ID, taskInput("Sneaky")); return err },
		"authorize task":    func() error { _, err := f.svc.AuthorizeTask(ctx, f.bob, p.ID, task.ID); return err },
		"update task":       func() error { _, err := f.svc.UpdateTask(ctx, f.bob, p.ID, task.ID, taskInput("Sneaky")); return err },
		"delete task":       func() error { return f.svc.DeleteTask(ctx, f.bob, p.ID, task.ID) },
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			if err := check(); !errors.Is(err, ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}

	if after := f.countTasks(t); after != before {
		t.Errorf("task rows = %d, want %d (foreign create must not write)", after, before)
	}
	still, err := f.svc.AuthorizeProject(ctx, f.alice, p.ID)
	if err != nil || still.Name != "Alpha" {
		t.Errorf("alice's project changed by bob: %+v, %v", still, err)
	}
}

func TestService_TaskMustBelongToProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.mustProject(t, f.alice, "Alpha")
	p2 := f.mustProject(t, f.alice, "Beta")
	task := f.mustTask(t, f.alice, p1.ID, "Only in alpha")

	if _, err := f.svc.AuthorizeTask(ctx, f.alice, p2.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("AuthorizeTask() via wrong project error = %v, want ErrNotFound", err)
	}
	if err := f.svc.DeleteTask(ctx, f.alice, p2.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteTask() via wrong project error = %v, want ErrNotFound", err)
	}

	got, err := f.svc.AuthorizeTask(ctx, f.alice, p1.ID, task.ID)
	if err != nil {
		t.Fatalf("AuthorizeTask() error = %v", err)
	}
	if got.Status != StatusPending || got.ProjectID != p1.ID || !strings.HasPrefix(got.ID, "tsk-") {
		t.Errorf("AuthorizeTask() = %+v", got)
	}
}

func TestService_UpdateTaskPartialStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.mustProject(t, f.alice, "Alpha")
	task := f.mustTask(t, f.alice, p.ID, "Original")

	in := taskInput("Renamed")
	in.Status = statusPtr(StatusInProgress)
	if _, err := f.svc.UpdateTask(ctx, f.alice, p.ID, task.ID, in); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	// No status in the payload: other fields change, status stays.
	in = TaskInput{Name: "Renamed again", Description: "new description", DueDate: datePtr(2026, 3, 15)}
	updated, err := f.svc.UpdateTask(ctx, f.alice, p.ID, task.ID, in)
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	stored, err := f.svc.AuthorizeTask(ctx, f.alice, p.ID, task.ID)
	if err != nil {
		t.Fatalf("AuthorizeTask() error = %v", err)
	}
	for _, got := range []*Task{updated, stored} {
		if got.Status != StatusInProgress {
			t.Errorf("Status = %s, want IN_PROGRESS", got.Status)
		}
		if got.Name != "Renamed again" || got.Description != "new description" || got.DueDate.String() != "2026-03-15" {
			t.Errorf("fields not overwritten: %+v", got)
		}
		if got.ProjectID != p.ID {
			t.Errorf("ProjectID = %s, want %s", got.ProjectID, p.ID)
		}
	}
}

func TestService_UpdateProjectKeepsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, f.alice, "Alpha")

	in := projectInput("  Alpha v2  ")
	in.EndDate = datePtr(2026, 12, 31)
	updated, err := f.svc.UpdateProject(ctx, f.alice, p.ID, in)
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if updated.Name != "Alpha v2" || updated.EndDate.String() != "2026-12-31" {
		t.Errorf("UpdateProject() = %+v", updated)
	}
	if updated.OwnerID != f.alice.AccountID || updated.ID != p.ID {
		t.Errorf("identity fields changed: %+v", updated)
	}
	if got := f.notes.last(); got.Action != ActionUpdated || got.Entity != EntityProject || got.ID != p.ID {
		t.Errorf("last change = %+v, want project updated", got)
	}
}

func TestService_DeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.mustProject(t, f.alice, "Alpha")
	f.mustTask(t, f.alice, p.ID, "One")
	f.mustTask(t, f.alice, p.ID, "Two")
	other := f.mustProject(t, f.alice, "Beta")
	f.mustTask(t, f.alice, other.ID, "Three")

	if err := f.svc.DeleteProject(ctx, f.alice, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := f.svc.AuthorizeProject(ctx, f.alice, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted project lookup error = %v, want ErrNotFound", err)
	}
	if n := f.countTasks(t); n != 1 {
		t.Errorf("task rows = %d, want 1 after cascade", n)
	}
	if err := f.svc.DeleteProject(ctx, f.alice, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteProject() error = %v, want ErrNotFound", err)
	}
}

func TestService_ListAndDeleteTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.mustProject(t, f.alice, "Alpha")
	t1 := f.mustTask(t, f.alice, p.ID, "One")
	t2 := f.mustTask(t, f.alice, p.ID, "Two")

	tasks, err := f.svc.ListTasks(ctx, f.alice, p.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != t1.ID || tasks[1].ID != t2.ID {
		t.Errorf("ListTasks() = %+v", tasks)
	}

	if err := f.svc.DeleteTask(ctx, f.alice, p.ID, t1.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	tasks, err = f.svc.ListTasks(ctx, f.alice, p.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != t2.ID {
		t.Errorf("ListTasks() after delete = %+v", tasks)
	}
	if got := f.notes.last(); got.Entity != EntityTask || got.Action != ActionDeleted || got.OwnerID != f.alice.AccountID {
		t.Errorf("last change = %+v, want task deleted", got)
	}
}

func TestService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.mustProject(t, f.alice, "Alpha")

	badProjects := map[string]struct {
		in   ProjectInput
		want error
	}{
		"short name":       {ProjectInput{Name: "ab", StartDate: datePtr(2026, 1, 1), EndDate: datePtr(2026, 1, 2)}, ErrInvalidName},
		"long name":        {ProjectInput{Name: strings.Repeat("n", 101), StartDate: datePtr(2026, 1, 1), EndDate: datePtr(2026, 1, 2)}, ErrInvalidName},
		"long desc":        {ProjectInput{Name: "Alpha", Description: strings.Repeat("d", 501), StartDate: datePtr(2026, 1, 1), EndDate: datePtr(2026, 1, 2)}, ErrInvalidDescription},
		"missing start":    {ProjectInput{Name: "Alpha", EndDate: datePtr(2026, 1, 2)}, ErrInvalidDates},
		"end before start": {ProjectInput{Name: "Alpha", StartDate: datePtr(2026, 2, 1), EndDate: datePtr(2026, 1, 1)}, ErrInvalidDates},
	}
	for name, tt := range badProjects {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.CreateProject(ctx, f.alice, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("CreateProject() error = %v, want %v", err, tt.want)
			}
		})
	}

	badTasks := map[string]struct {
		in   TaskInput
		want error
	}{
		"short name":  {TaskInput{Name: "x", DueDate: datePtr(2026, 1, 1)}, ErrInvalidName},
		"missing due": {TaskInput{Name: "Task"}, ErrInvalidDates},
		"bad status":  {TaskInput{Name: "Task", DueDate: datePtr(2026, 1, 1), Status: statusPtr("BLOCKED")}, ErrInvalidStatus},
	}
	for name, tt := range badTasks {
		t.Run("task "+name, func(t *testing.T) {
			if _, err := f.svc.CreateTask(ctx, f.alice, p.ID, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("CreateTask() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.svc.ListProjects(ctx, auth.Identity{}); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("ListProjects() without identity error = %v, want ErrNoIdentity", err)
	}
}

func TestService_NotifierFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.notes.err = errors.New("broker down")

	p := f.mustProject(t, f.alice, "Alpha")
	if got := f.notes.last(); got.Entity != EntityProject || got.Action != ActionCreated || got.ID != p.ID || got.At.IsZero() {
		t.Errorf("last change = %+v, want project created", got)
	}
}

func TestService_ConcurrentDeleteAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		p := f.mustProject(t, f.alice, "Racy project")

		var wg sync.WaitGroup
		var updateErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, updateErr = f.svc.UpdateProject(ctx, f.alice, p.ID, projectInput("Racy update"))
		}()
		go func() {
			defer wg.Done()
			deleteErr = f.svc.DeleteProject(ctx, f.alice, p.ID)
		}()
		wg.Wait()

		if deleteErr != nil {
			t.Fatalf("DeleteProject() error = %v", deleteErr)
		}
		if updateErr != nil && !errors.Is(updateErr, ErrNotFound) {
			t.Fatalf("UpdateProject() error = %v, want nil or ErrNotFound", updateErr)
		}
		if _, err := f.svc.AuthorizeProject(ctx, f.alice, p.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("project survived delete: %v", err)
		}
	}
}
