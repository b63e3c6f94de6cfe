package project

import (
	"context"
	"strings"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/auth"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/logging"
)

// ChangeNotifier receives committed mutations. Delivery is best effort.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, change Change) error
}

// Service is the ownership authorization guard over projects and tasks.
// Every operation takes the caller's Resolved Identity; nothing is reachable
// without one.
type Service struct {
	repo     Repository
	notifier ChangeNotifier
	logger   *logging.Logger
}

// NewService creates a Service. notifier may be nil.
func NewService(repo Repository, notifier ChangeNotifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// ListProjects returns the caller's projects, possibly none.
func (s *Service) ListProjects(ctx context.Context, id auth.Identity) ([]Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	return s.repo.ListProjectsByOwner(ctx, id.Username)
}

// CreateProject creates a project owned by the caller.
func (s *Service) CreateProject(ctx context.Context, id auth.Identity, in ProjectInput) (*Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := &Project{OwnerID: id.AccountID}
	applyProjectInput(p, in)
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.notify(ctx, Change{Entity: EntityProject, Action: ActionCreated, ID: p.ID, ProjectID: p.ID, OwnerID: p.OwnerID})
	return p, nil
}

// AuthorizeProject returns projectID if the caller owns it. A missing
// project and someone else's project both yield ErrNotFound.
func (s *Service) AuthorizeProject(ctx context.Context, id auth.Identity, projectID string) (*Project, error) {
	return authorizeProject(ctx, s.repo, id, projectID)
}

// UpdateProject overwrites the project's name, description and dates.
func (s *Service) UpdateProject(ctx context.Context, id auth.Identity, projectID string, in ProjectInput) (*Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *Project
	err := s.repo.InTx(ctx, func(tx Repository) error {
		p, err := authorizeProject(ctx, tx, id, projectID)
		if err != nil {
			return err
		}
		applyProjectInput(p, in)
		if err := tx.UpdateProject(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Change{Entity: EntityProject, Action: ActionUpdated, ID: updated.ID, ProjectID: updated.ID, OwnerID: updated.OwnerID})
	return updated, nil
}

// DeleteProject deletes the project and all of its tasks.
func (s *Service) DeleteProject(ctx context.Context, id auth.Identity, projectID string) error {
	var deleted *Project
	err := s.repo.InTx(ctx, func(tx Repository) error {
		p, err := authorizeProject(ctx, tx, id, projectID)
		if err != nil {
			return err
		}
		deleted = p
		return tx.DeleteProject(ctx, p.ID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, Change{Entity: EntityProject, Action: ActionDeleted, ID: deleted.ID, ProjectID: deleted.ID, OwnerID: deleted.OwnerID})
	return nil
}

// ListTasks returns the tasks of a project the caller owns.
func (s *Service) ListTasks(ctx context.Context, id auth.Identity, projectID string) ([]Task, error) {
	var tasks []Task
	err := s.repo.InTx(ctx, func(tx Repository) error {
		p, err := authorizeProject(ctx, tx, id, projectID)
		if err != nil {
			return err
		}
		tasks, err = tx.ListTasksByProject(ctx, p.ID)
		return err
	})
	return tasks, err
}

// CreateTask adds a task to a project the caller owns. Status defaults to
// PENDING. Nothing is written when the project is not the caller's.
func (s *Service) CreateTask(ctx context.Context, id auth.Identity, projectID string, in TaskInput) (*Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		created *Task
		owner   string
	)
	err := s.repo.InTx(ctx, func(tx Repository) error {
		p, err := authorizeProject(ctx, tx, id, projectID)
		if err != nil {
			return err
		}
		t := &Task{ProjectID: p.ID, Status: StatusPending}
		applyTaskInput(t, in)
		if err := tx.CreateTask(ctx, t); err != nil {
			return err
		}
		created, owner = t, p.OwnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Change{Entity: EntityTask, Action: ActionCreated, ID: created.ID, ProjectID: created.ProjectID, OwnerID: owner})
	return created, nil
}

// AuthorizeTask returns taskID if it belongs to projectID and the caller
// owns projectID, and ErrNotFound otherwise.
func (s *Service) AuthorizeTask(ctx context.Context, id auth.Identity, projectID, taskID string) (*Task, error) {
	t, _, err := authorizeTask(ctx, s.repo, id, projectID, taskID)
	return t, err
}

// UpdateTask overwrites the task's name, description and due date. Status
// changes only when in.Status is set.
func (s *Service) UpdateTask(ctx context.Context, id auth.Identity, projectID, taskID string, in TaskInput) (*Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		updated *Task
		owner   string
	)
	err := s.repo.InTx(ctx, func(tx Repository) error {
		t, p, err := authorizeTask(ctx, tx, id, projectID, taskID)
		if err != nil {
			return err
		}
		applyTaskInput(t, in)
		if err := tx.UpdateTask(ctx, t); err != nil {
			return err
		}
		updated, owner = t, p.OwnerID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Change{Entity: EntityTask, Action: ActionUpdated, ID: updated.ID, ProjectID: updated.ProjectID, OwnerID: owner})
	return updated, nil
}

// DeleteTask removes a task from a project the caller owns.
func (s *Service) DeleteTask(ctx context.Context, id auth.Identity, projectID, taskID string) error {
	var owner string
	err := s.repo.InTx(ctx, func(tx Repository) error {
		t, p, err := authorizeTask(ctx, tx, id, projectID, taskID)
		if err != nil {
			return err
		}
		owner = p.OwnerID
		return tx.DeleteTask(ctx, t.ID, t.ProjectID)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, Change{Entity: EntityTask, Action: ActionDeleted, ID: taskID, ProjectID: projectID, OwnerID: owner})
	return nil
}

func authorizeProject(ctx context.Context, repo Repository, id auth.Identity, projectID string) (*Project, error) {
	if err := requireIdentity(id); err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, ErrNotFound
	}
	return repo.FindProjectByIDAndOwner(ctx, projectID, id.Username)
}

func authorizeTask(ctx context.Context, repo Repository, id auth.Identity, projectID, taskID string) (*Task, *Project, error) {
	p, err := authorizeProject(ctx, repo, id, projectID)
	if err != nil {
		return nil, nil, err
	}
	if taskID == "" {
		return nil, nil, ErrNotFound
	}
	t, err := repo.FindTaskByIDAndProject(ctx, taskID, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

func requireIdentity(id auth.Identity) error {
	if id.Username == "" || id.AccountID == "" {
		return ErrNoIdentity
	}
	return nil
}

// applyProjectInput copies the whitelisted mutable fields. Validate has
// already checked the dates are present.
func applyProjectInput(p *Project, in ProjectInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.StartDate = *in.StartDate
	p.EndDate = *in.EndDate
}

func applyTaskInput(t *Task, in TaskInput) {
	t.Name = strings.TrimSpace(in.Name)
	t.Description = in.Description
	t.DueDate = *in.DueDate
	if in.Status != nil {
		t.Status = *in.Status
	}
}

func (s *Service) notify(ctx context.Context, c Change) {
	if s.notifier == nil {
		return
	}
	c.At = time.Now().UTC()
	if err := s.notifier.NotifyChange(ctx, c); err != nil {
		s.logger.Warn("change notification failed",
			"entity", c.Entity, "action", c.Action, "id", c.ID, "error", err)
	}
}
