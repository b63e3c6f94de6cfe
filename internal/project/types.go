package project

import "time"

// TaskStatus is the progress state of a task.
type TaskStatus string

// Task states. New tasks start PENDING.
const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Project is a unit of work owned by one account. OwnerID is set at
// creation and never changes.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task belongs to a project and is owned by that project's owner.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueDate     Date       `json:"due_date"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProjectInput carries the client-settable project fields for create and
// update. Ownership is never taken from input.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   *Date  `json:"start_date"`
	EndDate     *Date  `json:"end_date"`
}

// TaskInput carries the client-settable task fields. A nil Status means
// PENDING on create and "leave unchanged" on update.
type TaskInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DueDate     *Date       `json:"due_date"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// Change describes a committed mutation, for event subscribers.
type Change struct {
	Entity    string    `json:"entity"` // "project" or "task"
	Action    string    `json:"action"` // "created", "updated" or "deleted"
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	OwnerID   string    `json:"owner_id"`
	At        time.Time `json:"at"`
}

// Change entities and actions.
const (
	EntityProject = "project"
	EntityTask    = "task"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
