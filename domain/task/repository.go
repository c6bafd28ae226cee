package task

import (
	"context"
	"time"
)

// Repository persists tasks. Implementations return copies, so a task
// obtained from the repository can be modified freely until it is passed
// back to Save.
type Repository interface {
	// List returns the tasks matching filter, sorted and limited as Apply does.
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)
	// Get returns the task with id or an error matching ErrNotFound.
	Get(ctx context.Context, id string) (*Task, error)
	// Create stores a new task. A duplicate id yields ErrConflict.
	Create(ctx context.Context, task *Task) (*Task, error)
	// Save replaces a stored task. An unknown id yields ErrNotFound.
	Save(ctx context.Context, task *Task) (*Task, error)
	// Delete removes the task with id or returns an error matching ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Clock supplies the current time.
type Clock func() time.Time

// IDGenerator supplies new task identifiers.
type IDGenerator func() string

// SystemClock returns the wall clock time normalized for storage.
func SystemClock() time.Time {
	return NormalizeTime(time.Now())
}
