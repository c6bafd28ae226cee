package task

import (
	"strings"
	"time"
)

// Status represents the state of a task.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusBlocked    Status = "BLOCKED"
)

// Statuses lists every recognized status in declaration order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled, StatusBlocked}

// IsValid reports whether s is one of the recognized statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled, StatusBlocked:
		return true
	default:
		return false
	}
}

// rank orders statuses for listing: active work first, completed work last.
func (s Status) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusInProgress:
		return 1
	case StatusBlocked:
		return 2
	case StatusCancelled:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 5
	}
}

// ParseStatus converts raw input into a Status. Surrounding whitespace and
// letter case are ignored; anything else unrecognized is rejected.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", newValidationError("status", "unrecognized status %q", raw)
	}
	return s, nil
}

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// DefaultPriority is applied when a new task does not specify one.
const DefaultPriority = PriorityMedium

// IsValid reports whether p is one of the recognized priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// ParsePriority converts raw input into a Priority using the same rules as
// ParseStatus.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", newValidationError("priority", "unrecognized priority %q", raw)
	}
	return p, nil
}

// Task is the core domain entity representing a unit of trackable work.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      Priority   `json:"priority"`
	Status        Status     `json:"status"`
	AssociationID *string    `json:"association_id,omitempty"`
	AssignedToID  *string    `json:"assigned_to_id,omitempty"`
	CreatedByID   string     `json:"created_by_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// IsCompleted reports whether the task is in the COMPLETED state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Clone returns a deep copy of the task. Repositories hand out clones so
// callers can mutate a task without touching stored state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Description = clonePtr(t.Description)
	c.DueDate = clonePtr(t.DueDate)
	c.AssociationID = clonePtr(t.AssociationID)
	c.AssignedToID = clonePtr(t.AssignedToID)
	c.CompletedAt = clonePtr(t.CompletedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
