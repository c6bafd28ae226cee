package task

import "time"

// TaskCreate is the caller-supplied payload for a new task. Status, id and
// timestamps are assigned by the service and cannot be supplied here.
type TaskCreate struct {
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      Priority   `json:"priority,omitempty"`
	AssociationID *string    `json:"association_id,omitempty"`
	AssignedToID  *string    `json:"assigned_to_id,omitempty"`
	CreatedByID   string     `json:"created_by_id"`
}

// TaskUpdate is a partial update. Only fields that are set are applied.
type TaskUpdate struct {
	Title         Optional[string]    `json:"title,omitzero"`
	Description   Optional[string]    `json:"description,omitzero"`
	DueDate       Optional[time.Time] `json:"due_date,omitzero"`
	Priority      Optional[Priority]  `json:"priority,omitzero"`
	AssociationID Optional[string]    `json:"association_id,omitzero"`
	AssignedToID  Optional[string]    `json:"assigned_to_id,omitzero"`
	Status        Optional[Status]    `json:"status,omitzero"`
}

// IsEmpty reports whether no field of the update is set.
func (u TaskUpdate) IsEmpty() bool {
	return !u.Title.IsSet() &&
		!u.Description.IsSet() &&
		!u.DueDate.IsSet() &&
		!u.Priority.IsSet() &&
		!u.AssociationID.IsSet() &&
		!u.AssignedToID.IsSet() &&
		!u.Status.IsSet()
}

// TaskStatusUpdate moves a task to a new status. CompletedAt may only be
// supplied together with StatusCompleted.
type TaskStatusUpdate struct {
	Status      Status     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskFilter selects and bounds a task listing. Every set criterion must
// hold for a task to be included.
type TaskFilter struct {
	Statuses      []Status   `json:"status,omitempty"`
	AssignedToID  *string    `json:"assigned_to_id,omitempty"`
	AssociationID *string    `json:"association_id,omitempty"`
	DueBefore     *time.Time `json:"due_before,omitempty"`
	DueAfter      *time.Time `json:"due_after,omitempty"`
	Search        *string    `json:"search,omitempty"`
	Limit         *int       `json:"limit,omitempty"`
}

const (
	// DefaultLimit is the listing size when a filter sets no limit.
	DefaultLimit = 20
	// MaxLimit is the largest accepted listing size.
	MaxLimit = 100
)

// EffectiveLimit returns the limit to apply for this filter.
func (f TaskFilter) EffectiveLimit() int {
	if f.Limit == nil {
		return DefaultLimit
	}
	return *f.Limit
}
