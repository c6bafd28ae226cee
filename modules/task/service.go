package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// ChangeOp identifies the kind of write a Change describes.
type ChangeOp string

const (
	OpCreated       ChangeOp = "created"
	OpUpdated       ChangeOp = "updated"
	OpStatusUpdated ChangeOp = "status_updated"
	OpDeleted       ChangeOp = "deleted"
)

// Change describes a committed write. Before is nil for creates; After is nil
// for deletes.
type Change struct {
	Op     ChangeOp
	TaskID string
	Before *domain.Task
	After  *domain.Task
	Fields []string
	At     time.Time
}

// ChangeListener is notified after every successful write.
type ChangeListener func(ctx context.Context, change Change)

// Service orchestrates validation, persistence and the derived timestamp
// fields of tasks.
type Service struct {
	repo      domain.Repository
	clock     domain.Clock
	newID     domain.IDGenerator
	logger    types.Logger
	listeners []ChangeListener
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for created_at, updated_at and
// completed_at.
func WithClock(clock domain.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator sets the generator for new task ids.
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(s *Service) { s.newID = gen }
}

// WithLogger sets the structured logger.
func WithLogger(logger types.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithChangeListener registers a listener for committed writes.
func WithChangeListener(l ChangeListener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, l) }
}

// NewService creates a Service backed by repo.
func NewService(repo domain.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		clock:  domain.SystemClock,
		newID:  func() string { return uuid.New().String() },
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates payload and stores a new OPEN task.
func (s *Service) Create(ctx context.Context, payload domain.TaskCreate) (*domain.Task, error) {
	in, err := domain.ValidateCreate(payload)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	t := &domain.Task{
		ID:            s.newID(),
		Title:         in.Title,
		Description:   in.Description,
		DueDate:       in.DueDate,
		Priority:      in.Priority,
		Status:        domain.StatusOpen,
		AssociationID: in.AssociationID,
		AssignedToID:  in.AssignedToID,
		CreatedByID:   in.CreatedByID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created", "task_id", created.ID, "created_by_id", created.CreatedByID)
	s.notify(ctx, Change{Op: OpCreated, TaskID: created.ID, After: created.Clone(), At: now})
	return created, nil
}

// List returns the tasks matching filter. A nil filter lists the first
// DefaultLimit tasks.
func (s *Service) List(ctx context.Context, filter *domain.TaskFilter) ([]*domain.Task, error) {
	f, err := domain.ValidateFilters(filter)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	s.logger.Debug("tasks listed", "count", len(tasks))
	return tasks, nil
}

// Get returns the task with id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ConflictError("task id is required")
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	s.logger.Debug("task fetched", "task_id", id)
	return t, nil
}

// Update applies the fields set in patch. A status change derives
// completed_at: COMPLETED keeps an existing value or stamps now, anything
// else clears it.
func (s *Service) Update(ctx context.Context, id string, patch domain.TaskUpdate) (*domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "task id is required"}
	}
	in, err := domain.ValidateUpdate(patch)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	before := current.Clone()
	now := s.stamp(current)

	var fields []string
	if v, ok := in.Title.Get(); ok {
		current.Title = v
		fields = append(fields, "title")
	}
	if in.Description.IsSet() {
		current.Description = in.Description.Ptr()
		fields = append(fields, "description")
	}
	if in.DueDate.IsSet() {
		current.DueDate = in.DueDate.Ptr()
		fields = append(fields, "due_date")
	}
	if v, ok := in.Priority.Get(); ok {
		current.Priority = v
		fields = append(fields, "priority")
	}
	if in.AssociationID.IsSet() {
		current.AssociationID = in.AssociationID.Ptr()
		fields = append(fields, "association_id")
	}
	if in.AssignedToID.IsSet() {
		current.AssignedToID = in.AssignedToID.Ptr()
		fields = append(fields, "assigned_to_id")
	}
	if v, ok := in.Status.Get(); ok {
		current.Status = v
		if v == domain.StatusCompleted {
			if current.CompletedAt == nil {
				current.CompletedAt = &now
			}
		} else {
			current.CompletedAt = nil
		}
		fields = append(fields, "status")
	}
	current.UpdatedAt = now

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	s.logger.Info("task updated", "task_id", saved.ID, "fields", fields)
	s.notify(ctx, Change{Op: OpUpdated, TaskID: saved.ID, Before: before, After: saved.Clone(), Fields: fields, At: now})
	return saved, nil
}

// UpdateStatus moves the task to a new status. For COMPLETED the explicit
// completed_at wins, then an existing one, then now.
func (s *Service) UpdateStatus(ctx context.Context, id string, payload domain.TaskStatusUpdate) (*domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "task id is required"}
	}
	in, err := domain.ValidateStatusUpdate(payload)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	before := current.Clone()
	now := s.stamp(current)

	current.Status = in.Status
	switch {
	case in.Status != domain.StatusCompleted:
		current.CompletedAt = nil
	case in.CompletedAt != nil:
		current.CompletedAt = in.CompletedAt
	case current.CompletedAt == nil:
		current.CompletedAt = &now
	}
	current.UpdatedAt = now

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	s.logger.Info("task status updated", "task_id", saved.ID, "from", before.Status, "to", saved.Status)
	s.notify(ctx, Change{Op: OpStatusUpdated, TaskID: saved.ID, Before: before, After: saved.Clone(), Fields: []string{"status"}, At: now})
	return saved, nil
}

// Delete removes the task with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ConflictError("task id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.logger.Info("task deleted", "task_id", id)
	s.notify(ctx, Change{Op: OpDeleted, TaskID: id, At: s.clock()})
	return nil
}

// stamp returns the current time, never earlier than the task's creation.
func (s *Service) stamp(t *domain.Task) time.Time {
	now := s.clock()
	if now.Before(t.CreatedAt) {
		return t.CreatedAt
	}
	return now
}

func (s *Service) notify(ctx context.Context, c Change) {
	for _, l := range s.listeners {
		l(ctx, c)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)             {}
func (nopLogger) Info(string, ...any)              {}
func (nopLogger) Warn(string, ...any)              {}
func (nopLogger) Error(string, ...any)             {}
func (l nopLogger) With(...any) types.Logger       { return l }
func (l nopLogger) WithError(error) types.Logger   { return l }
func (l nopLogger) WithModule(string) types.Logger { return l }
