package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/task-orchestration/domain/task"
)

// Error codes carried in ServiceError.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
)

// ServiceError carries a domain error across the request-reply boundary.
type ServiceError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// newServiceError classifies err. It returns nil for errors that are not
// domain errors; those travel as transport failures instead.
func newServiceError(err error) *ServiceError {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return &ServiceError{Code: CodeValidation, Field: verr.Field, Message: verr.Message}
	case errors.Is(err, domain.ErrNotFound):
		return &ServiceError{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return &ServiceError{Code: CodeConflict, Message: err.Error()}
	default:
		return nil
	}
}

// Err converts the reply error back into the matching domain error.
func (e *ServiceError) Err() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case CodeValidation:
		return &domain.ValidationError{Field: e.Field, Message: e.Message}
	case CodeNotFound:
		return &remoteError{kind: domain.ErrNotFound, msg: e.Message}
	case CodeConflict:
		return &remoteError{kind: domain.ErrConflict, msg: e.Message}
	default:
		return fmt.Errorf("%s: %s", e.Code, e.Message)
	}
}

// remoteError keeps the original message while matching the domain sentinel.
type remoteError struct {
	kind error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	domain.TaskCreate
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// ListTasksRequest is the request for listing tasks. A nil filter applies
// the defaults.
type ListTasksRequest struct {
	Filter *domain.TaskFilter `json:"filter,omitempty"`
}

// UpdateTaskRequest is the request for a partial task update.
type UpdateTaskRequest struct {
	TaskID string `json:"task_id"`
	domain.TaskUpdate
}

// UpdateTaskStatusRequest is the request for a status transition.
type UpdateTaskStatusRequest struct {
	TaskID string `json:"task_id"`
	domain.TaskStatusUpdate
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// TaskReply is the reply for operations that return a single task.
type TaskReply struct {
	Task  *domain.Task  `json:"task,omitempty"`
	Error *ServiceError `json:"error,omitempty"`
}

// ListTasksReply is the reply for listing tasks.
type ListTasksReply struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int            `json:"total"`
	Error *ServiceError  `json:"error,omitempty"`
}

// DeleteTaskReply is the reply for deleting a task.
type DeleteTaskReply struct {
	Deleted bool          `json:"deleted"`
	Error   *ServiceError `json:"error,omitempty"`
}

// TaskPort defines the task operations available to driving adapters such as
// the HTTP API. Errors match the domain sentinels.
type TaskPort interface {
	Create(ctx context.Context, payload domain.TaskCreate) (*domain.Task, error)
	List(ctx context.Context, filter *domain.TaskFilter) ([]*domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskUpdate) (*domain.Task, error)
	UpdateStatus(ctx context.Context, id string, payload domain.TaskStatusUpdate) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

var _ TaskPort = (*Service)(nil)
