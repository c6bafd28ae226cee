package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter implements TaskPort over the task module's request-reply
// services.
type taskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*taskAdapter)(nil)

// NewTaskAdapter creates a TaskPort backed by the task module's container,
// as received through SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

func (a *taskAdapter) Create(ctx context.Context, payload domain.TaskCreate) (*domain.Task, error) {
	var resp TaskReply
	if err := callService(ctx, a.container, "create-task", &CreateTaskRequest{TaskCreate: payload}, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Error.Err()
}

func (a *taskAdapter) List(ctx context.Context, filter *domain.TaskFilter) ([]*domain.Task, error) {
	var resp ListTasksReply
	if err := callService(ctx, a.container, "list-tasks", &ListTasksRequest{Filter: filter}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (a *taskAdapter) Get(ctx context.Context, id string) (*domain.Task, error) {
	var resp TaskReply
	if err := callService(ctx, a.container, "get-task", &GetTaskRequest{TaskID: id}, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Error.Err()
}

func (a *taskAdapter) Update(ctx context.Context, id string, patch domain.TaskUpdate) (*domain.Task, error) {
	var resp TaskReply
	if err := callService(ctx, a.container, "update-task", &UpdateTaskRequest{TaskID: id, TaskUpdate: patch}, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Error.Err()
}

func (a *taskAdapter) UpdateStatus(ctx context.Context, id string, payload domain.TaskStatusUpdate) (*domain.Task, error) {
	var resp TaskReply
	req := &UpdateTaskStatusRequest{TaskID: id, TaskStatusUpdate: payload}
	if err := callService(ctx, a.container, "update-task-status", req, &resp); err != nil {
		return nil, err
	}
	return resp.Task, resp.Error.Err()
}

func (a *taskAdapter) Delete(ctx context.Context, id string) error {
	var resp DeleteTaskReply
	if err := callService(ctx, a.container, "delete-task", &DeleteTaskRequest{TaskID: id}, &resp); err != nil {
		return err
	}
	if err := resp.Error.Err(); err != nil {
		return err
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %s", id)
	}
	return nil
}
