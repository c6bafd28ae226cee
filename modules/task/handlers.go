package task

import (
	"context"

	"github.com/go-monolith/mono"
)

// Request-reply handlers. Domain errors are returned inside the reply so the
// caller can tell them apart; anything else fails the call.

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Create(ctx, req.TaskCreate)
	if err != nil {
		return taskErrorReply(err)
	}
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Get(ctx, req.TaskID)
	if err != nil {
		return taskErrorReply(err)
	}
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksReply, error) {
	tasks, err := m.service.List(ctx, req.Filter)
	if err != nil {
		if se := newServiceError(err); se != nil {
			return ListTasksReply{Error: se}, nil
		}
		return ListTasksReply{}, err
	}
	return ListTasksReply{Tasks: tasks, Total: len(tasks)}, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.Update(ctx, req.TaskID, req.TaskUpdate)
	if err != nil {
		return taskErrorReply(err)
	}
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) updateTaskStatus(ctx context.Context, req UpdateTaskStatusRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.service.UpdateStatus(ctx, req.TaskID, req.TaskStatusUpdate)
	if err != nil {
		return taskErrorReply(err)
	}
	return TaskReply{Task: t}, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskReply, error) {
	if err := m.service.Delete(ctx, req.TaskID); err != nil {
		if se := newServiceError(err); se != nil {
			return DeleteTaskReply{Error: se}, nil
		}
		return DeleteTaskReply{}, err
	}
	return DeleteTaskReply{Deleted: true}, nil
}

func taskErrorReply(err error) (TaskReply, error) {
	if se := newServiceError(err); se != nil {
		return TaskReply{Error: se}, nil
	}
	return TaskReply{}, err
}
