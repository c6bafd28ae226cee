package task

import (
	"context"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/example/task-orchestration/events"
)

// publishChange turns a committed write into domain events. Publishing is
// best effort: failures are logged and never fail the write.
func (m *TaskModule) publishChange(_ context.Context, c Change) {
	if m.eventBus == nil {
		return
	}

	switch c.Op {
	case OpCreated:
		m.publish("TaskCreated", c.TaskID, events.TaskCreatedV1.Publish(m.eventBus, events.TaskCreatedEvent{
			TaskID:       c.After.ID,
			Title:        c.After.Title,
			Priority:     string(c.After.Priority),
			AssignedToID: c.After.AssignedToID,
			CreatedByID:  c.After.CreatedByID,
			CreatedAt:    c.After.CreatedAt,
		}, nil))

	case OpUpdated, OpStatusUpdated:
		if c.Op == OpUpdated {
			m.publish("TaskUpdated", c.TaskID, events.TaskUpdatedV1.Publish(m.eventBus, events.TaskUpdatedEvent{
				TaskID:    c.After.ID,
				Title:     c.After.Title,
				Fields:    c.Fields,
				UpdatedAt: c.After.UpdatedAt,
			}, nil))
		}
		if c.Before.Status != c.After.Status {
			m.publish("TaskStatusChanged", c.TaskID, events.TaskStatusChangedV1.Publish(m.eventBus, events.TaskStatusChangedEvent{
				TaskID:     c.After.ID,
				FromStatus: string(c.Before.Status),
				ToStatus:   string(c.After.Status),
				ChangedAt:  c.After.UpdatedAt,
			}, nil))
		}
		if c.After.Status == domain.StatusCompleted && c.Before.Status != domain.StatusCompleted {
			m.publish("TaskCompleted", c.TaskID, events.TaskCompletedV1.Publish(m.eventBus, events.TaskCompletedEvent{
				TaskID:       c.After.ID,
				AssignedToID: c.After.AssignedToID,
				CompletedAt:  *c.After.CompletedAt,
			}, nil))
		}

	case OpDeleted:
		m.publish("TaskDeleted", c.TaskID, events.TaskDeletedV1.Publish(m.eventBus, events.TaskDeletedEvent{
			TaskID:    c.TaskID,
			DeletedAt: c.At,
		}, nil))
	}
}

func (m *TaskModule) publish(event, taskID string, err error) {
	if err != nil {
		m.logger.Warn("failed to publish event", "event", event, "task_id", taskID, "error", err)
	}
}
