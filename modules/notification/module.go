package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/task-orchestration/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of activity entries kept in memory.
const DefaultCapacity = 200

// ActivityEntry is one recorded task event.
type ActivityEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ListActivityRequest is the request for the list-activity service.
type ListActivityRequest struct {
	TaskID string `json:"task_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// ListActivityResponse holds the most recent entries, newest first.
type ListActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
	Total   int             `json:"total"`
}

// NotificationModule records task events into a bounded activity feed.
type NotificationModule struct {
	capacity int
	entries  []ActivityEntry
	mu       sync.RWMutex
	now      func() time.Time
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)

// NewModule creates a NotificationModule keeping at most capacity entries.
// A non-positive capacity selects DefaultCapacity.
func NewModule(capacity int) *NotificationModule {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &NotificationModule{
		capacity: capacity,
		entries:  make([]ActivityEntry, 0, capacity),
		now:      time.Now,
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskStatusChangedV1, m.handleTaskStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register TaskStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskUpdated, TaskStatusChanged, TaskCompleted, TaskDeleted")
	return nil
}

func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-activity", json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}
	log.Printf("[notification] Registered services: list-activity")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "task_created", fmt.Sprintf("Task '%s' created by %s", event.Title, event.CreatedByID))
	return nil
}

func (m *NotificationModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "task_updated", fmt.Sprintf("Task '%s' updated: %s", event.Title, strings.Join(event.Fields, ", ")))
	return nil
}

func (m *NotificationModule) handleTaskStatusChanged(_ context.Context, event events.TaskStatusChangedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "task_status_changed", fmt.Sprintf("Task %s moved from %s to %s", event.TaskID, event.FromStatus, event.ToStatus))
	return nil
}

func (m *NotificationModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	msg := fmt.Sprintf("Task %s completed", event.TaskID)
	if event.AssignedToID != nil {
		msg += " by " + *event.AssignedToID
	}
	m.record(event.TaskID, "task_completed", msg)
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.TaskID, "task_deleted", fmt.Sprintf("Task %s deleted", event.TaskID))
	return nil
}

func (m *NotificationModule) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	entries := m.Recent(req.TaskID, req.Limit)
	return ListActivityResponse{Entries: entries, Total: len(entries)}, nil
}

// record appends an entry, evicting the oldest once capacity is reached.
func (m *NotificationModule) record(taskID, activityType, message string) {
	log.Printf("[notification] %s: %s", activityType, message)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, ActivityEntry{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Type:      activityType,
		Message:   message,
		Timestamp: m.now(),
	})
}

// Recent returns up to limit entries, newest first, optionally restricted to
// one task. A non-positive limit returns every matching entry.
func (m *NotificationModule) Recent(taskID string, limit int) []ActivityEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ActivityEntry, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if taskID != "" && m.entries[i].TaskID != taskID {
			continue
		}
		result = append(result, m.entries[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for task events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}
