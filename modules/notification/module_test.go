package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/task-orchestration/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_BoundedCapacity(t *testing.T) {
	m := NewModule(3)
	for i := 0; i < 5; i++ {
		m.record(fmt.Sprintf("t-%d", i), "task_created", "created")
	}

	entries := m.Recent("", 0)
	require.Len(t, entries, 3)
	assert.Equal(t, "t-4", entries[0].TaskID)
	assert.Equal(t, "t-2", entries[2].TaskID)
}

func TestRecent_FilterAndLimit(t *testing.T) {
	m := NewModule(0)
	assert.Equal(t, DefaultCapacity, m.capacity)

	m.record("a", "task_created", "one")
	m.record("b", "task_created", "two")
	m.record("a", "task_deleted", "three")

	entries := m.Recent("a", 0)
	require.Len(t, entries, 2)
	assert.Equal(t, "task_deleted", entries[0].Type)

	assert.Len(t, m.Recent("", 1), 1)
	assert.Empty(t, m.Recent("missing", 0))
}

func TestHandlers_RecordEvents(t *testing.T) {
	m := NewModule(10)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	ctx := context.Background()
	assignee := "user-7"

	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{TaskID: "t-1", Title: "Call", CreatedByID: "user-1"}, nil))
	require.NoError(t, m.handleTaskUpdated(ctx, events.TaskUpdatedEvent{TaskID: "t-1", Title: "Call", Fields: []string{"title", "priority"}}, nil))
	require.NoError(t, m.handleTaskStatusChanged(ctx, events.TaskStatusChangedEvent{TaskID: "t-1", FromStatus: "OPEN", ToStatus: "COMPLETED"}, nil))
	require.NoError(t, m.handleTaskCompleted(ctx, events.TaskCompletedEvent{TaskID: "t-1", AssignedToID: &assignee}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t-1"}, nil))

	entries := m.Recent("t-1", 0)
	require.Len(t, entries, 5)
	assert.Equal(t, "task_deleted", entries[0].Type)
	assert.Equal(t, "Task t-1 completed by user-7", entries[1].Message)
	assert.Equal(t, "Task t-1 moved from OPEN to COMPLETED", entries[2].Message)
	assert.Equal(t, "Task 'Call' updated: title, priority", entries[3].Message)
	assert.Equal(t, "Task 'Call' created by user-1", entries[4].Message)
	assert.Equal(t, fixed, entries[0].Timestamp)

	resp, err := m.listActivity(ctx, ListActivityRequest{TaskID: "t-1", Limit: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
}
