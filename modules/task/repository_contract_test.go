package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contractBase = time.Date(2024, 6, 1, 8, 30, 0, 123456000, time.UTC)

func contractTask(id string, status domain.Status, offset time.Duration) *domain.Task {
	created := contractBase.Add(offset)
	return &domain.Task{
		ID:          id,
		Title:       "Task " + id,
		Priority:    domain.PriorityMedium,
		Status:      status,
		CreatedByID: "user-1",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

// testRepositoryContract checks the behavior every Repository must share.
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) domain.Repository) {
	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		in := contractTask("c-1", domain.StatusOpen, 0)
		in.Description = strPtr("details")
		in.DueDate = timePtr(contractBase.Add(48 * time.Hour))
		in.AssignedToID = strPtr("user-2")
		in.AssociationID = strPtr("assoc-9")

		created, err := repo.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, created)

		got, err := repo.Get(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, contractTask("dup", domain.StatusOpen, 0))
		require.NoError(t, err)
		_, err = repo.Create(ctx, contractTask("dup", domain.StatusOpen, 0))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newRepo(t).Get(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("returned tasks are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, contractTask("copy", domain.StatusOpen, 0))
		require.NoError(t, err)
		created.Title = "mutated"

		got, err := repo.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, "Task copy", got.Title)
	})

	t.Run("save replaces fields and keeps created_at", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		orig := contractTask("s-1", domain.StatusOpen, 0)
		orig.Description = strPtr("old")
		_, err := repo.Create(ctx, orig)
		require.NoError(t, err)

		changed := orig.Clone()
		changed.Description = nil
		changed.Status = domain.StatusCompleted
		changed.CompletedAt = timePtr(contractBase.Add(time.Hour))
		changed.UpdatedAt = contractBase.Add(time.Hour)
		changed.CreatedAt = contractBase.Add(time.Hour)

		saved, err := repo.Save(ctx, changed)
		require.NoError(t, err)
		assert.Nil(t, saved.Description)
		assert.Equal(t, orig.CreatedAt, saved.CreatedAt)

		got, err := repo.Get(ctx, "s-1")
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("save missing", func(t *testing.T) {
		_, err := newRepo(t).Save(context.Background(), contractTask("ghost", domain.StatusOpen, 0))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, contractTask("d-1", domain.StatusOpen, 0))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, "d-1"))

		_, err = repo.Get(ctx, "d-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "d-1"), domain.ErrNotFound)
	})

	t.Run("list filters sorts and limits", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			task := contractTask(fmt.Sprintf("l-%d", i), domain.StatusOpen, time.Duration(5-i)*time.Minute)
			if i%2 == 0 {
				task.AssignedToID = strPtr("user-2")
			}
			_, err := repo.Create(ctx, task)
			require.NoError(t, err)
		}
		done := contractTask("l-done", domain.StatusCompleted, 0)
		done.CompletedAt = timePtr(contractBase)
		done.DueDate = timePtr(contractBase.Add(time.Hour))
		_, err := repo.Create(ctx, done)
		require.NoError(t, err)

		all, err := repo.List(ctx, domain.TaskFilter{Limit: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, []string{"l-4", "l-3", "l-2", "l-1", "l-0", "l-done"}, taskIDs(all))

		assigned, err := repo.List(ctx, domain.TaskFilter{AssignedToID: strPtr("user-2"), Limit: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, []string{"l-4", "l-2"}, taskIDs(assigned))

		due, err := repo.List(ctx, domain.TaskFilter{DueAfter: timePtr(contractBase), Limit: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, []string{"l-done"}, taskIDs(due))

		search, err := repo.List(ctx, domain.TaskFilter{Search: strPtr("TASK L-3"), Limit: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, []string{"l-3"}, taskIDs(search))

		completed, err := repo.List(ctx, domain.TaskFilter{Statuses: []domain.Status{domain.StatusCompleted}})
		require.NoError(t, err)
		assert.Equal(t, []string{"l-done"}, taskIDs(completed))
	})

	t.Run("list empty", func(t *testing.T) {
		tasks, err := newRepo(t).List(context.Background(), domain.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

func taskIDs(tasks []*domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
