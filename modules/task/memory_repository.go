package task

import (
	"context"
	"sync"

	domain "github.com/example/task-orchestration/domain/task"
)

// MemoryRepository provides in-memory task storage.
type MemoryRepository struct {
	tasks map[string]*domain.Task
	mu    sync.RWMutex
}

var _ domain.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: make(map[string]*domain.Task),
	}
}

// List returns the matching tasks, sorted and limited.
func (r *MemoryRepository) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		all = append(all, t)
	}

	matched := domain.Apply(all, filter)
	result := make([]*domain.Task, len(matched))
	for i, t := range matched {
		result[i] = t.Clone()
	}
	return result, nil
}

// Get finds a task by ID.
func (r *MemoryRepository) Get(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, found := r.tasks[id]
	if !found {
		return nil, domain.NotFoundError(id)
	}
	return t.Clone(), nil
}

// Create stores a new task.
func (r *MemoryRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return nil, domain.ConflictError("task %s already exists", task.ID)
	}
	r.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

// Save replaces an existing task. The stored creation time is kept.
func (r *MemoryRepository) Save(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, found := r.tasks[task.ID]
	if !found {
		return nil, domain.NotFoundError(task.ID)
	}
	stored := task.Clone()
	stored.CreatedAt = existing.CreatedAt
	r.tasks[task.ID] = stored
	return stored.Clone(), nil
}

// Delete deletes a task by ID.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.tasks[id]; !found {
		return domain.NotFoundError(id)
	}
	delete(r.tasks, id)
	return nil
}
