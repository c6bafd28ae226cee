package task

import (
	"context"
	"time"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/example/task-orchestration/modules/cache"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

const loadTimeout = 10 * time.Second

// CachedRepository adds a Redis read-through cache in front of another
// repository. Only single-task lookups are cached; listings always hit the
// underlying store. Writes invalidate the entry and a fill that raced with
// a write is dropped. Cache failures are logged and never returned.
type CachedRepository struct {
	next    domain.Repository
	cache   *cache.Cache
	logger  types.Logger
	sfGroup singleflight.Group
}

var _ domain.Repository = (*CachedRepository)(nil)

// NewCachedRepository wraps next with c.
func NewCachedRepository(next domain.Repository, c *cache.Cache, logger types.Logger) *CachedRepository {
	if logger == nil {
		logger = nopLogger{}
	}
	return &CachedRepository{next: next, cache: c, logger: logger}
}

func (r *CachedRepository) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	return r.next.List(ctx, filter)
}

// Get serves id from the cache, loading it once from the underlying store
// when concurrent callers miss together. The shared load ignores the first
// caller's cancellation and is bounded by loadTimeout instead.
func (r *CachedRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	var cached domain.Task
	found, err := r.cache.Get(ctx, id, &cached)
	if err != nil {
		r.logger.Warn("cache read failed", "task_id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	val, err, _ := r.sfGroup.Do(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		var t *domain.Task
		var loadErr error
		fillErr := r.cache.Fill(loadCtx, id, func(ctx context.Context) (any, error) {
			t, loadErr = r.next.Get(ctx, id)
			return t, loadErr
		})
		if loadErr != nil {
			return nil, loadErr
		}
		if fillErr != nil {
			r.logger.Warn("cache fill failed", "task_id", id, "error", fillErr)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*domain.Task).Clone(), nil
}

// Create leaves the cache alone; the first Get fills it.
func (r *CachedRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return r.next.Create(ctx, task)
}

func (r *CachedRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	saved, err := r.next.Save(ctx, task)
	r.invalidate(ctx, task.ID)
	return saved, err
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

// invalidate runs after every write, successful or not. Loads already in
// flight for id are detached from the group so later readers start fresh.
func (r *CachedRepository) invalidate(ctx context.Context, id string) {
	r.sfGroup.Forget(id)
	if err := r.cache.Invalidate(context.WithoutCancel(ctx), id); err != nil {
		r.logger.Warn("cache invalidate failed", "task_id", id, "error", err)
	}
}
