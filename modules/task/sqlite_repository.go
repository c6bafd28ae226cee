package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-orchestration/domain/task"
	"gorm.io/gorm"
)

// taskRecord is the GORM model for the tasks table. Timestamps are owned by
// the service, so GORM's automatic tracking is disabled.
type taskRecord struct {
	ID            string     `gorm:"primaryKey;size:36"`
	Title         string     `gorm:"size:255;not null"`
	Description   *string    `gorm:"size:4000"`
	DueDate       *time.Time `gorm:"index"`
	Priority      string     `gorm:"size:16;not null"`
	Status        string     `gorm:"size:16;not null;index"`
	AssociationID *string    `gorm:"size:64;index"`
	AssignedToID  *string    `gorm:"size:64;index"`
	CreatedByID   string     `gorm:"size:64;not null"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     time.Time  `gorm:"not null;autoUpdateTime:false"`
	CompletedAt   *time.Time
}

// TableName specifies the table name for GORM.
func (taskRecord) TableName() string {
	return "tasks"
}

func newTaskRecord(t *domain.Task) *taskRecord {
	return &taskRecord{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       t.DueDate,
		Priority:      string(t.Priority),
		Status:        string(t.Status),
		AssociationID: t.AssociationID,
		AssignedToID:  t.AssignedToID,
		CreatedByID:   t.CreatedByID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		CompletedAt:   t.CompletedAt,
	}
}

func (r *taskRecord) toDomain() *domain.Task {
	return &domain.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		DueDate:       utcPtr(r.DueDate),
		Priority:      domain.Priority(r.Priority),
		Status:        domain.Status(r.Status),
		AssociationID: r.AssociationID,
		AssignedToID:  r.AssignedToID,
		CreatedByID:   r.CreatedByID,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
		CompletedAt:   utcPtr(r.CompletedAt),
	}
}

// SQLiteRepository stores tasks through GORM, normally on SQLite.
type SQLiteRepository struct {
	db *gorm.DB
}

var _ domain.Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository on db. Call Migrate before use.
func NewSQLiteRepository(db *gorm.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *SQLiteRepository) Migrate() error {
	if err := r.db.AutoMigrate(&taskRecord{}); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

// List pushes the exact-match and due-date predicates into SQL and lets the
// domain engine handle search, ordering and the limit.
func (r *SQLiteRepository) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).Model(&taskRecord{})
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.AssociationID != nil {
		query = query.Where("association_id = ?", *filter.AssociationID)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date IS NOT NULL AND due_date <= ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date IS NOT NULL AND due_date >= ?", *filter.DueAfter)
	}

	var records []*taskRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*domain.Task, len(records))
	for i, rec := range records {
		tasks[i] = rec.toDomain()
	}
	return domain.Apply(tasks, filter), nil
}

// Get retrieves a task by its ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	var rec taskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError(id)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return rec.toDomain(), nil
}

// Create inserts a new task.
func (r *SQLiteRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	rec := newTaskRecord(task)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&taskRecord{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check task id: %w", err)
		}
		if count > 0 {
			return domain.ConflictError("task %s already exists", rec.ID)
		}
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ConflictError("task %s already exists", rec.ID)
			}
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// Save overwrites every mutable column of an existing task.
func (r *SQLiteRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	rec := newTaskRecord(task)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing taskRecord
		if err := tx.First(&existing, "id = ?", rec.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError(rec.ID)
			}
			return fmt.Errorf("failed to find task: %w", err)
		}
		rec.CreatedAt = existing.CreatedAt
		if err := tx.Save(rec).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// Delete permanently removes a task by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError(id)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
