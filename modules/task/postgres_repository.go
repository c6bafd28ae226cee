package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id             TEXT PRIMARY KEY,
	title          VARCHAR(255) NOT NULL,
	description    TEXT,
	due_date       TIMESTAMPTZ,
	priority       TEXT NOT NULL,
	status         TEXT NOT NULL,
	association_id TEXT,
	assigned_to_id TEXT,
	created_by_id  TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	completed_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to_id ON tasks (assigned_to_id);
CREATE INDEX IF NOT EXISTS idx_tasks_association_id ON tasks (association_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date);
`

const taskColumns = `id, title, description, due_date, priority, status, association_id,
	assigned_to_id, created_by_id, created_at, updated_at, completed_at`

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository stores tasks in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ domain.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository on pool. Call Migrate before use.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tasks table and its indexes if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate tasks table: %w", err)
	}
	return nil
}

// List pushes the exact-match and due-date predicates into SQL and lets the
// domain engine handle search, ordering and the limit.
func (r *PostgresRepository) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}
	if filter.AssignedToID != nil {
		conds = append(conds, "assigned_to_id = "+arg(*filter.AssignedToID))
	}
	if filter.AssociationID != nil {
		conds = append(conds, "association_id = "+arg(*filter.AssociationID))
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_date <= "+arg(*filter.DueBefore))
	}
	if filter.DueAfter != nil {
		conds = append(conds, "due_date >= "+arg(*filter.DueAfter))
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return domain.Apply(tasks, filter), nil
}

// Get retrieves a task by its ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// Create inserts a new task.
func (r *PostgresRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+taskColumns,
		task.ID, task.Title, task.Description, task.DueDate, string(task.Priority), string(task.Status),
		task.AssociationID, task.AssignedToID, task.CreatedByID, task.CreatedAt, task.UpdatedAt, task.CompletedAt,
	)
	created, err := scanTask(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ConflictError("task %s already exists", task.ID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// Save overwrites every mutable column of an existing task.
func (r *PostgresRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = $2, description = $3, due_date = $4, priority = $5, status = $6,
			association_id = $7, assigned_to_id = $8, created_by_id = $9,
			updated_at = $10, completed_at = $11
		WHERE id = $1
		RETURNING `+taskColumns,
		task.ID, task.Title, task.Description, task.DueDate, string(task.Priority), string(task.Status),
		task.AssociationID, task.AssignedToID, task.CreatedByID, task.UpdatedAt, task.CompletedAt,
	)
	saved, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError(task.ID)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return saved, nil
}

// Delete removes a task by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError(id)
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t                domain.Task
		priority, status string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.DueDate, &priority, &status, &t.AssociationID,
		&t.AssignedToID, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	t.DueDate = utcPtr(t.DueDate)
	t.CompletedAt = utcPtr(t.CompletedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
