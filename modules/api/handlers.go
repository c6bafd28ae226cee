package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	api := app.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.Post("/", m.createTask)
	tasks.Get("/", m.listTasks)
	tasks.Get("/:id", m.getTask)
	tasks.Patch("/:id", m.updateTask)
	tasks.Put("/:id/status", m.updateTaskStatus)
	tasks.Delete("/:id", m.deleteTask)

	api.Get("/activity", m.listActivity)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"port":   m.port,
		},
	})
}

// createTask handles POST /api/v1/tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	var req domain.TaskCreate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	t, err := m.tasks.Create(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(t))
}

// listTasks handles GET /api/v1/tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return writeError(c, err)
	}

	tasks, err := m.tasks.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	return c.JSON(resp)
}

// getTask handles GET /api/v1/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	t, err := m.tasks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTaskResponse(t))
}

// updateTask handles PATCH /api/v1/tasks/:id. Absent keys are left
// unchanged; null clears optional fields.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	var req domain.TaskUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	t, err := m.tasks.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTaskResponse(t))
}

// updateTaskStatus handles PUT /api/v1/tasks/:id/status.
func (m *APIModule) updateTaskStatus(c *fiber.Ctx) error {
	var req domain.TaskStatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	t, err := m.tasks.UpdateStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTaskResponse(t))
}

// deleteTask handles DELETE /api/v1/tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	if err := m.tasks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// listActivity handles GET /api/v1/activity.
func (m *APIModule) listActivity(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "limit must be a positive integer",
			Field:   "limit",
		})
	}

	entries, err := m.activity.ListActivity(c.UserContext(), c.Query("task_id"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ActivityResponse{Entries: entries, Total: len(entries)})
}

// parseFilter builds a TaskFilter from the query string. Only malformed
// values are rejected here; range checks belong to the service.
func parseFilter(c *fiber.Ctx) (*domain.TaskFilter, error) {
	var f domain.TaskFilter

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, domain.Status(s))
		}
	}
	if v := c.Query("assigned_to_id"); v != "" {
		f.AssignedToID = &v
	}
	if v := c.Query("association_id"); v != "" {
		f.AssociationID = &v
	}
	if _, ok := c.Queries()["search"]; ok {
		v := c.Query("search")
		f.Search = &v
	}

	var err error
	if f.DueBefore, err = parseTimeQuery(c, "due_before"); err != nil {
		return nil, err
	}
	if f.DueAfter, err = parseTimeQuery(c, "due_after"); err != nil {
		return nil, err
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &domain.ValidationError{Field: "limit", Message: "limit must be an integer"}
		}
		f.Limit = &n
	}
	return &f, nil
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Message: key + " must be an RFC3339 timestamp"}
	}
	return &t, nil
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: verr.Message,
			Field:   verr.Field,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		return err
	}
}
