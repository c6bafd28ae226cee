package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/example/task-orchestration/domain/task"
	"github.com/example/task-orchestration/modules/notification"
	"github.com/example/task-orchestration/modules/task"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActivity struct {
	entries []notification.ActivityEntry
	taskID  string
	limit   int
}

func (f *fakeActivity) ListActivity(_ context.Context, taskID string, limit int) ([]notification.ActivityEntry, error) {
	f.taskID, f.limit = taskID, limit
	return f.entries, nil
}

// brokenPort fails every call with an infrastructure error.
type brokenPort struct{ task.TaskPort }

func (brokenPort) List(context.Context, *domain.TaskFilter) ([]*domain.Task, error) {
	return nil, errors.New("list-tasks service call failed: timeout")
}

func newTestApp(t *testing.T) (*fiber.App, *fakeActivity) {
	t.Helper()
	activity := &fakeActivity{}
	m := &APIModule{
		port:     3000,
		tasks:    task.NewService(task.NewMemoryRepository()),
		activity: activity,
	}
	return m.newApp(), activity
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createViaAPI(t *testing.T, app *fiber.App, body string) TaskResponse {
	t.Helper()
	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/tasks", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created TaskResponse
	require.NoError(t, json.Unmarshal(data, &created))
	return created
}

func TestCreateTask(t *testing.T) {
	app, _ := newTestApp(t)

	created := createViaAPI(t, app, `{"title":"Call treasurer","priority":"high","created_by_id":"user-1","status":"COMPLETED"}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "OPEN", created.Status)
	assert.Equal(t, "HIGH", created.Priority)
	assert.Nil(t, created.CompletedAt)
}

func TestCreateTask_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/tasks", `{"title":"","created_by_id":"u"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(data, &errResp))
	assert.Equal(t, "validation_error", errResp.Error)
	assert.Equal(t, "title", errResp.Field)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/tasks", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTask(t *testing.T) {
	app, _ := newTestApp(t)
	created := createViaAPI(t, app, `{"title":"x","created_by_id":"u"}`)

	resp, data := doJSON(t, app, http.MethodGet, "/api/v1/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got TaskResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, created.ID, got.ID)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateTask_PatchSemantics(t *testing.T) {
	app, _ := newTestApp(t)
	created := createViaAPI(t, app, `{"title":"x","description":"keep","assigned_to_id":"user-2","created_by_id":"u"}`)
	path := "/api/v1/tasks/" + created.ID

	resp, data := doJSON(t, app, http.MethodPatch, path, `{"title":"y"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var got TaskResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "y", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "keep", *got.Description)

	resp, data = doJSON(t, app, http.MethodPatch, path, `{"description":null,"assigned_to_id":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got.Description)
	assert.Nil(t, got.AssignedToID)

	resp, _ = doJSON(t, app, http.MethodPatch, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, path, `{"title":null}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateTaskStatus(t *testing.T) {
	app, _ := newTestApp(t)
	created := createViaAPI(t, app, `{"title":"x","created_by_id":"u"}`)
	path := "/api/v1/tasks/" + created.ID + "/status"

	resp, data := doJSON(t, app, http.MethodPut, path, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var got TaskResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "COMPLETED", got.Status)
	assert.NotNil(t, got.CompletedAt)

	resp, _ = doJSON(t, app, http.MethodPut, path, `{"status":"OPEN","completed_at":"2024-01-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/tasks/missing/status", `{"status":"OPEN"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteTask(t *testing.T) {
	app, _ := newTestApp(t)
	created := createViaAPI(t, app, `{"title":"x","created_by_id":"u"}`)

	resp, _ := doJSON(t, app, http.MethodDelete, "/api/v1/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/v1/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTasks(t *testing.T) {
	app, _ := newTestApp(t)
	contact := createViaAPI(t, app, `{"title":"Contact board","created_by_id":"u","due_date":"2030-01-01T00:00:00Z"}`)
	createViaAPI(t, app, `{"title":"Other","created_by_id":"u"}`)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/v1/tasks/"+contact.ID+"/status", `{"status":"IN_PROGRESS"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name  string
		query string
		code  int
		total int
	}{
		{"all", "", http.StatusOK, 2},
		{"status and search", "?status=in_progress&search=contact", http.StatusOK, 1},
		{"status list", "?status=OPEN,COMPLETED", http.StatusOK, 1},
		{"due after", "?due_after=2029-01-01T00:00:00Z", http.StatusOK, 1},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"bad limit", "?limit=0", http.StatusBadRequest, 0},
		{"non-numeric limit", "?limit=ten", http.StatusBadRequest, 0},
		{"bad status", "?status=DONE", http.StatusBadRequest, 0},
		{"bad date", "?due_before=yesterday", http.StatusBadRequest, 0},
		{"blank search", "?search=", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodGet, "/api/v1/tasks"+tt.query, nil)
			require.Equal(t, tt.code, resp.StatusCode, string(data))
			if tt.code != http.StatusOK {
				return
			}
			var list ListTasksResponse
			require.NoError(t, json.Unmarshal(data, &list))
			assert.Equal(t, tt.total, list.Total)
			assert.Len(t, list.Tasks, tt.total)
		})
	}
}

func TestListTasks_InfrastructureError(t *testing.T) {
	m := &APIModule{tasks: brokenPort{}, activity: &fakeActivity{}}
	app := m.newApp()

	resp, data := doJSON(t, app, http.MethodGet, "/api/v1/tasks", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(data, &errResp))
	assert.Equal(t, "server_error", errResp.Error)
}

func TestListActivity(t *testing.T) {
	app, activity := newTestApp(t)
	activity.entries = []notification.ActivityEntry{{ID: "a-1", TaskID: "t-1", Type: "task_created"}}

	resp, data := doJSON(t, app, http.MethodGet, "/api/v1/activity?task_id=t-1&limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ActivityResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, "t-1", activity.taskID)
	assert.Equal(t, 5, activity.limit)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/activity?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	resp, _ := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
