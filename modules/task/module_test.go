package task

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	domain "github.com/example/task-orchestration/domain/task"
	"github.com/example/task-orchestration/modules/cache"
	"github.com/example/task-orchestration/modules/notification"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// clientModule depends on the task module and captures its container.
type clientModule struct {
	container mono.ServiceContainer
}

var _ mono.DependentModule = (*clientModule)(nil)

func (p *clientModule) Name() string                  { return "task-client" }
func (p *clientModule) Dependencies() []string        { return []string{"task"} }
func (p *clientModule) Start(_ context.Context) error { return nil }
func (p *clientModule) Stop(_ context.Context) error  { return nil }

func (p *clientModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		p.container = container
	}
}

// startTestApp runs the task and notification modules on an embedded bus and
// returns a TaskPort speaking to them through request-reply.
func startTestApp(t *testing.T) (TaskPort, *notification.NotificationModule, *TaskModule) {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
	)
	require.NoError(t, err)

	feed := notification.NewModule(50)
	taskModule := NewModule(StorageConfig{Driver: "memory"}, &mockLogger{})
	client := &clientModule{}

	app.Register(feed)
	app.Register(taskModule)
	app.Register(client)

	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	require.NotNil(t, client.container)
	return NewTaskAdapter(client.container), feed, taskModule
}

func TestTaskModule_RequestReply(t *testing.T) {
	port, _, _ := startTestApp(t)
	ctx := context.Background()

	created, err := port.Create(ctx, domain.TaskCreate{Title: "Board meeting", CreatedByID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, created.Status)

	got, err := port.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	updated, err := port.Update(ctx, created.ID, domain.TaskUpdate{Description: domain.Some("Agenda")})
	require.NoError(t, err)
	assert.Equal(t, "Agenda", *updated.Description)

	done, err := port.UpdateStatus(ctx, created.ID, domain.TaskStatusUpdate{Status: domain.StatusCompleted})
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)

	tasks, err := port.List(ctx, &domain.TaskFilter{Statuses: []domain.Status{domain.StatusCompleted}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, port.Delete(ctx, created.ID))
}

func TestTaskModule_ErrorsCrossTheBus(t *testing.T) {
	port, _, _ := startTestApp(t)
	ctx := context.Background()

	_, err := port.Create(ctx, domain.TaskCreate{Title: "", CreatedByID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = port.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = port.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = port.Update(ctx, "missing", domain.TaskUpdate{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.ErrorIs(t, port.Delete(ctx, "missing"), domain.ErrNotFound)

	limit := 0
	_, err = port.List(ctx, &domain.TaskFilter{Limit: &limit})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskModule_PublishesEvents(t *testing.T) {
	port, feed, _ := startTestApp(t)
	ctx := context.Background()

	created, err := port.Create(ctx, domain.TaskCreate{Title: "Audit", CreatedByID: "user-1"})
	require.NoError(t, err)
	_, err = port.UpdateStatus(ctx, created.ID, domain.TaskStatusUpdate{Status: domain.StatusCompleted})
	require.NoError(t, err)
	require.NoError(t, port.Delete(ctx, created.ID))

	// created, status changed, completed, deleted
	assert.Eventually(t, func() bool {
		return len(feed.Recent(created.ID, 0)) == 4
	}, 5*time.Second, 50*time.Millisecond)

	seen := make(map[string]bool)
	for _, e := range feed.Recent(created.ID, 0) {
		seen[e.Type] = true
	}
	assert.True(t, seen["task_created"])
	assert.True(t, seen["task_status_changed"])
	assert.True(t, seen["task_completed"])
	assert.True(t, seen["task_deleted"])
}

func TestTaskModule_Health(t *testing.T) {
	m := NewModule(StorageConfig{Driver: "memory"}, nil)
	assert.False(t, m.Health(context.Background()).Healthy)

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "memory", status.Details["driver"])
	assert.NotNil(t, m.Service())
}

func TestTaskModule_HealthReportsCacheStats(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := cache.DefaultConfig()
	cfg.Addr = mr.Addr()

	m := NewModule(StorageConfig{Driver: "memory", Cache: &cfg}, nil)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	svc := m.Service()
	created, err := svc.Create(context.Background(), domain.TaskCreate{Title: "Cached", CreatedByID: "user-1"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = svc.Get(context.Background(), created.ID)
		require.NoError(t, err)
	}

	status := m.Health(context.Background())
	require.True(t, status.Healthy)
	assert.Equal(t, mr.Addr(), status.Details["cache"])

	stats, ok := status.Details["cache_stats"].(cache.Stats)
	require.True(t, ok, "cache_stats should be present")
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Sets)
}

func TestTaskModule_SQLiteStorage(t *testing.T) {
	m := NewModule(StorageConfig{Driver: "sqlite", DBPath: ":memory:"}, nil)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	svc := m.Service()
	created, err := svc.Create(context.Background(), domain.TaskCreate{Title: "Persist me", CreatedByID: "user-1"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.True(t, m.Health(context.Background()).Healthy)
}

func TestTaskModule_UnknownStorage(t *testing.T) {
	m := NewModule(StorageConfig{Driver: "mongo"}, nil)
	assert.Error(t, m.Start(context.Background()))
}
