package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-orchestration/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// TaskModule hosts the task service and exposes it as request-reply
// services. Committed writes are published as domain events.
type TaskModule struct {
	storageCfg StorageConfig
	logger     types.Logger
	opts       []Option

	storage  *storage
	service  *Service
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a TaskModule. The repository is opened on Start. Extra
// options are passed to the Service.
func NewModule(cfg StorageConfig, logger types.Logger, opts ...Option) *TaskModule {
	if logger == nil {
		logger = nopLogger{}
	}
	return &TaskModule{
		storageCfg: cfg,
		logger:     logger.WithModule("task"),
		opts:       opts,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskStatusChangedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task-status", json.Unmarshal, json.Marshal, m.updateTaskStatus,
	); err != nil {
		return fmt.Errorf("failed to register update-task-status service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, list-tasks, update-task, update-task-status, delete-task")
	return nil
}

// Start opens the configured storage and builds the service.
func (m *TaskModule) Start(ctx context.Context) error {
	s, err := openStorage(ctx, m.storageCfg, m.logger)
	if err != nil {
		return fmt.Errorf("failed to open task storage: %w", err)
	}
	m.storage = s

	opts := append([]Option{
		WithLogger(m.logger),
		WithChangeListener(m.publishChange),
	}, m.opts...)
	m.service = NewService(s.repo, opts...)

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[task] Module started (storage: %v)", s.details["driver"])
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if m.storage != nil {
		if err := m.storage.close(); err != nil {
			log.Printf("[task] Error closing storage: %v", err)
			return fmt.Errorf("failed to close task storage: %w", err)
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health pings the storage backend and cache.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.storage == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "storage not initialized",
		}
	}
	if err := m.storage.ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("storage ping failed: %v", err),
			Details: m.storage.healthDetails(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: m.storage.healthDetails(),
	}
}

// Service returns the task service, or nil before Start.
func (m *TaskModule) Service() *Service {
	return m.service
}
