package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-orchestration/config"
	"github.com/example/task-orchestration/modules/api"
	"github.com/example/task-orchestration/modules/notification"
	"github.com/example/task-orchestration/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task Orchestration Service ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Independent modules first, then the driving adapter that depends on them.
	app.Register(notification.NewModule(notification.DefaultCapacity))
	app.Register(task.NewModule(task.NewStorageConfig(cfg), app.Logger()))
	app.Register(api.NewModule(cfg.HTTPPort))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("Storage: %s", cfg.StorageDriver)
	if cfg.CacheEnabled() {
		log.Printf("Cache: redis at %s (ttl %s)", cfg.RedisAddr, cfg.CacheTTL)
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.HTTPPort)
	log.Println("  POST   /api/v1/tasks             - Create a task")
	log.Println("  GET    /api/v1/tasks             - List tasks (status, assigned_to_id, association_id, due_before, due_after, search, limit)")
	log.Println("  GET    /api/v1/tasks/:id         - Get a task by ID")
	log.Println("  PATCH  /api/v1/tasks/:id         - Update task fields")
	log.Println("  PUT    /api/v1/tasks/:id/status  - Change task status")
	log.Println("  DELETE /api/v1/tasks/:id         - Delete a task")
	log.Println("  GET    /api/v1/activity          - Recent task activity")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
