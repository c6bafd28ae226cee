package task

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-orchestration/config"
	domain "github.com/example/task-orchestration/domain/task"
	"github.com/example/task-orchestration/modules/cache"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StorageConfig selects and configures the task repository.
type StorageConfig struct {
	Driver      string
	DBPath      string
	DBDebug     bool
	DatabaseURL string
	// Cache enables the Redis read-through cache when non-nil.
	Cache *cache.Config
}

// NewStorageConfig extracts the storage settings from cfg.
func NewStorageConfig(cfg config.Config) StorageConfig {
	sc := StorageConfig{
		Driver:      cfg.StorageDriver,
		DBPath:      cfg.DBPath,
		DBDebug:     cfg.DBDebug,
		DatabaseURL: cfg.DatabaseURL,
	}
	if cfg.CacheEnabled() {
		sc.Cache = &cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.CachePrefix,
			TTL:      cfg.CacheTTL,
		}
	}
	return sc
}

// storage is an opened repository together with its lifecycle hooks.
type storage struct {
	repo    domain.Repository
	details map[string]any
	cache   *cache.Cache
	pings   []func(context.Context) error
	closers []func() error
}

func (s *storage) ping(ctx context.Context) error {
	for _, p := range s.pings {
		if err := p(ctx); err != nil {
			return err
		}
	}
	return nil
}

// healthDetails returns the static storage details plus the live cache
// counters when a cache is configured.
func (s *storage) healthDetails() map[string]any {
	d := make(map[string]any, len(s.details)+1)
	for k, v := range s.details {
		d[k] = v
	}
	if s.cache != nil {
		d["cache_stats"] = s.cache.Stats()
	}
	return d
}

func (s *storage) close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openStorage connects the configured backend, runs its migrations and
// optionally wraps it with the Redis cache.
func openStorage(ctx context.Context, cfg StorageConfig, lg types.Logger) (*storage, error) {
	s := &storage{details: map[string]any{"driver": cfg.Driver}}

	switch cfg.Driver {
	case "", config.DriverMemory:
		s.details["driver"] = config.DriverMemory
		s.repo = NewMemoryRepository()

	case config.DriverSQLite:
		log.Printf("[task] Connecting to SQLite database: %s", cfg.DBPath)
		gormCfg := &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
		if cfg.DBDebug {
			gormCfg.Logger = logger.Default.LogMode(logger.Info)
		}
		db, err := gorm.Open(sqlite.Open(cfg.DBPath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
		s.closers = append(s.closers, sqlDB.Close)
		s.pings = append(s.pings, sqlDB.PingContext)

		repo := NewSQLiteRepository(db)
		if err := repo.Migrate(); err != nil {
			s.close()
			return nil, err
		}
		s.details["path"] = cfg.DBPath
		s.repo = repo

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		s.pings = append(s.pings, pool.Ping)

		repo := NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			s.close()
			return nil, err
		}
		s.details["pool_max_conns"] = pool.Config().MaxConns
		s.repo = repo

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	if cfg.Cache != nil {
		c, err := cache.Connect(ctx, *cfg.Cache)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, c.Close)
		s.pings = append(s.pings, c.Ping)
		s.details["cache"] = cfg.Cache.Addr
		s.cache = c
		s.repo = NewCachedRepository(s.repo, c, lg)
	}

	return s, nil
}
