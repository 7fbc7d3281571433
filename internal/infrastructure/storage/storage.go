package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	mongoInfra "github.com/fastygo/taskboard/internal/infrastructure/mongo"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/taskboard/internal/infrastructure/sqlite"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
	mongoRepo "github.com/fastygo/taskboard/repository/mongo"
	pgRepo "github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
	sqliteRepo "github.com/fastygo/taskboard/repository/sqlite"
)

// Store is an opened task repository together with its connection.
type Store struct {
	Driver string
	Tasks  repository.TaskRepository
	// Pinger is nil for the in-process memory store.
	Pinger repository.Pinger
	close  func(ctx context.Context) error
}

// Close releases the underlying connection.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects the backend selected by cfg.Storage.Driver and seeds it with
// the demo tasks when it is empty and seeding is enabled.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	if p, ok := store.Tasks.(repository.Pinger); ok {
		store.Pinger = p
	}

	if cfg.Storage.SeedDemo {
		seeded, err := repository.SeedIfEmpty(ctx, store.Tasks)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("seed demo tasks: %w", err)
		}
		if seeded > 0 {
			logger.Info("demo tasks seeded", zap.String("driver", store.Driver), zap.Int("count", seeded))
		}
	}
	return store, nil
}

func open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		return &Store{Driver: config.DriverMemory, Tasks: memory.NewTaskRepository()}, nil

	case config.DriverSQLite:
		db, err := sqliteInfra.Open(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver: config.DriverSQLite,
			Tasks:  sqliteRepo.NewTaskRepository(db),
			close:  func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver: config.DriverPostgres,
			Tasks:  pgRepo.NewTaskRepository(pool),
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver: config.DriverRedis,
			Tasks:  redisRepo.NewTaskRepository(client, cfg.Redis.Prefix),
			close:  func(context.Context) error { return client.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongoInfra.NewClient(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver: config.DriverMongo,
			Tasks:  mongoRepo.NewTaskRepository(client, cfg.Mongo.Database, cfg.Mongo.Collection),
			close:  client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Storage.Driver)
}
