package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/fastygo/taskboard/internal/config"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/repotest"
)

// Set TASKBOARD_TEST_DATABASE_URL to a disposable database to run these tests.
func TestTaskRepositoryContract(t *testing.T) {
	url := os.Getenv("TASKBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TASKBOARD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	cfg := &config.Config{
		Database:   config.DatabaseConfig{URL: url, Name: "taskboard_test", MaxOpenConns: 4},
		Migrations: config.MigrationsConfig{Enabled: true},
	}
	if err := pgInfra.RunMigrations(cfg, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	repotest.Run(t, func(t *testing.T) repository.TaskRepository {
		if _, err := pool.Exec(ctx, `TRUNCATE tasks RESTART IDENTITY`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewTaskRepository(pool)
	})
}
