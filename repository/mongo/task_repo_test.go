package mongo

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/internal/config"
	mongoInfra "github.com/fastygo/taskboard/internal/infrastructure/mongo"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/repotest"
)

// Set TASKBOARD_TEST_MONGO_URI to run these tests.
func TestTaskRepositoryContract(t *testing.T) {
	uri := os.Getenv("TASKBOARD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TASKBOARD_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	client, err := mongoInfra.NewClient(ctx, config.MongoConfig{URI: uri}, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	repotest.Run(t, func(t *testing.T) repository.TaskRepository {
		database := "taskboard_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		t.Cleanup(func() { _ = client.Database(database).Drop(ctx) })
		return NewTaskRepository(client, database, "tasks")
	})
}
