package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/fastygo/taskboard/domain"
)

//go:embed demo_tasks.json
var demoTasks []byte

// DemoTasks returns a fresh copy of the bundled demo board.
func DemoTasks() ([]domain.Task, error) {
	tasks, err := domain.DecodeTasks(demoTasks)
	if err != nil {
		return nil, fmt.Errorf("decode demo tasks: %w", err)
	}
	return tasks, nil
}

// SeedIfEmpty loads the demo board into repo when it holds no tasks.
// It returns the number of tasks inserted.
func SeedIfEmpty(ctx context.Context, repo TaskRepository) (int, error) {
	existing, err := repo.List(ctx, TaskFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	tasks, err := DemoTasks()
	if err != nil {
		return 0, err
	}
	for i := range tasks {
		if _, err := repo.Create(ctx, &tasks[i]); err != nil {
			return i, fmt.Errorf("seed task %s: %w", tasks[i].ID, err)
		}
	}
	return len(tasks), nil
}
