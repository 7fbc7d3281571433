package memory

import (
	"context"
	"sync"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskRepository struct {
	mu    sync.RWMutex
	tasks []domain.Task
}

// NewTaskRepository returns an array-backed TaskRepository. Records keep their
// insertion order, the way the demo collection serves them.
func NewTaskRepository(initial ...domain.Task) repository.TaskRepository {
	return &taskRepository{tasks: domain.CloneTasks(initial)}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrTaskNotFound
	}
	task := r.tasks[idx].Clone()
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if filter.Matches(task) {
			tasks = append(tasks, task.Clone())
		}
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(task.ID) >= 0 {
		return nil, domain.ErrTaskExists
	}
	r.tasks = append(r.tasks, task.Clone())
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(task.ID)
	if idx < 0 {
		return domain.ErrTaskNotFound
	}
	r.tasks[idx] = task.Clone()
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrTaskNotFound
	}
	deleted := r.tasks[idx]
	r.tasks = append(r.tasks[:idx], r.tasks[idx+1:]...)
	return &deleted, nil
}

func (r *taskRepository) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
