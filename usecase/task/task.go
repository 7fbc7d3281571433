package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// MergeFunc applies a partial update onto a copy of the stored task.
type MergeFunc func(task *domain.Task) error

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	newID  func() string

	// serializes read-merge-write cycles within this process
	mu sync.Mutex
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
		newID:  uuid.NewString,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.Invalidf("invalid status filter %q", filter.Status)
	}
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

// CreateTask stores a new task under a server-assigned identifier.
func (uc *UseCase) CreateTask(ctx context.Context, draft domain.Draft) (*domain.Task, error) {
	if draft.Status == "" {
		draft.Status = domain.StatusTodo
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	task := draft.Task()
	task.ID = uc.newID()
	task.Normalize()

	created, err := uc.tasks.Create(ctx, &task)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("task created", zap.String("task_id", created.ID), zap.String("status", string(created.Status)))
	return created, nil
}

// UpdateTask merges the supplied fields onto the stored record. The path
// identifier always wins over any id present in the payload.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, merge MergeFunc) (*domain.Task, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	current, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	if err := merge(&updated); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidPayload.Message, err)
	}
	updated.ID = id
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := uc.tasks.Update(ctx, &updated); err != nil {
		return nil, err
	}
	uc.logger.Info("task updated", zap.String("task_id", id), zap.String("status", string(updated.Status)))
	return &updated, nil
}

// DeleteTask removes the task and returns the record as it was.
func (uc *UseCase) DeleteTask(ctx context.Context, id string) (*domain.Task, error) {
	deleted, err := uc.tasks.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("task deleted", zap.String("task_id", id))
	return deleted, nil
}
