package usecase

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// Collection is the remote task collection as seen by the board cache.
// Failures are reported as *domain.OperationError.
type Collection interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	CreateTask(ctx context.Context, draft domain.Draft) (domain.Task, error)
	// UpdateTask replaces the whole record.
	UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error)
	// DeleteTask succeeds when the task is already gone.
	DeleteTask(ctx context.Context, id string) error
	AddComment(ctx context.Context, taskID, text, author string) (domain.Task, error)
}
