package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// TaskFilter narrows a listing. The zero value lists everything.
type TaskFilter struct {
	Status domain.Status
}

// Matches reports whether the task passes the filter.
func (f TaskFilter) Matches(task domain.Task) bool {
	return f.Status == "" || task.Status == f.Status
}

// TaskRepository stores the task collection. Implementations keep insertion order.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) (*domain.Task, error)
}

// Pinger is implemented by repositories backed by an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}
