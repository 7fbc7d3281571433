package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// taskRepository keeps each task as a JSON string under <prefix>task:<id> and
// the board order in the list <prefix>tasks.
type taskRepository struct {
	client *redislib.Client
	prefix string
}

// NewTaskRepository creates a Redis-backed task repository.
func NewTaskRepository(client *redislib.Client, prefix string) repository.TaskRepository {
	return &taskRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return decode(result)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	ids, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	tasks := []domain.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// order entry without a record; a concurrent delete is in progress
			continue
		}
		task, err := decode(raw)
		if err != nil {
			return nil, err
		}
		if filter.Matches(*task) {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}

	created, err := r.client.SetNX(ctx, r.key(task.ID), payload, 0).Result()
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrTaskExists
	}
	if err := r.client.RPush(ctx, r.orderKey(), task.ID).Err(); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	updated, err := r.client.SetXX(ctx, r.key(task.ID), payload, 0).Result()
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	var get *redislib.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		get = pipe.Get(ctx, r.key(id))
		pipe.Del(ctx, r.key(id))
		pipe.LRem(ctx, r.orderKey(), 0, id)
		return nil
	})
	if err != nil && !errors.Is(err, redislib.Nil) {
		return nil, err
	}

	raw, err := get.Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return decode(raw)
}

func (r *taskRepository) key(id string) string {
	return fmt.Sprintf("%stask:%s", r.prefix, id)
}

func (r *taskRepository) orderKey() string {
	return r.prefix + "tasks"
}

func decode(raw string) (*domain.Task, error) {
	var task domain.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, err
	}
	task.Normalize()
	return &task, nil
}
