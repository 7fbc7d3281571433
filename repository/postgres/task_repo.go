package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const taskColumns = `id, title, description, status, priority, start_date, due_date, progress, tags, assignees, comments, attachments`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR status = $1)
	ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" {
		return nil, domain.ErrInvalidPayload
	}

	lists, err := repository.EncodeLists(task)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if _, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		nullInt(task.Progress),
		lists.Tags,
		lists.Assignees,
		lists.Comments,
		lists.Attachments,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrTaskExists
		}
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	lists, err := repository.EncodeLists(task)
	if err != nil {
		return err
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		status = $4,
		priority = $5,
		start_date = $6,
		due_date = $7,
		progress = $8,
		tags = $9,
		assignees = $10,
		comments = $11,
		attachments = $12,
		updated_at = NOW()
	WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		nullTime(task.StartDate),
		nullTime(task.DueDate),
		nullInt(task.Progress),
		lists.Tags,
		lists.Assignees,
		lists.Comments,
		lists.Attachments,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 RETURNING ` + taskColumns
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		status, priority string
		start, due       *time.Time
		progress         *int
		lists            repository.TaskLists
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&start,
		&due,
		&progress,
		&lists.Tags,
		&lists.Assignees,
		&lists.Comments,
		&lists.Attachments,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	task.StartDate = toTimestamp(start)
	task.DueDate = toTimestamp(due)
	task.Progress = progress
	if err := repository.DecodeLists(&task, lists); err != nil {
		return nil, err
	}

	return &task, nil
}
