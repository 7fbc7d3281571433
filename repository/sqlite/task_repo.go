package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const taskColumns = `id, title, description, status, priority, start_date, due_date, progress, tags, assignees, comments, attachments`

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository returns a SQLite-backed TaskRepository.
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE (? = '' OR status = ?) ORDER BY position ASC`,
		string(filter.Status), string(filter.Status))
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

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		formatTime(task.StartDate),
		formatTime(task.DueDate),
		nullInt(task.Progress),
		string(lists.Tags),
		string(lists.Assignees),
		string(lists.Comments),
		string(lists.Attachments),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
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

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, start_date = ?, due_date = ?,
			progress = ?, tags = ?, assignees = ?, comments = ?, attachments = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		formatTime(task.StartDate),
		formatTime(task.DueDate),
		nullInt(task.Progress),
		string(lists.Tags),
		string(lists.Assignees),
		string(lists.Comments),
		string(lists.Attachments),
		task.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return task, nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task                                   domain.Task
		status, priority                       string
		start, due                             sql.NullString
		progress                               sql.NullInt64
		tags, assignees, comments, attachments string
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
		&tags,
		&assignees,
		&comments,
		&attachments,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	var err error
	if task.StartDate, err = parseTime(start); err != nil {
		return nil, err
	}
	if task.DueDate, err = parseTime(due); err != nil {
		return nil, err
	}
	if progress.Valid {
		v := int(progress.Int64)
		task.Progress = &v
	}
	lists := repository.TaskLists{
		Tags:        []byte(tags),
		Assignees:   []byte(assignees),
		Comments:    []byte(comments),
		Attachments: []byte(attachments),
	}
	if err := repository.DecodeLists(&task, lists); err != nil {
		return nil, err
	}
	return &task, nil
}

func formatTime(ts *domain.Timestamp) interface{} {
	if ts == nil || ts.IsZero() {
		return nil
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

func parseTime(value sql.NullString) (*domain.Timestamp, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	ts, err := domain.ParseTimestamp(value.String)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
