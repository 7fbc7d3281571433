package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

// DummyJSONURL is the public demo todo collection.
const DummyJSONURL = "https://dummyjson.com/todos"

type dummyTodo struct {
	ID        int64  `json:"id"`
	Todo      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int64  `json:"userId"`
}

type dummyList struct {
	Todos []dummyTodo `json:"todos"`
}

// DummySource maps the DummyJSON todo API onto tasks. The demo API accepts
// writes without storing them, so comments are kept locally on top of the
// fetched records.
type DummySource struct {
	base   *Client
	limit  int
	logger *zap.Logger

	mu       sync.Mutex
	comments map[string][]domain.Comment
}

var _ usecase.Collection = (*DummySource)(nil)

func NewDummySource(cfg Config, logger *zap.Logger) *DummySource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DummyJSONURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DummySource{
		base:     New(cfg, logger),
		limit:    30,
		logger:   logger,
		comments: make(map[string][]domain.Comment),
	}
}

func (d *DummySource) ListTasks(ctx context.Context) ([]domain.Task, error) {
	status, body, err := d.base.do(ctx, http.MethodGet, "?limit="+strconv.Itoa(d.limit), nil)
	if err != nil {
		return nil, &domain.OperationError{Op: domain.OpFetch, Err: err}
	}
	if !isSuccess(status) {
		return nil, statusError(domain.OpFetch, "", status, body)
	}
	var list dummyList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &domain.OperationError{Op: domain.OpFetch, StatusCode: status,
			Err: domain.WrapError(domain.ErrCodeInvalid, domain.ErrMalformedRecord.Message, err)}
	}
	now := time.Now().UTC()
	tasks := make([]domain.Task, 0, len(list.Todos))
	for _, todo := range list.Todos {
		task, err := validTodo(todo, now)
		if err != nil {
			return nil, &domain.OperationError{Op: domain.OpFetch, StatusCode: status, Err: err}
		}
		tasks = append(tasks, d.withComments(task))
	}
	return tasks, nil
}

func (d *DummySource) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return d.fetchOne(ctx, domain.OpFetch, id)
}

func (d *DummySource) CreateTask(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"todo":      draft.Title,
		"completed": draft.Status == domain.StatusDone,
		"userId":    1,
	})
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpCreate, Err: err}
	}
	status, body, err := d.base.do(ctx, http.MethodPost, "/add", payload)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpCreate, Err: err}
	}
	if !isSuccess(status) {
		return domain.Task{}, statusError(domain.OpCreate, "", status, body)
	}
	var created dummyTodo
	if err := json.Unmarshal(body, &created); err != nil || created.ID == 0 {
		return domain.Task{}, &domain.OperationError{Op: domain.OpCreate, StatusCode: status,
			Err: domain.WrapError(domain.ErrCodeInvalid, domain.ErrMalformedRecord.Message, err)}
	}
	task := draft.Task()
	task.ID = strconv.FormatInt(created.ID, 10)
	task.Normalize()
	return task, nil
}

// UpdateTask echoes the task back once the demo API accepted the title and completion flag.
func (d *DummySource) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"todo":      task.Title,
		"completed": task.Status == domain.StatusDone,
	})
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpUpdate, TaskID: task.ID, Err: err}
	}
	status, body, err := d.base.do(ctx, http.MethodPut, "/"+task.ID, payload)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpUpdate, TaskID: task.ID, Err: err}
	}
	if !isSuccess(status) {
		return domain.Task{}, statusError(domain.OpUpdate, task.ID, status, body)
	}
	return task.Clone(), nil
}

func (d *DummySource) DeleteTask(ctx context.Context, id string) error {
	status, body, err := d.base.do(ctx, http.MethodDelete, "/"+id, nil)
	if err != nil {
		return &domain.OperationError{Op: domain.OpDelete, TaskID: id, Err: err}
	}
	if status == http.StatusNotFound {
		return nil
	}
	if !isSuccess(status) {
		return statusError(domain.OpDelete, id, status, body)
	}
	d.mu.Lock()
	delete(d.comments, id)
	d.mu.Unlock()
	return nil
}

func (d *DummySource) AddComment(ctx context.Context, taskID, text, author string) (domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Task{}, domain.Invalidf("comment text is required")
	}
	task, err := d.fetchOne(ctx, domain.OpCommentFetch, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	updated, comment := task.AppendComment(text, author, d.base.now())

	d.mu.Lock()
	d.comments[taskID] = append(d.comments[taskID], comment)
	d.mu.Unlock()
	return updated, nil
}

func (d *DummySource) fetchOne(ctx context.Context, op domain.Operation, id string) (domain.Task, error) {
	status, body, err := d.base.do(ctx, http.MethodGet, "/"+id, nil)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: op, TaskID: id, Err: err}
	}
	if !isSuccess(status) {
		return domain.Task{}, statusError(op, id, status, body)
	}
	var todo dummyTodo
	if err := json.Unmarshal(body, &todo); err != nil || todo.ID == 0 {
		return domain.Task{}, &domain.OperationError{Op: op, TaskID: id, StatusCode: status,
			Err: domain.WrapError(domain.ErrCodeInvalid, domain.ErrMalformedRecord.Message, err)}
	}
	task, err := validTodo(todo, time.Now().UTC())
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: op, TaskID: id, StatusCode: status, Err: err}
	}
	return d.withComments(task), nil
}

// validTodo maps a todo and holds it to the same checks as a collection record.
func validTodo(todo dummyTodo, now time.Time) (domain.Task, error) {
	task := mapTodo(todo, now)
	if err := task.Validate(); err != nil {
		return domain.Task{}, domain.WrapError(domain.ErrCodeInvalid, domain.ErrMalformedRecord.Message, err)
	}
	return task, nil
}

func (d *DummySource) withComments(task domain.Task) domain.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	if local := d.comments[task.ID]; len(local) > 0 {
		task.Comments = append(append([]domain.Comment{}, task.Comments...), local...)
	}
	return task
}

var dummyPriorities = []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh}

// mapTodo derives every task field from the todo id so repeated fetches agree.
func mapTodo(todo dummyTodo, now time.Time) domain.Task {
	var status domain.Status
	switch todo.ID % 3 {
	case 0:
		status = domain.StatusTodo
	case 1:
		status = domain.StatusInProgress
	default:
		status = domain.StatusDone
	}

	var progress int
	switch status {
	case domain.StatusDone:
		progress = 100
	case domain.StatusInProgress:
		progress = 20 + int(todo.ID*37%60)
	}

	day := now.Truncate(24 * time.Hour)
	start := domain.NewTimestamp(day.AddDate(0, 0, -int(todo.ID%7)))
	due := domain.NewTimestamp(day.AddDate(0, 0, int(todo.ID%14)+1))

	task := domain.Task{
		ID:          strconv.FormatInt(todo.ID, 10),
		Title:       todo.Todo,
		Description: fmt.Sprintf("Task from DummyJSON API - User %d", todo.UserID),
		Status:      status,
		Priority:    dummyPriorities[todo.ID%3],
		StartDate:   &start,
		DueDate:     &due,
		Progress:    &progress,
		Tags:        []string{"api", "dummy"},
		Assignees: []domain.Assignee{{
			ID:     todo.UserID,
			Name:   fmt.Sprintf("User %d", todo.UserID),
			Avatar: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=User%d", todo.UserID),
			Color:  "bg-blue-500",
		}},
	}
	task.Normalize()
	return task
}
