package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/usecase"
)

const defaultTimeout = 10 * time.Second

// Config configures the remote collection client.
type Config struct {
	// BaseURL is the collection root, e.g. http://localhost:8080/api.
	BaseURL string
	Timeout time.Duration
	// Dial overrides the network dialer; tests plug an in-memory listener here.
	Dial fasthttp.DialFunc
	Name string
}

// Client talks to the task collection over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	logger  *zap.Logger
	now     func() domain.Timestamp
}

var _ usecase.Collection = (*Client)(nil)

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Name == "" {
		cfg.Name = "kanban"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http: &fasthttp.Client{
			Name:         cfg.Name,
			Dial:         cfg.Dial,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		logger: logger,
		now:    domain.Now,
	}
}

func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, &domain.OperationError{Op: domain.OpFetch, Err: err}
	}
	if !isSuccess(status) {
		return nil, statusError(domain.OpFetch, "", status, body)
	}
	tasks, err := domain.DecodeTasks(body)
	if err != nil {
		return nil, &domain.OperationError{Op: domain.OpFetch, StatusCode: status, Err: err}
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return c.fetchOne(ctx, domain.OpFetch, id)
}

func (c *Client) CreateTask(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpCreate, Err: err}
	}
	status, body, err := c.do(ctx, http.MethodPost, "/tasks", payload)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpCreate, Err: err}
	}
	if !isSuccess(status) {
		return domain.Task{}, statusError(domain.OpCreate, "", status, body)
	}
	created, err := domain.DecodeTask(body)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpCreate, StatusCode: status, Err: err}
	}
	c.logger.Debug("task created remotely", zap.String("task_id", created.ID))
	return created, nil
}

func (c *Client) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpUpdate, TaskID: task.ID, Err: err}
	}
	status, body, err := c.do(ctx, http.MethodPut, taskPath(task.ID), payload)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpUpdate, TaskID: task.ID, Err: err}
	}
	if !isSuccess(status) {
		return domain.Task{}, statusError(domain.OpUpdate, task.ID, status, body)
	}
	updated, err := domain.DecodeTask(body)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: domain.OpUpdate, TaskID: task.ID, StatusCode: status, Err: err}
	}
	return updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	status, body, err := c.do(ctx, http.MethodDelete, taskPath(id), nil)
	if err != nil {
		return &domain.OperationError{Op: domain.OpDelete, TaskID: id, Err: err}
	}
	if status == http.StatusNotFound {
		c.logger.Debug("task already deleted", zap.String("task_id", id))
		return nil
	}
	if !isSuccess(status) {
		return statusError(domain.OpDelete, id, status, body)
	}
	return nil
}

// AddComment reads the task, appends the comment and writes the whole record
// back. Two concurrent calls on one task can lose a comment; the collection
// has no append endpoint.
func (c *Client) AddComment(ctx context.Context, taskID, text, author string) (domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Task{}, domain.Invalidf("comment text is required")
	}
	current, err := c.fetchOne(ctx, domain.OpCommentFetch, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	updated, comment := current.AppendComment(text, author, c.now())
	c.logger.Debug("appending comment", zap.String("task_id", taskID), zap.Int64("comment_id", comment.ID))
	return c.UpdateTask(ctx, updated)
}

func (c *Client) fetchOne(ctx context.Context, op domain.Operation, id string) (domain.Task, error) {
	status, body, err := c.do(ctx, http.MethodGet, taskPath(id), nil)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: op, TaskID: id, Err: err}
	}
	if !isSuccess(status) {
		return domain.Task{}, statusError(op, id, status, body)
	}
	task, err := domain.DecodeTask(body)
	if err != nil {
		return domain.Task{}, &domain.OperationError{Op: op, TaskID: id, StatusCode: status, Err: err}
	}
	return task, nil
}

type result struct {
	status int
	body   []byte
	err    error
}

// do performs one request. The fasthttp call runs on its own goroutine so a
// cancelled context returns at once; that goroutine owns req and resp.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(httpcontext.HeaderRequestID, requestID(ctx))
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	done := make(chan result, 1)
	go func() {
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{
			status: resp.StatusCode(),
			body:   append([]byte(nil), resp.Body()...),
		}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			c.logger.Debug("request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(r.err))
		}
		return r.status, r.body, r.err
	}
}

func requestID(ctx context.Context) string {
	if id := appLogger.RequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func statusError(op domain.Operation, id string, status int, body []byte) *domain.OperationError {
	opErr := &domain.OperationError{Op: op, TaskID: id, StatusCode: status}
	if status == http.StatusNotFound {
		opErr.Err = domain.ErrTaskNotFound
		return opErr
	}
	var payload transport.ErrorBody
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		opErr.Err = errors.New(payload.Error)
	}
	return opErr
}

// InmemoryDial adapts a listener-style dialer (such as fasthttputil.InmemoryListener.Dial)
// to fasthttp.DialFunc.
func InmemoryDial(dial func() (net.Conn, error)) fasthttp.DialFunc {
	return func(string) (net.Conn, error) {
		return dial()
	}
}
