package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskboard/domain"
)

type memCollection struct {
	mu        sync.Mutex
	tasks     []domain.Task
	nextID    int
	failWrite bool
}

func newMemCollection() *memCollection {
	due, _ := domain.ParseTimestamp("2024-01-20")
	progress := 60
	return &memCollection{
		nextID: 100,
		tasks: []domain.Task{
			{ID: "1", Title: "Design Homepage", Status: domain.StatusTodo, Priority: domain.PriorityHigh, DueDate: &due,
				Assignees: []domain.Assignee{{ID: 1, Name: "Sarah Johnson"}}},
			{ID: "2", Title: "API Integration", Status: domain.StatusInProgress, Priority: domain.PriorityMedium, Progress: &progress,
				Assignees: []domain.Assignee{{ID: 2, Name: "Mike Chen"}}},
			{ID: "3", Title: "Write Tests", Status: domain.StatusDone, Priority: domain.PriorityLow,
				Assignees: []domain.Assignee{{ID: 1, Name: "Sarah Johnson"}}},
		},
	}
}

func (m *memCollection) find(id string) int {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *memCollection) failure(op domain.Operation, id string) error {
	return &domain.OperationError{Op: op, TaskID: id, StatusCode: http.StatusInternalServerError, Err: errors.New("unavailable")}
}

func (m *memCollection) ListTasks(context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneTasks(m.tasks), nil
}

func (m *memCollection) GetTask(_ context.Context, id string) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(id); i >= 0 {
		return m.tasks[i].Clone(), nil
	}
	return domain.Task{}, &domain.OperationError{Op: domain.OpFetch, TaskID: id, StatusCode: http.StatusNotFound, Err: domain.ErrTaskNotFound}
}

func (m *memCollection) CreateTask(_ context.Context, draft domain.Draft) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return domain.Task{}, m.failure(domain.OpCreate, "")
	}
	task := draft.Task()
	task.ID = fmt.Sprint(m.nextID)
	m.nextID++
	task.Normalize()
	m.tasks = append(m.tasks, task)
	return task.Clone(), nil
}

func (m *memCollection) UpdateTask(_ context.Context, task domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return domain.Task{}, m.failure(domain.OpUpdate, task.ID)
	}
	i := m.find(task.ID)
	if i < 0 {
		return domain.Task{}, &domain.OperationError{Op: domain.OpUpdate, TaskID: task.ID, StatusCode: http.StatusNotFound, Err: domain.ErrTaskNotFound}
	}
	m.tasks[i] = task.Clone()
	return task.Clone(), nil
}

func (m *memCollection) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return m.failure(domain.OpDelete, id)
	}
	if i := m.find(id); i >= 0 {
		m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
	}
	return nil
}

func (m *memCollection) AddComment(ctx context.Context, id, text, author string) (domain.Task, error) {
	current, err := m.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	updated, _ := current.AppendComment(text, author, domain.Now())
	return m.UpdateTask(ctx, updated)
}

type mapPrefs map[string]string

func (p mapPrefs) Get(key string) (string, error) { return p[key], nil }

func (p mapPrefs) Set(key, value string) error {
	p[key] = value
	return nil
}

type harness struct {
	remote *memCollection
	prefs  mapPrefs
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{"KANBAN_LANG", "KANBAN_SOURCE", "KANBAN_API_URL", "KANBAN_AUTHOR", "STORAGE_DRIVER"} {
		t.Setenv(key, "")
	}
	return &harness{
		remote: newMemCollection(),
		prefs:  mapPrefs{},
		now:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), args, Options{
		Out:        &out,
		Err:        &errOut,
		Collection: h.remote,
		Prefs:      h.prefs,
		Now:        func() time.Time { return h.now },
	})
	return out.String(), err
}

func (h *harness) task(t *testing.T, id string) domain.Task {
	t.Helper()
	task, err := h.remote.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("remote task %s: %v", id, err)
	}
	return task
}

func TestListCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Design Homepage", "API Integration", "Write Tests", "3 tasks", "2024-01-20 (", "from now"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = h.run(t, "list", "--priority", "high,medium", "--status", "todo")
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if !strings.Contains(out, "Design Homepage") || strings.Contains(out, "API Integration") || !strings.Contains(out, "1 task") {
		t.Fatalf("filtered output:\n%s", out)
	}

	out, err = h.run(t, "list", "-q", "nothing matches")
	if err != nil || !strings.Contains(out, "No tasks found") {
		t.Fatalf("empty list: %v\n%s", err, out)
	}

	if _, err := h.run(t, "list", "--priority", "urgent"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("bad priority: %v", err)
	}
	if _, err := h.run(t, "list", "--sort", "owner"); err == nil {
		t.Fatal("bad sort field accepted")
	}

	out, err = h.run(t, "list", "--sort", "title")
	if err != nil {
		t.Fatalf("sorted list: %v", err)
	}
	if strings.Index(out, "API Integration") > strings.Index(out, "Design Homepage") {
		t.Fatalf("not sorted by title:\n%s", out)
	}
}

func TestBoardAndViews(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "board")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	for _, want := range []string{"Kanban Board", "To Do (1)", "In Progress (1)", "Done (1)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("board output missing %q:\n%s", want, out)
		}
	}

	out, err = h.run(t, "show", "2")
	if err != nil || !strings.Contains(out, "API Integration") || !strings.Contains(out, "60%") {
		t.Fatalf("show: %v\n%s", err, out)
	}
	if _, err := h.run(t, "show", "42"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("show missing: %v", err)
	}

	out, err = h.run(t, "team")
	if err != nil || !strings.Contains(out, "Sarah Johnson") || !strings.Contains(out, "50%") {
		t.Fatalf("team: %v\n%s", err, out)
	}
	out, err = h.run(t, "team", "-q", "mike")
	if err != nil || strings.Contains(out, "Sarah") {
		t.Fatalf("team search: %v\n%s", err, out)
	}

	out, err = h.run(t, "stats")
	if err != nil || !strings.Contains(out, "Total Tasks") || !strings.Contains(out, "33%") {
		t.Fatalf("stats: %v\n%s", err, out)
	}

	out, err = h.run(t, "calendar")
	if err != nil || !strings.Contains(out, "2024-01-20") || !strings.Contains(out, "Design Homepage") {
		t.Fatalf("calendar: %v\n%s", err, out)
	}
}

func TestMutatingCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "add", "--title", "Write docs", "--due", "2024-02-01", "--assignee", "Emma Davis", "--tag", "docs")
	if err != nil || !strings.Contains(out, "Created task 100") {
		t.Fatalf("add: %v\n%s", err, out)
	}
	created := h.task(t, "100")
	if created.Priority != domain.PriorityMedium || created.Status != domain.StatusTodo || len(created.Assignees) != 1 || created.DueDate == nil {
		t.Fatalf("created = %+v", created)
	}

	if _, err := h.run(t, "add", "--title", "  "); err == nil || !strings.Contains(err.Error(), "Title is required") {
		t.Fatalf("blank title: %v", err)
	}

	out, err = h.run(t, "edit", "100", "--priority", "high", "--progress", "20")
	if err != nil || !strings.Contains(out, "Updated task 100") {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	edited := h.task(t, "100")
	if edited.Priority != domain.PriorityHigh || *edited.Progress != 20 || edited.Title != "Write docs" {
		t.Fatalf("edited = %+v", edited)
	}

	out, err = h.run(t, "move", "1", "done")
	if err != nil || !strings.Contains(out, "Moved task 1 to Done") {
		t.Fatalf("move: %v\n%s", err, out)
	}
	if h.task(t, "1").Status != domain.StatusDone {
		t.Fatal("move not stored")
	}
	if _, err := h.run(t, "move", "1", "blocked"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("bad move: %v", err)
	}

	out, err = h.run(t, "comment", "--author", "Sarah", "2", "Looks", "good")
	if err != nil || !strings.Contains(out, "Comment added to task 2") {
		t.Fatalf("comment: %v\n%s", err, out)
	}
	comments := h.task(t, "2").Comments
	if len(comments) != 1 || comments[0].Text != "Looks good" || comments[0].Author != "Sarah" {
		t.Fatalf("comments = %+v", comments)
	}

	out, err = h.run(t, "rm", "3")
	if err != nil || !strings.Contains(out, "Deleted task 3") {
		t.Fatalf("rm: %v\n%s", err, out)
	}
	if _, err := h.remote.GetTask(context.Background(), "3"); err == nil {
		t.Fatal("task 3 still stored")
	}
}

func TestRemoteFailureIsReportedAsRollback(t *testing.T) {
	h := newHarness(t)
	h.remote.failWrite = true

	_, err := h.run(t, "move", "1", "done")
	if err == nil || !strings.HasPrefix(err.Error(), "Change rolled back") || !domain.IsOperation(err, domain.OpUpdate) {
		t.Fatalf("move: %v", err)
	}
	_, err = h.run(t, "delete", "1")
	if err == nil || !domain.IsOperation(err, domain.OpDelete) {
		t.Fatalf("delete: %v", err)
	}
	if h.task(t, "1").Status != domain.StatusTodo {
		t.Fatal("remote changed despite failure")
	}
}

func TestFailedCreateIsNotReportedAsRollback(t *testing.T) {
	h := newHarness(t)
	h.remote.failWrite = true

	_, err := h.run(t, "add", "--title", "Release notes")
	if err == nil || !strings.HasPrefix(err.Error(), "Could not create the task") || !domain.IsOperation(err, domain.OpCreate) {
		t.Fatalf("add: %v", err)
	}
	if strings.Contains(err.Error(), "rolled back") {
		t.Fatalf("create applies nothing before the reply: %v", err)
	}
}

func TestEditClearsOptionalFields(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "edit", "1", "--description", "draft copy", "--start", "2024-01-10"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if _, err := h.run(t, "edit", "1", "--description", "", "--start", "", "--due", ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	task := h.task(t, "1")
	if task.Description != "" || task.StartDate != nil || task.DueDate != nil {
		t.Fatalf("fields not cleared: %+v", task)
	}
	if task.Title != "Design Homepage" {
		t.Fatalf("untouched field changed: %q", task.Title)
	}
}

func TestPreferencesAndLanguage(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "prefs", "theme", "dark")
	if err != nil || !strings.Contains(out, "Theme set to dark") {
		t.Fatalf("theme: %v\n%s", err, out)
	}
	if h.prefs["theme"] != "dark" {
		t.Fatalf("prefs = %v", h.prefs)
	}

	if _, err := h.run(t, "prefs", "lang", "fr-CA"); err != nil {
		t.Fatalf("lang: %v", err)
	}
	out, err = h.run(t, "prefs")
	if err != nil || !strings.Contains(out, "dark") || !strings.Contains(out, "fr") {
		t.Fatalf("prefs: %v\n%s", err, out)
	}

	out, err = h.run(t, "list")
	if err != nil || !strings.Contains(out, "3 tâches") {
		t.Fatalf("french list: %v\n%s", err, out)
	}

	out, err = h.run(t, "--lang", "en", "list")
	if err != nil || !strings.Contains(out, "3 tasks") {
		t.Fatalf("flag should override stored language: %v\n%s", err, out)
	}

	if _, err := h.run(t, "prefs", "theme", "neon"); err == nil {
		t.Fatal("bad theme accepted")
	}
}
