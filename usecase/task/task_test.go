package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
)

func newUseCase(initial ...domain.Task) *UseCase {
	uc := New(memory.NewTaskRepository(initial...), nil)
	n := 0
	uc.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return uc
}

func seedTask() domain.Task {
	return domain.Task{
		ID:       "1",
		Title:    "Design Homepage",
		Status:   domain.StatusTodo,
		Priority: domain.PriorityHigh,
		Tags:     []string{"design"},
	}
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and assigns id", func(t *testing.T) {
		uc := newUseCase()
		created, err := uc.CreateTask(ctx, domain.Draft{Title: "  Write docs "})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID != "id-1" {
			t.Fatalf("id = %q", created.ID)
		}
		if created.Title != "Write docs" {
			t.Fatalf("title not trimmed: %q", created.Title)
		}
		if created.Status != domain.StatusTodo || created.Priority != domain.PriorityMedium {
			t.Fatalf("defaults not applied: %s/%s", created.Status, created.Priority)
		}
		if created.Tags == nil || created.Comments == nil {
			t.Fatal("lists should be normalized to empty")
		}
	})

	t.Run("rejects invalid drafts", func(t *testing.T) {
		uc := newUseCase()
		cases := []domain.Draft{
			{Title: "   "},
			{Title: "x", Status: "blocked"},
			{Title: "x", Priority: "urgent"},
		}
		for _, draft := range cases {
			if _, err := uc.CreateTask(ctx, draft); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("draft %+v: expected INVALID, got %v", draft, err)
			}
		}
		all, _ := uc.ListTasks(ctx, repository.TaskFilter{})
		if len(all) != 0 {
			t.Fatalf("invalid drafts were stored: %d", len(all))
		}
	})
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	done := seedTask()
	done.ID = "2"
	done.Status = domain.StatusDone
	uc := newUseCase(seedTask(), done)

	all, err := uc.ListTasks(ctx, repository.TaskFilter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("list all = %d, %v", len(all), err)
	}

	filtered, err := uc.ListTasks(ctx, repository.TaskFilter{Status: domain.StatusDone})
	if err != nil || len(filtered) != 1 || filtered[0].ID != "2" {
		t.Fatalf("list done = %+v, %v", filtered, err)
	}

	if _, err := uc.ListTasks(ctx, repository.TaskFilter{Status: "later"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID for unknown status filter, got %v", err)
	}

	empty := newUseCase()
	got, err := empty.ListTasks(ctx, repository.TaskFilter{})
	if err != nil || got == nil {
		t.Fatalf("empty list should be non-nil: %v, %v", got, err)
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("merges partial payload and keeps path id", func(t *testing.T) {
		uc := newUseCase(seedTask())
		body := []byte(`{"id":"other","status":"in-progress","progress":40}`)

		updated, err := uc.UpdateTask(ctx, "1", func(task *domain.Task) error {
			return json.Unmarshal(body, task)
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.ID != "1" {
			t.Fatalf("path id should win, got %q", updated.ID)
		}
		if updated.Status != domain.StatusInProgress || updated.Progress == nil || *updated.Progress != 40 {
			t.Fatalf("merge not applied: %+v", updated)
		}
		if updated.Title != "Design Homepage" || len(updated.Tags) != 1 {
			t.Fatalf("untouched fields lost: %+v", updated)
		}

		if _, err := uc.GetTask(ctx, "other"); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("payload id must not create a record: %v", err)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		uc := newUseCase()
		_, err := uc.UpdateTask(ctx, "nope", func(*domain.Task) error { return nil })
		if !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("merge error is invalid payload", func(t *testing.T) {
		uc := newUseCase(seedTask())
		_, err := uc.UpdateTask(ctx, "1", func(*domain.Task) error { return errors.New("bad json") })
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Fatalf("expected INVALID, got %v", err)
		}
	})

	t.Run("result must stay valid", func(t *testing.T) {
		uc := newUseCase(seedTask())
		_, err := uc.UpdateTask(ctx, "1", func(task *domain.Task) error {
			task.Status = "archived"
			return nil
		})
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			t.Fatalf("expected INVALID, got %v", err)
		}
		stored, _ := uc.GetTask(ctx, "1")
		if stored.Status != domain.StatusTodo {
			t.Fatalf("invalid update was persisted: %s", stored.Status)
		}
	})
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(seedTask())

	deleted, err := uc.DeleteTask(ctx, "1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Title != "Design Homepage" {
		t.Fatalf("delete should return the removed record, got %+v", deleted)
	}
	if _, err := uc.DeleteTask(ctx, "1"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}
