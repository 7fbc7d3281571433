// Package repotest holds the behavior every TaskRepository backend must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) repository.TaskRepository

func task(id, title string, status domain.Status) domain.Task {
	t := domain.Task{ID: id, Title: title, Status: status, Priority: domain.PriorityMedium}
	t.Normalize()
	return t
}

// Run exercises the TaskRepository contract against newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("keeps insertion order", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"c", "a", "b"} {
			tk := task(id, "task "+id, domain.StatusTodo)
			if _, err := repo.Create(ctx, &tk); err != nil {
				t.Fatalf("create %s: %v", id, err)
			}
		}
		tasks, err := repo.List(ctx, repository.TaskFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tasks) != 3 || tasks[0].ID != "c" || tasks[1].ID != "a" || tasks[2].ID != "b" {
			t.Fatalf("unexpected order %v", ids(tasks))
		}
	})

	t.Run("round trips every field", func(t *testing.T) {
		repo := newRepo(t)
		start := domain.NewTimestamp(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
		due := domain.NewTimestamp(time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC))
		progress := 65
		full := domain.Task{
			ID:          "full",
			Title:       "Onboarding",
			Description: "Write the guide",
			Status:      domain.StatusInProgress,
			Priority:    domain.PriorityHigh,
			StartDate:   &start,
			DueDate:     &due,
			Progress:    &progress,
			Tags:        []string{"onboarding", "docs"},
			Assignees:   []domain.Assignee{{ID: 3, Name: "Emma Wilson", Avatar: "a.svg", Color: "bg-green-500"}},
			Comments: []domain.Comment{{
				ID: 1, Text: "Draft ready", Author: "Emma Wilson",
				CreatedAt: domain.NewTimestamp(time.Date(2026, 2, 3, 14, 30, 0, 0, time.UTC)),
			}},
			Attachments: []domain.Attachment{{ID: 1, Name: "guide.pdf", URL: "#", Type: "pdf"}},
		}
		if _, err := repo.Create(ctx, &full); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByID(ctx, "full")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != full.Title || got.Description != full.Description || got.Status != full.Status || got.Priority != full.Priority {
			t.Fatalf("scalar fields differ: %+v", got)
		}
		if got.StartDate == nil || !got.StartDate.Equal(start.Time) || got.DueDate == nil || !got.DueDate.Equal(due.Time) {
			t.Fatalf("dates differ: %v %v", got.StartDate, got.DueDate)
		}
		if got.Progress == nil || *got.Progress != 65 {
			t.Fatalf("progress differs: %v", got.Progress)
		}
		if len(got.Tags) != 2 || len(got.Assignees) != 1 || got.Assignees[0].Name != "Emma Wilson" {
			t.Fatalf("lists differ: %+v", got)
		}
		if len(got.Comments) != 1 || !got.Comments[0].CreatedAt.Equal(full.Comments[0].CreatedAt.Time) {
			t.Fatalf("comments differ: %+v", got.Comments)
		}
		if len(got.Attachments) != 1 || got.Attachments[0].Name != "guide.pdf" {
			t.Fatalf("attachments differ: %+v", got.Attachments)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		repo := newRepo(t)
		for i, s := range []domain.Status{domain.StatusTodo, domain.StatusDone, domain.StatusTodo} {
			tk := task(string(rune('a'+i)), "t", s)
			if _, err := repo.Create(ctx, &tk); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		todo, err := repo.List(ctx, repository.TaskFilter{Status: domain.StatusTodo})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(todo) != 2 {
			t.Fatalf("expected 2 todo tasks, got %v", ids(todo))
		}
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		repo := newRepo(t)
		tk := task("dup", "t", domain.StatusTodo)
		if _, err := repo.Create(ctx, &tk); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Create(ctx, &tk); !errors.Is(err, domain.ErrTaskExists) {
			t.Fatalf("expected ErrTaskExists, got %v", err)
		}
	})

	t.Run("updates in place", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"1", "2"} {
			tk := task(id, "t"+id, domain.StatusTodo)
			if _, err := repo.Create(ctx, &tk); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		updated := task("1", "renamed", domain.StatusDone)
		if err := repo.Update(ctx, &updated); err != nil {
			t.Fatalf("update: %v", err)
		}
		tasks, _ := repo.List(ctx, repository.TaskFilter{})
		if tasks[0].ID != "1" || tasks[0].Title != "renamed" || tasks[0].Status != domain.StatusDone {
			t.Fatalf("update lost position or fields: %+v", tasks)
		}

		missing := task("nope", "t", domain.StatusTodo)
		if err := repo.Update(ctx, &missing); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("update clears optional fields", func(t *testing.T) {
		repo := newRepo(t)
		day := domain.NewTimestamp(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
		progress := 40
		tk := task("x", "clear me", domain.StatusTodo)
		tk.Description = "old"
		tk.StartDate = &day
		tk.DueDate = &day
		tk.Progress = &progress
		if _, err := repo.Create(ctx, &tk); err != nil {
			t.Fatalf("create: %v", err)
		}

		tk.Description = ""
		tk.StartDate, tk.DueDate, tk.Progress = nil, nil, nil
		if err := repo.Update(ctx, &tk); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := repo.GetByID(ctx, "x")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Description != "" || got.StartDate != nil || got.DueDate != nil || got.Progress != nil {
			t.Fatalf("cleared fields came back: %+v", got)
		}
	})

	t.Run("delete returns the removed task", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{"1", "2"} {
			tk := task(id, "t"+id, domain.StatusTodo)
			if _, err := repo.Create(ctx, &tk); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		deleted, err := repo.Delete(ctx, "1")
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if deleted.ID != "1" || deleted.Title != "t1" {
			t.Fatalf("unexpected deleted record %+v", deleted)
		}
		tasks, _ := repo.List(ctx, repository.TaskFilter{})
		if len(tasks) != 1 || tasks[0].ID != "2" {
			t.Fatalf("unexpected remaining %v", ids(tasks))
		}
		if _, err := repo.Delete(ctx, "1"); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
		if _, err := repo.GetByID(ctx, "1"); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("seeds demo tasks once", func(t *testing.T) {
		repo := newRepo(t)
		n, err := repository.SeedIfEmpty(ctx, repo)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		demo, _ := repository.DemoTasks()
		if n != len(demo) || n == 0 {
			t.Fatalf("seeded %d, want %d", n, len(demo))
		}
		again, err := repository.SeedIfEmpty(ctx, repo)
		if err != nil || again != 0 {
			t.Fatalf("second seed inserted %d (%v)", again, err)
		}
		tasks, _ := repo.List(ctx, repository.TaskFilter{})
		if tasks[0].ID != demo[0].ID || tasks[len(tasks)-1].ID != demo[len(demo)-1].ID {
			t.Fatalf("seed order differs: %v", ids(tasks))
		}
	})
}

func ids(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
