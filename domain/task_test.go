package domain

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestTaskCloneIsDeep(t *testing.T) {
	due := NewTimestamp(time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC))
	original := Task{
		ID:        "a1",
		Title:     "Review",
		Status:    StatusTodo,
		Priority:  PriorityHigh,
		DueDate:   &due,
		Progress:  intPtr(10),
		Tags:      []string{"hr"},
		Assignees: []Assignee{{ID: 1, Name: "Sarah"}},
		Comments:  []Comment{{ID: 1, Text: "hi", Author: "X"}},
	}

	clone := original.Clone()
	clone.Tags[0] = "changed"
	clone.Assignees[0].Name = "changed"
	clone.Comments[0].Text = "changed"
	*clone.Progress = 99
	clone.DueDate.Time = clone.DueDate.AddDate(1, 0, 0)

	if original.Tags[0] != "hr" || original.Assignees[0].Name != "Sarah" || original.Comments[0].Text != "hi" {
		t.Fatalf("clone shares list storage with original: %+v", original)
	}
	if *original.Progress != 10 {
		t.Fatalf("clone shares progress pointer")
	}
	if !original.DueDate.Equal(due.Time) {
		t.Fatalf("clone shares due date pointer")
	}
}

func TestNormalize(t *testing.T) {
	task := Task{ID: "x", Title: "  padded  "}
	task.Normalize()

	if task.Title != "padded" {
		t.Fatalf("title not trimmed: %q", task.Title)
	}
	if task.Tags == nil || task.Assignees == nil || task.Comments == nil || task.Attachments == nil {
		t.Fatalf("lists must be non-nil after Normalize: %+v", task)
	}
}

func TestAppendComment(t *testing.T) {
	at := NewTimestamp(time.UnixMilli(1_700_000_000_000))
	task := Task{ID: "1", Title: "T", Status: StatusTodo, Priority: PriorityLow}

	first, c1 := task.AppendComment("hi", "X", at)
	if len(task.Comments) != 0 {
		t.Fatalf("AppendComment mutated the receiver")
	}
	if len(first.Comments) != 1 || first.Comments[0].Text != "hi" || c1.Author != "X" {
		t.Fatalf("unexpected comments %+v", first.Comments)
	}
	if c1.ID != at.UnixMilli() {
		t.Fatalf("comment id %d, want %d", c1.ID, at.UnixMilli())
	}

	second, c2 := first.AppendComment("again", "Y", at)
	if c2.ID <= c1.ID {
		t.Fatalf("ids must increase within the same millisecond: %d then %d", c1.ID, c2.ID)
	}
	if len(second.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(second.Comments))
	}
}

func TestTaskPatchApply(t *testing.T) {
	base := Task{ID: "1", Title: "Old", Status: StatusTodo, Priority: PriorityLow, Tags: []string{"a"}}
	title := "New"
	status := StatusDone

	out := TaskPatch{Title: &title, Status: &status}.Apply(base)

	if out.Title != "New" || out.Status != StatusDone {
		t.Fatalf("patch not applied: %+v", out)
	}
	if out.Priority != PriorityLow || len(out.Tags) != 1 {
		t.Fatalf("untouched fields changed: %+v", out)
	}
	if base.Title != "Old" {
		t.Fatalf("Apply mutated its input")
	}
}

func TestValidate(t *testing.T) {
	valid := Task{ID: "1", Title: "T", Status: StatusTodo, Priority: PriorityMedium}

	tests := []struct {
		name   string
		mutate func(*Task)
		ok     bool
	}{
		{name: "valid", mutate: func(*Task) {}, ok: true},
		{name: "missing id", mutate: func(t *Task) { t.ID = "" }},
		{name: "blank title", mutate: func(t *Task) { t.Title = "   " }},
		{name: "unknown status", mutate: func(t *Task) { t.Status = "blocked" }},
		{name: "unknown priority", mutate: func(t *Task) { t.Priority = "urgent" }},
		{name: "progress above 100", mutate: func(t *Task) { t.Progress = intPtr(101) }},
		{name: "progress negative", mutate: func(t *Task) { t.Progress = intPtr(-1) }},
		{name: "done with zero progress", mutate: func(t *Task) { t.Status = StatusDone; t.Progress = intPtr(0) }, ok: true},
		{name: "empty comment", mutate: func(t *Task) { t.Comments = []Comment{{ID: 1, Text: " "}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := valid.Clone()
			tt.mutate(&task)
			err := task.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !IsDomainError(err, ErrCodeInvalid) {
					t.Fatalf("expected INVALID code, got %v", err)
				}
			}
		})
	}
}

func TestDecodeTask(t *testing.T) {
	t.Run("accepts date-only and full timestamps", func(t *testing.T) {
		task, err := DecodeTask([]byte(`{"id":"1","title":"T","status":"todo","priority":"low","startDate":"2026-02-05","dueDate":"2026-02-12T10:30:00.000Z"}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if task.StartDate == nil || task.StartDate.Format("2006-01-02") != "2026-02-05" {
			t.Fatalf("start date %v", task.StartDate)
		}
		if task.DueDate == nil || task.DueDate.Hour() != 10 {
			t.Fatalf("due date %v", task.DueDate)
		}
		if task.Comments == nil {
			t.Fatal("decoded task must be normalized")
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := DecodeTask([]byte(`{"id":"1","title":"T","status":"blocked","priority":"low"}`))
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("expected malformed record, got %v", err)
		}
	})

	t.Run("rejects wrong types", func(t *testing.T) {
		_, err := DecodeTask([]byte(`{"id":1,"title":"T","status":"todo","priority":"low"}`))
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("expected malformed record, got %v", err)
		}
	})

	t.Run("one bad record rejects the list", func(t *testing.T) {
		_, err := DecodeTasks([]byte(`[{"id":"1","title":"T","status":"todo","priority":"low"},{"id":"2","title":"","status":"todo","priority":"low"}]`))
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("expected malformed record, got %v", err)
		}
	})

	t.Run("empty list is not an error", func(t *testing.T) {
		tasks, err := DecodeTasks([]byte(`[]`))
		if err != nil || len(tasks) != 0 {
			t.Fatalf("got %v, %v", tasks, err)
		}
	})
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC))
	out, err := ts.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2026-02-05T10:00:00Z"` {
		t.Fatalf("unexpected encoding %s", out)
	}

	var back Timestamp
	if err := back.UnmarshalJSON([]byte(`"2026-02-05"`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Day() != 5 {
		t.Fatalf("unexpected day %v", back)
	}
	if err := back.UnmarshalJSON([]byte(`"yesterday"`)); err == nil {
		t.Fatal("expected error for free text")
	}
}

func TestOperationError(t *testing.T) {
	err := error(&OperationError{Op: OpUpdate, TaskID: "1", StatusCode: http.StatusNotFound, Err: ErrTaskNotFound})

	if !IsOperation(err, OpUpdate) || IsOperation(err, OpDelete) {
		t.Fatalf("IsOperation mismatch for %v", err)
	}
	if !IsNotFound(err) {
		t.Fatalf("expected not found")
	}
	if got := err.Error(); got != "update 1 failed (status 404): task not found" {
		t.Fatalf("unexpected message %q", got)
	}

	wrapped := WrapError(ErrCodeNotFound, ErrTaskNotFound.Message, errors.New("row missing"))
	if !errors.Is(wrapped, ErrTaskNotFound) {
		t.Fatal("wrapped copy must match the sentinel")
	}
}

func TestTaskPatchClearsOptionalFields(t *testing.T) {
	day := NewTimestamp(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	task := Task{ID: "1", Title: "A", Status: StatusTodo, Priority: PriorityLow,
		Description: "old", StartDate: &day, DueDate: &day, Progress: intPtr(40)}

	empty := ""
	got := TaskPatch{Description: &empty, ClearStartDate: true, ClearDueDate: true, ClearProgress: true}.Apply(task)
	if got.Description != "" || got.StartDate != nil || got.DueDate != nil || got.Progress != nil {
		t.Fatalf("patched = %+v", got)
	}
	if task.StartDate == nil || task.Progress == nil {
		t.Fatal("Apply must not modify its input")
	}
}

func TestClearedFieldsAreSentOnTheWire(t *testing.T) {
	body, err := json.Marshal(Task{ID: "1", Title: "A", Status: StatusTodo, Priority: PriorityLow})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"description":""`, `"startDate":null`, `"dueDate":null`, `"progress":null`} {
		if !strings.Contains(string(body), field) {
			t.Errorf("%s missing from %s", field, body)
		}
	}

	day := NewTimestamp(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	stored := Task{ID: "1", Title: "A", Description: "old", DueDate: &day, Progress: intPtr(10)}
	if err := json.Unmarshal(body, &stored); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if stored.Description != "" || stored.DueDate != nil || stored.Progress != nil {
		t.Fatalf("merge kept cleared fields: %+v", stored)
	}
}
