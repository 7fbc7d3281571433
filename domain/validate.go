package domain

import (
	"encoding/json"
	"strings"
)

// Validate checks the invariants every stored or decoded task must hold.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return Invalidf("task id is required")
	}
	return validateFields(t.Title, t.Status, t.Priority, t.Progress, t.Comments)
}

// Validate checks a draft before it is sent for creation.
func (d Draft) Validate() error {
	return validateFields(d.Title, d.Status, d.Priority, d.Progress, d.Comments)
}

func validateFields(title string, status Status, priority Priority, progress *int, comments []Comment) error {
	if strings.TrimSpace(title) == "" {
		return Invalidf("title is required")
	}
	if !status.IsValid() {
		return Invalidf("invalid status %q", status)
	}
	if !priority.IsValid() {
		return Invalidf("invalid priority %q", priority)
	}
	if progress != nil && (*progress < 0 || *progress > 100) {
		return Invalidf("progress %d out of range 0-100", *progress)
	}
	for _, c := range comments {
		if strings.TrimSpace(c.Text) == "" {
			return Invalidf("comment %d has empty text", c.ID)
		}
	}
	return nil
}

// DecodeTask strictly decodes one task record.
func DecodeTask(data []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return Task{}, WrapError(ErrCodeInvalid, ErrMalformedRecord.Message, err)
	}
	if err := task.Validate(); err != nil {
		return Task{}, WrapError(ErrCodeInvalid, ErrMalformedRecord.Message, err)
	}
	task.Normalize()
	return task, nil
}

// DecodeTasks strictly decodes a task list; a single bad record rejects the whole list.
func DecodeTasks(data []byte) ([]Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, WrapError(ErrCodeInvalid, ErrMalformedRecord.Message, err)
	}
	tasks := make([]Task, 0, len(raw))
	for _, item := range raw {
		task, err := DecodeTask(item)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
