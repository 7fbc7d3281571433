package repository

import (
	"encoding/json"
	"fmt"

	"github.com/fastygo/taskboard/domain"
)

// TaskLists carries the list-valued columns of a task row as JSON documents.
type TaskLists struct {
	Tags        []byte
	Assignees   []byte
	Comments    []byte
	Attachments []byte
}

// EncodeLists serializes the list fields of task for row storage.
func EncodeLists(task *domain.Task) (TaskLists, error) {
	t := task.Clone()
	t.Normalize()

	var (
		lists TaskLists
		err   error
	)
	if lists.Tags, err = json.Marshal(t.Tags); err != nil {
		return lists, fmt.Errorf("encode tags: %w", err)
	}
	if lists.Assignees, err = json.Marshal(t.Assignees); err != nil {
		return lists, fmt.Errorf("encode assignees: %w", err)
	}
	if lists.Comments, err = json.Marshal(t.Comments); err != nil {
		return lists, fmt.Errorf("encode comments: %w", err)
	}
	if lists.Attachments, err = json.Marshal(t.Attachments); err != nil {
		return lists, fmt.Errorf("encode attachments: %w", err)
	}
	return lists, nil
}

// DecodeLists fills the list fields of task from stored JSON documents.
func DecodeLists(task *domain.Task, lists TaskLists) error {
	fields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"tags", lists.Tags, &task.Tags},
		{"assignees", lists.Assignees, &task.Assignees},
		{"comments", lists.Comments, &task.Comments},
		{"attachments", lists.Attachments, &task.Attachments},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return fmt.Errorf("decode %s: %w", f.name, err)
		}
	}
	task.Normalize()
	return nil
}
