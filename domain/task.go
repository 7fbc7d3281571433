package domain

import (
	"strings"
)

// Status is the board column a task belongs to.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for sorting; unknown values rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Task is a card on the board. Optional fields are always sent, as "" or
// null, so a full-record update can clear them.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	StartDate   *Timestamp   `json:"startDate"`
	DueDate     *Timestamp   `json:"dueDate"`
	Progress    *int         `json:"progress"`
	Tags        []string     `json:"tags"`
	Assignees   []Assignee   `json:"assignees"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Assignee is a team member working on a task.
type Assignee struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Color  string `json:"color,omitempty"`
}

type Attachment struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Draft carries the fields of a task that does not exist yet.
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	StartDate   *Timestamp   `json:"startDate,omitempty"`
	DueDate     *Timestamp   `json:"dueDate,omitempty"`
	Progress    *int         `json:"progress,omitempty"`
	Tags        []string     `json:"tags"`
	Assignees   []Assignee   `json:"assignees"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Task builds an unsaved task from the draft.
func (d Draft) Task() Task {
	t := Task{
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		StartDate:   d.StartDate,
		DueDate:     d.DueDate,
		Progress:    d.Progress,
		Tags:        d.Tags,
		Assignees:   d.Assignees,
		Comments:    d.Comments,
		Attachments: d.Attachments,
	}
	return t.Clone()
}

// TaskPatch holds the fields an edit form may change. Nil fields are left
// untouched; the Clear flags remove an optional value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	StartDate   *Timestamp
	DueDate     *Timestamp
	Progress    *int
	Tags        []string
	Assignees   []Assignee

	ClearStartDate bool
	ClearDueDate   bool
	ClearProgress  bool
}

// Apply merges the patch into a copy of t.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.StartDate != nil {
		v := *p.StartDate
		out.StartDate = &v
	}
	if p.DueDate != nil {
		v := *p.DueDate
		out.DueDate = &v
	}
	if p.Progress != nil {
		v := *p.Progress
		out.Progress = &v
	}
	if p.ClearStartDate {
		out.StartDate = nil
	}
	if p.ClearDueDate {
		out.DueDate = nil
	}
	if p.ClearProgress {
		out.Progress = nil
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, p.Tags...)
	}
	if p.Assignees != nil {
		out.Assignees = append([]Assignee{}, p.Assignees...)
	}
	return out
}

// Clone returns a deep copy so cached records never share slices with callers.
func (t Task) Clone() Task {
	out := t
	if t.StartDate != nil {
		v := *t.StartDate
		out.StartDate = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		out.DueDate = &v
	}
	if t.Progress != nil {
		v := *t.Progress
		out.Progress = &v
	}
	out.Tags = append([]string{}, t.Tags...)
	out.Assignees = append([]Assignee{}, t.Assignees...)
	out.Comments = append([]Comment{}, t.Comments...)
	out.Attachments = append([]Attachment{}, t.Attachments...)
	return out
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusDone
}

// Normalize replaces nil lists with empty ones and trims the title.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Assignees == nil {
		t.Assignees = []Assignee{}
	}
	if t.Comments == nil {
		t.Comments = []Comment{}
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
}

// NextCommentID derives a comment id from the creation time, bumped past
// existing ids so two comments created in the same millisecond never collide.
func (t Task) NextCommentID(at Timestamp) int64 {
	id := at.UnixMilli()
	for _, c := range t.Comments {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}

// AppendComment returns a copy of t with a new comment.
func (t Task) AppendComment(text, author string, at Timestamp) (Task, Comment) {
	c := Comment{
		ID:        t.NextCommentID(at),
		Text:      text,
		Author:    author,
		CreatedAt: at,
	}
	out := t.Clone()
	out.Comments = append(out.Comments, c)
	return out, c
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}
