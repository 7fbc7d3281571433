package projection

import (
	"fmt"
	"sort"

	"github.com/fastygo/taskboard/domain"
)

// SortField names a sortable column.
type SortField string

const (
	SortByTitle    SortField = "title"
	SortByStatus   SortField = "status"
	SortByPriority SortField = "priority"
	SortByDueDate  SortField = "dueDate"
	SortByProgress SortField = "progress"
)

func ParseSortField(value string) (SortField, error) {
	switch f := SortField(value); f {
	case SortByTitle, SortByStatus, SortByPriority, SortByDueDate, SortByProgress:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", value)
}

// Sort returns a sorted copy. Ties keep their input order; tasks without a
// due date or progress sort last in either direction.
func Sort(tasks []domain.Task, field SortField, desc bool) []domain.Task {
	out := domain.CloneTasks(tasks)
	if out == nil {
		out = []domain.Task{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch field {
		case SortByDueDate:
			if a.DueDate == nil || b.DueDate == nil {
				return a.DueDate != nil && b.DueDate == nil
			}
			return ordered(a.DueDate.Before(b.DueDate.Time), b.DueDate.Before(a.DueDate.Time), desc)
		case SortByProgress:
			if a.Progress == nil || b.Progress == nil {
				return a.Progress != nil && b.Progress == nil
			}
			return ordered(*a.Progress < *b.Progress, *b.Progress < *a.Progress, desc)
		case SortByPriority:
			return ordered(a.Priority.Rank() < b.Priority.Rank(), b.Priority.Rank() < a.Priority.Rank(), desc)
		case SortByStatus:
			return ordered(statusRank(a.Status) < statusRank(b.Status), statusRank(b.Status) < statusRank(a.Status), desc)
		default:
			ta, tb := fold(a.Title), fold(b.Title)
			return ordered(ta < tb, tb < ta, desc)
		}
	})
	return out
}

func ordered(less, greater, desc bool) bool {
	if desc {
		return greater
	}
	return less
}

func statusRank(s domain.Status) int {
	for i, v := range domain.Statuses {
		if v == s {
			return i
		}
	}
	return len(domain.Statuses)
}
