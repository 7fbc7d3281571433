package projection

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/fastygo/taskboard/domain"
)

// Filter is the combined board filter. Empty sets and an empty query do not filter.
type Filter struct {
	Priorities []domain.Priority
	Statuses   []domain.Status
	Query      string
}

// IsZero reports whether the filter lets every task through.
func (f Filter) IsZero() bool {
	return len(f.Priorities) == 0 && len(f.Statuses) == 0 && strings.TrimSpace(f.Query) == ""
}

// Apply keeps the tasks matching every active predicate, in order.
func Apply(tasks []domain.Task, f Filter) []domain.Task {
	out := FilterByPriority(tasks, f.Priorities)
	out = FilterByStatus(out, f.Statuses)
	return Search(out, f.Query)
}

// FilterByPriority keeps tasks whose priority is in priorities.
func FilterByPriority(tasks []domain.Task, priorities []domain.Priority) []domain.Task {
	if len(priorities) == 0 {
		return keep(tasks, func(domain.Task) bool { return true })
	}
	set := make(map[domain.Priority]struct{}, len(priorities))
	for _, p := range priorities {
		set[p] = struct{}{}
	}
	return keep(tasks, func(t domain.Task) bool {
		_, ok := set[t.Priority]
		return ok
	})
}

// FilterByStatus keeps tasks whose status is in statuses.
func FilterByStatus(tasks []domain.Task, statuses []domain.Status) []domain.Task {
	if len(statuses) == 0 {
		return keep(tasks, func(domain.Task) bool { return true })
	}
	set := make(map[domain.Status]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return keep(tasks, func(t domain.Task) bool {
		_, ok := set[t.Status]
		return ok
	})
}

// Search matches query against title or description, ignoring case.
func Search(tasks []domain.Task, query string) []domain.Task {
	query = strings.TrimSpace(query)
	if query == "" {
		return keep(tasks, func(domain.Task) bool { return true })
	}
	needle := fold(query)
	return keep(tasks, func(t domain.Task) bool {
		return strings.Contains(fold(t.Title), needle) || strings.Contains(fold(t.Description), needle)
	})
}

// GroupByStatus partitions tasks into the board columns, keeping relative
// order. Every known status has an entry, possibly empty.
func GroupByStatus(tasks []domain.Task) map[domain.Status][]domain.Task {
	groups := make(map[domain.Status][]domain.Task, len(domain.Statuses))
	for _, s := range domain.Statuses {
		groups[s] = []domain.Task{}
	}
	for _, t := range tasks {
		groups[t.Status] = append(groups[t.Status], t.Clone())
	}
	return groups
}

func keep(tasks []domain.Task, pred func(domain.Task) bool) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}
