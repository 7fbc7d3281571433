package projection

import (
	"sort"
	"time"

	"github.com/fastygo/taskboard/domain"
)

// Summary holds the dashboard counters.
type Summary struct {
	Total          int `json:"total"`
	Todo           int `json:"todo"`
	InProgress     int `json:"inProgress"`
	Done           int `json:"done"`
	HighPriority   int `json:"highPriority"`
	CompletionRate int `json:"completionRate"`
}

func Summarize(tasks []domain.Task) Summary {
	var s Summary
	for _, t := range tasks {
		s.Total++
		switch t.Status {
		case domain.StatusTodo:
			s.Todo++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusDone:
			s.Done++
		}
		if t.Priority == domain.PriorityHigh {
			s.HighPriority++
		}
	}
	s.CompletionRate = CompletionRate(s.Done, s.Total)
	return s
}

// DueOn returns the tasks due on the calendar day of day, compared in UTC.
func DueOn(tasks []domain.Task, day time.Time) []domain.Task {
	y, m, d := day.UTC().Date()
	return keep(tasks, func(t domain.Task) bool {
		if t.DueDate == nil {
			return false
		}
		ty, tm, td := t.DueDate.UTC().Date()
		return ty == y && tm == m && td == d
	})
}

// DueDays lists the distinct due days (UTC midnight) in ascending order.
func DueDays(tasks []domain.Task) []time.Time {
	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0)
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		y, m, d := t.DueDate.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
