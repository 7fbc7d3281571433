package projection

import (
	"math"
	"strings"

	"github.com/fastygo/taskboard/domain"
)

// Member is one assignee as seen by the team view.
type Member struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Color          string `json:"color,omitempty"`
	TasksCount     int    `json:"tasksCount"`
	CompletedTasks int    `json:"completedTasks"`
	CompletionRate int    `json:"completionRate"`
}

// TeamRollup counts assigned and completed tasks per assignee id. Members are
// listed in the order they first appear.
func TeamRollup(tasks []domain.Task) []Member {
	index := make(map[int64]int)
	members := make([]Member, 0)
	for _, t := range tasks {
		seen := make(map[int64]struct{}, len(t.Assignees))
		for _, a := range t.Assignees {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}

			i, ok := index[a.ID]
			if !ok {
				i = len(members)
				index[a.ID] = i
				members = append(members, Member{ID: a.ID, Name: a.Name, Avatar: a.Avatar, Color: a.Color})
			}
			members[i].TasksCount++
			if t.IsCompleted() {
				members[i].CompletedTasks++
			}
		}
	}
	for i := range members {
		members[i].CompletionRate = CompletionRate(members[i].CompletedTasks, members[i].TasksCount)
	}
	return members
}

// CompletionRate is completed/total as a whole percent, 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// SearchMembers filters members by name, ignoring case.
func SearchMembers(members []Member, query string) []Member {
	query = strings.TrimSpace(query)
	out := make([]Member, 0, len(members))
	if query == "" {
		return append(out, members...)
	}
	needle := fold(query)
	for _, m := range members {
		if strings.Contains(fold(m.Name), needle) {
			out = append(out, m)
		}
	}
	return out
}
