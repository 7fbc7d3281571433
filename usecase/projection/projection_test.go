package projection

import (
	"reflect"
	"testing"
	"time"

	"github.com/fastygo/taskboard/domain"
)

func ts(day string) *domain.Timestamp {
	v, err := domain.ParseTimestamp(day)
	if err != nil {
		panic(err)
	}
	return &v
}

func intp(v int) *int { return &v }

var (
	sarah = domain.Assignee{ID: 1, Name: "Sarah Johnson"}
	mike  = domain.Assignee{ID: 2, Name: "Mike Chen"}
)

func fixture() []domain.Task {
	return []domain.Task{
		{ID: "a", Title: "Design Homepage", Description: "Landing page mockups", Status: domain.StatusTodo, Priority: domain.PriorityHigh,
			DueDate: ts("2024-01-20"), Progress: intp(0), Assignees: []domain.Assignee{sarah, mike}},
		{ID: "b", Title: "API Integration", Description: "Connect the REST endpoints", Status: domain.StatusInProgress, Priority: domain.PriorityMedium,
			DueDate: ts("2024-01-18"), Progress: intp(60), Assignees: []domain.Assignee{mike}},
		{ID: "c", Title: "Write tests", Status: domain.StatusDone, Priority: domain.PriorityLow,
			Assignees: []domain.Assignee{sarah, sarah}},
		{ID: "d", Title: "Deploy", Status: domain.StatusTodo, Priority: domain.PriorityHigh,
			DueDate: ts("2024-01-20T15:00:00Z")},
	}
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tasks := fixture()
	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter keeps all", Filter{}, []string{"a", "b", "c", "d"}},
		{"priority", Filter{Priorities: []domain.Priority{domain.PriorityHigh}}, []string{"a", "d"}},
		{"status set", Filter{Statuses: []domain.Status{domain.StatusDone, domain.StatusInProgress}}, []string{"b", "c"}},
		{"search title ignores case", Filter{Query: "homePAGE"}, []string{"a"}},
		{"search description", Filter{Query: "rest"}, []string{"b"}},
		{"blank query", Filter{Query: "   "}, []string{"a", "b", "c", "d"}},
		{"combined", Filter{Priorities: []domain.Priority{domain.PriorityHigh}, Statuses: []domain.Status{domain.StatusTodo}, Query: "deploy"}, []string{"d"}},
		{"no match", Filter{Query: "nothing"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(tasks, tc.filter)
			if !reflect.DeepEqual(ids(got), tc.want) {
				t.Fatalf("got %v, want %v", ids(got), tc.want)
			}
			again := Apply(got, tc.filter)
			if !reflect.DeepEqual(ids(again), ids(got)) {
				t.Fatalf("filter not idempotent: %v then %v", ids(got), ids(again))
			}
		})
	}
	if !(Filter{Query: " "}).IsZero() || (Filter{Query: "x"}).IsZero() {
		t.Fatal("IsZero mismatch")
	}
}

func TestGroupByStatus(t *testing.T) {
	groups := GroupByStatus(fixture()[:2])
	if len(groups) != 3 {
		t.Fatalf("expected every column, got %d", len(groups))
	}
	if got := groups[domain.StatusDone]; got == nil || len(got) != 0 {
		t.Fatalf("done column = %v", got)
	}
	if !reflect.DeepEqual(ids(groups[domain.StatusTodo]), []string{"a"}) {
		t.Fatalf("todo column = %v", ids(groups[domain.StatusTodo]))
	}
}

func TestTeamRollup(t *testing.T) {
	members := TeamRollup(fixture())
	if len(members) != 2 {
		t.Fatalf("members = %+v", members)
	}
	s, m := members[0], members[1]
	if s.Name != "Sarah Johnson" || s.TasksCount != 2 || s.CompletedTasks != 1 || s.CompletionRate != 50 {
		t.Fatalf("sarah = %+v", s)
	}
	if m.Name != "Mike Chen" || m.TasksCount != 2 || m.CompletedTasks != 0 || m.CompletionRate != 0 {
		t.Fatalf("mike = %+v", m)
	}

	if got := SearchMembers(members, "CHEN"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("search = %+v", got)
	}
	if got := SearchMembers(members, ""); len(got) != 2 {
		t.Fatalf("empty search = %+v", got)
	}
	if got := TeamRollup(nil); len(got) != 0 {
		t.Fatalf("rollup of nothing = %+v", got)
	}
}

func TestCompletionRate(t *testing.T) {
	cases := []struct{ done, total, want int }{
		{0, 0, 0}, {1, 2, 50}, {1, 3, 33}, {2, 3, 67}, {3, 3, 100},
	}
	for _, tc := range cases {
		if got := CompletionRate(tc.done, tc.total); got != tc.want {
			t.Errorf("CompletionRate(%d, %d) = %d, want %d", tc.done, tc.total, got, tc.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture())
	want := Summary{Total: 4, Todo: 2, InProgress: 1, Done: 1, HighPriority: 2, CompletionRate: 25}
	if got != want {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
	if (Summarize(nil) != Summary{}) {
		t.Fatal("empty summary should be zero")
	}
}

func TestDueDates(t *testing.T) {
	tasks := fixture()
	day := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
	if got := ids(DueOn(tasks, day)); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Fatalf("due on 20th = %v", got)
	}
	days := DueDays(tasks)
	if len(days) != 2 || days[0].Day() != 18 || days[1].Day() != 20 {
		t.Fatalf("due days = %v", days)
	}
}

func TestSort(t *testing.T) {
	tasks := fixture()
	cases := []struct {
		field SortField
		desc  bool
		want  []string
	}{
		{SortByTitle, false, []string{"b", "d", "a", "c"}},
		{SortByPriority, true, []string{"a", "d", "b", "c"}},
		{SortByPriority, false, []string{"c", "b", "a", "d"}},
		{SortByStatus, false, []string{"a", "d", "b", "c"}},
		{SortByDueDate, false, []string{"b", "a", "d", "c"}},
		{SortByDueDate, true, []string{"d", "a", "b", "c"}},
		{SortByProgress, true, []string{"b", "a", "c", "d"}},
	}
	for _, tc := range cases {
		got := ids(Sort(tasks, tc.field, tc.desc))
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Sort(%s, desc=%v) = %v, want %v", tc.field, tc.desc, got, tc.want)
		}
	}
	if !reflect.DeepEqual(ids(tasks), []string{"a", "b", "c", "d"}) {
		t.Fatal("Sort must not reorder its input")
	}
	if _, err := ParseSortField("owner"); err == nil {
		t.Fatal("unknown sort field accepted")
	}
	if f, err := ParseSortField("dueDate"); err != nil || f != SortByDueDate {
		t.Fatalf("ParseSortField = %q, %v", f, err)
	}
}
