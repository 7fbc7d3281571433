package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/i18n"
	"github.com/fastygo/taskboard/usecase/projection"
	"github.com/fastygo/taskboard/usecase/uistate"
)

const columnWidth = 34

type palette struct {
	accent, subtle, low, medium, high, todo, progress, done lipgloss.Color
}

var (
	lightPalette = palette{
		accent: "#1D4ED8", subtle: "#6B7280",
		low: "#15803D", medium: "#B45309", high: "#B91C1C",
		todo: "#374151", progress: "#1D4ED8", done: "#15803D",
	}
	darkPalette = palette{
		accent: "#5FAFAF", subtle: "#8A8A8A",
		low: "#87AF87", medium: "#D7AF5F", high: "#AF5F5F",
		todo: "#BCBCBC", progress: "#5F87D7", done: "#87AF87",
	}
)

type styles struct {
	title    lipgloss.Style
	subtle   lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	column   lipgloss.Style
	card     lipgloss.Style
	priority map[domain.Priority]lipgloss.Style
	status   map[domain.Status]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, theme uistate.Theme, plain bool) styles {
	if plain {
		empty := r.NewStyle()
		return styles{
			title:    empty,
			subtle:   empty,
			success:  empty,
			failure:  empty,
			column:   r.NewStyle().Width(columnWidth).MarginRight(2),
			card:     r.NewStyle().Width(columnWidth),
			priority: map[domain.Priority]lipgloss.Style{},
			status:   map[domain.Status]lipgloss.Style{},
		}
	}

	p := lightPalette
	if theme == uistate.ThemeDark {
		p = darkPalette
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(p.accent),
		subtle:  r.NewStyle().Foreground(p.subtle),
		success: r.NewStyle().Foreground(p.done),
		failure: r.NewStyle().Foreground(p.high),
		column:  r.NewStyle().Width(columnWidth).MarginRight(1).Border(lipgloss.RoundedBorder()).BorderForeground(p.subtle).Padding(0, 1),
		card:    r.NewStyle().Width(columnWidth - 4),
		priority: map[domain.Priority]lipgloss.Style{
			domain.PriorityLow:    r.NewStyle().Foreground(p.low),
			domain.PriorityMedium: r.NewStyle().Foreground(p.medium),
			domain.PriorityHigh:   r.NewStyle().Foreground(p.high).Bold(true),
		},
		status: map[domain.Status]lipgloss.Style{
			domain.StatusTodo:       r.NewStyle().Foreground(p.todo),
			domain.StatusInProgress: r.NewStyle().Foreground(p.progress),
			domain.StatusDone:       r.NewStyle().Foreground(p.done),
		},
	}
}

// renderer writes every view of the board. Colors are used only when out is a terminal.
type renderer struct {
	out   io.Writer
	tr    *i18n.Translator
	now   func() time.Time
	plain bool
	st    styles
}

func newRenderer(out io.Writer, theme uistate.Theme, tr *i18n.Translator, now func() time.Time) *renderer {
	plain := !isTerminal(out)
	return &renderer{
		out:   out,
		tr:    tr,
		now:   now,
		plain: plain,
		st:    newStyles(lipgloss.NewRenderer(out), theme, plain),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *renderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *renderer) success(msg string) {
	r.printf("%s\n", r.st.success.Render(msg))
}

func (r *renderer) heading(msg string) {
	r.printf("%s\n", r.st.title.Render(msg))
}

func (r *renderer) priority(p domain.Priority) string {
	label := r.tr.Priority(p)
	if s, ok := r.st.priority[p]; ok {
		return s.Render(label)
	}
	return label
}

func (r *renderer) status(s domain.Status) string {
	label := r.tr.Status(s)
	if st, ok := r.st.status[s]; ok {
		return st.Render(label)
	}
	return label
}

// due renders a due date as an absolute day plus a relative hint.
func (r *renderer) due(ts *domain.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", ts.Format("2006-01-02"), humanize.RelTime(ts.Time, r.now(), "ago", "from now"))
}

func progress(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p) + "%"
}

func assigneeNames(assignees []domain.Assignee) string {
	if len(assignees) == 0 {
		return "-"
	}
	names := make([]string, 0, len(assignees))
	for _, a := range assignees {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// table prints one row per task.
func (r *renderer) table(tasks []domain.Task) error {
	if len(tasks) == 0 {
		r.printf("%s\n", r.st.subtle.Render(r.tr.T("noTasks")))
		return nil
	}
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\t%s\t%s\t%s\t%s\n",
		strings.ToUpper(r.tr.T("title")),
		strings.ToUpper(r.tr.T("status")),
		strings.ToUpper(r.tr.T("priority")),
		strings.ToUpper(r.tr.T("progress")),
		strings.ToUpper(r.tr.T("dueDate")),
	)
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Title,
			r.tr.Status(t.Status),
			r.tr.Priority(t.Priority),
			progress(t.Progress),
			r.due(t.DueDate),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	r.printf("%s\n", r.st.subtle.Render(r.tr.Count("tasksCount", len(tasks))))
	return nil
}

// board lays the three status columns side by side.
func (r *renderer) board(tasks []domain.Task) {
	groups := projection.GroupByStatus(tasks)
	columns := make([]string, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		var b strings.Builder
		b.WriteString(r.status(s))
		b.WriteString(r.st.subtle.Render(fmt.Sprintf(" (%d)", len(groups[s]))))
		b.WriteString("\n")
		for _, t := range groups[s] {
			b.WriteString("\n")
			b.WriteString(r.st.card.Render(r.card(t)))
			b.WriteString("\n")
		}
		columns = append(columns, r.st.column.Render(b.String()))
	}
	r.printf("%s\n", lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}

func (r *renderer) card(t domain.Task) string {
	lines := []string{
		fmt.Sprintf("%s  %s", t.Title, r.st.subtle.Render("#"+t.ID)),
		fmt.Sprintf("%s · %s", r.priority(t.Priority), progress(t.Progress)),
	}
	if t.DueDate != nil {
		lines = append(lines, r.st.subtle.Render(humanize.RelTime(t.DueDate.Time, r.now(), "ago", "from now")))
	}
	if len(t.Comments) > 0 {
		lines = append(lines, r.st.subtle.Render(fmt.Sprintf("%d %s", len(t.Comments), strings.ToLower(r.tr.T("comments")))))
	}
	return strings.Join(lines, "\n")
}

// detail prints every field of one task.
func (r *renderer) detail(t domain.Task) {
	r.heading(t.Title)
	row := func(label, value string) {
		r.printf("%-14s %s\n", label+":", value)
	}
	row("ID", t.ID)
	if t.Description != "" {
		row(r.tr.T("description"), t.Description)
	}
	row(r.tr.T("status"), r.status(t.Status))
	row(r.tr.T("priority"), r.priority(t.Priority))
	row(r.tr.T("progress"), progress(t.Progress))
	if t.StartDate != nil {
		row(r.tr.T("startDate"), t.StartDate.Format("2006-01-02"))
	}
	row(r.tr.T("dueDate"), r.due(t.DueDate))
	row(r.tr.T("assignees"), assigneeNames(t.Assignees))
	if len(t.Tags) > 0 {
		row(r.tr.T("tags"), strings.Join(t.Tags, ", "))
	}
	if len(t.Attachments) > 0 {
		for _, att := range t.Attachments {
			row("Attachment", fmt.Sprintf("%s <%s>", att.Name, att.URL))
		}
	}
	if len(t.Comments) == 0 {
		return
	}
	r.printf("\n%s\n", r.st.title.Render(r.tr.T("comments")))
	for _, c := range t.Comments {
		r.printf("- %s %s\n  %s\n",
			c.Author,
			r.st.subtle.Render(humanize.RelTime(c.CreatedAt.Time, r.now(), "ago", "from now")),
			c.Text)
	}
}

func (r *renderer) team(members []projection.Member) error {
	if len(members) == 0 {
		r.printf("%s\n", r.st.subtle.Render(r.tr.T("noMembers")))
		return nil
	}
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tNAME\t%s\t%s\t%s\n",
		strings.ToUpper(r.tr.T("totalTasks")),
		strings.ToUpper(r.tr.T("completed")),
		strings.ToUpper(r.tr.T("completionRate")))
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d%%\n", m.ID, m.Name, m.TasksCount, m.CompletedTasks, m.CompletionRate)
	}
	return w.Flush()
}

func (r *renderer) stats(s projection.Summary) error {
	r.heading(r.tr.T("dashboard"))
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", r.tr.T("totalTasks"), humanize.Comma(int64(s.Total)))
	fmt.Fprintf(w, "%s\t%d\n", r.tr.T("todo"), s.Todo)
	fmt.Fprintf(w, "%s\t%d\n", r.tr.T("inProgress"), s.InProgress)
	fmt.Fprintf(w, "%s\t%d\n", r.tr.T("done"), s.Done)
	fmt.Fprintf(w, "%s\t%d\n", r.tr.T("highPriority"), s.HighPriority)
	fmt.Fprintf(w, "%s\t%d%%\n", r.tr.T("completionRate"), s.CompletionRate)
	return w.Flush()
}

func (r *renderer) calendar(tasks []domain.Task, days []time.Time) {
	r.heading(r.tr.T("calendar"))
	if len(days) == 0 {
		r.printf("%s\n", r.st.subtle.Render(r.tr.T("noTasks")))
		return
	}
	for _, day := range days {
		due := projection.DueOn(tasks, day)
		r.printf("%s %s\n", r.st.title.Render(day.Format("Mon 2006-01-02")),
			r.st.subtle.Render("("+humanize.RelTime(day, r.now(), "ago", "from now")+")"))
		for _, t := range due {
			r.printf("  %s  %s  %s\n", t.ID, t.Title, r.status(t.Status))
		}
	}
}
