package cli

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase/projection"
)

type filterFlags struct {
	priorities []string
	statuses   []string
	search     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.priorities, "priority", "p", nil, "only these priorities (low, medium, high)")
	cmd.Flags().StringSliceVarP(&f.statuses, "status", "s", nil, "only these statuses (todo, in-progress, done)")
	cmd.Flags().StringVarP(&f.search, "search", "q", "", "match title or description")
}

// filter stores the flags in the UI state and returns the combined filter.
func (a *app) filter(f filterFlags) (projection.Filter, error) {
	priorities := make([]domain.Priority, 0, len(f.priorities))
	for _, p := range f.priorities {
		priorities = append(priorities, domain.Priority(strings.TrimSpace(p)))
	}
	statuses := make([]domain.Status, 0, len(f.statuses))
	for _, s := range f.statuses {
		statuses = append(statuses, domain.Status(strings.TrimSpace(s)))
	}
	if err := a.ui.SetPriorityFilter(priorities); err != nil {
		return projection.Filter{}, err
	}
	if err := a.ui.SetStatusFilter(statuses); err != nil {
		return projection.Filter{}, err
	}
	a.ui.SetSearchQuery(f.search)
	return a.ui.State().Filter, nil
}

func (a *app) listCmd() *cobra.Command {
	var (
		filters filterFlags
		sortBy  string
		desc    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := a.filter(filters)
			if err != nil {
				return err
			}
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			tasks := projection.Apply(cache.Tasks(), filter)
			if sortBy != "" {
				field, err := projection.ParseSortField(sortBy)
				if err != nil {
					return err
				}
				tasks = projection.Sort(tasks, field, desc)
			}
			return a.view.table(tasks)
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by title, status, priority, dueDate or progress")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func (a *app) boardCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the board grouped by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := a.filter(filters)
			if err != nil {
				return err
			}
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			a.view.heading(a.tr.T("kanban"))
			a.view.board(projection.Apply(cache.Tasks(), filter))
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			a.ui.SelectTask(args[0])
			task, ok := cache.Task(a.ui.State().SelectedID)
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, args[0])
			}
			a.view.detail(task)
			return nil
		},
	}
}

// taskFlags are the fields of the task form.
type taskFlags struct {
	title       string
	description string
	status      string
	priority    string
	start       string
	due         string
	progress    int
	tags        []string
	assignees   []string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&f.status, "status", "", "todo, in-progress or done")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD, empty clears it)")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD, empty clears it)")
	cmd.Flags().IntVar(&f.progress, "progress", 0, "progress percent 0-100")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringSliceVar(&f.assignees, "assignee", nil, "assignee name (repeatable)")
}

func (a *app) addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(f.title) == "" {
				return domain.Invalidf("%s", a.tr.T("titleRequired"))
			}
			a.ui.OpenModal("", domain.Status(f.status))
			defer a.ui.CloseModal()

			draft := domain.Draft{
				Title:       f.title,
				Description: f.description,
				Status:      a.ui.State().Modal.DefaultStatus,
				Priority:    domain.Priority(f.priority),
				Tags:        f.tags,
				Assignees:   assignees(f.assignees),
			}
			var err error
			if draft.StartDate, err = parseDay(f.start); err != nil {
				return err
			}
			if draft.DueDate, err = parseDay(f.due); err != nil {
				return err
			}
			if cmd.Flags().Changed("progress") {
				p := f.progress
				draft.Progress = &p
			}
			if draft.Priority == "" {
				draft.Priority = domain.PriorityMedium
			}
			if err := draft.Validate(); err != nil {
				return err
			}

			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			created, err := cache.CreateTask(cmd.Context(), draft)
			if err != nil {
				return a.rolledBack(err)
			}
			a.view.success(a.tr.T("taskCreated", map[string]interface{}{"ID": created.ID}))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a.ui.OpenModal(id, "")
			defer a.ui.CloseModal()

			patch, err := f.patch(cmd)
			if err != nil {
				return err
			}
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := cache.EditTask(cmd.Context(), a.ui.State().Modal.EditingTaskID, patch); err != nil {
				return a.rolledBack(err)
			}
			a.view.success(a.tr.T("taskUpdated", map[string]interface{}{"ID": id}))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// patch keeps only the flags given on the command line.
func (f *taskFlags) patch(cmd *cobra.Command) (domain.TaskPatch, error) {
	var p domain.TaskPatch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &f.title
	}
	if changed("description") {
		p.Description = &f.description
	}
	if changed("status") {
		s := domain.Status(f.status)
		p.Status = &s
	}
	if changed("priority") {
		pr := domain.Priority(f.priority)
		p.Priority = &pr
	}
	if changed("start") {
		ts, err := parseDay(f.start)
		if err != nil {
			return p, err
		}
		p.StartDate, p.ClearStartDate = ts, ts == nil
	}
	if changed("due") {
		ts, err := parseDay(f.due)
		if err != nil {
			return p, err
		}
		p.DueDate, p.ClearDueDate = ts, ts == nil
	}
	if changed("progress") {
		p.Progress = &f.progress
	}
	if changed("tag") {
		p.Tags = append([]string{}, f.tags...)
	}
	if changed("assignee") {
		p.Assignees = assignees(f.assignees)
	}
	return p, nil
}

func (a *app) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ui.StartDrag(args[0])
			id, status, err := a.ui.Drop(domain.Status(args[1]))
			if err != nil {
				a.ui.CancelDrag()
				return err
			}
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := cache.MoveTask(cmd.Context(), id, status); err != nil {
				return a.rolledBack(err)
			}
			a.view.success(a.tr.T("taskMoved", map[string]interface{}{"ID": id, "Status": a.tr.Status(status)}))
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			if err := cache.DeleteTask(cmd.Context(), args[0]); err != nil {
				return a.rolledBack(err)
			}
			a.view.success(a.tr.T("taskDeleted", map[string]interface{}{"ID": args[0]}))
			return nil
		},
	}
}

func (a *app) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>...",
		Short: "Add a comment to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if _, err := cache.AddComment(cmd.Context(), args[0], text, a.cfg.Client.Author); err != nil {
				return a.rolledBack(err)
			}
			a.view.success(a.tr.T("commentAdded", map[string]interface{}{"ID": args[0]}))
			return nil
		},
	}
}

// rolledBack tells the user a remote failure undid the change. A failed create
// applied nothing, so it is reported as a plain failure; validation errors pass through.
func (a *app) rolledBack(err error) error {
	var opErr *domain.OperationError
	if !errors.As(err, &opErr) {
		return err
	}
	if opErr.Op == domain.OpCreate {
		return fmt.Errorf("%s: %w", a.tr.T("createFailed"), err)
	}
	return fmt.Errorf("%s: %w", a.tr.T("changeRolledBack"), err)
}

func parseDay(value string) (*domain.Timestamp, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	ts, err := domain.ParseTimestamp(value)
	if err != nil {
		return nil, domain.Invalidf("%v", err)
	}
	return &ts, nil
}

// assignees turns names into assignees with a stable id derived from the name.
func assignees(names []string) []domain.Assignee {
	out := make([]domain.Assignee, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.ToLower(name)))
		out = append(out, domain.Assignee{
			ID:     int64(h.Sum32()),
			Name:   name,
			Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + strings.ReplaceAll(name, " ", ""),
		})
	}
	return out
}
