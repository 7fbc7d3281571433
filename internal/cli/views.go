package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase/projection"
)

func (a *app) teamCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Show per-assignee task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			a.view.heading(a.tr.T("team"))
			members := projection.SearchMembers(projection.TeamRollup(cache.Tasks()), search)
			return a.view.team(members)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "q", "", "match member names")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			return a.view.stats(projection.Summarize(cache.Tasks()))
		},
	}
}

func (a *app) calendarCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List tasks by due day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.board(cmd.Context())
			if err != nil {
				return err
			}
			tasks := cache.Tasks()
			days := projection.DueDays(tasks)
			if day != "" {
				ts, err := domain.ParseTimestamp(day)
				if err != nil {
					return domain.Invalidf("%v", err)
				}
				days = []time.Time{ts.Time}
			}
			a.view.calendar(tasks, days)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "only this day (YYYY-MM-DD)")
	return cmd
}
