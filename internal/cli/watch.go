package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/usecase/projection"
)

func (a *app) watchCmd() *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Redraw the board whenever the collection changes",
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

			var mu sync.Mutex
			draw := func(tasks []domain.Task) {
				mu.Lock()
				defer mu.Unlock()
				a.view.heading(a.tr.T("kanban"))
				a.view.board(projection.Apply(tasks, filter))
			}
			unsubscribe := cache.Subscribe(draw)
			defer unsubscribe()
			draw(cache.Tasks())

			interval := a.cfg.Client.RefreshInterval
			a.view.printf("%s\n", a.tr.T("watching", map[string]interface{}{"Interval": interval.String()}))

			refresher := services.NewRefresher(cache, a.logger, services.RefresherConfig{Interval: interval})
			refresher.Start()
			a.components.Register("refresher", func(ctx context.Context) error {
				refresher.Stop(ctx)
				return nil
			})

			<-cmd.Context().Done()
			return nil
		},
	}
	filters.register(cmd)
	return cmd
}
