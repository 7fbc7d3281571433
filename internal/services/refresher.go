package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/usecase/board"
)

// Refreshable is satisfied by the board cache.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

// RefresherConfig controls how often the board is reloaded.
type RefresherConfig struct {
	Interval time.Duration
}

// Refresher periodically reloads the board cache from the collection.
type Refresher struct {
	target Refreshable
	logger *zap.Logger
	cron   *cron.Cron
	cfg    RefresherConfig
}

func NewRefresher(target Refreshable, logger *zap.Logger, cfg RefresherConfig) *Refresher {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Refresher{
		target: target,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		_ = r.RefreshNow(ctx)
	})

	return r
}

// Start launches the cron scheduler.
func (r *Refresher) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("board refresher started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *Refresher) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("board refresher stopped")
}

// RefreshNow reloads the board once. A refresh superseded by a local
// mutation is not an error.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	if r == nil || r.target == nil {
		return nil
	}
	err := r.target.Refresh(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, board.ErrStaleRefresh):
		r.logger.Debug("refresh superseded")
		return nil
	default:
		r.logger.Warn("board refresh failed", zap.Error(err))
		return err
	}
}
