package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/infrastructure/storage"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := lifecycle.SignalContext(context.Background())
	defer stop()

	store, err := storage.Open(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("storage", store.Close)

	mon := monitor.New(store.Driver, store.Pinger, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	taskUseCase := taskUC.New(store.Tasks, zapLogger)
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	r := router.New(handlers, cfg.HTTP.BasePath, zapLogger)

	server := &fasthttp.Server{
		Handler:      router.Handler(r, zapLogger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	g, gCtx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("base_path", cfg.HTTP.BasePath),
			zap.String("driver", store.Driver))
		return server.ListenAndServe(cfg.Address())
	})
	g.Go(func() error {
		<-gCtx.Done()
		zapLogger.Info("shutting down")
		return manager.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("server stopped with error", zap.Error(err))
	}
}
