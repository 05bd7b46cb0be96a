package injector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/director/internal/config"
	"github.com/zeusync/director/internal/core/director"
	"github.com/zeusync/director/internal/core/observability/log"
	"github.com/zeusync/director/internal/core/wave"
)

// App is the assembled director process: the tick loop and the HTTP
// surface in front of it.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Runner *director.Runner
	Waves  *wave.Controller
	Router http.Handler
}

func NewApp(cfg *config.Config, logger *log.Logger, runner *director.Runner, waves *wave.Controller, router http.Handler) *App {
	return &App{
		Config: cfg,
		Logger: logger,
		Runner: runner,
		Waves:  waves,
		Router: router,
	}
}

// Run starts the first wave, then serves HTTP and ticks the director until
// ctx is cancelled. The HTTP server gets Server.ShutdownGrace to drain.
func (a *App) Run(ctx context.Context) error {
	logger := a.Logger.Named("app")
	a.Waves.Next()

	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.Runner.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("http server listening", log.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownGrace)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	_ = a.Logger.Sync()
	return err
}
