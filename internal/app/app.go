package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/config"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/scheduler"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/scraper"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/server"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/service"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newStore() *storage.Store {
	return storage.NewStore(a.Config.Storage.DataDir, a.Logger)
}

func (a *App) newService(store storage.SnapshotStore) *service.Service {
	fetcher := scraper.NewFetcher(scraper.Options{
		BaseURL:     a.Config.Scraper.BaseURL,
		UserAgent:   a.Config.Scraper.UserAgent,
		Timeout:     a.Config.Scraper.RequestTimeout,
		PacingDelay: a.Config.Scraper.PacingDelay,
	}, a.Logger)

	return service.New(fetcher, store, a.Logger)
}

// Run executes the long-running tracker: an initial aggregation, the HTTP
// API with the dashboard, and the recurring refresh.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := a.newStore()
	svc := a.newService(store)

	if _, err := svc.RunOnce(ctx); err != nil {
		// Not fatal: the server still serves whatever was persisted before.
		a.Logger.Warn().Err(err).Msg("initial aggregation failed")
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	go func() {
		if err := sched.Run(ctx, svc.Tick); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error().Err(err).Msg("scheduler terminated with error")
		}
	}()

	srv := server.New(server.Options{
		ListenAddr: a.Config.Server.ListenAddr,
		StaticDir:  a.Config.Server.StaticDir,
	}, store, svc, a.Logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("http server shutdown failed")
	}

	a.Logger.Info().Msg("tracker stopped")
	return nil
}

// Once performs a single aggregation and persist, without a server.
func (a *App) Once(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := a.newStore()
	svc := a.newService(store)

	snapshot, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("date", snapshot.Date).
		Int("routes", len(snapshot.Routes)).
		Msg("one-shot aggregation complete")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting the history log.
type ExportOptions struct {
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
