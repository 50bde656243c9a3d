// Package app wires storage, services, and the calendar integration into
// one process-wide object shared by the CLI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/internal/calendar"
	"github.com/mesh-intelligence/movienight/internal/memory"
	"github.com/mesh-intelligence/movienight/internal/movie"
	"github.com/mesh-intelligence/movienight/pkg/storage"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// ErrConfig marks errors caused by invalid configuration values.
var ErrConfig = errors.New("invalid configuration")

// Config holds everything New needs. The CLI fills it from config.yaml and
// flags.
type Config struct {
	Storage types.Config

	// CalendarDir holds one .ics file per calendar.
	CalendarDir string
	// DefaultCalendar names the calendar movie nights are saved to. Empty
	// means no default calendar.
	DefaultCalendar string
	// CalendarAccess is "granted", "denied", or "prompt".
	CalendarAccess string
	// Schedule is an optional cron spec for NextMovieNight.
	Schedule string

	// Prompt streams for the "prompt" access policy. Default to
	// os.Stdin and os.Stderr.
	PromptIn  io.Reader
	PromptOut io.Writer
}

// App is the composition root.
type App struct {
	Logger    *zap.Logger
	Backend   types.Backend
	Movies    *movie.CatalogService
	Memories  *memory.CachedService
	Calendars *calendar.ICSStore
	Scheduler *calendar.Service
}

// New attaches the backend and builds the services. The caller must Close
// the returned App.
func New(cfg Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	in, out := cfg.PromptIn, cfg.PromptOut
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	auth, err := calendar.NewAuthorizer(cfg.CalendarAccess, in, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	opts := []calendar.Option{calendar.WithLogger(logger)}
	if cfg.Schedule != "" {
		sched, err := calendar.ParseSchedule(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		opts = append(opts, calendar.WithSchedule(sched))
	}

	backend, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	movies := movie.NewService(backend, logger)
	store := calendar.NewICSStore(cfg.CalendarDir, cfg.DefaultCalendar)
	a := &App{
		Logger:    logger,
		Backend:   backend,
		Movies:    movies,
		Memories:  memory.NewService(backend, movies, logger),
		Calendars: store,
		Scheduler: calendar.NewService(store, auth, opts...),
	}
	logger.Debug("app ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("calendar_dir", cfg.CalendarDir))
	return a, nil
}

// AwaitCalendarAccess requests calendar access and waits for the outcome.
func (a *App) AwaitCalendarAccess(ctx context.Context) calendar.PermissionState {
	select {
	case state := <-a.Scheduler.RequestAccess(ctx):
		return state
	case <-ctx.Done():
		return a.Scheduler.PermissionState()
	}
}

// Close stops the calendar service, detaches the backend, and flushes the
// logger.
func (a *App) Close() error {
	a.Scheduler.Close()
	defer func() {
		// Sync on stderr returns EINVAL on some platforms.
		_ = a.Logger.Sync()
	}()
	if err := a.Backend.Detach(); err != nil {
		return fmt.Errorf("detach storage: %w", err)
	}
	return nil
}
