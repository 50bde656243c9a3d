package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// Service schedules movie nights. Create one per process with NewService
// and Close it on shutdown.
type Service struct {
	ops       chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	logger   *zap.Logger
	schedule cron.Schedule

	// Owned by the run goroutine.
	store   Store
	auth    Authorizer
	state   PermissionState
	pending bool
	waiters []chan PermissionState
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards logs.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchedule sets the recurring movie-night schedule used by
// NextMovieNight.
func WithSchedule(schedule cron.Schedule) Option {
	return func(s *Service) { s.schedule = schedule }
}

// NewService starts the owner goroutine for store. The permission state
// starts Unknown; call RequestAccess to resolve it.
func NewService(store Store, auth Authorizer, opts ...Option) *Service {
	s := &Service{
		ops:     make(chan func()),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  zap.NewNop(),
		store:   store,
		auth:    auth,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("calendar")
	go s.run()
	return s
}

func (s *Service) run() {
	defer close(s.stopped)
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			for _, w := range s.waiters {
				w <- s.state
				close(w)
			}
			s.waiters = nil
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for it. It reports false when
// the service is closed and fn did not run.
func (s *Service) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
	case <-s.quit:
		return false
	}
	<-done
	return true
}

// Close stops the owner goroutine. Pending RequestAccess channels receive
// the current state. Close is idempotent.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

// RequestAccess starts a permission request unless one is in flight and
// returns without waiting. The returned channel receives the resulting state
// once and is then closed. Requests that outlive ctx resolve to Denied.
func (s *Service) RequestAccess(ctx context.Context) <-chan PermissionState {
	out := make(chan PermissionState, 1)
	ok := s.do(func() {
		s.waiters = append(s.waiters, out)
		s.startRequest(ctx)
	})
	if !ok {
		out <- PermissionUnknown
		close(out)
	}
	return out
}

// startRequest launches the authorizer off the owner goroutine. Runs on the
// owner goroutine.
func (s *Service) startRequest(ctx context.Context) {
	if s.pending {
		return
	}
	s.pending = true
	auth := s.auth
	go func() {
		granted, err := auth.RequestAccess(ctx)
		state := PermissionDenied
		if err != nil {
			s.logger.Warn("calendar access request failed", zap.Error(err))
		} else if granted {
			state = PermissionGranted
		}
		s.do(func() { s.resolve(state) })
	}()
}

// resolve records the outcome of a request and notifies waiters. Runs on
// the owner goroutine.
func (s *Service) resolve(state PermissionState) {
	s.state = state
	s.pending = false
	for _, w := range s.waiters {
		w <- state
		close(w)
	}
	s.waiters = nil
	s.logger.Info("calendar access resolved", zap.Stringer("state", state))
}

// PermissionState returns the current permission state.
func (s *Service) PermissionState() PermissionState {
	state := PermissionUnknown
	s.do(func() { state = s.state })
	return state
}

// requireAccess reports whether access is granted, re-requesting it in the
// background otherwise. Runs on the owner goroutine.
func (s *Service) requireAccess(op string) bool {
	if s.state == PermissionGranted {
		return true
	}
	s.logger.Warn("calendar access not granted", zap.String("op", op), zap.Stringer("state", s.state))
	s.startRequest(context.Background())
	return false
}

// saveToDefault writes ev to the default calendar. Runs on the owner
// goroutine.
func (s *Service) saveToDefault(ev Event) bool {
	calendarID, ok := s.store.DefaultCalendar()
	if !ok {
		s.logger.Warn("cannot save movie night", zap.Error(ErrNoDefaultCalendar))
		return false
	}
	if err := s.store.SaveEvent(calendarID, ev); err != nil {
		s.logger.Error("saving movie night", zap.String("calendar", calendarID), zap.Error(err))
		return false
	}
	s.logger.Info("movie night scheduled",
		zap.String("calendar", calendarID),
		zap.String("summary", ev.Summary),
		zap.Time("start", ev.Start))
	return true
}

// CreateEvent schedules a two-hour movie night for movie at date with a
// reminder thirty minutes before. It returns false without touching the
// store when access is not granted (re-requesting access) or no default
// calendar exists, and false when the save fails.
func (s *Service) CreateEvent(movie types.Movie, date time.Time) bool {
	ok := false
	s.do(func() {
		if !s.requireAccess("create event") {
			return
		}
		ok = s.saveToDefault(NewMovieNightEvent(movie, date))
	})
	return ok
}
