// Package httpapi serves movies, memories, and movie-night scheduling over
// JSON, plus the default calendar as an iCalendar feed.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/internal/calendar"
	"github.com/mesh-intelligence/movienight/internal/memory"
	"github.com/mesh-intelligence/movienight/internal/movie"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// Scheduler is the calendar capability the server needs.
type Scheduler interface {
	PermissionState() calendar.PermissionState
	CreateEvent(movie types.Movie, date time.Time) bool
	CreateRecurringEvent(movie types.Movie, first time.Time, weeks int) bool
	UpcomingNights(from, to time.Time) []calendar.Occurrence
	NextMovieNight(after time.Time) (time.Time, error)
	ExportCalendar() ([]byte, error)
}

// Server holds the services behind the HTTP routes.
type Server struct {
	movies    movie.Service
	memories  memory.Service
	scheduler Scheduler
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer creates a Server.
func NewServer(movies movie.Service, memories memory.Service, scheduler Scheduler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		movies:    movies,
		memories:  memories,
		scheduler: scheduler,
		logger:    logger.Named("http"),
		now:       time.Now,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	r.Get("/calendar.ics", s.handleCalendarFeed)

	r.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", s.listMovies)
			r.Get("/{movieID}", s.getMovie)
		})
		r.Route("/memories", func(r chi.Router) {
			r.Get("/", s.listMemories)
			r.Post("/", s.createMemory)
			r.Get("/{memoryID}", s.getMemory)
			r.Put("/{memoryID}", s.updateMemory)
			r.Delete("/{memoryID}", s.deleteMemory)
			r.Get("/{memoryID}/answers", s.listAnswers)
			r.Post("/{memoryID}/answers", s.addAnswer)
		})
		r.Get("/stats", s.getStats)
		r.Route("/schedule", func(r chi.Router) {
			r.Post("/", s.scheduleNight)
			r.Get("/upcoming", s.upcomingNights)
			r.Get("/next", s.nextNight)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
