package httpapi

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/internal/calendar"
)

type scheduleRequest struct {
	MovieID string    `json:"movie_id"`
	Start   time.Time `json:"start"`
	// Weeks above one schedules a weekly series.
	Weeks int `json:"weeks,omitempty"`
}

type scheduleResponse struct {
	MovieID string    `json:"movie_id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Weeks   int       `json:"weeks"`
}

// scheduleNight serves POST /api/schedule. A request made before calendar
// access is granted fails with 403 and re-requests access; the client may
// retry.
func (s *Server) scheduleNight(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	if req.Start.IsZero() {
		writeError(w, s.logger, http.StatusBadRequest, "start is required")
		return
	}
	if req.Weeks < 0 {
		writeError(w, s.logger, http.StatusBadRequest, "weeks must not be negative")
		return
	}
	if req.Weeks == 0 {
		req.Weeks = 1
	}
	m, ok := s.movies.GetMovie(req.MovieID)
	if !ok {
		writeError(w, s.logger, http.StatusNotFound, "movie not found")
		return
	}

	var created bool
	if req.Weeks == 1 {
		created = s.scheduler.CreateEvent(m, req.Start)
	} else {
		created = s.scheduler.CreateRecurringEvent(m, req.Start, req.Weeks)
	}
	if !created {
		if s.scheduler.PermissionState() != calendar.PermissionGranted {
			writeError(w, s.logger, http.StatusForbidden, calendar.ErrAccessNotGranted.Error())
			return
		}
		writeError(w, s.logger, http.StatusServiceUnavailable, "movie night could not be saved")
		return
	}

	ev := calendar.NewMovieNightEvent(m, req.Start)
	writeJSON(w, s.logger, http.StatusCreated, scheduleResponse{
		MovieID: m.ID,
		Summary: ev.Summary,
		Start:   ev.Start,
		End:     ev.End,
		Weeks:   req.Weeks,
	})
}

// defaultUpcomingWindow is the range /api/schedule/upcoming covers when no
// "to" is given.
const defaultUpcomingWindow = 30 * 24 * time.Hour

// upcomingNights serves GET /api/schedule/upcoming?from=&to= with RFC 3339
// bounds.
func (s *Server) upcomingNights(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from", s.now())
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryTime(r, "to", from.Add(defaultUpcomingWindow))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	if s.scheduler.PermissionState() != calendar.PermissionGranted {
		// UpcomingNights re-requests access in the background.
		s.scheduler.UpcomingNights(from, to)
		writeError(w, s.logger, http.StatusForbidden, calendar.ErrAccessNotGranted.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.scheduler.UpcomingNights(from, to))
}

// nextNight serves GET /api/schedule/next?after=.
func (s *Server) nextNight(w http.ResponseWriter, r *http.Request) {
	after, err := queryTime(r, "after", s.now())
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	next, err := s.scheduler.NextMovieNight(after)
	if errors.Is(err, calendar.ErrNoSchedule) {
		writeError(w, s.logger, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, s.logger, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]time.Time{"next": next})
}

func queryTime(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be an RFC 3339 time")
	}
	return t, nil
}

// handleCalendarFeed serves the default calendar as text/calendar.
func (s *Server) handleCalendarFeed(w http.ResponseWriter, _ *http.Request) {
	data, err := s.scheduler.ExportCalendar()
	switch {
	case errors.Is(err, calendar.ErrAccessNotGranted):
		writeError(w, s.logger, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, calendar.ErrNoDefaultCalendar):
		writeError(w, s.logger, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("exporting calendar", zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "calendar unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
