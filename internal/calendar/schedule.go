package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrNoSchedule is returned by NextMovieNight when no schedule is set.
var ErrNoSchedule = errors.New("no movie night schedule configured")

// ParseSchedule parses a standard five-field cron spec such as
// "0 18 * * 5" (Fridays at 18:00). Descriptors like "@weekly" and a leading
// "CRON_TZ=" are accepted.
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing movie night schedule %q: %w", spec, err)
	}
	return sched, nil
}

// NextMovieNight returns the first scheduled movie night after the given
// time.
func (s *Service) NextMovieNight(after time.Time) (time.Time, error) {
	if s.schedule == nil {
		return time.Time{}, ErrNoSchedule
	}
	next := s.schedule.Next(after)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("schedule has no time after %s", after.Format(time.RFC3339))
	}
	return next, nil
}
