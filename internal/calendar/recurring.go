package calendar

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// CreateRecurringEvent schedules a movie night for movie every week for
// weeks weeks starting at first. Preconditions and results match
// CreateEvent; weeks must be at least one.
func (s *Service) CreateRecurringEvent(movie types.Movie, first time.Time, weeks int) bool {
	if weeks < 1 {
		s.logger.Warn("recurring movie night needs at least one week", zap.Int("weeks", weeks))
		return false
	}
	opt := rrule.ROption{Freq: rrule.WEEKLY, Count: weeks, Dtstart: first}
	if _, err := rrule.NewRRule(opt); err != nil {
		s.logger.Warn("invalid recurrence", zap.Error(err))
		return false
	}

	ev := NewMovieNightEvent(movie, first)
	ev.RRule = opt.RRuleString()

	ok := false
	s.do(func() {
		if !s.requireAccess("create recurring event") {
			return
		}
		ok = s.saveToDefault(ev)
	})
	return ok
}

// UpcomingNights expands the default calendar's events, recurring ones
// included, into the occurrences overlapping [from, to), ordered by start.
// It returns nothing when access is not granted or no default calendar
// exists.
func (s *Service) UpcomingNights(from, to time.Time) []Occurrence {
	out := []Occurrence{}
	if !to.After(from) {
		return out
	}
	s.do(func() {
		if !s.requireAccess("list events") {
			return
		}
		calendarID, ok := s.store.DefaultCalendar()
		if !ok {
			s.logger.Warn("cannot list movie nights", zap.Error(ErrNoDefaultCalendar))
			return
		}
		events, err := s.store.Events(calendarID)
		if err != nil {
			s.logger.Error("reading events", zap.String("calendar", calendarID), zap.Error(err))
			return
		}
		for _, ev := range events {
			out = append(out, s.expand(ev, from, to)...)
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// expand returns the occurrences of ev overlapping [from, to).
func (s *Service) expand(ev Event, from, to time.Time) []Occurrence {
	dur := ev.End.Sub(ev.Start)
	if ev.RRule == "" {
		if overlaps(ev.Start, ev.End, from, to) {
			return []Occurrence{{UID: ev.UID, Summary: ev.Summary, Start: ev.Start, End: ev.End}}
		}
		return nil
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		s.logger.Warn("skipping event with bad RRULE", zap.String("uid", ev.UID), zap.String("rrule", ev.RRule), zap.Error(err))
		return nil
	}
	// Expand in the event's own zone so the wall clock holds across
	// daylight saving changes.
	loc := ev.Start.Location()
	r.DTStart(ev.Start)

	// Widen the window by one duration so occurrences already running at
	// from are included.
	var out []Occurrence
	for _, start := range r.Between(from.Add(-dur).In(loc), to.In(loc), true) {
		end := start.Add(dur)
		if overlaps(start, end, from, to) {
			out = append(out, Occurrence{UID: ev.UID, Summary: ev.Summary, Start: start, End: end})
		}
	}
	return out
}

func overlaps(start, end, from, to time.Time) bool {
	return start.Before(to) && end.After(from)
}
