package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//movienight//Movie Night Planner//EN"

// iCalendar DATE-TIME layouts.
const (
	icsUTCLayout   = "20060102T150405Z"
	icsLocalLayout = "20060102T150405"
)

// ICSStore keeps each calendar as an iCalendar file, <dir>/<calendarID>.ics.
// Saves rewrite the file atomically.
type ICSStore struct {
	dir             string
	defaultCalendar string
	now             func() time.Time
}

// NewICSStore returns a store rooted at dir. An empty defaultCalendar means
// no default writable calendar is configured.
func NewICSStore(dir, defaultCalendar string) *ICSStore {
	return &ICSStore{dir: dir, defaultCalendar: defaultCalendar, now: time.Now}
}

// DefaultCalendar returns the configured default calendar.
func (s *ICSStore) DefaultCalendar() (string, bool) {
	if s.defaultCalendar == "" {
		return "", false
	}
	return s.defaultCalendar, true
}

// Path returns the file backing calendarID.
func (s *ICSStore) Path(calendarID string) string {
	return filepath.Join(s.dir, calendarID+".ics")
}

func validCalendarID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidCalendarID, id)
	}
	return nil
}

// load parses the calendar file, or returns a fresh calendar when the file
// does not exist yet.
func (s *ICSStore) load(calendarID string) (*ical.Calendar, error) {
	if err := validCalendarID(calendarID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(calendarID))
	if errors.Is(err, fs.ErrNotExist) {
		cal := ical.NewCalendar()
		cal.SetProductId(productID)
		cal.SetMethod(ical.MethodPublish)
		cal.SetXWRCalName(calendarID)
		return cal, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading calendar %s: %w", calendarID, err)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar %s: %w", calendarID, err)
	}
	return cal, nil
}

// SaveEvent adds event to the calendar file, replacing any event with the
// same UID.
func (s *ICSStore) SaveEvent(calendarID string, event Event) error {
	if event.UID == "" {
		return errors.New("event UID must not be empty")
	}
	if !event.End.After(event.Start) {
		return errors.New("event must end after it starts")
	}
	cal, err := s.load(calendarID)
	if err != nil {
		return err
	}

	cal.RemoveEvent(event.UID)
	ve := cal.AddEvent(event.UID)
	ve.SetDtStampTime(s.now())
	setEventTime(ve, ical.ComponentPropertyDtStart, event.Start)
	setEventTime(ve, ical.ComponentPropertyDtEnd, event.End)
	ve.SetSummary(event.Summary)
	ve.SetDescription(event.Description)
	if event.RRule != "" {
		ve.AddRrule(event.RRule)
	}
	for _, offset := range event.Alarms {
		alarm := ve.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(formatTrigger(offset))
		alarm.SetProperty(ical.ComponentPropertyDescription, event.Summary)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating calendar dir: %w", err)
	}
	return writeFileAtomic(s.Path(calendarID), []byte(cal.Serialize()))
}

// Events parses every VEVENT of the calendar. Events without a parseable
// start or end are skipped.
func (s *ICSStore) Events(calendarID string) ([]Event, error) {
	cal, err := s.load(calendarID)
	if err != nil {
		return nil, err
	}
	events := []Event{}
	for _, ve := range cal.Events() {
		ev, err := fromVEvent(ve)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// WriteCalendar serializes the calendar to w. A calendar without a file
// serializes as an empty calendar.
func (s *ICSStore) WriteCalendar(calendarID string, w io.Writer) error {
	cal, err := s.load(calendarID)
	if err != nil {
		return err
	}
	return cal.SerializeTo(w)
}

// setEventTime writes DTSTART or DTEND. A time in a named zone keeps its wall
// clock and a TZID so weekly nights stay at the same hour across daylight
// saving changes. Local times are written floating. Other zones fall back to
// UTC.
func setEventTime(ve *ical.VEvent, prop ical.ComponentProperty, t time.Time) {
	loc := t.Location()
	switch {
	case loc == time.UTC:
		ve.SetProperty(prop, t.Format(icsUTCLayout))
	case loc == time.Local:
		ve.SetProperty(prop, t.Format(icsLocalLayout))
	case namedZone(loc):
		ve.SetProperty(prop, t.Format(icsLocalLayout), ical.WithTZID(loc.String()))
	default:
		ve.SetProperty(prop, t.UTC().Format(icsUTCLayout))
	}
}

// namedZone reports whether loc is an IANA zone a reader can load back.
func namedZone(loc *time.Location) bool {
	name := loc.String()
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

func fromVEvent(ve *ical.VEvent) (Event, error) {
	start, err := ve.GetStartAt()
	if err != nil {
		return Event{}, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		UID:   ve.Id(),
		Start: start,
		End:   end,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}
	for _, alarm := range ve.Alarms() {
		p := alarm.GetProperty(ical.ComponentPropertyTrigger)
		if p == nil {
			continue
		}
		offset, err := parseTrigger(p.Value)
		if err != nil {
			continue
		}
		ev.Alarms = append(ev.Alarms, offset)
	}
	return ev, nil
}

// formatTrigger renders a relative alarm offset as an RFC 5545 duration,
// e.g. -30m as "-PT30M".
func formatTrigger(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	sec := int((d % time.Minute) / time.Second)

	var b strings.Builder
	b.WriteString(sign + "PT")
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if sec > 0 || (h == 0 && m == 0) {
		fmt.Fprintf(&b, "%dS", sec)
	}
	return b.String()
}

// parseTrigger reads the relative durations formatTrigger writes, plus the
// day and week forms other clients produce.
func parseTrigger(s string) (time.Duration, error) {
	orig := s
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid trigger %q", orig)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := 0
	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			digits = true
			continue
		case r == 'T':
			inTime = true
			continue
		}
		if !digits {
			return 0, fmt.Errorf("invalid trigger %q", orig)
		}
		unit := time.Duration(0)
		switch {
		case r == 'W' && !inTime:
			unit = 7 * 24 * time.Hour
		case r == 'D' && !inTime:
			unit = 24 * time.Hour
		case r == 'H' && inTime:
			unit = time.Hour
		case r == 'M' && inTime:
			unit = time.Minute
		case r == 'S' && inTime:
			unit = time.Second
		default:
			return 0, fmt.Errorf("invalid trigger %q", orig)
		}
		total += time.Duration(num) * unit
		num, digits = 0, false
	}
	if digits {
		return 0, fmt.Errorf("invalid trigger %q", orig)
	}
	if neg {
		total = -total
	}
	return total, nil
}

// writeFileAtomic writes data with the temp-file, fsync, rename pattern.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ics-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing calendar: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing calendar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing calendar: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming calendar: %w", err)
	}
	return nil
}
