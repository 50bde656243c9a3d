package calendar

import "errors"

// Store errors.
var (
	ErrNoDefaultCalendar = errors.New("no default calendar configured")
	ErrInvalidCalendarID = errors.New("invalid calendar id")
)

// Store is the calendar backend a Service owns. Implementations need not be
// safe for concurrent use.
type Store interface {
	// DefaultCalendar returns the writable calendar new events go to.
	DefaultCalendar() (string, bool)

	// SaveEvent durably adds or replaces (by UID) one event.
	SaveEvent(calendarID string, event Event) error

	// Events returns every event in the calendar; an unknown calendar has
	// none.
	Events(calendarID string) ([]Event, error)
}
