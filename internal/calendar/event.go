package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// Movie night event shape.
const (
	EventDuration = 2 * time.Hour
	ReminderLead  = 30 * time.Minute
)

// Event is one calendar entry. Alarm offsets are relative to Start; negative
// values fire before it. RRule, when set, is an RFC 5545 recurrence rule
// without DTSTART.
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Alarms      []time.Duration
	RRule       string
}

// Occurrence is one expanded instance of an event.
type Occurrence struct {
	UID     string    `json:"uid"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// NewMovieNightEvent builds the event for watching movie at start: two hours
// long with one reminder thirty minutes before.
func NewMovieNightEvent(movie types.Movie, start time.Time) Event {
	return Event{
		UID:         types.NewID(),
		Summary:     "Movie Night: " + movie.Title,
		Description: Describe(movie),
		Start:       start,
		End:         start.Add(EventDuration),
		Alarms:      []time.Duration{-ReminderLead},
	}
}

// Describe composes the event body from the movie's title, age group, genre
// and streaming availability.
func Describe(movie types.Movie) string {
	genre := movie.Genre
	if genre == "" {
		genre = "Unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Family movie night: %s\n", movie.Title)
	fmt.Fprintf(&b, "Age group: %s\n", movie.AgeGroup.DisplayName())
	fmt.Fprintf(&b, "Genre: %s\n", genre)
	fmt.Fprintf(&b, "Where to watch: %s", movie.StreamingAvailability())
	return b.String()
}
