package types

import "time"

// Memory records that a movie was watched, with a rating and optional
// reflections. Memories are immutable once created; an update replaces the
// whole record by ID.
//
// Backends keep the instant of WatchDate but not its location: a memory
// loaded from storage carries its watch date in UTC. Compare watch dates
// with time.Time.Equal.
type Memory struct {
	ID                string             `json:"id" validate:"required"`
	MovieID           string             `json:"movie_id" validate:"required"`
	WatchDate         time.Time          `json:"watch_date" validate:"required"`
	Rating            int                `json:"rating" validate:"min=1,max=5"`
	Notes             string             `json:"notes,omitempty"`
	DiscussionAnswers []DiscussionAnswer `json:"discussion_answers,omitempty" validate:"dive"`
	Photos            []Photo            `json:"photos,omitempty" validate:"dive"`
	Location          *Location          `json:"location,omitempty"`
	WeatherContext    *WeatherContext    `json:"weather_context,omitempty"`
}

// Photo is an already-decoded image attached to a memory.
type Photo struct {
	ID          string `json:"id" validate:"required"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data,omitempty"`
	Caption     string `json:"caption,omitempty"`
}

// Location is where a movie night took place.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude,omitempty" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude,omitempty" validate:"gte=-180,lte=180"`
}

// WeatherContext captures the weather on the night.
type WeatherContext struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MemoryOption configures optional fields in NewMemory.
type MemoryOption func(*Memory)

// NewMemory builds a Memory with a fresh UUID v7.
func NewMemory(movieID string, watchDate time.Time, rating int, opts ...MemoryOption) Memory {
	m := Memory{
		ID:        NewID(),
		MovieID:   movieID,
		WatchDate: watchDate,
		Rating:    rating,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// WithNotes sets the free-text notes.
func WithNotes(notes string) MemoryOption {
	return func(m *Memory) { m.Notes = notes }
}

// WithAnswers sets the discussion answers. Each answer's MemoryID is set to
// the memory being built.
func WithAnswers(answers ...DiscussionAnswer) MemoryOption {
	return func(m *Memory) {
		m.DiscussionAnswers = make([]DiscussionAnswer, len(answers))
		for i, a := range answers {
			a.MemoryID = m.ID
			m.DiscussionAnswers[i] = a
		}
	}
}

// WithPhotos attaches photos.
func WithPhotos(photos ...Photo) MemoryOption {
	return func(m *Memory) { m.Photos = append([]Photo(nil), photos...) }
}

// WithLocation sets the location.
func WithLocation(loc Location) MemoryOption {
	return func(m *Memory) { m.Location = &loc }
}

// WithWeather sets the weather context.
func WithWeather(w WeatherContext) MemoryOption {
	return func(m *Memory) { m.WeatherContext = &w }
}

// Clone returns a deep copy so callers cannot alias cached slices or pointers.
func (m Memory) Clone() Memory {
	c := m
	if m.DiscussionAnswers != nil {
		c.DiscussionAnswers = append([]DiscussionAnswer(nil), m.DiscussionAnswers...)
	}
	if m.Photos != nil {
		c.Photos = make([]Photo, len(m.Photos))
		for i, p := range m.Photos {
			if p.Data != nil {
				p.Data = append([]byte(nil), p.Data...)
			}
			c.Photos[i] = p
		}
	}
	if m.Location != nil {
		loc := *m.Location
		c.Location = &loc
	}
	if m.WeatherContext != nil {
		w := *m.WeatherContext
		c.WeatherContext = &w
	}
	return c
}
