package types

import (
	"strings"

	"github.com/google/uuid"
)

// Movie is a catalog entry families can pick for a movie night.
type Movie struct {
	ID                  string               `json:"id" yaml:"id" validate:"required"`
	Title               string               `json:"title" yaml:"title" validate:"required"`
	AgeGroup            AgeGroup             `json:"age_group" yaml:"age_group" validate:"required,agegroup"`
	Genre               string               `json:"genre" yaml:"genre"`
	Year                int                  `json:"year,omitempty" yaml:"year,omitempty" validate:"omitempty,gte=1888"`
	RuntimeMinutes      int                  `json:"runtime_minutes,omitempty" yaml:"runtime_minutes,omitempty" validate:"gte=0"`
	StreamingServices   []string             `json:"streaming_services,omitempty" yaml:"streaming_services,omitempty"`
	Synopsis            string               `json:"synopsis,omitempty" yaml:"synopsis,omitempty"`
	DiscussionQuestions []DiscussionQuestion `json:"discussion_questions,omitempty" yaml:"discussion_questions,omitempty" validate:"dive"`
}

// DiscussionQuestion is a post-viewing prompt attached to a movie. MinAge is
// the youngest age the prompt suits; zero means any age.
type DiscussionQuestion struct {
	ID     string `json:"id" yaml:"id" validate:"required"`
	Text   string `json:"text" yaml:"text" validate:"required"`
	MinAge int    `json:"min_age,omitempty" yaml:"min_age,omitempty" validate:"gte=0"`
}

// NewMovie returns a Movie with a fresh UUID v7.
func NewMovie(title string, group AgeGroup, genre string) Movie {
	return Movie{
		ID:       NewID(),
		Title:    title,
		AgeGroup: group,
		Genre:    genre,
	}
}

// SuitableFor reports whether the movie is age-appropriate for a viewer in
// group: the movie's group must not be older than the viewer's.
func (m Movie) SuitableFor(group AgeGroup) bool {
	return m.AgeGroup.Valid() && group.Valid() && !group.Less(m.AgeGroup)
}

// StreamingAvailability joins the streaming services for display, or returns
// "Not streaming" when none are known.
func (m Movie) StreamingAvailability() string {
	if len(m.StreamingServices) == 0 {
		return "Not streaming"
	}
	return strings.Join(m.StreamingServices, ", ")
}

// Clone returns a deep copy of the movie.
func (m Movie) Clone() Movie {
	c := m
	if m.StreamingServices != nil {
		c.StreamingServices = append([]string(nil), m.StreamingServices...)
	}
	if m.DiscussionQuestions != nil {
		c.DiscussionQuestions = append([]DiscussionQuestion(nil), m.DiscussionQuestions...)
	}
	return c
}

// NewID generates a UUID v7 entity ID, falling back to v4 if v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
