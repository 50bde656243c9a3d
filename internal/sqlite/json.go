// JSON record structures for the JSONL data files. Each file holds one record
// per line; nested values (answers, photos, questions) are embedded as JSON.
package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// movieJSON represents a movie in movies.jsonl.
type movieJSON struct {
	MovieID             string                     `json:"movie_id"`
	Title               string                     `json:"title"`
	AgeGroup            string                     `json:"age_group"`
	Genre               string                     `json:"genre"`
	Year                int                        `json:"year"`
	RuntimeMinutes      int                        `json:"runtime_minutes"`
	StreamingServices   []string                   `json:"streaming_services"`
	Synopsis            string                     `json:"synopsis"`
	DiscussionQuestions []types.DiscussionQuestion `json:"discussion_questions"`
}

// memoryJSON represents a memory in memories.jsonl.
type memoryJSON struct {
	MemoryID          string                   `json:"memory_id"`
	MovieID           string                   `json:"movie_id"`
	WatchDate         string                   `json:"watch_date"`
	Rating            int                      `json:"rating"`
	Notes             string                   `json:"notes"`
	DiscussionAnswers []types.DiscussionAnswer `json:"discussion_answers"`
	Photos            []types.Photo            `json:"photos"`
	Location          *types.Location          `json:"location"`
	WeatherContext    *types.WeatherContext    `json:"weather_context"`
}

// discussionAnswerJSON represents an answer in discussion_answers.jsonl.
type discussionAnswerJSON struct {
	AnswerID   string `json:"answer_id"`
	MemoryID   string `json:"memory_id"`
	QuestionID string `json:"question_id"`
	Response   string `json:"response"`
	ChildAge   int    `json:"child_age"`
}

func toMovieJSON(m types.Movie) movieJSON {
	return movieJSON{
		MovieID:             m.ID,
		Title:               m.Title,
		AgeGroup:            string(m.AgeGroup),
		Genre:               m.Genre,
		Year:                m.Year,
		RuntimeMinutes:      m.RuntimeMinutes,
		StreamingServices:   m.StreamingServices,
		Synopsis:            m.Synopsis,
		DiscussionQuestions: m.DiscussionQuestions,
	}
}

func (r movieJSON) toMovie() types.Movie {
	return types.Movie{
		ID:                  r.MovieID,
		Title:               r.Title,
		AgeGroup:            types.AgeGroup(r.AgeGroup),
		Genre:               r.Genre,
		Year:                r.Year,
		RuntimeMinutes:      r.RuntimeMinutes,
		StreamingServices:   r.StreamingServices,
		Synopsis:            r.Synopsis,
		DiscussionQuestions: r.DiscussionQuestions,
	}
}

func toMemoryJSON(m types.Memory) memoryJSON {
	return memoryJSON{
		MemoryID:          m.ID,
		MovieID:           m.MovieID,
		WatchDate:         formatTime(m.WatchDate),
		Rating:            m.Rating,
		Notes:             m.Notes,
		DiscussionAnswers: m.DiscussionAnswers,
		Photos:            m.Photos,
		Location:          m.Location,
		WeatherContext:    m.WeatherContext,
	}
}

func (r memoryJSON) toMemory() (types.Memory, error) {
	watched, err := parseTime(r.WatchDate)
	if err != nil {
		return types.Memory{}, fmt.Errorf("memory %s: %w", r.MemoryID, err)
	}
	return types.Memory{
		ID:                r.MemoryID,
		MovieID:           r.MovieID,
		WatchDate:         watched,
		Rating:            r.Rating,
		Notes:             r.Notes,
		DiscussionAnswers: r.DiscussionAnswers,
		Photos:            r.Photos,
		Location:          r.Location,
		WeatherContext:    r.WeatherContext,
	}, nil
}

func toDiscussionAnswerJSON(a types.DiscussionAnswer) discussionAnswerJSON {
	return discussionAnswerJSON{
		AnswerID:   a.ID,
		MemoryID:   a.MemoryID,
		QuestionID: a.QuestionID,
		Response:   a.Response,
		ChildAge:   a.ChildAge,
	}
}

func (r discussionAnswerJSON) toDiscussionAnswer() types.DiscussionAnswer {
	return types.DiscussionAnswer{
		ID:         r.AnswerID,
		MemoryID:   r.MemoryID,
		QuestionID: r.QuestionID,
		Response:   r.Response,
		ChildAge:   r.ChildAge,
	}
}

// Watch dates are stored as RFC 3339 with nanoseconds in UTC so they sort
// lexically. The instant round-trips exactly; parseTime returns it in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing watch date %q: %w", s, err)
	}
	return t.UTC(), nil
}
