package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// listMovies serves GET /api/movies. Query parameters: age_group keeps
// movies suitable for that group, q searches title, genre and synopsis.
func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	movies := s.movies.SearchMovies(query.Get("q"))

	if raw := query.Get("age_group"); raw != "" {
		group, err := types.ParseAgeGroup(raw)
		if err != nil {
			writeError(w, s.logger, http.StatusBadRequest, err.Error())
			return
		}
		suitable := movies[:0]
		for _, m := range movies {
			if m.SuitableFor(group) {
				suitable = append(suitable, m)
			}
		}
		movies = suitable
	}
	writeJSON(w, s.logger, http.StatusOK, movies)
}

type movieResponse struct {
	types.Movie
	AgeGroupName string `json:"age_group_name"`
	Availability string `json:"availability"`
}

// getMovie serves GET /api/movies/{movieID}. With child_age set, only the
// discussion questions suitable for that age are returned.
func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "movieID")
	m, ok := s.movies.GetMovie(id)
	if !ok {
		writeError(w, s.logger, http.StatusNotFound, "movie not found")
		return
	}
	if raw := r.URL.Query().Get("child_age"); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 {
			writeError(w, s.logger, http.StatusBadRequest, "child_age must be a non-negative integer")
			return
		}
		m.DiscussionQuestions = s.movies.GetDiscussionQuestions(id, age)
	}
	writeJSON(w, s.logger, http.StatusOK, movieResponse{
		Movie:        m,
		AgeGroupName: m.AgeGroup.DisplayName(),
		Availability: m.StreamingAvailability(),
	})
}
