package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/movienight/internal/memory"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// listMemories serves GET /api/memories. Query parameters: sort (date,
// rating, movieTitle), movie_id, and q (search text).
func (s *Server) listMemories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	criteria, err := memory.ParseSortCriteria(query.Get("sort"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	memories := s.memories.GetMemoriesSorted(criteria)

	if movieID := query.Get("movie_id"); movieID != "" {
		memories = keep(memories, func(m types.Memory) bool { return m.MovieID == movieID })
	}
	if q := query.Get("q"); q != "" {
		matched := map[string]bool{}
		for _, m := range s.memories.SearchMemories(q) {
			matched[m.ID] = true
		}
		memories = keep(memories, func(m types.Memory) bool { return matched[m.ID] })
	}
	writeJSON(w, s.logger, http.StatusOK, memories)
}

func keep(memories []types.Memory, pred func(types.Memory) bool) []types.Memory {
	out := []types.Memory{}
	for _, m := range memories {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// createMemory serves POST /api/memories. An ID is assigned when the body
// has none.
func (s *Server) createMemory(w http.ResponseWriter, r *http.Request) {
	var m types.Memory
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	if m.ID == "" {
		m.ID = types.NewID()
	}
	for i := range m.DiscussionAnswers {
		if m.DiscussionAnswers[i].ID == "" {
			m.DiscussionAnswers[i].ID = types.NewID()
		}
	}
	if err := m.Validate(); err != nil {
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, exists := s.memories.GetMemory(m.ID); exists {
		writeError(w, s.logger, http.StatusConflict, "memory already exists")
		return
	}
	if !s.memories.CreateMemory(m) {
		writeError(w, s.logger, http.StatusConflict, "memory could not be saved")
		return
	}
	created, _ := s.memories.GetMemory(m.ID)
	writeJSON(w, s.logger, http.StatusCreated, created)
}

// updateMemory serves PUT /api/memories/{memoryID}, replacing the memory.
func (s *Server) updateMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")
	var m types.Memory
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	if m.ID == "" {
		m.ID = id
	}
	if m.ID != id {
		writeError(w, s.logger, http.StatusBadRequest, "memory id does not match path")
		return
	}
	if _, exists := s.memories.GetMemory(id); !exists {
		writeError(w, s.logger, http.StatusNotFound, "memory not found")
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !s.memories.UpdateMemory(m) {
		writeError(w, s.logger, http.StatusConflict, "memory could not be updated")
		return
	}
	updated, _ := s.memories.GetMemory(id)
	writeJSON(w, s.logger, http.StatusOK, updated)
}

func (s *Server) getMemory(w http.ResponseWriter, r *http.Request) {
	m, ok := s.memories.GetMemory(chi.URLParam(r, "memoryID"))
	if !ok {
		writeError(w, s.logger, http.StatusNotFound, "memory not found")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, m)
}

func (s *Server) deleteMemory(w http.ResponseWriter, r *http.Request) {
	if !s.memories.DeleteMemory(chi.URLParam(r, "memoryID")) {
		writeError(w, s.logger, http.StatusNotFound, "memory not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAnswers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")
	if _, ok := s.memories.GetMemory(id); !ok {
		writeError(w, s.logger, http.StatusNotFound, "memory not found")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.memories.GetDiscussionAnswers(id))
}

// addAnswer serves POST /api/memories/{memoryID}/answers.
func (s *Server) addAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")
	var a types.DiscussionAnswer
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	if a.ID == "" {
		a.ID = types.NewID()
	}
	if err := a.Validate(); err != nil {
		writeError(w, s.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, ok := s.memories.GetMemory(id); !ok {
		writeError(w, s.logger, http.StatusNotFound, "memory not found")
		return
	}
	if !s.memories.SaveDiscussionAnswer(a, id) {
		writeError(w, s.logger, http.StatusConflict, "answer could not be saved")
		return
	}
	a.MemoryID = id
	writeJSON(w, s.logger, http.StatusCreated, a)
}

type statsResponse struct {
	Count         int                 `json:"count"`
	AverageRating float64             `json:"average_rating"`
	Histogram     map[int]int         `json:"histogram"`
	MostWatched   []memory.MovieCount `json:"most_watched"`
}

// mostWatchedLimit caps the most_watched list in /api/stats.
const mostWatchedLimit = 5

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, statsResponse{
		Count:         s.memories.GetMemoryCount(),
		AverageRating: s.memories.GetAverageRating(),
		Histogram:     s.memories.GetRatingHistogram(),
		MostWatched:   s.memories.GetMostWatchedMovies(mostWatchedLimit),
	})
}
