// Package movie serves the movie catalog: lookups, age-appropriate filtering,
// search and per-age discussion questions.
package movie

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// Service is the catalog capability set.
type Service interface {
	GetAllMovies() []types.Movie
	GetMovie(id string) (types.Movie, bool)
	GetMoviesForAgeGroup(group types.AgeGroup) []types.Movie
	SearchMovies(query string) []types.Movie
	AddMovie(m types.Movie) bool
	GetDiscussionQuestions(movieID string, childAge int) []types.DiscussionQuestion
}

// CatalogService is the default Service. It caches the catalog after the
// first load and writes the whole collection back on AddMovie.
type CatalogService struct {
	provider types.MovieProvider
	logger   *zap.Logger

	mu     sync.Mutex
	loaded bool
	movies []types.Movie
}

// NewService returns a CatalogService over provider. A nil logger is
// replaced with a no-op logger.
func NewService(provider types.MovieProvider, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{provider: provider, logger: logger.Named("movie")}
}

// ensureLoaded fills the cache on first use. Callers hold s.mu.
func (s *CatalogService) ensureLoaded() {
	if s.loaded {
		return
	}
	movies, err := s.provider.LoadMovies()
	if err != nil {
		s.logger.Error("loading movies", zap.Error(err))
		return
	}
	s.movies = movies
	s.loaded = true
}

func cloneAll(movies []types.Movie) []types.Movie {
	out := make([]types.Movie, len(movies))
	for i, m := range movies {
		out[i] = m.Clone()
	}
	return out
}

// GetAllMovies returns the catalog sorted by age group, then title.
func (s *CatalogService) GetAllMovies() []types.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	out := cloneAll(s.movies)
	sortByGroupThenTitle(out)
	return out
}

// GetMovie returns the movie with id.
func (s *CatalogService) GetMovie(id string) (types.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	for _, m := range s.movies {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return types.Movie{}, false
}

// GetMoviesForAgeGroup returns movies suitable for a viewer in group: every
// movie whose group is the same or younger.
func (s *CatalogService) GetMoviesForAgeGroup(group types.AgeGroup) []types.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	out := []types.Movie{}
	for _, m := range s.movies {
		if m.SuitableFor(group) {
			out = append(out, m.Clone())
		}
	}
	sortByGroupThenTitle(out)
	return out
}

// SearchMovies matches query case-insensitively against title, genre and
// synopsis. A blank query returns the whole catalog.
func (s *CatalogService) SearchMovies(query string) []types.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	out := []types.Movie{}
	for _, m := range s.movies {
		if q == "" ||
			strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Genre), q) ||
			strings.Contains(strings.ToLower(m.Synopsis), q) {
			out = append(out, m.Clone())
		}
	}
	sortByGroupThenTitle(out)
	return out
}

// AddMovie validates m, assigning an ID when empty, and persists the catalog.
// Duplicate IDs are rejected.
func (s *CatalogService) AddMovie(m types.Movie) bool {
	if m.ID == "" {
		m.ID = types.NewID()
	}
	for i := range m.DiscussionQuestions {
		if m.DiscussionQuestions[i].ID == "" {
			m.DiscussionQuestions[i].ID = types.NewID()
		}
	}
	if err := m.Validate(); err != nil {
		s.logger.Warn("rejecting movie", zap.String("title", m.Title), zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	if !s.loaded {
		return false
	}
	for _, existing := range s.movies {
		if existing.ID == m.ID {
			s.logger.Warn("rejecting movie", zap.String("id", m.ID), zap.Error(types.ErrDuplicateID))
			return false
		}
	}

	next := append(cloneAll(s.movies), m.Clone())
	if err := s.provider.SaveMovies(next); err != nil {
		s.logger.Error("saving movies", zap.Error(err))
		return false
	}
	s.movies = next
	s.logger.Info("movie added", zap.String("id", m.ID), zap.String("title", m.Title))
	return true
}

// GetDiscussionQuestions returns the movie's questions suited to childAge.
// A negative childAge returns every question.
func (s *CatalogService) GetDiscussionQuestions(movieID string, childAge int) []types.DiscussionQuestion {
	m, ok := s.GetMovie(movieID)
	if !ok {
		return []types.DiscussionQuestion{}
	}
	out := []types.DiscussionQuestion{}
	for _, q := range m.DiscussionQuestions {
		if childAge < 0 || q.MinAge <= childAge {
			out = append(out, q)
		}
	}
	return out
}

func sortByGroupThenTitle(movies []types.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		ri, rj := movies[i].AgeGroup.Rank(), movies[j].AgeGroup.Rank()
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(movies[i].Title) < strings.ToLower(movies[j].Title)
	})
}
