// Package memory implements the memory service: create, read, update by
// replacement, delete, sort, search and statistics over watched-movie
// memories and their discussion answers.
package memory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// Service is the memory capability set. Failures are reported as false or an
// empty result and logged; they never surface as errors.
type Service interface {
	GetAllMemories() []types.Memory
	GetMemories(movieID string) []types.Memory
	GetMemory(id string) (types.Memory, bool)
	CreateMemory(m types.Memory) bool
	UpdateMemory(m types.Memory) bool
	DeleteMemory(id string) bool
	LoadMemories() []types.Memory
	SaveDiscussionAnswer(answer types.DiscussionAnswer, memoryID string) bool
	GetDiscussionAnswers(memoryID string) []types.DiscussionAnswer
	GetMemoryCount() int
	GetAverageRating() float64
	GetMemoriesSorted(criteria SortCriteria) []types.Memory
	SearchMemories(query string) []types.Memory
	GetRatingHistogram() map[int]int
	GetMostWatchedMovies(n int) []MovieCount
}

// MovieLookup resolves movie IDs for title sorting and search.
type MovieLookup interface {
	GetMovie(id string) (types.Movie, bool)
}

// MovieCount is one row of GetMostWatchedMovies.
type MovieCount struct {
	MovieID string `json:"movie_id"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
}

// CachedService is the default Service. Collections are loaded once and
// served from memory; LoadMemories forces a reload and every mutation writes
// the whole collection back through the provider before updating the cache.
//
// Each memory embeds its discussion answers, and the answer collection holds
// the same answers keyed by MemoryID. Mutations keep the two in step.
type CachedService struct {
	provider types.MemoryProvider
	movies   MovieLookup
	logger   *zap.Logger

	mu       sync.Mutex
	loaded   bool
	memories []types.Memory
	answers  []types.DiscussionAnswer
}

// NewService returns a CachedService. movies may be nil, in which case title
// sorting and title search see empty titles. A nil logger is replaced with a
// no-op logger.
func NewService(provider types.MemoryProvider, movies MovieLookup, logger *zap.Logger) *CachedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedService{provider: provider, movies: movies, logger: logger.Named("memory")}
}

// reload replaces the cache from the provider. Callers hold s.mu.
func (s *CachedService) reload() error {
	memories, err := s.provider.LoadMemories()
	if err != nil {
		return fmt.Errorf("loading memories: %w", err)
	}
	answers, err := s.provider.LoadDiscussionAnswers()
	if err != nil {
		return fmt.Errorf("loading discussion answers: %w", err)
	}
	s.memories = memories
	s.answers = answers
	s.loaded = true
	return nil
}

// ensureLoaded loads the cache on first use. Callers hold s.mu.
func (s *CachedService) ensureLoaded() bool {
	if s.loaded {
		return true
	}
	if err := s.reload(); err != nil {
		s.logger.Error("initial load failed", zap.Error(err))
		return false
	}
	return true
}

// commit persists the next collections and swaps them into the cache. The
// answer collection is only written when answersChanged. If the answer save
// fails the previous memory collection is written back.
func (s *CachedService) commit(memories []types.Memory, answers []types.DiscussionAnswer, answersChanged bool) error {
	if err := s.provider.SaveMemories(memories); err != nil {
		return fmt.Errorf("saving memories: %w", err)
	}
	if answersChanged {
		if err := s.provider.SaveDiscussionAnswers(answers); err != nil {
			if rbErr := s.provider.SaveMemories(s.memories); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("restoring memories: %w", rbErr))
			}
			return fmt.Errorf("saving discussion answers: %w", err)
		}
	}
	s.memories = memories
	if answersChanged {
		s.answers = answers
	}
	return nil
}

func cloneMemories(memories []types.Memory) []types.Memory {
	out := make([]types.Memory, len(memories))
	for i, m := range memories {
		out[i] = m.Clone()
	}
	return out
}

func (s *CachedService) indexOf(id string) int {
	for i, m := range s.memories {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// snapshot returns a deep copy of the cached memories, loading first if
// needed.
func (s *CachedService) snapshot() []types.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return []types.Memory{}
	}
	return cloneMemories(s.memories)
}

// GetAllMemories returns every memory in stored order.
func (s *CachedService) GetAllMemories() []types.Memory {
	return s.snapshot()
}

// GetMemories returns the memories of one movie.
func (s *CachedService) GetMemories(movieID string) []types.Memory {
	out := []types.Memory{}
	for _, m := range s.snapshot() {
		if m.MovieID == movieID {
			out = append(out, m)
		}
	}
	return out
}

// GetMemory returns the memory with id.
func (s *CachedService) GetMemory(id string) (types.Memory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return types.Memory{}, false
	}
	if i := s.indexOf(id); i >= 0 {
		return s.memories[i].Clone(), true
	}
	return types.Memory{}, false
}

// prepareAnswers assigns missing answer IDs and ties every embedded answer to
// its memory.
func prepareAnswers(m *types.Memory) {
	for i := range m.DiscussionAnswers {
		if m.DiscussionAnswers[i].ID == "" {
			m.DiscussionAnswers[i].ID = types.NewID()
		}
		m.DiscussionAnswers[i].MemoryID = m.ID
	}
}

// answerIDsFree reports whether none of candidates reuses an ID held by an
// answer outside owner, or repeats within candidates.
func answerIDsFree(existing []types.DiscussionAnswer, owner string, candidates []types.DiscussionAnswer) bool {
	taken := make(map[string]bool, len(existing))
	for _, a := range existing {
		if a.MemoryID != owner {
			taken[a.ID] = true
		}
	}
	for _, a := range candidates {
		if taken[a.ID] {
			return false
		}
		taken[a.ID] = true
	}
	return true
}

// CreateMemory validates and persists a new memory. An empty ID is replaced
// with a fresh one. Embedded answers are also recorded in the answer
// collection. Returns false on a validation failure, a duplicate memory or
// answer ID, or a storage failure.
func (s *CachedService) CreateMemory(m types.Memory) bool {
	m = m.Clone()
	if m.ID == "" {
		m.ID = types.NewID()
	}
	prepareAnswers(&m)
	if err := m.Validate(); err != nil {
		s.logger.Warn("rejecting memory", zap.String("id", m.ID), zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return false
	}
	if s.indexOf(m.ID) >= 0 {
		s.logger.Warn("rejecting memory", zap.String("id", m.ID), zap.Error(types.ErrDuplicateID))
		return false
	}
	if !answerIDsFree(s.answers, m.ID, m.DiscussionAnswers) {
		s.logger.Warn("rejecting memory answers", zap.String("id", m.ID), zap.Error(types.ErrDuplicateID))
		return false
	}

	memories := append(cloneMemories(s.memories), m)
	answers := append(append([]types.DiscussionAnswer(nil), s.answers...), m.DiscussionAnswers...)
	if err := s.commit(memories, answers, len(m.DiscussionAnswers) > 0); err != nil {
		s.logger.Error("creating memory", zap.String("id", m.ID), zap.Error(err))
		return false
	}
	s.logger.Info("memory created", zap.String("id", m.ID), zap.String("movie_id", m.MovieID), zap.Int("rating", m.Rating))
	return true
}

// UpdateMemory replaces the stored memory with the same ID. The memory's
// answers in the answer collection are replaced by its embedded answers.
func (s *CachedService) UpdateMemory(m types.Memory) bool {
	m = m.Clone()
	prepareAnswers(&m)
	if err := m.Validate(); err != nil {
		s.logger.Warn("rejecting memory update", zap.String("id", m.ID), zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return false
	}
	idx := s.indexOf(m.ID)
	if idx < 0 {
		s.logger.Warn("rejecting memory update", zap.String("id", m.ID), zap.Error(types.ErrNotFound))
		return false
	}
	if !answerIDsFree(s.answers, m.ID, m.DiscussionAnswers) {
		s.logger.Warn("rejecting memory update", zap.String("id", m.ID), zap.Error(types.ErrDuplicateID))
		return false
	}

	memories := cloneMemories(s.memories)
	memories[idx] = m
	answers := make([]types.DiscussionAnswer, 0, len(s.answers)+len(m.DiscussionAnswers))
	for _, a := range s.answers {
		if a.MemoryID != m.ID {
			answers = append(answers, a)
		}
	}
	answers = append(answers, m.DiscussionAnswers...)
	if err := s.commit(memories, answers, true); err != nil {
		s.logger.Error("updating memory", zap.String("id", m.ID), zap.Error(err))
		return false
	}
	s.logger.Info("memory updated", zap.String("id", m.ID))
	return true
}

// DeleteMemory removes the memory with id and its discussion answers.
// Returns true only if a memory existed and was removed.
func (s *CachedService) DeleteMemory(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return false
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	memories := make([]types.Memory, 0, len(s.memories)-1)
	memories = append(memories, cloneMemories(s.memories[:idx])...)
	memories = append(memories, cloneMemories(s.memories[idx+1:])...)

	answers := make([]types.DiscussionAnswer, 0, len(s.answers))
	for _, a := range s.answers {
		if a.MemoryID != id {
			answers = append(answers, a)
		}
	}
	if err := s.commit(memories, answers, len(answers) != len(s.answers)); err != nil {
		s.logger.Error("deleting memory", zap.String("id", id), zap.Error(err))
		return false
	}
	s.logger.Info("memory deleted", zap.String("id", id))
	return true
}

// LoadMemories reloads both collections from the provider and returns the
// memories. On a load failure the previous cache is kept and returned.
func (s *CachedService) LoadMemories() []types.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(); err != nil {
		s.logger.Error("reloading memories", zap.Error(err))
	}
	return cloneMemories(s.memories)
}

// SaveDiscussionAnswer attaches answer to the memory memoryID and persists
// both collections. Answers for unknown memories are rejected, as are
// duplicate answer IDs.
func (s *CachedService) SaveDiscussionAnswer(answer types.DiscussionAnswer, memoryID string) bool {
	if answer.ID == "" {
		answer.ID = types.NewID()
	}
	answer.MemoryID = memoryID
	if err := answer.Validate(); err != nil {
		s.logger.Warn("rejecting discussion answer", zap.String("memory_id", memoryID), zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return false
	}
	idx := s.indexOf(memoryID)
	if idx < 0 {
		s.logger.Warn("rejecting discussion answer", zap.String("memory_id", memoryID), zap.Error(types.ErrOrphanAnswer))
		return false
	}
	for _, a := range s.answers {
		if a.ID == answer.ID {
			s.logger.Warn("rejecting discussion answer", zap.String("id", answer.ID), zap.Error(types.ErrDuplicateID))
			return false
		}
	}

	memories := cloneMemories(s.memories)
	memories[idx].DiscussionAnswers = append(memories[idx].DiscussionAnswers, answer)
	answers := append(append([]types.DiscussionAnswer(nil), s.answers...), answer)
	if err := s.commit(memories, answers, true); err != nil {
		s.logger.Error("saving discussion answer", zap.String("memory_id", memoryID), zap.Error(err))
		return false
	}
	return true
}

// GetDiscussionAnswers returns the answers recorded for memoryID.
func (s *CachedService) GetDiscussionAnswers(memoryID string) []types.DiscussionAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.DiscussionAnswer{}
	if !s.ensureLoaded() {
		return out
	}
	for _, a := range s.answers {
		if a.MemoryID == memoryID {
			out = append(out, a)
		}
	}
	return out
}

// GetMemoryCount returns the number of memories.
func (s *CachedService) GetMemoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() {
		return 0
	}
	return len(s.memories)
}

// GetAverageRating returns the mean rating, or 0 when there are no memories.
func (s *CachedService) GetAverageRating() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureLoaded() || len(s.memories) == 0 {
		return 0
	}
	total := 0
	for _, m := range s.memories {
		total += m.Rating
	}
	return float64(total) / float64(len(s.memories))
}

// GetMemoriesSorted returns every memory ordered by criteria. Unknown
// criteria sort by date.
func (s *CachedService) GetMemoriesSorted(criteria SortCriteria) []types.Memory {
	out := s.snapshot()
	sortMemories(out, criteria, s.title)
	return out
}

// SearchMemories returns memories whose notes, movie title or location name
// contain query, ignoring case. A blank query returns every memory.
func (s *CachedService) SearchMemories(query string) []types.Memory {
	all := s.snapshot()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := []types.Memory{}
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Notes), q) ||
			strings.Contains(strings.ToLower(s.title(m.MovieID)), q) ||
			(m.Location != nil && strings.Contains(strings.ToLower(m.Location.Name), q)) {
			out = append(out, m)
		}
	}
	return out
}

// GetRatingHistogram counts memories per rating, with every rating from
// MinRating to MaxRating present.
func (s *CachedService) GetRatingHistogram() map[int]int {
	hist := make(map[int]int, types.MaxRating)
	for r := types.MinRating; r <= types.MaxRating; r++ {
		hist[r] = 0
	}
	for _, m := range s.snapshot() {
		hist[m.Rating]++
	}
	return hist
}

// GetMostWatchedMovies returns up to n movies ordered by how many memories
// reference them, most first; ties order by title. n <= 0 returns all.
func (s *CachedService) GetMostWatchedMovies(n int) []MovieCount {
	counts := map[string]int{}
	var order []string
	for _, m := range s.snapshot() {
		if counts[m.MovieID] == 0 {
			order = append(order, m.MovieID)
		}
		counts[m.MovieID]++
	}

	out := make([]MovieCount, 0, len(order))
	for _, id := range order {
		out = append(out, MovieCount{MovieID: id, Title: s.title(id), Count: counts[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// title resolves a movie ID without holding s.mu.
func (s *CachedService) title(movieID string) string {
	if s.movies == nil {
		return ""
	}
	if m, ok := s.movies.GetMovie(movieID); ok {
		return m.Title
	}
	return ""
}
