package bolt

import (
	"fmt"

	"github.com/timshannon/bolthold"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// LoadMovies returns the catalog in saved order.
func (b *Backend) LoadMovies() ([]types.Movie, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	var recs []movieRecord
	if err := b.store.Find(&recs, bySeq()); err != nil {
		return nil, fmt.Errorf("finding movies: %w", err)
	}
	movies := make([]types.Movie, len(recs))
	for i, r := range recs {
		movies[i] = r.Movie
	}
	return movies, nil
}

// SaveMovies replaces the catalog.
func (b *Backend) SaveMovies(movies []types.Movie) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}
	return saveMovies(b.store, movies)
}

func saveMovies(store *bolthold.Store, movies []types.Movie) error {
	keys := make([]string, len(movies))
	recs := make([]movieRecord, len(movies))
	for i, m := range movies {
		keys[i] = m.ID
		recs[i] = movieRecord{Seq: i, Movie: m}
	}
	return replaceAll(store, keys, recs)
}

// LoadMemories returns every memory in saved order.
func (b *Backend) LoadMemories() ([]types.Memory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	var recs []memoryRecord
	if err := b.store.Find(&recs, bySeq()); err != nil {
		return nil, fmt.Errorf("finding memories: %w", err)
	}
	memories := make([]types.Memory, len(recs))
	for i, r := range recs {
		memories[i] = r.Memory
		memories[i].WatchDate = r.Memory.WatchDate.UTC()
	}
	return memories, nil
}

// SaveMemories replaces the memory collection.
func (b *Backend) SaveMemories(memories []types.Memory) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}

	keys := make([]string, len(memories))
	recs := make([]memoryRecord, len(memories))
	for i, m := range memories {
		keys[i] = m.ID
		recs[i] = memoryRecord{Seq: i, Memory: m}
	}
	return replaceAll(b.store, keys, recs)
}

// LoadDiscussionAnswers returns every answer in saved order.
func (b *Backend) LoadDiscussionAnswers() ([]types.DiscussionAnswer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrBackendDetached
	}

	var recs []answerRecord
	if err := b.store.Find(&recs, bySeq()); err != nil {
		return nil, fmt.Errorf("finding discussion answers: %w", err)
	}
	answers := make([]types.DiscussionAnswer, len(recs))
	for i, r := range recs {
		answers[i] = r.Answer
	}
	return answers, nil
}

// SaveDiscussionAnswers replaces the answer collection.
func (b *Backend) SaveDiscussionAnswers(answers []types.DiscussionAnswer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}

	keys := make([]string, len(answers))
	recs := make([]answerRecord, len(answers))
	for i, a := range answers {
		keys[i] = a.ID
		recs[i] = answerRecord{Seq: i, Answer: a}
	}
	return replaceAll(b.store, keys, recs)
}
