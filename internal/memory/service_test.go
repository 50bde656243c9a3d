package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/internal/sqlite"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// fakeProvider is an in-memory MemoryProvider with injectable failures.
type fakeProvider struct {
	memories      []types.Memory
	answers       []types.DiscussionAnswer
	loadErr       error
	saveErr       error
	answerSaveErr error
	memoryLoads   int
	memorySaves   int
	answerSaves   int
}

func (p *fakeProvider) LoadMemories() ([]types.Memory, error) {
	p.memoryLoads++
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return append([]types.Memory(nil), p.memories...), nil
}

func (p *fakeProvider) SaveMemories(m []types.Memory) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.memorySaves++
	p.memories = append([]types.Memory(nil), m...)
	return nil
}

func (p *fakeProvider) LoadDiscussionAnswers() ([]types.DiscussionAnswer, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return append([]types.DiscussionAnswer(nil), p.answers...), nil
}

func (p *fakeProvider) SaveDiscussionAnswers(a []types.DiscussionAnswer) error {
	if p.answerSaveErr != nil {
		return p.answerSaveErr
	}
	p.answerSaves++
	p.answers = append([]types.DiscussionAnswer(nil), a...)
	return nil
}

// fakeMovies resolves a fixed set of titles.
type fakeMovies map[string]string

func (f fakeMovies) GetMovie(id string) (types.Movie, bool) {
	title, ok := f[id]
	if !ok {
		return types.Movie{}, false
	}
	return types.Movie{ID: id, Title: title}, true
}

var testMovies = fakeMovies{
	"mv-totoro": "My Neighbor Totoro",
	"mv-up":     "Up",
	"mv-coco":   "coco",
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 19, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*CachedService, *fakeProvider) {
	t.Helper()
	p := &fakeProvider{}
	return NewService(p, testMovies, zap.NewNop()), p
}

func ids(memories []types.Memory) []string {
	out := make([]string, len(memories))
	for i, m := range memories {
		out[i] = m.ID
	}
	return out
}

func TestCreateThenGet(t *testing.T) {
	s, p := newTestService(t)

	m := types.NewMemory("mv-up", day(3), 4,
		types.WithNotes("cried at the start"),
		types.WithAnswers(types.NewDiscussionAnswer("q-1", "Carl", 8)),
		types.WithLocation(types.Location{Name: "Cabin"}),
	)
	require.True(t, s.CreateMemory(m))

	got, ok := s.GetMemory(m.ID)
	require.True(t, ok)
	assert.Equal(t, m, got)

	assert.Len(t, p.memories, 1)
	assert.Equal(t, m.DiscussionAnswers, p.answers, "embedded answers are recorded")
	assert.Equal(t, m.DiscussionAnswers, s.GetDiscussionAnswers(m.ID))
}

func TestCreateAssignsID(t *testing.T) {
	s, _ := newTestService(t)

	m := types.Memory{MovieID: "mv-up", WatchDate: day(1), Rating: 3}
	require.True(t, s.CreateMemory(m))

	all := s.GetAllMemories()
	require.Len(t, all, 1)
	assert.NotEmpty(t, all[0].ID)
}

func TestCreateRejects(t *testing.T) {
	s, p := newTestService(t)
	existing := types.NewMemory("mv-up", day(1), 3)
	require.True(t, s.CreateMemory(existing))

	tests := []struct {
		name string
		m    types.Memory
	}{
		{"rating too low", types.NewMemory("mv-up", day(2), 0)},
		{"rating too high", types.NewMemory("mv-up", day(2), 6)},
		{"missing movie", types.NewMemory("", day(2), 3)},
		{"missing date", types.NewMemory("mv-up", time.Time{}, 3)},
		{"duplicate id", existing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, s.CreateMemory(tt.m))
		})
	}
	assert.Equal(t, 1, p.memorySaves)
	assert.Equal(t, 1, s.GetMemoryCount())
}

func TestCreateStorageFailure(t *testing.T) {
	s, p := newTestService(t)
	p.saveErr = errors.New("disk full")

	assert.False(t, s.CreateMemory(types.NewMemory("mv-up", day(1), 3)))
	assert.Zero(t, s.GetMemoryCount(), "cache is untouched on failure")
}

func TestCreateAnswerSaveFailureRestoresMemories(t *testing.T) {
	s, p := newTestService(t)
	p.answerSaveErr = errors.New("disk full")

	m := types.NewMemory("mv-up", day(1), 3, types.WithAnswers(types.NewDiscussionAnswer("q", "a", 7)))
	assert.False(t, s.CreateMemory(m))
	assert.Empty(t, p.memories)
	assert.Zero(t, s.GetMemoryCount())
}

func TestGetMemoriesByMovie(t *testing.T) {
	s, _ := newTestService(t)

	up1 := types.NewMemory("mv-up", day(1), 3)
	coco := types.NewMemory("mv-coco", day(2), 5)
	up2 := types.NewMemory("mv-up", day(3), 4)
	for _, m := range []types.Memory{up1, coco, up2} {
		require.True(t, s.CreateMemory(m))
	}

	assert.Equal(t, []string{up1.ID, up2.ID}, ids(s.GetMemories("mv-up")))
	got := s.GetMemories("mv-none")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDeleteIsolation(t *testing.T) {
	s, p := newTestService(t)

	m1 := types.NewMemory("mv-up", day(1), 3, types.WithAnswers(types.NewDiscussionAnswer("q-1", "balloons", 6)))
	m2 := types.NewMemory("mv-coco", day(2), 5, types.WithAnswers(types.NewDiscussionAnswer("q-2", "music", 9)))
	require.True(t, s.CreateMemory(m1))
	require.True(t, s.CreateMemory(m2))

	assert.True(t, s.DeleteMemory(m1.ID))
	assert.False(t, s.DeleteMemory(m1.ID), "second delete finds nothing")
	assert.False(t, s.DeleteMemory("missing"))

	_, ok := s.GetMemory(m1.ID)
	assert.False(t, ok)
	got, ok := s.GetMemory(m2.ID)
	require.True(t, ok)
	assert.Equal(t, m2, got)

	assert.Empty(t, s.GetDiscussionAnswers(m1.ID), "answers cascade")
	assert.Len(t, s.GetDiscussionAnswers(m2.ID), 1)
	assert.Len(t, p.answers, 1)
}

func TestUpdateMemory(t *testing.T) {
	s, p := newTestService(t)

	m := types.NewMemory("mv-up", day(1), 2, types.WithAnswers(types.NewDiscussionAnswer("q-1", "old", 6)))
	require.True(t, s.CreateMemory(m))

	updated := m.Clone()
	updated.Rating = 5
	updated.Notes = "better the second time"
	updated.DiscussionAnswers = []types.DiscussionAnswer{types.NewDiscussionAnswer("q-2", "new", 7)}
	require.True(t, s.UpdateMemory(updated))

	got, ok := s.GetMemory(m.ID)
	require.True(t, ok)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "better the second time", got.Notes)

	answers := s.GetDiscussionAnswers(m.ID)
	require.Len(t, answers, 1)
	assert.Equal(t, "new", answers[0].Response)
	assert.Equal(t, m.ID, answers[0].MemoryID)
	assert.Len(t, p.answers, 1)

	missing := types.NewMemory("mv-up", day(1), 3)
	assert.False(t, s.UpdateMemory(missing), "update does not insert")
	bad := got.Clone()
	bad.Rating = 9
	assert.False(t, s.UpdateMemory(bad))
}

func TestAverageRating(t *testing.T) {
	s, _ := newTestService(t)
	assert.Equal(t, 0.0, s.GetAverageRating(), "empty set averages to zero")

	for i, r := range []int{5, 4, 2, 4} {
		require.True(t, s.CreateMemory(types.NewMemory("mv-up", day(i+1), r)))
	}
	assert.InDelta(t, 3.75, s.GetAverageRating(), 1e-9)
}

func TestGetMemoriesSorted(t *testing.T) {
	s, _ := newTestService(t)

	a := types.NewMemory("mv-up", day(2), 3)
	b := types.NewMemory("mv-totoro", day(5), 5)
	c := types.NewMemory("mv-coco", day(1), 3)
	d := types.NewMemory("mv-unknown", day(4), 1)
	for _, m := range []types.Memory{a, b, c, d} {
		require.True(t, s.CreateMemory(m))
	}

	t.Run("date newest first", func(t *testing.T) {
		assert.Equal(t, []string{b.ID, d.ID, a.ID, c.ID}, ids(s.GetMemoriesSorted(SortByDate)))
	})
	t.Run("rating highest first and stable", func(t *testing.T) {
		got := s.GetMemoriesSorted(SortByRating)
		assert.Equal(t, []string{b.ID, a.ID, c.ID, d.ID}, ids(got))
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Rating, got[i].Rating)
		}
	})
	t.Run("title case-insensitive, unknown last", func(t *testing.T) {
		assert.Equal(t, []string{c.ID, b.ID, a.ID, d.ID}, ids(s.GetMemoriesSorted(SortByMovieTitle)))
	})
}

func TestSearchMemories(t *testing.T) {
	s, _ := newTestService(t)

	a := types.NewMemory("mv-up", day(1), 4, types.WithNotes("Popcorn everywhere"))
	b := types.NewMemory("mv-totoro", day(2), 5, types.WithLocation(types.Location{Name: "Grandma's porch"}))
	c := types.NewMemory("mv-coco", day(3), 3)
	for _, m := range []types.Memory{a, b, c} {
		require.True(t, s.CreateMemory(m))
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"popcorn", []string{a.ID}},
		{"PORCH", []string{b.ID}},
		{"neighbor", []string{b.ID}},
		{"Coco", []string{c.ID}},
		{"", []string{a.ID, b.ID, c.ID}},
		{"dragon", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(s.SearchMemories(tt.query)))
		})
	}
}

func TestSaveDiscussionAnswer(t *testing.T) {
	s, p := newTestService(t)
	m := types.NewMemory("mv-up", day(1), 4)
	require.True(t, s.CreateMemory(m))

	t.Run("orphan rejected", func(t *testing.T) {
		assert.False(t, s.SaveDiscussionAnswer(types.NewDiscussionAnswer("q-1", "kite", 6), "no-such-memory"))
		assert.Empty(t, p.answers)
	})

	t.Run("attached answer accepted", func(t *testing.T) {
		a := types.NewDiscussionAnswer("q-1", "the house flew", 6)
		require.True(t, s.SaveDiscussionAnswer(a, m.ID))

		got := s.GetDiscussionAnswers(m.ID)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
		assert.Equal(t, m.ID, got[0].MemoryID)

		stored, _ := s.GetMemory(m.ID)
		assert.Len(t, stored.DiscussionAnswers, 1, "answer is embedded in its memory")

		assert.False(t, s.SaveDiscussionAnswer(a, m.ID), "duplicate answer id")
	})

	t.Run("invalid answer rejected", func(t *testing.T) {
		assert.False(t, s.SaveDiscussionAnswer(types.DiscussionAnswer{QuestionID: "q-1"}, m.ID))
	})
}

func TestLoadMemoriesRefreshesCache(t *testing.T) {
	s, p := newTestService(t)
	require.True(t, s.CreateMemory(types.NewMemory("mv-up", day(1), 4)))

	outside := types.NewMemory("mv-coco", day(2), 2)
	p.memories = append(p.memories, outside)

	assert.Len(t, s.GetAllMemories(), 1, "cached view")
	assert.Len(t, s.LoadMemories(), 2, "forced reload")
	assert.Len(t, s.GetAllMemories(), 2)

	p.loadErr = errors.New("unreadable")
	assert.Len(t, s.LoadMemories(), 2, "failed reload keeps the cache")
}

func TestLoadFailure(t *testing.T) {
	p := &fakeProvider{loadErr: errors.New("unreadable")}
	s := NewService(p, nil, nil)

	assert.Empty(t, s.GetAllMemories())
	assert.False(t, s.CreateMemory(types.NewMemory("mv-up", day(1), 3)))
	assert.Zero(t, p.memorySaves)
}

func TestStatistics(t *testing.T) {
	s, _ := newTestService(t)
	for i, m := range []struct {
		movie  string
		rating int
	}{
		{"mv-up", 5}, {"mv-coco", 4}, {"mv-up", 5}, {"mv-totoro", 3}, {"mv-coco", 2}, {"mv-up", 4},
	} {
		require.True(t, s.CreateMemory(types.NewMemory(m.movie, day(i+1), m.rating)))
	}

	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 1, 4: 2, 5: 2}, s.GetRatingHistogram())

	top := s.GetMostWatchedMovies(2)
	require.Len(t, top, 2)
	assert.Equal(t, MovieCount{MovieID: "mv-up", Title: "Up", Count: 3}, top[0])
	assert.Equal(t, MovieCount{MovieID: "mv-coco", Title: "coco", Count: 2}, top[1])
	assert.Len(t, s.GetMostWatchedMovies(0), 3)
}

func TestParseSortCriteria(t *testing.T) {
	tests := map[string]SortCriteria{
		"date":       SortByDate,
		"":           SortByDate,
		"Rating":     SortByRating,
		"movieTitle": SortByMovieTitle,
		"title":      SortByMovieTitle,
	}
	for in, want := range tests {
		got, err := ParseSortCriteria(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseSortCriteria("length")
	assert.Error(t, err)
}

func TestServiceOverSQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir, SkipSeed: true}
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(config))

	s := NewService(b, testMovies, zap.NewNop())
	m := types.NewMemory("mv-totoro", day(9), 5, types.WithAnswers(types.NewDiscussionAnswer("q-1", "catbus", 4)))
	require.True(t, s.CreateMemory(m))
	require.True(t, s.SaveDiscussionAnswer(types.NewDiscussionAnswer("q-2", "acorns", 4), m.ID))
	require.NoError(t, b.Detach())

	b2 := sqlite.NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	s2 := NewService(b2, testMovies, zap.NewNop())
	got, ok := s2.GetMemory(m.ID)
	require.True(t, ok)
	assert.Len(t, got.DiscussionAnswers, 2)
	assert.Len(t, s2.GetDiscussionAnswers(m.ID), 2)
}
