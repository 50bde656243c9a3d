package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/movienight/internal/calendar"
	"github.com/mesh-intelligence/movienight/pkg/types"
)

// testEnv is an isolated config and data directory pair.
type testEnv struct {
	configDir string
	dataDir   string
}

const grantedConfig = `backend: %s
log_level: error
calendar:
  default: family
  access: %s
movie_night:
  schedule: "CRON_TZ=UTC 0 18 * * 5"
`

// newEnv creates temp dirs and writes config.yaml when config is non-empty.
func newEnv(t *testing.T, config string) testEnv {
	t.Helper()
	dir := t.TempDir()
	e := testEnv{configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
	if config != "" {
		require.NoError(t, os.MkdirAll(e.configDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte(config), 0o644))
	}
	return e
}

func configFor(backend, access string) string {
	return fmt.Sprintf(grantedConfig, backend, access)
}

type result struct {
	stdout string
	stderr string
	code   int
}

// exec runs the CLI with stdin and returns its output and exit code.
func (e testEnv) exec(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errb bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetIn(strings.NewReader(stdin))
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := run(root, full, &errb)
	return result{stdout: out.String(), stderr: errb.String(), code: code}
}

// ok runs the CLI and requires exit code 0.
func (e testEnv) ok(t *testing.T, args ...string) string {
	t.Helper()
	r := e.exec(t, "", args...)
	require.Equal(t, exitSuccess, r.code, "args %v: %s", args, r.stderr)
	return r.stdout
}

func okJSON[T any](t *testing.T, e testEnv, args ...string) T {
	t.Helper()
	var v T
	out := e.ok(t, append([]string{"--json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestVersion(t *testing.T) {
	e := newEnv(t, "")
	out := e.ok(t, "version")
	assert.Contains(t, out, "movienight v")
	assert.Contains(t, out, "module: github.com/mesh-intelligence/movienight")

	_, err := os.Stat(e.configDir)
	assert.True(t, os.IsNotExist(err), "version must not create the config dir")
}

func TestInit_WritesDefaultConfig(t *testing.T) {
	e := newEnv(t, "")
	out := e.ok(t, "init")
	assert.Contains(t, out, "movienight initialized (sqlite backend, 8 movies)")

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, defaultConfigFile(), cfg)

	// Idempotent: a second init keeps the catalog and the config.
	out = e.ok(t, "init")
	assert.Contains(t, out, "8 movies")
	again, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestInit_ConfigErrors(t *testing.T) {
	t.Run("unknown backend is a user error", func(t *testing.T) {
		e := newEnv(t, "backend: postgres\n")
		r := e.exec(t, "", "init")
		assert.Equal(t, exitUserError, r.code)
		assert.Contains(t, r.stderr, "postgres")
	})

	t.Run("malformed config is a system error", func(t *testing.T) {
		e := newEnv(t, "backend: [sqlite\n")
		r := e.exec(t, "", "init")
		assert.Equal(t, exitSysError, r.code)
	})

	t.Run("unknown access policy is a user error", func(t *testing.T) {
		e := newEnv(t, configFor("sqlite", "sometimes"))
		r := e.exec(t, "", "movie", "list")
		assert.Equal(t, exitUserError, r.code)
	})
}

func TestMovieCommands(t *testing.T) {
	e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessGranted))

	all := okJSON[[]types.Movie](t, e, "movie", "list")
	require.Len(t, all, 8)

	young := okJSON[[]types.Movie](t, e, "movie", "list", "--age", "3")
	require.NotEmpty(t, young)
	for _, m := range young {
		assert.Equal(t, types.AgeGroupPreschoolers, m.AgeGroup)
	}

	table := e.ok(t, "movie", "list", "--age-group", "tweens")
	assert.Contains(t, table, "TITLE")
	assert.Contains(t, table, "Total: 8 movie(s)")

	assert.Equal(t, exitUserError, e.exec(t, "", "movie", "list", "--age-group", "adults").code)
	assert.Equal(t, exitUserError, e.exec(t, "", "movie", "list", "--age", "40").code)

	added := okJSON[types.Movie](t, e, "movie", "add",
		"--title", "The Iron Giant", "--age-group", "bigKids", "--genre", "Animation",
		"--year", "1999", "--streaming", "Max", "--question", "Why did the giant choose not to be a weapon?")
	require.NotEmpty(t, added.ID)

	shown := e.ok(t, "movie", "show", added.ID)
	assert.Contains(t, shown, "The Iron Giant (1999)")
	assert.Contains(t, shown, "Big Kids (8-9)")
	assert.Contains(t, shown, "Streaming:  Max")
	assert.Contains(t, shown, "Why did the giant")

	assert.Len(t, okJSON[[]types.Movie](t, e, "movie", "list"), 9)
	assert.Equal(t, exitUserError, e.exec(t, "", "movie", "show", "no-such-movie").code)
	assert.Equal(t, exitUserError, e.exec(t, "", "movie", "add", "--title", "X", "--age-group", "adults").code)
}

func TestMemoryCommands(t *testing.T) {
	for _, backend := range []string{types.BackendSQLite, types.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			e := newEnv(t, configFor(backend, calendar.AccessGranted))
			movies := okJSON[[]types.Movie](t, e, "movie", "list")
			first, second := movies[0], movies[1]

			photo := filepath.Join(t.TempDir(), "couch.png")
			require.NoError(t, os.WriteFile(photo, []byte("\x89PNG\r\n\x1a\nrest"), 0o644))

			m1 := okJSON[types.Memory](t, e, "memory", "create",
				"--movie", first.ID, "--rating", "5", "--date", "2026-10-02T19:00:00Z",
				"--notes", "Everyone cried", "--answer", "q1:7:Because he missed his friend",
				"--photo", photo, "--location", "Grandma's house", "--weather", "rain", "--temperature", "9.5")
			require.NotEmpty(t, m1.ID)
			require.Len(t, m1.DiscussionAnswers, 1)
			require.Len(t, m1.Photos, 1)
			assert.Equal(t, "image/png", m1.Photos[0].ContentType)

			m2 := okJSON[types.Memory](t, e, "memory", "create",
				"--movie", second.ID, "--rating", "2", "--date", "2026-10-09")

			byRating := okJSON[[]types.Memory](t, e, "memory", "list", "--sort", "rating")
			require.Len(t, byRating, 2)
			assert.Equal(t, m1.ID, byRating[0].ID)

			byDate := okJSON[[]types.Memory](t, e, "memory", "list")
			assert.Equal(t, m2.ID, byDate[0].ID, "newest first")

			found := okJSON[[]types.Memory](t, e, "memory", "search", "grandma")
			require.Len(t, found, 1)
			assert.Equal(t, m1.ID, found[0].ID)

			shown := e.ok(t, "memory", "show", m1.ID)
			assert.Contains(t, shown, first.Title)
			assert.Contains(t, shown, "Grandma's house")
			assert.Contains(t, shown, "Because he missed his friend")

			stats := okJSON[memoryStats](t, e, "memory", "stats")
			assert.Equal(t, 2, stats.Count)
			assert.InDelta(t, 3.5, stats.AverageRating, 1e-9)
			assert.Equal(t, 1, stats.Histogram[5])

			assert.Equal(t, exitUserError, e.exec(t, "", "memory", "create", "--movie", first.ID, "--rating", "9").code)
			assert.Equal(t, exitUserError, e.exec(t, "", "memory", "list", "--sort", "sideways").code)

			deleted := e.ok(t, "memory", "delete", m1.ID)
			assert.Contains(t, deleted, "Deleted memory "+m1.ID)
			assert.Equal(t, exitUserError, e.exec(t, "", "memory", "show", m1.ID).code)
			assert.Len(t, okJSON[[]types.Memory](t, e, "memory", "list"), 1)
		})
	}
}

func TestMemoryStats_Empty(t *testing.T) {
	e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessGranted))
	stats := okJSON[memoryStats](t, e, "memory", "stats")
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.AverageRating)
	assert.Empty(t, stats.MostWatched)
}

func TestAnswerCommands(t *testing.T) {
	e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessGranted))
	movie := okJSON[[]types.Movie](t, e, "movie", "list")[0]
	m := okJSON[types.Memory](t, e, "memory", "create", "--movie", movie.ID, "--rating", "4")

	added := okJSON[types.DiscussionAnswer](t, e, "answer", "add", m.ID, "--question", "q2", "--age", "8", "--response", "Be brave")
	assert.Equal(t, m.ID, added.MemoryID)

	answers := okJSON[[]types.DiscussionAnswer](t, e, "answer", "list", m.ID)
	require.Len(t, answers, 1)
	assert.Equal(t, "Be brave", answers[0].Response)

	r := e.exec(t, "", "answer", "add", "missing-memory", "--question", "q2", "--response", "hi")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "not found")

	r = e.exec(t, "", "answer", "add", m.ID, "--question", "q2", "--age", "40", "--response", "hi")
	assert.Equal(t, exitUserError, r.code)
}

type scheduled struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Weeks   int       `json:"weeks"`
}

func TestScheduleCommands(t *testing.T) {
	e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessGranted))
	movie := okJSON[[]types.Movie](t, e, "movie", "list")[0]

	got := okJSON[scheduled](t, e, "schedule", "create", movie.ID, "--at", "2026-10-16T18:00:00Z", "--weeks", "2")
	start := time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)
	assert.True(t, got.Start.Equal(start))
	assert.True(t, got.End.Equal(start.Add(2*time.Hour)))
	assert.Equal(t, "Movie Night: "+movie.Title, got.Summary)

	nights := okJSON[[]calendar.Occurrence](t, e, "schedule", "upcoming", "--from", "2026-10-15T00:00:00Z", "--days", "30")
	require.Len(t, nights, 2)
	assert.True(t, nights[1].Start.Equal(start.AddDate(0, 0, 7)))

	next := okJSON[map[string]time.Time](t, e, "schedule", "next", "--after", "2026-10-14T12:00:00Z")
	assert.True(t, next["next"].Equal(start))

	_, err := os.Stat(filepath.Join(e.dataDir, "calendars", "family.ics"))
	assert.NoError(t, err)

	assert.Equal(t, exitUserError, e.exec(t, "", "schedule", "create", movie.ID, "--at", "next friday").code)
	assert.Equal(t, exitUserError, e.exec(t, "", "schedule", "create", movie.ID, "--weeks", "0").code)
}

func TestScheduleCommands_Access(t *testing.T) {
	t.Run("denied", func(t *testing.T) {
		e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessDenied))
		movie := okJSON[[]types.Movie](t, e, "movie", "list")[0]
		r := e.exec(t, "", "schedule", "create", movie.ID, "--at", "2026-10-16T18:00:00Z")
		assert.Equal(t, exitUserError, r.code)
		assert.Contains(t, r.stderr, "denied")

		_, err := os.Stat(filepath.Join(e.dataDir, "calendars", "family.ics"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("prompt answered yes", func(t *testing.T) {
		e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessPrompt))
		movie := okJSON[[]types.Movie](t, e, "movie", "list")[0]
		r := e.exec(t, "y\n", "schedule", "create", movie.ID, "--at", "2026-10-16T18:00:00Z")
		require.Equal(t, exitSuccess, r.code, r.stderr)
		assert.Contains(t, r.stderr, "Allow movienight")
		assert.Contains(t, r.stdout, "Scheduled \"Movie Night: "+movie.Title)
	})

	t.Run("prompt answered no", func(t *testing.T) {
		e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessPrompt))
		movie := okJSON[[]types.Movie](t, e, "movie", "list")[0]
		r := e.exec(t, "n\n", "schedule", "create", movie.ID, "--at", "2026-10-16T18:00:00Z")
		assert.Equal(t, exitUserError, r.code)
	})

	t.Run("no default calendar", func(t *testing.T) {
		e := newEnv(t, "log_level: error\ncalendar:\n  default: \"\"\n  access: granted\n")
		movie := okJSON[[]types.Movie](t, e, "movie", "list")[0]
		r := e.exec(t, "", "schedule", "create", movie.ID, "--at", "2026-10-16T18:00:00Z")
		assert.Equal(t, exitUserError, r.code)
		assert.Contains(t, r.stderr, "calendar.default")
	})
}

func TestFindMovie(t *testing.T) {
	movies := []types.Movie{
		{ID: "0195f3a2-aaaa", Title: "Up"},
		{ID: "0195f3a2-bbbb", Title: "Coco"},
		{ID: "77aa", Title: "Heidi"},
	}

	m, err := findMovie(movies, "0195f3a2-bbbb")
	require.NoError(t, err)
	assert.Equal(t, "Coco", m.Title)

	m, err = findMovie(movies, "0195f3a2-a")
	require.NoError(t, err)
	assert.Equal(t, "Up", m.Title)

	m, err = findMovie(movies, "77aa")
	require.NoError(t, err)
	assert.Equal(t, "Heidi", m.Title)

	_, err = findMovie(movies, "0195f3a2")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = findMovie(movies, "019")
	assert.ErrorContains(t, err, "not found", "short prefixes do not match")
}

func TestParseAnswer(t *testing.T) {
	a, err := parseAnswer("q1:7:Because: he was lonely")
	require.NoError(t, err)
	assert.Equal(t, "q1", a.QuestionID)
	assert.Equal(t, 7, a.ChildAge)
	assert.Equal(t, "Because: he was lonely", a.Response)

	_, err = parseAnswer("q1:seven:hi")
	assert.Error(t, err)
	_, err = parseAnswer("q1-only")
	assert.Error(t, err)
}

// syncBuffer is a bytes.Buffer safe for a writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServe(t *testing.T) {
	e := newEnv(t, configFor(types.BackendSQLite, calendar.AccessGranted))
	e.ok(t, "init")

	out := &syncBuffer{}
	root := NewRootCmd()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "serve", "--listen", "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	addr := regexp.MustCompile(`http://(\S+)`)
	var base string
	require.Eventually(t, func() bool {
		m := addr.FindStringSubmatch(out.String())
		if m == nil {
			return false
		}
		base = "http://" + m[1]
		return true
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/api/movies")
	require.NoError(t, err)
	var movies []types.Movie
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movies))
	resp.Body.Close()
	assert.Len(t, movies, 8)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not shut down")
	}
}
