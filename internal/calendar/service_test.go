package calendar

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

// countingAuth answers with grant and counts calls. When gate is non-nil
// each call waits for a value on it first.
type countingAuth struct {
	grant bool
	gate  chan struct{}
	calls atomic.Int32
}

func (a *countingAuth) RequestAccess(ctx context.Context) (bool, error) {
	a.calls.Add(1)
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return a.grant, nil
}

// failingStore has a default calendar but cannot save.
type failingStore struct{ saves int }

func (f *failingStore) DefaultCalendar() (string, bool) { return "family", true }
func (f *failingStore) SaveEvent(string, Event) error {
	f.saves++
	return errors.New("calendar is read-only")
}
func (f *failingStore) Events(string) ([]Event, error) { return nil, nil }

func testMovie() types.Movie {
	m := types.NewMovie("Paddington", types.AgeGroupLittleKids, "Comedy")
	m.StreamingServices = []string{"Netflix", "Prime Video"}
	return m
}

func newService(t *testing.T, store Store, auth Authorizer, opts ...Option) *Service {
	t.Helper()
	s := NewService(store, auth, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func awaitState(t *testing.T, ch <-chan PermissionState) PermissionState {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("permission request did not resolve")
		return PermissionUnknown
	}
}

func TestCreateEventGranted(t *testing.T) {
	store := NewICSStore(t.TempDir(), "family")
	s := newService(t, store, &countingAuth{grant: true})
	require.Equal(t, PermissionGranted, awaitState(t, s.RequestAccess(context.Background())))

	start := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	movie := testMovie()
	require.True(t, s.CreateEvent(movie, start))

	events, err := store.Events("family")
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.True(t, ev.Start.Equal(start), "start %s", ev.Start)
	assert.True(t, ev.End.Equal(start.Add(2*time.Hour)), "end %s", ev.End)
	assert.Equal(t, []time.Duration{-30 * time.Minute}, ev.Alarms)
	assert.Equal(t, "Movie Night: Paddington", ev.Summary)
	assert.Contains(t, ev.Description, "Paddington")
	assert.Contains(t, ev.Description, "Little Kids (5-7)")
	assert.Contains(t, ev.Description, "Comedy")
	assert.Contains(t, ev.Description, "Netflix, Prime Video")
}

func TestCreateEventDeniedReRequests(t *testing.T) {
	dir := t.TempDir()
	store := NewICSStore(dir, "family")
	auth := &countingAuth{grant: false}
	s := newService(t, store, auth)
	require.Equal(t, PermissionDenied, awaitState(t, s.RequestAccess(context.Background())))
	require.Equal(t, int32(1), auth.calls.Load())

	assert.False(t, s.CreateEvent(testMovie(), time.Now()))

	assert.NoFileExists(t, store.Path("family"), "no calendar entry is created")
	assert.Eventually(t, func() bool { return auth.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond,
		"a new permission request is issued")
}

func TestCreateEventUnknownDoesNotWait(t *testing.T) {
	store := NewICSStore(t.TempDir(), "family")
	auth := &countingAuth{grant: true, gate: make(chan struct{})}
	s := newService(t, store, auth)

	// No request yet: the call re-requests and fails immediately.
	assert.False(t, s.CreateEvent(testMovie(), time.Now()))
	assert.Eventually(t, func() bool { return auth.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, PermissionUnknown, s.PermissionState())

	// A second early call does not start another request while one is in flight.
	assert.False(t, s.CreateEvent(testMovie(), time.Now()))
	ch := s.RequestAccess(context.Background())
	assert.Equal(t, int32(1), auth.calls.Load())

	auth.gate <- struct{}{}
	assert.Equal(t, PermissionGranted, awaitState(t, ch))
	assert.True(t, s.CreateEvent(testMovie(), time.Now()), "retry after grant succeeds")
}

func TestCreateEventNoDefaultCalendar(t *testing.T) {
	dir := t.TempDir()
	store := NewICSStore(dir, "")
	s := newService(t, store, &countingAuth{grant: true})
	require.Equal(t, PermissionGranted, awaitState(t, s.RequestAccess(context.Background())))

	assert.False(t, s.CreateEvent(testMovie(), time.Now()))
	entries, err := filepathGlob(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateEventSaveFailure(t *testing.T) {
	store := &failingStore{}
	s := newService(t, store, &countingAuth{grant: true})
	require.Equal(t, PermissionGranted, awaitState(t, s.RequestAccess(context.Background())))

	assert.False(t, s.CreateEvent(testMovie(), time.Now()))
	assert.Equal(t, 1, store.saves)
}

func TestRequestAccessContextCancelled(t *testing.T) {
	auth := &countingAuth{grant: true, gate: make(chan struct{})}
	s := newService(t, NewICSStore(t.TempDir(), "family"), auth)

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.RequestAccess(ctx)
	cancel()
	assert.Equal(t, PermissionDenied, awaitState(t, ch))
}

func TestCloseResolvesPendingRequests(t *testing.T) {
	auth := &countingAuth{grant: true, gate: make(chan struct{})}
	s := NewService(NewICSStore(t.TempDir(), "family"), auth)

	ch := s.RequestAccess(context.Background())
	s.Close()
	assert.Equal(t, PermissionUnknown, awaitState(t, ch))
	_, open := <-ch
	assert.False(t, open)

	s.Close()
	assert.False(t, s.CreateEvent(testMovie(), time.Now()))
	assert.Equal(t, PermissionUnknown, awaitState(t, s.RequestAccess(context.Background())))
}

func TestRecurringAndUpcoming(t *testing.T) {
	store := NewICSStore(t.TempDir(), "family")
	s := newService(t, store, &countingAuth{grant: true})
	require.Equal(t, PermissionGranted, awaitState(t, s.RequestAccess(context.Background())))

	first := time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)
	require.True(t, s.CreateRecurringEvent(testMovie(), first, 4))
	assert.False(t, s.CreateRecurringEvent(testMovie(), first, 0))

	single := time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)
	require.True(t, s.CreateEvent(types.NewMovie("Up", types.AgeGroupBigKids, "Animation"), single))

	from := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	to := from.Add(60 * 24 * time.Hour)
	nights := s.UpcomingNights(from, to)
	require.Len(t, nights, 5)

	assert.True(t, nights[0].Start.Equal(first))
	assert.True(t, nights[1].Start.Equal(single))
	for i, n := range []Occurrence{nights[0], nights[2], nights[3], nights[4]} {
		assert.True(t, n.Start.Equal(first.AddDate(0, 0, 7*i)), "occurrence %d at %s", i, n.Start)
		assert.Equal(t, 2*time.Hour, n.End.Sub(n.Start))
	}

	later := s.UpcomingNights(first.Add(time.Hour), to)
	require.NotEmpty(t, later)
	assert.True(t, later[0].Start.Equal(first), "a night already running is included")

	assert.Empty(t, s.UpcomingNights(to, from))
}

func TestUpcomingNightsRequiresAccess(t *testing.T) {
	auth := &countingAuth{grant: false}
	s := newService(t, NewICSStore(t.TempDir(), "family"), auth)

	assert.Empty(t, s.UpcomingNights(time.Now(), time.Now().Add(time.Hour)))
	assert.Eventually(t, func() bool { return auth.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestNextMovieNight(t *testing.T) {
	sched, err := ParseSchedule("CRON_TZ=UTC 0 18 * * 5")
	require.NoError(t, err)
	s := newService(t, NewICSStore(t.TempDir(), "family"), PolicyAuthorizer{Grant: true}, WithSchedule(sched))

	wednesday := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	next, err := s.NextMovieNight(wednesday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC), next)

	unscheduled := newService(t, NewICSStore(t.TempDir(), "family"), PolicyAuthorizer{Grant: true})
	_, err = unscheduled.NextMovieNight(wednesday)
	assert.ErrorIs(t, err, ErrNoSchedule)

	_, err = ParseSchedule("every friday")
	assert.Error(t, err)
}
