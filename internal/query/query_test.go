package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/moviesearch/internal/log"
	"github.com/mmcdole/moviesearch/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type result struct {
	Value string `json:"value"`
}

func newTestClient(t *testing.T, clock *fakeClock, opts ...Option) (*Client, *Metrics) {
	t.Helper()
	m := NewMetrics(prometheus.NewRegistry())
	opts = append([]Option{WithClock(clock.Now), WithLogger(log.NullLogger()), WithMetrics(m)}, opts...)
	return NewClient(store.NewMemoryStore(), opts...), m
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, `["movies","search","batman"]`, Key{"movies", "search", "batman"}.String())
	assert.Equal(t, `["movies","details",155]`, Key{"movies", "details", 155}.String())
	assert.NotEqual(t, Key{"movies", "details", 1}.String(), Key{"movies", "details", "1"}.String())
	assert.Equal(t, "search", Key{"movies", "search", "x"}.Operation())
	assert.Equal(t, "unknown", Key{"movies"}.Operation())
}

func TestKeyHasPrefix(t *testing.T) {
	assert.True(t, Key{"movies", "search", "bat"}.HasPrefix(Key{"movies", "search"}))
	assert.True(t, Key{"movies", "search"}.HasPrefix(Key{"movies", "search"}))
	assert.False(t, Key{"movies", "searchx"}.HasPrefix(Key{"movies", "search"}))
	assert.False(t, Key{"movies", "popular"}.HasPrefix(Key{"movies", "search"}))
}

func TestFetchCachesWithinStaleTime(t *testing.T) {
	clock := newFakeClock()
	c, m := newTestClient(t, clock)

	var calls atomic.Int32
	q := New(c, Options[result]{
		Key:       Key{"movies", "popular"},
		StaleTime: 30 * time.Minute,
		Fn: func(ctx context.Context) (result, error) {
			calls.Add(1)
			return result{Value: "popular"}, nil
		},
	})

	assert.Equal(t, StatusPending, q.State().Status)
	assert.True(t, q.State().IsLoading())

	v, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "popular", v.Value)

	clock.Advance(29 * time.Minute)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits.WithLabelValues("popular")))

	clock.Advance(2 * time.Minute)
	_, err = q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	s := q.State()
	assert.Equal(t, StatusSuccess, s.Status)
	assert.True(t, s.HasData)
	assert.Equal(t, "popular", s.Data.Value)
	assert.False(t, s.IsFetching)
	assert.Equal(t, clock.Now(), s.UpdatedAt)
}

func TestDisabledQueryNeverFetches(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())

	q := New(c, Options[result]{
		Key:      Key{"movies", "search", "bat"},
		Disabled: true,
		Fn: func(ctx context.Context) (result, error) {
			t.Fatal("fetch function called for disabled query")
			return result{}, nil
		},
	})

	_, err := q.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Equal(t, StatusDisabled, q.State().Status)
	assert.False(t, q.State().IsLoading())
	assert.False(t, q.Enabled())
}

func TestConcurrentFetchesShareOneCall(t *testing.T) {
	c, m := newTestClient(t, newFakeClock())

	const n = 8
	var calls atomic.Int32
	release := make(chan struct{})
	q := New(c, Options[result]{
		Key:       Key{"movies", "search", "batman"},
		StaleTime: time.Minute,
		Fn: func(ctx context.Context) (result, error) {
			calls.Add(1)
			<-release
			return result{Value: "batman"}, nil
		},
	})

	var wg sync.WaitGroup
	results := make([]result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = q.Fetch(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Joins.WithLabelValues("search")) == n-1
	}, time.Second, time.Millisecond)
	assert.True(t, q.State().IsFetching)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "batman", results[i].Value)
	}
	assert.False(t, q.State().IsFetching)
}

func TestIndependentKeysFetchIndependently(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())

	var calls atomic.Int32
	mk := func(id int) *Query[result] {
		return New(c, Options[result]{
			Key:       Key{"movies", "details", id},
			StaleTime: time.Minute,
			Fn: func(ctx context.Context) (result, error) {
				calls.Add(1)
				return result{Value: "d"}, nil
			},
		})
	}

	_, err := mk(1).Fetch(context.Background())
	require.NoError(t, err)
	_, err = mk(2).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchErrorState(t *testing.T) {
	var handled []string
	c, m := newTestClient(t, newFakeClock(), WithErrorHandler(func(key Key, err error) {
		handled = append(handled, key.String())
	}))

	boom := errors.New("boom")
	fail := true
	q := New(c, Options[result]{
		Key:          Key{"movies", "details", 7},
		StaleTime:    time.Minute,
		ErrorMessage: "Failed to fetch movie details",
		Fn: func(ctx context.Context) (result, error) {
			if fail {
				return result{}, boom
			}
			return result{Value: "ok"}, nil
		},
	})

	_, err := q.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Failed to fetch movie details", err.Error())

	s := q.State()
	assert.Equal(t, StatusError, s.Status)
	assert.False(t, s.HasData)
	assert.Equal(t, "Failed to fetch movie details", Message(s.Err, "default"))
	assert.Equal(t, []string{`["movies","details",7]`}, handled)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("details")))

	// A failed fetch is not cached, so the next call retries
	fail = false
	v, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v.Value)
	assert.Equal(t, StatusSuccess, q.State().Status)
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", Message(&FetchError{Err: errors.New("x")}, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("x"), "fallback"))
	assert.Equal(t, "nice", Message(&FetchError{Message: "nice"}, "fallback"))
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())

	var calls atomic.Int32
	mk := func(k Key) *Query[result] {
		return New(c, Options[result]{
			Key:       k,
			StaleTime: time.Hour,
			Fn: func(ctx context.Context) (result, error) {
				calls.Add(1)
				return result{Value: "v"}, nil
			},
		})
	}

	a := mk(Key{"movies", "search", "batman"})
	b := mk(Key{"movies", "popular"})
	_, _ = a.Fetch(context.Background())
	_, _ = b.Fetch(context.Background())
	require.Equal(t, int32(2), calls.Load())

	assert.Equal(t, 1, c.Invalidate(Key{"movies", "search"}))
	assert.True(t, a.IsStale())
	assert.False(t, b.IsStale())

	_, _ = a.Fetch(context.Background())
	_, _ = b.Fetch(context.Background())
	assert.Equal(t, int32(3), calls.Load())

	assert.Equal(t, 1, c.Invalidate(Key{"movies", "popular"}))
	assert.Equal(t, StatusPending, b.State().Status)
}

func TestEntries(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())
	q := New(c, Options[result]{
		Key:       Key{"movies", "popular"},
		StaleTime: time.Minute,
		Fn:        func(ctx context.Context) (result, error) { return result{Value: "x"}, nil },
	})
	_, err := q.Fetch(context.Background())
	require.NoError(t, err)

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, `["movies","popular"]`, entries[0].Key)
	assert.False(t, entries[0].IsFetching)
}
