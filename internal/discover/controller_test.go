package discover

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/log"
	"github.com/mmcdole/moviesearch/internal/query"
	"github.com/mmcdole/moviesearch/internal/service"
	"github.com/mmcdole/moviesearch/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu          sync.Mutex
	searches    []string
	popular     int
	totalPages  int
	failPopular bool
	failSearch  bool
	empty       bool
}

func (r *fakeRepo) SearchMovies(ctx context.Context, q string, page int) (*domain.SearchResultPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, fmt.Sprintf("%s#%d", q, page))
	if r.failSearch {
		return nil, fmt.Errorf("%w: boom", domain.ErrNoData)
	}
	if r.empty {
		return &domain.SearchResultPage{Page: 1, TotalPages: 0}, nil
	}
	return &domain.SearchResultPage{
		Page:         page,
		Results:      []domain.Movie{{ID: page*10 + 1}, {ID: page*10 + 2}},
		TotalPages:   r.totalPages,
		TotalResults: r.totalPages * 2,
	}, nil
}

func (r *fakeRepo) GetPopularMovies(ctx context.Context, page int) (*domain.SearchResultPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.popular++
	if r.failPopular {
		return nil, fmt.Errorf("%w: offline", domain.ErrNoData)
	}
	return &domain.SearchResultPage{Page: 1, Results: []domain.Movie{{ID: 550}}, TotalPages: 500}, nil
}

func (r *fakeRepo) GetMovieDetails(ctx context.Context, id int) (*domain.MovieDetails, error) {
	return &domain.MovieDetails{Movie: domain.Movie{ID: id}}, nil
}

func newController(t *testing.T, repo *fakeRepo, delay time.Duration) *Controller {
	t.Helper()
	client := query.NewClient(nil, query.WithLogger(log.NullLogger()))
	svc := service.NewMovieService(repo, tmdb.NewClient("k", log.NullLogger()), client, service.DefaultStaleTimes(), log.NullLogger())
	c := New(svc, delay, log.NullLogger())
	t.Cleanup(c.Close)
	return c
}

func TestShortQueryShowsPopular(t *testing.T) {
	repo := &fakeRepo{totalPages: 1}
	c := newController(t, repo, 10*time.Millisecond)

	_, err := c.Popular().Fetch(context.Background())
	require.NoError(t, err)

	c.Type("bat")
	select {
	case v := <-c.Commits():
		assert.False(t, c.Commit(v), "short query must not change the listing")
	case <-time.After(time.Second):
		t.Fatal("no commit")
	}

	snap := c.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.True(t, snap.ShowingPopular)
	assert.Equal(t, PopularHeading, snap.Heading)
	assert.False(t, snap.HasNextPage)
	assert.False(t, c.CanLoadMore())
	require.Len(t, snap.Movies, 1)
	assert.Equal(t, 550, snap.Movies[0].ID)
	assert.Empty(t, repo.searches)
}

func TestSearchAfterDebounce(t *testing.T) {
	repo := &fakeRepo{totalPages: 2}
	c := newController(t, repo, 20*time.Millisecond)

	for _, v := range []string{"b", "ba", "bat", "batm", "batma", "batman"} {
		c.Type(v)
	}
	assert.Equal(t, PhaseDebouncing, c.Phase())
	assert.Equal(t, "batman", c.LiveQuery())
	assert.Empty(t, c.Query())

	var committed string
	select {
	case committed = <-c.Commits():
	case <-time.After(time.Second):
		t.Fatal("no commit")
	}
	assert.Equal(t, "batman", committed)
	require.True(t, c.Commit(committed))
	assert.True(t, c.ShowingSearch())
	assert.Equal(t, PhaseSearching, c.Phase())

	_, err := c.ActiveSearch().Fetch(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, PhaseResults, snap.Phase)
	assert.Equal(t, `Search results for "batman"`, snap.Heading)
	assert.Equal(t, "(4 results)", snap.Subheading)
	assert.True(t, snap.HasNextPage)
	assert.True(t, c.CanLoadMore())
	assert.Len(t, snap.Movies, 2)

	_, err = c.ActiveSearch().FetchNextPage(context.Background())
	require.NoError(t, err)

	snap = c.Snapshot()
	assert.Len(t, snap.Movies, 4)
	assert.Equal(t, []int{11, 12, 21, 22}, []int{snap.Movies[0].ID, snap.Movies[1].ID, snap.Movies[2].ID, snap.Movies[3].ID})
	assert.False(t, snap.HasNextPage)
	assert.False(t, c.CanLoadMore())
	assert.Equal(t, []string{"batman#1", "batman#2"}, repo.searches)
	assert.Equal(t, []string{"batman"}, c.Recent())
}

func TestSubmitCommitsImmediately(t *testing.T) {
	repo := &fakeRepo{totalPages: 1}
	c := newController(t, repo, 50*time.Millisecond)

	c.Type("matrix")
	require.True(t, c.Submit())
	assert.Equal(t, "matrix", c.Query())
	assert.NotEqual(t, PhaseDebouncing, c.Phase())

	select {
	case v := <-c.Commits():
		t.Fatalf("debounce fired after submit: %q", v)
	case <-time.After(120 * time.Millisecond):
	}

	// Submitting the same query again changes nothing
	assert.False(t, c.Submit())
}

func TestClearRevertsImmediately(t *testing.T) {
	repo := &fakeRepo{totalPages: 1}
	c := newController(t, repo, 50*time.Millisecond)

	c.Type("matrix")
	c.Submit()
	require.True(t, c.ShowingSearch())

	c.Type("matrix reloaded")
	assert.True(t, c.Clear())
	assert.False(t, c.ShowingSearch())
	assert.Empty(t, c.LiveQuery())
	assert.False(t, c.Debouncing())

	select {
	case v := <-c.Commits():
		t.Fatalf("debounce fired after clear: %q", v)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestClearDropsFiredCommit(t *testing.T) {
	c := newController(t, &fakeRepo{totalPages: 1}, 20*time.Millisecond)

	c.Type("batman")
	time.Sleep(80 * time.Millisecond)
	require.False(t, c.Debouncing(), "quiet period is over")

	c.Clear()
	select {
	case v := <-c.Commits():
		t.Fatalf("commit survived clear: %q", v)
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, c.ShowingSearch())
	assert.Empty(t, c.Query())
}

func TestSubmitDropsFiredCommit(t *testing.T) {
	c := newController(t, &fakeRepo{totalPages: 1}, 20*time.Millisecond)

	c.Type("batman")
	time.Sleep(80 * time.Millisecond)

	assert.True(t, c.Submit())
	assert.Equal(t, "batman", c.Query())
	select {
	case v := <-c.Commits():
		t.Fatalf("commit survived submit: %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyingInputRevertsImmediately(t *testing.T) {
	c := newController(t, &fakeRepo{totalPages: 1}, time.Hour)

	c.Type("matrix")
	c.Submit()
	assert.True(t, c.Type(""))
	assert.False(t, c.ShowingSearch())
}

func TestWhitespaceVariantDoesNotChangeListing(t *testing.T) {
	c := newController(t, &fakeRepo{totalPages: 1}, time.Hour)

	c.Type("batman")
	require.True(t, c.Submit())
	c.Type("batman ")
	assert.False(t, c.Submit())
}

func TestPopularFailureShowsDefaultMessage(t *testing.T) {
	repo := &fakeRepo{failPopular: true}
	c := newController(t, repo, time.Hour)

	_, err := c.Popular().Fetch(context.Background())
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Equal(t, DefaultErrorMessage, snap.ErrMessage)
	assert.Empty(t, snap.Movies)
}

func TestSearchFailureShowsMessage(t *testing.T) {
	repo := &fakeRepo{failSearch: true}
	c := newController(t, repo, time.Hour)

	c.Type("batman")
	c.Submit()
	_, err := c.ActiveSearch().Fetch(context.Background())
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, PhaseError, snap.Phase)
	assert.Equal(t, service.MsgFetchMovies, snap.ErrMessage)
}

func TestEmptySearch(t *testing.T) {
	repo := &fakeRepo{empty: true}
	c := newController(t, repo, time.Hour)

	c.Type("zzzzzz")
	c.Submit()
	_, err := c.ActiveSearch().Fetch(context.Background())
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, PhaseEmpty, snap.Phase)
	assert.False(t, snap.HasNextPage)
	assert.Equal(t, "(0 results)", snap.Subheading)
}

func TestRecentQueriesAreUniqueAndBounded(t *testing.T) {
	c := newController(t, &fakeRepo{totalPages: 1}, time.Hour)

	for i := 0; i < 12; i++ {
		c.Type(fmt.Sprintf("movie %d", i))
		c.Submit()
	}
	c.Type("movie 3")
	c.Submit()

	recent := c.Recent()
	assert.Len(t, recent, maxRecent)
	assert.Equal(t, "movie 3", recent[0])
	assert.Equal(t, "movie 11", recent[1])
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "debouncing", PhaseDebouncing.String())
	assert.Equal(t, "results", PhaseResults.String())
}

func TestRefreshRefetchesActiveListing(t *testing.T) {
	repo := &fakeRepo{totalPages: 1}
	c := newController(t, repo, time.Hour)

	c.Type("alien")
	c.Submit()
	_, err := c.ActiveSearch().Fetch(context.Background())
	require.NoError(t, err)
	_, err = c.ActiveSearch().Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, repo.searches, 1, "fresh data is served from cache")

	assert.Positive(t, c.Refresh())
	_, err = c.ActiveSearch().Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, repo.searches, 2)
}
