package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Items      []int `json:"items"`
}

// pagedSource serves totalPages pages of two items each
type pagedSource struct {
	totalPages int
	calls      atomic.Int32
	failPage   int
}

func (s *pagedSource) fetch(ctx context.Context, n int) (page, error) {
	s.calls.Add(1)
	if n == s.failPage {
		return page{}, errors.New("page failed")
	}
	return page{Page: n, TotalPages: s.totalPages, Items: []int{n*10 + 1, n*10 + 2}}, nil
}

func newInfiniteQuery(c *Client, src *pagedSource) *InfiniteQuery[page] {
	return NewInfinite(c, InfiniteOptions[page]{
		Key:              Key{"movies", "search", "infinite", "batman"},
		Fn:               src.fetch,
		InitialPageParam: 1,
		NextPageParam: func(last page) (int, bool) {
			if last.Page < last.TotalPages {
				return last.Page + 1, true
			}
			return 0, false
		},
		StaleTime:    5 * time.Minute,
		ErrorMessage: "Failed to fetch movies",
	})
}

func items(d InfiniteData[page]) []int {
	var out []int
	for _, p := range d.Pages {
		out = append(out, p.Items...)
	}
	return out
}

func TestInfiniteQueryPaginates(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())
	src := &pagedSource{totalPages: 3}
	q := newInfiniteQuery(c, src)

	data, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12}, items(data))
	assert.True(t, q.State().HasNextPage)

	data, err = q.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 21, 22}, items(data))
	assert.Equal(t, []int{1, 2}, data.PageParams)

	data, err = q.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12, 21, 22, 31, 32}, items(data))

	s := q.State()
	assert.False(t, s.HasNextPage)
	assert.Equal(t, StatusSuccess, s.Status)

	// No next page: no-op
	data, err = q.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Pages, 3)
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestInfiniteFetchNextWithoutPagesLoadsFirst(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())
	src := &pagedSource{totalPages: 2}
	q := newInfiniteQuery(c, src)

	data, err := q.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, data.PageParams)
}

func TestInfiniteFreshCacheSkipsNetwork(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	src := &pagedSource{totalPages: 3}
	q := newInfiniteQuery(c, src)

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)
	_, err = q.FetchNextPage(context.Background())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	data, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Pages, 2)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestInfiniteStaleRefetchRestartsAtFirstPage(t *testing.T) {
	clock := newFakeClock()
	c, _ := newTestClient(t, clock)
	src := &pagedSource{totalPages: 3}
	q := newInfiniteQuery(c, src)

	_, _ = q.Fetch(context.Background())
	_, _ = q.FetchNextPage(context.Background())

	clock.Advance(6 * time.Minute)
	data, err := q.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, data.PageParams)
	assert.True(t, q.State().HasNextPage)
}

func TestInfiniteNextPageFailure(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())
	src := &pagedSource{totalPages: 3, failPage: 2}
	q := newInfiniteQuery(c, src)

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)

	_, err = q.FetchNextPage(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch movies", err.Error())

	s := q.State()
	assert.Equal(t, StatusError, s.Status)
	assert.True(t, s.HasData)
	assert.Len(t, s.Data.Pages, 1)
	assert.False(t, s.IsFetchingNextPage)
	assert.True(t, s.HasNextPage)
}

func TestInfiniteDisabled(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())
	q := NewInfinite(c, InfiniteOptions[page]{
		Key:      Key{"movies", "search", "infinite", "bat"},
		Disabled: true,
		Fn: func(ctx context.Context, n int) (page, error) {
			t.Fatal("fetch function called for disabled query")
			return page{}, nil
		},
	})

	_, err := q.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = q.FetchNextPage(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)

	s := q.State()
	assert.Equal(t, StatusDisabled, s.Status)
	assert.False(t, s.HasNextPage)
}

func TestInfiniteFetchingNextPageFlag(t *testing.T) {
	c, _ := newTestClient(t, newFakeClock())

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewInfinite(c, InfiniteOptions[page]{
		Key:              Key{"movies", "search", "infinite", "slow"},
		InitialPageParam: 1,
		StaleTime:        time.Minute,
		Fn: func(ctx context.Context, n int) (page, error) {
			if n > 1 {
				started <- struct{}{}
				<-release
			}
			return page{Page: n, TotalPages: 2}, nil
		},
		NextPageParam: func(last page) (int, bool) {
			return last.Page + 1, last.Page < last.TotalPages
		},
	})

	_, err := q.Fetch(context.Background())
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		_, err := q.FetchNextPage(context.Background())
		done <- err
	}()

	<-started
	s := q.State()
	assert.True(t, s.IsFetchingNextPage)
	assert.True(t, s.IsFetching)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, q.State().IsFetchingNextPage)
	assert.Len(t, q.State().Data.Pages, 2)
}
