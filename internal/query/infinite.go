package query

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviesearch/internal/store"
)

// InfiniteOptions configures a paginated query
type InfiniteOptions[P any] struct {
	Key              Key
	Fn               func(ctx context.Context, pageParam int) (P, error)
	InitialPageParam int

	// NextPageParam derives the cursor after last; false means no more pages
	NextPageParam func(last P) (int, bool)

	StaleTime    time.Duration
	Disabled     bool
	ErrorMessage string
}

// InfiniteData is the ordered chain of loaded pages
type InfiniteData[P any] struct {
	Pages      []P
	PageParams []int
}

// InfiniteState is a synchronous, cache-only view of a paginated query
type InfiniteState[P any] struct {
	Data               InfiniteData[P]
	HasData            bool
	Status             Status
	Err                error
	IsFetching         bool
	IsFetchingNextPage bool
	HasNextPage        bool
	UpdatedAt          time.Time
}

// IsLoading reports whether the query has nothing to show yet
func (s InfiniteState[P]) IsLoading() bool {
	return s.Status == StatusPending
}

// InfiniteQuery binds a key to a page fetch function on a Client
type InfiniteQuery[P any] struct {
	client *Client
	opts   InfiniteOptions[P]
	key    string
}

// NewInfinite creates a paginated query
func NewInfinite[P any](c *Client, opts InfiniteOptions[P]) *InfiniteQuery[P] {
	return &InfiniteQuery[P]{client: c, opts: opts, key: opts.Key.String()}
}

// Key returns the query key
func (q *InfiniteQuery[P]) Key() Key {
	return q.opts.Key
}

// Enabled reports whether the guard condition is met
func (q *InfiniteQuery[P]) Enabled() bool {
	return !q.opts.Disabled
}

func (q *InfiniteQuery[P]) decode(rec store.Record) (InfiniteData[P], error) {
	data := InfiniteData[P]{PageParams: slices.Clone(rec.PageParams)}
	for _, raw := range rec.Pages {
		var p P
		if err := json.Unmarshal(raw, &p); err != nil {
			return InfiniteData[P]{}, err
		}
		data.Pages = append(data.Pages, p)
	}
	return data, nil
}

func (q *InfiniteQuery[P]) nextParam(data InfiniteData[P]) (int, bool) {
	if len(data.Pages) == 0 || q.opts.NextPageParam == nil {
		return 0, false
	}
	return q.opts.NextPageParam(data.Pages[len(data.Pages)-1])
}

// State reads the current cache entry without touching the network
func (q *InfiniteQuery[P]) State() InfiniteState[P] {
	var s InfiniteState[P]

	if rec, ok := q.client.store.Get(q.key); ok && len(rec.Pages) > 0 {
		if data, err := q.decode(rec); err == nil {
			s.Data = data
			s.HasData = true
			s.UpdatedAt = rec.UpdatedAt
			_, s.HasNextPage = q.nextParam(data)
		}
	}

	if q.opts.Disabled {
		s.Status = StatusDisabled
		s.HasNextPage = false
		return s
	}

	st := q.client.snapshotState(q.key)
	s.IsFetching = st.inflight > 0
	s.IsFetchingNextPage = st.fetchingNext
	s.Err = st.err

	switch {
	case st.err != nil:
		s.Status = StatusError
	case s.HasData:
		s.Status = StatusSuccess
	default:
		s.Status = StatusPending
	}
	return s
}

// Fetch loads the first page. Fresh cached pages are returned as is; a
// stale chain is replaced by a new first page.
func (q *InfiniteQuery[P]) Fetch(ctx context.Context) (InfiniteData[P], error) {
	if q.opts.Disabled {
		return InfiniteData[P]{}, ErrDisabled
	}

	op := q.opts.Key.Operation()
	if rec, ok := q.client.store.Get(q.key); ok && len(rec.Pages) > 0 && q.client.isFresh(rec, q.opts.StaleTime) {
		if data, err := q.decode(rec); err == nil {
			q.client.metrics.Hits.WithLabelValues(op).Inc()
			return data, nil
		}
	}
	q.client.metrics.Misses.WithLabelValues(op).Inc()

	_, err := q.client.run(ctx, q.opts.Key, func(ctx context.Context, fetchID string) (any, error) {
		raw, err := q.fetchPage(ctx, q.opts.InitialPageParam)
		if err != nil {
			return nil, err
		}
		rec := store.Record{
			Pages:      []json.RawMessage{raw},
			PageParams: []int{q.opts.InitialPageParam},
			UpdatedAt:  q.client.now(),
		}
		if err := q.client.store.Put(q.key, rec); err != nil {
			q.client.logger.Warn("failed to persist query result", "key", q.key, "fetch_id", fetchID, "error", err)
		}
		return nil, nil
	})
	if err != nil {
		return InfiniteData[P]{}, err
	}
	return q.current()
}

// FetchNextPage appends exactly one page after the last loaded one. It is
// a no-op when there is no next page. A call that lands while another
// fetch for the same key is in flight joins that fetch instead.
func (q *InfiniteQuery[P]) FetchNextPage(ctx context.Context) (InfiniteData[P], error) {
	if q.opts.Disabled {
		return InfiniteData[P]{}, ErrDisabled
	}

	rec, ok := q.client.store.Get(q.key)
	if !ok || len(rec.Pages) == 0 {
		return q.Fetch(ctx)
	}

	_, err := q.client.run(ctx, q.opts.Key, func(ctx context.Context, fetchID string) (any, error) {
		// Re-read inside the flight so two sequential calls never fetch
		// the same page twice.
		rec, _ := q.client.store.Get(q.key)
		data, err := q.decode(rec)
		if err != nil {
			return nil, &FetchError{Message: q.opts.ErrorMessage, Err: fmt.Errorf("decode pages: %w", err)}
		}
		next, ok := q.nextParam(data)
		if !ok || slices.Contains(rec.PageParams, next) {
			return nil, nil
		}

		q.setFetchingNext(true)
		defer q.setFetchingNext(false)

		raw, err := q.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		rec.Pages = append(rec.Pages, raw)
		rec.PageParams = append(rec.PageParams, next)
		rec.UpdatedAt = q.client.now()
		if err := q.client.store.Put(q.key, rec); err != nil {
			q.client.logger.Warn("failed to persist query result", "key", q.key, "fetch_id", fetchID, "error", err)
		}
		return nil, nil
	})
	if err != nil {
		return InfiniteData[P]{}, err
	}
	return q.current()
}

func (q *InfiniteQuery[P]) fetchPage(ctx context.Context, param int) (json.RawMessage, error) {
	p, err := q.opts.Fn(ctx, param)
	if err != nil {
		return nil, &FetchError{Message: q.opts.ErrorMessage, Err: err}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, &FetchError{Message: q.opts.ErrorMessage, Err: fmt.Errorf("encode page: %w", err)}
	}
	return raw, nil
}

func (q *InfiniteQuery[P]) setFetchingNext(v bool) {
	q.client.mu.Lock()
	q.client.state(q.key).fetchingNext = v
	q.client.mu.Unlock()
}

func (q *InfiniteQuery[P]) current() (InfiniteData[P], error) {
	rec, ok := q.client.store.Get(q.key)
	if !ok {
		return InfiniteData[P]{}, nil
	}
	return q.decode(rec)
}
