package query

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviesearch/internal/store"
)

// Options configures a single-result query
type Options[T any] struct {
	Key       Key
	Fn        func(ctx context.Context) (T, error)
	StaleTime time.Duration

	// Disabled skips the query entirely: Fetch makes no request
	Disabled bool

	// ErrorMessage is the user facing message attached to failures
	ErrorMessage string
}

// State is a synchronous, cache-only view of a query
type State[T any] struct {
	Data       T
	HasData    bool
	Status     Status
	Err        error
	IsFetching bool
	UpdatedAt  time.Time
}

// IsLoading reports whether the query has nothing to show yet
func (s State[T]) IsLoading() bool {
	return s.Status == StatusPending
}

// Query binds a key to a fetch function on a Client
type Query[T any] struct {
	client *Client
	opts   Options[T]
	key    string
}

// New creates a query. Creating a query is cheap and has no side effects.
func New[T any](c *Client, opts Options[T]) *Query[T] {
	return &Query[T]{client: c, opts: opts, key: opts.Key.String()}
}

// Key returns the query key
func (q *Query[T]) Key() Key {
	return q.opts.Key
}

// Enabled reports whether the guard condition is met
func (q *Query[T]) Enabled() bool {
	return !q.opts.Disabled
}

// State reads the current cache entry without touching the network
func (q *Query[T]) State() State[T] {
	var s State[T]

	if rec, ok := q.client.store.Get(q.key); ok && rec.Data != nil {
		if err := json.Unmarshal(rec.Data, &s.Data); err == nil {
			s.HasData = true
			s.UpdatedAt = rec.UpdatedAt
		}
	}

	if q.opts.Disabled {
		s.Status = StatusDisabled
		return s
	}

	st := q.client.snapshotState(q.key)
	s.IsFetching = st.inflight > 0
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

// IsStale reports whether the cached data is missing or older than StaleTime
func (q *Query[T]) IsStale() bool {
	rec, ok := q.client.store.Get(q.key)
	return !ok || !q.client.isFresh(rec, q.opts.StaleTime)
}

// Fetch returns fresh cached data when available, otherwise calls the
// fetch function once for all concurrent callers of the same key.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	var zero T
	if q.opts.Disabled {
		return zero, ErrDisabled
	}

	op := q.opts.Key.Operation()
	rec, ok := q.client.store.Get(q.key)
	if ok && rec.Data != nil && q.client.isFresh(rec, q.opts.StaleTime) {
		var v T
		if err := json.Unmarshal(rec.Data, &v); err == nil {
			q.client.metrics.Hits.WithLabelValues(op).Inc()
			return v, nil
		}
	}
	q.client.metrics.Misses.WithLabelValues(op).Inc()

	raw, err := q.client.run(ctx, q.opts.Key, func(ctx context.Context, fetchID string) (any, error) {
		v, err := q.opts.Fn(ctx)
		if err != nil {
			return nil, &FetchError{Message: q.opts.ErrorMessage, Err: err}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &FetchError{Message: q.opts.ErrorMessage, Err: fmt.Errorf("encode result: %w", err)}
		}
		if err := q.client.store.Put(q.key, store.Record{Data: data, UpdatedAt: q.client.now()}); err != nil {
			q.client.logger.Warn("failed to persist query result", "key", q.key, "fetch_id", fetchID, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}

	// Each caller decodes its own copy
	var v T
	if err := json.Unmarshal(raw.([]byte), &v); err != nil {
		return zero, &FetchError{Message: q.opts.ErrorMessage, Err: fmt.Errorf("decode result: %w", err)}
	}
	return v, nil
}
