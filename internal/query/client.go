package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/moviesearch/internal/store"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a query
type Status int

const (
	StatusDisabled Status = iota // guard not met, nothing requested
	StatusPending                // enabled, no data and no error yet
	StatusError                  // last fetch failed
	StatusSuccess                // data available
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// entryState is the volatile part of a cache entry
type entryState struct {
	inflight     int // callers currently inside a fetch for this key
	fetchingNext bool
	err          error
}

// Client is the process-wide query cache. It is safe for concurrent use.
type Client struct {
	store   *store.QueryStore
	group   singleflight.Group
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
	onError func(key Key, err error)

	mu     sync.Mutex
	states map[string]*entryState
}

// Option configures a Client
type Option func(*Client)

// WithClock replaces time.Now for freshness checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records cache behaviour in m
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithErrorHandler registers a callback invoked for every failed fetch
func WithErrorHandler(fn func(key Key, err error)) Option {
	return func(c *Client) { c.onError = fn }
}

// NewClient creates a query cache backed by st. A nil st keeps
// everything in memory.
func NewClient(st *store.QueryStore, opts ...Option) *Client {
	if st == nil {
		st = store.NewMemoryStore()
	}
	c := &Client{
		store:  st,
		now:    time.Now,
		logger: slog.Default(),
		states: make(map[string]*entryState),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	c.logger = c.logger.With("component", "query")
	return c
}

// state returns the volatile state for key, creating it. Callers hold c.mu.
func (c *Client) state(key string) *entryState {
	st, ok := c.states[key]
	if !ok {
		st = &entryState{}
		c.states[key] = st
	}
	return st
}

func (c *Client) snapshotState(key string) entryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[key]; ok {
		return *st
	}
	return entryState{}
}

func (c *Client) isFresh(rec store.Record, staleTime time.Duration) bool {
	if rec.UpdatedAt.IsZero() {
		return false
	}
	return c.now().Sub(rec.UpdatedAt) < staleTime
}

// run executes fn for key at most once at a time. Concurrent callers for
// the same key join the in-flight call and receive its result.
func (c *Client) run(ctx context.Context, key Key, fn func(ctx context.Context, fetchID string) (any, error)) (any, error) {
	k := key.String()
	op := key.Operation()

	c.mu.Lock()
	st := c.state(k)
	if st.inflight > 0 {
		c.metrics.Joins.WithLabelValues(op).Inc()
		c.logger.Debug("joining in-flight fetch", "key", k)
	}
	st.inflight++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state(k).inflight--
		c.mu.Unlock()
	}()

	v, err, _ := c.group.Do(k, func() (any, error) {
		fetchID := uuid.NewString()
		start := c.now()
		c.metrics.Fetches.WithLabelValues(op).Inc()
		c.logger.Debug("fetch started", "key", k, "fetch_id", fetchID)

		v, err := fn(ctx, fetchID)

		c.mu.Lock()
		c.state(k).err = err
		c.mu.Unlock()

		if err != nil {
			c.metrics.Errors.WithLabelValues(op).Inc()
			c.logger.Warn("fetch failed", "key", k, "fetch_id", fetchID, "error", err)
			if c.onError != nil {
				c.onError(key, err)
			}
			return nil, err
		}
		c.logger.Debug("fetch finished", "key", k, "fetch_id", fetchID, "elapsed", c.now().Sub(start))
		return v, nil
	})
	return v, err
}

// Invalidate drops every entry equal to or below prefix, so the next
// fetch goes to the network. It returns the number of entries removed.
func (c *Client) Invalidate(prefix Key) int {
	full := prefix.String()

	n, err := c.store.DeletePrefix(prefix.childPrefix())
	if err != nil {
		c.logger.Warn("invalidate failed", "prefix", full, "error", err)
	}
	if _, ok := c.store.Get(full); ok {
		if err := c.store.Delete(full); err != nil {
			c.logger.Warn("invalidate failed", "key", full, "error", err)
		}
		n++
	}

	child := prefix.childPrefix()
	c.mu.Lock()
	for k, st := range c.states {
		if k == full || strings.HasPrefix(k, child) {
			st.err = nil
		}
	}
	c.mu.Unlock()

	c.logger.Debug("invalidated", "prefix", full, "removed", n)
	return n
}

// Clear drops every entry
func (c *Client) Clear() error {
	c.mu.Lock()
	for _, st := range c.states {
		st.err = nil
	}
	c.mu.Unlock()
	return c.store.Clear()
}

// EntryInfo describes one cache entry for diagnostics
type EntryInfo struct {
	Key        string    `json:"key"`
	UpdatedAt  time.Time `json:"updated_at"`
	Pages      int       `json:"pages,omitempty"`
	IsFetching bool      `json:"is_fetching"`
	Error      string    `json:"error,omitempty"`
}

// Entries lists every known entry sorted by key
func (c *Client) Entries() []EntryInfo {
	keys := c.store.Keys()
	seen := make(map[string]bool, len(keys))

	var entries []EntryInfo
	for _, k := range keys {
		seen[k] = true
		rec, _ := c.store.Get(k)
		entries = append(entries, c.entryInfo(k, rec))
	}

	c.mu.Lock()
	var extra []string
	for k, st := range c.states {
		if !seen[k] && (st.inflight > 0 || st.err != nil) {
			extra = append(extra, k)
		}
	}
	c.mu.Unlock()

	for _, k := range extra {
		entries = append(entries, c.entryInfo(k, store.Record{}))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func (c *Client) entryInfo(k string, rec store.Record) EntryInfo {
	st := c.snapshotState(k)
	info := EntryInfo{
		Key:        k,
		UpdatedAt:  rec.UpdatedAt,
		Pages:      len(rec.Pages),
		IsFetching: st.inflight > 0,
	}
	if st.err != nil {
		info.Error = st.err.Error()
	}
	return info
}
