// Package discover holds the search page state: the raw and debounced
// query, the popular-movies fallback and infinite-scroll pagination.
package discover

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mmcdole/moviesearch/internal/debounce"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/query"
	"github.com/mmcdole/moviesearch/internal/service"
)

// DefaultErrorMessage is shown when a failure carries no message of its own
const DefaultErrorMessage = "Failed to fetch movies. Please try again later."

// PopularHeading titles the fallback listing
const PopularHeading = "Popular Movies"

const maxRecent = 10

// Phase is the search page state
type Phase int

const (
	PhaseIdle       Phase = iota // no searchable query, popular movies shown
	PhaseDebouncing              // input changed, waiting for quiet period
	PhaseSearching               // first page of a search in flight
	PhaseResults                 // search results shown
	PhaseError                   // active listing failed
	PhaseEmpty                   // active listing returned nothing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseSearching:
		return "searching"
	case PhaseResults:
		return "results"
	case PhaseError:
		return "error"
	case PhaseEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Snapshot is everything the grid needs to render one frame
type Snapshot struct {
	Phase          Phase
	ListingPhase   Phase  // Phase of the listing itself, ignoring pending input
	Query          string // debounced query
	Heading        string
	Subheading     string // result count, search only
	Movies         []domain.Movie
	IsLoading      bool
	Err            error
	ErrMessage     string
	HasNextPage    bool
	IsLoadingMore  bool
	TotalResults   int
	ShowingPopular bool
}

// Controller owns the search page state. It is driven from a single
// goroutine (the UI loop); only the debouncer runs timers of its own.
type Controller struct {
	svc       *service.MovieService
	debouncer *debounce.Debouncer[string]
	logger    *slog.Logger

	live      string // what the user has typed
	debounced string // what the listing reflects
	recent    []string
}

// New creates a controller committing input after delay of quiet
func New(svc *service.MovieService, delay time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		svc:       svc,
		debouncer: debounce.New[string](delay),
		logger:    logger.With("component", "discover"),
	}
}

// Type records a keystroke. The listing follows after the quiet period;
// emptying the input reverts to popular movies at once, in which case
// Type reports whether the listing changed.
func (c *Controller) Type(v string) bool {
	if v == c.live {
		return false
	}
	c.live = v
	if service.NormalizeQuery(v) == "" {
		return c.Clear()
	}
	c.debouncer.Set(v)
	return false
}

// Submit commits the current input immediately. A pending debounce for
// the same edit is cancelled and never fires.
func (c *Controller) Submit() bool {
	c.debouncer.Flush()
	return c.Commit(c.live)
}

// Clear empties the input and reverts to popular movies immediately
func (c *Controller) Clear() bool {
	c.debouncer.Cancel()
	c.live = ""
	return c.Commit("")
}

// Commit makes v the debounced query. It reports whether the listing
// changed.
func (c *Controller) Commit(v string) bool {
	if v == c.debounced {
		return false
	}
	prevSearch := c.ShowingSearch()
	prev := service.NormalizeQuery(c.debounced)
	c.debounced = v

	if service.SearchEnabled(v) {
		c.remember(service.NormalizeQuery(v))
	}
	c.logger.Debug("query committed", "query", v, "searching", c.ShowingSearch())

	// "batman" and "batman " resolve to the same listing
	if prevSearch && c.ShowingSearch() {
		return prev != service.NormalizeQuery(v)
	}
	return prevSearch != c.ShowingSearch()
}

func (c *Controller) remember(q string) {
	c.recent = slices.DeleteFunc(c.recent, func(s string) bool { return s == q })
	c.recent = append([]string{q}, c.recent...)
	if len(c.recent) > maxRecent {
		c.recent = c.recent[:maxRecent]
	}
}

// Commits delivers debounced values; pass each one to Commit
func (c *Controller) Commits() <-chan string {
	return c.debouncer.C()
}

// LiveQuery is the raw input
func (c *Controller) LiveQuery() string {
	return c.live
}

// Query is the debounced query the listing reflects
func (c *Controller) Query() string {
	return c.debounced
}

// Recent returns recently searched queries, newest first
func (c *Controller) Recent() []string {
	return slices.Clone(c.recent)
}

// ShowingSearch reports whether the listing is a search rather than
// popular movies
func (c *Controller) ShowingSearch() bool {
	return service.SearchEnabled(c.debounced)
}

// ActiveSearch is the paginated query for the debounced input
func (c *Controller) ActiveSearch() *query.InfiniteQuery[domain.SearchResultPage] {
	return c.svc.InfiniteSearch(c.debounced)
}

// Popular is the fallback listing
func (c *Controller) Popular() *query.Query[domain.SearchResultPage] {
	return c.svc.Popular()
}

// Debouncing reports whether typed input has not reached the listing yet
func (c *Controller) Debouncing() bool {
	return c.debouncer.Pending() && c.live != c.debounced
}

// CanLoadMore reports whether one more page may be requested now
func (c *Controller) CanLoadMore() bool {
	if !c.ShowingSearch() {
		return false
	}
	s := c.ActiveSearch().State()
	return s.HasNextPage && !s.IsFetching
}

// Phase returns the current page state
func (c *Controller) Phase() Phase {
	return c.Snapshot().Phase
}

// Snapshot computes the render state from the cache
func (c *Controller) Snapshot() Snapshot {
	var snap Snapshot
	if c.ShowingSearch() {
		snap = c.searchSnapshot()
	} else {
		snap = c.popularSnapshot()
	}
	snap.ListingPhase = snap.Phase
	if c.Debouncing() {
		snap.Phase = PhaseDebouncing
	}
	return snap
}

func (c *Controller) searchSnapshot() Snapshot {
	q := service.NormalizeQuery(c.debounced)
	s := c.ActiveSearch().State()

	snap := Snapshot{
		Query:         q,
		Heading:       fmt.Sprintf("Search results for %q", q),
		IsLoading:     s.IsLoading(),
		Err:           s.Err,
		HasNextPage:   s.HasNextPage,
		IsLoadingMore: s.IsFetchingNextPage,
	}
	if s.HasData {
		snap.Movies = domain.FlattenPages(s.Data.Pages)
		snap.TotalResults = s.Data.Pages[0].TotalResults
		snap.Subheading = fmt.Sprintf("(%s results)", humanize.Comma(int64(snap.TotalResults)))
	}

	switch {
	case s.Err != nil && len(snap.Movies) == 0:
		snap.Phase = PhaseError
	case s.IsLoading():
		snap.Phase = PhaseSearching
	case s.HasData && len(snap.Movies) == 0:
		snap.Phase = PhaseEmpty
	default:
		snap.Phase = PhaseResults
	}
	if s.Err != nil {
		snap.ErrMessage = query.Message(s.Err, DefaultErrorMessage)
	}
	return snap
}

func (c *Controller) popularSnapshot() Snapshot {
	s := c.Popular().State()

	snap := Snapshot{
		Heading:        PopularHeading,
		IsLoading:      s.IsLoading(),
		Err:            s.Err,
		ShowingPopular: true,
	}
	if s.HasData {
		snap.Movies = s.Data.Results
	}

	switch {
	case s.Err != nil && len(snap.Movies) == 0:
		snap.Phase = PhaseError
	case s.HasData && len(snap.Movies) == 0:
		snap.Phase = PhaseEmpty
	default:
		snap.Phase = PhaseIdle
	}
	if s.Err != nil {
		snap.ErrMessage = query.Message(s.Err, DefaultErrorMessage)
	}
	return snap
}

// Refresh drops the active listing from the cache so the next fetch
// goes to the network. It returns the number of entries removed.
func (c *Controller) Refresh() int {
	if c.ShowingSearch() {
		return c.svc.InvalidateQuery(c.debounced)
	}
	return c.svc.InvalidatePopular()
}

// Close stops the debounce timer
func (c *Controller) Close() {
	c.debouncer.Stop()
}
