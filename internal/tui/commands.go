package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviesearch/internal/discover"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/query"
)

// Request timeouts
const (
	listingTimeout = 30 * time.Second
	detailsTimeout = 15 * time.Second
)

// WaitForCommitCmd blocks until the debouncer publishes a value. The
// model re-issues it after every commit.
func WaitForCommitCmd(ctrl *discover.Controller) tea.Cmd {
	return func() tea.Msg {
		q, ok := <-ctrl.Commits()
		if !ok {
			return nil
		}
		return QueryCommittedMsg{Query: q}
	}
}

// FetchPopularCmd loads the popular listing
func FetchPopularCmd(q *query.Query[domain.SearchResultPage]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listingTimeout)
		defer cancel()

		_, err := q.Fetch(ctx)
		return ListingLoadedMsg{Key: q.Key().String(), Err: err}
	}
}

// FetchSearchCmd loads the first page of a search
func FetchSearchCmd(q *query.InfiniteQuery[domain.SearchResultPage]) tea.Cmd {
	if !q.Enabled() {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listingTimeout)
		defer cancel()

		_, err := q.Fetch(ctx)
		return ListingLoadedMsg{Key: q.Key().String(), Err: err}
	}
}

// FetchNextPageCmd appends one page to a search
func FetchNextPageCmd(q *query.InfiniteQuery[domain.SearchResultPage]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listingTimeout)
		defer cancel()

		_, err := q.FetchNextPage(ctx)
		return PageLoadedMsg{Key: q.Key().String(), Err: err}
	}
}

// FetchDetailsCmd loads the full record for movie id
func FetchDetailsCmd(q *query.Query[domain.MovieDetails], id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailsTimeout)
		defer cancel()

		d, err := q.Fetch(ctx)
		return DetailsLoadedMsg{ID: id, Details: d, Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
