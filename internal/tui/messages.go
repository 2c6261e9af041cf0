package tui

import "github.com/mmcdole/moviesearch/internal/domain"

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// QueryCommittedMsg carries a value from the debounce timer
type QueryCommittedMsg struct {
	Query string
}

// ListingLoadedMsg signals that the first page of a listing settled.
// The data itself lives in the query cache.
type ListingLoadedMsg struct {
	Key string
	Err error
}

// PageLoadedMsg signals that a load-more request settled
type PageLoadedMsg struct {
	Key string
	Err error
}

// DetailsLoadedMsg carries the full record for the detail overlay
type DetailsLoadedMsg struct {
	ID      int
	Details domain.MovieDetails
	Err     error
}

// TickMsg drives the spinner
type TickMsg struct{}

// ClearStatusMsg clears the transient status line
type ClearStatusMsg struct{}
