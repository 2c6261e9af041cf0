package domain

import (
	"context"
)

// MovieRepository provides access to the remote movie catalogue.
// Every failure is reported as an error wrapping ErrNoData.
type MovieRepository interface {
	// SearchMovies returns one page of title search results
	SearchMovies(ctx context.Context, query string, page int) (*SearchResultPage, error)

	// GetPopularMovies returns one page of currently popular movies
	GetPopularMovies(ctx context.Context, page int) (*SearchResultPage, error)

	// GetMovieDetails returns the full record for one movie
	GetMovieDetails(ctx context.Context, id int) (*MovieDetails, error)
}

// ImageResolver composes poster URLs
type ImageResolver interface {
	ImageURL(path string, size ImageSize) string
}
