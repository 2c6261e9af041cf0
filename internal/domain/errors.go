package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNoData is the uniform failure signal of the movie API client.
	// The underlying cause is wrapped alongside it.
	ErrNoData = errors.New("no data")

	// ErrServiceOffline indicates the movie API is unreachable
	ErrServiceOffline = errors.New("movie service is unreachable")

	// ErrAuthFailed indicates the API key is missing or rejected
	ErrAuthFailed = errors.New("api key is missing or invalid")

	// ErrNotFound indicates the requested movie does not exist
	ErrNotFound = errors.New("movie not found")

	// ErrRateLimited indicates the API rejected the request with 429
	ErrRateLimited = errors.New("rate limited by movie service")
)
