package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/query"
)

// MinSearchLength is the number of characters a query must exceed
// before any search request is made
const MinSearchLength = 3

// User facing failure messages
const (
	MsgFetchMovies  = "Failed to fetch movies"
	MsgFetchDetails = "Failed to fetch movie details"
)

// StaleTimes are the freshness windows per query family
type StaleTimes struct {
	Search  time.Duration
	Details time.Duration
	Popular time.Duration
}

// DefaultStaleTimes returns the standard freshness windows
func DefaultStaleTimes() StaleTimes {
	return StaleTimes{
		Search:  5 * time.Minute,
		Details: 10 * time.Minute,
		Popular: 30 * time.Minute,
	}
}

// MovieService binds movie API operations to cached queries.
// Building a query is free; network work happens on Fetch.
type MovieService struct {
	repo   domain.MovieRepository
	images domain.ImageResolver
	client *query.Client
	stale  StaleTimes
	logger *slog.Logger
}

// NewMovieService creates a new movie service
func NewMovieService(repo domain.MovieRepository, images domain.ImageResolver, client *query.Client, stale StaleTimes, logger *slog.Logger) *MovieService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieService{
		repo:   repo,
		images: images,
		client: client,
		stale:  stale,
		logger: logger,
	}
}

// NormalizeQuery trims surrounding whitespace
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// SearchEnabled reports whether q is long enough to search for
func SearchEnabled(q string) bool {
	return utf8.RuneCountInString(NormalizeQuery(q)) > MinSearchLength
}

// Search is the first page of results for q
func (s *MovieService) Search(q string) *query.Query[domain.SearchResultPage] {
	q = NormalizeQuery(q)
	return query.New(s.client, query.Options[domain.SearchResultPage]{
		Key:          SearchKey(q),
		StaleTime:    s.stale.Search,
		Disabled:     !SearchEnabled(q),
		ErrorMessage: MsgFetchMovies,
		Fn: func(ctx context.Context) (domain.SearchResultPage, error) {
			page, err := s.repo.SearchMovies(ctx, q, 1)
			if err != nil {
				return domain.SearchResultPage{}, err
			}
			return *page, nil
		},
	})
}

// InfiniteSearch is the paginated search for q, starting at page 1
func (s *MovieService) InfiniteSearch(q string) *query.InfiniteQuery[domain.SearchResultPage] {
	q = NormalizeQuery(q)
	return query.NewInfinite(s.client, query.InfiniteOptions[domain.SearchResultPage]{
		Key:              InfiniteSearchKey(q),
		InitialPageParam: 1,
		StaleTime:        s.stale.Search,
		Disabled:         !SearchEnabled(q),
		ErrorMessage:     MsgFetchMovies,
		Fn: func(ctx context.Context, page int) (domain.SearchResultPage, error) {
			p, err := s.repo.SearchMovies(ctx, q, page)
			if err != nil {
				return domain.SearchResultPage{}, err
			}
			return *p, nil
		},
		NextPageParam: func(last domain.SearchResultPage) (int, bool) {
			if last.HasNextPage() {
				return last.NextPage(), true
			}
			return 0, false
		},
	})
}

// Details is the full record for movie id
func (s *MovieService) Details(id int) *query.Query[domain.MovieDetails] {
	return query.New(s.client, query.Options[domain.MovieDetails]{
		Key:          DetailsKey(id),
		StaleTime:    s.stale.Details,
		Disabled:     id <= 0,
		ErrorMessage: MsgFetchDetails,
		Fn: func(ctx context.Context) (domain.MovieDetails, error) {
			d, err := s.repo.GetMovieDetails(ctx, id)
			if err != nil {
				return domain.MovieDetails{}, err
			}
			return *d, nil
		},
	})
}

// Popular is the first page of popular movies. Its failures carry no
// message of their own, so the grid shows its generic one.
func (s *MovieService) Popular() *query.Query[domain.SearchResultPage] {
	return query.New(s.client, query.Options[domain.SearchResultPage]{
		Key:       KeyPopular,
		StaleTime: s.stale.Popular,
		Fn: func(ctx context.Context) (domain.SearchResultPage, error) {
			page, err := s.repo.GetPopularMovies(ctx, 1)
			if err != nil {
				return domain.SearchResultPage{}, err
			}
			return *page, nil
		},
	})
}

// ImageURL composes a poster URL
func (s *MovieService) ImageURL(path string, size domain.ImageSize) string {
	return s.images.ImageURL(path, size)
}

// InvalidateSearch drops every cached search
func (s *MovieService) InvalidateSearch() int {
	return s.client.Invalidate(KeySearchRoot)
}

// InvalidatePopular drops the cached popular listing
func (s *MovieService) InvalidatePopular() int {
	return s.client.Invalidate(KeyPopular)
}

// InvalidateAll drops every cached movie query
func (s *MovieService) InvalidateAll() int {
	n := s.client.Invalidate(KeyRoot)
	s.logger.Info("invalidated movie cache", "entries", n)
	return n
}

// InvalidateQuery drops the cached pages for one search
func (s *MovieService) InvalidateQuery(q string) int {
	q = NormalizeQuery(q)
	return s.client.Invalidate(InfiniteSearchKey(q)) + s.client.Invalidate(SearchKey(q))
}
