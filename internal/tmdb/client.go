package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mmcdole/moviesearch/internal/domain"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	defaultTimeout = 15 * time.Second
	userAgent      = "moviesearch/1.0"
)

var _ domain.MovieRepository = (*Client)(nil)

// Client implements domain.MovieRepository for The Movie Database.
// Every failure is logged and surfaced as an error wrapping domain.ErrNoData.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[[]byte]
	logger       *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithImageBaseURL overrides the image CDN base URL
func WithImageBaseURL(u string) Option {
	return func(c *Client) { c.imageBaseURL = strings.TrimRight(u, "/") }
}

// WithLanguage sets the language parameter sent with every request
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit limits outgoing requests to rps with the given burst
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithoutBreaker disables the circuit breaker
func WithoutBreaker() Option {
	return func(c *Client) { c.breaker = nil }
}

// NewClient creates a new TMDB API client
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:      DefaultBaseURL,
		imageBaseURL: DefaultImageBaseURL,
		apiKey:       strings.TrimSpace(apiKey),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		logger:       logger,
	}
	c.breaker = newBreaker("tmdb-api", logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMovies returns one page of title search results
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*domain.SearchResultPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var dto pageDTO
	if err := c.get(ctx, "search", "/search/movie", params, &dto); err != nil {
		return nil, err
	}
	return mapPage(dto), nil
}

// GetPopularMovies returns one page of popular movies
func (c *Client) GetPopularMovies(ctx context.Context, page int) (*domain.SearchResultPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var dto pageDTO
	if err := c.get(ctx, "popular", "/movie/popular", params, &dto); err != nil {
		return nil, err
	}
	return mapPage(dto), nil
}

// GetMovieDetails returns the full record for one movie
func (c *Client) GetMovieDetails(ctx context.Context, id int) (*domain.MovieDetails, error) {
	var dto detailsDTO
	if err := c.get(ctx, "details", "/movie/"+strconv.Itoa(id), url.Values{}, &dto); err != nil {
		return nil, err
	}
	return mapDetails(dto), nil
}

// ImageURL composes a poster URL for path at the given size.
// Movies without a poster get the placeholder image.
func (c *Client) ImageURL(path string, size domain.ImageSize) string {
	return ImageURL(c.imageBaseURL, path, size)
}

// ImageURL composes an image CDN URL
func ImageURL(base, path string, size domain.ImageSize) string {
	if path == "" {
		return domain.PlaceholderImage
	}
	if base == "" {
		base = DefaultImageBaseURL
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + "/" + size.Token() + path
}

// get fetches path and decodes the body into dest. Failures are logged
// here and collapsed into domain.ErrNoData.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, dest any) error {
	body, err := c.fetch(ctx, path, params)
	if err == nil {
		if err = json.Unmarshal(body, dest); err != nil {
			err = fmt.Errorf("failed to parse response: %w", err)
		}
	}
	if err != nil {
		c.logger.Error("tmdb request failed", "op", op, "path", path, "error", err)
		return fmt.Errorf("%w: %s: %w", domain.ErrNoData, op, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, domain.ErrAuthFailed
	}
	if c.breaker == nil {
		return c.doRequest(ctx, http.MethodGet, path, params)
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, http.MethodGet, path, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceOffline, err)
	}
	return body, err
}

// doRequest performs an authenticated HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("tmdb request", "method", method, "path", path, "query", query.Get("query"), "page", query.Get("page"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	case http.StatusTooManyRequests:
		return nil, domain.ErrRateLimited
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
