package tmdb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/moviesearch/internal/domain"
	gobreaker "github.com/sony/gobreaker/v2"
)

// newBreaker builds the circuit breaker guarding the API.
// It opens once at least 10 requests were seen and 60% of them failed,
// then probes again after 30 seconds with up to 3 requests.
func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logger.Warn("opening circuit", "breaker", name, "failures", counts.TotalFailures, "failure_rate", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isBreakerSuccess,
	})
}

// isBreakerSuccess reports whether err says nothing about API health.
// A missing movie or a caller that gave up is not an outage.
func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// BreakerState returns the current circuit state, or "disabled"
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}
