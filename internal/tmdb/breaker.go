package tmdb

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/comigor/movieagent/internal/logger"
)

// BreakerClient wraps a Searcher with a circuit breaker so a TMDB outage fails
// fast instead of costing a full timeout on every turn. It never retries.
type BreakerClient struct {
	inner   Searcher
	search  *gobreaker.CircuitBreaker[*Response]
	details *gobreaker.CircuitBreaker[*MovieDetails]
}

var _ Searcher = (*BreakerClient)(nil)

// BreakerConfig tunes the breaker. Zero values fall back to 5 consecutive
// failures and a 30 second open period.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// NewBreakerClient creates a BreakerClient around inner.
func NewBreakerClient(inner Searcher, cfg BreakerConfig) *BreakerClient {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return &BreakerClient{
		inner:   inner,
		search:  gobreaker.NewCircuitBreaker[*Response](breakerSettings("tmdb-search", cfg)),
		details: gobreaker.NewCircuitBreaker[*MovieDetails](breakerSettings("tmdb-details", cfg)),
	}
}

func breakerSettings(name string, cfg BreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Timeout:      cfg.OpenTimeout,
		IsSuccessful: countsAsHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L.Warn("tmdb circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
}

// countsAsHealthy keeps caller-side outcomes (4xx answers, cancellation) from
// tripping the breaker.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.ClientSide()
}

// SearchMovie runs the inner search through the breaker.
func (b *BreakerClient) SearchMovie(ctx context.Context, query string) (*Response, error) {
	return b.search.Execute(func() (*Response, error) {
		return b.inner.SearchMovie(ctx, query)
	})
}

// GetMovieDetails runs the inner details lookup through the breaker.
func (b *BreakerClient) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	return b.details.Execute(func() (*MovieDetails, error) {
		return b.inner.GetMovieDetails(ctx, movieID)
	})
}

// State reports the search breaker state, e.g. "closed" or "open".
func (b *BreakerClient) State() string {
	return b.search.State().String()
}

// DetailsState reports the details breaker state.
func (b *BreakerClient) DetailsState() string {
	return b.details.State().String()
}
