// Package tmdb is a thin client for the TMDB v3 movie search and details
// endpoints, with optional request rate limiting and a circuit breaker.
package tmdb
