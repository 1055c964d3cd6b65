// Package errors defines the error taxonomy shared across the service.
// Raw transport and parsing failures are translated into these at the
// service boundary; nothing else reaches the HTTP layer.
package errors

import "errors"

var (
	// ErrInvalidArgument marks malformed or missing query parameters.
	// Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks an entity absent from every reachable dataset.
	ErrNotFound = errors.New("not found")

	// ErrSourceUnavailable marks a failed or timed-out origin fetch.
	// The service recovers by serving a stale cache entry when one exists.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrOverloaded marks a fetch rejected because the concurrent-fetch
	// queue is full. Callers are expected to retry with backoff.
	ErrOverloaded = errors.New("overloaded")
)
