// This file centralizes the service-level error values of the rewrite
// pipeline so handlers can map them to HTTP results consistently. Policy
// denials (quota) carry their own typed error in the quota package.
package rewrite

import "errors"

var (
	// ErrEmptyText is returned when a request carries no text.
	ErrEmptyText = errors.New("text is empty")

	// ErrTextTooLong is returned when the input exceeds the declared bound.
	ErrTextTooLong = errors.New("text too long")

	// ErrInvalidTemperature is returned for temperatures outside [0, 1].
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 1")

	// ErrInvalidMaxLength is returned for max lengths outside [50, 1024].
	ErrInvalidMaxLength = errors.New("max_length must be between 50 and 1024")

	// ErrTimeout is returned when a request's generation phase, summed across
	// all of its chunks, exceeded the configured wall-clock bound. No partial
	// result is ever returned and no cache write occurs.
	ErrTimeout = errors.New("generation timed out")
)
