package errors

import (
	"errors"
	"fmt"
)

// EnrichmentError is returned when a movie cannot be enriched from the catalog.
// Only unrecoverable failures (movie details, credits) produce it.
type EnrichmentError struct {
	MovieID int
	Err     error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("failed to enrich movie data: %v", e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// NewEnrichmentError wraps err as an EnrichmentError for the given catalog movie ID.
func NewEnrichmentError(movieID int, err error) *EnrichmentError {
	return &EnrichmentError{MovieID: movieID, Err: err}
}

// IsEnrichmentError reports whether err is an EnrichmentError (even when wrapped).
func IsEnrichmentError(err error) bool {
	var enrichErr *EnrichmentError
	return errors.As(err, &enrichErr)
}

// MaterializationError is returned when the final movie entity could not be created.
type MaterializationError struct {
	Title string
	Err   error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("failed to create movie entity %q: %v", e.Title, e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// NewMaterializationError wraps err as a MaterializationError.
func NewMaterializationError(title string, err error) *MaterializationError {
	return &MaterializationError{Title: title, Err: err}
}

// IsMaterializationError reports whether err is a MaterializationError (even when wrapped).
func IsMaterializationError(err error) bool {
	var matErr *MaterializationError
	return errors.As(err, &matErr)
}
