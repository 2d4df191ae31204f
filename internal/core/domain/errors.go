package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested archive or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPathEscape indicates a resolved archive path lies outside the
	// configured archive directory. Never retried.
	ErrPathEscape = errors.New("path escapes archive directory")

	// ErrOpen indicates the archive capability failed to open a file.
	ErrOpen = errors.New("archive open failed")

	// ErrIO indicates the archive capability failed to read data
	// from an already opened archive.
	ErrIO = errors.New("archive read failed")

	// Query validation errors.

	// ErrEmptyQuery indicates a search query that is empty after trimming.
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// ErrQueryTooLong indicates a search query above MaxQueryLength characters.
	ErrQueryTooLong = errors.New("search query too long (max 1000 characters)")

	// ErrInvalidFormat indicates an unknown content output format.
	ErrInvalidFormat = errors.New("invalid content format")

	// ErrSearchUnavailable indicates the archive has no full-text index.
	// Search entry points treat it as an empty result, not a failure.
	ErrSearchUnavailable = errors.New("full-text index unavailable")
)

// IsValidationError reports whether err is an input validation failure
// that should be surfaced to the caller immediately.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrQueryTooLong) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrPathEscape)
}
