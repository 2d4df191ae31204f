package domain

import (
	"fmt"
	"time"
)

// Default settings values.
const (
	DefaultArchiveDirectory      = "./zim_files"
	DefaultMaxSearchResults      = 100
	DefaultSearchTimeout         = 30 * time.Second
	DefaultContentFormat         = FormatText
	DefaultMaxContentLength      = 50000
	DefaultArchiveCacheSize      = 10
	DefaultSearchCacheSize       = 1000
	DefaultMaxConcurrentSearches = 5
	DefaultParallelSearch        = true
	DefaultLogLevel              = "info"
)

// Settings holds the configuration consumed by the archive core and its
// driving adapters.
type Settings struct {
	// ArchiveDirectory is the sandbox root; every archive path must resolve
	// inside it.
	ArchiveDirectory string

	// MaxSearchResults caps the page size accepted by search operations.
	MaxSearchResults int

	// SearchTimeout bounds a single protocol call into the core.
	SearchTimeout time.Duration

	// DefaultFormat is used when a caller does not pick a content format.
	DefaultFormat ContentFormat

	// MaxContentLength is the maximum extracted content length in characters.
	MaxContentLength int

	// ArchiveCacheSize is the number of archive handles kept open.
	ArchiveCacheSize int

	// SearchCacheSize is the number of composite search results kept.
	SearchCacheSize int

	// MaxConcurrentSearches bounds parallel per-archive queries.
	MaxConcurrentSearches int

	// ParallelSearch fans multi-archive searches out concurrently.
	ParallelSearch bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// PerformanceLogging logs the duration of core operations.
	PerformanceLogging bool
}

// DefaultSettings returns settings with all documented defaults applied.
func DefaultSettings() Settings {
	return Settings{
		ArchiveDirectory:      DefaultArchiveDirectory,
		MaxSearchResults:      DefaultMaxSearchResults,
		SearchTimeout:         DefaultSearchTimeout,
		DefaultFormat:         DefaultContentFormat,
		MaxContentLength:      DefaultMaxContentLength,
		ArchiveCacheSize:      DefaultArchiveCacheSize,
		SearchCacheSize:       DefaultSearchCacheSize,
		MaxConcurrentSearches: DefaultMaxConcurrentSearches,
		ParallelSearch:        DefaultParallelSearch,
		LogLevel:              DefaultLogLevel,
	}
}

// Validate rejects settings the core cannot run with. Cache capacities
// must be positive: a zero capacity is a configuration error, not a way
// to disable caching.
func (s Settings) Validate() error {
	if s.ArchiveDirectory == "" {
		return fmt.Errorf("%w: archive directory is required", ErrInvalidInput)
	}
	if s.ArchiveCacheSize <= 0 {
		return fmt.Errorf("%w: archive cache size must be positive, got %d", ErrInvalidInput, s.ArchiveCacheSize)
	}
	if s.SearchCacheSize <= 0 {
		return fmt.Errorf("%w: search cache size must be positive, got %d", ErrInvalidInput, s.SearchCacheSize)
	}
	if s.MaxSearchResults <= 0 {
		return fmt.Errorf("%w: max search results must be positive, got %d", ErrInvalidInput, s.MaxSearchResults)
	}
	if s.MaxContentLength <= 0 {
		return fmt.Errorf("%w: max content length must be positive, got %d", ErrInvalidInput, s.MaxContentLength)
	}
	if s.MaxConcurrentSearches <= 0 {
		return fmt.Errorf("%w: max concurrent searches must be positive, got %d",
			ErrInvalidInput, s.MaxConcurrentSearches)
	}
	if !s.DefaultFormat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, s.DefaultFormat)
	}
	return nil
}
