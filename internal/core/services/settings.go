package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
	"github.com/mobilemutex/zim-mcp/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyArchiveDirectory   = "archives.directory"
	KeyMaxSearchResults   = "search.max_results"
	KeySearchTimeout      = "search.timeout_seconds"
	KeyMaxConcurrent      = "search.max_concurrent"
	KeyParallelSearch     = "search.parallel"
	KeyDefaultFormat      = "content.default_format"
	KeyMaxContentLength   = "content.max_length"
	KeyArchiveCacheSize   = "cache.archives"
	KeySearchCacheSize    = "cache.search_results"
	KeyLogLevel           = "log.level"
	KeyPerformanceLogging = "log.performance"
)

// Environment variables overriding the config file.
const (
	EnvArchiveDirectory   = "ZIM_FILES_DIRECTORY"
	EnvMaxSearchResults   = "MAX_SEARCH_RESULTS"
	EnvSearchTimeout      = "SEARCH_TIMEOUT"
	EnvDefaultFormat      = "DEFAULT_CONTENT_FORMAT"
	EnvMaxContentLength   = "MAX_CONTENT_LENGTH"
	EnvArchiveCacheSize   = "ARCHIVE_CACHE_SIZE"
	EnvSearchCacheSize    = "SEARCH_CACHE_SIZE"
	EnvMaxConcurrent      = "MAX_CONCURRENT_SEARCHES"
	EnvParallelSearch     = "ENABLE_PARALLEL_SEARCH"
	EnvLogLevel           = "LOG_LEVEL"
	EnvPerformanceLogging = "ENABLE_PERFORMANCE_LOGGING"
)

// SettingsService resolves settings from defaults, the config store and
// the environment, in increasing precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a settings service reading the process
// environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Useful for testing.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get returns the effective settings. Unparseable values are logged and
// ignored; the merged result must pass Settings.Validate.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.ArchiveDirectory = s.getString(KeyArchiveDirectory, EnvArchiveDirectory, settings.ArchiveDirectory)
	settings.MaxSearchResults = s.getInt(KeyMaxSearchResults, EnvMaxSearchResults, settings.MaxSearchResults)
	settings.SearchTimeout = time.Duration(
		s.getInt(KeySearchTimeout, EnvSearchTimeout, int(settings.SearchTimeout/time.Second)),
	) * time.Second
	settings.MaxContentLength = s.getInt(KeyMaxContentLength, EnvMaxContentLength, settings.MaxContentLength)
	settings.ArchiveCacheSize = s.getInt(KeyArchiveCacheSize, EnvArchiveCacheSize, settings.ArchiveCacheSize)
	settings.SearchCacheSize = s.getInt(KeySearchCacheSize, EnvSearchCacheSize, settings.SearchCacheSize)
	settings.MaxConcurrentSearches = s.getInt(KeyMaxConcurrent, EnvMaxConcurrent, settings.MaxConcurrentSearches)
	settings.ParallelSearch = s.getBool(KeyParallelSearch, EnvParallelSearch, settings.ParallelSearch)
	settings.LogLevel = strings.ToLower(s.getString(KeyLogLevel, EnvLogLevel, settings.LogLevel))
	settings.PerformanceLogging = s.getBool(KeyPerformanceLogging, EnvPerformanceLogging, settings.PerformanceLogging)

	format := s.getString(KeyDefaultFormat, EnvDefaultFormat, settings.DefaultFormat.String())
	parsed, err := domain.ParseContentFormat(format)
	if err != nil {
		return nil, fmt.Errorf("default content format %q: %w", format, err)
	}
	settings.DefaultFormat = parsed

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set persists one configuration key.
func (s *SettingsService) Set(key string, value any) error {
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Helper methods for reading config with defaults. The environment wins
// over the config store.

func (s *SettingsService) getString(key, env, defaultVal string) string {
	if v, ok := s.env(env); ok {
		return v
	}
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key, env string, defaultVal int) int {
	if v, ok := s.env(env); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		logger.Warn("Ignoring %s=%q: not an integer", env, v)
	}
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key, env string, defaultVal bool) bool {
	if v, ok := s.env(env); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		logger.Warn("Ignoring %s=%q: not a boolean", env, v)
	}
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
