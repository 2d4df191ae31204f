// Package cli provides the zim-mcp command line interface. Commands are
// package-level cobra commands registered in init; the services they use
// are wired once per run by the root command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/archive/sqlite"
	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/config/file"
	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/watch"
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
	"github.com/mobilemutex/zim-mcp/internal/core/services"
	"github.com/mobilemutex/zim-mcp/internal/logger"
	"github.com/mobilemutex/zim-mcp/internal/normalisers"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/html"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// annotationSkipServices marks commands that run without the archive
// services.
const annotationSkipServices = "skip-services"

// Global flags.
var (
	configPath string
	archiveDir string
	verbose    bool
)

// Services used by the commands. setupServices wires them unless they
// are already set, which lets tests inject their own.
var (
	appSettings     *domain.Settings
	settingsService driving.SettingsService
	archiveService  driving.ArchiveService
	searchService   driving.SearchService
	contentService  driving.ContentService
	invalidator     watch.Invalidator
	cleanups        []func() error
)

var rootCmd = &cobra.Command{
	Use:   "zim-mcp",
	Short: "Read-only access to ZIM archives for AI assistants",
	Long: `zim-mcp serves a directory of archive files to AI assistants over the
Model Context Protocol, and offers the same listing, search and reading
operations on the command line.

Settings come from ~/.zim-mcp/config.toml, a .env file in the working
directory and environment variables such as ZIM_FILES_DIRECTORY, in
increasing precedence. The --dir flag overrides them all.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.zim-mcp/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&archiveDir, "dir", "d", "", "archive directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// setupServices loads the settings and wires the archive services.
func setupServices(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[annotationSkipServices] == "true" || archiveService != nil {
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Loading .env: %v", err)
	}

	store, err := openConfigStore()
	if err != nil {
		return err
	}
	settingsSvc := services.NewSettingsService(store)
	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if archiveDir != "" {
		settings.ArchiveDirectory = archiveDir
	}
	configureLogger(settings)

	registry, err := services.NewArchiveRegistry(settings.ArchiveDirectory, settings.ArchiveCacheSize, sqlite.NewOpener())
	if err != nil {
		return fmt.Errorf("creating archive registry: %w", err)
	}
	search, err := services.NewSearchCoordinator(registry, *settings)
	if err != nil {
		_ = registry.Close()
		return fmt.Errorf("creating search coordinator: %w", err)
	}
	content, err := services.NewContentExtractor(registry, html.New(), settings.MaxContentLength)
	if err != nil {
		_ = registry.Close()
		return fmt.Errorf("creating content extractor: %w", err)
	}
	content.WithNormalisers(normalisers.Default())

	appSettings = settings
	settingsService = settingsSvc
	archiveService = registry
	searchService = search
	contentService = content
	invalidator = cacheInvalidator{registry: registry, search: search}
	cleanups = append(cleanups, registry.Close)

	logger.Debug("Archive directory: %s", registry.Root())
	return nil
}

func openConfigStore() (driven.ConfigStore, error) {
	if configPath != "" {
		return file.NewConfigStoreAt(configPath)
	}
	return file.NewConfigStore("")
}

func configureLogger(settings *domain.Settings) {
	level, ok := logger.ParseLevel(settings.LogLevel)
	if !ok {
		logger.Warn("Unknown log level %q, using info", settings.LogLevel)
	}
	logger.SetLevel(level)
	logger.SetPerformance(settings.PerformanceLogging)
	if verbose {
		logger.SetVerbose(true)
	}
}

// closeServices releases open archive handles.
func closeServices() {
	for _, fn := range cleanups {
		if err := fn(); err != nil {
			logger.Warn("Closing services: %v", err)
		}
	}
	cleanups = nil
}

// requireServices reports a configuration error for commands that need
// the archive services.
func requireServices() error {
	if archiveService == nil || searchService == nil || contentService == nil || appSettings == nil {
		return errors.New("archive services not configured")
	}
	return nil
}

// cacheInvalidator drops everything cached about a changed archive file.
type cacheInvalidator struct {
	registry *services.ArchiveRegistry
	search   *services.SearchCoordinator
}

// Invalidate drops the archive's handle and descriptor, and every cached
// search result since results span archives.
func (c cacheInvalidator) Invalidate(name string) {
	c.registry.Invalidate(name)
	c.search.ClearCaches()
}
