package cli

import (
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
	"github.com/mobilemutex/zim-mcp/internal/core/services"
)

// settingKeys are the keys accepted by settings set.
var settingKeys = []string{
	services.KeyArchiveDirectory,
	services.KeyMaxSearchResults,
	services.KeySearchTimeout,
	services.KeyMaxConcurrent,
	services.KeyParallelSearch,
	services.KeyDefaultFormat,
	services.KeyMaxContentLength,
	services.KeyArchiveCacheSize,
	services.KeySearchCacheSize,
	services.KeyLogLevel,
	services.KeyPerformanceLogging,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long: `Prints the settings in effect after the config file, .env file,
environment variables and --dir have been applied.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Save a setting to the config file",
	Long: `Saves one key to the config file. Environment variables still take
precedence over saved values.

Keys:
  archives.directory       search.max_results      search.timeout_seconds
  search.max_concurrent    search.parallel         content.default_format
  content.max_length       cache.archives          cache.search_results
  log.level                log.performance`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationSkipServices: "true"},
	RunE:        runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if appSettings == nil {
		return fmt.Errorf("settings not loaded")
	}
	s := appSettings

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", services.KeyArchiveDirectory, s.ArchiveDirectory)
	fmt.Fprintf(w, "%s\t%d\n", services.KeyMaxSearchResults, s.MaxSearchResults)
	fmt.Fprintf(w, "%s\t%s\n", services.KeySearchTimeout, s.SearchTimeout)
	fmt.Fprintf(w, "%s\t%d\n", services.KeyMaxConcurrent, s.MaxConcurrentSearches)
	fmt.Fprintf(w, "%s\t%t\n", services.KeyParallelSearch, s.ParallelSearch)
	fmt.Fprintf(w, "%s\t%s\n", services.KeyDefaultFormat, s.DefaultFormat)
	fmt.Fprintf(w, "%s\t%d\n", services.KeyMaxContentLength, s.MaxContentLength)
	fmt.Fprintf(w, "%s\t%d\n", services.KeyArchiveCacheSize, s.ArchiveCacheSize)
	fmt.Fprintf(w, "%s\t%d\n", services.KeySearchCacheSize, s.SearchCacheSize)
	fmt.Fprintf(w, "%s\t%s\n", services.KeyLogLevel, s.LogLevel)
	fmt.Fprintf(w, "%s\t%t\n", services.KeyPerformanceLogging, s.PerformanceLogging)
	return w.Flush()
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if !slices.Contains(settingKeys, key) {
		return fmt.Errorf("unknown setting %q", key)
	}

	svc, err := settingsWriter()
	if err != nil {
		return err
	}
	if err := svc.Set(key, parseSettingValue(raw)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, raw)
	return nil
}

// settingsWriter returns the injected settings service, or one over the
// config file. Saving must work even when the current settings are invalid.
func settingsWriter() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	store, err := openConfigStore()
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store), nil
}

// parseSettingValue stores integers and booleans with their TOML types.
func parseSettingValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
