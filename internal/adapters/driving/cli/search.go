package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

var (
	searchArchives []string
	searchLimit    int
	searchOffset   int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search archives",
	Long: `Runs a full-text query against the named archives, or against every
archive with a full-text index. Results from several archives are merged
and ordered by title length, shortest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchArchives, "archive", "a", nil, "archive to search (repeatable)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "index of the first result")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	if searchLimit <= 0 || searchLimit > appSettings.MaxSearchResults {
		return fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, appSettings.MaxSearchResults)
	}

	ctx := cmd.Context()
	var hits []domain.SearchHit
	var err error
	if len(searchArchives) > 0 {
		hits, err = searchService.SearchMany(ctx, searchArchives, args[0], searchLimit, searchOffset)
	} else {
		hits, err = searchService.SearchAll(ctx, args[0], searchLimit, searchOffset)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		return writeJSON(out, hits)
	}

	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintln(out, "Results:")
	fmt.Fprintln(out)
	for i, hit := range hits {
		// Format: [N] Title - archive:path (Score)
		fmt.Fprintf(out, "[%d] %s - %s:%s (%.2f)\n", searchOffset+i+1, hit.Title, hit.ArchiveID, hit.EntryPath, hit.Score)
	}

	page := domain.SearchPage{Hits: hits, Offset: searchOffset, Limit: searchLimit}
	if page.HasMore() {
		fmt.Fprintf(out, "\nMore results: --offset %d\n", searchOffset+searchLimit)
	}
	return nil
}
