package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

var (
	listRefresh bool
	listJSON    bool
	infoJSON    bool
	randomCount int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archive files",
	Long:  `Lists the archive files in the archive directory with their size and article counts.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var infoCmd = &cobra.Command{
	Use:   "info [archive]",
	Short: "Show archive metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var randomCmd = &cobra.Command{
	Use:   "random [archive...]",
	Short: "Show random entries",
	Long: `Draws random entries from the named archives, or from every archive
when none are named. Each archive contributes an equal share.`,
	RunE: runRandom,
}

func init() {
	listCmd.Flags().BoolVar(&listRefresh, "refresh", false, "rescan the archive directory")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output archives as JSON")
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output metadata as JSON")
	randomCmd.Flags().IntVarP(&randomCount, "count", "n", 5, "number of entries")
	rootCmd.AddCommand(listCmd, infoCmd, randomCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	archives, err := archiveService.Discover(cmd.Context(), listRefresh)
	if err != nil {
		return fmt.Errorf("listing archives: %w", err)
	}
	out := cmd.OutOrStdout()
	if listJSON {
		return writeJSON(out, archives)
	}

	if len(archives) == 0 {
		stats := archiveService.DirectoryStats(cmd.Context())
		if !stats.Exists {
			fmt.Fprintf(out, "Archive directory %s does not exist.\n", stats.Directory)
			return nil
		}
		fmt.Fprintf(out, "No archives found in %s.\n", stats.Directory)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tTITLE\tSIZE\tARTICLES\tSEARCH")
	for i := range archives {
		a := &archives[i]
		search := "no"
		if a.HasFulltextIndex {
			search = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.Filename, a.Title, a.SizeFormatted, humanize.Comma(int64(a.ArticleCount)), search)
	}
	return w.Flush()
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	desc, err := archiveService.Describe(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("describing %s: %w", args[0], err)
	}
	out := cmd.OutOrStdout()
	if infoJSON {
		return writeJSON(out, desc)
	}

	fmt.Fprintf(out, "File:        %s\n", desc.Filename)
	fmt.Fprintf(out, "Title:       %s\n", desc.Title)
	if desc.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", desc.Description)
	}
	fmt.Fprintf(out, "Size:        %s (%s bytes)\n", desc.SizeFormatted, humanize.Comma(desc.SizeBytes))
	fmt.Fprintf(out, "Articles:    %s\n", humanize.Comma(int64(desc.ArticleCount)))
	fmt.Fprintf(out, "Media:       %s\n", humanize.Comma(int64(desc.MediaCount)))
	fmt.Fprintf(out, "Full-text:   %t\n", desc.HasFulltextIndex)
	fmt.Fprintf(out, "Title index: %t\n", desc.HasTitleIndex)
	if desc.UUID != "" {
		fmt.Fprintf(out, "UUID:        %s\n", desc.UUID)
	}

	if len(desc.Metadata) > 0 {
		fmt.Fprintln(out, "\nMetadata:")
		keys := make([]string, 0, len(desc.Metadata))
		for k := range desc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %s\n", k, desc.Metadata[k])
		}
	}
	return nil
}

func runRandom(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	if randomCount <= 0 {
		return fmt.Errorf("%w: count must be positive", domain.ErrInvalidInput)
	}

	ctx := cmd.Context()
	files := args
	if len(files) == 0 {
		archives, err := archiveService.Discover(ctx, false)
		if err != nil {
			return fmt.Errorf("listing archives: %w", err)
		}
		for i := range archives {
			files = append(files, archives[i].Filename)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no archive files available", domain.ErrNotFound)
	}

	out := cmd.OutOrStdout()
	quota := max(1, randomCount/len(files))
	shown := 0
	for _, file := range files {
		for i := 0; i < quota && shown < randomCount; i++ {
			hit, err := archiveService.RandomEntry(ctx, file)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", file, err)
				break
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", hit.ArchiveID, hit.EntryPath, hit.Title)
			shown++
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
