package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

var (
	readFormat  string
	readByTitle bool
	readSummary int

	browsePath  string
	browseTitle string
	browseLimit int
)

var readCmd = &cobra.Command{
	Use:   "read [archive] [path]",
	Short: "Print an entry",
	Long: `Prints one entry of an archive. Formats:
  text  markup stripped, whitespace collapsed (default)
  html  decoded markup unchanged
  raw   entry bytes as hex

Use --title to look the entry up by title instead of path, and --summary
to print at most that many characters of whole sentences.`,
	Args: cobra.ExactArgs(2),
	RunE: runRead,
}

var browseCmd = &cobra.Command{
	Use:   "browse [archive]",
	Short: "Sample entries by path or title",
	Long: `Draws random entries and keeps those whose path and title contain the
given substrings. Browsing samples the archive: results are best-effort,
not exhaustive, and differ between runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "", "output format: text, html or raw")
	readCmd.Flags().BoolVar(&readByTitle, "title", false, "treat the second argument as a title")
	readCmd.Flags().IntVar(&readSummary, "summary", 0, "print a summary of at most this many characters")
	browseCmd.Flags().StringVar(&browsePath, "path", "", "substring of the entry path")
	browseCmd.Flags().StringVar(&browseTitle, "title", "", "substring of the entry title")
	browseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 50, "maximum number of entries")
	rootCmd.AddCommand(readCmd, browseCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	format := appSettings.DefaultFormat
	if readFormat != "" {
		parsed, err := domain.ParseContentFormat(readFormat)
		if err != nil {
			return fmt.Errorf("%w: %q", err, readFormat)
		}
		format = parsed
	}
	if format == domain.FormatRaw && readByTitle {
		return fmt.Errorf("%w: raw output needs an entry path", domain.ErrInvalidInput)
	}

	ctx := cmd.Context()
	if readSummary > 0 {
		return printOutline(cmd, args)
	}

	var content *domain.ExtractedContent
	var err error
	switch {
	case format == domain.FormatRaw:
		content, err = contentService.ReadRaw(ctx, args[0], args[1])
	case readByTitle:
		content, err = contentService.Extract(ctx, args[0], domain.ByTitle(args[1]), format)
	default:
		content, err = contentService.Extract(ctx, args[0], domain.ByPath(args[1]), format)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[1], err)
	}

	out := cmd.OutOrStdout()
	if content.IsRedirect {
		fmt.Fprintf(out, "%s redirects to %s\n", content.EntryPath, content.RedirectTarget)
		return nil
	}
	fmt.Fprintln(out, content.Content)
	return nil
}

// printOutline prints a summary of the whole entry, never the truncated
// content.
func printOutline(cmd *cobra.Command, args []string) error {
	ref := domain.ByPath(args[1])
	if readByTitle {
		ref = domain.ByTitle(args[1])
	}
	outline, err := contentService.Outline(cmd.Context(), args[0], ref, readSummary)
	if err != nil {
		return fmt.Errorf("summarising %s: %w", args[1], err)
	}

	out := cmd.OutOrStdout()
	if outline.IsRedirect {
		fmt.Fprintf(out, "%s redirects to %s\n", outline.EntryPath, outline.RedirectTarget)
		return nil
	}
	fmt.Fprintln(out, outline.Summary)
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}

	hits, err := searchService.Browse(cmd.Context(), args[0], browsePath, browseTitle, browseLimit)
	if err != nil {
		return fmt.Errorf("browsing %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No matching entries sampled.")
		return nil
	}
	for _, hit := range hits {
		fmt.Fprintf(out, "%s\t%s\n", hit.EntryPath, hit.Title)
	}
	return nil
}
