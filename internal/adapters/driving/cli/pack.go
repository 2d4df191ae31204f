package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/archive/sqlite"
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/normalisers"
)

var (
	packCompression string
	packNoFulltext  bool
	packNoTitles    bool
	packUUID        string
	packTitle       string
	packLanguage    string
)

var packCmd = &cobra.Command{
	Use:   "pack [source dir] [archive]",
	Short: "Build an archive from a directory",
	Long: `Packs every file under a directory into a new archive file. Entry paths
are the slash-separated paths relative to the directory. Markup, Markdown
and plain text files are indexed by their text, and index.html becomes the
main page.

Examples:
  zim-mcp pack ./site ./zim_files/site.zim
  zim-mcp pack ./site ./site.zim --compression lz4 --title "My Site"`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationSkipServices: "true"},
	RunE:        runPack,
}

func init() {
	packCmd.Flags().StringVar(&packCompression, "compression", "zstd", "entry compression: none, lz4 or zstd")
	packCmd.Flags().BoolVar(&packNoFulltext, "no-fulltext", false, "skip the full-text index")
	packCmd.Flags().BoolVar(&packNoTitles, "no-title-index", false, "skip the title index")
	packCmd.Flags().StringVar(&packUUID, "uuid", "", "archive UUID (random when empty)")
	packCmd.Flags().StringVar(&packTitle, "title", "", "archive title metadata")
	packCmd.Flags().StringVar(&packLanguage, "language", "", "archive language metadata")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	compression, err := sqlite.ParseCompression(packCompression)
	if err != nil {
		return err
	}

	metadata := map[string]string{}
	if packTitle != "" {
		metadata[domain.MetadataTitle] = packTitle
	}
	if packLanguage != "" {
		metadata[domain.MetadataLanguage] = packLanguage
	}

	started := time.Now()
	stats, err := sqlite.Pack(cmd.Context(), args[0], args[1], sqlite.PackOptions{
		BuildOptions: sqlite.BuildOptions{
			UUID:        packUUID,
			Compression: compression,
			Fulltext:    !packNoFulltext,
			TitleIndex:  !packNoTitles,
		},
		Normalisers: normalisers.Default(),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("packing %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Packed %s entries (%s articles, %s) into %s in %s\n",
		humanize.Comma(int64(stats.Entries)),
		humanize.Comma(int64(stats.Articles)),
		humanize.Bytes(uint64(stats.Bytes)),
		args[1],
		time.Since(started).Round(time.Millisecond))
	return nil
}
