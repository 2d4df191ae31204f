package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// PackOptions configures Pack.
type PackOptions struct {
	BuildOptions

	// Normalisers extract titles and indexable text, chosen by MIME type.
	// Entries without a normaliser are titled by file name and indexed as
	// they are.
	Normalisers driven.NormaliserRegistry

	// Metadata overrides the generated metadata values.
	Metadata map[string]string
}

// PackStats summarises a Pack run.
type PackStats struct {
	Entries int

	// Articles counts entries whose MIME type is an article type.
	Articles int

	Bytes int64
}

// mainPages are the file names tried, in order, as the main page.
var mainPages = []string{"index.html", "index.htm", "main.html"}

// Pack writes every regular file under srcDir into a new archive at dst.
// Entry paths are slash-separated paths relative to srcDir; hidden files
// and directories are skipped.
func Pack(ctx context.Context, srcDir, dst string, opts PackOptions) (*PackStats, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, srcDir)
	}

	if opts.Normalisers != nil && opts.Text == nil {
		reg := opts.Normalisers
		opts.Text = func(mimeType string, content []byte) string {
			if n, ok := reg.For(mimeType); ok {
				return n.Text(string(content))
			}
			return string(content)
		}
	}

	absDst, err := filepath.Abs(dst)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dst, err)
	}

	b, err := NewBuilder(ctx, dst, opts.BuildOptions)
	if err != nil {
		return nil, err
	}

	stats := &PackStats{}
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != srcDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		// The archive being written may live inside srcDir.
		if abs, err := filepath.Abs(path); err == nil && strings.HasPrefix(abs, absDst) {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		entryPath := filepath.ToSlash(rel)

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		mimeType := mimeTypeOf(path)
		title := titleFromName(d.Name())
		if opts.Normalisers != nil {
			if n, ok := opts.Normalisers.For(mimeType); ok {
				if t, ok := n.Title(string(content)); ok && t != "" {
					title = t
				}
			}
		}

		if err := b.AddEntry(ctx, entryPath, title, mimeType, content); err != nil {
			return err
		}
		stats.Entries++
		stats.Bytes += int64(len(content))
		if domain.IsArticleMIMEType(mimeType) {
			stats.Articles++
		}
		return nil
	})
	if walkErr != nil {
		b.Abort()
		return nil, walkErr
	}

	for _, name := range mainPages {
		if _, err := os.Stat(filepath.Join(srcDir, name)); err == nil {
			b.SetMainPath(name)
			break
		}
	}

	metadata := map[string]string{
		domain.MetadataTitle:   filepath.Base(filepath.Clean(srcDir)),
		domain.MetadataCreator: "zim-mcp",
		domain.MetadataDate:    time.Now().UTC().Format("2006-01-02"),
	}
	for k, v := range opts.Metadata {
		metadata[k] = v
	}
	for k, v := range metadata {
		if err := b.SetMetadata(ctx, k, v); err != nil {
			b.Abort()
			return nil, err
		}
	}

	if err := b.Finish(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

// textTypes covers text extensions missing from the built-in MIME table.
var textTypes = map[string]string{
	".md":       "text/markdown; charset=utf-8",
	".markdown": "text/markdown; charset=utf-8",
	".txt":      "text/plain; charset=utf-8",
	".text":     "text/plain; charset=utf-8",
	".csv":      "text/csv; charset=utf-8",
	".tsv":      "text/tab-separated-values; charset=utf-8",
}

func mimeTypeOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := textTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// titleFromName turns a file name into a title: the extension is dropped
// and underscores become spaces.
func titleFromName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(name, "_", " ")
}

