package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

//go:embed schema.sql
var schema string

// BuildOptions configures a Builder.
type BuildOptions struct {
	// UUID identifies the archive. A random one is generated when empty.
	UUID string

	// Compression is applied to entry blobs that shrink under it.
	Compression Compression

	// Fulltext creates the FTS5 index; TitleIndex indexes entry titles.
	Fulltext   bool
	TitleIndex bool

	// Text returns the indexable text of an entry. Defaults to the
	// content as a string.
	Text func(mime string, content []byte) string
}

// Builder writes a new archive file. Entries are added inside a single
// transaction that Finish commits.
type Builder struct {
	db       *sql.DB
	tx       *sql.Tx
	path     string
	opts     BuildOptions
	mainPath string
}

// NewBuilder creates the archive file at path, which must not exist.
func NewBuilder(ctx context.Context, path string, opts BuildOptions) (*Builder, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("archive %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	if opts.UUID == "" {
		opts.UUID = uuid.NewString()
	} else if _, err := uuid.Parse(opts.UUID); err != nil {
		return nil, fmt.Errorf("invalid archive uuid %q: %w", opts.UUID, err)
	}
	if opts.Text == nil {
		opts.Text = func(_ string, content []byte) string { return string(content) }
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps the transaction and DDL on one handle.
	db.SetMaxOpenConns(1)

	b := &Builder{db: db, path: path, opts: opts}
	if err := b.init(ctx); err != nil {
		b.Abort()
		return nil, err
	}
	return b, nil
}

func (b *Builder) init(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if b.opts.Fulltext {
		if _, err := b.db.ExecContext(ctx,
			"CREATE VIRTUAL TABLE "+fulltextTable+" USING fts5(path UNINDEXED, title, body)"); err != nil {
			return fmt.Errorf("creating full-text index: %w", err)
		}
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	b.tx = tx
	return nil
}

// Path returns the archive file path.
func (b *Builder) Path() string {
	return b.path
}

// UUID returns the archive identifier.
func (b *Builder) UUID() string {
	return b.opts.UUID
}

// SetMainPath names the main page entry.
func (b *Builder) SetMainPath(path string) {
	b.mainPath = path
}

// SetMetadata stores one metadata value, replacing any previous one.
func (b *Builder) SetMetadata(ctx context.Context, key, value string) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("saving metadata %s: %w", key, err)
	}
	return nil
}

// AddEntry stores a content entry and indexes it when the archive has a
// full-text index.
func (b *Builder) AddEntry(ctx context.Context, path, title, mime string, content []byte) error {
	if len(content) > MaxEntrySize {
		return fmt.Errorf("%w: entry %s is %d bytes, limit is %d", domain.ErrInvalidInput, path, len(content), MaxEntrySize)
	}
	blob, used, err := compress(content, b.opts.Compression)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	if mime == "" {
		mime = "text/html"
	}

	_, err = b.tx.ExecContext(ctx, `
		INSERT INTO entries (path, title, mime, compression, size, content)
		VALUES (?, ?, ?, ?, ?, ?)
	`, path, title, mime, int(used), len(content), blob)
	if err != nil {
		return fmt.Errorf("saving entry %s: %w", path, err)
	}

	if b.opts.Fulltext {
		_, err = b.tx.ExecContext(ctx,
			"INSERT INTO "+fulltextTable+" (path, title, body) VALUES (?, ?, ?)",
			path, title, b.opts.Text(mime, content))
		if err != nil {
			return fmt.Errorf("indexing entry %s: %w", path, err)
		}
	}
	return nil
}

// AddRedirect stores a redirect from path to target. Redirects are not
// indexed.
func (b *Builder) AddRedirect(ctx context.Context, path, title, target string) error {
	_, err := b.tx.ExecContext(ctx,
		"INSERT INTO entries (path, title, redirect_to) VALUES (?, ?, ?)", path, title, target)
	if err != nil {
		return fmt.Errorf("saving redirect %s: %w", path, err)
	}
	return nil
}

// Finish writes the header, builds the title index and closes the file.
func (b *Builder) Finish(ctx context.Context) error {
	_, err := b.tx.ExecContext(ctx,
		"INSERT INTO header (id, uuid, main_path) VALUES (1, ?, ?)", b.opts.UUID, nullString(b.mainPath))
	if err != nil {
		b.Abort()
		return fmt.Errorf("saving header: %w", err)
	}
	if b.opts.TitleIndex {
		if _, err := b.tx.ExecContext(ctx, "CREATE INDEX "+titleIndex+" ON entries(title)"); err != nil {
			b.Abort()
			return fmt.Errorf("creating title index: %w", err)
		}
	}
	if err := b.tx.Commit(); err != nil {
		b.Abort()
		return fmt.Errorf("committing transaction: %w", err)
	}
	b.tx = nil
	return b.db.Close()
}

// Abort discards the archive and removes the file.
func (b *Builder) Abort() {
	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
	}
	_ = b.db.Close()
	_ = os.Remove(b.path)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
