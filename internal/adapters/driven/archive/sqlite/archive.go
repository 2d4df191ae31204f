package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// Ensure the types implement the interfaces.
var (
	_ driven.ArchiveOpener = (*Opener)(nil)
	_ driven.Archive       = (*Archive)(nil)
	_ driven.Entry         = (*Entry)(nil)
)

// Object names probed to detect optional indexes.
const (
	fulltextTable = "entries_fts"
	titleIndex    = "entries_title_idx"
)

// articleMIME matches entries whose MIME type is an article type, with or
// without parameters.
var articleMIME = articleMIMEExpr()

// articleFilter selects articles.
var articleFilter = "redirect_to IS NULL AND " + articleMIME

func articleMIMEExpr() string {
	terms := make([]string, 0, 2*len(domain.ArticleMIMETypes()))
	for _, t := range domain.ArticleMIMETypes() {
		terms = append(terms, "mime = '"+t+"'", "mime LIKE '"+t+";%'")
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// Opener opens SQLite archive files read-only.
type Opener struct{}

// NewOpener creates an opener.
func NewOpener() *Opener {
	return &Opener{}
}

// readOnlyDSN returns a URI opening path read-only and immutable, so no
// journal or lock files are created next to the archive.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro&immutable=1"}
	return u.String()
}

// Open opens the archive at path and loads its header and counts.
func (o *Opener) Open(ctx context.Context, path string) (driven.Archive, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &Archive{db: db, path: path}
	if err := a.load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	return a, nil
}

// Archive is an open SQLite archive.
type Archive struct {
	db   *sql.DB
	path string

	uuid         string
	mainPath     string
	articleCount int
	mediaCount   int
	minID, maxID int64
	hasFulltext  bool
	hasTitleIdx  bool
}

func (a *Archive) load(ctx context.Context) error {
	var mainPath sql.NullString
	row := a.db.QueryRowContext(ctx, "SELECT uuid, main_path FROM header WHERE id = 1")
	if err := row.Scan(&a.uuid, &mainPath); err != nil {
		return fmt.Errorf("scanning header: %w", err)
	}
	a.mainPath = mainPath.String

	row = a.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN `+articleFilter+` THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN redirect_to IS NULL AND NOT `+articleMIME+` THEN 1 ELSE 0 END), 0),
			COALESCE(MIN(id), 0),
			COALESCE(MAX(id), 0)
		FROM entries
	`)
	if err := row.Scan(&a.articleCount, &a.mediaCount, &a.minID, &a.maxID); err != nil {
		return fmt.Errorf("counting entries: %w", err)
	}

	var err error
	if a.hasFulltext, err = a.hasObject(ctx, "table", fulltextTable); err != nil {
		return err
	}
	if a.hasTitleIdx, err = a.hasObject(ctx, "index", titleIndex); err != nil {
		return err
	}
	return nil
}

func (a *Archive) hasObject(ctx context.Context, kind, name string) (bool, error) {
	var n int
	row := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("probing %s %s: %w", kind, name, err)
	}
	return n > 0, nil
}

// ArticleCount returns the number of front articles.
func (a *Archive) ArticleCount() int { return a.articleCount }

// MediaCount returns the number of non-redirect entries that are not
// articles.
func (a *Archive) MediaCount() int { return a.mediaCount }

// UUID returns the archive identifier.
func (a *Archive) UUID() string { return a.uuid }

// HasFulltextIndex reports whether the archive carries an FTS5 table.
func (a *Archive) HasFulltextIndex() bool { return a.hasFulltext }

// HasTitleIndex reports whether entries are indexed by title.
func (a *Archive) HasTitleIndex() bool { return a.hasTitleIdx }

// MetadataKeys returns the metadata keys in sorted order.
func (a *Archive) MetadataKeys() ([]string, error) {
	rows, err := a.db.Query("SELECT key FROM metadata ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning metadata key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metadata: %w", err)
	}
	return keys, nil
}

// Metadata returns one metadata value.
func (a *Archive) Metadata(key string) (string, error) {
	var value string
	if err := a.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("scanning metadata %s: %w", key, err)
	}
	return value, nil
}

const entryColumns = "id, path, title, mime, redirect_to, compression, size"

func (a *Archive) scanEntry(row *sql.Row) (*Entry, error) {
	e := &Entry{archive: a}
	var redirect sql.NullString
	if err := row.Scan(&e.id, &e.path, &e.title, &e.mime, &redirect, &e.compression, &e.size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning entry: %w", err)
	}
	e.redirectTo = redirect.String
	e.isRedirect = redirect.Valid
	return e, nil
}

// EntryByPath returns the entry at path.
func (a *Archive) EntryByPath(ctx context.Context, path string) (driven.Entry, error) {
	return a.scanEntry(a.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE path = ?", path))
}

// EntryByTitle returns the first entry with title.
func (a *Archive) EntryByTitle(ctx context.Context, title string) (driven.Entry, error) {
	return a.scanEntry(a.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE title = ? ORDER BY id LIMIT 1", title))
}

// MainEntry returns the entry named by the header main path.
func (a *Archive) MainEntry(ctx context.Context) (driven.Entry, error) {
	if a.mainPath == "" {
		return nil, domain.ErrNotFound
	}
	return a.EntryByPath(ctx, a.mainPath)
}

// RandomEntry picks a random row id and returns the first article at or
// after it, wrapping around to the start.
func (a *Archive) RandomEntry(ctx context.Context) (driven.Entry, error) {
	if a.articleCount == 0 {
		return nil, domain.ErrNotFound
	}
	pick := a.minID + rand.Int64N(a.maxID-a.minID+1)

	e, err := a.scanEntry(a.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE id >= ? AND "+articleFilter+" ORDER BY id LIMIT 1", pick))
	if errors.Is(err, domain.ErrNotFound) {
		return a.scanEntry(a.db.QueryRowContext(ctx,
			"SELECT "+entryColumns+" FROM entries WHERE "+articleFilter+" ORDER BY id LIMIT 1"))
	}
	return e, err
}

// Searcher returns an FTS5 searcher.
func (a *Archive) Searcher() (driven.Searcher, error) {
	if !a.hasFulltext {
		return nil, domain.ErrSearchUnavailable
	}
	return &Searcher{db: a.db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Entry is one row of the entries table. Content is read on demand.
type Entry struct {
	archive     *Archive
	id          int64
	path        string
	title       string
	mime        string
	redirectTo  string
	isRedirect  bool
	compression Compression
	size        int
}

// Path returns the entry path.
func (e *Entry) Path() string { return e.path }

// Title returns the entry title, the path when untitled.
func (e *Entry) Title() string {
	if e.title == "" {
		return e.path
	}
	return e.title
}

// IsRedirect reports whether the entry is a redirect.
func (e *Entry) IsRedirect() bool { return e.isRedirect }

// RedirectTarget returns the redirect path.
func (e *Entry) RedirectTarget() string { return e.redirectTo }

// MIMEType returns the declared content type.
func (e *Entry) MIMEType() string { return e.mime }

// Content reads and decompresses the entry blob.
func (e *Entry) Content(ctx context.Context) ([]byte, error) {
	if e.isRedirect {
		return nil, nil
	}
	var blob []byte
	if err := e.archive.db.QueryRowContext(ctx, "SELECT content FROM entries WHERE id = ?", e.id).Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading content of %s: %w", e.path, err)
	}
	data, err := decompress(blob, e.compression, e.size)
	if err != nil {
		return nil, fmt.Errorf("decoding content of %s: %w", e.path, err)
	}
	return data, nil
}
