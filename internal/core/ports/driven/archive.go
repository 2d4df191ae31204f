package driven

import (
	"context"
)

// ArchiveOpener opens archive files. Opening is moderately expensive
// (index loading), so callers cache the returned handles.
type ArchiveOpener interface {
	// Open opens the archive at path. The path has already been validated
	// and canonicalised by the caller.
	Open(ctx context.Context, path string) (Archive, error)
}

// Archive is an opened, read-only connection to one archive file.
// Implementations must tolerate concurrent reads; the owner serialises
// its lifetime and calls Close exactly once.
type Archive interface {
	// ArticleCount is the number of non-redirect entries whose MIME type
	// satisfies domain.IsArticleMIMEType.
	ArticleCount() int

	// MediaCount is the number of other non-redirect entries.
	MediaCount() int

	// UUID is the archive identifier.
	UUID() string

	// MetadataKeys lists the metadata keys stored in the archive.
	MetadataKeys() ([]string, error)

	// Metadata returns one metadata value. Returns domain.ErrNotFound
	// if the key does not exist.
	Metadata(key string) (string, error)

	// EntryByPath returns the entry at path or domain.ErrNotFound.
	EntryByPath(ctx context.Context, path string) (Entry, error)

	// EntryByTitle returns the entry with title or domain.ErrNotFound.
	EntryByTitle(ctx context.Context, title string) (Entry, error)

	// MainEntry returns the archive main page or domain.ErrNotFound.
	MainEntry(ctx context.Context) (Entry, error)

	// RandomEntry returns one pseudo-random article, as counted by
	// ArticleCount.
	// It is the only traversal primitive available.
	RandomEntry(ctx context.Context) (Entry, error)

	// HasFulltextIndex reports whether Searcher can be used.
	HasFulltextIndex() bool

	// HasTitleIndex reports whether the archive carries a title index.
	HasTitleIndex() bool

	// Searcher returns a full-text searcher bound to this archive.
	// Returns domain.ErrSearchUnavailable without a full-text index.
	Searcher() (Searcher, error)

	// Close releases the archive resources.
	Close() error
}

// Entry is one addressable unit inside an archive.
type Entry interface {
	// Path is the entry path inside the archive.
	Path() string

	// Title is the entry title.
	Title() string

	// IsRedirect reports whether the entry points to another entry.
	IsRedirect() bool

	// RedirectTarget is the path the redirect resolves to, empty when
	// the entry is not a redirect or the target is unknown.
	RedirectTarget() string

	// MIMEType is the declared content type.
	MIMEType() string

	// Content reads the entry bytes.
	Content(ctx context.Context) ([]byte, error)
}

// Searcher runs full-text queries against one archive.
type Searcher interface {
	// Search returns up to limit matching paths starting at offset, in
	// the capability's native order, plus an estimated total match count.
	Search(ctx context.Context, query string, offset, limit int) (*SearchResult, error)

	// EstimatedMatches returns the estimated number of matches for query.
	EstimatedMatches(ctx context.Context, query string) (int, error)
}

// SearchResult is the raw result of a Searcher query.
type SearchResult struct {
	// Paths are the matching entry paths in native order.
	Paths []string

	// Scores holds one score per path. It is nil when the capability
	// does not rank results.
	Scores []float64

	// Estimated is the estimated total number of matches.
	Estimated int
}

// ScoreAt returns the score for the i-th path, or 0 when unranked.
func (r *SearchResult) ScoreAt(i int) float64 {
	if r == nil || i < 0 || i >= len(r.Scores) {
		return 0
	}
	return r.Scores[i]
}
