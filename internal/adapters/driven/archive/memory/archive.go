// Package memory provides an in-memory archive-reading capability.
//
// Fixtures are registered by file name and every Open returns a fresh
// handle over the shared fixture data. The opener counts opens, closes and
// searches so callers can assert caching behaviour. RandomEntry walks the
// articles round-robin, which keeps sampling deterministic.
package memory

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

// Ensure the types implement the interfaces.
var (
	_ driven.ArchiveOpener = (*Opener)(nil)
	_ driven.Archive       = (*Archive)(nil)
	_ driven.Entry         = (*Entry)(nil)
	_ driven.Searcher      = (*Searcher)(nil)
)

// ErrClosed is returned when a closed handle is used.
var ErrClosed = errors.New("archive handle closed")

// FixtureEntry describes one entry of a fixture archive.
type FixtureEntry struct {
	Path    string
	Title   string
	MIME    string
	Content []byte

	// RedirectTo makes the entry a redirect to the given path.
	RedirectTo string
}

// Fixture describes the content of one archive file.
type Fixture struct {
	UUID       string
	Metadata   map[string]string
	Entries    []FixtureEntry
	MainPath   string
	MediaCount int

	// Fulltext enables the searcher; TitleIndex is reported only.
	Fulltext   bool
	TitleIndex bool

	// SearchErr is returned by every search when set.
	SearchErr error

	// GhostPaths are appended to every search result but resolve to no
	// entry, like a stale index.
	GhostPaths []string
}

type fixtureState struct {
	fixture  *Fixture
	openErr  error
	opens    atomic.Int64
	closes   atomic.Int64
	searches atomic.Int64
	cursor   atomic.Int64
}

// Opener is an in-memory driven.ArchiveOpener.
type Opener struct {
	mu       sync.RWMutex
	fixtures map[string]*fixtureState
}

// NewOpener creates an empty opener.
func NewOpener() *Opener {
	return &Opener{fixtures: make(map[string]*fixtureState)}
}

// Register adds or replaces the fixture served for filename.
func (o *Opener) Register(filename string, f *Fixture) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fixtures[filename] = &fixtureState{fixture: f}
}

// FailOpen makes every Open of filename fail with err.
func (o *Opener) FailOpen(filename string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.fixtures[filename]
	if !ok {
		st = &fixtureState{}
		o.fixtures[filename] = st
	}
	st.openErr = err
}

func (o *Opener) state(filename string) *fixtureState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.fixtures[filename]
}

// Open returns a new handle over the fixture registered for the base
// name of path.
func (o *Opener) Open(ctx context.Context, path string) (driven.Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := o.state(filepath.Base(path))
	if st == nil {
		return nil, domain.ErrNotFound
	}
	st.opens.Add(1)
	if st.openErr != nil {
		return nil, st.openErr
	}
	return &Archive{state: st}, nil
}

// Opens returns how many times filename was opened.
func (o *Opener) Opens(filename string) int {
	if st := o.state(filename); st != nil {
		return int(st.opens.Load())
	}
	return 0
}

// Closes returns how many handles of filename were closed.
func (o *Opener) Closes(filename string) int {
	if st := o.state(filename); st != nil {
		return int(st.closes.Load())
	}
	return 0
}

// Searches returns how many searches ran against filename.
func (o *Opener) Searches(filename string) int {
	if st := o.state(filename); st != nil {
		return int(st.searches.Load())
	}
	return 0
}

// Archive is an open handle over a fixture.
type Archive struct {
	state  *fixtureState
	closed atomic.Bool
}

func (a *Archive) fixture() *Fixture {
	return a.state.fixture
}

// Closed reports whether Close was called.
func (a *Archive) Closed() bool {
	return a.closed.Load()
}

// ArticleCount returns the number of non-redirect entries with an article
// MIME type. Entries without a MIME type count as markup.
func (a *Archive) ArticleCount() int {
	n := 0
	for i := range a.fixture().Entries {
		if isArticle(&a.fixture().Entries[i]) {
			n++
		}
	}
	return n
}

func isArticle(e *FixtureEntry) bool {
	return e.RedirectTo == "" && (e.MIME == "" || domain.IsArticleMIMEType(e.MIME))
}

// MediaCount returns the fixture media count.
func (a *Archive) MediaCount() int {
	return a.fixture().MediaCount
}

// UUID returns the fixture UUID.
func (a *Archive) UUID() string {
	return a.fixture().UUID
}

// MetadataKeys returns the metadata keys in sorted order.
func (a *Archive) MetadataKeys() ([]string, error) {
	if a.Closed() {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(a.fixture().Metadata))
	for k := range a.fixture().Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Metadata returns one metadata value.
func (a *Archive) Metadata(key string) (string, error) {
	if a.Closed() {
		return "", ErrClosed
	}
	v, ok := a.fixture().Metadata[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

// EntryByPath returns the entry at path.
func (a *Archive) EntryByPath(ctx context.Context, path string) (driven.Entry, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	for i := range a.fixture().Entries {
		if a.fixture().Entries[i].Path == path {
			return &Entry{data: &a.fixture().Entries[i]}, nil
		}
	}
	return nil, domain.ErrNotFound
}

// EntryByTitle returns the first entry with title.
func (a *Archive) EntryByTitle(ctx context.Context, title string) (driven.Entry, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	for i := range a.fixture().Entries {
		if a.fixture().Entries[i].Title == title {
			return &Entry{data: &a.fixture().Entries[i]}, nil
		}
	}
	return nil, domain.ErrNotFound
}

// MainEntry returns the entry at the fixture main path.
func (a *Archive) MainEntry(ctx context.Context) (driven.Entry, error) {
	if a.fixture().MainPath == "" {
		return nil, domain.ErrNotFound
	}
	return a.EntryByPath(ctx, a.fixture().MainPath)
}

// RandomEntry returns the next article in round-robin order.
func (a *Archive) RandomEntry(ctx context.Context) (driven.Entry, error) {
	if err := a.check(ctx); err != nil {
		return nil, err
	}
	entries := a.fixture().Entries
	if len(entries) == 0 {
		return nil, domain.ErrNotFound
	}
	for range entries {
		i := int(a.state.cursor.Add(1)-1) % len(entries)
		if isArticle(&entries[i]) {
			return &Entry{data: &entries[i]}, nil
		}
	}
	return nil, domain.ErrNotFound
}

// HasFulltextIndex reports whether the fixture is searchable.
func (a *Archive) HasFulltextIndex() bool {
	return a.fixture().Fulltext
}

// HasTitleIndex reports the fixture title index flag.
func (a *Archive) HasTitleIndex() bool {
	return a.fixture().TitleIndex
}

// Searcher returns a substring searcher over the fixture.
func (a *Archive) Searcher() (driven.Searcher, error) {
	if a.Closed() {
		return nil, ErrClosed
	}
	if !a.fixture().Fulltext {
		return nil, domain.ErrSearchUnavailable
	}
	return &Searcher{archive: a}, nil
}

// Close marks the handle closed.
func (a *Archive) Close() error {
	if a.closed.Swap(true) {
		return ErrClosed
	}
	a.state.closes.Add(1)
	return nil
}

func (a *Archive) check(ctx context.Context) error {
	if a.Closed() {
		return ErrClosed
	}
	return ctx.Err()
}

// Entry is one fixture entry.
type Entry struct {
	data *FixtureEntry
}

// Path returns the entry path.
func (e *Entry) Path() string { return e.data.Path }

// Title returns the entry title.
func (e *Entry) Title() string { return e.data.Title }

// IsRedirect reports whether the entry is a redirect.
func (e *Entry) IsRedirect() bool { return e.data.RedirectTo != "" }

// RedirectTarget returns the redirect path.
func (e *Entry) RedirectTarget() string { return e.data.RedirectTo }

// MIMEType returns the entry MIME type, text/html when unset.
func (e *Entry) MIMEType() string {
	if e.data.MIME == "" {
		return "text/html"
	}
	return e.data.MIME
}

// Content returns a copy of the entry bytes.
func (e *Entry) Content(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.IsRedirect() {
		return nil, nil
	}
	out := make([]byte, len(e.data.Content))
	copy(out, e.data.Content)
	return out, nil
}

// Searcher matches query terms case-insensitively against titles and
// content. Hits keep fixture order; the score is the number of term
// occurrences.
type Searcher struct {
	archive *Archive
}

// Search returns up to limit matches starting at offset.
func (s *Searcher) Search(ctx context.Context, query string, offset, limit int) (*driven.SearchResult, error) {
	paths, scores, err := s.match(ctx, query)
	if err != nil {
		return nil, err
	}
	result := &driven.SearchResult{Estimated: len(paths)}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(paths) || limit <= 0 {
		return result, nil
	}
	end := min(offset+limit, len(paths))
	result.Paths = paths[offset:end]
	result.Scores = scores[offset:end]
	return result, nil
}

// EstimatedMatches returns the number of matching entries.
func (s *Searcher) EstimatedMatches(ctx context.Context, query string) (int, error) {
	paths, _, err := s.match(ctx, query)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

func (s *Searcher) match(ctx context.Context, query string) ([]string, []float64, error) {
	if err := s.archive.check(ctx); err != nil {
		return nil, nil, err
	}
	st := s.archive.state
	st.searches.Add(1)
	if st.fixture.SearchErr != nil {
		return nil, nil, st.fixture.SearchErr
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil, nil
	}

	var paths []string
	var scores []float64
	for _, e := range st.fixture.Entries {
		if e.RedirectTo != "" {
			continue
		}
		haystack := strings.ToLower(e.Title + " " + string(e.Content))
		score := 0
		for _, term := range terms {
			score += strings.Count(haystack, term)
		}
		if score > 0 {
			paths = append(paths, e.Path)
			scores = append(scores, float64(score))
		}
	}
	for _, ghost := range st.fixture.GhostPaths {
		paths = append(paths, ghost)
		scores = append(scores, 0)
	}
	return paths, scores, nil
}
