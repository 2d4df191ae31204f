package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
)

const testUUID = "3f1e5a52-8c4d-4b8e-9a7c-1d2e3f405162"

func page(title, body string) []byte {
	return []byte("<html><head><title>" + title + "</title></head><body><p>" + body + "</p></body></html>")
}

// buildArchive writes a small wiki archive into a temp dir.
func buildArchive(t *testing.T, opts BuildOptions) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wiki.zim")

	b, err := NewBuilder(ctx, path, opts)
	require.NoError(t, err)

	require.NoError(t, b.SetMetadata(ctx, domain.MetadataTitle, "Test Wiki"))
	require.NoError(t, b.SetMetadata(ctx, domain.MetadataLanguage, "eng"))
	require.NoError(t, b.AddEntry(ctx, "A/Main_Page", "Main Page", "text/html", page("Main Page", "Welcome.")))
	require.NoError(t, b.AddEntry(ctx, "A/Volcano", "Volcano",
		"text/html", page("Volcano", strings.Repeat("A volcano erupts lava. ", 20))))
	require.NoError(t, b.AddEntry(ctx, "A/Mount_Etna", "Mount Etna",
		"text/html", page("Mount Etna", "Etna is an active volcano in Sicily.")))
	require.NoError(t, b.AddEntry(ctx, "I/logo.png", "logo.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	require.NoError(t, b.AddRedirect(ctx, "A/Volcanoes", "Volcanoes", "A/Volcano"))
	b.SetMainPath("A/Main_Page")
	require.NoError(t, b.Finish(ctx))
	return path
}

func openArchive(t *testing.T, path string) driven.Archive {
	t.Helper()
	a, err := NewOpener().Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArchive_HeaderAndCounts(t *testing.T) {
	path := buildArchive(t, BuildOptions{UUID: testUUID, Fulltext: true, TitleIndex: true})
	a := openArchive(t, path)

	assert.Equal(t, testUUID, a.UUID())
	assert.Equal(t, 3, a.ArticleCount())
	assert.Equal(t, 1, a.MediaCount())
	assert.True(t, a.HasFulltextIndex())
	assert.True(t, a.HasTitleIndex())

	keys, err := a.MetadataKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{domain.MetadataLanguage, domain.MetadataTitle}, keys)

	title, err := a.Metadata(domain.MetadataTitle)
	require.NoError(t, err)
	assert.Equal(t, "Test Wiki", title)

	_, err = a.Metadata("Missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArchive_WithoutIndexes(t *testing.T) {
	a := openArchive(t, buildArchive(t, BuildOptions{}))

	assert.False(t, a.HasFulltextIndex())
	assert.False(t, a.HasTitleIndex())
	_, err := a.Searcher()
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func TestArchive_Entries(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			a := openArchive(t, buildArchive(t, BuildOptions{Compression: c}))
			ctx := context.Background()

			e, err := a.EntryByPath(ctx, "A/Volcano")
			require.NoError(t, err)
			assert.Equal(t, "Volcano", e.Title())
			assert.Equal(t, "text/html", e.MIMEType())
			assert.False(t, e.IsRedirect())
			content, err := e.Content(ctx)
			require.NoError(t, err)
			assert.Equal(t, page("Volcano", strings.Repeat("A volcano erupts lava. ", 20)), content)

			e, err = a.EntryByTitle(ctx, "Mount Etna")
			require.NoError(t, err)
			assert.Equal(t, "A/Mount_Etna", e.Path())

			e, err = a.EntryByPath(ctx, "A/Volcanoes")
			require.NoError(t, err)
			assert.True(t, e.IsRedirect())
			assert.Equal(t, "A/Volcano", e.RedirectTarget())
			content, err = e.Content(ctx)
			require.NoError(t, err)
			assert.Nil(t, content)

			e, err = a.MainEntry(ctx)
			require.NoError(t, err)
			assert.Equal(t, "A/Main_Page", e.Path())

			_, err = a.EntryByPath(ctx, "A/Nope")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = a.EntryByTitle(ctx, "Nope")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestArchive_RandomEntryReturnsArticles(t *testing.T) {
	a := openArchive(t, buildArchive(t, BuildOptions{}))
	ctx := context.Background()

	articles := map[string]bool{"A/Main_Page": true, "A/Volcano": true, "A/Mount_Etna": true}
	for i := 0; i < 30; i++ {
		e, err := a.RandomEntry(ctx)
		require.NoError(t, err)
		assert.True(t, articles[e.Path()], "unexpected random entry %s", e.Path())
	}
}

func TestArchive_EmptyArchive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "empty.zim")
	b, err := NewBuilder(ctx, path, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, b.Finish(ctx))

	a := openArchive(t, path)
	assert.Equal(t, 0, a.ArticleCount())
	assert.NotEmpty(t, a.UUID())

	_, err = a.RandomEntry(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = a.MainEntry(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearcher(t *testing.T) {
	a := openArchive(t, buildArchive(t, BuildOptions{Fulltext: true}))
	ctx := context.Background()

	s, err := a.Searcher()
	require.NoError(t, err)

	result, err := s.Search(ctx, "volcano", 0, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"A/Volcano", "A/Mount_Etna"}, result.Paths)
	assert.Equal(t, 2, result.Estimated)
	require.Len(t, result.Scores, 2)
	assert.Greater(t, result.Scores[0], result.Scores[1])

	result, err = s.Search(ctx, "volcano", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/Mount_Etna"}, result.Paths)

	result, err = s.Search(ctx, "etna sicily", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/Mount_Etna"}, result.Paths)

	n, err := s.EstimatedMatches(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearcher_QuotesQuerySyntax(t *testing.T) {
	a := openArchive(t, buildArchive(t, BuildOptions{Fulltext: true}))
	s, err := a.Searcher()
	require.NoError(t, err)

	for _, q := range []string{`volcano"`, "volcano AND OR", "title:*", "   "} {
		t.Run(q, func(t *testing.T) {
			_, err := s.Search(context.Background(), q, 0, 5)
			assert.NoError(t, err)
		})
	}
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, `"lava" "flow"`, matchExpression("  lava flow "))
	assert.Equal(t, `"say" """hi"""`, matchExpression(`say "hi"`))
	assert.Equal(t, "", matchExpression(" "))
}

func TestOpener_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := NewOpener().Open(ctx, filepath.Join(dir, "missing.zim"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.zim")
	require.NoError(t, os.WriteFile(garbage, []byte("not a database at all"), 0o600))
	_, err = NewOpener().Open(ctx, garbage)
	assert.Error(t, err)
}

func TestOpener_DoesNotModifyArchive(t *testing.T) {
	path := buildArchive(t, BuildOptions{Fulltext: true})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	a, err := NewOpener().Open(context.Background(), path)
	require.NoError(t, err)
	_, err = a.EntryByPath(context.Background(), "A/Volcano")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no journal or lock files are left behind")
}

func TestNewBuilder_Validation(t *testing.T) {
	ctx := context.Background()
	path := buildArchive(t, BuildOptions{})

	_, err := NewBuilder(ctx, path, BuildOptions{})
	assert.Error(t, err, "existing files are never overwritten")

	_, err = NewBuilder(ctx, filepath.Join(t.TempDir(), "x.zim"), BuildOptions{UUID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestBuilder_Abort(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aborted.zim")
	b, err := NewBuilder(ctx, path, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, b.AddEntry(ctx, "A/x", "x", "", []byte("x")))

	b.Abort()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestArchive_TextOnlyArticles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.zim")
	b, err := NewBuilder(ctx, path, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, b.AddEntry(ctx, "lava.md", "Lava", "text/markdown; charset=utf-8", []byte("# Lava\n\nMolten rock.")))
	require.NoError(t, b.AddEntry(ctx, "notes.txt", "notes", "text/plain", []byte("basalt notes")))
	require.NoError(t, b.AddEntry(ctx, "data.csv", "data", "text/csv", []byte("a,b")))
	require.NoError(t, b.AddRedirect(ctx, "rock.md", "Rock", "lava.md"))
	require.NoError(t, b.Finish(ctx))

	a := openArchive(t, path)
	assert.Equal(t, 2, a.ArticleCount())
	assert.Equal(t, 1, a.MediaCount())

	for i := 0; i < 20; i++ {
		e, err := a.RandomEntry(ctx)
		require.NoError(t, err)
		assert.Contains(t, []string{"lava.md", "notes.txt"}, e.Path())
	}
}

func TestEntry_ContentWithCorruptSize(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			path := buildArchive(t, BuildOptions{Compression: c})

			db, err := sql.Open("sqlite", path)
			require.NoError(t, err)
			_, err = db.Exec("UPDATE entries SET size = -1 WHERE path = 'A/Volcano'")
			require.NoError(t, err)
			require.NoError(t, db.Close())

			a := openArchive(t, path)
			e, err := a.EntryByPath(context.Background(), "A/Volcano")
			require.NoError(t, err)

			assert.NotPanics(t, func() {
				_, err = e.Content(context.Background())
			})
			assert.Error(t, err)
		})
	}
}
