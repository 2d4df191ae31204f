package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
)

func testFixture() *Fixture {
	return &Fixture{
		UUID:     "0b1c5a3e-3c4f-4a55-9f11-2f3a0c1d9e77",
		Metadata: map[string]string{"Title": "Test Wiki", "Language": "eng"},
		MainPath: "A/Main",
		Fulltext: true,
		Entries: []FixtureEntry{
			{Path: "A/Main", Title: "Main", Content: []byte("<p>Welcome to the wiki</p>")},
			{Path: "A/Go", Title: "Go", Content: []byte("<p>Go is a language. Go go go.</p>")},
			{Path: "A/Golang", Title: "Golang", RedirectTo: "A/Go"},
			{Path: "A/Python", Title: "Python", Content: []byte("<p>Python is a language.</p>")},
		},
	}
}

func TestOpener_OpenCountsAndFreshHandles(t *testing.T) {
	o := NewOpener()
	o.Register("wiki.zim", testFixture())
	ctx := context.Background()

	a1, err := o.Open(ctx, "/data/wiki.zim")
	require.NoError(t, err)
	a2, err := o.Open(ctx, "/other/wiki.zim")
	require.NoError(t, err)

	assert.Equal(t, 2, o.Opens("wiki.zim"))
	require.NoError(t, a1.Close())
	assert.True(t, a1.(*Archive).Closed())
	assert.False(t, a2.(*Archive).Closed())
	assert.ErrorIs(t, a1.Close(), ErrClosed)
	assert.Equal(t, 1, o.Closes("wiki.zim"))
}

func TestOpener_UnknownAndFailing(t *testing.T) {
	o := NewOpener()
	_, err := o.Open(context.Background(), "missing.zim")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	boom := errors.New("corrupt header")
	o.FailOpen("bad.zim", boom)
	_, err = o.Open(context.Background(), "bad.zim")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, o.Opens("bad.zim"))
}

func TestArchive_Entries(t *testing.T) {
	o := NewOpener()
	o.Register("wiki.zim", testFixture())
	ctx := context.Background()
	a, err := o.Open(ctx, "wiki.zim")
	require.NoError(t, err)

	assert.Equal(t, 3, a.ArticleCount())

	main, err := a.MainEntry(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Main", main.Title())

	redirect, err := a.EntryByTitle(ctx, "Golang")
	require.NoError(t, err)
	assert.True(t, redirect.IsRedirect())
	assert.Equal(t, "A/Go", redirect.RedirectTarget())

	_, err = a.EntryByPath(ctx, "A/Nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	keys, err := a.MetadataKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"Language", "Title"}, keys)
}

func TestArchive_RandomEntrySkipsRedirects(t *testing.T) {
	o := NewOpener()
	o.Register("wiki.zim", testFixture())
	ctx := context.Background()
	a, err := o.Open(ctx, "wiki.zim")
	require.NoError(t, err)

	var paths []string
	for i := 0; i < 4; i++ {
		e, err := a.RandomEntry(ctx)
		require.NoError(t, err)
		paths = append(paths, e.Path())
	}
	assert.Equal(t, []string{"A/Main", "A/Go", "A/Python", "A/Main"}, paths)
}

func TestArchive_ArticlesFollowMIMEType(t *testing.T) {
	o := NewOpener()
	o.Register("mixed.zim", &Fixture{
		Entries: []FixtureEntry{
			{Path: "I/logo.png", Title: "logo", MIME: "image/png", Content: []byte{0x89}},
			{Path: "lava.md", Title: "Lava", MIME: "text/markdown", Content: []byte("# Lava")},
			{Path: "s/style.css", Title: "style", MIME: "text/css", Content: []byte("p{}")},
			{Path: "notes.txt", Title: "notes", MIME: "text/plain; charset=utf-8", Content: []byte("notes")},
		},
	})
	ctx := context.Background()
	a, err := o.Open(ctx, "mixed.zim")
	require.NoError(t, err)

	assert.Equal(t, 2, a.ArticleCount())
	for i := 0; i < 4; i++ {
		e, err := a.RandomEntry(ctx)
		require.NoError(t, err)
		assert.Contains(t, []string{"lava.md", "notes.txt"}, e.Path())
	}
}

func TestSearcher_SearchPagesAndScores(t *testing.T) {
	o := NewOpener()
	o.Register("wiki.zim", testFixture())
	ctx := context.Background()
	a, err := o.Open(ctx, "wiki.zim")
	require.NoError(t, err)

	s, err := a.Searcher()
	require.NoError(t, err)

	res, err := s.Search(ctx, "language", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/Go", "A/Python"}, res.Paths)
	assert.Equal(t, 2, res.Estimated)

	res, err = s.Search(ctx, "language", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/Python"}, res.Paths)

	res, err = s.Search(ctx, "go", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/Go"}, res.Paths)
	assert.Greater(t, res.ScoreAt(0), 1.0)

	assert.Equal(t, 3, o.Searches("wiki.zim"))
}

func TestArchive_SearcherUnavailable(t *testing.T) {
	f := testFixture()
	f.Fulltext = false
	o := NewOpener()
	o.Register("wiki.zim", f)

	a, err := o.Open(context.Background(), "wiki.zim")
	require.NoError(t, err)
	_, err = a.Searcher()
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}
