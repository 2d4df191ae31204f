package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/normalisers"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestPack(t *testing.T) {
	src := filepath.Join(t.TempDir(), "volcanoes")
	writeFile(t, filepath.Join(src, "index.html"), `<html><head><title>Volcanoes</title></head><body>Start here.</body></html>`)
	writeFile(t, filepath.Join(src, "wiki", "etna.html"), `<html><body><h1>Etna</h1><p>Lava fields.</p></body></html>`)
	writeFile(t, filepath.Join(src, "notes.txt"), "plain lava notes")
	writeFile(t, filepath.Join(src, "wiki", "lava_flows.md"), "# Lava *flows*\n\nBasalt **cools** into [rock](rock.html).\n")
	writeFile(t, filepath.Join(src, ".git", "config"), "ignored")
	dst := filepath.Join(t.TempDir(), "volcanoes.zim")

	stats, err := Pack(context.Background(), src, dst, PackOptions{
		BuildOptions: BuildOptions{Fulltext: true, TitleIndex: true, Compression: CompressionZstd},
		Normalisers:  normalisers.Default(),
		Metadata:     map[string]string{domain.MetadataLanguage: "eng"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Entries)
	assert.Equal(t, 4, stats.Articles)

	a := openArchive(t, dst)
	ctx := context.Background()
	assert.Equal(t, stats.Articles, a.ArticleCount())
	assert.Equal(t, 0, a.MediaCount())

	main, err := a.MainEntry(ctx)
	require.NoError(t, err)
	assert.Equal(t, "index.html", main.Path())
	assert.Equal(t, "Volcanoes", main.Title())

	etna, err := a.EntryByPath(ctx, "wiki/etna.html")
	require.NoError(t, err)
	assert.Equal(t, "etna", etna.Title(), "untitled pages fall back to the file name")

	flows, err := a.EntryByPath(ctx, "wiki/lava_flows.md")
	require.NoError(t, err)
	assert.Equal(t, "Lava flows", flows.Title())
	assert.Equal(t, "text/markdown; charset=utf-8", flows.MIMEType())

	notes, err := a.EntryByPath(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes", notes.Title())

	_, err = a.EntryByPath(ctx, ".git/config")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	title, err := a.Metadata(domain.MetadataTitle)
	require.NoError(t, err)
	assert.Equal(t, "volcanoes", title)
	lang, err := a.Metadata(domain.MetadataLanguage)
	require.NoError(t, err)
	assert.Equal(t, "eng", lang)

	s, err := a.Searcher()
	require.NoError(t, err)
	result, err := s.Search(ctx, "lava", 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wiki/etna.html", "notes.txt", "wiki/lava_flows.md"}, result.Paths)

	result, err = s.Search(ctx, "basalt", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"wiki/lava_flows.md"}, result.Paths)

	result, err = s.Search(ctx, "cools", 0, 10)
	require.NoError(t, err)
	assert.Len(t, result.Paths, 1, "markdown is indexed as text")

	result, err = s.Search(ctx, "html", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Paths, "markup is indexed as text")
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "Mount Etna", titleFromName("Mount_Etna.html"))
	assert.Equal(t, "README", titleFromName("README"))
}

func TestMimeTypeOf(t *testing.T) {
	assert.Equal(t, "text/markdown; charset=utf-8", mimeTypeOf("a/B.MD"))
	assert.Equal(t, "text/plain; charset=utf-8", mimeTypeOf("notes.txt"))
	assert.Equal(t, "application/octet-stream", mimeTypeOf("blob.unknownext"))
}

func TestPack_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Pack(ctx, filepath.Join(dir, "missing"), filepath.Join(dir, "out.zim"), PackOptions{})
	assert.Error(t, err)

	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, "x")
	_, err = Pack(ctx, file, filepath.Join(dir, "out.zim"), PackOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPack_DestinationInsideSource(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.html"), "<p>a</p>")

	stats, err := Pack(context.Background(), src, filepath.Join(src, "self.zim"), PackOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}
