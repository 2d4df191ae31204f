package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/archive/memory"
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/services"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/html"
)

const guideHTML = `<html><head><title>Etna guide</title></head><body>` +
	`<h2 id="history">History</h2><p>Etna erupted often. It is tall! Visit soon?</p>` +
	`<a href="A/Volcano">Volcano</a></body></html>`

func page(path, title, body string) memory.FixtureEntry {
	return memory.FixtureEntry{
		Path:    path,
		Title:   title,
		Content: []byte("<html><head><title>" + title + "</title></head><body><p>" + body + "</p></body></html>"),
	}
}

func wikiFixture() *memory.Fixture {
	return &memory.Fixture{
		UUID: "3f1d2c4b-8a9e-4f60-9b1a-2e7c5d6f8a01",
		Metadata: map[string]string{
			domain.MetadataTitle:    "Test Wiki",
			domain.MetadataLanguage: "eng",
		},
		MainPath: "A/Main_Page",
		Fulltext: true,
		Entries: []memory.FixtureEntry{
			page("A/Main_Page", "Main Page", "Welcome."),
			page("A/Volcano", "Volcano", "A volcano is a rupture in the crust."),
			page("A/Mount_Etna", "Mount Etna", "Etna is an active volcano in Sicily."),
			{Path: "A/Volcanoes", Title: "Volcanoes", RedirectTo: "A/Volcano"},
			{Path: "A/Etna_Guide", Title: "Etna guide", Content: []byte(guideHTML)},
		},
	}
}

func plainFixture() *memory.Fixture {
	return &memory.Fixture{
		Entries: []memory.FixtureEntry{page("A/Lava", "Lava", "Molten rock.")},
	}
}

func testSettings(dir string) domain.Settings {
	s := domain.DefaultSettings()
	s.ArchiveDirectory = dir
	s.ArchiveCacheSize = 4
	s.SearchCacheSize = 16
	s.MaxSearchResults = 10
	return s
}

// newTestServer serves wiki.zim and plain.zim through the real services
// over the memory archive capability.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, map[string]*memory.Fixture{
		"wiki.zim":  wikiFixture(),
		"plain.zim": plainFixture(),
	})
}

func newTestServerWith(t *testing.T, fixtures map[string]*memory.Fixture) *Server {
	t.Helper()

	dir := t.TempDir()
	opener := memory.NewOpener()
	for name, f := range fixtures {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("ZIMFILE"), 0o600))
		opener.Register(name, f)
	}
	settings := testSettings(dir)

	registry, err := services.NewArchiveRegistry(dir, settings.ArchiveCacheSize, opener)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	search, err := services.NewSearchCoordinator(registry, settings)
	require.NoError(t, err)

	content, err := services.NewContentExtractor(registry, html.New(), settings.MaxContentLength)
	require.NoError(t, err)

	server, err := NewServer(&Ports{
		Archives: registry,
		Search:   search,
		Content:  content,
		Settings: settings,
	})
	require.NoError(t, err)
	return server
}
