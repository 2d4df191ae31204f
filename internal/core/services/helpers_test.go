package services

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/archive/memory"
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/normalisers/html"
)

// testEnv wires the services over the memory archive capability. Each
// fixture is backed by a real file so path checks run for real.
type testEnv struct {
	dir      string
	opener   *memory.Opener
	registry *ArchiveRegistry
	search   *SearchCoordinator
	content  *ContentExtractor
}

func newTestEnv(t *testing.T, settings domain.Settings, fixtures map[string]*memory.Fixture) *testEnv {
	t.Helper()

	dir := t.TempDir()
	opener := memory.NewOpener()
	for name, f := range fixtures {
		addArchiveFile(t, dir, name)
		opener.Register(name, f)
	}

	registry, err := NewArchiveRegistry(dir, settings.ArchiveCacheSize, opener)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	search, err := NewSearchCoordinator(registry, settings)
	require.NoError(t, err)

	content, err := NewContentExtractor(registry, html.New(), settings.MaxContentLength)
	require.NoError(t, err)

	return &testEnv{
		dir:      registry.Root(),
		opener:   opener,
		registry: registry,
		search:   search,
		content:  content,
	}
}

func addArchiveFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("ZIMFILE"), 0o600))
}

func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.ArchiveCacheSize = 4
	s.SearchCacheSize = 16
	s.MaxContentLength = 1000
	return s
}

func article(path, title, body string) memory.FixtureEntry {
	return memory.FixtureEntry{
		Path:    path,
		Title:   title,
		Content: []byte("<html><head><title>" + title + "</title></head><body><p>" + body + "</p></body></html>"),
	}
}

// wikiFixture has a main page, two articles and a redirect.
func wikiFixture() *memory.Fixture {
	return &memory.Fixture{
		UUID: "9a0c7a0e-6f1f-4d53-8d1c-5b0f2f6b1e21",
		Metadata: map[string]string{
			domain.MetadataTitle:    "Test Wiki",
			domain.MetadataLanguage: "eng",
			domain.MetadataCreator:  "Tests",
		},
		MainPath:   "A/Main_Page",
		Fulltext:   true,
		TitleIndex: true,
		MediaCount: 3,
		Entries: []memory.FixtureEntry{
			article("A/Main_Page", "Main Page", "Welcome."),
			article("A/Volcano", "Volcano", "A volcano is a rupture in the crust."),
			article("A/Mount_Etna", "Mount Etna", "Etna is an active volcano in Sicily."),
			{Path: "A/Volcanoes", Title: "Volcanoes", RedirectTo: "A/Volcano"},
		},
	}
}

// volcanoFixture returns n articles mentioning volcano with titles of
// equal length, so merged order is archive order then native order.
func volcanoFixture(prefix string, n int) *memory.Fixture {
	f := &memory.Fixture{Fulltext: true}
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s volcano %02d", prefix, i)
		f.Entries = append(f.Entries, article("A/"+title, title, "lava and ash from a volcano"))
	}
	return f
}
