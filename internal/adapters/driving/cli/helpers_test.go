package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobilemutex/zim-mcp/internal/adapters/driven/archive/memory"
	configmemory "github.com/mobilemutex/zim-mcp/internal/adapters/driven/config/memory"
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

func testFixtures() map[string]*memory.Fixture {
	return map[string]*memory.Fixture{
		"wiki.zim": {
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
		},
		"plain.zim": {
			Entries: []memory.FixtureEntry{page("A/Lava", "Lava", "Molten rock.")},
		},
	}
}

// testEnv holds what a test needs to inspect after running commands.
type testEnv struct {
	dir    string
	config *configmemory.ConfigStore
}

// setupTestServices injects services over the memory archive capability
// and restores the globals when the test ends.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()
	return setupTestServicesWith(t, testFixtures())
}

func setupTestServicesWith(t *testing.T, fixtures map[string]*memory.Fixture) *testEnv {
	t.Helper()

	dir := t.TempDir()
	opener := memory.NewOpener()
	for name, f := range fixtures {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("ZIMFILE"), 0o600))
		opener.Register(name, f)
	}

	settings := domain.DefaultSettings()
	settings.ArchiveDirectory = dir
	settings.ArchiveCacheSize = 4
	settings.SearchCacheSize = 16
	settings.MaxSearchResults = 10

	registry, err := services.NewArchiveRegistry(dir, settings.ArchiveCacheSize, opener)
	require.NoError(t, err)
	search, err := services.NewSearchCoordinator(registry, settings)
	require.NoError(t, err)
	content, err := services.NewContentExtractor(registry, html.New(), settings.MaxContentLength)
	require.NoError(t, err)
	store := configmemory.NewConfigStore(nil)

	origSettings := appSettings
	origSettingsService := settingsService
	origArchive := archiveService
	origSearch := searchService
	origContent := contentService
	origInvalidator := invalidator

	appSettings = &settings
	settingsService = services.NewSettingsService(store).WithEnv(nil)
	archiveService = registry
	searchService = search
	contentService = content
	invalidator = cacheInvalidator{registry: registry, search: search}

	t.Cleanup(func() {
		_ = registry.Close()
		appSettings = origSettings
		settingsService = origSettingsService
		archiveService = origArchive
		searchService = origSearch
		contentService = origContent
		invalidator = origInvalidator
	})

	return &testEnv{dir: dir, config: store}
}

// executeCommand runs the root command with args and returns stdout and
// stderr. Flag variables are reset afterwards.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags()
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags() {
	configPath, archiveDir, verbose = "", "", false
	listRefresh, listJSON, infoJSON, randomCount = false, false, false, 5
	readFormat, readByTitle, readSummary = "", false, 0
	browsePath, browseTitle, browseLimit = "", "", 50
	searchArchives, searchLimit, searchOffset, searchJSON = nil, 10, 0, false
	packCompression, packNoFulltext, packNoTitles = "zstd", false, false
	packUUID, packTitle, packLanguage = "", "", ""
}
