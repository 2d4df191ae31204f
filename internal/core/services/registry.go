package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/mobilemutex/zim-mcp/internal/cache"
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
	"github.com/mobilemutex/zim-mcp/internal/logger"
	"github.com/mobilemutex/zim-mcp/internal/metrics"
)

// Ensure ArchiveRegistry implements the interface.
var _ driving.ArchiveService = (*ArchiveRegistry)(nil)

// ReleaseFunc is called after a handle has left the registry and been
// closed. It runs while the handle is still locked, so it must not call
// back into the registry.
type ReleaseFunc func(path string, archive driven.Archive)

// handle serialises access to one open archive. A handle that has been
// released stays closed; callers holding a stale pointer retry.
type handle struct {
	mu      sync.Mutex
	path    string
	archive driven.Archive
	closed  bool
}

// ArchiveRegistry maps archive filenames to sandboxed paths, keeps a
// bounded set of open handles and caches archive descriptors.
type ArchiveRegistry struct {
	root    string
	opener  driven.ArchiveOpener
	handles *cache.BoundedCache[string, *handle]

	descMu      sync.RWMutex
	descriptors map[string]*domain.ArchiveDescriptor

	discoverMu sync.Mutex
	discovered []domain.ArchiveDescriptor
	hasListing bool

	releaseMu sync.RWMutex
	onRelease []ReleaseFunc
}

// NewArchiveRegistry creates a registry rooted at root that keeps at most
// capacity archive handles open.
func NewArchiveRegistry(root string, capacity int, opener driven.ArchiveOpener) (*ArchiveRegistry, error) {
	if opener == nil {
		return nil, fmt.Errorf("%w: archive opener is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: archive directory is required", domain.ErrInvalidInput)
	}

	canonical, err := canonicalRoot(root)
	if err != nil {
		return nil, err
	}

	r := &ArchiveRegistry{
		root:        canonical,
		opener:      opener,
		descriptors: make(map[string]*domain.ArchiveDescriptor),
	}

	handles, err := cache.New[string, *handle](capacity,
		cache.WithReleaseHook(r.release),
		cache.WithObserver[string, *handle](metrics.NewCacheObserver(metrics.CacheArchives)),
	)
	if err != nil {
		return nil, fmt.Errorf("archive cache: %w", err)
	}
	r.handles = handles
	return r, nil
}

// canonicalRoot returns the absolute, symlink-free form of root. A root
// that does not exist yet is only made absolute.
func canonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve archive directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

// Root returns the canonical archive directory.
func (r *ArchiveRegistry) Root() string {
	return r.root
}

// OnRelease registers fn to run whenever a handle is evicted or cleared.
func (r *ArchiveRegistry) OnRelease(fn ReleaseFunc) {
	r.releaseMu.Lock()
	defer r.releaseMu.Unlock()
	r.onRelease = append(r.onRelease, fn)
}

// release closes a handle leaving the cache. It waits for any in-flight
// use of the handle to finish first.
func (r *ArchiveRegistry) release(path string, h *handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if err := h.archive.Close(); err != nil {
		logger.Warn("Closing archive %s: %v", path, err)
	} else {
		logger.Debug("Closed archive handle %s", path)
	}

	r.releaseMu.RLock()
	defer r.releaseMu.RUnlock()
	for _, fn := range r.onRelease {
		fn(path, h.archive)
	}
}

// ResolvePath joins name to the archive directory when relative,
// canonicalises it and rejects any result outside the directory.
// It runs before any other filesystem access.
func (r *ArchiveRegistry) ResolvePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: archive name is required", domain.ErrInvalidInput)
	}

	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	p = filepath.Clean(p)

	// Resolve symlinks of existing paths so a link cannot leave the root.
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}

	rel, err := filepath.Rel(r.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscape, name)
	}
	return p, nil
}

// archiveID returns the registry key of a canonical path: its path
// relative to the root, with forward slashes.
func (r *ArchiveRegistry) archiveID(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// ArchiveID validates name and returns the identifier used in hits and
// descriptors: the path relative to the archive directory.
func (r *ArchiveRegistry) ArchiveID(name string) (string, error) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return "", err
	}
	return r.archiveID(path), nil
}

// acquire returns a locked, open handle for the archive at path.
// The caller must unlock it.
func (r *ArchiveRegistry) acquire(ctx context.Context, name, path string) (*handle, error) {
	// A handle released between lookup and lock is retried once with a
	// fresh open; a second release in that window is reported as an error.
	for attempt := 0; attempt < 2; attempt++ {
		h, err := r.lookup(ctx, name, path)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		if !h.closed {
			return h, nil
		}
		h.mu.Unlock()
	}
	return nil, fmt.Errorf("%w: %s: handle released during use", domain.ErrOpen, name)
}

// lookup returns the cached handle for path or opens a new one.
func (r *ArchiveRegistry) lookup(ctx context.Context, name, path string) (*handle, error) {
	if h, ok := r.handles.Get(path); ok {
		return h, nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: archive %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIO, name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidInput, name)
	}

	logger.Debug("Opening archive %s", path)
	archive, err := r.opener.Open(ctx, path)
	metrics.ArchiveOpened(err)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrOpen, name, err)
	}

	h := &handle{path: path, archive: archive}
	if existing, loaded := r.handles.PutIfAbsent(path, h); loaded {
		// Another caller opened the same archive first.
		if err := archive.Close(); err != nil {
			logger.Warn("Closing duplicate handle for %s: %v", path, err)
		}
		return existing, nil
	}
	return h, nil
}

// WithArchive runs fn with exclusive access to the open archive behind
// name. fn must not call back into the registry.
func (r *ArchiveRegistry) WithArchive(ctx context.Context, name string, fn func(driven.Archive) error) error {
	path, err := r.ResolvePath(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := r.acquire(ctx, name, path)
	if err != nil {
		return err
	}
	defer h.mu.Unlock()
	return fn(h.archive)
}

// Describe returns the descriptor of the named archive, building and
// caching it on first use. Descriptors are never evicted.
func (r *ArchiveRegistry) Describe(ctx context.Context, name string) (*domain.ArchiveDescriptor, error) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return nil, err
	}
	id := r.archiveID(path)

	r.descMu.RLock()
	desc, ok := r.descriptors[id]
	r.descMu.RUnlock()
	if ok {
		return desc, nil
	}

	desc, err = r.buildDescriptor(ctx, id, path)
	if err != nil {
		return nil, err
	}

	r.descMu.Lock()
	defer r.descMu.Unlock()
	if existing, ok := r.descriptors[id]; ok {
		return existing, nil
	}
	r.descriptors[id] = desc
	return desc, nil
}

func (r *ArchiveRegistry) buildDescriptor(ctx context.Context, id, path string) (*domain.ArchiveDescriptor, error) {
	desc := &domain.ArchiveDescriptor{
		Filename:     id,
		AbsolutePath: path,
		Metadata:     make(map[string]string),
	}

	err := r.WithArchive(ctx, id, func(a driven.Archive) error {
		desc.ArticleCount = a.ArticleCount()
		desc.MediaCount = a.MediaCount()
		desc.HasFulltextIndex = a.HasFulltextIndex()
		desc.HasTitleIndex = a.HasTitleIndex()
		desc.UUID = a.UUID()

		keys, err := a.MetadataKeys()
		if err != nil {
			return fmt.Errorf("%w: metadata keys: %w", domain.ErrIO, err)
		}
		for _, key := range keys {
			value, err := a.Metadata(key)
			if err != nil {
				logger.Debug("Skipping metadata %s of %s: %v", key, id, err)
				continue
			}
			desc.Metadata[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIO, id, err)
	}
	desc.SizeBytes = info.Size()
	desc.SizeFormatted = humanize.IBytes(uint64(info.Size()))

	desc.Title = desc.Metadata[domain.MetadataTitle]
	if desc.Title == "" {
		desc.Title = id
	}
	desc.Description = desc.Metadata[domain.MetadataDescription]
	desc.Language = desc.Metadata[domain.MetadataLanguage]
	desc.Creator = desc.Metadata[domain.MetadataCreator]
	desc.Date = desc.Metadata[domain.MetadataDate]
	return desc, nil
}

// IsDescribed reports whether a descriptor for name is cached.
func (r *ArchiveRegistry) IsDescribed(name string) bool {
	path, err := r.ResolvePath(name)
	if err != nil {
		return false
	}
	r.descMu.RLock()
	defer r.descMu.RUnlock()
	_, ok := r.descriptors[r.archiveID(path)]
	return ok
}

// Discover lists the archives directly under the archive directory,
// sorted by filename. The list is memoized until a forced refresh, an
// invalidation or ClearCaches. Files that fail to describe are skipped.
func (r *ArchiveRegistry) Discover(ctx context.Context, forceRefresh bool) ([]domain.ArchiveDescriptor, error) {
	r.discoverMu.Lock()
	defer r.discoverMu.Unlock()

	if r.hasListing && !forceRefresh {
		return cloneDescriptors(r.discovered), nil
	}

	logger.Section("Archive Discovery")
	defer logger.Timed("discover")()

	names, err := r.listArchiveFiles()
	if err != nil {
		return nil, err
	}

	found := make([]domain.ArchiveDescriptor, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		desc, err := r.Describe(ctx, name)
		if err != nil {
			logger.Warn("Skipping archive %s: %v", name, err)
			continue
		}
		found = append(found, *desc)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Filename < found[j].Filename })

	logger.Info("Discovered %d archive(s) in %s", len(found), r.root)
	r.discovered = found
	r.hasListing = true
	return cloneDescriptors(found), nil
}

// listArchiveFiles returns the archive file names directly under the root.
// A missing root yields an empty list.
func (r *ArchiveRegistry) listArchiveFiles() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Archive directory does not exist: %s", r.root)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrIO, r.root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !hasArchiveExtension(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func hasArchiveExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), domain.ArchiveExtension)
}

func cloneDescriptors(in []domain.ArchiveDescriptor) []domain.ArchiveDescriptor {
	out := make([]domain.ArchiveDescriptor, len(in))
	copy(out, in)
	return out
}

// DirectoryStats summarises the archive directory from the discovery list.
func (r *ArchiveRegistry) DirectoryStats(ctx context.Context) domain.DirectoryStats {
	stats := domain.DirectoryStats{Directory: r.root}
	if info, err := os.Stat(r.root); err != nil || !info.IsDir() {
		return stats
	}
	stats.Exists = true

	archives, err := r.Discover(ctx, false)
	if err != nil {
		logger.Warn("Directory stats: %v", err)
	}
	stats.FileCount = len(archives)
	for i := range archives {
		stats.TotalSizeBytes += archives[i].SizeBytes
	}
	stats.TotalSizeFormatted = humanize.IBytes(uint64(stats.TotalSizeBytes))
	return stats
}

// Validate reports whether name resolves inside the archive directory to
// an existing regular file with the archive extension that opens.
func (r *ArchiveRegistry) Validate(ctx context.Context, name string) bool {
	path, err := r.ResolvePath(name)
	if err != nil {
		logger.Debug("Validate %s: %v", name, err)
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || !hasArchiveExtension(path) {
		return false
	}
	if err := r.WithArchive(ctx, name, func(driven.Archive) error { return nil }); err != nil {
		logger.Debug("Validate %s: %v", name, err)
		return false
	}
	return true
}

// RandomEntry returns one pseudo-random entry of the named archive.
func (r *ArchiveRegistry) RandomEntry(ctx context.Context, name string) (*domain.SearchHit, error) {
	id, err := r.ArchiveID(name)
	if err != nil {
		return nil, err
	}

	var hit *domain.SearchHit
	err = r.WithArchive(ctx, id, func(a driven.Archive) error {
		entry, err := a.RandomEntry(ctx)
		if err != nil {
			return entryError(id, "random entry", err)
		}
		hit = &domain.SearchHit{
			ArchiveID:  id,
			EntryPath:  entry.Path(),
			Title:      entry.Title(),
			IsRedirect: entry.IsRedirect(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hit, nil
}

// entryError maps a capability lookup failure to the domain taxonomy.
func entryError(archive, what string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s in %s", domain.ErrNotFound, what, archive)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s in %s: %w", domain.ErrIO, what, archive, err)
}

// Invalidate drops the handle and descriptor of one archive and the
// discovery memo. It is called when the file changes on disk.
func (r *ArchiveRegistry) Invalidate(name string) {
	path, err := r.ResolvePath(name)
	if err != nil {
		return
	}
	r.handles.Remove(path)

	r.descMu.Lock()
	delete(r.descriptors, r.archiveID(path))
	r.descMu.Unlock()

	r.discoverMu.Lock()
	r.discovered = nil
	r.hasListing = false
	r.discoverMu.Unlock()

	logger.Debug("Invalidated archive %s", name)
}

// ClearCaches releases every open handle and clears the descriptor
// cache and the discovery memo.
func (r *ArchiveRegistry) ClearCaches() {
	r.handles.Clear()

	r.descMu.Lock()
	r.descriptors = make(map[string]*domain.ArchiveDescriptor)
	r.descMu.Unlock()

	r.discoverMu.Lock()
	r.discovered = nil
	r.hasListing = false
	r.discoverMu.Unlock()

	logger.Info("Archive caches cleared")
}

// CacheStats reports cache occupancy.
func (r *ArchiveRegistry) CacheStats() domain.RegistryStats {
	r.descMu.RLock()
	descriptors := len(r.descriptors)
	r.descMu.RUnlock()

	r.discoverMu.Lock()
	listed := r.hasListing
	r.discoverMu.Unlock()

	return domain.RegistryStats{
		HandleCacheSize:     r.handles.Len(),
		HandleCacheCapacity: r.handles.Capacity(),
		DescriptorCacheSize: descriptors,
		DiscoveryCached:     listed,
	}
}

// Close releases every open handle.
func (r *ArchiveRegistry) Close() error {
	r.handles.Clear()
	return nil
}
