package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/mobilemutex/zim-mcp/internal/cache"
	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driven"
	"github.com/mobilemutex/zim-mcp/internal/core/ports/driving"
	"github.com/mobilemutex/zim-mcp/internal/logger"
	"github.com/mobilemutex/zim-mcp/internal/metrics"
)

// Ensure SearchCoordinator implements the interface.
var _ driving.SearchService = (*SearchCoordinator)(nil)

// browseBudgetFactor bounds Browse to this many random draws per
// requested result.
const browseBudgetFactor = 5

// SearchCoordinator runs full-text queries against one or more archives
// and merges the results into deterministic pages.
type SearchCoordinator struct {
	registry      *ArchiveRegistry
	results       *cache.BoundedCache[string, []domain.SearchHit]
	parallel      bool
	maxConcurrent int

	// searchers are bound to one open handle and dropped when the
	// registry releases it.
	searcherMu sync.Mutex
	searchers  map[driven.Archive]driven.Searcher
}

// NewSearchCoordinator creates a coordinator over registry. The result
// cache capacity, fan-out mode and concurrency bound come from settings.
func NewSearchCoordinator(registry *ArchiveRegistry, settings domain.Settings) (*SearchCoordinator, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: archive registry is required", domain.ErrInvalidInput)
	}

	results, err := cache.New[string, []domain.SearchHit](settings.SearchCacheSize,
		cache.WithObserver[string, []domain.SearchHit](metrics.NewCacheObserver(metrics.CacheSearch)),
	)
	if err != nil {
		return nil, fmt.Errorf("search cache: %w", err)
	}

	s := &SearchCoordinator{
		registry:      registry,
		results:       results,
		parallel:      settings.ParallelSearch,
		maxConcurrent: max(1, settings.MaxConcurrentSearches),
		searchers:     make(map[driven.Archive]driven.Searcher),
	}
	registry.OnRelease(func(_ string, a driven.Archive) {
		s.dropSearcher(a)
	})
	return s, nil
}

// ValidateQuery trims query and rejects empty or overlong queries.
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.ErrEmptyQuery
	}
	if utf8.RuneCountInString(query) > domain.MaxQueryLength {
		return "", domain.ErrQueryTooLong
	}
	return query, nil
}

func validatePage(limit, offset int) error {
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", domain.ErrInvalidInput, limit)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative, got %d", domain.ErrInvalidInput, offset)
	}
	return nil
}

// searcher returns the cached searcher for a, creating it on first use.
// The caller holds the archive handle.
func (s *SearchCoordinator) searcher(a driven.Archive) (driven.Searcher, error) {
	s.searcherMu.Lock()
	defer s.searcherMu.Unlock()

	if sr, ok := s.searchers[a]; ok {
		return sr, nil
	}
	sr, err := a.Searcher()
	if err != nil {
		return nil, err
	}
	s.searchers[a] = sr
	return sr, nil
}

func (s *SearchCoordinator) dropSearcher(a driven.Archive) {
	s.searcherMu.Lock()
	defer s.searcherMu.Unlock()
	delete(s.searchers, a)
}

// SearchOne returns up to limit hits from one archive starting at offset,
// in the capability's native order. An archive without a full-text index
// yields no hits. Paths that no longer resolve are skipped.
func (s *SearchCoordinator) SearchOne(
	ctx context.Context, archive, query string, limit, offset int,
) ([]domain.SearchHit, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}
	id, err := s.registry.ArchiveID(archive)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.SearchHit{}, nil
	}

	defer metrics.ObserveSearch("one", time.Now())

	hits := []domain.SearchHit{}
	err = s.registry.WithArchive(ctx, id, func(a driven.Archive) error {
		if !a.HasFulltextIndex() {
			logger.Debug("Archive %s has no full-text index", id)
			return nil
		}
		sr, err := s.searcher(a)
		if errors.Is(err, domain.ErrSearchUnavailable) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: searcher for %s: %w", domain.ErrIO, id, err)
		}

		result, err := sr.Search(ctx, query, offset, limit)
		if err != nil {
			return entryError(id, "search", err)
		}

		for i, path := range result.Paths {
			if len(hits) == limit {
				break
			}
			entry, err := a.EntryByPath(ctx, path)
			if err != nil {
				logger.Warn("Skipping search result %s in %s: %v", path, id, err)
				continue
			}
			hits = append(hits, domain.SearchHit{
				ArchiveID:  id,
				EntryPath:  entry.Path(),
				Title:      entry.Title(),
				Score:      result.ScoreAt(i),
				IsRedirect: entry.IsRedirect(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Search %q in %s: %d hit(s)", query, id, len(hits))
	return hits, nil
}

// SearchMany searches the named archives and returns the page
// [offset, offset+limit) of the merged result list.
//
// Each archive contributes its first offset+limit hits. Merged hits are
// ordered by ascending title length, ties keeping archive order and then
// native order. Title length is a cheap stand-in for relevance: archives
// do not share a score scale. The returned page is cached under the
// sorted archive list, the query and the page parameters.
func (s *SearchCoordinator) SearchMany(
	ctx context.Context, archives []string, query string, limit, offset int,
) ([]domain.SearchHit, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}

	ids, err := s.archiveIDs(archives)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 || limit == 0 {
		return []domain.SearchHit{}, nil
	}

	key := resultKey(ids, query, limit, offset)
	if page, ok := s.results.Get(key); ok {
		logger.Debug("Search cache hit for %q", key)
		return cloneHits(page), nil
	}

	logger.Section("Search Execution")
	defer logger.Timed("search_many")()
	defer metrics.ObserveSearch("many", time.Now())

	buckets, err := s.fanOut(ctx, ids, query, offset+limit)
	if err != nil {
		return nil, err
	}

	var merged []domain.SearchHit
	for _, bucket := range buckets {
		merged = append(merged, bucket...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return utf8.RuneCountInString(merged[i].Title) < utf8.RuneCountInString(merged[j].Title)
	})

	page := []domain.SearchHit{}
	if offset < len(merged) {
		page = append(page, merged[offset:min(offset+limit, len(merged))]...)
	}

	s.results.Put(key, page)
	logger.Debug("Search %q across %d archive(s): %d merged, %d returned", query, len(ids), len(merged), len(page))
	return cloneHits(page), nil
}

// fanOut runs SearchOne for every archive and returns the hits indexed by
// archive position. Failing archives contribute nothing; only context
// errors abort the call.
func (s *SearchCoordinator) fanOut(ctx context.Context, ids []string, query string, window int) ([][]domain.SearchHit, error) {
	buckets := make([][]domain.SearchHit, len(ids))

	searchAt := func(ctx context.Context, i int) error {
		hits, err := s.SearchOne(ctx, ids[i], query, window, 0)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Warn("Search in %s failed: %v", ids[i], err)
			return nil
		}
		buckets[i] = hits
		return nil
	}

	if !s.parallel || len(ids) == 1 {
		for i := range ids {
			if err := searchAt(ctx, i); err != nil {
				return nil, err
			}
		}
		return buckets, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i := range ids {
		g.Go(func() error {
			return searchAt(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buckets, nil
}

// archiveIDs validates every archive name before any handle is touched
// and drops duplicates, keeping the first occurrence.
func (s *SearchCoordinator) archiveIDs(archives []string) ([]string, error) {
	ids := make([]string, 0, len(archives))
	seen := make(map[string]bool, len(archives))
	for _, name := range archives {
		id, err := s.registry.ArchiveID(name)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func resultKey(ids []string, query string, limit, offset int) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + "|" + query + "|" + strconv.Itoa(limit) + "|" + strconv.Itoa(offset)
}

func cloneHits(hits []domain.SearchHit) []domain.SearchHit {
	out := make([]domain.SearchHit, len(hits))
	copy(out, hits)
	return out
}

// SearchAll searches every discovered archive that has a full-text index.
func (s *SearchCoordinator) SearchAll(ctx context.Context, query string, limit, offset int) ([]domain.SearchHit, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	if err := validatePage(limit, offset); err != nil {
		return nil, err
	}

	archives, err := s.registry.Discover(ctx, false)
	if err != nil {
		return nil, err
	}

	var searchable []string
	for i := range archives {
		if archives[i].HasFulltextIndex {
			searchable = append(searchable, archives[i].Filename)
		}
	}
	if len(searchable) == 0 {
		logger.Debug("No searchable archives")
		return []domain.SearchHit{}, nil
	}
	return s.SearchMany(ctx, searchable, query, limit, offset)
}

// EstimatedMatches returns the capability's estimate of matches for query
// in archive, or 0 when the archive cannot be searched.
func (s *SearchCoordinator) EstimatedMatches(ctx context.Context, archive, query string) (int, error) {
	query, err := ValidateQuery(query)
	if err != nil {
		return 0, err
	}
	id, err := s.registry.ArchiveID(archive)
	if err != nil {
		return 0, err
	}

	count := 0
	err = s.registry.WithArchive(ctx, id, func(a driven.Archive) error {
		if !a.HasFulltextIndex() {
			return nil
		}
		sr, err := s.searcher(a)
		if err != nil {
			return nil
		}
		count, err = sr.EstimatedMatches(ctx, query)
		if err != nil {
			return entryError(id, "estimate", err)
		}
		return nil
	})
	return count, err
}

// Browse samples random entries of archive and keeps those whose path and
// title contain the given substrings, case-insensitively. Empty patterns
// match everything. It stops after limit matches or 5*limit draws, so it
// is neither exhaustive nor deterministic.
func (s *SearchCoordinator) Browse(
	ctx context.Context, archive, pathPattern, titlePattern string, limit int,
) ([]domain.SearchHit, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", domain.ErrInvalidInput, limit)
	}
	id, err := s.registry.ArchiveID(archive)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.SearchHit{}, nil
	}

	pathPattern = strings.ToLower(strings.TrimSpace(pathPattern))
	titlePattern = strings.ToLower(strings.TrimSpace(titlePattern))

	hits := []domain.SearchHit{}
	err = s.registry.WithArchive(ctx, id, func(a driven.Archive) error {
		seen := make(map[string]bool)
		for attempt := 0; attempt < browseBudgetFactor*limit && len(hits) < limit; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := a.RandomEntry(ctx)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				logger.Debug("Random entry in %s: %v", id, err)
				continue
			}
			if seen[entry.Path()] {
				continue
			}
			seen[entry.Path()] = true

			if pathPattern != "" && !strings.Contains(strings.ToLower(entry.Path()), pathPattern) {
				continue
			}
			if titlePattern != "" && !strings.Contains(strings.ToLower(entry.Title()), titlePattern) {
				continue
			}
			hits = append(hits, domain.SearchHit{
				ArchiveID:  id,
				EntryPath:  entry.Path(),
				Title:      entry.Title(),
				IsRedirect: entry.IsRedirect(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// ClearCaches drops cached results and searchers.
func (s *SearchCoordinator) ClearCaches() {
	s.results.Clear()

	s.searcherMu.Lock()
	s.searchers = make(map[driven.Archive]driven.Searcher)
	s.searcherMu.Unlock()

	logger.Info("Search caches cleared")
}

// CacheStats reports cache occupancy.
func (s *SearchCoordinator) CacheStats() domain.SearchStats {
	s.searcherMu.Lock()
	searchers := len(s.searchers)
	s.searcherMu.Unlock()

	return domain.SearchStats{
		ResultCacheSize:     s.results.Len(),
		ResultCacheCapacity: s.results.Capacity(),
		SearcherCacheSize:   searchers,
	}
}
