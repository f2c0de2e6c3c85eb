package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abfolio/abfolio/internal/contract"
	"github.com/abfolio/abfolio/schema"
	"golang.org/x/sync/errgroup"
)

// Resolver tuning constants.
const (
	// MetricCacheTTL is how long a resolved metric stays fresh.
	MetricCacheTTL = 10 * time.Minute

	// metricFetchChunkSize bounds how many catalog requests are in flight at
	// once. A chunk fully resolves before the next one starts; this is a
	// throttle, not a worker pool.
	metricFetchChunkSize = 10

	// metricCacheVersion tags durable cache entries so a format change can
	// invalidate old rows.
	metricCacheVersion = 1
)

type metricCacheEntry struct {
	info      schema.MetricInfo
	fetchedAt time.Time
}

// MetricCache is a process-wide TTL cache for metric metadata. Entries are
// never explicitly evicted; staleness is self-healing via the TTL check on the
// next lookup. The clock is injectable so tests can control time, and an
// optional durable store lets metadata survive across processes.
type MetricCache struct {
	mu      sync.Mutex
	entries map[string]metricCacheEntry
	now     func() time.Time
	store   contract.CacheStore
}

// NewMetricCache creates an empty metric cache using the wall clock.
func NewMetricCache() *MetricCache {
	return &MetricCache{
		entries: make(map[string]metricCacheEntry),
		now:     time.Now,
	}
}

// WithClock overrides the cache clock. Intended for tests.
func (c *MetricCache) WithClock(now func() time.Time) *MetricCache {
	c.now = now
	return c
}

// WithStore attaches a durable read-through/write-through store.
func (c *MetricCache) WithStore(store contract.CacheStore) *MetricCache {
	c.store = store
	return c
}

// Reset drops all in-memory entries. The durable store is left untouched.
func (c *MetricCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]metricCacheEntry)
}

// get returns the cached info for an ID when it is still fresh. On an
// in-memory miss it consults the durable store before giving up.
func (c *MetricCache) get(id string) (schema.MetricInfo, bool) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	now := c.now()
	c.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) < MetricCacheTTL {
		return entry.info, true
	}
	if c.store == nil {
		return schema.MetricInfo{}, false
	}

	value, version, ts, err := c.store.Get(id)
	if err != nil || version != metricCacheVersion {
		return schema.MetricInfo{}, false
	}
	fetchedAt := time.Unix(ts, 0)
	if now.Sub(fetchedAt) >= MetricCacheTTL {
		return schema.MetricInfo{}, false
	}
	var info schema.MetricInfo
	if err := json.Unmarshal(value, &info); err != nil {
		return schema.MetricInfo{}, false
	}

	c.mu.Lock()
	c.entries[id] = metricCacheEntry{info: info, fetchedAt: fetchedAt}
	c.mu.Unlock()
	return info, true
}

// put stores a freshly resolved metric in memory and, when configured, in the
// durable store.
func (c *MetricCache) put(info schema.MetricInfo) {
	now := c.now()
	c.mu.Lock()
	c.entries[info.ID] = metricCacheEntry{info: info, fetchedAt: now}
	c.mu.Unlock()

	if c.store != nil {
		value, err := json.Marshal(info)
		if err == nil {
			if err := c.store.Set(info.ID, value, metricCacheVersion, now.Unix()); err != nil {
				contract.LogWarn("Metric cache write failed for "+info.ID, err)
			}
		}
	}
}

// MetricResolver resolves metric IDs to normalized metadata using a TTL cache
// and a concurrency-bounded batch fetcher across the platform's two metric
// catalogs.
type MetricResolver struct {
	catalog contract.MetricCatalog
	cache   *MetricCache
}

// NewMetricResolver creates a resolver over the given catalog and cache.
func NewMetricResolver(catalog contract.MetricCatalog, cache *MetricCache) *MetricResolver {
	return &MetricResolver{catalog: catalog, cache: cache}
}

// Resolve maps the requested metric IDs to their metadata. Individually
// failing fetches are logged and omitted; the result is partial rather than an
// error. An error is returned only when fetches were attempted and every
// single one failed, which indicates the catalog itself is down.
func (r *MetricResolver) Resolve(ctx context.Context, ids []string) (map[string]schema.MetricInfo, error) {
	resolved := make(map[string]schema.MetricInfo, len(ids))

	// Partition into fresh-cached, fact and regular IDs. The ID lists are
	// sorted so chunk composition is deterministic.
	var factIDs, regularIDs []string
	for _, id := range dedupeSorted(ids) {
		if info, ok := r.cache.get(id); ok {
			resolved[id] = info
			continue
		}
		if schema.IsFactMetricID(id) {
			factIDs = append(factIDs, id)
		} else {
			regularIDs = append(regularIDs, id)
		}
	}

	// Nothing stale: serve entirely from cache without touching the network.
	if len(factIDs) == 0 && len(regularIDs) == 0 {
		return resolved, nil
	}

	regularInfos := r.fetchChunked(ctx, regularIDs, r.catalog.GetMetric)
	factInfos := r.fetchChunked(ctx, factIDs, r.catalog.GetFactMetric)

	fetched := 0
	for _, info := range regularInfos {
		if info == nil {
			continue
		}
		r.cache.put(*info)
		resolved[info.ID] = *info
		fetched++
	}
	for _, info := range factInfos {
		if info == nil {
			continue
		}
		// Fact metrics are always non-inverse count metrics regardless of
		// what the catalog reports.
		normalized := schema.FactMetricInfo(info.ID, info.Name)
		r.cache.put(normalized)
		resolved[normalized.ID] = normalized
		fetched++
	}

	if fetched == 0 && len(resolved) == 0 {
		return nil, fmt.Errorf("metric resolution failed for all %d requested metrics", len(factIDs)+len(regularIDs))
	}
	return resolved, nil
}

// fetchChunked fetches the given IDs in consecutive chunks of at most
// metricFetchChunkSize concurrent requests. Each chunk fully resolves before
// the next one starts. Failed IDs are logged and left nil in the result.
func (r *MetricResolver) fetchChunked(
	ctx context.Context,
	ids []string,
	fetch func(context.Context, string) (schema.MetricInfo, error),
) []*schema.MetricInfo {
	results := make([]*schema.MetricInfo, len(ids))
	for start := 0; start < len(ids); start += metricFetchChunkSize {
		end := min(start+metricFetchChunkSize, len(ids))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				info, err := fetch(gctx, ids[i])
				if err != nil {
					contract.LogWarn("Metric fetch failed for "+ids[i], err)
					return nil // partial results are acceptable
				}
				results[i] = &info
				return nil
			})
		}
		_ = g.Wait() // goroutines never return errors
	}
	return results
}

// dedupeSorted returns the sorted unique values of ids.
func dedupeSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
