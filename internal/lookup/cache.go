package lookup

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/freezethaw-cli/internal/model"
	"github.com/sells-group/freezethaw-cli/internal/monitoring"
)

// Source provides season tables. *dataset.Loader and *TableCache implement it.
type Source interface {
	Seasons() ([]string, error)
	Load(ctx context.Context, season string) *model.SeasonTable
}

// CacheOption configures a TableCache.
type CacheOption func(*TableCache)

// WithClock sets the clock used for TTL checks.
func WithClock(clock clockwork.Clock) CacheOption {
	return func(c *TableCache) {
		c.clock = clock
	}
}

// WithCacheMetrics records hits, misses and loads.
func WithCacheMetrics(m *monitoring.Metrics) CacheOption {
	return func(c *TableCache) {
		c.metrics = m
	}
}

// TableCache keeps loaded season tables in memory for a TTL. Concurrent misses
// for the same season share one load. Empty tables are not cached, so a season
// file added or fixed on disk is picked up on the next request.
// Cached tables are shared between callers and must not be modified.
type TableCache struct {
	source  Source
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *monitoring.Metrics
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	table    *model.SeasonTable
	loadedAt time.Time
}

// NewTableCache wraps source with a TTL cache. A ttl <= 0 disables caching.
func NewTableCache(source Source, ttl time.Duration, opts ...CacheOption) *TableCache {
	c := &TableCache{
		source:  source,
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		entries: make(map[string]cacheEntry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Seasons lists the available seasons. The listing is not cached.
func (c *TableCache) Seasons() ([]string, error) {
	return c.source.Seasons()
}

// Load returns the cached table for season, loading it on a miss.
// An empty season resolves to the most recent season first so it shares
// the cache entry with its explicit name.
func (c *TableCache) Load(ctx context.Context, season string) *model.SeasonTable {
	if season == "" {
		seasons, err := c.source.Seasons()
		if err != nil || len(seasons) == 0 {
			// Let the source report why there is nothing to load.
			return c.source.Load(ctx, "")
		}
		season = seasons[len(seasons)-1]
	}

	if tbl, ok := c.get(season); ok {
		c.metrics.ObserveCache(true)
		return tbl
	}
	c.metrics.ObserveCache(false)

	// The flight is shared by every caller waiting on this season, so one
	// caller's cancellation must not turn the result into an empty table.
	loadCtx := context.WithoutCancel(ctx)
	v, _, shared := c.group.Do(season, func() (any, error) {
		tbl := c.source.Load(loadCtx, season)
		c.metrics.ObserveLoad(season, tbl.Len())
		if !tbl.Empty() {
			c.put(season, tbl)
		}
		return tbl, nil
	})
	if shared {
		zap.L().Debug("season load shared", zap.String("season", season))
	}
	return v.(*model.SeasonTable)
}

// Invalidate drops the cached table for season.
func (c *TableCache) Invalidate(season string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, season)
}

// Purge drops every cached table.
func (c *TableCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached tables, expired or not.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TableCache) get(season string) (*model.SeasonTable, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[season]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.clock.Since(entry.loadedAt) > c.ttl {
		c.Invalidate(season)
		return nil, false
	}
	return entry.table, true
}

func (c *TableCache) put(season string, tbl *model.SeasonTable) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[season] = cacheEntry{table: tbl, loadedAt: c.clock.Now()}
}
