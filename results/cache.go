package results

import (
	"sync"
	"time"
)

// RunCache caches the result list of each run.
// Implementations must be safe for concurrent use.
type RunCache interface {
	// Get returns the cached results of a run and whether they were present and fresh
	Get(runID string) ([]*Result, bool)

	// Set stores the results of a run
	Set(runID string, results []*Result)

	// Invalidate drops a run, forcing a reload on next Get
	Invalidate(runID string)
}

// CacheConfig controls cache expiry
type CacheConfig struct {
	// TTL is the lifetime of a cached run; 0 keeps entries until invalidated
	TTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}

type cacheEntry struct {
	results  []*Result
	cachedAt time.Time
}

// InMemoryRunCache is a map-backed RunCache
type InMemoryRunCache struct {
	entries map[string]cacheEntry
	config  CacheConfig
	now     func() time.Time
	mu      sync.RWMutex
}

func NewInMemoryRunCache(config CacheConfig) *InMemoryRunCache {
	return &InMemoryRunCache{
		entries: make(map[string]cacheEntry),
		config:  config,
		now:     time.Now,
	}
}

// Get returns copies so callers cannot mutate cached results
func (c *InMemoryRunCache) Get(runID string) ([]*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[runID]
	if !ok {
		return nil, false
	}
	if c.config.TTL > 0 && c.now().Sub(entry.cachedAt) > c.config.TTL {
		return nil, false
	}
	return cloneAll(entry.results), true
}

func (c *InMemoryRunCache) Set(runID string, results []*Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[runID] = cacheEntry{results: cloneAll(results), cachedAt: c.now()}
}

func (c *InMemoryRunCache) Invalidate(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, runID)
}

func cloneAll(results []*Result) []*Result {
	out := make([]*Result, len(results))
	for i, r := range results {
		out[i] = r.clone()
	}
	return out
}

// CachedStore serves ListByRun from a RunCache and invalidates a run
// whenever one of its results is added or deleted
type CachedStore struct {
	store Store
	cache RunCache
}

func NewCachedStore(store Store, cache RunCache) *CachedStore {
	return &CachedStore{store: store, cache: cache}
}

func (s *CachedStore) Add(result *Result) error {
	if err := s.store.Add(result); err != nil {
		return err
	}
	s.cache.Invalidate(result.RunID)
	return nil
}

func (s *CachedStore) Get(id string) (*Result, error) {
	return s.store.Get(id)
}

func (s *CachedStore) ListByRun(runID string) ([]*Result, error) {
	if cached, ok := s.cache.Get(runID); ok {
		return cached, nil
	}
	list, err := s.store.ListByRun(runID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(runID, list)
	return list, nil
}

func (s *CachedStore) Delete(id string) error {
	existing, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.cache.Invalidate(existing.RunID)
	return nil
}
