package results

import (
	"errors"
	"testing"
	"time"
)

// TestInMemoryRunCache_SetGet verifies cached runs are returned as copies
func TestInMemoryRunCache_SetGet(t *testing.T) {
	cache := NewInMemoryRunCache(DefaultCacheConfig())

	if _, ok := cache.Get("run"); ok {
		t.Fatal("Get() on empty cache should miss")
	}

	cache.Set("run", []*Result{{ID: "a", RunID: "run"}})
	got, ok := cache.Get("run")
	if !ok || len(got) != 1 {
		t.Fatalf("Get() = %v, %v; want one cached result", got, ok)
	}

	got[0].ID = "changed"
	again, _ := cache.Get("run")
	if again[0].ID != "a" {
		t.Error("Cached result mutated through returned pointer")
	}
}

// TestInMemoryRunCache_TTL verifies entries expire after the TTL
func TestInMemoryRunCache_TTL(t *testing.T) {
	cache := NewInMemoryRunCache(CacheConfig{TTL: time.Minute})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("run", []*Result{{ID: "a"}})
	if _, ok := cache.Get("run"); !ok {
		t.Fatal("Get() should hit before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("run"); ok {
		t.Error("Get() should miss after TTL")
	}
}

// TestInMemoryRunCache_Invalidate verifies a run can be dropped
func TestInMemoryRunCache_Invalidate(t *testing.T) {
	cache := NewInMemoryRunCache(DefaultCacheConfig())
	cache.Set("run", []*Result{{ID: "a"}})
	cache.Invalidate("run")

	if _, ok := cache.Get("run"); ok {
		t.Error("Get() should miss after Invalidate")
	}
}

// countingStore counts ListByRun calls reaching the backing store
type countingStore struct {
	*InMemoryStore
	lists int
}

func (s *countingStore) ListByRun(runID string) ([]*Result, error) {
	s.lists++
	return s.InMemoryStore.ListByRun(runID)
}

// TestCachedStore verifies listing is cached and invalidated by Add and Delete
func TestCachedStore(t *testing.T) {
	backing := &countingStore{InMemoryStore: NewInMemoryStore()}
	store := NewCachedStore(backing, NewInMemoryRunCache(DefaultCacheConfig()))

	if err := store.Add(&Result{ID: "a", RunID: "run"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	store.ListByRun("run")
	store.ListByRun("run")
	if backing.lists != 1 {
		t.Errorf("Backing ListByRun called %d times, want 1", backing.lists)
	}

	store.Add(&Result{ID: "b", RunID: "run"})
	list, _ := store.ListByRun("run")
	if len(list) != 2 {
		t.Errorf("ListByRun() after Add returned %d results, want 2", len(list))
	}
	if backing.lists != 2 {
		t.Errorf("Add should invalidate the run, backing calls = %d", backing.lists)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	list, _ = store.ListByRun("run")
	if len(list) != 1 || list[0].ID != "b" {
		t.Errorf("ListByRun() after Delete = %v, want only b", list)
	}

	if err := store.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() missing error = %v, want ErrNotFound", err)
	}
}
