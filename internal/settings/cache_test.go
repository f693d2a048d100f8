package settings

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCacheReadWriteRoundTrip(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	cache.Write("demo.myshopify.com", "settings", json.RawMessage(`{"theme":"dark"}`), 0)

	value, ok := cache.Read("demo.myshopify.com", "settings")
	if !ok || string(value) != `{"theme":"dark"}` {
		t.Fatalf("expected cached value, got %q ok=%v", value, ok)
	}
}

func TestCacheExpiresEntries(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	current := time.Now()
	cache.now = func() time.Time { return current }

	cache.Write("demo.myshopify.com", "settings", json.RawMessage(`1`), time.Millisecond)

	current = current.Add(2 * time.Millisecond)
	if _, ok := cache.Read("demo.myshopify.com", "settings"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	// The stale entry is gone, not just hidden.
	if len(cache.entries) != 0 {
		t.Fatalf("expected lazy eviction, got %d entries", len(cache.entries))
	}
}

func TestCacheScopesByShop(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	cache.Write("shop-a.myshopify.com", "settings", json.RawMessage(`"a"`), 0)

	if _, ok := cache.Read("shop-b.myshopify.com", "settings"); ok {
		t.Fatalf("cross-shop read must miss")
	}
}

func TestCacheBypassesEmptyShop(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	cache.Write("", "settings", json.RawMessage(`"x"`), 0)

	if len(cache.entries) != 0 {
		t.Fatalf("unscoped write must not be stored")
	}
	if _, ok := cache.Read("", "settings"); ok {
		t.Fatalf("unscoped read must miss")
	}
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	cache.Write("demo.myshopify.com", "settings", json.RawMessage(`1`), 0)
	cache.Invalidate("demo.myshopify.com", "settings")

	if _, ok := cache.Read("demo.myshopify.com", "settings"); ok {
		t.Fatalf("expected invalidated entry to miss")
	}
}

func TestCacheWriteOverwrites(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	cache.Write("demo.myshopify.com", "settings", json.RawMessage(`1`), 0)
	cache.Write("demo.myshopify.com", "settings", json.RawMessage(`2`), 0)

	value, ok := cache.Read("demo.myshopify.com", "settings")
	if !ok || string(value) != "2" {
		t.Fatalf("expected overwrite, got %q", value)
	}
}
