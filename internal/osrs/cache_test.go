package osrs

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache[string, int](time.Minute, func() time.Time { return now })

	cache.Set("whip", 1500000)
	if got, ok := cache.Get("whip"); !ok || got != 1500000 {
		t.Fatalf("Get = %d, %v; want 1500000, true", got, ok)
	}

	now = now.Add(59 * time.Second)
	if _, ok := cache.Get("whip"); !ok {
		t.Error("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok := cache.Get("whip"); ok {
		t.Error("entry still present after ttl")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
}

func TestTTLCacheInvalidate(t *testing.T) {
	cache := NewTTLCache[string, string](time.Hour, nil)
	cache.Set("a", "x")
	cache.Invalidate("a")

	if _, ok := cache.Get("a"); ok {
		t.Error("entry present after Invalidate")
	}
}
