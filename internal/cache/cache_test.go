package cache

import (
	"testing"
	"time"
)

func TestGetAndSet(t *testing.T) {
	c := NewMemory(time.Hour)

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Error("Expected a miss for an unknown link")
	}

	c.Set("https://example.com/a", "Line one.\nLine two.\nLine three.")

	digest, ok := c.Get("https://example.com/a")
	if !ok {
		t.Fatal("Expected a hit after Set")
	}
	if digest != "Line one.\nLine two.\nLine three." {
		t.Errorf("Expected the stored digest, got %q", digest)
	}
}

func TestExpiredEntriesMiss(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)

	c.Set("https://example.com/a", "digest")
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Error("Expected an expired entry to miss")
	}

	stats := c.Stats()
	if stats.Entries != 0 {
		t.Errorf("Expected the expired entry to be removed, got %d entries", stats.Entries)
	}
}

func TestSetRestartsTTL(t *testing.T) {
	c := NewMemory(50 * time.Millisecond)

	c.Set("https://example.com/a", "first")
	time.Sleep(30 * time.Millisecond)
	c.Set("https://example.com/a", "second")
	time.Sleep(30 * time.Millisecond)

	digest, ok := c.Get("https://example.com/a")
	if !ok {
		t.Fatal("Expected the refreshed entry to still be alive")
	}
	if digest != "second" {
		t.Errorf("Expected the refreshed digest, got %q", digest)
	}
}

func TestStats(t *testing.T) {
	c := NewMemory(time.Hour)

	c.Set("https://example.com/a", "digest")
	c.Get("https://example.com/a")
	c.Get("https://example.com/b")
	c.Get("https://example.com/c")

	stats := c.Stats()
	if stats.Entries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Expected 2 misses, got %d", stats.Misses)
	}
}
