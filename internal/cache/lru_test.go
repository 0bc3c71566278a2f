package cache

import (
	"testing"
	"time"
)

func TestGetSetDelete(t *testing.T) {
	c := NewLRU[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache reported a hit")
	}

	c.Set("g1", "Family")
	got, ok := c.Get("g1")
	if !ok || got != "Family" {
		t.Errorf("Get() = %q, %v; want Family, true", got, ok)
	}

	c.Set("g1", "Renamed")
	got, _ = c.Get("g1")
	if got != "Renamed" {
		t.Errorf("Get() after overwrite = %q, want Renamed", got)
	}

	c.Delete("g1")
	if _, ok := c.Get("g1"); ok {
		t.Error("Get() after Delete reported a hit")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	c := NewLRU[int](10, -time.Second)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry reported a hit")
	}
}
