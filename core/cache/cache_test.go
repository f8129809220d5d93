package cache

import (
	"testing"
	"time"
)

func TestGetPut(t *testing.T) {
	c := NewLRU[string, int](Config{MaxSize: 10})

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Put("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Put("a", 2)
	v, _ = c.Get("a")
	if v != 2 {
		t.Errorf("Get(a) after update = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestEviction(t *testing.T) {
	c := NewLRU[int, string](Config{MaxSize: 2})

	c.Put(1, "one")
	c.Put(2, "two")
	c.Get(1) // touch 1 so 2 is the eviction candidate
	c.Put(3, "three")

	if _, ok := c.Get(2); ok {
		t.Error("expected least-recently-used entry 2 to be evicted")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("recently used entry 1 should survive")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("new entry 3 should be present")
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRU[string, int](Config{MaxSize: 10, TTL: 10 * time.Millisecond})

	c.Put("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry should be live immediately after Put")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("entry should have expired")
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := NewLRU[string, int](Config{MaxSize: 10})

	c.Put("a", 1)
	c.Put("b", 2)
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("removed entry should be gone")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("cleared entry should be gone")
	}
}

func TestStatsCounts(t *testing.T) {
	c := NewLRU[string, int](Config{MaxSize: 5})

	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("nope")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 2 hits / 1 miss", s)
	}
	if s.MaxSize != 5 || s.Size != 1 {
		t.Errorf("Stats size fields = %+v", s)
	}
}
