package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryLRUEvictionProtectsTouchedKeys(t *testing.T) {
	c := NewMemory[string](3, 0)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be present")
	}

	// a was just touched, so inserting d must evict b.
	c.Set("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("expected %s to survive eviction", key)
		}
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("expected size 3, got %d", got)
	}
}

func TestMemoryReSetProtectsFromEviction(t *testing.T) {
	c := NewMemory[int](2, 0)

	c.Set("old", 1)
	c.Set("new", 2)
	c.Set("old", 3) // re-set marks old most recently used
	c.Set("extra", 4)

	if _, ok := c.Get("new"); ok {
		t.Fatalf("expected new to be evicted after old was refreshed")
	}
	if v, ok := c.Get("old"); !ok || v != 3 {
		t.Fatalf("expected refreshed value for old, got %v %v", v, ok)
	}
}

func TestMemoryTTLExpiryIsLazy(t *testing.T) {
	c := NewMemory[string](10, 0)

	c.SetTTL("short", "v", 15*time.Millisecond)
	if v, ok := c.Get("short"); !ok || v != "v" {
		t.Fatalf("expected entry before expiry, got %v %v", v, ok)
	}

	time.Sleep(30 * time.Millisecond)

	// Entry is still counted until an access observes the expiry.
	if got := c.Len(); got != 1 {
		t.Fatalf("expected unswept size 1, got %d", got)
	}
	if _, ok := c.Get("short"); ok {
		t.Fatalf("expected entry to be expired")
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("expected expired entry to be purged on access, got size %d", got)
	}
}

func TestMemoryExistsPurgesExpired(t *testing.T) {
	c := NewMemory[string](10, 0)

	c.SetTTL("gone", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if c.Exists("gone") {
		t.Fatalf("expected expired entry to be reported absent")
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("expected exists to purge expired entry, got size %d", got)
	}
}

func TestMemoryDefaultTTLZeroNeverExpires(t *testing.T) {
	c := NewMemory[string](10, 0)

	c.Set("forever", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("forever"); !ok {
		t.Fatalf("expected entry without TTL to survive")
	}
}

func TestMemoryNonPositiveTTLMeansNoExpiry(t *testing.T) {
	c := NewMemory[string](10, time.Hour)

	c.SetTTL("pinned", "v", 0)
	if e := c.items["pinned"].Value.(*memoryEntry[string]); !e.expiresAt.IsZero() {
		t.Fatalf("expected zero expiry for ttl 0, got %v", e.expiresAt)
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	c := NewMemory[int](10, 0)

	c.Set("a", 1)
	c.Set("b", 2)

	if !c.Delete("a") {
		t.Fatalf("expected delete to report removal")
	}
	if c.Delete("a") {
		t.Fatalf("expected second delete to report absence")
	}

	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache after clear, got %d", got)
	}
	if c.Exists("b") {
		t.Fatalf("expected b to be gone after clear")
	}
}

func TestMemoryDeletePrefix(t *testing.T) {
	c := NewMemory[int](10, 0)

	c.Set("uc:3.1:x", 1)
	c.Set("uc:3.1:y", 2)
	c.Set("uc:4.2:z", 3)

	if removed := c.DeletePrefix("uc:3.1:"); removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if removed := c.DeletePrefix(""); removed != 0 {
		t.Fatalf("expected empty prefix to remove nothing, got %d", removed)
	}
	if !c.Exists("uc:4.2:z") {
		t.Fatalf("expected other prefix to survive")
	}
}

func TestMemoryStats(t *testing.T) {
	c := NewMemory[int](4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	stats := c.Stats()
	if stats.CurrentSize != 2 || stats.MaxSize != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.DefaultTTL != time.Minute {
		t.Fatalf("expected default TTL in stats, got %v", stats.DefaultTTL)
	}
	if stats.UsagePercent != 50 {
		t.Fatalf("expected 50%% usage, got %v", stats.UsagePercent)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	c := NewMemory[int](32, time.Minute)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%40)
				c.Set(key, worker)
				c.Get(key)
				c.Exists(key)
			}
		}(worker)
	}
	wg.Wait()

	if got := c.Len(); got > 32 {
		t.Fatalf("size invariant violated: %d > 32", got)
	}
}
