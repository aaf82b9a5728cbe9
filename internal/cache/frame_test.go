package cache

import (
	"testing"
	"time"

	"github.com/biorempp/biorempp/internal/dataframe"
)

func testFrame(t *testing.T, rows int) *dataframe.Frame {
	t.Helper()
	f := dataframe.New(
		dataframe.Column{Name: "sample", Type: dataframe.TypeString},
		dataframe.Column{Name: "count", Type: dataframe.TypeInt},
	)
	for i := 0; i < rows; i++ {
		if err := f.AppendRow("S1", i); err != nil {
			t.Fatalf("append row: %v", err)
		}
	}
	return f
}

func TestFrameCacheRoundTripUncompressed(t *testing.T) {
	c := NewFrameCache(10, 0, 1<<20)
	frame := testFrame(t, 5)

	key := c.Key(frame, "df")
	if err := c.Put(key, frame, 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, ok := c.entries.Get(key)
	if !ok {
		t.Fatalf("expected entry")
	}
	if entry.isCompressed {
		t.Fatalf("expected small frame to stay uncompressed")
	}
	if entry.rows != 5 || entry.cols != 2 {
		t.Fatalf("unexpected shape metadata: %dx%d", entry.rows, entry.cols)
	}

	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if !got.Equal(frame) {
		t.Fatalf("round trip mismatch")
	}
}

func TestFrameCacheRoundTripCompressed(t *testing.T) {
	c := NewFrameCache(10, 0, 1)
	frame := testFrame(t, 50)

	key := c.Key(frame, "")
	if err := c.Put(key, frame, 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	entry, ok := c.entries.Get(key)
	if !ok {
		t.Fatalf("expected entry")
	}
	if !entry.isCompressed {
		t.Fatalf("expected frame above threshold to be compressed")
	}
	if entry.originalSize <= 1 {
		t.Fatalf("expected recorded original size, got %d", entry.originalSize)
	}

	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if !got.Equal(frame) {
		t.Fatalf("compressed round trip mismatch")
	}
}

func TestFrameCacheCompressionThresholdBoundary(t *testing.T) {
	frame := testFrame(t, 10)
	size := frame.EstimateSize()

	atThreshold := NewFrameCache(10, 0, size)
	if err := atThreshold.Put("k", frame, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	entry, _ := atThreshold.entries.Get("k")
	if entry.isCompressed {
		t.Fatalf("size == threshold must stay uncompressed")
	}

	belowThreshold := NewFrameCache(10, 0, size-1)
	if err := belowThreshold.Put("k", frame, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	entry, _ = belowThreshold.entries.Get("k")
	if !entry.isCompressed {
		t.Fatalf("size > threshold must be compressed")
	}
}

func TestFrameCacheReturnsDefensiveCopies(t *testing.T) {
	c := NewFrameCache(10, 0, 1<<20)
	frame := testFrame(t, 3)

	if err := c.Put("k", frame, 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutating the original after Put must not reach the cache.
	if err := frame.AppendRow("S9", 99); err != nil {
		t.Fatalf("append: %v", err)
	}

	first, _, err := c.Get("k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.NumRows() != 3 {
		t.Fatalf("cached frame shares storage with caller: %d rows", first.NumRows())
	}

	// Mutating the returned copy must not affect later retrievals.
	if err := first.AppendRow("S8", 88); err != nil {
		t.Fatalf("append: %v", err)
	}
	second, _, err := c.Get("k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.NumRows() != 3 {
		t.Fatalf("returned handle mutated the cached frame: %d rows", second.NumRows())
	}
}

func TestFrameCacheTTL(t *testing.T) {
	c := NewFrameCache(10, 0, 1<<20)
	frame := testFrame(t, 2)

	if err := c.Put("k", frame, 15*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	_, ok, err := c.Get("k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected frame to expire")
	}
}

func TestFrameCacheKeyPrefix(t *testing.T) {
	c := NewFrameCache(10, 0, 0)
	frame := testFrame(t, 2)

	key := c.Key(frame, "dataframe")
	if key == "" || key == frame.Fingerprint("") {
		t.Fatalf("expected prefixed key, got %q", key)
	}
	if key != frame.Fingerprint("dataframe") {
		t.Fatalf("key must match frame fingerprint, got %q", key)
	}
}
