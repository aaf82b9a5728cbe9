package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biorempp/biorempp/internal/figure"
)

// FigureCache stores charts on top of the bounded LRU tier. Payloads are the
// marshaled structural representation, never the live figure object, so the
// cache holds plain data regardless of what produced the chart.
type FigureCache struct {
	entries *Memory[[]byte]
}

// NewFigureCache builds a figure cache.
func NewFigureCache(maxSize int, defaultTTL time.Duration) *FigureCache {
	return &FigureCache{entries: NewMemory[[]byte](maxSize, defaultTTL)}
}

// Put serializes the figure and stores it under key. A ttl of zero or less
// uses the cache default.
func (c *FigureCache) Put(key string, fig *figure.Figure, ttl time.Duration) error {
	payload, err := figure.Marshal(fig)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		c.entries.Set(key, payload)
	} else {
		c.entries.SetTTL(key, payload, ttl)
	}
	return nil
}

// Get reconstructs the figure stored under key.
func (c *FigureCache) Get(key string) (*figure.Figure, bool, error) {
	payload, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	fig, err := figure.Unmarshal(payload)
	if err != nil {
		return nil, false, err
	}
	return fig, true, nil
}

// Delete removes key, reporting whether an entry was present.
func (c *FigureCache) Delete(key string) bool { return c.entries.Delete(key) }

// DeletePrefix removes all entries whose key starts with prefix.
func (c *FigureCache) DeletePrefix(prefix string) int { return c.entries.DeletePrefix(prefix) }

// Clear drops all cached figures.
func (c *FigureCache) Clear() { c.entries.Clear() }

// Len reports the number of cached figures.
func (c *FigureCache) Len() int { return c.entries.Len() }

// Stats snapshots the underlying tier.
func (c *FigureCache) Stats() Stats { return c.entries.Stats() }

// FigureKey derives a deterministic key for a figure produced by analysisID
// under the given filters and configuration. The canonical form is JSON with
// sorted map keys, so filter insertion order never changes the key. The
// analysis id is kept as a readable prefix.
func FigureKey(analysisID string, filters map[string]any, config map[string]any) string {
	canonical := struct {
		Analysis string         `json:"analysis"`
		Filters  map[string]any `json:"filters"`
		Config   map[string]any `json:"config"`
	}{Analysis: analysisID, Filters: filters, Config: config}

	payload, err := json.Marshal(canonical)
	if err != nil {
		// Filters and config come from JSON-compatible documents; fall back
		// to the raw fmt form rather than failing key derivation.
		payload = []byte(fmt.Sprint(canonical))
	}
	digest := sha256.Sum256(payload)
	return analysisID + "_" + hex.EncodeToString(digest[:])[:16]
}
