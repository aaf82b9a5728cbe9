package cache

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"time"

	"github.com/biorempp/biorempp/internal/dataframe"
)

// DefaultCompressThreshold is the payload size, in estimated bytes, above
// which frames are stored compressed.
const DefaultCompressThreshold = 64 * 1024

type frameEntry struct {
	frame        *dataframe.Frame
	compressed   []byte
	isCompressed bool
	originalSize int
	rows, cols   int
}

// FrameCache stores tabular payloads on top of the bounded LRU tier. Frames
// whose estimated size is strictly above the compression threshold are
// gob-encoded and gzip-compressed; smaller frames are held as deep copies.
// Retrieval always hands back an independent copy, so callers can never
// mutate the cached original.
type FrameCache struct {
	entries           *Memory[frameEntry]
	compressThreshold int
}

// NewFrameCache builds a frame cache. A threshold of zero or less falls back
// to DefaultCompressThreshold.
func NewFrameCache(maxSize int, defaultTTL time.Duration, compressThreshold int) *FrameCache {
	if compressThreshold <= 0 {
		compressThreshold = DefaultCompressThreshold
	}
	return &FrameCache{
		entries:           NewMemory[frameEntry](maxSize, defaultTTL),
		compressThreshold: compressThreshold,
	}
}

// Put stores the frame under key. A ttl of zero or less uses the cache
// default; the base tier's zero sentinel still means "never expire".
func (c *FrameCache) Put(key string, frame *dataframe.Frame, ttl time.Duration) error {
	rows, cols := frame.Shape()
	entry := frameEntry{
		originalSize: frame.EstimateSize(),
		rows:         rows,
		cols:         cols,
	}

	// Strictly-greater rule: a frame sitting exactly on the threshold stays
	// uncompressed.
	if entry.originalSize > c.compressThreshold {
		encoded, err := dataframe.Encode(frame)
		if err != nil {
			return err
		}
		compressed, err := gzipCompress(encoded)
		if err != nil {
			return err
		}
		entry.compressed = compressed
		entry.isCompressed = true
	} else {
		entry.frame = frame.Clone()
	}

	if ttl <= 0 {
		c.entries.Set(key, entry)
	} else {
		c.entries.SetTTL(key, entry, ttl)
	}
	return nil
}

// Get retrieves the frame stored under key, decompressing when needed.
func (c *FrameCache) Get(key string) (*dataframe.Frame, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if entry.isCompressed {
		encoded, err := gzipDecompress(entry.compressed)
		if err != nil {
			return nil, false, err
		}
		frame, err := dataframe.Decode(encoded)
		if err != nil {
			return nil, false, err
		}
		return frame, true, nil
	}
	return entry.frame.Clone(), true, nil
}

// Key derives the content-addressed cache key for a frame.
func (c *FrameCache) Key(frame *dataframe.Frame, prefix string) string {
	return frame.Fingerprint(prefix)
}

// Delete removes key, reporting whether an entry was present.
func (c *FrameCache) Delete(key string) bool { return c.entries.Delete(key) }

// Clear drops all cached frames.
func (c *FrameCache) Clear() { c.entries.Clear() }

// Len reports the number of cached frames.
func (c *FrameCache) Len() int { return c.entries.Len() }

// Stats snapshots the underlying tier.
func (c *FrameCache) Stats() Stats { return c.entries.Stats() }

func gzipCompress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("cache: compress frame: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cache: compress frame: %w", err)
	}
	return buf.Bytes(), nil
}

func gzipDecompress(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("cache: decompress frame: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("cache: decompress frame: %w", err)
	}
	return out, nil
}
