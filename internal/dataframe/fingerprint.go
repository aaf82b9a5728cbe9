package dataframe

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// fingerprintSampleRows bounds how many leading and trailing rows feed the
// content hash. Sampling keeps fingerprinting O(1) in table height while any
// realistic content change still moves the hash.
const fingerprintSampleRows = 5

// Fingerprint derives a deterministic short hash identifying the frame's
// content: shape, sorted column names with their types, and a sample of
// leading and trailing rows. Identical content yields identical fingerprints
// regardless of object identity; empty frames hash consistently.
//
// The hash is computed from a canonical representation with sorted keys and
// "|" separators, then truncated to 16 hex characters. A non-empty prefix is
// prepended with an underscore for human-readable cache keys.
func (f *Frame) Fingerprint(prefix string) string {
	h := sha256.New()

	rows, cols := f.Shape()
	fmt.Fprintf(h, "%dx%d|", rows, cols)

	names := make([]string, 0, len(f.cols))
	byName := make(map[string]ColumnType, len(f.cols))
	for _, col := range f.cols {
		names = append(names, col.Name)
		byName[col.Name] = col.Type
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+":"+string(byName[name]))
	}
	h.Write([]byte(strings.Join(parts, "|")))
	h.Write([]byte("|"))

	for _, i := range f.sampleIndexes() {
		// JSON gives a stable byte form for mixed scalar cells.
		cells, err := json.Marshal(f.rows[i])
		if err != nil {
			// Scalar cells cannot fail to marshal; keep the hash moving.
			cells = []byte(fmt.Sprint(f.rows[i]))
		}
		h.Write(cells)
		h.Write([]byte("|"))
	}

	digest := hex.EncodeToString(h.Sum(nil))[:16]
	if prefix == "" {
		return digest
	}
	return prefix + "_" + digest
}

// sampleIndexes returns the head and tail row indexes without duplicates so
// short tables are sampled exactly once per row.
func (f *Frame) sampleIndexes() []int {
	n := len(f.rows)
	if n <= 2*fingerprintSampleRows {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, 2*fingerprintSampleRows)
	for i := 0; i < fingerprintSampleRows; i++ {
		idx = append(idx, i)
	}
	for i := n - fingerprintSampleRows; i < n; i++ {
		idx = append(idx, i)
	}
	return idx
}
