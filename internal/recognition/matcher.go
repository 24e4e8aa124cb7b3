package recognition

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/facerecognx/internal/database"
)

// Matcher finds the stored encoding closest to a query.
type Matcher interface {
	// Nearest returns the closest entry and its Euclidean distance, ok is false when nothing is stored
	Nearest(query database.Encoding) (entry database.EncodingEntry, distance float64, ok bool)
}

// LinearMatcher scans every entry.
type LinearMatcher struct {
	entries []database.EncodingEntry
}

// NewLinearMatcher creates a matcher over entries.
func NewLinearMatcher(entries []database.EncodingEntry) *LinearMatcher {
	return &LinearMatcher{entries: entries}
}

func (m *LinearMatcher) Nearest(query database.Encoding) (database.EncodingEntry, float64, bool) {
	idx, dist := database.Nearest(query, m.entries)
	if idx < 0 {
		return database.EncodingEntry{}, 0, false
	}
	return m.entries[idx], dist, true
}

// Len returns the number of entries scanned per query.
func (m *LinearMatcher) Len() int {
	return len(m.entries)
}

// HNSWMatcher answers from an approximate index with exact distances.
type HNSWMatcher struct {
	index *database.EncodingIndex
}

func (m *HNSWMatcher) Nearest(query database.Encoding) (database.EncodingEntry, float64, bool) {
	entries, dists, err := m.index.Search(query, database.HNSWSearchCandidates)
	if err != nil || len(entries) == 0 {
		return database.EncodingEntry{}, 0, false
	}
	return entries[0], dists[0], true
}

// linearSource rebuilds the list on every request.
func linearSource(ctx context.Context, students database.StudentReader) (Matcher, int, error) {
	all, err := students.ListWithEncodings(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load encodings: %w", err)
	}
	entries := database.Flatten(all)
	return NewLinearMatcher(entries), len(entries), nil
}

// hnswCache keeps one index and rebuilds it when the stored encoding count changes.
type hnswCache struct {
	mu    sync.Mutex
	index *database.EncodingIndex
	count int
	built bool
}

func (c *hnswCache) matcher(ctx context.Context, students database.StudentReader) (Matcher, int, error) {
	count, err := students.CountEncodings(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count encodings: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.built || c.count != count {
		all, err := students.ListWithEncodings(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("load encodings: %w", err)
		}
		entries := database.Flatten(all)
		if c.index == nil {
			c.index = database.NewEncodingIndex()
		}
		c.index.Build(entries)
		c.count = len(entries)
		c.built = true
	}

	if c.index.IsEmpty() {
		return NewLinearMatcher(nil), 0, nil
	}
	return &HNSWMatcher{index: c.index}, c.count, nil
}
