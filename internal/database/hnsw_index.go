package database

import (
	"errors"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// EncodingIndex wraps an HNSW graph over flattened student encodings.
// Node keys are positions in the entries slice the index was built from.
type EncodingIndex struct {
	graph   *hnsw.Graph[int]
	entries []EncodingEntry
	dim     int
	mu      sync.RWMutex
}

// NewEncodingIndex creates a new empty index.
func NewEncodingIndex() *EncodingIndex {
	return &EncodingIndex{}
}

// Build replaces the index contents with entries.
// Entries whose dimension differs from the first non-empty entry are skipped.
func (h *EncodingIndex) Build(entries []EncodingEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.graph = nil
	h.entries = entries
	h.dim = 0

	if len(entries) == 0 {
		return
	}

	g := hnsw.NewGraph[int]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	for i := range entries {
		enc := entries[i].Encoding
		if len(enc) == 0 {
			continue
		}
		if h.dim == 0 {
			h.dim = len(enc)
		}
		if len(enc) != h.dim {
			continue
		}
		g.Add(hnsw.MakeNode(i, enc.Float32()))
	}

	if g.Len() > 0 {
		h.graph = g
	}
}

// Search finds up to k entries near query.
// Distances are recomputed exactly in float64 and results are sorted ascending.
func (h *EncodingIndex) Search(query Encoding, k int) ([]EncodingEntry, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}
	if len(query) != h.dim {
		return nil, nil, nil
	}

	neighbors := h.graph.Search(query.Float32(), k)

	type hit struct {
		entry EncodingEntry
		dist  float64
	}
	hits := make([]hit, 0, len(neighbors))
	for _, n := range neighbors {
		e := h.entries[n.Key]
		hits = append(hits, hit{entry: e, dist: EuclideanDistance(query, e.Encoding)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	entries := make([]EncodingEntry, len(hits))
	distances := make([]float64, len(hits))
	for i, r := range hits {
		entries[i] = r.entry
		distances[i] = r.dist
	}
	return entries, distances, nil
}

// Count returns the number of indexed encodings.
func (h *EncodingIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.graph == nil {
		return 0
	}
	return h.graph.Len()
}

// IsEmpty returns true if no graph has been built.
func (h *EncodingIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil
}
