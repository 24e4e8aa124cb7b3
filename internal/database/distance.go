package database

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EuclideanDistance computes the L2 distance between two encodings.
// Mismatched or empty vectors are infinitely far apart.
func EuclideanDistance(a, b Encoding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

// Nearest returns the index of the entry closest to query and its distance.
// Returns -1 when entries is empty.
func Nearest(query Encoding, entries []EncodingEntry) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i := range entries {
		d := EuclideanDistance(query, entries[i].Encoding)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}
