package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-attendance/internal/biometric"
)

// HNSWIndex is an in-memory HNSW graph over identity feature vectors keyed
// by identity key. It is a derived structure: Sync brings it in line with a
// freshly read identity list before every search.
type HNSWIndex struct {
	graph   *hnsw.Graph[string]
	vectors map[string]int  // key -> vector length of indexed nodes
	live    map[string]bool // keys present in the last Sync
	dist    hnsw.DistanceFunc
	dim     int
	mu      sync.RWMutex
}

// NewHNSWIndex creates an empty index for the named metric.
func NewHNSWIndex(metric string) *HNSWIndex {
	dist := hnsw.EuclideanDistance
	if metric == biometric.MetricCosine {
		dist = hnsw.CosineDistance
	}
	return &HNSWIndex{
		vectors: make(map[string]int),
		live:    make(map[string]bool),
		dist:    dist,
	}
}

func (h *HNSWIndex) newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = h.dist
	return g
}

// Sync adds candidates not yet indexed and hides keys that are gone.
// Identity vectors never change, so indexed keys are not re-added.
func (h *HNSWIndex) Sync(candidates []biometric.Candidate) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	live := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			continue
		}
		live[c.Key] = true
		if _, ok := h.vectors[c.Key]; ok {
			continue
		}
		if h.graph == nil {
			h.graph = h.newGraph()
			h.dim = len(c.Vector)
		}
		if len(c.Vector) != h.dim {
			return &biometric.DimensionMismatchError{Want: h.dim, Got: len(c.Vector)}
		}
		vec := make([]float32, len(c.Vector))
		copy(vec, c.Vector)
		h.graph.Add(hnsw.MakeNode(c.Key, vec))
		h.vectors[c.Key] = len(vec)
	}
	h.live = live
	return nil
}

// Nearest returns up to k live keys closest to query.
func (h *HNSWIndex) Nearest(query []float32, k int) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil || h.graph.Len() == 0 {
		return nil, nil
	}
	if len(query) != h.dim {
		return nil, &biometric.DimensionMismatchError{Want: h.dim, Got: len(query)}
	}
	if k <= 0 {
		return nil, errors.New("k must be positive")
	}

	neighbors := h.graph.Search(query, k*HNSWSearchMultiplier)
	keys := make([]string, 0, k)
	for _, n := range neighbors {
		if !h.live[n.Key] {
			continue
		}
		keys = append(keys, n.Key)
		if len(keys) == k {
			break
		}
	}
	return keys, nil
}

// Count returns the number of live indexed identities.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.live)
}
