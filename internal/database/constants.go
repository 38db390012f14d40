package database

// HNSW index parameters for identity feature vectors
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWSearchMultiplier over-fetches from the graph so that entries
	// dropped from the store can be filtered out.
	HNSWSearchMultiplier = 3
)

// Identity key constraints shared by every backend.
const (
	MaxIdentityKeyLength = 64
	MaxDisplayNameLength = 200
	DefaultRecentLimit   = 20
	MaxRecentLimit       = 500
)
