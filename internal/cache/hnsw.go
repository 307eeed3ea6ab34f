package cache

import (
	"sync"

	"github.com/coder/hnsw"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// HNSW parameters for 128-dim face encodings
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16

	// hnswEfSearch is the search candidate pool size.
	hnswEfSearch = 100
)

// candidateIndex preselects the nearest known encodings before exact matching.
// Results are approximate; the final decision is always made by facematch.Match.
type candidateIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	dim   int
}

func buildIndex(encs map[string]facematch.Encoding) *candidateIndex {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.EfSearch = hnswEfSearch
	g.Distance = hnsw.EuclideanDistance

	dim := 0
	for id, enc := range encs {
		if dim == 0 {
			dim = len(enc)
		}
		if len(enc) != dim {
			// Mixed dimensions cannot share a graph; fall back to exact search.
			return nil
		}
		g.Add(hnsw.MakeNode(id, enc.Float32()))
	}
	return &candidateIndex{graph: g, dim: dim}
}

// search returns up to k candidate ids, or nil when the query cannot use the index.
func (ci *candidateIndex) search(query facematch.Encoding, k int) []string {
	if len(query) != ci.dim {
		return nil
	}
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	nodes := ci.graph.Search(query.Float32(), k)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Key
	}
	return ids
}
