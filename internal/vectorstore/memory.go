package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps embeddings in process memory. It is the default
// store for single-node deployments and for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace swaps the stored set in one step. Vectors are copied so the
// caller may reuse its buffers.
func (m *MemoryStore) Replace(ctx context.Context, items []Item) error {
	next := make([]Item, len(items))
	for i, item := range items {
		vec := make([]float32, len(item.Vector))
		copy(vec, item.Vector)
		next[i] = Item{ChunkID: item.ChunkID, Vector: vec}
	}

	m.mu.Lock()
	m.items = next
	m.mu.Unlock()
	return nil
}

// QueryByVector scores every stored item against the query vector and
// returns the best matches in descending order. Equal scores keep
// insertion order. A limit of zero or less returns everything.
func (m *MemoryStore) QueryByVector(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.items))
	for _, item := range m.items {
		if len(item.Vector) != len(vector) {
			return nil, fmt.Errorf("dimension mismatch: stored %d, query %d", len(item.Vector), len(vector))
		}
		matches = append(matches, Match{ChunkID: item.ChunkID, Score: cosine(item.Vector, vector)})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
