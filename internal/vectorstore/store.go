// Package vectorstore persists chunk embeddings and answers dense
// nearest-neighbour queries by cosine similarity.
package vectorstore

import "context"

// Item is one embedded chunk ready for storage.
type Item struct {
	ChunkID string
	Vector  []float32
}

// Match is one scored result of a dense query. Score is raw cosine
// similarity; callers normalize per query before fusing with other
// signals.
type Match struct {
	ChunkID string
	Score   float64
}

// Store holds the dense side of one index generation. Replace installs
// a complete new set of embeddings or leaves the previous set intact,
// so a failed rebuild never leaves readers with a partial store.
type Store interface {
	Replace(ctx context.Context, items []Item) error
	QueryByVector(ctx context.Context, vector []float32, limit int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}
