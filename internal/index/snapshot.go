package index

import (
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vectorstore"
)

// ScoredChunk is a chunk reference with a raw similarity score.
type ScoredChunk struct {
	ChunkID string
	Score   float64
}

// Snapshot is one fully built generation of the index: the chunk table,
// the sparse index, and the dense store holding one embedding per chunk.
// A snapshot is immutable; rebuilds prepare a new one aside and swap it
// in only after every part succeeded, so readers never observe a
// half-built index.
type Snapshot struct {
	chunks []models.Chunk
	byID   map[string]int
	sparse *SparseIndex
	dense  vectorstore.Store
}

// NewSnapshot assembles a snapshot from its finished parts. The sparse
// index must have been built over chunks in the same order.
func NewSnapshot(chunks []models.Chunk, sparse *SparseIndex, dense vectorstore.Store) *Snapshot {
	byID := make(map[string]int, len(chunks))
	for i, chunk := range chunks {
		byID[chunk.ID] = i
	}
	return &Snapshot{chunks: chunks, byID: byID, sparse: sparse, dense: dense}
}

// Len reports the number of chunks in this generation.
func (s *Snapshot) Len() int {
	return len(s.chunks)
}

// Features reports the sparse vocabulary size of this generation.
func (s *Snapshot) Features() int {
	return s.sparse.Features()
}

// Chunk looks a chunk up by id.
func (s *Snapshot) Chunk(id string) (models.Chunk, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Chunk{}, false
	}
	return s.chunks[i], true
}

// Dense exposes the dense store of this generation.
func (s *Snapshot) Dense() vectorstore.Store {
	return s.dense
}

// SparseSearch runs a lexical query and translates document ordinals
// back to chunk ids. A limit of zero or less returns every positive
// match.
func (s *Snapshot) SparseSearch(query string, limit int) []ScoredChunk {
	matches := s.sparse.Query(query)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	scored := make([]ScoredChunk, 0, len(matches))
	for _, m := range matches {
		scored = append(scored, ScoredChunk{ChunkID: s.chunks[m.Doc].ID, Score: m.Score})
	}
	return scored
}
