// Package retriever owns the index lifecycle and answers hybrid
// dense+sparse search queries against the current index generation.
package retriever

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/embedding"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/index"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vectorstore"
)

const (
	// DefaultTopK bounds how many chunks a search returns.
	DefaultTopK = 10
	// Fusion weights. Dense embeddings capture semantics; the sparse
	// side recovers exact terminology such as proper nouns that
	// embeddings under-weight.
	denseWeight  = 0.7
	sparseWeight = 0.3
	// minOverFetch is the floor on the candidate multiplier; fusion
	// needs headroom beyond topK to rerank within.
	minOverFetch = 2
)

// Config tunes the retriever.
type Config struct {
	OverFetchFactor int
	Sparse          index.SparseConfig
}

// Service builds index generations and searches the current one. The
// active generation sits behind an atomic pointer: queries always see a
// complete snapshot, and Rebuild publishes a new one only after every
// build step succeeded.
type Service struct {
	embedder  embedding.Embedder
	tokenizer *index.Tokenizer
	newStore  func() vectorstore.Store
	cfg       Config
	logger    *zerolog.Logger

	snapshot atomic.Pointer[index.Snapshot]
}

// NewService wires a retriever. newStore supplies the dense store for
// each generation; for the in-memory store that is a fresh instance per
// rebuild, for the Postgres store the same table-backed instance whose
// Replace is transactional.
func NewService(embedder embedding.Embedder, tokenizer *index.Tokenizer, newStore func() vectorstore.Store, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.OverFetchFactor < minOverFetch {
		cfg.OverFetchFactor = minOverFetch
	}
	return &Service{
		embedder:  embedder,
		tokenizer: tokenizer,
		newStore:  newStore,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ready reports whether a generation has been published.
func (s *Service) Ready() bool {
	return s.snapshot.Load() != nil
}

// Stats describes the active generation.
type Stats struct {
	Ready          bool `json:"ready"`
	Chunks         int  `json:"chunks"`
	SparseFeatures int  `json:"sparse_features"`
}

func (s *Service) Stats() Stats {
	snap := s.snapshot.Load()
	if snap == nil {
		return Stats{}
	}
	return Stats{Ready: true, Chunks: snap.Len(), SparseFeatures: snap.Features()}
}

// Rebuild embeds the corpus, fills a fresh dense store, builds the
// sparse index, and swaps the new generation in. Any failure leaves the
// previous generation authoritative and returns ErrIndexBuildFailed.
func (s *Service) Rebuild(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: empty corpus", models.ErrIndexBuildFailed)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embedding corpus: %v", models.ErrIndexBuildFailed, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", models.ErrIndexBuildFailed, len(vectors), len(chunks))
	}

	items := make([]vectorstore.Item, len(chunks))
	for i, chunk := range chunks {
		items[i] = vectorstore.Item{ChunkID: chunk.ID, Vector: vectors[i]}
	}

	store := s.newStore()
	if err := store.Replace(ctx, items); err != nil {
		return fmt.Errorf("%w: storing embeddings: %v", models.ErrIndexBuildFailed, err)
	}

	sparse := index.BuildSparse(chunks, s.tokenizer, s.cfg.Sparse)
	snap := index.NewSnapshot(chunks, sparse, store)
	s.snapshot.Store(snap)

	s.logger.Info().
		Int("chunks", snap.Len()).
		Int("sparse_features", sparse.Features()).
		Msg("Index generation published")
	return nil
}

// Search runs the hybrid retrieval pipeline: dense and sparse candidate
// fetch, per-query min-max normalization of each score type over the
// candidate union, weighted fusion, and truncation to topK. Question
// queries never receive verbatim QA-pair chunks; retrieved context is
// there to ground an answer, not to be echoed.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: index not built", models.ErrRetrievalUnavailable)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	fetch := topK * s.cfg.OverFetchFactor

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", models.ErrRetrievalUnavailable, err)
	}

	denseMatches, err := snap.Dense().QueryByVector(ctx, vector, fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: dense search: %v", models.ErrRetrievalUnavailable, err)
	}
	sparseMatches := snap.SparseSearch(query, fetch)

	candidates := s.merge(snap, denseMatches, sparseMatches, models.IsQuestion(query))
	fuse(candidates)

	results := make([]models.RetrievalResult, 0, topK)
	for i, cand := range candidates {
		if i == topK {
			break
		}
		results = append(results, models.RetrievalResult{
			ChunkID:       cand.chunk.ID,
			Text:          cand.chunk.Text,
			Metadata:      cand.chunk.Metadata,
			DenseScore:    cand.dense,
			SparseScore:   cand.sparse,
			CombinedScore: cand.combined,
			Rank:          i + 1,
		})
	}
	return results, nil
}

type candidate struct {
	chunk     models.Chunk
	dense     float64
	sparse    float64
	combined  float64
	hasDense  bool
	hasSparse bool
}

// merge unions the two candidate lists by chunk id, keeping dense rank
// order first so that later stable sorting breaks score ties in favor
// of the better dense rank. Unknown ids and, for question queries,
// QA-pair chunks are dropped here.
func (s *Service) merge(snap *index.Snapshot, dense []vectorstore.Match, sparse []index.ScoredChunk, excludeQA bool) []*candidate {
	ordered := make([]*candidate, 0, len(dense)+len(sparse))
	byID := make(map[string]*candidate, len(dense)+len(sparse))

	admit := func(id string) (models.Chunk, bool) {
		chunk, ok := snap.Chunk(id)
		if !ok {
			return models.Chunk{}, false
		}
		if excludeQA && chunk.IsQAPair() {
			return models.Chunk{}, false
		}
		return chunk, true
	}

	for _, m := range dense {
		if _, dup := byID[m.ChunkID]; dup {
			continue
		}
		chunk, ok := admit(m.ChunkID)
		if !ok {
			continue
		}
		cand := &candidate{chunk: chunk, dense: m.Score, hasDense: true}
		byID[m.ChunkID] = cand
		ordered = append(ordered, cand)
	}
	for _, m := range sparse {
		if cand, ok := byID[m.ChunkID]; ok {
			if !cand.hasSparse || m.Score > cand.sparse {
				cand.sparse = m.Score
				cand.hasSparse = true
			}
			continue
		}
		chunk, ok := admit(m.ChunkID)
		if !ok {
			continue
		}
		cand := &candidate{chunk: chunk, sparse: m.Score, hasSparse: true}
		byID[m.ChunkID] = cand
		ordered = append(ordered, cand)
	}
	return ordered
}
