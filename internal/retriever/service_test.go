package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/index"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vectorstore"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

var sharedTok *index.Tokenizer

func tokenizer(t *testing.T) *index.Tokenizer {
	t.Helper()
	if sharedTok == nil {
		tok, err := index.NewTokenizer()
		if err != nil {
			t.Fatalf("NewTokenizer() error = %v", err)
		}
		sharedTok = tok
	}
	return sharedTok
}

// staticEmbedder maps known texts to fixed vectors so retrieval scores
// are fully deterministic.
type staticEmbedder struct {
	vectors  map[string][]float32
	docErr   error
	queryErr error
}

func (s *staticEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if s.docErr != nil {
		return nil, s.docErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for %q", text)
		}
		out[i] = vec
	}
	return out, nil
}

func (s *staticEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	vec, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no fixture vector for query %q", text)
	}
	return vec, nil
}

const (
	questionQuery  = "工研院是哪一年成立的?"
	statementQuery = "工研院在1973年成立"
)

func fixtureChunks() []models.Chunk {
	return []models.Chunk{
		{ID: "c1", Text: "工研院成立於1973年，總部位於新竹。", Index: 0},
		{ID: "c2", Text: "博物館每週一休館。", Index: 1},
		{ID: "c3", Text: "問題: 工研院何時成立? 答案: 1973年。", Index: 2,
			Metadata: map[string]string{models.MetadataType: models.ChunkTypeQA}},
		{ID: "c4", Text: "工研院推動產業升級與人才培育。", Index: 3},
	}
}

func fixtureEmbedder() *staticEmbedder {
	return &staticEmbedder{vectors: map[string][]float32{
		"工研院成立於1973年，總部位於新竹。":      {1, 0, 0},
		"博物館每週一休館。":                {0, 1, 0},
		"問題: 工研院何時成立? 答案: 1973年。": {0.9, 0.1, 0},
		"工研院推動產業升級與人才培育。":          {0.6, 0.4, 0},
		questionQuery:              {1, 0, 0},
		statementQuery:             {1, 0, 0},
	}}
}

func builtService(t *testing.T, embedder *staticEmbedder) *Service {
	t.Helper()
	svc := NewService(embedder, tokenizer(t), func() vectorstore.Store { return vectorstore.NewMemoryStore() }, Config{}, testLogger())
	if err := svc.Rebuild(context.Background(), fixtureChunks()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	return svc
}

func TestSearchRanksRelevantChunkFirst(t *testing.T) {
	svc := builtService(t, fixtureEmbedder())

	results, err := svc.Search(context.Background(), questionQuery, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].ChunkID != "c1" {
		t.Errorf("top result = %s, want c1", results[0].ChunkID)
	}

	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d rank = %d, want %d", i, r.Rank, i+1)
		}
		if i > 0 && r.CombinedScore > results[i-1].CombinedScore {
			t.Errorf("combined scores not descending at %d", i)
		}
		want := denseWeight*r.DenseScore + sparseWeight*r.SparseScore
		if math.Abs(r.CombinedScore-want) > 1e-9 {
			t.Errorf("combined score %f does not match fused parts %f", r.CombinedScore, want)
		}
	}
}

func TestSearchQuestionExcludesQAPairs(t *testing.T) {
	svc := builtService(t, fixtureEmbedder())

	results, err := svc.Search(context.Background(), questionQuery, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.ChunkID == "c3" {
			t.Error("QA-pair chunk returned for a question query")
		}
	}
}

func TestSearchStatementIncludesQAPairs(t *testing.T) {
	svc := builtService(t, fixtureEmbedder())

	results, err := svc.Search(context.Background(), statementQuery, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	var found bool
	for _, r := range results {
		if r.ChunkID == "c3" {
			found = true
		}
	}
	if !found {
		t.Error("QA-pair chunk missing for a non-question query")
	}
}

func TestSearchTopKTruncation(t *testing.T) {
	svc := builtService(t, fixtureEmbedder())

	results, err := svc.Search(context.Background(), statementQuery, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) > 2 {
		t.Errorf("got %d results, want at most 2", len(results))
	}
}

func TestSearchNoDuplicateChunks(t *testing.T) {
	svc := builtService(t, fixtureEmbedder())

	results, err := svc.Search(context.Background(), statementQuery, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.ChunkID] {
			t.Errorf("chunk %s returned twice", r.ChunkID)
		}
		seen[r.ChunkID] = true
	}
}

func TestSearchBeforeRebuild(t *testing.T) {
	svc := NewService(fixtureEmbedder(), tokenizer(t), func() vectorstore.Store { return vectorstore.NewMemoryStore() }, Config{}, testLogger())

	if svc.Ready() {
		t.Error("Ready() = true before any rebuild")
	}
	_, err := svc.Search(context.Background(), statementQuery, 5)
	if !errors.Is(err, models.ErrRetrievalUnavailable) {
		t.Errorf("Search() error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestSearchEmbedderDown(t *testing.T) {
	embedder := fixtureEmbedder()
	svc := builtService(t, embedder)

	embedder.queryErr = fmt.Errorf("connection refused")
	_, err := svc.Search(context.Background(), statementQuery, 5)
	if !errors.Is(err, models.ErrRetrievalUnavailable) {
		t.Errorf("Search() error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestRebuildFailureKeepsPreviousGeneration(t *testing.T) {
	embedder := fixtureEmbedder()
	svc := builtService(t, embedder)
	before := svc.Stats()

	embedder.docErr = fmt.Errorf("backend down")
	err := svc.Rebuild(context.Background(), []models.Chunk{{ID: "n1", Text: "new corpus"}})
	if !errors.Is(err, models.ErrIndexBuildFailed) {
		t.Fatalf("Rebuild() error = %v, want ErrIndexBuildFailed", err)
	}

	if got := svc.Stats(); got != before {
		t.Errorf("stats changed after failed rebuild: %+v -> %+v", before, got)
	}

	results, err := svc.Search(context.Background(), statementQuery, 5)
	if err != nil {
		t.Fatalf("Search() after failed rebuild error = %v", err)
	}
	if len(results) == 0 || results[0].ChunkID != "c1" {
		t.Errorf("previous generation not serving after failed rebuild: %+v", results)
	}
}

func TestRebuildEmptyCorpus(t *testing.T) {
	svc := NewService(fixtureEmbedder(), tokenizer(t), func() vectorstore.Store { return vectorstore.NewMemoryStore() }, Config{}, testLogger())

	err := svc.Rebuild(context.Background(), nil)
	if !errors.Is(err, models.ErrIndexBuildFailed) {
		t.Errorf("Rebuild(nil) error = %v, want ErrIndexBuildFailed", err)
	}
	if svc.Ready() {
		t.Error("Ready() = true after failed empty rebuild")
	}
}
