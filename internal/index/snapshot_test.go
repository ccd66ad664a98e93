package index

import (
	"context"
	"testing"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vectorstore"
)

func TestSnapshotLookupAndSparseSearch(t *testing.T) {
	chunks := []models.Chunk{
		{ID: "doc_0", Text: "工研院成立於1973年。", Index: 0},
		{ID: "doc_1", Text: "今天天氣很好。", Index: 1},
	}
	sparse := BuildSparse(chunks, tokenizer(t), SparseConfig{})

	dense := vectorstore.NewMemoryStore()
	if err := dense.Replace(context.Background(), []vectorstore.Item{
		{ChunkID: "doc_0", Vector: []float32{1, 0}},
		{ChunkID: "doc_1", Vector: []float32{0, 1}},
	}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	snap := NewSnapshot(chunks, sparse, dense)

	if snap.Len() != 2 {
		t.Errorf("Len() = %d, want 2", snap.Len())
	}
	if _, ok := snap.Chunk("doc_0"); !ok {
		t.Error("Chunk(doc_0) not found")
	}
	if _, ok := snap.Chunk("missing"); ok {
		t.Error("Chunk(missing) unexpectedly found")
	}

	scored := snap.SparseSearch("工研院成立", 10)
	if len(scored) == 0 {
		t.Fatal("SparseSearch returned no matches")
	}
	if scored[0].ChunkID != "doc_0" {
		t.Errorf("top sparse match = %s, want doc_0", scored[0].ChunkID)
	}

	if snap.Dense() != vectorstore.Store(dense) {
		t.Error("Dense() does not expose the generation's store")
	}
}

func TestSnapshotSparseSearchLimit(t *testing.T) {
	chunks := []models.Chunk{
		{ID: "a", Text: "apple pie recipe", Index: 0},
		{ID: "b", Text: "apple tart recipe", Index: 1},
		{ID: "c", Text: "apple juice", Index: 2},
		{ID: "d", Text: "orange soda", Index: 3},
	}
	snap := NewSnapshot(chunks, BuildSparse(chunks, tokenizer(t), SparseConfig{}), vectorstore.NewMemoryStore())

	scored := snap.SparseSearch("apple", 2)
	if len(scored) != 2 {
		t.Errorf("limited search returned %d matches, want 2", len(scored))
	}
}
