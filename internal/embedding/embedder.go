// Package embedding turns text into dense vectors through one of the
// configured providers, with an optional Redis cache in front.
package embedding

import "context"

// Embedder produces dense vectors for indexing and querying. Documents
// and queries are embedded through separate methods because some models
// expect a different task prefix on each side.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Task prefixes for the nomic embedding family. Indexing and querying
// must use matching prefixes or similarity scores degrade badly.
const (
	documentPrefix = "search_document: "
	queryPrefix    = "search_query: "
)
