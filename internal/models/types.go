package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Metadata keys and values set by the corpus loader and honored downstream.
const (
	MetadataType  = "type"
	ChunkTypeQA   = "qa_pair"
	MetadataTitle = "title"
)

// Chunk is one indexed unit of the knowledge base.
type Chunk struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	SourceFile string            `json:"source_file"`
	Index      int               `json:"index"`
	Language   string            `json:"language"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// IsQAPair reports whether the chunk came from a question/answer corpus file.
func (c Chunk) IsQAPair() bool {
	return c.Metadata[MetadataType] == ChunkTypeQA
}

// RetrievalResult is one ranked hit from the hybrid retriever.
type RetrievalResult struct {
	ChunkID       string            `json:"chunk_id"`
	Text          string            `json:"text"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	DenseScore    float64           `json:"dense_score"`
	SparseScore   float64           `json:"sparse_score"`
	CombinedScore float64           `json:"combined_score"`
	Rank          int               `json:"rank"`
}

// Message is one conversation turn stored in a session.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryRequest is the orchestrator input for a single exchange.
// AuxiliaryContext carries a caller-supplied user description; when set,
// the orchestrator skips the vision fetch and uses it as-is.
type QueryRequest struct {
	Text                 string
	SessionID            string
	IncludeHistory       bool
	AuxiliaryContext     string
	ApplyStyleConversion bool
}

func (q *QueryRequest) Validate() error {
	if q.Text == "" {
		return ErrInvalidRequest
	}
	return nil
}
