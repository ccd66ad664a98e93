package api

import (
	"fmt"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
)

// QueryRequest is the body of the streaming query endpoints. Field
// names follow the original avatar API contract.
type QueryRequest struct {
	TextUserMsg     string `json:"text_user_msg" description:"user question, required"`
	SessionID       string `json:"session_id" description:"conversation session id, defaults to \"default\""`
	IncludeHistory  *bool  `json:"include_history,omitempty" description:"include prior exchanges in the prompt, defaults to true"`
	UserDescription string `json:"user_description,omitempty" description:"visual description of the user; overrides the vision service"`
	ConvertTone     *bool  `json:"convert_tone,omitempty" description:"restyle the answer for the detected audience"`
}

// SetDefaults fills unset optional fields. defaultConvert differs per
// endpoint: /query leaves the answer as generated, /query-with-tone
// restyles it.
func (q *QueryRequest) SetDefaults(defaultConvert bool) {
	if q.SessionID == "" {
		q.SessionID = "default"
	}
	if q.IncludeHistory == nil {
		v := true
		q.IncludeHistory = &v
	}
	if q.ConvertTone == nil {
		v := defaultConvert
		q.ConvertTone = &v
	}
}

func (q *QueryRequest) Validate() error {
	if q.TextUserMsg == "" {
		return fmt.Errorf("%w: text_user_msg is required", models.ErrInvalidRequest)
	}
	return nil
}

// ConvertToneRequest is the body of the standalone tone conversion
// endpoint.
type ConvertToneRequest struct {
	Text            string `json:"text" description:"text to restyle, required"`
	Tone            string `json:"tone" description:"child_friendly, elder_friendly, professional_friendly or casual_friendly"`
	Stream          *bool  `json:"stream,omitempty" description:"stream the converted text, defaults to true"`
	UserDescription string `json:"user_description,omitempty"`
	UserMsg         string `json:"user_msg,omitempty" description:"original user message the text answers"`
}

func (c *ConvertToneRequest) SetDefaults() {
	if c.Tone == "" {
		c.Tone = "child_friendly"
	}
	if c.Stream == nil {
		v := true
		c.Stream = &v
	}
}

// ConvertToneResponse is the non-streaming conversion result.
type ConvertToneResponse struct {
	Success         bool   `json:"success"`
	OriginalText    string `json:"original_text"`
	ConvertedText   string `json:"converted_text"`
	Tone            string `json:"tone"`
	UserDescription string `json:"user_description,omitempty"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	RAGInitialized bool   `json:"rag_initialized"`
	Timestamp      string `json:"timestamp"`
}

type HistoryResponse struct {
	SessionID    string           `json:"session_id"`
	History      []models.Message `json:"history"`
	MessageCount int              `json:"message_count"`
}

type ClearHistoryResponse struct {
	SessionID       string `json:"session_id"`
	Message         string `json:"message"`
	MessagesCleared int    `json:"messages_cleared"`
}

type CloseSessionRequest struct {
	SessionID string `json:"session_id"`
}

type CloseSessionResponse struct {
	Success         bool   `json:"success"`
	SessionID       string `json:"session_id"`
	Message         string `json:"message"`
	SessionExisted  bool   `json:"session_existed"`
	MessagesCleared int    `json:"messages_cleared"`
	Timestamp       string `json:"timestamp"`
}

type InitResponse struct {
	Success        bool   `json:"success"`
	RAGInitialized bool   `json:"rag_initialized"`
	Message        string `json:"message"`
}

// WarmupTarget reports one warmed model path.
type WarmupTarget struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TimeMS  int64  `json:"time_ms"`
}

type WarmupResponse struct {
	EmbeddingModel WarmupTarget `json:"embedding_model"`
	LLMModel       WarmupTarget `json:"llm_model"`
	OverallSuccess bool         `json:"overall_success"`
	Timestamp      string       `json:"timestamp"`
}
