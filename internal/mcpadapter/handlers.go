// Package mcpadapter exposes the RAG engine as MCP tools over stdio.
package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/models"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/orchestrator"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/retriever"
)

// QueryInput is the MCP tool input schema (matches HTTP API field names).
type QueryInput struct {
	Question        string `json:"text_user_msg" jsonschema:"user question to answer"`
	SessionID       string `json:"session_id,omitempty" jsonschema:"conversation session id, defaults to default"`
	IncludeHistory  bool   `json:"include_history,omitempty" jsonschema:"include prior exchanges in the prompt"`
	UserDescription string `json:"user_description,omitempty" jsonschema:"optional visual description of the user"`
	ConvertTone     bool   `json:"convert_tone,omitempty" jsonschema:"restyle the answer for the detected audience"`
}

// QueryOutput is the buffered answer returned to the MCP client.
type QueryOutput struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

// NewQueryHandler returns a tool handler that runs a full RAG exchange
// and buffers the answer. Pass the returned function to mcp.AddTool.
func NewQueryHandler(orch *orchestrator.Orchestrator) func(context.Context, *mcp.CallToolRequest, QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
		sessionID := input.SessionID
		if sessionID == "" {
			sessionID = orchestrator.DefaultSessionID
		}

		answer, err := orch.Answer(ctx, models.QueryRequest{
			Text:                 input.Question,
			SessionID:            sessionID,
			IncludeHistory:       input.IncludeHistory,
			AuxiliaryContext:     input.UserDescription,
			ApplyStyleConversion: input.ConvertTone,
		})
		if err != nil {
			return nil, QueryOutput{}, err
		}
		return nil, QueryOutput{Answer: answer, SessionID: sessionID}, nil
	}
}

// SearchInput is the MCP tool input schema for raw retrieval.
type SearchInput struct {
	Query string `json:"query" jsonschema:"search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 10)"`
}

// SearchOutput carries the ranked retrieval results.
type SearchOutput struct {
	Results []models.RetrievalResult `json:"results"`
	Count   int                      `json:"count"`
}

// NewSearchHandler returns a tool handler that runs hybrid retrieval
// without generation. Pass the returned function to mcp.AddTool.
func NewSearchHandler(retrieval *retriever.Service) func(context.Context, *mcp.CallToolRequest, SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		results, err := retrieval.Search(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		return nil, SearchOutput{Results: results, Count: len(results)}, nil
	}
}
