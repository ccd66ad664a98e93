// Package llm provides chat-completion clients for the model backends
// the engine can run against: a local Ollama server, Anthropic models
// on AWS Bedrock, and the OpenAI API. Every client speaks the same
// Request/Response types, so callers switch providers through
// configuration alone.
package llm

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

import "context"

// StreamHandler receives each text delta as the model produces it.
// Returning a non-nil error aborts the stream.
type StreamHandler func(delta string) error

// Client generates chat completions.
//
// Generate blocks until the full response is available. GenerateStream
// forwards text deltas to handler as they arrive and returns the
// assembled response once the model finishes.
type Client interface {
	Generate(ctx context.Context, request Request) (*Response, error)
	GenerateStream(ctx context.Context, request Request, handler StreamHandler) (*Response, error)
}
