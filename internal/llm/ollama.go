package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultOllamaBaseURL is where the engine expects a local Ollama
// server, matching the embedding client's default.
const DefaultOllamaBaseURL = "http://localhost:11435"

// OllamaClient generates through a local Ollama server's /api/chat
// endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient returns a client for the given server and model.
// The underlying HTTP client carries no timeout: streamed generations
// can legitimately run for minutes, so cancellation comes from the
// request context.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Message         `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatChunk is one line of a streamed response, and also the
// whole body of a non-streamed one.
type ollamaChatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
}

func (c *OllamaClient) Generate(ctx context.Context, request Request) (*Response, error) {
	resp, err := c.send(ctx, request, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chunk ollamaChatChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}
	return &Response{Content: chunk.Message.Content, StopReason: chunk.DoneReason}, nil
}

func (c *OllamaClient) GenerateStream(ctx context.Context, request Request, handler StreamHandler) (*Response, error) {
	resp, err := c.send(ctx, request, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var content strings.Builder
	var stopReason string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Skip lines we cannot parse.
			continue
		}
		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			if handler != nil {
				if err := handler(chunk.Message.Content); err != nil {
					return nil, fmt.Errorf("stream handler: %w", err)
				}
			}
		}
		if chunk.Done {
			stopReason = chunk.DoneReason
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ollama stream: %w", err)
	}

	return &Response{Content: content.String(), StopReason: stopReason}, nil
}

func (c *OllamaClient) send(ctx context.Context, request Request, stream bool) (*http.Response, error) {
	payload := ollamaChatRequest{
		Model:    c.model,
		Messages: request.Messages,
		Stream:   stream,
		Options: ollamaChatOptions{
			Temperature: request.Temperature,
			NumPredict:  request.MaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		text, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return resp, nil
}
