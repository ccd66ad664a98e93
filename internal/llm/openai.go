package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient generates through the OpenAI chat-completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient returns a client for the given model, defaulting to
// gpt-4o-mini.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClient) chatRequest(request Request, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(request.Messages))
	for _, m := range request.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(request.Temperature),
		MaxTokens:   request.MaxTokens,
		Stream:      stream,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, request Request) (*Response, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(request, false))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	choice := resp.Choices[0]
	return &Response{Content: choice.Message.Content, StopReason: string(choice.FinishReason)}, nil
}

func (c *OpenAIClient) GenerateStream(ctx context.Context, request Request, handler StreamHandler) (*Response, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.chatRequest(request, true))
	if err != nil {
		return nil, fmt.Errorf("openai chat stream: %w", err)
	}
	defer stream.Close()

	var content strings.Builder
	var stopReason string

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading openai stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if handler != nil {
				if err := handler(choice.Delta.Content); err != nil {
					return nil, fmt.Errorf("stream handler: %w", err)
				}
			}
		}
		if choice.FinishReason != "" {
			stopReason = string(choice.FinishReason)
		}
	}

	return &Response{Content: content.String(), StopReason: stopReason}, nil
}
