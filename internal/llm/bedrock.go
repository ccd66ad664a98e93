package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const anthropicVersion = "bedrock-2023-05-31"

// Bedrock rejects Claude requests that omit max_tokens.
const defaultBedrockMaxTokens = 1024

// BedrockClient generates through Anthropic models hosted on AWS
// Bedrock.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClient loads the default AWS configuration for the given
// region and returns a client bound to modelID.
func NewBedrockClient(ctx context.Context, region, modelID string) (*BedrockClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// Claude API request format (what Bedrock expects). System
// instructions are a top-level field, not a message role.
type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature,omitempty"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Claude API response format (what Bedrock returns).
type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *BedrockClient) payload(request Request) ([]byte, error) {
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultBedrockMaxTokens
	}

	var system strings.Builder
	messages := make([]claudeMessage, 0, len(request.Messages))
	for _, m := range request.Messages {
		if m.Role == RoleSystem {
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
			continue
		}
		messages = append(messages, claudeMessage{Role: m.Role, Content: m.Content})
	}

	return json.Marshal(claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      request.Temperature,
		System:           system.String(),
		Messages:         messages,
	})
}

func (c *BedrockClient) Generate(ctx context.Context, request Request) (*Response, error) {
	body, err := c.payload(request)
	if err != nil {
		return nil, fmt.Errorf("marshaling bedrock request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoking bedrock model: %w", err)
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("unmarshaling bedrock response: %w", err)
	}

	var content string
	if len(response.Content) > 0 {
		content = response.Content[0].Text
	}
	return &Response{Content: content, StopReason: response.StopReason}, nil
}

func (c *BedrockClient) GenerateStream(ctx context.Context, request Request, handler StreamHandler) (*Response, error) {
	body, err := c.payload(request)
	if err != nil {
		return nil, fmt.Errorf("marshaling bedrock request: %w", err)
	}

	output, err := c.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     &c.modelID,
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("invoking bedrock model stream: %w", err)
	}

	stream := output.GetStream()
	defer stream.Close()

	var content strings.Builder
	var stopReason string

	for event := range stream.Events() {
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			continue
		}

		// Claude sends several event shapes down the same stream;
		// decode the fields we care about and skip the rest.
		var parsed struct {
			Delta struct {
				Text       string `json:"text"`
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			ContentBlock struct {
				Text string `json:"text"`
			} `json:"content_block"`
		}
		if err := json.Unmarshal(chunk.Value.Bytes, &parsed); err != nil {
			continue
		}

		delta := parsed.Delta.Text
		if delta == "" {
			delta = parsed.ContentBlock.Text
		}
		if delta != "" {
			content.WriteString(delta)
			if handler != nil {
				if err := handler(delta); err != nil {
					return nil, fmt.Errorf("stream handler: %w", err)
				}
			}
		}
		if parsed.Delta.StopReason != "" {
			stopReason = parsed.Delta.StopReason
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("reading bedrock stream: %w", err)
	}

	return &Response{Content: content.String(), StopReason: stopReason}, nil
}
