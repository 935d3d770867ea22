// Package llmclient wraps the external language-model capability the core
// consumes as GenerateReply({model, instructions, prompt, temperature,
// maxTokens}) -> text | error (spec §6). It is the only place this module
// talks to an actual LLM API, built the way the reference backend layers
// langchaingo's llms.LLM over a concrete provider client.
package llmclient

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// Request is the capability contract's input per spec §6.
type Request struct {
	Model        string
	Instructions string
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// Client is the GenerateReply capability: fallible, never retried by the
// caller — any error is routed to the local bot fallback by internal/botreply.
type Client interface {
	GenerateReply(ctx context.Context, req Request) (string, error)
}

// langchainClient is the primary implementation, built on langchaingo's
// llms.LLM the same way the reference backend's internal/agent.Agent wraps
// openai.New(...) and drives it through the llms package helpers rather
// than calling the provider SDK directly.
type langchainClient struct {
	llm llms.LLM
}

// New constructs the primary client against an OpenAI-compatible endpoint.
// Grounded on internal/agent.NewAgent's openai.New(...) construction. If
// langchaingo's client construction itself fails, New falls back to
// NewDirect rather than leaving the caller without a client.
func New(apiKey string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llmclient: empty API key")
	}
	llm, err := lcopenai.New(lcopenai.WithToken(apiKey))
	if err != nil {
		direct, directErr := NewDirect(apiKey)
		if directErr != nil {
			return nil, fmt.Errorf("llmclient: failed to construct model client: %w", err)
		}
		return direct, nil
	}
	return &langchainClient{llm: llm}, nil
}

// GenerateReply folds the system instructions into the single prompt string
// llms.LLM.Call expects in this version of langchaingo, mirroring
// internal/agent.Agent.GenerateResponse's use of llms.GenerateFromSinglePrompt
// over a plain prompt rather than a chat-message list.
func (c *langchainClient) GenerateReply(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if req.Instructions != "" {
		prompt = "System: " + req.Instructions + "\n\n" + req.Prompt
	}

	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}

	text, err := c.llm.Call(ctx, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("llmclient: generate failed: %w", err)
	}
	return text, nil
}

// directClient is a secondary implementation built directly on
// sashabaranov/go-openai — the lower-level client langchaingo/llms/openai
// itself wraps. Kept as an explicit fallback construction path so a
// deployment can route around langchaingo's abstraction if needed, mirroring
// the reference backend's own two-layer client usage.
type directClient struct {
	api *openai.Client
}

// NewDirect constructs the secondary client directly against go-openai.
func NewDirect(apiKey string) (Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llmclient: empty API key")
	}
	return &directClient{api: openai.NewClient(apiKey)}, nil
}

func (c *directClient) GenerateReply(ctx context.Context, req Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Instructions},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llmclient: direct generate failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmclient: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
