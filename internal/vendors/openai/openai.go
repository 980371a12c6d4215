// Package openai adapts an OpenAI-compatible chat completion API to the LLM
// interface. Sampling is fixed: moderate temperature and a short reply
// budget, consistent with the 1-2 sentence dialogue policy.
package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/lyraro/voice-agent/internal/interfaces"
)

const (
	defaultModel = "gpt-4o-mini"

	replyTemperature = 0.4
	replyMaxTokens   = 120
)

type chatLLM struct {
	client *goopenai.Client
	model  string
}

// New returns a chat client for the hosted OpenAI API.
func New(apiKey string) interfaces.LLM {
	return NewWithBaseURLModel(apiKey, "", "")
}

// NewWithBaseURLModel creates a client with a custom base URL (any
// OpenAI-compatible endpoint) and model.
func NewWithBaseURLModel(apiKey, baseURL, model string) interfaces.LLM {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &chatLLM{client: goopenai.NewClientWithConfig(cfg), model: model}
}

func (c *chatLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
		Messages:    make([]goopenai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
