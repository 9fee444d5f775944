package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/movieagent/internal/logger"
)

// ErrEmptyCompletion is returned when the endpoint answers without any choice.
var ErrEmptyCompletion = errors.New("llm returned no choices")

// OpenAIChat implements Chat on top of an OpenAI-compatible Client.
type OpenAIChat struct {
	client Client
	model  string
}

var _ Chat = (*OpenAIChat)(nil)

// NewChat wraps client for the given model.
func NewChat(client Client, model string) *OpenAIChat {
	return &OpenAIChat{client: client, model: model}
}

// Complete sends one chat completion request and returns the first choice's text.
func (c *OpenAIChat) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	logger.L.Debug("LLM response received", "model", c.model, "finish_reason", resp.Choices[0].FinishReason, "tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
