package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/movieagent/internal/conversation"
)

// Client is minimal subset of openai.Client used by the agent; it is easy to mock in tests.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Request is one completion call: ordered messages plus sampling bounds.
type Request struct {
	Messages    []conversation.Message
	Temperature float32
	MaxTokens   int
}

// Chat sends ordered messages to a completion endpoint and returns the generated text.
type Chat interface {
	Complete(ctx context.Context, req Request) (string, error)
}
