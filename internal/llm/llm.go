package llm

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/movieagent/internal/config"
)

var defaultBaseURLs = map[string]string{
	"groq":   "https://api.groq.com/openai/v1",
	"openai": "https://api.openai.com/v1",
	"ollama": "http://localhost:11434/v1",
}

// NewClient creates an OpenAI-compatible client for the configured provider.
// Providers other than azure speak the OpenAI wire format and differ only in
// base URL; an explicit base_url always wins.
func NewClient(cfg config.LLMConfig) (*openai.Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "groq"
	}

	if provider == "azure" {
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider azure requires base_url")
		}
		return openai.NewClientWithConfig(openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)), nil
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = defaultBaseURLs[provider]
		if !ok {
			return nil, fmt.Errorf("llm provider %q requires base_url", cfg.Provider)
		}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL

	return openai.NewClientWithConfig(clientCfg), nil
}
