package dialogue

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Completer is the part of the chat-completions API the assistant uses.
// *openai.Client implements it.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient creates an OpenAI-compatible client. An empty baseURL keeps
// the OpenAI default.
func NewClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(cfg)
}
