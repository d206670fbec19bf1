// Package llm translates through chat-completion language models.
package llm

import (
	"context"
	"net/http"

	"go.aimuz.me/gamelingo/internal/types"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures LLM completion behavior.
type Options struct {
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client // nil uses the SDK default
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// completerConfig holds all parameters needed by completers.
type completerConfig struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

// NewCompleter creates a Completer for the given provider type. Every
// supported type speaks the OpenAI chat completions protocol; "openai" ignores
// baseURL, the others require it.
func NewCompleter(apiType, apiKey, baseURL, model string, opts Options) Completer {
	cfg := completerConfig{
		http:        opts.HTTPClient,
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}

	switch apiType {
	case "openai-compatible", "ollama":
		return newOpenAICompleter(cfg, true)
	default:
		return newOpenAICompleter(cfg, false)
	}
}
