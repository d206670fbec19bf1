package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/gamelingo/internal/types"
)

// openaiCompleter implements Completer for OpenAI and compatible APIs.
type openaiCompleter struct {
	client openai.Client
	cfg    completerConfig
}

func newOpenAICompleter(cfg completerConfig, compatible bool) *openaiCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey),
		// Retries are handled by the translator so every backend behaves the same.
		option.WithMaxRetries(0),
	}
	if compatible && cfg.baseURL != "" {
		opts = append(opts, option.WithBaseURL(apiRoot(cfg.baseURL)))
	}
	if cfg.http != nil {
		opts = append(opts, option.WithHTTPClient(cfg.http))
	}
	return &openaiCompleter{client: openai.NewClient(opts...), cfg: cfg}
}

// apiRoot accepts either an API root or a full chat completions endpoint.
func apiRoot(baseURL string) string {
	return strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/chat/completions")
}

func (c *openaiCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	if c.cfg.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.cfg.maxTokens))
	}
	if c.cfg.temperature > 0 {
		params.Temperature = openai.Float(c.cfg.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", types.Usage{}, fmt.Errorf("no choices")
	}

	usage := types.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	return resp.Choices[0].Message.Content, usage, nil
}
