package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"

	"go.aimuz.me/gamelingo/translator"
)

// DefaultSystemPrompt instructs the model to behave as a plain translator.
const DefaultSystemPrompt = "You are a translator for video game text. " +
	"Translate the user's text faithfully, keep names and numbers unchanged, " +
	"and output only the translation."

// Provider adapts a Completer to translator.Provider.
type Provider struct {
	completer    Completer
	systemPrompt string
}

// NewProvider returns a Provider. An empty systemPrompt selects DefaultSystemPrompt.
func NewProvider(c Completer, systemPrompt string) *Provider {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Provider{completer: c, systemPrompt: systemPrompt}
}

func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	msgs := buildTranslateMessages(p.systemPrompt, text, source, target)

	out, _, err := p.completer.Complete(ctx, msgs)
	if err != nil {
		return "", &translator.ProviderError{Provider: "llm", Retryable: isTemporary(err), Err: err}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", &translator.ProviderError{Provider: "llm", Err: errors.New("empty completion")}
	}
	return out, nil
}

func buildTranslateMessages(systemPrompt, text, source, target string) []Message {
	from := languageName(source)
	content := fmt.Sprintf(
		"please translate the following text from %s to %s:\n\n%s",
		from, languageName(target), text,
	)
	if source == translator.AutoDetect || source == "" {
		content = fmt.Sprintf(
			"please translate the following text to %s:\n\n%s",
			languageName(target), text,
		)
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	}
}

func languageName(code string) string {
	if name, ok := translator.Languages[code]; ok {
		return name
	}
	return code
}

func isTemporary(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Transport failures never reached the API.
	return true
}
