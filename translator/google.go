package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGoogleURL is the public endpoint used by the free web translator.
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// Google translates through the unauthenticated Google Translate web endpoint.
type Google struct {
	http    *http.Client
	baseURL string
}

// NewGoogle returns a Google provider. An empty baseURL selects
// DefaultGoogleURL and a nil client selects one with a 10s timeout.
func NewGoogle(baseURL string, client *http.Client) *Google {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Google{http: client, baseURL: baseURL}
}

func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = AutoDetect
	}
	q := url.Values{
		"client": {"gtx"},
		"sl":     {source},
		"tl":     {target},
		"dt":     {"t"},
		"q":      {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", &ProviderError{Provider: "google", Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", &ProviderError{
			Provider:  "google",
			Retryable: !errors.Is(err, context.Canceled),
			Err:       fmt.Errorf("do request: %w", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: "google", Retryable: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider:  "google",
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:       fmt.Errorf("api error: %d - %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	out, err := parseGoogleResponse(body)
	if err != nil {
		return "", &ProviderError{Provider: "google", Err: err}
	}
	return out, nil
}

// parseGoogleResponse extracts the translated segments from the nested array
// payload: [[["translated","original",...],...],...].
func parseGoogleResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("empty response")
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("unmarshal segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no translation in response")
	}
	return sb.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
