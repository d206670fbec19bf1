package translator

import (
	"context"
	"log/slog"
	"time"

	"go.aimuz.me/gamelingo/cache"
	"go.aimuz.me/gamelingo/internal/resilience"
	"go.aimuz.me/gamelingo/textsim"
)

// WithRetry retries temporary provider failures with exponential backoff.
// A nil cfg.IsRetryable retries errors whose ProviderError is Retryable.
func WithRetry(p Provider, cfg resilience.Config) Provider {
	return ProviderFunc(func(ctx context.Context, text, source, target string) (string, error) {
		var out string
		err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
			var err error
			out, err = p.Translate(ctx, text, source, target)
			return err
		})
		return out, err
	})
}

// Memory persists translations across runs.
type Memory interface {
	Get(key string) (*cache.Entry, bool)
	Set(key string, entry *cache.Entry, ttl time.Duration) error
}

// WithMemory consults mem before calling p and records successful results.
// name distinguishes providers whose output differs for the same input.
// Memory failures are logged and never fail the translation.
func WithMemory(p Provider, name string, mem Memory) Provider {
	return ProviderFunc(func(ctx context.Context, text, source, target string) (string, error) {
		key := cache.GenerateKey(name, source, target, textsim.Normalize(text))
		if entry, ok := mem.Get(key); ok {
			return entry.Text, nil
		}

		out, err := p.Translate(ctx, text, source, target)
		if err != nil {
			return "", err
		}

		entry := &cache.Entry{Text: out, CreatedAt: time.Now()}
		if err := mem.Set(key, entry, cache.DefaultTTL); err != nil {
			slog.Warn("store translation memory", "error", err)
		}
		return out, nil
	})
}
