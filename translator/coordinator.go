package translator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"go.aimuz.me/gamelingo/cache"
	"go.aimuz.me/gamelingo/textsim"
)

// DefaultThreshold is the similarity at or above which new text is treated as
// OCR noise around the previously translated text.
const DefaultThreshold = 0.85

// ErrorMarker is appended to the previous translation when the provider fails.
const ErrorMarker = " [error]"

// Config configures a Coordinator.
type Config struct {
	Source    string
	Target    string
	Threshold float64 // zero selects DefaultThreshold
	CacheSize int     // zero selects cache.DefaultCapacity
}

// Coordinator decides whether recognized text needs a fresh translation.
// Text that is similar enough to the last translated text reuses the last
// translation, exact repeats are served from an LRU cache, and everything else
// goes to the provider. All methods are safe for concurrent use; calls are
// serialized, including the provider round trip.
type Coordinator struct {
	provider Provider

	mu        sync.Mutex
	source    string
	target    string
	threshold float64
	cache     *cache.LRU

	// Last successfully translated text, normalized, and its translation.
	lastSource      string
	lastTranslation string
}

// NewCoordinator returns a Coordinator translating through p.
func NewCoordinator(p Provider, cfg Config) *Coordinator {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = cache.DefaultCapacity
	}
	return &Coordinator{
		provider:  p,
		source:    cfg.Source,
		target:    cfg.Target,
		threshold: cfg.Threshold,
		cache:     cache.NewLRU(cfg.CacheSize),
	}
}

// Translate returns the translation of text. It never fails: when the
// provider errors it returns the previous translation with ErrorMarker
// appended, or text itself if nothing was translated yet. force skips the
// similarity check against the previous text.
func (c *Coordinator) Translate(ctx context.Context, text string, force bool) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	key := textsim.Normalize(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Similar text short-circuits without touching the cache.
	if !force && c.lastSource != "" && textsim.Similarity(key, c.lastSource) >= c.threshold {
		return c.lastTranslation
	}

	if v, ok := c.cache.Get(key); ok {
		c.lastSource, c.lastTranslation = key, v
		return v
	}

	result, err := c.provider.Translate(ctx, text, c.source, c.target)
	if err != nil {
		slog.Warn("translate", "source", c.source, "target", c.target, "error", err)
		if c.lastTranslation != "" {
			return c.lastTranslation + ErrorMarker
		}
		return text
	}

	c.cache.Put(key, result)
	c.lastSource, c.lastTranslation = key, result
	return result
}

// SetLanguages switches the language pair. Any change drops every cached
// translation and the remembered last text.
func (c *Coordinator) SetLanguages(source, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if source == c.source && target == c.target {
		return
	}
	c.source, c.target = source, target
	c.reset()
	slog.Info("translation languages changed", "source", source, "target", target)
}

// Languages returns the current source and target languages.
func (c *Coordinator) Languages() (source, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, c.target
}

// SetThreshold changes the similarity threshold. Non-positive values select
// DefaultThreshold.
func (c *Coordinator) SetThreshold(threshold float64) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	c.mu.Lock()
	c.threshold = threshold
	c.mu.Unlock()
}

// ClearCache drops every cached translation and the remembered last text.
func (c *Coordinator) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Last returns the last successful translation, if any.
func (c *Coordinator) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTranslation
}

func (c *Coordinator) reset() {
	c.cache.Clear()
	c.lastSource, c.lastTranslation = "", ""
}
