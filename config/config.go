// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"go.aimuz.me/gamelingo/translator"
)

const (
	appName        = "gamelingo"
	configFileName = "config.json"
	cacheDirName   = "cache"
)

// Region is a rectangle of the screen to capture. Monitor 0 means X and Y are
// absolute virtual-screen coordinates; N >= 1 makes them relative to display N.
type Region struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Monitor int    `json:"monitor"`
}

// LLM configures the language-model translator.
type LLM struct {
	Type         string  `json:"type"` // "openai", "openai-compatible", "ollama"
	BaseURL      string  `json:"base_url,omitempty"`
	APIKey       string  `json:"api_key,omitempty"`
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	// Legacy single region (deprecated, migrated into Regions)
	Region *Region `json:"region,omitempty"`

	SourceLanguage  string   `json:"source_language"`
	TargetLanguage  string   `json:"target_language"`
	Regions         []Region `json:"regions"`
	CaptureInterval float64  `json:"capture_interval"` // seconds

	// Input
	HotkeyMode           bool   `json:"hotkey_mode"`
	TranslateHotkey      string `json:"translate_hotkey"`
	TTSHotkey            string `json:"tts_hotkey"`
	TranslatedTTSHotkey  string `json:"translated_tts_hotkey"`
	TranslateGamepad     int    `json:"translate_gamepad"`
	TTSGamepad           int    `json:"tts_gamepad"`
	TranslatedTTSGamepad int    `json:"translated_tts_gamepad"`
	GamepadDevice        string `json:"gamepad_device,omitempty"`

	// OCR
	OCREngine       string `json:"ocr_engine"` // "tesseract" or "gosseract"
	TesseractPath   string `json:"tesseract_path,omitempty"`
	PreprocessImage bool   `json:"preprocess_image"`

	// Translation
	Translator           string  `json:"translator"` // "google" or "llm"
	LLM                  *LLM    `json:"llm,omitempty"`
	TranslationCacheSize int     `json:"translation_cache_size"`
	SimilarityThreshold  float64 `json:"similarity_threshold"`
	TranslationMemory    bool    `json:"translation_memory"`

	// Change detection
	ChangeDetection    string `json:"change_detection"` // "exact" or "perceptual"
	PerceptualDistance int    `json:"perceptual_distance"`

	// Output
	OverlayAddr string `json:"overlay_addr"`
	TTSEnabled  bool   `json:"tts_enabled"`
	TTSPlayer   string `json:"tts_player,omitempty"`

	path string
}

// Defaults
const (
	DefaultSourceLanguage      = "it"
	DefaultTargetLanguage      = "en"
	DefaultCaptureInterval     = 1.5
	DefaultCacheSize           = 100
	DefaultSimilarityThreshold = 0.85
	DefaultPerceptualDistance  = 4
	DefaultOverlayAddr         = "127.0.0.1:8765"
	DefaultGamepadDevice       = "/dev/input/js0"
)

// Load loads configuration from the default config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path. Save writes back to the same path.
// A missing file is created with the defaults, and a file whose regions had to
// be migrated or given IDs is rewritten, so region IDs stay stable across loads.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			if err := cfg.Save(); err != nil {
				slog.Warn("write default config", "path", path, "error", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Unset fields keep their defaults.
	cfg := Default()
	cfg.Regions = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.path = path
	migrated := cfg.migrateLegacyRegion()
	assigned := cfg.ensureRegionIDs()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if migrated || assigned {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("save migrated config: %w", err)
		}
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := Path()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		path = p
		c.path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Write then rename so a watcher never sees a half-written file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}

	return nil
}

// File returns the path the configuration is loaded from and saved to.
func (c *Config) File() string {
	return c.path
}

// Interval returns CaptureInterval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CaptureInterval * float64(time.Second))
}

// CacheDir returns the directory for the persistent translation memory.
func (c *Config) CacheDir() string {
	return filepath.Join(filepath.Dir(c.path), cacheDirName)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.SourceLanguage != translator.AutoDetect && !translator.IsSupported(c.SourceLanguage) {
		errs = append(errs, fmt.Errorf("unsupported source language: %q", c.SourceLanguage))
	}
	if !translator.IsSupported(c.TargetLanguage) {
		errs = append(errs, fmt.Errorf("unsupported target language: %q", c.TargetLanguage))
	}
	if c.CaptureInterval <= 0 {
		errs = append(errs, fmt.Errorf("capture interval must be positive: %v", c.CaptureInterval))
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("similarity threshold must be in (0, 1]: %v", c.SimilarityThreshold))
	}
	if c.TranslationCacheSize < 1 {
		errs = append(errs, fmt.Errorf("translation cache size must be at least 1: %d", c.TranslationCacheSize))
	}
	for _, r := range c.Regions {
		if err := validateRegion(r); err != nil {
			errs = append(errs, err)
		}
	}
	if !lo.Contains([]string{"google", "llm"}, c.Translator) {
		errs = append(errs, fmt.Errorf("unknown translator: %q", c.Translator))
	}
	if c.Translator == "llm" {
		if c.LLM == nil || c.LLM.Model == "" {
			errs = append(errs, errors.New("llm translator requires llm.model"))
		} else if c.LLM.Type == "openai-compatible" && c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("base url required for openai-compatible"))
		}
	}
	if !lo.Contains([]string{"exact", "perceptual"}, c.ChangeDetection) {
		errs = append(errs, fmt.Errorf("unknown change detection: %q", c.ChangeDetection))
	}

	return errors.Join(errs...)
}

func validateRegion(r Region) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("region %s: size must be positive: %dx%d", r.ID, r.Width, r.Height)
	}
	if r.Monitor < 0 {
		return fmt.Errorf("region %s: monitor must not be negative: %d", r.ID, r.Monitor)
	}
	return nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SourceLanguage:       DefaultSourceLanguage,
		TargetLanguage:       DefaultTargetLanguage,
		Regions:              []Region{DefaultRegion()},
		CaptureInterval:      DefaultCaptureInterval,
		TranslateHotkey:      "<65>",
		TTSHotkey:            "<110>",
		TranslatedTTSHotkey:  "<107>",
		TranslateGamepad:     0,
		TTSGamepad:           1,
		TranslatedTTSGamepad: 2,
		GamepadDevice:        DefaultGamepadDevice,
		OCREngine:            "tesseract",
		PreprocessImage:      true,
		Translator:           "google",
		TranslationCacheSize: DefaultCacheSize,
		SimilarityThreshold:  DefaultSimilarityThreshold,
		ChangeDetection:      "exact",
		PerceptualDistance:   DefaultPerceptualDistance,
		OverlayAddr:          DefaultOverlayAddr,
		TTSEnabled:           true,
	}
}

// DefaultRegion returns a fresh region covering a subtitle-sized strip.
func DefaultRegion() Region {
	return Region{ID: uuid.New().String(), Width: 800, Height: 200}
}

// ─────────────────────────────────────────────────────────────────────────────
// Migration from Legacy Format
// ─────────────────────────────────────────────────────────────────────────────

// migrateLegacyRegion moves the deprecated single region into Regions and
// reports whether anything changed.
func (c *Config) migrateLegacyRegion() bool {
	changed := c.Region != nil
	if len(c.Regions) == 0 {
		if c.Region != nil {
			c.Regions = []Region{*c.Region}
		} else {
			c.Regions = []Region{DefaultRegion()}
		}
		changed = true
	}
	c.Region = nil
	return changed
}

// ensureRegionIDs gives every region without an ID a new one and reports
// whether any was assigned.
func (c *Config) ensureRegionIDs() bool {
	assigned := false
	for i := range c.Regions {
		if c.Regions[i].ID == "" {
			c.Regions[i].ID = uuid.New().String()
			assigned = true
		}
	}
	return assigned
}

// ─────────────────────────────────────────────────────────────────────────────
// Region Management
// ─────────────────────────────────────────────────────────────────────────────

// SetRegion replaces every region with r.
func (c *Config) SetRegion(r Region) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if err := validateRegion(r); err != nil {
		return err
	}
	c.Regions = []Region{r}
	return c.Save()
}

// AddRegion appends r and returns its ID.
func (c *Config) AddRegion(r Region) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if err := validateRegion(r); err != nil {
		return "", err
	}
	if slices.ContainsFunc(c.Regions, func(x Region) bool { return x.ID == r.ID }) {
		return "", fmt.Errorf("region already exists: %s", r.ID)
	}
	c.Regions = append(c.Regions, r)
	return r.ID, c.Save()
}

// UpdateRegion replaces the region with the given ID, keeping the ID.
func (c *Config) UpdateRegion(id string, r Region) error {
	idx := slices.IndexFunc(c.Regions, func(x Region) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("region not found: %s", id)
	}

	r.ID = id // Preserve ID
	if err := validateRegion(r); err != nil {
		return err
	}
	c.Regions[idx] = r
	return c.Save()
}

// RemoveRegion removes a region by ID. Removing the last region leaves a
// default region in its place.
func (c *Config) RemoveRegion(id string) error {
	idx := slices.IndexFunc(c.Regions, func(x Region) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("region not found: %s", id)
	}

	c.Regions = slices.Delete(c.Regions, idx, idx+1)
	if len(c.Regions) == 0 {
		c.Regions = []Region{DefaultRegion()}
	}
	return c.Save()
}

// ClearRegions resets to a single default region.
func (c *Config) ClearRegions() error {
	c.Regions = []Region{DefaultRegion()}
	return c.Save()
}

// FindRegion returns the region whose ID starts with prefix, so the CLI can
// accept shortened IDs. Ambiguous prefixes match nothing.
func (c *Config) FindRegion(prefix string) (Region, bool) {
	matches := lo.Filter(c.Regions, func(r Region, _ int) bool {
		return len(prefix) > 0 && len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix
	})
	if len(matches) != 1 {
		return Region{}, false
	}
	return matches[0], true
}
