package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.aimuz.me/gamelingo/cache"
	"go.aimuz.me/gamelingo/config"
	"go.aimuz.me/gamelingo/framehash"
	"go.aimuz.me/gamelingo/gamepad"
	"go.aimuz.me/gamelingo/hotkey"
	"go.aimuz.me/gamelingo/internal/app"
	"go.aimuz.me/gamelingo/internal/input"
	"go.aimuz.me/gamelingo/internal/resilience"
	"go.aimuz.me/gamelingo/llm"
	"go.aimuz.me/gamelingo/ocr"
	"go.aimuz.me/gamelingo/overlay"
	"go.aimuz.me/gamelingo/screenshot"
	"go.aimuz.me/gamelingo/translator"
	"go.aimuz.me/gamelingo/tts"
)

func newRunCommand(c *cli) *cobra.Command {
	var noHotkeys, noGamepad bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start capturing and translating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, !noHotkeys, !noGamepad)
		},
	}
	cmd.Flags().BoolVar(&noHotkeys, "no-hotkeys", false, "do not install the global keyboard hook")
	cmd.Flags().BoolVar(&noGamepad, "no-gamepad", false, "do not read gamepad buttons")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, hotkeys, pad bool) error {
	slog.Info("starting gamelingo",
		"version", version,
		"config", cfg.File(),
		"source", cfg.SourceLanguage,
		"target", cfg.TargetLanguage,
		"regions", len(cfg.Regions))

	provider, closeProvider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	defer closeProvider()

	coord := translator.NewCoordinator(provider, translator.Config{
		Source:    cfg.SourceLanguage,
		Target:    cfg.TargetLanguage,
		Threshold: cfg.SimilarityThreshold,
		CacheSize: cfg.TranslationCacheSize,
	})

	display := overlay.New()
	ocrOpts := ocr.Options{TesseractPath: cfg.TesseractPath, Preprocess: cfg.PreprocessImage}
	svc := app.New(cfg, app.Options{
		Capturer:    screenshot.NewCapturer(),
		OCR:         func() (ocr.Engine, error) { return ocr.New(cfg.OCREngine, ocrOpts) },
		Coordinator: coord,
		Detector:    newDetector(cfg),
		Display:     display,
		Speaker:     newSpeaker(cfg),
	})

	dispatcher := input.NewDispatcher(input.NewDebouncer(input.DefaultDebounce), svc.Trigger)
	dispatcher.Bind(app.Bindings(cfg))

	if hotkeys {
		hk := hotkey.NewManager(dispatcher.Handle)
		if err := hk.Start(); err != nil {
			slog.Error("start hotkey", "error", err)
		} else {
			defer hk.Stop()
		}
	}
	if pad && cfg.GamepadDevice != "" {
		go gamepad.NewManager(gamepad.DeviceOpener(cfg.GamepadDevice), dispatcher.Handle).Run(ctx)
	}

	if cfg.File() != "" {
		if err := config.Watch(ctx, cfg.File(), func(next *config.Config) {
			svc.ApplyConfig(next)
			dispatcher.Bind(app.Bindings(next))
		}); err != nil {
			slog.Warn("config reload disabled", "error", err)
		}
	}

	go func() {
		if err := display.ListenAndServe(ctx, cfg.OverlayAddr); err != nil {
			slog.Error("overlay server", "addr", cfg.OverlayAddr, "error", err)
		}
	}()

	err = svc.Run(ctx)
	slog.Info("shutdown complete")
	return err
}

// newProvider builds the configured translation backend with retries and,
// when enabled, the persistent translation memory. The returned func
// releases the memory store.
func newProvider(cfg *config.Config) (translator.Provider, func(), error) {
	var (
		p    translator.Provider
		name string
	)
	switch cfg.Translator {
	case "", "google":
		p, name = translator.NewGoogle("", nil), "google"
	case "llm":
		if cfg.LLM == nil {
			return nil, nil, errors.New("translator is llm but no llm section is configured")
		}
		l := cfg.LLM
		completer := llm.NewCompleter(l.Type, l.APIKey, l.BaseURL, l.Model, llm.Options{
			MaxTokens:   l.MaxTokens,
			Temperature: l.Temperature,
		})
		p, name = llm.NewProvider(completer, l.SystemPrompt), "llm:"+l.Model
	default:
		return nil, nil, fmt.Errorf("unknown translator: %q", cfg.Translator)
	}

	p = translator.WithRetry(p, resilience.DefaultConfig())

	if !cfg.TranslationMemory {
		return p, func() {}, nil
	}
	store, err := cache.Open(cfg.CacheDir())
	if err != nil {
		slog.Error("open translation memory", "path", cfg.CacheDir(), "error", err)
		return p, func() {}, nil
	}
	slog.Info("translation memory enabled", "path", cfg.CacheDir())
	return translator.WithMemory(p, name, store), func() {
		if err := store.Close(); err != nil {
			slog.Error("close translation memory", "error", err)
		}
	}, nil
}

func newDetector(cfg *config.Config) app.ChangeDetector {
	if cfg.ChangeDetection == "perceptual" {
		return framehash.NewPerceptualDetector(cfg.PerceptualDistance)
	}
	return framehash.NewDetector()
}

// newSpeaker is built even with tts disabled so a config reload can turn
// speech on.
func newSpeaker(cfg *config.Config) tts.Speaker {
	player, err := tts.FindPlayer(cfg.TTSPlayer)
	if err != nil {
		slog.Warn("text-to-speech unavailable", "error", err)
		return tts.Nop{}
	}
	return tts.NewGoogle("", nil, player)
}
