// Package app runs the capture, OCR and translation pipeline.
package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"go.aimuz.me/gamelingo/config"
	"go.aimuz.me/gamelingo/internal/input"
	"go.aimuz.me/gamelingo/internal/types"
	"go.aimuz.me/gamelingo/langdetect"
	"go.aimuz.me/gamelingo/ocr"
	"go.aimuz.me/gamelingo/translator"
	"go.aimuz.me/gamelingo/tts"
)

// Capturer grabs a screen region.
type Capturer interface {
	CaptureRegion(r config.Region) (image.Image, error)
}

// Display shows translation results.
type Display interface {
	Show(r types.Result)
}

// StatusDisplay is implemented by displays that can also show pipeline state.
type StatusDisplay interface {
	SetStatus(st types.Status)
}

// ChangeDetector reports whether a region's frame differs from the last one.
type ChangeDetector interface {
	HasChanged(sourceID string, img image.Image) bool
	Forget(sourceID string)
	Reset()
}

// EngineFactory creates the OCR engine. It is called by the pipeline worker.
type EngineFactory func() (ocr.Engine, error)

// Options wires the service's collaborators. Capturer, OCR, Coordinator and
// Display are required.
type Options struct {
	Capturer    Capturer
	OCR         EngineFactory
	Coordinator *translator.Coordinator
	Detector    ChangeDetector
	Display     Display
	Speaker     tts.Speaker

	// Detect identifies the language of text spoken with an "auto" source.
	// Defaults to langdetect.Detect.
	Detect func(text string) (code, name string)
}

// fallbackSpeechLang is used when an "auto" source cannot be identified.
const fallbackSpeechLang = "en"

// actionQueue bounds pending input actions; extra triggers are dropped.
const actionQueue = 8

// settings is the part of the config the worker reads on every scan.
type settings struct {
	regions    []config.Region
	interval   time.Duration
	continuous bool
	tts        bool
}

// Service owns the pipeline worker. Scans, OCR and translation all happen on
// the goroutine running Run; other goroutines only enqueue actions.
type Service struct {
	capture  Capturer
	newOCR   EngineFactory
	coord    *translator.Coordinator
	detector ChangeDetector
	display  Display
	speaker  tts.Speaker
	detect   func(string) (string, string)

	actions chan input.Action
	reload  chan struct{}

	mu       sync.Mutex
	settings settings
	lastOCR  string
	lastOut  string

	// worker-owned
	engine       ocr.Engine
	regionText   map[string]string
	lastCombined string
}

// New creates a Service configured from cfg.
func New(cfg *config.Config, opts Options) *Service {
	s := &Service{
		capture:    opts.Capturer,
		newOCR:     opts.OCR,
		coord:      opts.Coordinator,
		detector:   opts.Detector,
		display:    opts.Display,
		speaker:    opts.Speaker,
		detect:     opts.Detect,
		actions:    make(chan input.Action, actionQueue),
		reload:     make(chan struct{}, 1),
		regionText: make(map[string]string),
	}
	if s.detector == nil {
		s.detector = nopDetector{}
	}
	if s.speaker == nil {
		s.speaker = tts.Nop{}
	}
	if s.detect == nil {
		s.detect = langdetect.Detect
	}
	s.settings = settingsFrom(cfg)
	return s
}

func settingsFrom(cfg *config.Config) settings {
	return settings{
		regions:    append([]config.Region(nil), cfg.Regions...),
		interval:   cfg.Interval(),
		continuous: !cfg.HotkeyMode,
		tts:        cfg.TTSEnabled,
	}
}

// ApplyConfig updates the running service after a config reload.
func (s *Service) ApplyConfig(cfg *config.Config) {
	s.coord.SetLanguages(cfg.SourceLanguage, cfg.TargetLanguage)
	s.coord.SetThreshold(cfg.SimilarityThreshold)

	s.mu.Lock()
	regionsChanged := !slices.Equal(s.settings.regions, cfg.Regions)
	s.settings = settingsFrom(cfg)
	s.mu.Unlock()

	if regionsChanged {
		s.detector.Reset()
	}

	select {
	case s.reload <- struct{}{}:
	default:
	}
	slog.Info("config applied",
		"source", cfg.SourceLanguage,
		"target", cfg.TargetLanguage,
		"regions", len(cfg.Regions),
		"continuous", !cfg.HotkeyMode)
}

// Trigger enqueues an action for the worker. It never blocks; the action is
// dropped when the queue is full.
func (s *Service) Trigger(a input.Action) {
	select {
	case s.actions <- a:
	default:
		slog.Warn("action dropped, pipeline busy", "action", a)
	}
}

// Last returns the most recent OCR text and translation.
func (s *Service) Last() (source, translated string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOCR, s.lastOut
}

func (s *Service) current() settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ─────────────────────────────────────────────────────────────────────────────
// Worker
// ─────────────────────────────────────────────────────────────────────────────

// Run processes capture ticks and actions until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	defer s.closeEngine()
	defer s.speaker.Stop()

	s.status("running", "")
	defer s.status("stopped", "")

	var ticker *time.Ticker
	var tick <-chan time.Time
	arm := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if st := s.current(); st.continuous {
			ticker = time.NewTicker(st.interval)
			tick = ticker.C
		}
	}
	arm()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.reload:
			arm()
		case <-tick:
			s.translate(ctx, false)
		case a := <-s.actions:
			s.handle(ctx, a)
		}
	}
}

func (s *Service) handle(ctx context.Context, a input.Action) {
	slog.Debug("action", "action", a)
	switch a {
	case input.ActionTranslate:
		s.translate(ctx, true)
	case input.ActionSpeakSource:
		text, _ := s.Last()
		source, _ := s.coord.Languages()
		if source == translator.AutoDetect {
			source, _ = s.detect(text)
			if source == langdetect.Unknown {
				source = fallbackSpeechLang
			}
		}
		s.speak(ctx, text, source)
	case input.ActionSpeakTranslation:
		_, text := s.Last()
		_, target := s.coord.Languages()
		s.speak(ctx, text, target)
	default:
		slog.Warn("unknown action", "action", a)
	}
}

// translate scans all regions and translates the combined text. Continuous
// scans skip text identical to the previous scan; manual ones never do.
func (s *Service) translate(ctx context.Context, manual bool) {
	text, err := s.scan(ctx)
	if err != nil {
		slog.Error("scan regions", "error", err)
		s.status("error", err.Error())
		return
	}
	if text == "" {
		if manual {
			slog.Info("no text detected in any region")
		}
		return
	}
	if !manual && text == s.lastCombined {
		return
	}
	s.lastCombined = text

	translated := s.coord.Translate(ctx, text, false)
	source, target := s.coord.Languages()

	s.mu.Lock()
	s.lastOCR, s.lastOut = text, translated
	s.mu.Unlock()

	slog.Info("translated", "source", text, "translation", translated)
	s.display.Show(types.Result{
		Source:     text,
		Translated: translated,
		SourceLang: source,
		TargetLang: target,
		Manual:     manual,
		Timestamp:  time.Now(),
	})
}

// scan captures and recognizes every region. A region whose frame did not
// change reuses its previous text. Failing regions are skipped.
func (s *Service) scan(ctx context.Context) (string, error) {
	engine, err := s.ocrEngine()
	if err != nil {
		return "", err
	}

	// Engines map application codes to their own language names.
	lang, _ := s.coord.Languages()

	regions := s.current().regions
	next := make(map[string]string, len(regions))
	for _, r := range regions {
		img, err := s.capture.CaptureRegion(r)
		if err != nil {
			slog.Warn("capture region", "region", r.ID, "error", err)
			continue
		}

		changed := s.detector.HasChanged(r.ID, img)
		text, seen := s.regionText[r.ID]
		if changed || !seen {
			text, err = engine.Recognize(ctx, img, lang)
			if err != nil {
				slog.Warn("recognize region", "region", r.ID, "error", err)
				continue
			}
			slog.Debug("region text", "region", r.ID, "text", text)
		}
		next[r.ID] = text
	}

	texts := make([]string, 0, len(regions))
	for _, r := range regions {
		texts = append(texts, strings.TrimSpace(next[r.ID]))
	}
	s.regionText = next
	return strings.Join(lo.Compact(texts), " "), nil
}

func (s *Service) ocrEngine() (ocr.Engine, error) {
	if s.engine != nil {
		return s.engine, nil
	}
	engine, err := s.newOCR()
	if err != nil {
		return nil, fmt.Errorf("create ocr engine: %w", err)
	}
	s.engine = engine
	return engine, nil
}

func (s *Service) closeEngine() {
	if s.engine == nil {
		return
	}
	if err := s.engine.Close(); err != nil {
		slog.Error("close ocr engine", "error", err)
	}
	s.engine = nil
}

// speak plays text in the background; a newer speak interrupts it.
func (s *Service) speak(ctx context.Context, text, lang string) {
	if !s.current().tts {
		slog.Debug("tts disabled")
		return
	}
	if text == "" {
		slog.Info("nothing to speak")
		return
	}
	go func() {
		if err := s.speaker.Speak(ctx, text, lang); err != nil {
			slog.Warn("speak", "lang", lang, "error", err)
		}
	}()
}

func (s *Service) status(state, msg string) {
	if d, ok := s.display.(StatusDisplay); ok {
		d.SetStatus(types.Status{State: state, Message: msg})
	}
}

type nopDetector struct{}

func (nopDetector) HasChanged(string, image.Image) bool { return true }
func (nopDetector) Forget(string)                       {}
func (nopDetector) Reset()                              {}
