package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"go.aimuz.me/gamelingo/config"
	"go.aimuz.me/gamelingo/framehash"
	"go.aimuz.me/gamelingo/internal/input"
	"go.aimuz.me/gamelingo/internal/types"
	"go.aimuz.me/gamelingo/ocr"
	"go.aimuz.me/gamelingo/translator"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

func solid(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

type fakeCapturer struct {
	mu     sync.Mutex
	frames map[string]image.Image
	errs   map[string]error
}

func (f *fakeCapturer) CaptureRegion(r config.Region) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[r.ID]; err != nil {
		return nil, err
	}
	return f.frames[r.ID], nil
}

func (f *fakeCapturer) set(id string, img image.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[id] = img
}

// fakeEngine "recognizes" the text registered for the frame's colour.
type fakeEngine struct {
	mu     sync.Mutex
	texts  map[color.RGBA]string
	calls  int
	langs  []string
	closed bool
}

func (e *fakeEngine) Recognize(_ context.Context, img image.Image, lang string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.langs = append(e.langs, lang)
	c := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	return e.texts[c], nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeDisplay struct {
	mu      sync.Mutex
	results []types.Result
	states  []string
	shown   chan types.Result
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{shown: make(chan types.Result, 16)}
}

func (d *fakeDisplay) Show(r types.Result) {
	d.mu.Lock()
	d.results = append(d.results, r)
	d.mu.Unlock()
	d.shown <- r
}

func (d *fakeDisplay) SetStatus(st types.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states = append(d.states, st.State)
}

func (d *fakeDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.results)
}

type spoken struct{ text, lang string }

type fakeSpeaker struct {
	said chan spoken
}

func (f *fakeSpeaker) Speak(_ context.Context, text, lang string) error {
	f.said <- spoken{text, lang}
	return nil
}

func (f *fakeSpeaker) Stop() {}

type countingDetector struct {
	*framehash.Detector
	resets int
}

func (d *countingDetector) Reset() {
	d.resets++
	d.Detector.Reset()
}

type harness struct {
	cfg      *config.Config
	capture  *fakeCapturer
	engine   *fakeEngine
	display  *fakeDisplay
	speaker  *fakeSpeaker
	calls    *int
	svc      *Service
	coord    *translator.Coordinator
	detector *countingDetector
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.HotkeyMode = true
	cfg.Regions = []config.Region{
		{ID: "a", Width: 4, Height: 4},
		{ID: "b", Width: 4, Height: 4},
	}

	h := &harness{
		cfg: cfg,
		capture: &fakeCapturer{
			frames: map[string]image.Image{"a": solid(red), "b": solid(green)},
			errs:   map[string]error{},
		},
		engine: &fakeEngine{texts: map[color.RGBA]string{
			red:   "Ciao",
			green: "  mondo ",
			blue:  "Arrivederci",
		}},
		display:  newFakeDisplay(),
		speaker:  &fakeSpeaker{said: make(chan spoken, 4)},
		calls:    new(int),
		detector: &countingDetector{Detector: framehash.NewDetector()},
	}

	var mu sync.Mutex
	provider := translator.ProviderFunc(func(_ context.Context, text, src, dst string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		*h.calls++
		return "EN(" + text + ")", nil
	})
	h.coord = translator.NewCoordinator(provider, translator.Config{Source: cfg.SourceLanguage, Target: cfg.TargetLanguage})

	h.svc = New(cfg, Options{
		Capturer:    h.capture,
		OCR:         func() (ocr.Engine, error) { return h.engine, nil },
		Coordinator: h.coord,
		Detector:    h.detector,
		Display:     h.display,
		Speaker:     h.speaker,
		Detect:      func(string) (string, string) { return "it", "Italian" },
	})
	return h
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline
// ─────────────────────────────────────────────────────────────────────────────

func TestTranslateJoinsRegions(t *testing.T) {
	h := newHarness(t)
	h.svc.translate(context.Background(), false)

	r := <-h.display.shown
	if r.Source != "Ciao mondo" {
		t.Errorf("source = %q, want %q", r.Source, "Ciao mondo")
	}
	if r.Translated != "EN(Ciao mondo)" {
		t.Errorf("translated = %q", r.Translated)
	}
	if r.SourceLang != "it" || r.TargetLang != "en" || r.Manual {
		t.Errorf("result = %+v", r)
	}

	src, out := h.svc.Last()
	if src != "Ciao mondo" || out != "EN(Ciao mondo)" {
		t.Errorf("Last() = %q, %q", src, out)
	}
}

func TestRecognizeGetsSourceLanguageCode(t *testing.T) {
	h := newHarness(t)
	h.svc.translate(context.Background(), false)

	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	if len(h.engine.langs) != 2 {
		t.Fatalf("recognize calls = %d, want 2", len(h.engine.langs))
	}
	for _, l := range h.engine.langs {
		if l != "it" {
			t.Errorf("engine lang = %q, want application code %q", l, "it")
		}
	}
	// The engine, not the pipeline, picks tesseract's name.
	if got := ocr.TesseractLanguage(h.engine.langs[0]); got != "ita" {
		t.Errorf("tesseract language = %q, want ita", got)
	}
}

func TestUnchangedFramesReuseText(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.svc.translate(ctx, false)
	if got := h.engine.callCount(); got != 2 {
		t.Fatalf("first scan OCR calls = %d, want 2", got)
	}

	h.svc.translate(ctx, false)
	if got := h.engine.callCount(); got != 2 {
		t.Errorf("unchanged scan OCR calls = %d, want 2", got)
	}

	h.capture.set("b", solid(blue))
	h.svc.translate(ctx, false)
	if got := h.engine.callCount(); got != 3 {
		t.Errorf("one changed region OCR calls = %d, want 3", got)
	}

	if got := h.display.count(); got != 2 {
		t.Errorf("results shown = %d, want 2", got)
	}
	if src, _ := h.svc.Last(); src != "Ciao Arrivederci" {
		t.Errorf("last source = %q", src)
	}
}

func TestContinuousSkipsRepeatedText(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.svc.translate(ctx, false)
	h.svc.translate(ctx, false)
	if got := h.display.count(); got != 1 {
		t.Errorf("continuous results = %d, want 1", got)
	}

	// Manual translation always shows, the coordinator avoids a new request.
	h.svc.translate(ctx, true)
	if got := h.display.count(); got != 2 {
		t.Errorf("results after manual = %d, want 2", got)
	}
	if *h.calls != 1 {
		t.Errorf("provider calls = %d, want 1", *h.calls)
	}
}

func TestCaptureErrorSkipsRegion(t *testing.T) {
	h := newHarness(t)
	h.capture.errs["a"] = errors.New("display gone")

	h.svc.translate(context.Background(), false)
	r := <-h.display.shown
	if r.Source != "mondo" {
		t.Errorf("source = %q, want %q", r.Source, "mondo")
	}
}

func TestNoTextShowsNothing(t *testing.T) {
	h := newHarness(t)
	h.engine.texts = map[color.RGBA]string{}

	h.svc.translate(context.Background(), true)
	if got := h.display.count(); got != 0 {
		t.Errorf("results = %d, want 0", got)
	}
	if *h.calls != 0 {
		t.Errorf("provider calls = %d, want 0", *h.calls)
	}
}

func TestEngineCreationError(t *testing.T) {
	h := newHarness(t)
	h.svc.newOCR = func() (ocr.Engine, error) { return nil, ocr.ErrNotInstalled }

	h.svc.translate(context.Background(), true)
	if got := h.display.count(); got != 0 {
		t.Errorf("results = %d, want 0", got)
	}
	h.display.mu.Lock()
	defer h.display.mu.Unlock()
	if len(h.display.states) != 1 || h.display.states[0] != "error" {
		t.Errorf("states = %v, want [error]", h.display.states)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Actions
// ─────────────────────────────────────────────────────────────────────────────

func TestSpeakActions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.translate(ctx, false)

	h.svc.handle(ctx, input.ActionSpeakSource)
	if got := <-h.speaker.said; got != (spoken{"Ciao mondo", "it"}) {
		t.Errorf("speak source = %+v", got)
	}

	h.svc.handle(ctx, input.ActionSpeakTranslation)
	if got := <-h.speaker.said; got != (spoken{"EN(Ciao mondo)", "en"}) {
		t.Errorf("speak translation = %+v", got)
	}
}

func TestSpeakSourceDetectsAutoLanguage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.coord.SetLanguages(translator.AutoDetect, "en")
	h.svc.translate(ctx, false)

	h.svc.handle(ctx, input.ActionSpeakSource)
	if got := <-h.speaker.said; got.lang != "it" {
		t.Errorf("speak lang = %q, want detected %q", got.lang, "it")
	}
}

func TestSpeakDisabled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.translate(ctx, false)

	cfg := *h.cfg
	cfg.TTSEnabled = false
	h.svc.ApplyConfig(&cfg)

	h.svc.handle(ctx, input.ActionSpeakTranslation)
	select {
	case got := <-h.speaker.said:
		t.Errorf("spoke %+v with tts disabled", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestApplyConfig(t *testing.T) {
	h := newHarness(t)

	cfg := *h.cfg
	cfg.TargetLanguage = "fr"
	h.svc.ApplyConfig(&cfg)

	if _, target := h.coord.Languages(); target != "fr" {
		t.Errorf("target = %q, want fr", target)
	}
	if h.detector.resets != 0 {
		t.Errorf("resets = %d with unchanged regions", h.detector.resets)
	}

	cfg.Regions = cfg.Regions[:1]
	h.svc.ApplyConfig(&cfg)
	if h.detector.resets != 1 {
		t.Errorf("resets = %d after region change, want 1", h.detector.resets)
	}
}

func TestRunHandlesTriggeredActions(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.svc.Run(ctx) }()

	h.svc.Trigger(input.ActionTranslate)
	select {
	case r := <-h.display.shown:
		if !r.Manual {
			t.Error("triggered result not marked manual")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result after trigger")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run = %v", err)
	}
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	if !h.engine.closed {
		t.Error("ocr engine not closed")
	}
}

func TestRunContinuousTicks(t *testing.T) {
	h := newHarness(t)
	cfg := *h.cfg
	cfg.HotkeyMode = false
	cfg.CaptureInterval = 0.01
	h.svc.ApplyConfig(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.svc.Run(ctx)

	select {
	case r := <-h.display.shown:
		if r.Manual {
			t.Error("tick result marked manual")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result from capture loop")
	}
}

func TestBindings(t *testing.T) {
	cfg := config.Default()
	cfg.TTSGamepad = -1

	b := Bindings(cfg)
	want := map[string]input.Action{
		"<65>":     input.ActionTranslate,
		"<110>":    input.ActionSpeakSource,
		"<107>":    input.ActionSpeakTranslation,
		"button:0": input.ActionTranslate,
		"button:2": input.ActionSpeakTranslation,
	}
	if len(b) != len(want) {
		t.Fatalf("bindings = %v, want %v", b, want)
	}
	for code, a := range want {
		if b[code] != a {
			t.Errorf("binding %q = %q, want %q", code, b[code], a)
		}
	}
}
