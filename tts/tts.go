// Package tts speaks text through the Google Translate voice endpoint and a
// local audio player.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultURL is the voice endpoint of the free web translator.
const DefaultURL = "https://translate.google.com/translate_tts"

// The endpoint rejects long inputs, so text is sent in chunks.
const maxChunkRunes = 100

// ErrNoPlayer is returned when no audio player could be found.
var ErrNoPlayer = errors.New("no audio player found (install ffplay or mpg123)")

// Speaker speaks text aloud.
type Speaker interface {
	// Speak blocks until playback ends. It stops any playback in progress.
	Speak(ctx context.Context, text, lang string) error
	Stop()
}

// players are tried in order when none is configured.
var players = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpg123", "-q"},
	{"afplay"},
}

// FindPlayer resolves the player command line. A non-empty configured value
// is split on whitespace and used as is.
func FindPlayer(configured string) ([]string, error) {
	if fields := strings.Fields(configured); len(fields) > 0 {
		return fields, nil
	}
	for _, p := range players {
		if path, err := exec.LookPath(p[0]); err == nil {
			return append([]string{path}, p[1:]...), nil
		}
	}
	return nil, ErrNoPlayer
}

// Google fetches mp3 speech and plays it with an external player.
type Google struct {
	http    *http.Client
	baseURL string
	player  []string

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing chan struct{} // closed when the current Speak returns
}

// NewGoogle returns a Google speaker. An empty baseURL selects DefaultURL and
// a nil client selects one with a 15s timeout.
func NewGoogle(baseURL string, client *http.Client, player []string) *Google {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Google{http: client, baseURL: baseURL, player: player}
}

func (g *Google) Speak(ctx context.Context, text, lang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(g.player) == 0 {
		return ErrNoPlayer
	}

	ctx, done := g.begin(ctx)
	defer done()

	f, err := os.CreateTemp("", "gamelingo-tts-*.mp3")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	for _, chunk := range splitText(text, maxChunkRunes) {
		if err := g.fetch(ctx, f, chunk, lang); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}

	args := append(g.player[1:len(g.player):len(g.player)], f.Name())
	cmd := exec.CommandContext(ctx, g.player[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil // stopped
		}
		return fmt.Errorf("play audio: %w", err)
	}
	return nil
}

// Stop interrupts playback in progress and waits for it to end.
func (g *Google) Stop() {
	g.mu.Lock()
	cancel, playing := g.cancel, g.playing
	g.cancel, g.playing = nil, nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
		<-playing
	}
}

// begin registers a new playback and stops the previous one.
func (g *Google) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	playing := make(chan struct{})

	g.mu.Lock()
	prevCancel, prevPlaying := g.cancel, g.playing
	g.cancel, g.playing = cancel, playing
	g.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevPlaying
	}

	return ctx, func() {
		g.mu.Lock()
		if g.playing == playing {
			g.cancel, g.playing = nil, nil
		}
		g.mu.Unlock()
		cancel()
		close(playing)
	}
}

func (g *Google) fetch(ctx context.Context, w io.Writer, text, lang string) error {
	q := url.Values{
		"ie":     {"UTF-8"},
		"client": {"tw-ob"},
		"tl":     {lang},
		"q":      {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts error: %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	return nil
}

// splitText breaks text into pieces of at most limit runes, preferring word
// boundaries. A single word longer than limit is cut.
func splitText(text string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	n := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			n = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			r := []rune(word)
			chunks = append(chunks, string(r[:limit]))
			word = string(r[limit:])
		}
		wn := utf8.RuneCountInString(word)
		if n > 0 && n+1+wn > limit {
			flush()
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += wn
	}
	flush()
	return chunks
}

// Nop is a Speaker that logs instead of speaking.
type Nop struct{}

func (Nop) Speak(_ context.Context, text, lang string) error {
	slog.Debug("tts disabled", "lang", lang, "text", text)
	return nil
}

func (Nop) Stop() {}
