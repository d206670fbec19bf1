// Package hotkey listens for global keyboard shortcuts.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode"

	hook "github.com/robotn/gohook"
)

// charUndefined is the Keychar of keys without a character.
const charUndefined rune = 0xFFFF

// Manager forwards global key presses to a handler. Only one Manager may run
// at a time because the underlying hook is process-wide.
type Manager struct {
	handle func(code string) bool

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewManager returns a Manager calling handle with the codes of every key
// press until one of them is accepted. handle must not block.
func NewManager(handle func(code string) bool) *Manager {
	return &Manager{handle: handle}
}

// Start installs the global hook.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("hotkey manager already running")
	}

	events := hook.Start()
	m.running = true
	m.done = make(chan struct{})

	go m.loop(events, m.done)
	slog.Info("hotkey listener started")
	return nil
}

func (m *Manager) loop(events chan hook.Event, done chan struct{}) {
	defer close(done)
	for ev := range events {
		if ev.Kind != hook.KeyDown {
			continue
		}
		for _, code := range Codes(ev.Rawcode, ev.Keychar) {
			if m.handle(code) {
				break
			}
		}
	}
}

// Stop removes the global hook and waits for the event loop to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	done := m.done
	m.mu.Unlock()

	hook.End()
	<-done
	slog.Info("hotkey listener stopped")
}

// Codes returns the binding codes for a key press, most specific first:
// the raw key code as "<code>" and, for printable keys, the character itself.
func Codes(rawcode uint16, keychar rune) []string {
	codes := []string{fmt.Sprintf("<%d>", rawcode)}
	if keychar != charUndefined && unicode.IsPrint(keychar) && !unicode.IsSpace(keychar) {
		codes = append(codes, string(unicode.ToLower(keychar)))
	}
	return codes
}
