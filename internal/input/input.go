// Package input turns raw key and button codes into debounced actions.
package input

import (
	"log/slog"
	"sync"
	"time"
)

// Action is something the user can trigger from the keyboard or a gamepad.
type Action string

const (
	ActionTranslate        Action = "translate"
	ActionSpeakSource      Action = "speak_source"
	ActionSpeakTranslation Action = "speak_translation"
)

// DefaultDebounce rejects repeats of the same action inside this window.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer drops repeat triggers of an action within its interval. Each
// action keeps its own last-trigger time. It is safe for concurrent use.
type Debouncer struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[Action]time.Time
}

// NewDebouncer returns a Debouncer. A non-positive interval selects DefaultDebounce.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{interval: interval, now: time.Now, last: make(map[Action]time.Time)}
}

// Allow reports whether a is outside its debounce window and, if so, starts
// a new window.
func (d *Debouncer) Allow(a Action) bool {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.last[a]; ok && now.Sub(last) < d.interval {
		return false
	}
	d.last[a] = now
	return true
}

// Dispatcher maps input codes to actions and forwards debounced actions.
type Dispatcher struct {
	debounce *Debouncer
	fire     func(Action)

	mu       sync.RWMutex
	bindings map[string]Action
}

// NewDispatcher returns a Dispatcher calling fire for each accepted action.
// fire must not block.
func NewDispatcher(debounce *Debouncer, fire func(Action)) *Dispatcher {
	return &Dispatcher{debounce: debounce, fire: fire, bindings: make(map[string]Action)}
}

// Bind replaces every binding. Empty codes are ignored.
func (d *Dispatcher) Bind(bindings map[string]Action) {
	b := make(map[string]Action, len(bindings))
	for code, a := range bindings {
		if code != "" {
			b[code] = a
		}
	}

	d.mu.Lock()
	d.bindings = b
	d.mu.Unlock()
}

// Handle processes one input code and reports whether it fired an action.
func (d *Dispatcher) Handle(code string) bool {
	d.mu.RLock()
	a, ok := d.bindings[code]
	d.mu.RUnlock()
	if !ok {
		return false
	}

	if !d.debounce.Allow(a) {
		slog.Debug("input debounced", "code", code, "action", a)
		return false
	}
	slog.Debug("input action", "code", code, "action", a)
	d.fire(a)
	return true
}
