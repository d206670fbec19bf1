// Package gamepad reads button presses from a Linux joystick device.
package gamepad

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Linux joystick API event layout (struct js_event).
const (
	eventSize    = 8
	eventButton  = 0x01
	eventInitial = 0x80
)

// Reconnect delays
const (
	DefaultRetryDelay = 2 * time.Second // no device found
	DefaultErrorDelay = 1 * time.Second // device vanished mid-read
)

// ButtonCode returns the binding code for button n.
func ButtonCode(n int) string {
	return fmt.Sprintf("button:%d", n)
}

// Opener opens the joystick device.
type Opener func() (io.ReadCloser, error)

// DeviceOpener opens the joystick device file at path.
func DeviceOpener(path string) Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// Manager forwards gamepad button presses to a handler and reconnects when
// the device disappears.
type Manager struct {
	open       Opener
	handle     func(code string) bool
	retryDelay time.Duration
	errorDelay time.Duration
}

// NewManager returns a Manager. handle must not block.
func NewManager(open Opener, handle func(code string) bool) *Manager {
	return &Manager{
		open:       open,
		handle:     handle,
		retryDelay: DefaultRetryDelay,
		errorDelay: DefaultErrorDelay,
	}
}

// Run reads button presses until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	missing := false
	for ctx.Err() == nil {
		dev, err := m.open()
		if err != nil {
			if !missing {
				slog.Info("no gamepad detected, retrying", "error", err)
				missing = true
			}
			sleep(ctx, m.retryDelay)
			continue
		}
		missing = false
		slog.Info("gamepad connected")

		err = m.read(ctx, dev)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("gamepad disconnected", "error", err)
		sleep(ctx, m.errorDelay)
	}
}

// read consumes events from dev until it fails or ctx is done. dev is
// always closed on return.
func (m *Manager) read(ctx context.Context, dev io.ReadCloser) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		dev.Close()
	}()

	var buf [eventSize]byte
	for {
		if _, err := io.ReadFull(dev, buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}

		value := int16(binary.LittleEndian.Uint16(buf[4:6]))
		typ := buf[6]
		number := buf[7]

		// Initial events report state at open time, not presses.
		if typ&eventInitial != 0 || typ&^eventInitial != eventButton || value != 1 {
			continue
		}
		m.handle(ButtonCode(int(number)))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
