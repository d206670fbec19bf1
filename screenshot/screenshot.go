// Package screenshot captures rectangles of the screen.
package screenshot

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"go.aimuz.me/gamelingo/config"
)

// Monitor describes an active display.
type Monitor struct {
	Index  int // 1-based, matching config.Region.Monitor
	Bounds image.Rectangle
}

// Monitors returns the active displays.
func Monitors() []Monitor {
	n := screenshot.NumActiveDisplays()
	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		monitors = append(monitors, Monitor{Index: i + 1, Bounds: screenshot.GetDisplayBounds(i)})
	}
	return monitors
}

// Capturer grabs configured regions from the screen.
type Capturer struct {
	monitors func() []Monitor
	capture  func(image.Rectangle) (*image.RGBA, error)
}

// NewCapturer returns a Capturer for the local displays.
func NewCapturer() *Capturer {
	return &Capturer{monitors: Monitors, capture: screenshot.CaptureRect}
}

// CaptureRegion grabs r. Coordinates are absolute for monitor 0 and relative
// to the display's origin otherwise; unknown monitors fall back to absolute.
func (c *Capturer) CaptureRegion(r config.Region) (image.Image, error) {
	if !HasPermission() {
		RequestPermission()
		return nil, errors.New("screen recording permission required")
	}

	rect, err := c.resolve(r)
	if err != nil {
		return nil, err
	}

	img, err := c.capture(rect)
	if err != nil {
		return nil, fmt.Errorf("capture %v: %w", rect, err)
	}
	return img, nil
}

// resolve converts r to absolute virtual-screen coordinates.
func (c *Capturer) resolve(r config.Region) (image.Rectangle, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return image.Rectangle{}, fmt.Errorf("region %s has empty size %dx%d", r.ID, r.Width, r.Height)
	}

	origin := image.Point{}
	if r.Monitor > 0 {
		monitors := c.monitors()
		if r.Monitor <= len(monitors) {
			origin = monitors[r.Monitor-1].Bounds.Min
		}
	}

	topLeft := origin.Add(image.Pt(r.X, r.Y))
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(r.Width, r.Height))}, nil
}
