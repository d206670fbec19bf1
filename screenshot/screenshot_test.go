//go:build !darwin

package screenshot

import (
	"errors"
	"image"
	"testing"

	"go.aimuz.me/gamelingo/config"
)

func testCapturer(captured *image.Rectangle) *Capturer {
	return &Capturer{
		monitors: func() []Monitor {
			return []Monitor{
				{Index: 1, Bounds: image.Rect(0, 0, 1920, 1080)},
				{Index: 2, Bounds: image.Rect(1920, 0, 4480, 1440)},
			}
		},
		capture: func(r image.Rectangle) (*image.RGBA, error) {
			*captured = r
			return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
		},
	}
}

func TestCaptureRegion(t *testing.T) {
	tests := []struct {
		name   string
		region config.Region
		want   image.Rectangle
	}{
		{
			name:   "absolute",
			region: config.Region{X: 100, Y: 900, Width: 800, Height: 200},
			want:   image.Rect(100, 900, 900, 1100),
		},
		{
			name:   "first monitor",
			region: config.Region{X: 10, Y: 20, Width: 30, Height: 40, Monitor: 1},
			want:   image.Rect(10, 20, 40, 60),
		},
		{
			name:   "second monitor is offset",
			region: config.Region{X: 10, Y: 20, Width: 30, Height: 40, Monitor: 2},
			want:   image.Rect(1930, 20, 1960, 60),
		},
		{
			name:   "unknown monitor falls back to absolute",
			region: config.Region{X: 10, Y: 20, Width: 30, Height: 40, Monitor: 7},
			want:   image.Rect(10, 20, 40, 60),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got image.Rectangle
			img, err := testCapturer(&got).CaptureRegion(tt.region)
			if err != nil {
				t.Fatalf("CaptureRegion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("captured %v, want %v", got, tt.want)
			}
			if img.Bounds().Dx() != tt.region.Width || img.Bounds().Dy() != tt.region.Height {
				t.Errorf("image bounds = %v", img.Bounds())
			}
		})
	}
}

func TestCaptureRegionErrors(t *testing.T) {
	var got image.Rectangle
	c := testCapturer(&got)

	if _, err := c.CaptureRegion(config.Region{Width: 0, Height: 10}); err == nil {
		t.Error("expected error for empty region")
	}

	c.capture = func(image.Rectangle) (*image.RGBA, error) {
		return nil, errors.New("no display")
	}
	if _, err := c.CaptureRegion(config.Region{Width: 10, Height: 10}); err == nil {
		t.Error("expected capture error to propagate")
	}
}
