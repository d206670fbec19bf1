// Package framehash decides whether a captured screen region changed since
// the last time it was seen.
package framehash

import (
	"encoding/binary"
	"image"
	"image/draw"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a digest of an image's exact pixel content.
type Fingerprint [8]byte

// degenerate is returned for nil and zero-area images.
var degenerate = Fingerprint{0xde, 0x9e, 0x4e, 0x2a, 0x7e, 0x00, 0x00, 0x00}

// Of returns the fingerprint of img. Images with identical dimensions and
// pixels always produce the same fingerprint regardless of their concrete type.
func Of(img image.Image) Fingerprint {
	if img == nil {
		return degenerate
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return degenerate
	}

	rgba := toRGBA(img)

	h := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(dims[4:], uint32(b.Dy()))
	_, _ = h.Write(dims[:])

	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		off := y * rgba.Stride
		_, _ = h.Write(rgba.Pix[off : off+rowLen])
	}

	var fp Fingerprint
	binary.BigEndian.PutUint64(fp[:], h.Sum64())
	return fp
}

// toRGBA returns img as an *image.RGBA whose origin is (0, 0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Detector remembers the last fingerprint seen for each capture source.
// It is safe for concurrent use.
type Detector struct {
	mu    sync.Mutex
	slots map[string]Fingerprint
}

// NewDetector returns an empty Detector.
func NewDetector() *Detector {
	return &Detector{slots: make(map[string]Fingerprint)}
}

// HasChanged reports whether img differs from the previous image seen for
// sourceID. The first image for a source always counts as changed. The slot is
// overwritten on every call.
func (d *Detector) HasChanged(sourceID string, img image.Image) bool {
	fp := Of(img)

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.slots[sourceID]
	d.slots[sourceID] = fp
	return !ok || prev != fp
}

// Forget drops the remembered fingerprint for sourceID.
func (d *Detector) Forget(sourceID string) {
	d.mu.Lock()
	delete(d.slots, sourceID)
	d.mu.Unlock()
}

// Reset drops every remembered fingerprint.
func (d *Detector) Reset() {
	d.mu.Lock()
	clear(d.slots)
	d.mu.Unlock()
}
