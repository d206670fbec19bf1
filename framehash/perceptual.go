package framehash

import (
	"image"
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"
)

// DefaultPerceptualDistance is the largest hamming distance between two
// perceptual hashes that still counts as the same frame.
const DefaultPerceptualDistance = 4

// PerceptualDetector tolerates small visual noise such as cursor blinks or
// video compression artifacts. It trades exactness for fewer OCR passes.
type PerceptualDetector struct {
	mu        sync.Mutex
	threshold int
	slots     map[string]*goimagehash.ImageHash
}

// NewPerceptualDetector returns a PerceptualDetector. A negative threshold
// selects DefaultPerceptualDistance.
func NewPerceptualDetector(threshold int) *PerceptualDetector {
	if threshold < 0 {
		threshold = DefaultPerceptualDistance
	}
	return &PerceptualDetector{
		threshold: threshold,
		slots:     make(map[string]*goimagehash.ImageHash),
	}
}

// HasChanged reports whether img looks different from the previous image
// seen for sourceID. Images that cannot be hashed always count as changed.
func (d *PerceptualDetector) HasChanged(sourceID string, img image.Image) bool {
	if img == nil || img.Bounds().Empty() {
		d.Forget(sourceID)
		return true
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		slog.Debug("perception hash", "source", sourceID, "error", err)
		d.Forget(sourceID)
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.slots[sourceID]
	d.slots[sourceID] = hash
	if !ok {
		return true
	}

	dist, err := prev.Distance(hash)
	if err != nil {
		return true
	}
	return dist > d.threshold
}

// Forget drops the remembered hash for sourceID.
func (d *PerceptualDetector) Forget(sourceID string) {
	d.mu.Lock()
	delete(d.slots, sourceID)
	d.mu.Unlock()
}

// Reset drops every remembered hash.
func (d *PerceptualDetector) Reset() {
	d.mu.Lock()
	clear(d.slots)
	d.mu.Unlock()
}
