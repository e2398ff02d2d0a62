package percept

import (
	"bytes"
	"image"
	_ "image/jpeg" // JPEG decoder for frame hashing
	_ "image/png"  // PNG decoder, used by tests and some capture daemons

	"github.com/corona10/goimagehash"
)

// duplicateGate skips frames that are perceptually identical to the last
// processed frame. A user holding still in front of a static scene would
// otherwise burn inference budget re-classifying the same image at 30 FPS.
//
// The gate fails open: a frame that cannot be decoded or hashed is treated
// as new and handed to the models, which do their own validation.
type duplicateGate struct {
	threshold int
	last      *goimagehash.ImageHash
}

func newDuplicateGate(threshold int) *duplicateGate {
	if threshold < 0 {
		threshold = DefaultDuplicateDistance
	}
	return &duplicateGate{threshold: threshold}
}

// duplicate reports whether the frame is within the hash distance of the
// last processed frame. The reference hash only advances on novel frames,
// so a slowly drifting scene eventually passes.
func (g *duplicateGate) duplicate(jpeg []byte) bool {
	img, _, err := image.Decode(bytes.NewReader(jpeg))
	if err != nil {
		return false
	}
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	if g.last != nil {
		distance, err := g.last.Distance(hash)
		if err == nil && distance <= g.threshold {
			return true
		}
	}
	g.last = hash
	return false
}

// reset clears the reference hash. Called on mode switch so the first frame
// of a new mode is never gated.
func (g *duplicateGate) reset() {
	g.last = nil
}
