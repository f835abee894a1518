package detection

import (
	"fmt"
	"image"
)

// Detection is one object instance found in a single frame.
// Box is in frame pixel coordinates with Min strictly above/left of Max.
type Detection struct {
	ClassID    int
	Class      string
	Confidence float64
	Box        image.Rectangle
}

func (d Detection) String() string {
	return fmt.Sprintf("%s(%.2f)@%v", d.Class, d.Confidence, d.Box)
}

// Detector finds objects in a frame. Implementations must not mutate frame
// and must return only detections whose confidence is >= threshold.
type Detector interface {
	Detect(frame image.Image, threshold float64) ([]Detection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(frame image.Image, threshold float64) ([]Detection, error)

func (f DetectorFunc) Detect(frame image.Image, threshold float64) ([]Detection, error) {
	return f(frame, threshold)
}

// FilterByConfidence keeps detections with Confidence >= threshold, preserving order.
// The input slice is not modified.
func FilterByConfidence(dets []Detection, threshold float64) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= threshold {
			out = append(out, d)
		}
	}
	return out
}

// NormalizeBox orders the corners of r and clamps it to bounds. ok is false when
// the result has no area.
func NormalizeBox(r image.Rectangle, bounds image.Rectangle) (image.Rectangle, bool) {
	r = r.Canon().Intersect(bounds)
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return image.Rectangle{}, false
	}
	return r, true
}
