// Package ocr defines text recognition over cropped detection regions and the
// acceptance policy applied to recognition candidates.
package ocr

import (
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// NotDetected is the text recorded when no candidate passes the acceptance threshold.
const NotDetected = "Not detected"

// DefaultAcceptance is the minimum candidate confidence (exclusive) for text to be kept.
const DefaultAcceptance = 0.5

// RecognizedText is a single recognition candidate.
type RecognizedText struct {
	Text       string
	Confidence float64
}

// Recognizer is the raw engine contract. Implementations may fail or panic;
// callers on the processing path should wrap them with SafeRecognizer.
type Recognizer interface {
	Recognize(region image.Image) ([]RecognizedText, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(region image.Image) ([]RecognizedText, error)

func (f RecognizerFunc) Recognize(region image.Image) ([]RecognizedText, error) { return f(region) }

// FirstAccepted returns the first candidate whose confidence is strictly above
// threshold. Later candidates are not considered even if more confident.
func FirstAccepted(cands []RecognizedText, threshold float64) (RecognizedText, bool) {
	for _, c := range cands {
		if c.Confidence > threshold {
			return c, true
		}
	}
	return RecognizedText{}, false
}

// TextOrSentinel returns the accepted text or NotDetected.
func TextOrSentinel(cands []RecognizedText, threshold float64) string {
	if c, ok := FirstAccepted(cands, threshold); ok {
		return c.Text
	}
	return NotDetected
}

// SafeRecognizer never propagates engine failures: errors and panics are logged
// and turned into an empty candidate list.
type SafeRecognizer struct {
	Engine     Recognizer
	Preprocess *Preprocessor
	Logger     *slog.Logger

	failures atomic.Uint64
}

// NewSafeRecognizer wraps engine. pre may be nil.
func NewSafeRecognizer(engine Recognizer, pre *Preprocessor, logger *slog.Logger) *SafeRecognizer {
	return &SafeRecognizer{Engine: engine, Preprocess: pre, Logger: logger}
}

// Recognize runs the engine on region and returns its candidates, or nil on any failure.
func (s *SafeRecognizer) Recognize(region image.Image) (out []RecognizedText) {
	if s == nil || s.Engine == nil || region == nil || region.Bounds().Empty() {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.failures.Add(1)
			if s.Logger != nil {
				s.Logger.Error("ocr panic", "error", fmt.Sprint(r), "stack", string(debug.Stack()))
			}
			out = nil
		}
	}()
	if s.Preprocess != nil {
		region = s.Preprocess.Apply(region)
	}
	cands, err := s.Engine.Recognize(region)
	if err != nil {
		s.failures.Add(1)
		if s.Logger != nil {
			s.Logger.Warn("ocr", "error", err)
		}
		return nil
	}
	return cands
}

// Failures reports how many regions degraded to an empty result.
func (s *SafeRecognizer) Failures() uint64 {
	if s == nil {
		return 0
	}
	return s.failures.Load()
}
