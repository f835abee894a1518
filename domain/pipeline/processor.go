package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/carton-vision/domain/annotate"
	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/detection"
	"github.com/soocke/carton-vision/domain/ocr"
	"github.com/soocke/carton-vision/domain/sessionlog"
)

// TextRecognizer returns candidates for a region and never fails;
// ocr.SafeRecognizer satisfies it.
type TextRecognizer interface {
	Recognize(region image.Image) []ocr.RecognizedText
}

// Display receives the annotated frame and the log lines of a processed tick.
type Display interface {
	ShowFrame(img image.Image)
	AppendLog(lines []string)
}

// Outcome describes what a tick did.
type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomePaused
	OutcomeNoFrame
	OutcomeEndOfStream
	OutcomeBusy
	OutcomeFailed
	OutcomeProcessed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomePaused:
		return "paused"
	case OutcomeNoFrame:
		return "no_frame"
	case OutcomeEndOfStream:
		return "end_of_stream"
	case OutcomeBusy:
		return "busy"
	case OutcomeFailed:
		return "failed"
	case OutcomeProcessed:
		return "processed"
	default:
		return "unknown"
	}
}

// Stats are cumulative processing counters.
type Stats struct {
	Ticks       uint64
	Processed   uint64
	Detections  uint64
	Skipped     uint64
	Failures    uint64
	OCRFailures uint64
	Persisted   uint64
}

// Options tune the processor. Both thresholds are in [0,1]; zero is a valid
// setting and is passed through unchanged.
type Options struct {
	Threshold  float64
	Acceptance float64
}

// DefaultThreshold is the detection confidence used when none is configured.
const DefaultThreshold = 0.65

// DefaultOptions returns the 0.65 detection threshold and the OCR default acceptance.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Acceptance: ocr.DefaultAcceptance}
}

// sanitize replaces NaN or out-of-range values with the matching field of fallback.
func (o Options) sanitize(fallback Options) Options {
	if !unitInterval(o.Threshold) {
		o.Threshold = fallback.Threshold
	}
	if !unitInterval(o.Acceptance) {
		o.Acceptance = fallback.Acceptance
	}
	return o
}

func unitInterval(f float64) bool { return !math.IsNaN(f) && f >= 0 && f <= 1 }

// Processor executes one pipeline step per Tick. Ticks never overlap: a Tick
// arriving while another runs returns OutcomeBusy.
type Processor struct {
	Session    *Session
	Detector   detection.Detector
	Recognizer TextRecognizer
	Annotator  annotate.Annotator
	// Persister may be nil to skip writing annotated frames.
	Persister annotate.Persister
	Display   Display
	Options   Options
	Now       func() time.Time
	logger    *slog.Logger

	mu         sync.Mutex
	ticks      atomic.Uint64
	processed  atomic.Uint64
	detections atomic.Uint64
	skipped    atomic.Uint64
	failures   atomic.Uint64
	persisted  atomic.Uint64
}

// NewProcessor wires a processor. Thresholds outside [0,1] fall back to
// DefaultOptions.
func NewProcessor(sess *Session, det detection.Detector, rec TextRecognizer, ann annotate.Annotator, pers annotate.Persister, display Display, opts Options, logger *slog.Logger) *Processor {
	opts = opts.sanitize(DefaultOptions())
	return &Processor{
		Session:    sess,
		Detector:   det,
		Recognizer: rec,
		Annotator:  ann,
		Persister:  pers,
		Display:    display,
		Options:    opts,
		Now:        time.Now,
		logger:     logger,
	}
}

// SetOptions replaces the thresholds, waiting for a running tick to finish.
func (p *Processor) SetOptions(opts Options) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.Options = opts.sanitize(p.Options)
	p.mu.Unlock()
}

// Tick runs one step. Failures are logged and counted; they never stop the loop.
func (p *Processor) Tick() (out Outcome) {
	if p == nil || p.Session == nil {
		return OutcomeIdle
	}
	if !p.mu.TryLock() {
		p.skipped.Add(1)
		return OutcomeBusy
	}
	defer p.mu.Unlock()
	p.ticks.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.failures.Add(1)
			if p.logger != nil {
				p.logger.Error("tick panic", "panic", r, "stack", string(debug.Stack()))
			}
			out = OutcomeFailed
		}
	}()

	src := p.Session.Source()
	if src == nil {
		p.skipped.Add(1)
		return OutcomeIdle
	}
	if p.Session.Paused() {
		p.skipped.Add(1)
		return OutcomePaused
	}
	snap, err := src.NextFrame()
	switch {
	case errors.Is(err, capture.ErrEndOfStream):
		p.skipped.Add(1)
		return OutcomeEndOfStream
	case err != nil:
		p.skipped.Add(1)
		if !errors.Is(err, capture.ErrNotReady) {
			p.debug("frame", "error", err)
		}
		return OutcomeNoFrame
	case snap.Image == nil:
		p.skipped.Add(1)
		return OutcomeNoFrame
	}

	if err := p.process(snap); err != nil {
		p.failures.Add(1)
		if p.logger != nil {
			p.logger.Error("tick", "sequence", snap.Sequence, "error", err)
		}
		capture.RecycleFrame(snap.Image)
		return OutcomeFailed
	}
	p.processed.Add(1)
	return OutcomeProcessed
}

func (p *Processor) process(snap capture.FrameSnapshot) error {
	frame := snap.Image
	if p.Detector == nil {
		return errors.New("no detector")
	}
	dets, err := p.Detector.Detect(frame, p.Options.Threshold)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	p.detections.Add(uint64(len(dets)))

	items := make([]annotate.Item, 0, len(dets))
	records := make([]sessionlog.Record, 0, len(dets))
	for _, d := range dets {
		text := ocr.TextOrSentinel(p.recognize(frame, d.Box), p.Options.Acceptance)
		item := annotate.Item{Detection: d}
		if text != ocr.NotDetected {
			item.Text = text
		}
		items = append(items, item)
		records = append(records, sessionlog.Record{Time: p.now(), Class: d.Class, Text: text})
	}

	// The frame returns to the pool at the end of the tick, so whatever is
	// shown or persisted must be a separate image.
	var shown image.Image
	if p.Annotator != nil {
		annotated, err := p.Annotator.Annotate(frame, items)
		if err != nil && p.logger != nil {
			p.logger.Warn("annotate", "sequence", snap.Sequence, "error", err)
		}
		if err == nil && annotated != nil {
			shown = annotated
		}
	}
	if shown == nil {
		shown = imaging.Clone(frame)
	}

	if p.Persister != nil {
		if path, err := p.Persister.Persist(shown, p.now()); err != nil {
			if p.logger != nil {
				p.logger.Warn("persist", "sequence", snap.Sequence, "error", err)
			}
		} else {
			p.persisted.Add(1)
			p.debug("persist", "path", path)
		}
	}

	if p.Display != nil {
		p.Display.ShowFrame(shown)
	}
	p.Session.Log().Append(records...)
	if p.Display != nil && len(records) > 0 {
		lines := make([]string, len(records))
		for i, r := range records {
			lines[i] = r.String()
		}
		p.Display.AppendLog(lines)
	}
	capture.RecycleFrame(frame)
	return nil
}

func (p *Processor) recognize(frame *image.RGBA, box image.Rectangle) []ocr.RecognizedText {
	if p.Recognizer == nil {
		return nil
	}
	region := box.Intersect(frame.Bounds())
	if region.Empty() {
		return nil
	}
	return p.Recognizer.Recognize(imaging.Crop(frame, region))
}

// Stats returns a snapshot of the counters.
func (p *Processor) Stats() Stats {
	if p == nil {
		return Stats{}
	}
	st := Stats{
		Ticks:      p.ticks.Load(),
		Processed:  p.processed.Load(),
		Detections: p.detections.Load(),
		Skipped:    p.skipped.Load(),
		Failures:   p.failures.Load(),
		Persisted:  p.persisted.Load(),
	}
	if f, ok := p.Recognizer.(interface{ Failures() uint64 }); ok {
		st.OCRFailures = f.Failures()
	}
	return st
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Processor) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
