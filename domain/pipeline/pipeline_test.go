package pipeline

import (
	"errors"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/carton-vision/domain/annotate"
	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/detection"
	"github.com/soocke/carton-vision/domain/ocr"
	"github.com/soocke/carton-vision/domain/sessionlog"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// frameReader yields n 64x64 frames; the first pixel carries the frame index.
type frameReader struct {
	mu   sync.Mutex
	n    int
	read int
}

func (r *frameReader) Read() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.read >= r.n {
		return nil, capture.ErrEndOfStream
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	img.Pix[0] = uint8(r.read)
	r.read++
	return img, nil
}

func (r *frameReader) Close() error { return nil }

// stubSource never has a frame ready.
type stubSource struct{ closed int }

func (s *stubSource) NextFrame() (capture.FrameSnapshot, error) {
	return capture.FrameSnapshot{}, capture.ErrNotReady
}
func (s *stubSource) Selector() capture.Selector { return capture.Live(0) }
func (s *stubSource) Close() error               { s.closed++; return nil }

type fakeDisplay struct {
	frames []image.Image
	lines  []string
}

func (d *fakeDisplay) ShowFrame(img image.Image) { d.frames = append(d.frames, img) }
func (d *fakeDisplay) AppendLog(lines []string)  { d.lines = append(d.lines, lines...) }

type cloneAnnotator struct{ calls [][]annotate.Item }

func (a *cloneAnnotator) Annotate(frame image.Image, items []annotate.Item) (image.Image, error) {
	a.calls = append(a.calls, items)
	return imaging.Clone(frame), nil
}

func fileOpener(r capture.Reader) capture.Opener {
	return func(sel capture.Selector) (capture.Reader, error) { return r, nil }
}

func fixedClock() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local) }

func oneBox(frames *[]int) detection.Detector {
	return detection.DetectorFunc(func(frame image.Image, th float64) ([]detection.Detection, error) {
		if frames != nil {
			*frames = append(*frames, int(frame.(*image.RGBA).Pix[0]))
		}
		return []detection.Detection{{Class: "box", Confidence: 0.80, Box: image.Rect(10, 10, 50, 50)}}, nil
	})
}

func noText() TextRecognizer {
	return ocr.NewSafeRecognizer(ocr.RecognizerFunc(func(image.Image) ([]ocr.RecognizedText, error) {
		return nil, nil
	}), nil, discardLogger)
}

func newProcessor(sess *Session, det detection.Detector, rec TextRecognizer, pers annotate.Persister, disp Display) *Processor {
	p := NewProcessor(sess, det, rec, &cloneAnnotator{}, pers, disp, Options{Threshold: 0.65, Acceptance: 0.5}, discardLogger)
	p.Now = fixedClock
	return p
}

func TestProcessor_LiveDetectionWithoutTextIsLogged(t *testing.T) {
	out := filepath.Join(t.TempDir(), "annotated_results")
	sess := NewSession(nil, discardLogger)
	res := sess.Select(capture.Live(0), 0, fileOpener(&frameReader{n: 1}))
	if res.Err != nil {
		t.Fatalf("select: %v", res.Err)
	}
	defer sess.Close()
	disp := &fakeDisplay{}
	p := newProcessor(sess, oneBox(nil), noText(), annotate.NewDirPersister(out), disp)

	deadline := time.Now().Add(time.Second)
	var outcome Outcome
	for time.Now().Before(deadline) {
		if outcome = p.Tick(); outcome == OutcomeProcessed {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if outcome != OutcomeProcessed {
		t.Fatalf("frame never processed, last outcome %v", outcome)
	}
	recs := sess.Log().Records()
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	if got := recs[0].String(); got != "[2024-03-09 14:05:07] Detected: box, OCR: Not detected" {
		t.Fatalf("unexpected record %q", got)
	}
	entries, err := os.ReadDir(out)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one annotated frame, got %d (%v)", len(entries), err)
	}
	if !strings.HasPrefix(entries[0].Name(), "frame_20240309_140507_") {
		t.Fatalf("unexpected frame name %s", entries[0].Name())
	}
	if len(disp.frames) != 1 || len(disp.lines) != 1 || disp.lines[0] != recs[0].String() {
		t.Fatalf("display not updated: frames=%d lines=%v", len(disp.frames), disp.lines)
	}
}

func TestProcessor_NoFrameLeavesStateUnchanged(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Bind(&stubSource{})
	disp := &fakeDisplay{}
	p := newProcessor(sess, oneBox(nil), noText(), nil, disp)
	for i := 0; i < 5; i++ {
		if got := p.Tick(); got != OutcomeNoFrame {
			t.Fatalf("expected no-frame outcome, got %v", got)
		}
	}
	if sess.Log().Len() != 0 || len(disp.frames) != 0 || len(disp.lines) != 0 {
		t.Fatalf("no-frame ticks must not touch log or display")
	}
}

func TestProcessor_PausedTicksAppendNothing(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 10}))
	defer sess.Close()
	p := newProcessor(sess, oneBox(nil), noText(), nil, &fakeDisplay{})
	if !sess.TogglePaused() {
		t.Fatalf("expected paused after toggle")
	}
	for i := 0; i < 7; i++ {
		if got := p.Tick(); got != OutcomePaused {
			t.Fatalf("expected paused outcome, got %v", got)
		}
	}
	if sess.Log().Len() != 0 {
		t.Fatalf("paused ticks appended %d records", sess.Log().Len())
	}
	if sess.State() != StatePaused {
		t.Fatalf("expected paused state, got %v", sess.State())
	}
}

func TestProcessor_FilePauseResumeNoSkips(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 6}))
	defer sess.Close()
	var seen []int
	p := newProcessor(sess, oneBox(&seen), noText(), nil, &fakeDisplay{})

	p.Tick()
	p.Tick()
	sess.TogglePaused()
	for i := 0; i < 3; i++ {
		p.Tick()
	}
	sess.TogglePaused()
	for i := 0; i < 6; i++ {
		p.Tick()
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 frames processed, got %v", seen)
	}
	for i, idx := range seen {
		if idx != i {
			t.Fatalf("frame order broken: %v", seen)
		}
	}
	if got := p.Tick(); got != OutcomeEndOfStream {
		t.Fatalf("expected end of stream, got %v", got)
	}
	if sess.Log().Len() != 6 {
		t.Fatalf("expected 6 records, got %d", sess.Log().Len())
	}
}

func TestProcessor_OneRecordPerDetection(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 1}))
	defer sess.Close()
	det := detection.DetectorFunc(func(image.Image, float64) ([]detection.Detection, error) {
		return []detection.Detection{
			{Class: "box", Confidence: 0.9, Box: image.Rect(0, 0, 20, 20)},
			{Class: "label", Confidence: 0.7, Box: image.Rect(30, 30, 60, 60)},
			{Class: "box", Confidence: 0.66, Box: image.Rect(5, 40, 25, 63)},
		}, nil
	})
	calls := 0
	rec := ocr.NewSafeRecognizer(ocr.RecognizerFunc(func(region image.Image) ([]ocr.RecognizedText, error) {
		calls++
		switch calls {
		case 1:
			return []ocr.RecognizedText{{Text: "low", Confidence: 0.4}, {Text: "LOT 7", Confidence: 0.6}, {Text: "best", Confidence: 0.99}}, nil
		case 2:
			return nil, errors.New("engine crashed")
		default:
			return []ocr.RecognizedText{{Text: "edge", Confidence: 0.5}}, nil
		}
	}), nil, discardLogger)
	ann := &cloneAnnotator{}
	p := NewProcessor(sess, det, rec, ann, nil, &fakeDisplay{}, DefaultOptions(), discardLogger)
	p.Now = fixedClock

	if got := p.Tick(); got != OutcomeProcessed {
		t.Fatalf("expected processed, got %v", got)
	}
	recs := sess.Log().Records()
	want := []sessionlog.Record{
		{Class: "box", Text: "LOT 7"},
		{Class: "label", Text: ocr.NotDetected},
		{Class: "box", Text: ocr.NotDetected},
	}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i := range want {
		if recs[i].Class != want[i].Class || recs[i].Text != want[i].Text {
			t.Fatalf("record %d = %+v, want %+v", i, recs[i], want[i])
		}
	}
	items := ann.calls[0]
	if items[0].Text != "LOT 7" || items[1].Text != "" || items[2].Text != "" {
		t.Fatalf("annotation text mismatch: %+v", items)
	}
	if st := p.Stats(); st.Detections != 3 || st.OCRFailures != 1 || st.Processed != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestProcessor_DetectFailureIsSkipped(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 2}))
	defer sess.Close()
	fail := true
	det := detection.DetectorFunc(func(image.Image, float64) ([]detection.Detection, error) {
		if fail {
			fail = false
			return nil, errors.New("model exploded")
		}
		return nil, nil
	})
	disp := &fakeDisplay{}
	p := newProcessor(sess, det, noText(), nil, disp)
	if got := p.Tick(); got != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %v", got)
	}
	if got := p.Tick(); got != OutcomeProcessed {
		t.Fatalf("loop should continue after failure, got %v", got)
	}
	if len(disp.frames) != 1 || sess.Log().Len() != 0 {
		t.Fatalf("frames=%d records=%d", len(disp.frames), sess.Log().Len())
	}
	if st := p.Stats(); st.Failures != 1 {
		t.Fatalf("expected one failure, got %+v", st)
	}
}

func TestProcessor_PanicInDetectorIsRecovered(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 1}))
	defer sess.Close()
	det := detection.DetectorFunc(func(image.Image, float64) ([]detection.Detection, error) {
		panic("native crash")
	})
	p := newProcessor(sess, det, noText(), nil, &fakeDisplay{})
	if got := p.Tick(); got != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %v", got)
	}
}

func TestProcessor_IdleWithoutSource(t *testing.T) {
	p := newProcessor(NewSession(nil, discardLogger), oneBox(nil), noText(), nil, &fakeDisplay{})
	if got := p.Tick(); got != OutcomeIdle {
		t.Fatalf("expected idle, got %v", got)
	}
}

func TestSession_SelectFallsBackAndKeepsPrevious(t *testing.T) {
	sess := NewSession(sessionlog.New(), discardLogger)
	prev := &stubSource{}
	sess.Bind(prev)

	failing := func(capture.Selector) (capture.Reader, error) { return nil, errors.New("nope") }
	res := sess.Select(capture.File("broken.avi"), 0, failing)
	if res.Source != nil || sess.Source() != capture.Source(prev) || prev.closed != 0 {
		t.Fatalf("failed selection must keep previous source bound")
	}

	live := &frameReader{n: 100}
	opener := func(sel capture.Selector) (capture.Reader, error) {
		if sel.Kind == capture.KindFile {
			return nil, errors.New("undecodable")
		}
		return live, nil
	}
	res = sess.Select(capture.File("broken.avi"), 0, opener)
	if !res.FellBack() || sess.Source().Selector().Kind != capture.KindLive {
		t.Fatalf("expected fallback to live, got %+v", res)
	}
	if prev.closed != 1 {
		t.Fatalf("previous source should be released on rebind")
	}
	if err := sess.Close(); err != nil || sess.State() != StateIdle {
		t.Fatalf("close: %v state=%v", err, sess.State())
	}
}

func TestSession_ToggleKeepsSourceOpen(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	if sess.State() != StateIdle {
		t.Fatalf("new session should be idle")
	}
	src := &stubSource{}
	sess.Bind(src)
	if sess.State() != StateRunning {
		t.Fatalf("bound session should run")
	}
	if !sess.TogglePaused() || sess.State() != StatePaused {
		t.Fatalf("toggle should pause")
	}
	if sess.TogglePaused() || sess.State() != StateRunning || src.closed != 0 {
		t.Fatalf("toggle should resume without closing the source")
	}
}

func TestProcessor_ZeroThresholdsPassThrough(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 2}))
	defer sess.Close()
	var seen []float64
	det := detection.DetectorFunc(func(_ image.Image, th float64) ([]detection.Detection, error) {
		seen = append(seen, th)
		return detection.FilterByConfidence([]detection.Detection{
			{Class: "box", Confidence: 0.30, Box: image.Rect(0, 0, 20, 20)},
		}, th), nil
	})
	rec := ocr.NewSafeRecognizer(ocr.RecognizerFunc(func(image.Image) ([]ocr.RecognizedText, error) {
		return []ocr.RecognizedText{{Text: "faint", Confidence: 0.2}}, nil
	}), nil, discardLogger)
	p := NewProcessor(sess, det, rec, &cloneAnnotator{}, nil, &fakeDisplay{}, Options{Threshold: 0, Acceptance: 0}, discardLogger)
	if p.Options != (Options{}) {
		t.Fatalf("zero options replaced: %+v", p.Options)
	}
	if got := p.Tick(); got != OutcomeProcessed {
		t.Fatalf("expected processed, got %v", got)
	}
	if len(seen) != 1 || seen[0] != 0 {
		t.Fatalf("detector saw thresholds %v", seen)
	}
	recs := sess.Log().Records()
	if len(recs) != 1 || recs[0].Text != "faint" {
		t.Fatalf("unexpected records %+v", recs)
	}

	p.SetOptions(Options{Threshold: 0.5, Acceptance: 0})
	p.Tick()
	if sess.Log().Len() != 1 || seen[1] != 0.5 {
		t.Fatalf("raised threshold should drop the 0.30 box: records=%d seen=%v", sess.Log().Len(), seen)
	}
}

func TestProcessor_OutOfRangeOptionsKeepPrevious(t *testing.T) {
	p := NewProcessor(nil, nil, nil, nil, nil, nil, Options{Threshold: 1.5, Acceptance: math.NaN()}, discardLogger)
	if p.Options != DefaultOptions() {
		t.Fatalf("expected defaults, got %+v", p.Options)
	}
	p.SetOptions(Options{Threshold: 0, Acceptance: -0.1})
	if p.Options.Threshold != 0 || p.Options.Acceptance != DefaultOptions().Acceptance {
		t.Fatalf("unexpected options %+v", p.Options)
	}
}

func TestSession_CaptureStatsOnlyForLiveSources(t *testing.T) {
	sess := NewSession(nil, discardLogger)
	defer sess.Close()
	if _, ok := sess.CaptureStats(); ok {
		t.Fatalf("idle session should report no capture stats")
	}
	sess.Select(capture.File("clip.mp4"), 0, fileOpener(&frameReader{n: 1}))
	if _, ok := sess.CaptureStats(); ok {
		t.Fatalf("file source should report no capture stats")
	}
	sess.Select(capture.Live(0), 0, fileOpener(&frameReader{n: 1}))
	if _, ok := sess.CaptureStats(); !ok {
		t.Fatalf("live source should report capture stats")
	}
}
