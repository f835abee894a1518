package ocr

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"testing"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func region(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	return img
}

func TestFirstAccepted_GreedyNotBest(t *testing.T) {
	cands := []RecognizedText{
		{Text: "low", Confidence: 0.3},
		{Text: "first", Confidence: 0.6},
		{Text: "best", Confidence: 0.99},
	}
	got, ok := FirstAccepted(cands, DefaultAcceptance)
	if !ok || got.Text != "first" {
		t.Fatalf("expected first accepted candidate, got %+v ok=%v", got, ok)
	}
}

func TestFirstAccepted_ThresholdIsExclusive(t *testing.T) {
	if _, ok := FirstAccepted([]RecognizedText{{Text: "edge", Confidence: 0.5}}, 0.5); ok {
		t.Fatalf("candidate exactly at threshold must not be accepted")
	}
}

func TestTextOrSentinel_NoCandidates(t *testing.T) {
	if got := TextOrSentinel(nil, DefaultAcceptance); got != NotDetected {
		t.Fatalf("expected sentinel, got %q", got)
	}
	low := []RecognizedText{{Text: "a", Confidence: 0.1}, {Text: "b", Confidence: 0.5}}
	if got := TextOrSentinel(low, DefaultAcceptance); got != "Not detected" {
		t.Fatalf("expected exact sentinel text, got %q", got)
	}
}

func TestSafeRecognizer_ErrorDegradesToEmpty(t *testing.T) {
	engine := RecognizerFunc(func(image.Image) ([]RecognizedText, error) { return nil, errors.New("tesseract died") })
	s := NewSafeRecognizer(engine, nil, discardLogger)
	if out := s.Recognize(region(10, 10)); out != nil {
		t.Fatalf("expected nil result, got %v", out)
	}
	if s.Failures() != 1 {
		t.Fatalf("expected one failure, got %d", s.Failures())
	}
}

func TestSafeRecognizer_PanicDegradesToEmpty(t *testing.T) {
	engine := RecognizerFunc(func(image.Image) ([]RecognizedText, error) { panic("bad region") })
	s := NewSafeRecognizer(engine, nil, discardLogger)
	if out := s.Recognize(region(10, 10)); out != nil {
		t.Fatalf("expected nil result after panic, got %v", out)
	}
	if s.Failures() != 1 {
		t.Fatalf("expected one failure, got %d", s.Failures())
	}
}

func TestSafeRecognizer_PassesCandidatesThrough(t *testing.T) {
	want := []RecognizedText{{Text: "LOT 42", Confidence: 0.8}}
	engine := RecognizerFunc(func(image.Image) ([]RecognizedText, error) { return want, nil })
	s := NewSafeRecognizer(engine, DefaultPreprocessor(), discardLogger)
	got := s.Recognize(region(20, 10))
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("unexpected candidates %v", got)
	}
}

func TestSafeRecognizer_EmptyRegionSkipsEngine(t *testing.T) {
	called := false
	engine := RecognizerFunc(func(image.Image) ([]RecognizedText, error) { called = true; return nil, nil })
	s := NewSafeRecognizer(engine, nil, discardLogger)
	s.Recognize(image.NewRGBA(image.Rectangle{}))
	if called {
		t.Fatalf("engine should not run on empty region")
	}
}

func TestPreprocessor_UpscalesAndDoesNotMutate(t *testing.T) {
	src := region(30, 12)
	before := src.RGBAAt(0, 0)
	out := DefaultPreprocessor().Apply(src)
	if out.Bounds().Dy() != 48 {
		t.Fatalf("expected upscale to 48px, got %d", out.Bounds().Dy())
	}
	if src.RGBAAt(0, 0) != before {
		t.Fatalf("source mutated")
	}
}

func TestPreprocessor_Binarize(t *testing.T) {
	p := &Preprocessor{Binarize: true, Level: 128}
	out := p.Apply(region(4, 4))
	g, ok := out.(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray, got %T", out)
	}
	v := g.GrayAt(0, 0).Y
	if v != 0 && v != 255 {
		t.Fatalf("expected binary pixel, got %d", v)
	}
}
