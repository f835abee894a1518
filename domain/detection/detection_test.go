package detection

import (
	"image"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilterByConfidence_KeepsBoundary(t *testing.T) {
	dets := []Detection{
		{Class: "a", Confidence: 0.2},
		{Class: "b", Confidence: 0.65},
		{Class: "c", Confidence: 0.9},
		{Class: "d", Confidence: 0.6499},
	}
	out := FilterByConfidence(dets, 0.65)
	if len(out) != 2 || out[0].Class != "b" || out[1].Class != "c" {
		t.Fatalf("unexpected filter result: %v", out)
	}
	if len(dets) != 4 {
		t.Fatalf("input modified")
	}
}

func TestFilterByConfidence_EveryResultMeetsThreshold(t *testing.T) {
	raw := []Detection{{Confidence: 0}, {Confidence: 0.1}, {Confidence: 0.5}, {Confidence: 0.75}, {Confidence: 1}}
	for _, th := range []float64{0, 0.1, 0.3, 0.5, 0.75, 0.99, 1} {
		out := FilterByConfidence(raw, th)
		for _, det := range out {
			if det.Confidence < th {
				t.Fatalf("threshold %v returned %v", th, det.Confidence)
			}
		}
		kept := 0
		for _, det := range raw {
			if det.Confidence >= th {
				kept++
			}
		}
		if len(out) != kept {
			t.Fatalf("threshold %v kept %d, want %d", th, len(out), kept)
		}
	}
}

func TestNormalizeBox_OrdersAndClamps(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	r, ok := NormalizeBox(image.Rectangle{Min: image.Pt(120, 50), Max: image.Pt(80, -10)}, bounds)
	if !ok {
		t.Fatalf("expected valid box")
	}
	if r != image.Rect(80, 0, 100, 50) {
		t.Fatalf("unexpected box %v", r)
	}
	if _, ok := NormalizeBox(image.Rect(200, 200, 300, 300), bounds); ok {
		t.Fatalf("box outside frame should be rejected")
	}
	if _, ok := NormalizeBox(image.Rect(10, 10, 10, 40), bounds); ok {
		t.Fatalf("zero-width box should be rejected")
	}
}

func TestClassTable_ParseAndLookup(t *testing.T) {
	table, err := ParseClassTable(strings.NewReader("# header\nbox\n\nlabel\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if table.Len() != 2 || table.Name(0) != "box" || table.Name(1) != "label" {
		t.Fatalf("unexpected table: %v %v", table.Name(0), table.Name(1))
	}
	if table.Name(7) != "class_7" || table.Name(-1) != "class_-1" {
		t.Fatalf("unknown ids should be synthesized")
	}
}

func TestClassTable_EmptyIsError(t *testing.T) {
	if _, err := ParseClassTable(strings.NewReader("\n# nothing\n")); err == nil {
		t.Fatalf("expected error for empty table")
	}
}

func TestLoadClassTable_FallbackAndMissingFile(t *testing.T) {
	table, err := LoadClassTable("", []byte("box\n"))
	if err != nil || table.Name(0) != "box" {
		t.Fatalf("fallback parse failed: %v", err)
	}
	if _, err := LoadClassTable(filepath.Join(t.TempDir(), "missing.names"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
