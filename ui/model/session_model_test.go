package model

import (
	"testing"
	"time"

	"github.com/soocke/carton-vision/domain/capture"
)

func TestSessionModel_RunsAccumulate(t *testing.T) {
	m := NewSessionModel()
	base := time.Unix(0, 0)

	m.OnTick(true, 0, base)
	m.OnTick(true, 50, base.Add(5*time.Second))
	run, total := m.Values()
	if run != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s run and total; got run=%v total=%v", run, total)
	}
	if fps := m.FPS(); fps != 10 {
		t.Fatalf("expected 10 fps, got %v", fps)
	}

	// Pause at 5s, idle until 7s.
	m.OnTick(false, 50, base.Add(5*time.Second))
	m.OnTick(false, 50, base.Add(7*time.Second))
	run2, total2 := m.Values()
	if run2 != run || total2 != total {
		t.Fatalf("paused ticks should not change durations: run=%v total=%v", run2, total2)
	}

	// Resume at 10s for 3s.
	m.OnTick(true, 50, base.Add(10*time.Second))
	m.OnTick(true, 80, base.Add(13*time.Second))
	run3, total3 := m.Values()
	if run3 != 3*time.Second || total3 != 8*time.Second {
		t.Fatalf("expected run=3s total=8s; got run=%v total=%v", run3, total3)
	}
	if fps := m.FPS(); fps != 10 {
		t.Fatalf("fps should cover the current run only, got %v", fps)
	}
}

func TestSessionModel_NilSafe(t *testing.T) {
	var m *SessionModel
	m.OnTick(true, 1, time.Now())
	if r, tot := m.Values(); r != 0 || tot != 0 || m.FPS() != 0 {
		t.Fatalf("nil model should report zeros")
	}
}

func TestSourceModel_TracksSelection(t *testing.T) {
	var m SourceModel
	if _, ok := m.Current(); ok || m.Label() != "<none>" || m.ChoiceIndex() != 0 {
		t.Fatalf("zero model should be empty")
	}
	m.Set(capture.File("/tmp/clip.mp4"), false)
	if m.ChoiceIndex() != 1 || m.Label() != "file:/tmp/clip.mp4" || m.FellBack() {
		t.Fatalf("file selection not tracked: %s", m.Label())
	}
	m.Set(capture.Live(0), true)
	if m.ChoiceIndex() != 0 || !m.FellBack() {
		t.Fatalf("fallback not tracked")
	}
	if Choices()[m.ChoiceIndex()] != ChoiceLive {
		t.Fatalf("choice mismatch")
	}
}
