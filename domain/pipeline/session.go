// Package pipeline runs the per-frame detect, recognize, annotate and log cycle
// against the session's current frame source.
package pipeline

import (
	"log/slog"
	"sync"

	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/sessionlog"
)

// State is derived from the session: no source bound, running, or paused.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Session owns the frame source handle, the paused flag and the log. All
// accessors are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	source capture.Source
	paused bool
	log    *sessionlog.Log
	logger *slog.Logger
}

// NewSession returns an idle session. A nil log gets a fresh one.
func NewSession(log *sessionlog.Log, logger *slog.Logger) *Session {
	if log == nil {
		log = sessionlog.New()
	}
	return &Session{log: log, logger: logger}
}

// Log returns the session log.
func (s *Session) Log() *sessionlog.Log {
	if s == nil {
		return nil
	}
	return s.log
}

// Source returns the bound frame source, or nil while idle.
func (s *Session) Source() capture.Source {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Bind makes src the active source and releases the previous one.
func (s *Session) Bind(src capture.Source) {
	if s == nil || src == nil {
		return
	}
	s.mu.Lock()
	prev := s.source
	s.source = src
	s.mu.Unlock()
	if prev != nil && prev != src {
		s.release(prev)
	}
}

// Select opens sel, falling back to the live device on failure. The previous
// source stays bound when nothing could be opened.
func (s *Session) Select(sel capture.Selector, device int, opener capture.Opener) capture.OpenResult {
	res := capture.OpenOrLive(sel, device, opener, s.logger)
	if res.Source != nil {
		s.Bind(res.Source)
		if s.logger != nil {
			s.logger.Info("source bound", "selector", res.Opened.String(), "fallback", res.FellBack())
		}
	}
	return res
}

// CaptureStats reports the bound source's capture counters when it keeps them.
func (s *Session) CaptureStats() (capture.CaptureStats, bool) {
	src, ok := s.Source().(capture.StatsSource)
	if !ok {
		return capture.CaptureStats{}, false
	}
	return src.Stats(), true
}

// Paused reports the paused flag.
func (s *Session) Paused() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// TogglePaused flips the paused flag and returns the new value. The source
// stays open either way.
func (s *Session) TogglePaused() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

// State derives the processing state.
func (s *Session) State() State {
	if s == nil {
		return StateIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.source == nil:
		return StateIdle
	case s.paused:
		return StatePaused
	default:
		return StateRunning
	}
}

// Close releases the bound source and returns the session to idle.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	prev := s.source
	s.source = nil
	s.mu.Unlock()
	if prev == nil {
		return nil
	}
	return prev.Close()
}

func (s *Session) release(src capture.Source) {
	if err := src.Close(); err != nil && s.logger != nil {
		s.logger.Warn("source release", "selector", src.Selector().String(), "error", err)
	}
}
