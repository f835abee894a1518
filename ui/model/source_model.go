package model

import (
	"sync"

	"github.com/soocke/carton-vision/domain/capture"
)

// Source choices offered by the selector, in display order.
const (
	ChoiceLive = "Webcam (0)"
	ChoiceFile = "Select File..."
)

// Choices returns the selector entries.
func Choices() []string { return []string{ChoiceLive, ChoiceFile} }

// SourceModel remembers which selector is bound and whether it was a fallback.
// The zero value holds no source and is usable. Concurrency-safe because the
// headless runner and UI callbacks may both read it.
type SourceModel struct {
	mu       sync.Mutex
	sel      capture.Selector
	bound    bool
	fallback bool
}

// Set records the bound selector.
func (m *SourceModel) Set(sel capture.Selector, fallback bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.sel, m.bound, m.fallback = sel, true, fallback
	m.mu.Unlock()
}

// Current returns the bound selector and whether one is bound.
func (m *SourceModel) Current() (capture.Selector, bool) {
	if m == nil {
		return capture.Selector{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sel, m.bound
}

// FellBack reports whether the bound source replaced a failed request.
func (m *SourceModel) FellBack() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallback
}

// ChoiceIndex maps the bound selector to a selector entry index.
func (m *SourceModel) ChoiceIndex() int {
	sel, ok := m.Current()
	if ok && sel.Kind == capture.KindFile {
		return 1
	}
	return 0
}

// Label is a short description for status displays.
func (m *SourceModel) Label() string {
	sel, ok := m.Current()
	if !ok {
		return "<none>"
	}
	return sel.String()
}
