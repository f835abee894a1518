package model

import (
	"time"
)

// SessionModel tracks how long the loop has been running in the current run
// and in total, plus the processed frame rate of the current run. Presenters
// poll Values() and update views. The zero value is ready to use.
type SessionModel struct {
	active      bool
	runStart    time.Time
	runDuration time.Duration
	accumulated time.Duration

	runStartFrames uint64
	frames         uint64
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances the model. running is true while frames are being processed
// (a source is bound and not paused); frames is the cumulative processed count.
func (m *SessionModel) OnTick(running bool, frames uint64, now time.Time) {
	if m == nil {
		return
	}
	m.frames = frames
	if running {
		if !m.active {
			m.active = true
			m.runStart = now
			m.runDuration = 0
			m.runStartFrames = frames
		}
		m.runDuration = now.Sub(m.runStart)
	} else if m.active {
		m.runDuration = now.Sub(m.runStart)
		m.accumulated += m.runDuration
		m.active = false
	}
}

// Values returns the current run duration and the total accumulated duration.
// The total includes the ongoing run when active.
func (m *SessionModel) Values() (run, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	run = m.runDuration
	total = m.accumulated
	if m.active {
		total += run
	}
	return
}

// FPS is the processed frame rate over the current (or last) run.
func (m *SessionModel) FPS() float64 {
	if m == nil || m.runDuration <= 0 || m.frames < m.runStartFrames {
		return 0
	}
	return float64(m.frames-m.runStartFrames) / m.runDuration.Seconds()
}
