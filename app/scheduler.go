package app

import (
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/carton-vision/domain/pipeline"
)

// tkScheduler runs steps on the Tk event loop thread with TclAfter, re-arming
// after every step so the interval can follow the session state.
type tkScheduler struct {
	interval func() time.Duration
	afterID  string
	stopped  bool
}

var _ pipeline.Scheduler = (*tkScheduler)(nil)

func newTkScheduler(interval func() time.Duration) *tkScheduler {
	return &tkScheduler{interval: interval}
}

func (s *tkScheduler) Start(step func()) {
	s.stopped = false
	s.arm(step)
}

func (s *tkScheduler) arm(step func()) {
	d := pipeline.DefaultIdleInterval
	if s.interval != nil {
		d = s.interval()
	}
	s.afterID = TclAfter(d, func() {
		if s.stopped {
			return
		}
		step()
		if !s.stopped {
			s.arm(step)
		}
	})
}

// Stop cancels the pending step. Must be called on the Tk thread.
func (s *tkScheduler) Stop() {
	s.stopped = true
	if s.afterID != "" {
		TclAfterCancel(s.afterID)
		s.afterID = ""
	}
}
