package pipeline

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRunInterval is the delay between ticks while a source is bound.
	DefaultRunInterval = 10 * time.Millisecond
	// DefaultIdleInterval is the delay between ticks while no source is bound.
	DefaultIdleInterval = 100 * time.Millisecond
)

// Scheduler invokes step repeatedly, re-arming after each call, until stopped.
// Stop prevents further ticks; a tick already running completes.
type Scheduler interface {
	Start(step func())
	Stop()
}

// Cadence picks the delay before the next tick.
type Cadence struct {
	Run  time.Duration
	Idle time.Duration
}

// DefaultCadence returns the 10ms/100ms cadence.
func DefaultCadence() Cadence {
	return Cadence{Run: DefaultRunInterval, Idle: DefaultIdleInterval}
}

// Next returns the delay for state.
func (c Cadence) Next(state State) time.Duration {
	d := c.Run
	if state == StateIdle {
		d = c.Idle
	}
	if d <= 0 {
		d = DefaultRunInterval
	}
	return d
}

// TimerScheduler runs ticks on its own goroutine. Interval is consulted after
// every tick so the cadence follows the session state.
type TimerScheduler struct {
	Interval func() time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimerScheduler returns a scheduler re-armed with interval.
func NewTimerScheduler(interval func() time.Duration) *TimerScheduler {
	return &TimerScheduler{Interval: interval}
}

// Start begins ticking in the background. Calling Start on a running scheduler
// is a no-op.
func (s *TimerScheduler) Start(step func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.Run(ctx, step)
	}(s.done)
}

// Run ticks until ctx is cancelled.
func (s *TimerScheduler) Run(ctx context.Context, step func()) {
	timer := time.NewTimer(s.next())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		step()
		timer.Reset(s.next())
	}
}

// Stop cancels scheduling and waits for the in-flight tick to finish.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *TimerScheduler) next() time.Duration {
	if s.Interval == nil {
		return DefaultRunInterval
	}
	if d := s.Interval(); d > 0 {
		return d
	}
	return DefaultRunInterval
}
