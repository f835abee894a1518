package presenter

import (
	"time"

	"github.com/soocke/carton-vision/domain/pipeline"
)

// Ticker runs one processing step.
type Ticker interface{ Tick() pipeline.Outcome }

// Loop aggregates the processor and the status presenter into one scheduler
// step. The zero value is usable (methods are nil-safe).
type Loop struct {
	Processor Ticker
	Status    *StatusPresenter
	Now       func() time.Time
}

func NewLoop(proc Ticker, status *StatusPresenter) *Loop {
	return &Loop{Processor: proc, Status: status, Now: time.Now}
}

// Tick runs the processor, then refreshes the status row.
func (l *Loop) Tick() pipeline.Outcome {
	if l == nil {
		return pipeline.OutcomeIdle
	}
	out := pipeline.OutcomeIdle
	if l.Processor != nil {
		out = l.Processor.Tick()
	}
	if l.Status != nil {
		now := time.Now()
		if l.Now != nil {
			now = l.Now()
		}
		l.Status.Tick(now)
	}
	return out
}
