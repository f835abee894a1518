package presenter

import (
	"fmt"
	"time"

	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/pipeline"
	"github.com/soocke/carton-vision/ui/model"
)

const statusRefresh = 250 * time.Millisecond

// StateSource reports the processing state.
type StateSource interface{ State() pipeline.State }

// StatsSource reports processing counters.
type StatsSource interface{ Stats() pipeline.Stats }

// CaptureStatsSource reports counters of the bound capture device, if any.
type CaptureStatsSource interface {
	CaptureStats() (capture.CaptureStats, bool)
}

// StatusView shows state, durations and counters.
type StatusView interface {
	SetStateLabel(text string)
	SetSession(run, total time.Duration)
	SetStats(text string)
}

// StatusPresenter reflects session state and counters into the status row.
// State changes are pushed immediately; durations and counters are refreshed
// at most every statusRefresh.
type StatusPresenter struct {
	state   StateSource
	stats   StatsSource
	sess    *model.SessionModel
	sources *model.SourceModel
	view    StatusView

	started  bool
	latest   pipeline.State
	lastPush time.Time
}

func NewStatusPresenter(state StateSource, stats StatsSource, sess *model.SessionModel, sources *model.SourceModel, view StatusView) *StatusPresenter {
	if sess == nil {
		sess = model.NewSessionModel()
	}
	return &StatusPresenter{state: state, stats: stats, sess: sess, sources: sources, view: view}
}

// Tick advances the session model and updates the view.
func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.state == nil || p.view == nil {
		return
	}
	cur := p.state.State()
	if !p.started || cur != p.latest {
		p.started = true
		p.latest = cur
		p.view.SetStateLabel("State: " + cur.String())
	}
	var st pipeline.Stats
	if p.stats != nil {
		st = p.stats.Stats()
	}
	p.sess.OnTick(cur == pipeline.StateRunning, st.Processed, now)
	if !p.lastPush.IsZero() && now.Sub(p.lastPush) < statusRefresh {
		return
	}
	p.lastPush = now
	run, total := p.sess.Values()
	p.view.SetSession(run, total)
	line := FormatStats(p.sourceLabel(), st, p.sess.FPS())
	if cs, ok := p.state.(CaptureStatsSource); ok {
		if dev, ok := cs.CaptureStats(); ok {
			line += FormatCapture(dev)
		}
	}
	p.view.SetStats(line)
}

func (p *StatusPresenter) sourceLabel() string {
	label := p.sources.Label()
	if p.sources.FellBack() {
		label += " (fallback)"
	}
	return label
}

// FormatStats renders the counters line.
func FormatStats(source string, st pipeline.Stats, fps float64) string {
	return fmt.Sprintf("Source: %s  Frames: %d  Detections: %d  Failures: %d  FPS: %.1f",
		source, st.Processed, st.Detections, st.Failures+st.OCRFailures, fps)
}

// FormatCapture renders the device counters appended for live sources.
func FormatCapture(cs capture.CaptureStats) string {
	return fmt.Sprintf("  Dropped: %d  Read: %.1fms", cs.Superseded, float64(cs.AvgCapture)/float64(time.Millisecond))
}
