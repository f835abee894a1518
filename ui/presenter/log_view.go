package presenter

import (
	"image"
	"log/slog"
	"sync/atomic"
	"time"
)

// LogView stands in for the window when running headless: records and state
// changes go to the structured log and frames are only counted.
type LogView struct {
	Logger *slog.Logger

	frames atomic.Uint64
	lines  atomic.Uint64
}

var (
	_ FrameView  = (*LogView)(nil)
	_ StatusView = (*LogView)(nil)
)

func NewLogView(logger *slog.Logger) *LogView { return &LogView{Logger: logger} }

func (v *LogView) UpdateFrame(img image.Image) {
	if v == nil || img == nil {
		return
	}
	v.frames.Add(1)
}

func (v *LogView) AppendLog(lines []string) {
	if v == nil {
		return
	}
	for _, l := range lines {
		v.lines.Add(1)
		if v.Logger != nil {
			v.Logger.Info("record", "line", l)
		}
	}
}

// DropLogLines is a no-op; the structured log is not bounded here.
func (v *LogView) DropLogLines(int) {}

func (v *LogView) SetStateLabel(text string) {
	if v != nil && v.Logger != nil {
		v.Logger.Info("state", "label", text)
	}
}

func (v *LogView) SetSession(run, total time.Duration) {}

func (v *LogView) SetStats(text string) {
	if v != nil && v.Logger != nil {
		v.Logger.Debug("stats", "summary", text)
	}
}

// Counts returns frames shown and log lines written so far.
func (v *LogView) Counts() (frames, lines uint64) {
	if v == nil {
		return 0, 0
	}
	return v.frames.Load(), v.lines.Load()
}
