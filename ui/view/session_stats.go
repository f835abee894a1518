package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// StatusBar shows run/total durations and the counters line.
type StatusBar interface {
	SetSession(run, total time.Duration)
	SetStats(text string)
}

type statusBar struct {
	runLbl   *LabelWidget
	totalLbl *LabelWidget
	statsLbl *LabelWidget
}

// NewStatusBar grids the duration labels at (row, startCol) and (row, startCol+1)
// and the counters label after them, inside parent.
func NewStatusBar(parent *FrameWidget, row, startCol int) StatusBar {
	s := &statusBar{
		runLbl:   Label(Width(14), Anchor("w")),
		totalLbl: Label(Width(14), Anchor("w")),
		statsLbl: Label(Anchor("w")),
	}
	Grid(s.runLbl, In(parent), Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
	Grid(s.totalLbl, In(parent), Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	Grid(s.statsLbl, In(parent), Row(row), Column(startCol+2), Sticky("we"), Padx("0.2m"))
	s.runLbl.Configure(Txt("Run: 00:00"))
	s.totalLbl.Configure(Txt("Total: 00:00"))
	return s
}

func (s *statusBar) SetSession(run, total time.Duration) {
	if s == nil || s.runLbl == nil {
		return
	}
	s.runLbl.Configure(Txt("Run: " + clock(run)))
	s.totalLbl.Configure(Txt("Total: " + clock(total)))
}

func (s *statusBar) SetStats(text string) {
	if s == nil || s.statsLbl == nil {
		return
	}
	s.statsLbl.Configure(Txt(text))
}

// clock formats d as mm:ss, switching to h:mm:ss past an hour.
func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds/60)%60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
