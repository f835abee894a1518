package presenter

import "image"

// DefaultMaxLogLines bounds the on-screen log; the session log itself keeps everything.
const DefaultMaxLogLines = 1000

// FrameView renders frames and on-screen log lines.
type FrameView interface {
	UpdateFrame(img image.Image)
	AppendLog(lines []string)
	DropLogLines(n int)
}

// DisplayPresenter forwards processed frames and log lines to the view and
// keeps the on-screen log bounded.
type DisplayPresenter struct {
	view     FrameView
	maxLines int
	lines    int
}

func NewDisplayPresenter(view FrameView, maxLines int) *DisplayPresenter {
	if maxLines <= 0 {
		maxLines = DefaultMaxLogLines
	}
	return &DisplayPresenter{view: view, maxLines: maxLines}
}

// ShowFrame displays the annotated frame.
func (p *DisplayPresenter) ShowFrame(img image.Image) {
	if p == nil || p.view == nil || img == nil {
		return
	}
	p.view.UpdateFrame(img)
}

// AppendLog mirrors log lines on screen, dropping the oldest beyond the cap.
func (p *DisplayPresenter) AppendLog(lines []string) {
	if p == nil || p.view == nil || len(lines) == 0 {
		return
	}
	p.view.AppendLog(lines)
	p.lines += len(lines)
	if over := p.lines - p.maxLines; over > 0 {
		p.view.DropLogLines(over)
		p.lines = p.maxLines
	}
}
