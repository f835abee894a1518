package presenter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/sessionlog"
	"github.com/soocke/carton-vision/ui/model"
)

// SourceSession narrows what the control presenter needs from the pipeline session.
type SourceSession interface {
	Select(sel capture.Selector, device int, opener capture.Opener) capture.OpenResult
	TogglePaused() bool
	Paused() bool
	Log() *sessionlog.Log
}

// ControlView updates the controls and shows dialogs.
type ControlView interface {
	SetPauseLabel(text string)
	SetSourceChoice(index int)
	ShowInfo(title, msg string)
	ShowError(title, msg string)
}

// ControlPresenter owns source selection, pause toggling and log export.
type ControlPresenter struct {
	session SourceSession
	opener  capture.Opener
	device  int
	sources *model.SourceModel
	view    ControlView
	logDir  string
	now     func() time.Time
	logger  *slog.Logger
}

// NewControlPresenter returns a presenter exporting logs into logDir.
func NewControlPresenter(session SourceSession, opener capture.Opener, device int, sources *model.SourceModel, view ControlView, logDir string, logger *slog.Logger) *ControlPresenter {
	if sources == nil {
		sources = &model.SourceModel{}
	}
	return &ControlPresenter{
		session: session,
		opener:  opener,
		device:  device,
		sources: sources,
		view:    view,
		logDir:  logDir,
		now:     time.Now,
		logger:  logger,
	}
}

// SelectLive binds the live device.
func (c *ControlPresenter) SelectLive() {
	if c == nil || c.session == nil {
		return
	}
	c.apply(c.session.Select(capture.Live(c.device), c.device, c.opener))
}

// SelectFile binds the video at path. An empty path means the picker was
// cancelled: the selector resets to the live entry and the live device opens.
func (c *ControlPresenter) SelectFile(path string) {
	if c == nil || c.session == nil {
		return
	}
	if path == "" {
		if c.view != nil {
			c.view.SetSourceChoice(0)
		}
		c.SelectLive()
		return
	}
	c.apply(c.session.Select(capture.File(path), c.device, c.opener))
}

func (c *ControlPresenter) apply(res capture.OpenResult) {
	if res.Source == nil {
		if c.logger != nil {
			c.logger.Error("source selection failed", "selector", res.Requested.String(), "error", res.Err)
		}
		if c.view != nil {
			c.view.SetSourceChoice(c.sources.ChoiceIndex())
			c.view.ShowError("Source Unavailable", fmt.Sprintf("Could not open %s: %v", res.Requested, res.Err))
		}
		return
	}
	c.sources.Set(res.Opened, res.FellBack())
	if c.view == nil {
		return
	}
	c.view.SetSourceChoice(c.sources.ChoiceIndex())
	if res.FellBack() {
		c.view.ShowError("Source Unavailable", fmt.Sprintf("Could not open %s, switched to %s.", res.Requested, res.Opened))
	}
}

// TogglePause flips the paused flag and the button text.
func (c *ControlPresenter) TogglePause() {
	if c == nil || c.session == nil {
		return
	}
	paused := c.session.TogglePaused()
	if c.view != nil {
		c.view.SetPauseLabel(PauseLabel(paused))
	}
}

// PauseLabel is the pause button text for the given paused state.
func PauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

// ExportLog writes the session log to a new timestamped file.
func (c *ControlPresenter) ExportLog() (string, error) {
	if c == nil || c.session == nil {
		return "", fmt.Errorf("no session")
	}
	path, err := c.session.Log().Export(c.logDir, c.now())
	if err != nil {
		if c.logger != nil {
			c.logger.Error("log export", "dir", c.logDir, "error", err)
		}
		if c.view != nil {
			c.view.ShowError("Export Failed", err.Error())
		}
		return "", err
	}
	if c.logger != nil {
		c.logger.Info("log exported", "path", path, "records", c.session.Log().Len())
	}
	if c.view != nil {
		c.view.ShowInfo("Export Complete", "Log exported to "+path)
	}
	return path, nil
}
