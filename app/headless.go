package app

import (
	"context"
	"fmt"
	"time"

	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/pipeline"
	"github.com/soocke/carton-vision/ui/presenter"
)

// RunHeadless drives the same loop without a window until ctx is cancelled or
// a file source is exhausted, then exports the session log and releases
// resources.
func RunHeadless(ctx context.Context, c *AppContainer, sel capture.Selector) error {
	logView := presenter.NewLogView(c.Logger)
	c.Processor.Display = presenter.NewDisplayPresenter(logView, 0)
	status := presenter.NewStatusPresenter(c.Session, c.Processor, c.SessionModel, c.Sources, logView)
	loop := presenter.NewLoop(c.Processor, status)

	res := c.Session.Select(sel, c.Config.DeviceID, c.Opener)
	if res.Source == nil {
		_ = c.Close()
		return fmt.Errorf("open %s: %w", sel, res.Err)
	}
	c.Sources.Set(res.Opened, res.FellBack())
	if res.FellBack() {
		c.Logger.Warn("source fell back to live", "requested", sel.String(), "error", res.Err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sched := pipeline.NewTimerScheduler(c.Interval)
	sched.Run(ctx, func() {
		if loop.Tick() == pipeline.OutcomeEndOfStream {
			c.Logger.Info("source exhausted", "source", res.Opened.String())
			cancel()
		}
	})

	frames, lines := logView.Counts()
	c.Logger.Info("headless stopped", "frames", frames, "records", lines)
	path, err := c.Session.Log().Export(c.Config.LogDir, time.Now())
	if err != nil {
		c.Logger.Error("log export", "dir", c.Config.LogDir, "error", err)
	} else {
		c.Logger.Info("log exported", "path", path)
	}
	if cerr := c.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
