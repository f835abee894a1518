package app

import (
	"fmt"
	"sync"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/carton-vision/ui/model"
	"github.com/soocke/carton-vision/ui/presenter"
	"github.com/soocke/carton-vision/ui/theme"
	"github.com/soocke/carton-vision/ui/view"
)

const windowTitle = "Carton Box Detection with OCR"

type app struct {
	c     *AppContainer
	view  *view.RootView
	sched *tkScheduler

	control *presenter.ControlPresenter
	status  *presenter.StatusPresenter
	display *presenter.DisplayPresenter
	loop    *presenter.Loop

	exitOnce sync.Once
}

// NewApp sets up the main window for the container's pipeline.
func NewApp(c *AppContainer) *app {
	a := &app{c: c}
	App.WmTitle(windowTitle)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", c.Config.WindowWidth, c.Config.WindowHeight))
	return a
}

// Start builds the UI, binds the live device and runs the Tk event loop until
// the window closes.
func (a *app) Start() {
	theme.InitStyles()
	a.view = view.NewRootView(a.c.Config, a.c.ConfigPath, a.c.Logger)
	a.view.Build(view.Handlers{
		OnSourceChosen: a.onSourceChosen,
		OnTogglePause:  func() { a.control.TogglePause() },
		OnExport:       func() { _, _ = a.control.ExportLog() },
		OnExit:         a.exitHandler,
		OnApplyConfig:  a.c.ApplyConfig,
	})

	a.control = presenter.NewControlPresenter(a.c.Session, a.c.Opener, a.c.Config.DeviceID, a.c.Sources, a.view, a.c.Config.LogDir, a.c.Logger)
	a.status = presenter.NewStatusPresenter(a.c.Session, a.c.Processor, a.c.SessionModel, a.c.Sources, a.view)
	a.display = presenter.NewDisplayPresenter(a.view, 0)
	a.c.Processor.Display = a.display
	a.loop = presenter.NewLoop(a.c.Processor, a.status)

	a.control.SelectLive()

	a.sched = newTkScheduler(a.c.Interval)
	a.sched.Start(func() { a.loop.Tick() })

	App.Wait()
}

func (a *app) onSourceChosen(index int) {
	switch index {
	case 0:
		a.control.SelectLive()
	case 1:
		a.control.SelectFile(a.view.ChooseFile())
	default:
		a.c.Logger.Warn("unknown source choice", "index", index, "choices", len(model.Choices()))
	}
}

func (a *app) exitHandler() {
	a.exitOnce.Do(func() {
		if a.sched != nil {
			a.sched.Stop()
		}
		if err := a.c.Close(); err != nil {
			a.c.Logger.Error("shutdown", "error", err)
		}
		Destroy(App)
	})
}
