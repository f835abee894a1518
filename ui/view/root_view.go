package view

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soocke/carton-vision/config"
	"github.com/soocke/carton-vision/ui/model"
	"github.com/soocke/carton-vision/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const (
	logHeight = 10
	logWidth  = 120
	// Vertical space reserved for controls, log and status below the preview.
	chromeHeight = 330
)

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Preview  FramePreview
	Status   StatusBar
	Settings ConfigPanel

	// Widgets
	StateLabel   *TLabelWidget
	SourceSelect *TComboboxWidget
	PauseButton  *TButtonWidget
	LogText      *TextWidget
}

// UI abstracts the view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	// Control
	SetPauseLabel(text string)
	SetSourceChoice(index int)
	ShowInfo(title, msg string)
	ShowError(title, msg string)
	ChooseFile() string
	// Status
	SetStateLabel(text string)
	SetSession(run, total time.Duration)
	SetStats(text string)
	// Display
	UpdateFrame(img image.Image)
	AppendLog(lines []string)
	DropLogLines(n int)
}

var _ UI = (*RootView)(nil)

// Handlers are invoked on user actions.
type Handlers struct {
	OnSourceChosen func(index int)
	OnTogglePause  func()
	OnExport       func()
	OnExit         func()
	OnApplyConfig  func(*config.Config)
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout: preview, control row, on-screen log, status row
// and the settings panel.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	previewW := rv.cfg.WindowWidth - 40
	previewH := rv.cfg.WindowHeight - chromeHeight
	rv.Preview = NewFramePreview(0, 2, previewW, previewH)

	// Row 1: source selector, pause, export, exit
	controls := Frame()
	Grid(controls, Row(1), Column(0), Sticky("w"), Padx("0.4m"), Pady("1m"))
	choices := model.Choices()
	rv.SourceSelect = TCombobox(Values(choices), Width(30))
	Grid(rv.SourceSelect, In(controls), Row(0), Column(0), Sticky("we"), Padx("1m"))
	rv.SourceSelect.Current(0)
	Bind(rv.SourceSelect, "<<ComboboxSelected>>", Command(func() {
		if rv.SourceSelect == nil || h.OnSourceChosen == nil {
			return
		}
		idx, err := strconv.Atoi(rv.SourceSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(choices) {
			if rv.logger != nil {
				rv.logger.Error("source selection parse error", "error", err)
			}
			return
		}
		h.OnSourceChosen(idx)
	}))
	rv.PauseButton = TButton(Txt("Pause"), Width(10), Style(theme.StylePrimaryButton), Command(h.OnTogglePause))
	Grid(rv.PauseButton, In(controls), Row(0), Column(1), Padx("1m"))
	exportBtn := TButton(Txt("Export Log"), Width(15), Style(theme.StylePrimaryButton), Command(h.OnExport))
	Grid(exportBtn, In(controls), Row(0), Column(2), Padx("1m"))
	exitBtn := TButton(Txt("Exit"), Width(8), Style(theme.StyleDangerButton), Command(h.OnExit))
	Grid(exitBtn, In(controls), Row(0), Column(3), Padx("1m"))

	// Row 1, right: settings
	settings := Frame()
	Grid(settings, Row(1), Column(1), Rowspan(2), Sticky("ne"), Padx("0.4m"), Pady("1m"))
	rv.Settings = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, h.OnApplyConfig)
	rv.Settings.Build(settings, 0)

	// Row 2: on-screen log
	rv.LogText = Text(Height(logHeight), Width(logWidth))
	Grid(rv.LogText, Row(2), Column(0), Sticky("we"), Padx("0.4m"), Pady("1m"))

	// Row 3: state + durations + counters
	status := Frame()
	Grid(status, Row(3), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.StateLabel = TLabel(Txt("State: Idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, In(status), Row(0), Column(0), Sticky("w"), Padx("0.4m"))
	rv.Status = NewStatusBar(status, 0, 1)
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		state := strings.TrimPrefix(text, "State: ")
		rv.StateLabel.Configure(Txt(text), Background(theme.StateColor(state)))
	}
}

// SetSession updates the run and total durations.
func (rv *RootView) SetSession(run, total time.Duration) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetSession(run, total)
	}
}

// SetStats updates the counters line.
func (rv *RootView) SetStats(text string) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetStats(text)
	}
}

// UpdateFrame proxies to the preview.
func (rv *RootView) UpdateFrame(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdateFrame(img)
	}
}

// AppendLog appends lines to the on-screen log and scrolls to the end.
func (rv *RootView) AppendLog(lines []string) {
	if rv == nil || rv.LogText == nil || len(lines) == 0 {
		return
	}
	rv.LogText.Insert(END, strings.Join(lines, "\n")+"\n")
	rv.LogText.See(END)
}

// DropLogLines removes the oldest n lines from the on-screen log.
func (rv *RootView) DropLogLines(n int) {
	if rv == nil || rv.LogText == nil || n <= 0 {
		return
	}
	rv.LogText.Delete("1.0", fmt.Sprintf("%d.0", n+1))
}

// --- ControlPresenter view contract methods ---

// SetPauseLabel sets the pause button text.
func (rv *RootView) SetPauseLabel(text string) {
	if rv != nil && rv.PauseButton != nil {
		rv.PauseButton.Configure(Txt(text))
	}
}

// SetSourceChoice selects the combobox entry without firing the selection event.
func (rv *RootView) SetSourceChoice(index int) {
	if rv != nil && rv.SourceSelect != nil && index >= 0 {
		rv.SourceSelect.Current(index)
	}
}

func (rv *RootView) ShowInfo(title, msg string) {
	MessageBox(Icon("info"), Title(title), Msg(msg))
}

func (rv *RootView) ShowError(title, msg string) {
	MessageBox(Icon("error"), Title(title), Msg(msg))
}

// ChooseFile opens the file picker and returns the chosen path, or "" when
// the dialog was cancelled.
func (rv *RootView) ChooseFile() string {
	files := GetOpenFile(Title("Select Video File"))
	// Tk returns a list; a path containing spaces may arrive split.
	return strings.TrimSpace(strings.Join(files, " "))
}
