package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/carton-vision/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel edits the thresholds that can change while the loop runs.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int)
	ApplyChanges()
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	onApply  func(*config.Config)
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget
}

// NewConfigPanel creates the panel bound to cfg. onApply receives the updated
// config after it validates and is saved.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(8))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("confidence", "Detection confidence", fmt.Sprintf("%.2f", v.cfg.ConfidenceThreshold))
	makeRow("ocrAcceptance", "OCR acceptance", fmt.Sprintf("%.2f", v.cfg.OCRAcceptance))
	v.applyBtn = Button(Txt("Apply"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) text(id string) string {
	w := v.widgets[id]
	if w == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), ""))
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg
	if f, ok := parseUnitInterval(v.text("confidence")); ok {
		cfg.ConfidenceThreshold = f
	}
	if f, ok := parseUnitInterval(v.text("ocrAcceptance")); ok {
		cfg.OCRAcceptance = f
	}
	if err := cfg.Validate(); err != nil {
		return
	}
	*v.cfg = cfg
	if v.cfgPath != "" {
		if err := config.SaveThresholds(v.cfgPath, cfg.ConfidenceThreshold, cfg.OCRAcceptance); err != nil {
			if v.logger != nil {
				v.logger.Error("config save failed", "error", err)
			}
		} else if v.logger != nil {
			v.logger.Info("config saved", "path", v.cfgPath)
		}
	}
	if v.onApply != nil {
		v.onApply(v.cfg)
	}
}

// parseUnitInterval accepts a float in [0,1].
func parseUnitInterval(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}
