package theme

// Theme setup for the detection window: palette constants and InitStyles,
// which activates the base theme and configures the semantic ttk styles.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg        = "#f7f9fb" // app background
	ColorSurface   = "#ffffff" // panels, log
	ColorPrimary   = "#2563eb" // pause / export
	ColorDanger    = "#dc2626" // exit
	ColorRunning   = "#10b981"
	ColorPaused    = "#f59e0b"
	ColorIdle      = "#64748b"
	ColorText      = "#1e293b"
	ColorTextLight = "white"
)

// Style names used with Style(...).
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStateLabel    = "state.TLabel"
)

// InitStyles applies the base theme and widget styles. Call once after the
// Tk application is initialized.
func InitStyles() {
	_ = ActivateTheme("azure light")
	App.Configure(Background(ColorBg))

	button := func(name, bg string) {
		StyleConfigure(name,
			Background(bg),
			Foreground(ColorTextLight),
			Padding("4p 3p"),
			Borderwidth(1),
			Relief("ridge"),
		)
	}
	button(StylePrimaryButton, ColorPrimary)
	button(StyleDangerButton, ColorDanger)

	StyleConfigure(StyleStateLabel,
		Foreground(ColorTextLight),
		Background(ColorIdle),
		Padding("4p 2p"),
		Borderwidth(1),
		Relief("groove"),
	)
}

// StateColor maps a state name to its label background.
func StateColor(state string) string {
	switch state {
	case "Running":
		return ColorRunning
	case "Paused":
		return ColorPaused
	default:
		return ColorIdle
	}
}
