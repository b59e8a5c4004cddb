package ui

import (
	"log/slog"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
)

// Run opens the main window and blocks until it closes. It must be called
// from the main goroutine.
func Run(ctrl *Controller, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	p := ctrl.State.Preferences()
	width, height := p.WindowWidth, p.WindowHeight
	if width < 640 || height < 480 {
		width, height = 1000, 800
	}

	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("OpenTraceProg - minipro programmer"),
			app.Size(unit.Dp(width), unit.Dp(height)),
			app.MinSize(unit.Dp(640), unit.Dp(480)),
		)
		ctrl.WatchPreferences()
		if err := New(w, ctrl, logger).Run(); err != nil {
			logger.Error("window closed with error", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()

	app.Main()
}
