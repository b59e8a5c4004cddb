package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/internal/config"
	"github.com/OpenTraceLab/OpenTraceProg/internal/ui"
)

func newUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Launch the desktop GUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state := ui.NewState()
			opts := ui.ControllerOptions{
				State:       state,
				Runner:      e.runner,
				Builder:     e.builder,
				Policy:      e.cfg.ProgressPolicy,
				ListTimeout: e.cfg.ListTimeout,
				Logger:      e.log,
			}

			if cat, err := e.openCatalog(); err != nil {
				e.log.Warn("device catalogue unavailable", "error", err)
			} else {
				defer cat.Close()
				opts.Devices = cat
			}

			if path, err := config.DefaultPreferencesPath(); err != nil {
				e.log.Warn("no preferences location", "error", err)
			} else if store, err := config.OpenPreferences(path); err != nil {
				e.log.Warn("preferences unavailable", "error", err)
			} else {
				prefs, err := store.Load()
				if err != nil {
					e.log.Warn("load preferences", "path", path, "error", err)
					prefs = config.DefaultPreferences()
				}
				state.SetPreferences(prefs)
				opts.Preferences = store
			}

			state.SetDebug(e.cfg.Debug)
			ui.Run(ui.NewController(opts), e.log)
			return nil
		},
	}
}
