package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
)

// loadDevicesFunc runs the device list query. Swapped in tests.
var loadDevicesFunc = minipro.LoadDeviceList

func newDevicesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Browse the device catalogue",
		Long: `The catalogue starts with a short list of common devices. Run
"otprog devices refresh" once to cache every device minipro supports.`,
	}
	cmd.AddCommand(newDevicesListCmd(e), newDevicesSearchCmd(e), newDevicesRefreshCmd(e))
	return cmd
}

func (e *env) openCatalog() (*catalog.Catalog, error) {
	if e.cfg.CatalogPath == "" {
		return nil, errors.New("catalog.path is not set")
	}
	return catalog.Open(e.cfg.CatalogPath)
}

// knownDevices returns the cached catalogue, or the common devices when it
// is empty or unavailable.
func (e *env) knownDevices(cmd *cobra.Command, cat *catalog.Catalog) []string {
	if cat != nil {
		names, err := cat.All(cmd.Context())
		if err == nil && len(names) > 0 {
			return names
		}
		if err != nil {
			e.log.Warn("read catalogue", "error", err)
		}
	}
	return minipro.CommonDevices
}

func newDevicesListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every known device name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := e.openCatalog()
			if err != nil {
				e.log.Warn("catalogue unavailable", "error", err)
			} else {
				defer cat.Close()
			}
			out := cmd.OutOrStdout()
			for _, name := range e.knownDevices(cmd, cat) {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newDevicesSearchCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find devices whose name contains text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var matches []string
			cat, err := e.openCatalog()
			if err == nil {
				defer cat.Close()
				matches, err = cat.Search(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
			} else {
				e.log.Warn("catalogue unavailable", "error", err)
			}
			if len(matches) == 0 {
				q := strings.ToLower(args[0])
				for _, name := range minipro.CommonDevices {
					if strings.Contains(strings.ToLower(name), q) && len(matches) < limit {
						matches = append(matches, name)
					}
				}
			}
			if len(matches) == 0 {
				return fmt.Errorf("no device matches %q", args[0])
			}
			out := cmd.OutOrStdout()
			for _, name := range matches {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultSearchLimit, "maximum number of results")
	return cmd
}

func newDevicesRefreshCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Load the full device list from minipro into the catalogue (minipro -l)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := e.printer(cmd)
			inv := e.builder.ListDevices()
			p.Command(inv.String())
			p.Info(fmt.Sprintf("Loading devices (up to %s)...", e.cfg.ListTimeout))

			names, err := loadDevicesFunc(cmd.Context(), inv, e.cfg.ListTimeout)
			if err != nil || len(names) == 0 {
				p.Failure("Failed to load device list. Make sure minipro is installed.")
				if err == nil {
					err = errors.New("minipro returned no devices")
				}
				return err
			}

			cat, err := e.openCatalog()
			if err != nil {
				return err
			}
			defer cat.Close()
			if err := cat.Replace(cmd.Context(), names); err != nil {
				return err
			}
			p.Success(fmt.Sprintf("Loaded %s devices into %s", humanize.Comma(int64(len(names))), e.cfg.CatalogPath))
			return nil
		},
	}
}
