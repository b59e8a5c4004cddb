package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/usbprobe"
)

// discoverFunc lists programmers on USB. Swapped in tests.
var discoverFunc = usbprobe.Discover

func newDetectCmd(e *env) *cobra.Command {
	var skipUSB bool
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Identify the connected programmer",
		Long: `Scan USB for known programmers and ask minipro to report the connected
model and firmware version (minipro -k).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := e.printer(cmd)
			if !skipUSB {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				infos, err := discoverFunc(ctx)
				cancel()
				switch {
				case err != nil:
					e.log.Warn("usb scan failed", "error", err)
					p.Info("USB scan failed: " + err.Error())
				case len(infos) == 0:
					p.Info("USB: no known programmer found")
				}
				for _, info := range infos {
					p.Info("USB: " + info.Label())
				}
			}
			return e.runWith(cmd, e.builder.DetectProgrammer(), p, p)
		},
	}
	cmd.Flags().BoolVar(&skipUSB, "skip-usb", false, "do not scan USB before asking minipro")
	return cmd
}

func newQueryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "List the programmer models minipro supports (minipro -Q)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, e.builder.QuerySupported(), nil)
		},
	}
}

func newHWCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "hwcheck",
		Short: "Run the programmer self test with no chip inserted (minipro -t)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.run(cmd, e.builder.HardwareCheck(), nil)
		},
	}
}

func newFirmwareCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "firmware <update.dat>",
		Short: "Update the programmer firmware (minipro -F)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := e.builder.UpdateFirmware(args[0])
			return e.run(cmd, inv, err)
		},
	}
}
