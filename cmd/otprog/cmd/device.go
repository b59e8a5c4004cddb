package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
)

func newInfoCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "info <device>",
		Short: "Show the database entry for a device (minipro -d)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := e.builder.DeviceInfo(args[0])
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			lines := &lineCollector{Printer: p}
			if err := e.runWith(cmd, inv, p, lines); err != nil {
				return err
			}
			info, err := minipro.ParseDeviceInfo(lines.Text())
			if err != nil {
				e.log.Debug("device info not parsed", "error", err)
				return nil
			}
			if len(info.Fields) > 0 {
				p.Info("Summary: " + info.Summary())
			}
			return nil
		},
	}
}

func newIDCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "id <device>",
		Short: "Read the chip ID (minipro -D)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.issue(cmd)(e.builder.ReadChipID(args[0]))
		},
	}
}

func newPinCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pincheck <device>",
		Short: "Check the chip is seated correctly (minipro -z)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.issue(cmd)(e.builder.PinCheck(args[0]))
		},
	}
}

func newLogicCmd(e *env) *cobra.Command {
	var vcc string
	cmd := &cobra.Command{
		Use:   "logic <device>",
		Short: "Test a logic or SRAM chip (minipro -T)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.issue(cmd)(e.builder.LogicTest(args[0], vcc))
		},
	}
	cmd.Flags().StringVar(&vcc, "vcc", minipro.DefaultOption, "VCC override in volts")
	return cmd
}

func newAutoDetectCmd(e *env) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "autodetect",
		Short: "Identify an SPI 25xx flash in the socket (minipro -a)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.issue(cmd)(e.builder.AutoDetect(width))
		},
	}
	cmd.Flags().IntVar(&width, "width", 8, "package pin count: 8 or 16")
	return cmd
}
