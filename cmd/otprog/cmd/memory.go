package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
)

// memoryFlag registers --memory and returns its parsed value lazily.
func memoryFlag(fs *pflag.FlagSet) func() (minipro.MemoryType, error) {
	s := fs.StringP("memory", "c", string(minipro.MemoryCode), "memory type: code, data, config, user or calibration")
	return func() (minipro.MemoryType, error) {
		return minipro.ParseMemoryType(*s)
	}
}

func newBlankCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blank <device>",
		Short: "Check that the device is blank (minipro -b)",
		Args:  cobra.ExactArgs(1),
	}
	memory := memoryFlag(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mem, err := memory()
		if err != nil {
			return err
		}
		return e.issue(cmd)(e.builder.BlankCheck(args[0], mem))
	}
	return cmd
}

func newReadCmd(e *env) *cobra.Command {
	var (
		format      string
		skipIDCheck bool
	)
	cmd := &cobra.Command{
		Use:   "read <device> <file>",
		Short: "Read device memory into a file (minipro -r)",
		Args:  cobra.ExactArgs(2),
	}
	memory := memoryFlag(cmd.Flags())
	cmd.Flags().StringVarP(&format, "format", "f", string(minipro.FormatBinary), "file format: binary, ihex or srec")
	cmd.Flags().BoolVarP(&skipIDCheck, "skip-id", "x", false, "skip the chip ID check")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mem, err := memory()
		if err != nil {
			return err
		}
		f, err := minipro.ParseFormat(format)
		if err != nil {
			return err
		}
		return e.issue(cmd)(e.builder.Read(args[0], args[1], minipro.ReadOptions{
			Memory:      mem,
			Format:      f,
			SkipIDCheck: skipIDCheck,
		}))
	}
	return cmd
}

func newWriteCmd(e *env) *cobra.Command {
	var opts minipro.WriteOptions
	cmd := &cobra.Command{
		Use:   "write <device> <file>",
		Short: "Program a file into the device (minipro -w)",
		Args:  cobra.ExactArgs(2),
	}
	memory := memoryFlag(cmd.Flags())
	fs := cmd.Flags()
	fs.StringVar(&opts.Voltages.VPP, "vpp", minipro.DefaultOption, "programming voltage")
	fs.StringVar(&opts.Voltages.VDD, "vdd", minipro.DefaultOption, "write voltage")
	fs.StringVar(&opts.Voltages.VCC, "vcc", minipro.DefaultOption, "verify voltage")
	fs.StringVar(&opts.Voltages.SPIClock, "spi-clock", minipro.DefaultOption, "SPI clock in MHz")
	fs.IntVar(&opts.Voltages.Pulse, "pulse", 0, "programming pulse delay in microseconds")
	fs.BoolVarP(&opts.Unprotect, "unprotect", "u", false, "disable write protection before writing")
	fs.BoolVarP(&opts.Protect, "protect", "P", false, "enable write protection after writing")
	fs.BoolVarP(&opts.ICSPWithVCC, "icsp-vcc", "i", false, "use ICSP with VCC")
	fs.BoolVarP(&opts.ICSPWithoutVCC, "icsp", "I", false, "use ICSP without VCC")
	fs.BoolVarP(&opts.SkipErase, "skip-erase", "e", false, "do not erase before writing")
	fs.BoolVar(&opts.SkipVerify, "skip-verify", false, "do not verify after writing")
	fs.BoolVar(&opts.NoIDError, "no-id-error", false, "continue on chip ID mismatch")
	fs.BoolVarP(&opts.NoSizeError, "no-size-error", "s", false, "continue on file size mismatch")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mem, err := memory()
		if err != nil {
			return err
		}
		opts.Memory = mem
		return e.issue(cmd)(e.builder.Write(args[0], args[1], opts))
	}
	return cmd
}

func newVerifyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <device> <file>",
		Short: "Compare device memory with a file (minipro -m)",
		Args:  cobra.ExactArgs(2),
	}
	memory := memoryFlag(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mem, err := memory()
		if err != nil {
			return err
		}
		return e.issue(cmd)(e.builder.Verify(args[0], args[1], mem))
	}
	return cmd
}

func newEraseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "erase <device>",
		Short: "Erase the whole device (minipro -E)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.issue(cmd)(e.builder.Erase(args[0]))
		},
	}
}
