package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/OpenTraceLab/OpenTraceProg/internal/config"
	"github.com/OpenTraceLab/OpenTraceProg/internal/console"
	"github.com/OpenTraceLab/OpenTraceProg/internal/logging"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
)

const version = "0.1.0"

// ExitError carries the exit status of the programmer back to main.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("minipro exited with code %d", e.Code)
}

// ExitCode maps the status to a process exit code. A launch failure (-1)
// becomes 1.
func (e *ExitError) ExitCode() int {
	if e.Code < 0 || e.Code > 255 {
		return 1
	}
	return e.Code
}

// Global flags.
type globalFlags struct {
	cfgFile string
	verbose bool
	yes     bool
}

// env is the per-invocation runtime shared by subcommands.
type env struct {
	flags globalFlags
	v     *viper.Viper

	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
	builder  minipro.Builder
	runner   *runner.Runner
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{v: viper.New(), closeLog: func() error { return nil }}

	root := &cobra.Command{
		Use:   "otprog",
		Short: "OpenTraceProg - front-end for the minipro TL866/T48 programmer",
		Long: `OpenTraceProg (otprog) drives the minipro command-line tool for
TL866A/CS, TL866II+, T48 and T56 programmers. It streams minipro's output,
infers progress from it and asks before destructive operations.

Examples:
  otprog ui                                   # Launch the desktop GUI
  otprog detect                               # Identify the connected programmer
  otprog read AT28C256 dump.bin               # Read a chip into a file
  otprog write --memory data 24C02 eep.bin    # Program the data area
  otprog exec -- -p W25Q64 -r flash.bin       # Pass arguments through as-is`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.closeLog()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.cfgFile, "config", "", "config file (default is <user config dir>/opentraceprog/config.yaml)")
	pf.BoolVarP(&e.flags.verbose, "verbose", "v", false, "verbose logging")
	pf.BoolVar(&e.flags.yes, "yes", false, "do not ask before destructive operations")
	pf.Bool("debug", false, "trace how progress is inferred from each line")
	pf.String("minipro", minipro.DefaultProgram, "minipro executable")
	pf.String("unbuffer", string(runner.UnbufferAuto), "line buffering for minipro: auto, stdbuf, pty or off")
	pf.String("progress", string(progress.PolicyPassthrough), "progress policy: passthrough or monotonic")
	_ = e.v.BindPFlag(config.KeyDebug, pf.Lookup("debug"))
	_ = e.v.BindPFlag(config.KeyMiniproPath, pf.Lookup("minipro"))
	_ = e.v.BindPFlag(config.KeyUnbuffer, pf.Lookup("unbuffer"))
	_ = e.v.BindPFlag(config.KeyProgressPolicy, pf.Lookup("progress"))

	root.AddCommand(
		newUICmd(e),
		newDetectCmd(e),
		newQueryCmd(e),
		newHWCheckCmd(e),
		newDevicesCmd(e),
		newInfoCmd(e),
		newIDCmd(e),
		newPinCheckCmd(e),
		newBlankCmd(e),
		newReadCmd(e),
		newWriteCmd(e),
		newVerifyCmd(e),
		newEraseCmd(e),
		newFirmwareCmd(e),
		newLogicCmd(e),
		newAutoDetectCmd(e),
		newExecCmd(e),
	)
	return root
}

// Execute runs the root command and exits with the programmer's status.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.v, e.flags.cfgFile)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if e.flags.verbose {
		level = slog.LevelDebug
	}
	logger, closer, err := logging.Init(cmd.ErrOrStderr(), level, cfg.LogFile)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.log = logger
	e.closeLog = closer
	e.builder = minipro.NewBuilder(cfg.MiniproPath)
	e.runner = runner.New(cfg.RunnerConfig(logger))
	logger.Debug("configuration loaded", "minipro", cfg.MiniproPath, "unbuffer", cfg.Unbuffer, "policy", cfg.ProgressPolicy)
	return nil
}

func (e *env) printer(cmd *cobra.Command) *console.Printer {
	out := cmd.OutOrStdout()
	return console.New(out, console.Options{Bar: isTerminal(out), Policy: e.cfg.ProgressPolicy})
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
