package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProg/internal/console"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
)

// confirmFunc asks the user about a destructive invocation. Swapped in tests.
var confirmFunc = confirmInteractive

// run issues inv through the printer. A non-zero exit becomes an ExitError.
func (e *env) run(cmd *cobra.Command, inv minipro.Invocation, buildErr error) error {
	if buildErr != nil {
		return buildErr
	}
	p := e.printer(cmd)
	return e.runWith(cmd, inv, p, p)
}

// issue returns run bound to cmd so a builder's two results can be passed
// straight in: e.issue(cmd)(e.builder.Erase(dev)).
func (e *env) issue(cmd *cobra.Command) func(minipro.Invocation, error) error {
	return func(inv minipro.Invocation, err error) error {
		return e.run(cmd, inv, err)
	}
}

// runWith is run with a custom handler wrapped around p.
func (e *env) runWith(cmd *cobra.Command, inv minipro.Invocation, p *console.Printer, h runner.Handler) error {
	if inv.Destructive && !e.flags.yes {
		ok, err := confirmFunc(cmd, inv)
		if err != nil {
			return err
		}
		if !ok {
			p.Info("Cancelled.")
			return nil
		}
	}

	p.Command(inv.String())
	code, err := e.runner.Run(inv.Argv(), e.cfg.Debug, h)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func confirmInteractive(cmd *cobra.Command, inv minipro.Invocation) (bool, error) {
	if !isTerminal(cmd.InOrStdin()) {
		return false, fmt.Errorf("%s needs confirmation; pass --yes to run it without a terminal", strings.ToLower(inv.Summary))
	}
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(inv.Summary).
				Description(inv.Warning+"\n\n"+inv.String()).
				Value(&ok).
				Affirmative("Continue").
				Negative("Cancel"),
		),
	).WithTheme(huh.ThemeBase16())
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// lineCollector keeps the output lines of both streams while forwarding
// them to the printer.
type lineCollector struct {
	*console.Printer
	lines []string
}

func (c *lineCollector) Line(s runner.Stream, line string) {
	c.lines = append(c.lines, line)
	c.Printer.Line(s, line)
}

func (c *lineCollector) Text() string {
	return strings.Join(c.lines, "\n")
}
