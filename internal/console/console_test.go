package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
)

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{})

	p.Command("minipro -p 27C256@DIP28 -r out.bin")
	p.Line(runner.Stdout, "Found T48 01.1.31 (0x11f)")
	p.Line(runner.Stderr, "Reading code... 100%")
	p.Debug("[PROGRESS] Detected: Reading operation")
	p.Progress(progress.Event{Percent: 100, Label: "Reading: 100%", Rule: progress.RulePercent})
	p.Exit(0)

	out := buf.String()
	assert.Contains(t, out, "$ minipro -p 27C256@DIP28 -r out.bin\n")
	assert.Contains(t, out, "Found T48 01.1.31 (0x11f)\n")
	assert.Contains(t, out, "[PROGRESS] Detected: Reading operation\n")
	assert.Contains(t, out, "✓ Command completed successfully\n")
	assert.NotContains(t, out, "\r", "no bar without a terminal")
	assert.Equal(t, 0, p.ExitCode())
	assert.Equal(t, "Complete!", p.LastProgress().Label)
}

func TestPrinterFailure(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{})

	p.Error(errors.New("error executing command: exec: \"minipro\": executable file not found in $PATH"))
	p.Exit(runner.ExitLaunchFailure)

	out := buf.String()
	assert.Contains(t, out, "Error executing command")
	assert.Contains(t, out, "✗ Command failed with exit code -1\n")
	assert.Equal(t, runner.ExitLaunchFailure, p.ExitCode())
	assert.Len(t, p.Errors(), 1)
}

func TestPrinterBar(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Bar: true, BarWidth: 10})

	p.Progress(progress.Event{Percent: 50, Label: "Reading: 50%", Rule: progress.RulePercent})
	p.Line(runner.Stderr, "Reading code... 50%")
	p.Exit(0)

	out := buf.String()
	assert.Contains(t, out, clearLine)
	assert.Contains(t, out, "Reading: 50%")
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Reading code... 50%\n")
}

func TestPrinterMonotonicPolicy(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{Policy: progress.PolicyMonotonic})

	p.Progress(progress.Event{Percent: 60, Label: "Writing: 60%", Rule: progress.RulePercent})
	p.Progress(progress.Event{Percent: 20, Label: "Writing: 20%", Rule: progress.RulePercent})
	assert.Equal(t, 60, p.LastProgress().Percent)
}
