// Package console renders runner output for the command line.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	barprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
)

// Colours shared with the desktop console.
const (
	ColorCommand = "#4fc3f7"
	ColorError   = "#f44336"
	ColorDebug   = "#9c27b0"
	ColorSuccess = "#4caf50"
	ColorMuted   = "#9e9e9e"
)

const clearLine = "\r\x1b[K"

// Options controls what the Printer shows.
type Options struct {
	// Bar draws an in-place progress bar. Only enable it on a terminal.
	Bar      bool
	BarWidth int
	Policy   progress.Policy
}

// Printer is a runner.Handler writing to a terminal or plain stream.
type Printer struct {
	out  io.Writer
	opts Options

	command lipgloss.Style
	failure lipgloss.Style
	debug   lipgloss.Style
	success lipgloss.Style
	muted   lipgloss.Style

	mu        sync.Mutex
	tracker   *progress.Tracker
	bar       barprogress.Model
	barShown  bool
	lastEvent progress.Event
	exitCode  int
	errs      []error
}

var _ runner.Handler = (*Printer)(nil)

// New returns a Printer writing to out. Colour is enabled only when out is
// a colour-capable terminal.
func New(out io.Writer, opts Options) *Printer {
	r := lipgloss.NewRenderer(out)
	if opts.BarWidth <= 0 {
		opts.BarWidth = 40
	}
	return &Printer{
		out:     out,
		opts:    opts,
		command: r.NewStyle().Foreground(lipgloss.Color(ColorCommand)),
		failure: r.NewStyle().Foreground(lipgloss.Color(ColorError)),
		debug:   r.NewStyle().Foreground(lipgloss.Color(ColorDebug)),
		success: r.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color(ColorMuted)),
		tracker: progress.NewTracker(opts.Policy),
		bar: barprogress.New(
			barprogress.WithDefaultGradient(),
			barprogress.WithWidth(opts.BarWidth),
			barprogress.WithoutPercentage(),
		),
		exitCode: runner.ExitLaunchFailure,
	}
}

// Command echoes the command line about to run.
func (p *Printer) Command(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Reset()
	p.println(p.command.Render("$ " + line))
}

// Info prints a neutral status message.
func (p *Printer) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(p.muted.Render(msg))
}

// Success prints a green confirmation.
func (p *Printer) Success(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(p.success.Render("✓ " + msg))
}

// Failure prints a red message.
func (p *Printer) Failure(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(p.failure.Render("✗ " + msg))
}

func (p *Printer) Line(_ runner.Stream, line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(line)
}

func (p *Printer) Debug(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.println(p.debug.Render(msg))
}

func (p *Printer) Progress(ev progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	shown, ok := p.tracker.Observe(ev)
	if !ok {
		return
	}
	p.lastEvent = shown
	if p.opts.Bar {
		p.drawBar()
	}
}

func (p *Printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
	p.println(p.failure.Render(capitalize(err.Error())))
}

func (p *Printer) Exit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exitCode = code
	if code == 0 {
		p.lastEvent = progress.Event{Percent: 100, Label: "Complete!", Rule: progress.RuleDone}
		if p.opts.Bar && p.barShown {
			p.drawBar()
		}
	}
	p.endBar()
	if code == 0 {
		fmt.Fprintln(p.out, p.success.Render("✓ Command completed successfully"))
		return
	}
	fmt.Fprintln(p.out, p.failure.Render(fmt.Sprintf("✗ Command failed with exit code %d", code)))
}

// ExitCode returns the last reported exit status.
func (p *Printer) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Errors returns the errors reported by the runner.
func (p *Printer) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}

// LastProgress returns the latest displayed progress reading.
func (p *Printer) LastProgress() progress.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastEvent
}

// println writes a full line, keeping the progress bar below it.
func (p *Printer) println(s string) {
	if p.barShown {
		fmt.Fprint(p.out, clearLine)
	}
	fmt.Fprintln(p.out, s)
	if p.barShown {
		p.drawBar()
	}
}

func (p *Printer) drawBar() {
	ev := p.lastEvent
	fmt.Fprintf(p.out, "%s%s %3d%% %s", clearLine, p.bar.ViewAs(float64(ev.Percent)/100), ev.Percent, p.muted.Render(ev.Label))
	p.barShown = true
}

func (p *Printer) endBar() {
	if p.barShown {
		fmt.Fprintln(p.out)
		p.barShown = false
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
