// Package runner executes one external command at a time and streams its
// stdout and stderr line by line to a Handler, classifying stderr lines with
// the progress inferrer on the way.
package runner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
)

// ExitLaunchFailure is reported when the runner could not start the process
// or lost contact with its streams, as opposed to the tool failing itself.
const ExitLaunchFailure = -1

var (
	// ErrBusy is returned by Start while another session is active.
	ErrBusy = errors.New("a command is already running")
	// ErrEmptyCommand is returned by Start for an empty argv.
	ErrEmptyCommand = errors.New("empty command")
)

const readChunk = 4096

// Config tunes how commands are launched.
type Config struct {
	Unbuffer UnbufferMode
	// Env is appended to the current process environment.
	Env    []string
	Dir    string
	Logger *slog.Logger
}

// Runner owns at most one active Session.
type Runner struct {
	cfg    Config
	log    *slog.Logger
	active atomic.Pointer[Session]
}

// New creates a Runner.
func New(cfg Config) *Runner {
	if cfg.Unbuffer == "" {
		cfg.Unbuffer = UnbufferAuto
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, log: logger.With("component", "runner")}
}

// Busy reports whether a session is active.
func (r *Runner) Busy() bool {
	return r.active.Load() != nil
}

// Active returns the active session, or nil.
func (r *Runner) Active() *Session {
	return r.active.Load()
}

// Start launches argv in the background and returns its Session. It fails
// with ErrBusy without starting anything if a session is already active.
// Launch failures are not returned here; they arrive through h as an Error
// followed by Exit(ExitLaunchFailure).
func (r *Runner) Start(argv []string, debug bool, h Handler) (*Session, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}
	if h == nil {
		h = Funcs{}
	}

	s := &Session{
		ID:        uuid.NewString(),
		Argv:      append([]string(nil), argv...),
		Debug:     debug,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
		exitCode:  ExitLaunchFailure,
	}
	if !r.active.CompareAndSwap(nil, s) {
		return nil, ErrBusy
	}

	r.log.Debug("run started", "id", s.ID, "argv", s.Argv, "debug", debug)
	go r.run(s, h)
	return s, nil
}

// Run starts argv and blocks until it finishes, returning the exit status.
func (r *Runner) Run(argv []string, debug bool, h Handler) (int, error) {
	s, err := r.Start(argv, debug, h)
	if err != nil {
		return ExitLaunchFailure, err
	}
	return s.Wait(), nil
}

func (r *Runner) run(s *Session, h Handler) {
	code := ExitLaunchFailure
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("run panicked", "id", s.ID, "panic", p)
			code = ExitLaunchFailure
			safeCall(func() { h.Error(fmt.Errorf("runner panic: %v", p)) })
		}
		s.finish(code)
		r.active.CompareAndSwap(s, nil)
		r.log.Debug("run finished", "id", s.ID, "code", code, "elapsed", s.Elapsed())
		safeCall(func() { h.Exit(code) })
		close(s.done)
	}()
	code = r.execute(s, h)
}

type lineMsg struct {
	stream Stream
	line   string
	err    error
}

func (r *Runner) execute(s *Session, h Handler) int {
	// Resolve before wrapping so a missing tool is not masked by stdbuf.
	if _, err := exec.LookPath(s.Argv[0]); err != nil {
		r.log.Warn("launch failed", "id", s.ID, "argv", s.Argv, "error", err)
		h.Error(fmt.Errorf("error executing command: %w", err))
		return ExitLaunchFailure
	}
	argv := wrapArgv(r.cfg.Unbuffer, s.Argv)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = r.cfg.Dir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}

	stdout, afterStart, closeStdout, err := attachStdout(r.cfg.Unbuffer, cmd)
	if err != nil {
		h.Error(fmt.Errorf("error executing command: %w", err))
		return ExitLaunchFailure
	}
	defer closeStdout()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		afterStart()
		h.Error(fmt.Errorf("error executing command: %w", err))
		return ExitLaunchFailure
	}

	if err := cmd.Start(); err != nil {
		afterStart()
		r.log.Warn("launch failed", "id", s.ID, "argv", argv, "error", err)
		h.Error(fmt.Errorf("error executing command: %w", err))
		return ExitLaunchFailure
	}
	afterStart()
	s.setPID(cmd.Process.Pid)

	lines := make(chan lineMsg, 64)
	var wg sync.WaitGroup
	wg.Add(2)
	go pump(Stdout, stdout, lines, &wg)
	go pump(Stderr, stderr, lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	var readErr error
	for msg := range lines {
		if msg.err != nil {
			if readErr == nil {
				readErr = msg.err
			}
			continue
		}
		r.deliver(s, h, msg)
	}

	waitErr := cmd.Wait()
	if readErr != nil {
		r.log.Warn("stream read failed", "id", s.ID, "error", readErr)
		h.Error(fmt.Errorf("error reading command output: %w", readErr))
		return ExitLaunchFailure
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			if code := exitErr.ExitCode(); code >= 0 {
				return code
			}
			h.Error(fmt.Errorf("command terminated: %w", waitErr))
			return ExitLaunchFailure
		}
		h.Error(fmt.Errorf("error waiting for command: %w", waitErr))
		return ExitLaunchFailure
	}
	return 0
}

func (r *Runner) deliver(s *Session, h Handler, msg lineMsg) {
	h.Line(msg.stream, msg.line)
	if msg.stream != Stderr {
		return
	}

	clean := progress.Clean(msg.line)
	if s.Debug {
		raw := strings.TrimSpace(msg.line)
		h.Debug(fmt.Sprintf("[PARSE] Raw: %q", raw))
		if clean != raw {
			h.Debug("[PARSE] Clean: " + clean)
		}
	}
	for _, ev := range progress.Classify(clean) {
		if s.Debug {
			h.Debug("[PROGRESS] " + ev.Detail)
		}
		h.Progress(ev)
	}
}

// pump reads one stream until EOF, forwarding completed lines and the final
// unterminated remainder.
func pump(stream Stream, rd io.Reader, out chan<- lineMsg, wg *sync.WaitGroup) {
	defer wg.Done()

	var split lineSplitter
	buf := make([]byte, readChunk)
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			for _, line := range split.Write(buf[:n]) {
				out <- lineMsg{stream: stream, line: line}
			}
		}
		if err != nil {
			if line, ok := split.Flush(); ok {
				out <- lineMsg{stream: stream, line: line}
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				out <- lineMsg{stream: stream, err: err}
			}
			return
		}
	}
}

func safeCall(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("handler panicked", "panic", p)
		}
	}()
	fn()
}
