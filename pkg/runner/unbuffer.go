package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// UnbufferMode selects how the runner persuades the child to flush its
// output line by line instead of when its stdio buffers fill up.
type UnbufferMode string

const (
	// UnbufferAuto wraps the command with stdbuf when it is on PATH.
	UnbufferAuto UnbufferMode = "auto"
	// UnbufferStdbuf always wraps the command with "stdbuf -o0 -e0".
	UnbufferStdbuf UnbufferMode = "stdbuf"
	// UnbufferPTY attaches stdout to a pseudo terminal. Stderr stays a pipe.
	UnbufferPTY UnbufferMode = "pty"
	// UnbufferOff runs the command as-is.
	UnbufferOff UnbufferMode = "off"
)

// ParseUnbufferMode validates a configuration string.
func ParseUnbufferMode(s string) (UnbufferMode, error) {
	switch m := UnbufferMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return UnbufferAuto, nil
	case UnbufferAuto, UnbufferStdbuf, UnbufferPTY, UnbufferOff:
		return m, nil
	default:
		return "", fmt.Errorf("unknown unbuffer mode %q", s)
	}
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// wrapArgv prefixes argv with stdbuf when the mode asks for it.
func wrapArgv(mode UnbufferMode, argv []string) []string {
	switch mode {
	case UnbufferAuto:
		if _, err := lookPath("stdbuf"); err != nil {
			return argv
		}
	case UnbufferStdbuf:
	default:
		return argv
	}
	return append([]string{"stdbuf", "-o0", "-e0"}, argv...)
}

// attachStdout connects cmd.Stdout and returns the reader for it together
// with a cleanup that must run once the process has been started, and a
// closer for after the read loop has finished.
func attachStdout(mode UnbufferMode, cmd *exec.Cmd) (r io.Reader, afterStart func(), closeFn func(), err error) {
	if mode == UnbufferPTY {
		ptmx, tty, perr := pty.Open()
		if perr == nil {
			cmd.Stdout = tty
			return ptyReader{ptmx}, func() { tty.Close() }, func() { ptmx.Close() }, nil
		}
		// Fall through to a plain pipe on platforms without pty support.
	}
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, err
	}
	return pipe, func() {}, func() {}, nil
}

// ptyReader turns the EIO a pty master reports after the slave side closes
// into a normal EOF.
type ptyReader struct {
	f *os.File
}

func (p ptyReader) Read(b []byte) (int, error) {
	n, err := p.f.Read(b)
	if err != nil && errors.Is(err, syscall.EIO) {
		return n, io.EOF
	}
	return n, err
}
