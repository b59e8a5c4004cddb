package runner

import "github.com/OpenTraceLab/OpenTraceProg/pkg/progress"

// Stream identifies which pipe of the child process a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Handler observes a run. Calls for one session are serialized, never
// concurrent, and Exit is always the last call.
type Handler interface {
	// Line receives every non-empty line, without its delimiter.
	Line(stream Stream, line string)
	// Debug receives parse traces when the session runs in debug mode.
	Debug(msg string)
	// Progress receives inferred readings for stderr lines.
	Progress(ev progress.Event)
	// Error reports launch and I/O failures.
	Error(err error)
	// Exit reports the final status: the tool's exit code, or
	// ExitLaunchFailure when the runner itself failed.
	Exit(code int)
}

// Funcs adapts optional callbacks to a Handler. Nil fields are ignored.
type Funcs struct {
	OnLine     func(stream Stream, line string)
	OnDebug    func(msg string)
	OnProgress func(ev progress.Event)
	OnError    func(err error)
	OnExit     func(code int)
}

func (f Funcs) Line(stream Stream, line string) {
	if f.OnLine != nil {
		f.OnLine(stream, line)
	}
}

func (f Funcs) Debug(msg string) {
	if f.OnDebug != nil {
		f.OnDebug(msg)
	}
}

func (f Funcs) Progress(ev progress.Event) {
	if f.OnProgress != nil {
		f.OnProgress(ev)
	}
}

func (f Funcs) Error(err error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}

func (f Funcs) Exit(code int) {
	if f.OnExit != nil {
		f.OnExit(code)
	}
}
