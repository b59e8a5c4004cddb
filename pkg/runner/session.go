package runner

import (
	"sync"
	"time"
)

// Session is the bookkeeping for one in-flight invocation.
type Session struct {
	ID        string
	Argv      []string
	Debug     bool
	StartedAt time.Time

	mu       sync.Mutex
	pid      int
	exitCode int
	endedAt  time.Time
	done     chan struct{}
}

// Done is closed after the handler has received Exit.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session finishes and returns its exit status.
func (s *Session) Wait() int {
	<-s.done
	return s.ExitCode()
}

// ExitCode returns the final status, or ExitLaunchFailure while running.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// PID returns the child's process id, or 0 before it started.
func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// Elapsed returns the run time so far, or the total once finished.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.endedAt.Sub(s.StartedAt)
}

func (s *Session) setPID(pid int) {
	s.mu.Lock()
	s.pid = pid
	s.mu.Unlock()
}

func (s *Session) finish(code int) {
	s.mu.Lock()
	s.exitCode = code
	s.endedAt = time.Now()
	s.mu.Unlock()
}
