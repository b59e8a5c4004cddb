package runner

import (
	"bytes"
	"strings"
)

// lineSplitter accumulates bytes from one stream and cuts them into lines on
// '\n' or '\r'. Lines that are blank after trimming are discarded.
type lineSplitter struct {
	buf []byte
}

// Write appends p and returns every line it completed.
func (l *lineSplitter) Write(p []byte) []string {
	var lines []string
	for len(p) > 0 {
		i := bytes.IndexAny(p, "\r\n")
		if i < 0 {
			l.buf = append(l.buf, p...)
			break
		}
		l.buf = append(l.buf, p[:i]...)
		if line, ok := l.take(); ok {
			lines = append(lines, line)
		}
		p = p[i+1:]
	}
	return lines
}

// Flush returns the unterminated remainder, if any.
func (l *lineSplitter) Flush() (string, bool) {
	return l.take()
}

func (l *lineSplitter) take() (string, bool) {
	line := string(l.buf)
	l.buf = l.buf[:0]
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	return line, true
}
