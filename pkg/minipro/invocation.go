// Package minipro assembles argument vectors for the minipro command-line
// programmer and parses the text it prints.
package minipro

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// DefaultProgram is the executable name resolved on PATH.
const DefaultProgram = "minipro"

var (
	ErrDeviceRequired  = errors.New("please select or enter a device name")
	ErrFileRequired    = errors.New("please specify a file")
	ErrFileNotFound    = errors.New("file not found")
	ErrCommandRequired = errors.New("please enter a command")
)

// Invocation is an immutable argument vector for one run.
type Invocation struct {
	program string
	args    []string

	// Destructive marks invocations that change the device or programmer
	// and need confirmation before they are issued.
	Destructive bool
	// Summary is a short human readable description of the action.
	Summary string
	// Warning is the confirmation text shown before a destructive run.
	Warning string
}

// Program returns the executable name.
func (i Invocation) Program() string {
	return i.program
}

// Args returns a copy of the flags, without the program name.
func (i Invocation) Args() []string {
	return append([]string(nil), i.args...)
}

// Argv returns the program followed by its flags.
func (i Invocation) Argv() []string {
	return append([]string{i.program}, i.args...)
}

// String renders the invocation as a copy-pasteable shell line.
func (i Invocation) String() string {
	return shellescape.QuoteCommand(i.Argv())
}

// Builder creates invocations for a given minipro executable.
type Builder struct {
	Program string

	// statFile is swapped in tests.
	statFile func(string) (os.FileInfo, error)
}

// NewBuilder returns a Builder for program, or DefaultProgram when empty.
func NewBuilder(program string) Builder {
	if strings.TrimSpace(program) == "" {
		program = DefaultProgram
	}
	return Builder{Program: program, statFile: os.Stat}
}

func (b Builder) make(summary string, destructive bool, args ...string) Invocation {
	program := b.Program
	if program == "" {
		program = DefaultProgram
	}
	var clean []string
	for _, a := range args {
		if a != "" {
			clean = append(clean, a)
		}
	}
	return Invocation{program: program, args: clean, Summary: summary, Destructive: destructive}
}

func (b Builder) deviceArgs(device string) ([]string, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil, ErrDeviceRequired
	}
	return []string{"-p", device}, nil
}

func requireFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrFileRequired
	}
	return path, nil
}

func (b Builder) requireExisting(path string) (string, error) {
	path, err := requireFile(path)
	if err != nil {
		return "", err
	}
	stat := b.statFile
	if stat == nil {
		stat = os.Stat
	}
	if _, err := stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("check %s: %w", path, err)
	}
	return path, nil
}
