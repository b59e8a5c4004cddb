package runner

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
)

// TestHelperProcess is not a real test. It is re-executed by the tests below
// to play the part of the external programmer tool.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("OTPROG_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(3)
	}

	switch args[1] {
	case "read":
		fmt.Fprint(os.Stdout, "Found T48 01.1.31 (0x11f)\n")
		fmt.Fprint(os.Stderr, "Reading code...\n")
		fmt.Fprint(os.Stderr, "\x1b[KReading code... 100%\n")
		fmt.Fprint(os.Stderr, "0.82 Sec  OK\n")
		os.Exit(0)
	case "stdout-percent":
		fmt.Fprint(os.Stdout, "Writing 50%\n")
		fmt.Fprint(os.Stdout, "512/1024 bytes\n")
		os.Exit(0)
	case "carriage":
		fmt.Fprint(os.Stderr, "Writing Code...  10%\rWriting Code...  60%\r\n\n   \r")
		fmt.Fprint(os.Stderr, "tail without newline")
		fmt.Fprint(os.Stdout, "out tail")
		os.Exit(0)
	case "fail":
		fmt.Fprint(os.Stderr, "Invalid chip ID: expected 0x1E9502, got 0x000000\n")
		os.Exit(2)
	case "slow":
		fmt.Fprint(os.Stdout, "first\n")
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(os.Stdout, "second\n")
		os.Exit(0)
	case "interleave":
		for i := 0; i < 50; i++ {
			fmt.Fprintf(os.Stdout, "out %d\n", i)
			fmt.Fprintf(os.Stderr, "err %d\n", i)
		}
		os.Exit(0)
	}
	os.Exit(3)
}

func helperArgv(mode string) []string {
	return []string{os.Args[0], "-test.run=TestHelperProcess", "--", mode}
}

type recorded struct {
	mu       sync.Mutex
	lines    map[Stream][]string
	debug    []string
	progress []progress.Event
	errs     []error
	exits    []int
	order    []string
}

func newRecorded() *recorded {
	return &recorded{lines: make(map[Stream][]string)}
}

func (r *recorded) Line(stream Stream, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[stream] = append(r.lines[stream], line)
	r.order = append(r.order, "line")
}

func (r *recorded) Debug(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debug = append(r.debug, msg)
}

func (r *recorded) Progress(ev progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, ev)
	r.order = append(r.order, "progress")
}

func (r *recorded) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.order = append(r.order, "error")
}

func (r *recorded) Exit(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exits = append(r.exits, code)
	r.order = append(r.order, "exit")
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	t.Setenv("OTPROG_HELPER_PROCESS", "1")
	return New(Config{Unbuffer: UnbufferOff})
}

func TestRunReadScenario(t *testing.T) {
	r := newTestRunner(t)
	rec := newRecorded()

	code, err := r.Run(helperArgv("read"), false, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Equal(t, []string{"Found T48 01.1.31 (0x11f)"}, rec.lines[Stdout])
	assert.Equal(t, []string{"Reading code...", "\x1b[KReading code... 100%", "0.82 Sec  OK"}, rec.lines[Stderr])

	var got []string
	for _, ev := range rec.progress {
		got = append(got, fmt.Sprintf("%d %s", ev.Percent, ev.Label))
	}
	assert.Equal(t, []string{
		"5 Reading device...",
		"5 Reading device...",
		"100 Reading: 100%",
		"100 Complete!",
	}, got)

	assert.Empty(t, rec.errs)
	assert.Empty(t, rec.debug)
	assert.Equal(t, []int{0}, rec.exits)
	assert.Equal(t, "exit", rec.order[len(rec.order)-1])
	assert.False(t, r.Busy())
}

func TestRunDebugTraces(t *testing.T) {
	r := newTestRunner(t)
	rec := newRecorded()

	_, err := r.Run(helperArgv("read"), true, rec)
	require.NoError(t, err)

	assert.Contains(t, rec.debug, `[PARSE] Raw: "Reading code..."`)
	assert.Contains(t, rec.debug, `[PARSE] Raw: "\x1b[KReading code... 100%"`)
	assert.Contains(t, rec.debug, "[PARSE] Clean: Reading code... 100%")
	assert.Contains(t, rec.debug, "[PROGRESS] Time + OK detected - operation complete")
	assert.Contains(t, rec.debug, "[PROGRESS] Detected: Reading operation")
}

func TestRunStdoutNeverClassified(t *testing.T) {
	r := newTestRunner(t)
	rec := newRecorded()

	code, err := r.Run(helperArgv("stdout-percent"), false, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Len(t, rec.lines[Stdout], 2)
	assert.Empty(t, rec.progress)
}

func TestRunCarriageReturnsAndTrailingFlush(t *testing.T) {
	r := newTestRunner(t)
	rec := newRecorded()

	_, err := r.Run(helperArgv("carriage"), false, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Writing Code...  10%",
		"Writing Code...  60%",
		"tail without newline",
	}, rec.lines[Stderr])
	assert.Equal(t, []string{"out tail"}, rec.lines[Stdout])

	var pcts []int
	for _, ev := range rec.progress {
		if ev.Rule == progress.RulePercent {
			pcts = append(pcts, ev.Percent)
		}
	}
	assert.Equal(t, []int{10, 60}, pcts)
}

func TestRunNonZeroExit(t *testing.T) {
	r := newTestRunner(t)
	rec := newRecorded()

	code, err := r.Run(helperArgv("fail"), false, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, code)
	assert.Equal(t, []int{2}, rec.exits)
	assert.Empty(t, rec.errs)
}

func TestRunLaunchFailure(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unbuffer off", Config{Unbuffer: UnbufferOff}},
		{"unbuffer auto", Config{}},
		{"unbuffer stdbuf", Config{Unbuffer: UnbufferStdbuf}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.cfg)
			rec := newRecorded()

			code, err := r.Run([]string{"/nonexistent/minipro-does-not-exist", "-k"}, false, rec)
			require.NoError(t, err)
			assert.Equal(t, ExitLaunchFailure, code)
			require.Len(t, rec.errs, 1)
			assert.Contains(t, rec.errs[0].Error(), "error executing command")
			assert.Empty(t, rec.lines[Stdout])
			assert.Empty(t, rec.lines[Stderr])
			assert.Equal(t, []int{ExitLaunchFailure}, rec.exits)
			assert.False(t, r.Busy())
		})
	}
}

func TestStartRejectsSecondRun(t *testing.T) {
	r := newTestRunner(t)
	first := newRecorded()

	s, err := r.Start(helperArgv("slow"), false, first)
	require.NoError(t, err)
	assert.True(t, r.Busy())
	assert.Same(t, s, r.Active())

	second := newRecorded()
	_, err = r.Start(helperArgv("read"), false, second)
	assert.True(t, errors.Is(err, ErrBusy))

	assert.Equal(t, 0, s.Wait())
	assert.Equal(t, []string{"first", "second"}, first.lines[Stdout])
	assert.Empty(t, second.order)
	assert.Nil(t, r.Active())

	// The runner accepts new work once the first session is done.
	_, err = r.Run(helperArgv("read"), false, second)
	assert.NoError(t, err)
}

func TestRunPreservesPerStreamOrder(t *testing.T) {
	r := newTestRunner(t)
	rec := newRecorded()

	_, err := r.Run(helperArgv("interleave"), false, rec)
	require.NoError(t, err)

	require.Len(t, rec.lines[Stdout], 50)
	require.Len(t, rec.lines[Stderr], 50)
	for i := 0; i < 50; i++ {
		assert.Equal(t, fmt.Sprintf("out %d", i), rec.lines[Stdout][i])
		assert.Equal(t, fmt.Sprintf("err %d", i), rec.lines[Stderr][i])
	}
}

func TestStartEmptyCommand(t *testing.T) {
	r := New(Config{})
	_, err := r.Start(nil, false, nil)
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestSessionMetadata(t *testing.T) {
	r := newTestRunner(t)
	s, err := r.Start(helperArgv("read"), false, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	s.Wait()
	assert.Greater(t, s.PID(), 0)
	assert.Greater(t, s.Elapsed(), time.Duration(0))

	select {
	case <-s.Done():
	default:
		t.Fatal("session not done after Wait")
	}
}
