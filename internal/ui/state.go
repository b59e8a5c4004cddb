package ui

import (
	"strconv"
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenTraceProg/internal/config"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/usbprobe"
)

// EntryKind selects how a console line is coloured.
type EntryKind int

const (
	KindOutput EntryKind = iota
	KindCommand
	KindError
	KindDebug
	KindSuccess
	KindInfo
)

// MatchLimit caps how many device names the search list shows.
const MatchLimit = 200

// ConsoleEntry is one line in the console pane.
type ConsoleEntry struct {
	Kind EntryKind
	Text string
	Time time.Time
}

// Confirmation is a pending yes/no question. Accept runs when the user
// confirms.
type Confirmation struct {
	Title   string
	Message string
	Accept  func()
}

// ProgressView is what the progress bar shows.
type ProgressView struct {
	Percent  int
	Label    string
	Visible  bool
	Failed   bool
	Finished time.Time
}

// StateSnapshot captures a copy of the state data for rendering without
// requiring the UI to hold locks while laying out widgets.
type StateSnapshot struct {
	Busy   bool
	Status string
	Notice string
	Debug  bool

	Command  string
	Progress ProgressView
	Console  []ConsoleEntry

	DeviceCount    int
	Matches        []string
	DevicesLoading bool
	Programmers    []usbprobe.ProgrammerInfo

	Pending *Confirmation

	Preferences    config.Preferences
	PreferencesGen int

	LastError   error
	LastUpdated time.Time
}

// AppState tracks the mutable state shared between the Gio event loop and
// the runner's worker goroutine.
type AppState struct {
	mu sync.RWMutex

	busy    bool
	status  string
	notice  string
	debug   bool
	command string

	progress ProgressView

	console  []ConsoleEntry
	logLimit int

	devices        []string
	matches        []string
	devicesLoading bool
	programmers    []usbprobe.ProgrammerInfo

	pending *Confirmation

	prefs    config.Preferences
	prefsGen int

	lastError   error
	lastUpdated time.Time
}

// NewState returns a baseline AppState with safe defaults.
func NewState() *AppState {
	return &AppState{
		status:      "Ready",
		logLimit:    5000,
		prefs:       config.DefaultPreferences(),
		lastUpdated: time.Now(),
	}
}

// Snapshot returns a copy of the mutable state for rendering.
func (s *AppState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending *Confirmation
	if s.pending != nil {
		c := *s.pending
		pending = &c
	}
	return StateSnapshot{
		Busy:           s.busy,
		Status:         s.status,
		Notice:         s.notice,
		Debug:          s.debug,
		Command:        s.command,
		Progress:       s.progress,
		Console:        append([]ConsoleEntry(nil), s.console...),
		DeviceCount:    len(s.devices),
		Matches:        append([]string(nil), s.matches...),
		DevicesLoading: s.devicesLoading,
		Programmers:    append([]usbprobe.ProgrammerInfo(nil), s.programmers...),
		Pending:        pending,
		Preferences:    s.prefs,
		PreferencesGen: s.prefsGen,
		LastError:      s.lastError,
		LastUpdated:    s.lastUpdated,
	}
}

func (s *AppState) touch() {
	s.lastUpdated = time.Now()
}

// Busy returns the current busy flag.
func (s *AppState) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// BeginRun marks a command as running and echoes it to the console.
func (s *AppState) BeginRun(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = true
	s.command = command
	s.status = "Running: " + command
	s.progress = ProgressView{Visible: true, Label: "Starting..."}
	s.appendLocked(KindCommand, "$ "+command)
	s.touch()
}

// FinishRun records the exit status of the running command.
func (s *AppState) FinishRun(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.progress.Finished = time.Now()
	if code == 0 {
		s.progress.Percent = 100
		s.progress.Label = "Complete!"
		s.progress.Failed = false
		s.status = "Command completed successfully"
		s.appendLocked(KindSuccess, "✓ Command completed successfully")
	} else {
		s.progress.Label = "Failed"
		s.progress.Failed = true
		s.status = "Command failed with code " + strconv.Itoa(code)
		s.appendLocked(KindError, "✗ Command failed with exit code "+strconv.Itoa(code))
	}
	s.touch()
}

// AbortRun records a command that could not be started.
func (s *AppState) AbortRun(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.progress = ProgressView{}
	s.lastError = err
	s.status = err.Error()
	s.appendLocked(KindError, err.Error())
	s.touch()
}

// SetProgress updates the bar and mirrors the label into the status bar.
func (s *AppState) SetProgress(percent int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Visible = true
	s.progress.Percent = percent
	s.progress.Label = label
	s.status = label
	s.touch()
}

// SetStatus updates the user-facing status message.
func (s *AppState) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.touch()
}

// SetNotice shows a dismissable warning; an empty string dismisses it.
func (s *AppState) SetNotice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = msg
	s.touch()
}

// SetError stores the latest error surfaced to the UI.
func (s *AppState) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.touch()
}

// SetDebug toggles parser tracing for subsequent runs.
func (s *AppState) SetDebug(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = on
	s.touch()
}

// Debug reports whether tracing is on.
func (s *AppState) Debug() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

// AppendConsole appends a line, trimming the oldest entries past the limit.
func (s *AppState) AppendConsole(kind EntryKind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(kind, text)
	s.touch()
}

func (s *AppState) appendLocked(kind EntryKind, text string) {
	s.console = append(s.console, ConsoleEntry{Kind: kind, Text: text, Time: time.Now()})
	if s.logLimit > 0 && len(s.console) > s.logLimit {
		offset := len(s.console) - s.logLimit
		s.console = append([]ConsoleEntry(nil), s.console[offset:]...)
	}
}

// ClearConsole empties the console pane.
func (s *AppState) ClearConsole() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.console = nil
	s.touch()
}

// SetDevices replaces the selectable device names and resets the matches.
func (s *AppState) SetDevices(devices []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append([]string(nil), devices...)
	s.matches = append([]string(nil), devices[:min(len(devices), MatchLimit)]...)
	s.touch()
}

// Devices returns the selectable device names.
func (s *AppState) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.devices...)
}

// SetMatches records the filtered device names shown under the search box.
func (s *AppState) SetMatches(matches []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append([]string(nil), matches[:min(len(matches), MatchLimit)]...)
	s.touch()
}

// SetDevicesLoading flags a device list load in progress. It reports false
// if a load was already running.
func (s *AppState) SetDevicesLoading(loading bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading && s.devicesLoading {
		return false
	}
	s.devicesLoading = loading
	s.touch()
	return true
}

// SetProgrammers records the programmers seen on USB.
func (s *AppState) SetProgrammers(infos []usbprobe.ProgrammerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programmers = append([]usbprobe.ProgrammerInfo(nil), infos...)
	s.touch()
}

// SetPending installs a confirmation question, replacing any previous one.
func (s *AppState) SetPending(c *Confirmation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = c
	s.touch()
}

// TakePending removes and returns the pending confirmation.
func (s *AppState) TakePending() *Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.pending
	s.pending = nil
	s.touch()
	return c
}

// SetPreferences replaces the remembered selections. The generation counter
// lets the UI notice external reloads.
func (s *AppState) SetPreferences(p config.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
	s.prefsGen++
	s.touch()
}

// UpdatePreferences edits the preferences in place without bumping the
// generation, for changes that originate in the UI itself.
func (s *AppState) UpdatePreferences(fn func(*config.Preferences)) config.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.prefs)
	s.touch()
	return s.prefs
}

// Preferences returns the remembered selections.
func (s *AppState) Preferences() config.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}
