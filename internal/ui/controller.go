package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenTraceProg/internal/config"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/progress"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/runner"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/usbprobe"
)

// Starter launches a command; *runner.Runner satisfies it.
type Starter interface {
	Start(argv []string, debug bool, h runner.Handler) (*runner.Session, error)
	Busy() bool
}

// DeviceStore caches the full device list; *catalog.Catalog satisfies it.
type DeviceStore interface {
	Replace(ctx context.Context, names []string) error
	Search(ctx context.Context, substr string, limit int) ([]string, error)
	All(ctx context.Context) ([]string, error)
}

// ControllerOptions wires a Controller. Only Runner is required.
type ControllerOptions struct {
	State       *AppState
	Runner      Starter
	Builder     minipro.Builder
	Devices     DeviceStore
	Preferences *config.PreferenceStore
	Policy      progress.Policy
	ListTimeout time.Duration
	Logger      *slog.Logger
}

// Controller turns UI actions into runs and feeds run events back into the
// AppState. It is the runner.Handler for every run it starts.
type Controller struct {
	State   *AppState
	Builder minipro.Builder

	runner      Starter
	devices     DeviceStore
	prefs       *config.PreferenceStore
	listTimeout time.Duration
	log         *slog.Logger
	tracker     *progress.Tracker

	// Swapped in tests.
	loadDevices func(ctx context.Context, inv minipro.Invocation, timeout time.Duration) ([]string, error)
	discover    func(ctx context.Context) ([]usbprobe.ProgrammerInfo, error)

	mu         sync.Mutex
	invalidate func()

	// runMu orders Run against the handler callbacks of the run it starts.
	runMu sync.Mutex
}

var _ runner.Handler = (*Controller)(nil)

// NewController builds a Controller and seeds the device list from the
// store, falling back to the built-in common devices.
func NewController(opts ControllerOptions) *Controller {
	if opts.State == nil {
		opts.State = NewState()
	}
	if opts.Builder.Program == "" {
		opts.Builder = minipro.NewBuilder("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		State:       opts.State,
		Builder:     opts.Builder,
		runner:      opts.Runner,
		devices:     opts.Devices,
		prefs:       opts.Preferences,
		listTimeout: opts.ListTimeout,
		log:         logger.With("component", "ui"),
		tracker:     progress.NewTracker(opts.Policy),
		loadDevices: minipro.LoadDeviceList,
		discover:    usbprobe.Discover,
		invalidate:  func() {},
	}
	c.seedDevices()
	return c
}

// SetInvalidate installs the callback that requests a new frame.
func (c *Controller) SetInvalidate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = func() {}
	}
	c.invalidate = fn
}

func (c *Controller) redraw() {
	c.mu.Lock()
	fn := c.invalidate
	c.mu.Unlock()
	fn()
}

func (c *Controller) seedDevices() {
	if c.devices != nil {
		names, err := c.devices.All(context.Background())
		if err != nil {
			c.log.Warn("device catalog unavailable", "error", err)
		} else if len(names) > 0 {
			c.State.SetDevices(names)
			return
		}
	}
	c.State.SetDevices(minipro.CommonDevices)
}

// Submit runs inv, asking first when it is destructive. A builder error is
// shown as a notice instead.
func (c *Controller) Submit(inv minipro.Invocation, err error) {
	if err != nil {
		c.State.SetNotice(noticeText(err))
		c.redraw()
		return
	}
	if inv.Destructive {
		c.State.SetPending(&Confirmation{
			Title:   inv.Summary,
			Message: confirmMessage(inv),
			Accept:  func() { c.Run(inv) },
		})
		c.redraw()
		return
	}
	c.Run(inv)
}

// Confirm answers the pending question.
func (c *Controller) Confirm(accept bool) {
	pending := c.State.TakePending()
	c.redraw()
	if pending != nil && accept && pending.Accept != nil {
		pending.Accept()
	}
}

// Run starts inv immediately. A rejected start leaves the current run's
// state alone and only raises a notice.
func (c *Controller) Run(inv minipro.Invocation) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.runner.Busy() || c.State.Busy() {
		c.State.SetNotice(noticeText(runner.ErrBusy))
		c.redraw()
		return
	}

	s, err := c.runner.Start(inv.Argv(), c.State.Debug(), c)
	if err != nil {
		if errors.Is(err, runner.ErrBusy) {
			c.State.SetNotice(noticeText(err))
		} else {
			c.State.AbortRun(err)
		}
		c.redraw()
		return
	}
	c.tracker.Reset()
	c.State.BeginRun(inv.String())
	c.redraw()
	c.log.Debug("run submitted", "id", s.ID, "summary", inv.Summary)
}

func (c *Controller) Line(_ runner.Stream, line string) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.State.AppendConsole(KindOutput, line)
	c.redraw()
}

func (c *Controller) Debug(msg string) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.State.AppendConsole(KindDebug, msg)
	c.redraw()
}

func (c *Controller) Progress(ev progress.Event) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	shown, ok := c.tracker.Observe(ev)
	if !ok {
		return
	}
	c.State.SetProgress(shown.Percent, shown.Label)
	c.redraw()
}

func (c *Controller) Error(err error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.State.SetError(err)
	c.State.AppendConsole(KindError, capitalize(err.Error()))
	c.redraw()
}

func (c *Controller) Exit(code int) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.State.FinishRun(code)
	c.redraw()
}

// RequestDeviceList asks before loading the full list, which is slow.
func (c *Controller) RequestDeviceList() {
	c.State.SetPending(&Confirmation{
		Title:   "Load Device List",
		Message: "This will load 13,000+ supported devices.\nThis may take a few moments.\n\nContinue?",
		Accept: func() {
			go c.LoadDeviceList(context.Background())
		},
	})
	c.redraw()
}

// LoadDeviceList runs the device list query, stores the result and makes it
// selectable. It blocks until done.
func (c *Controller) LoadDeviceList(ctx context.Context) {
	if !c.State.SetDevicesLoading(true) {
		return
	}
	defer func() {
		c.State.SetDevicesLoading(false)
		c.redraw()
	}()
	c.State.SetStatus("Loading devices...")
	c.redraw()

	devices, err := c.loadDevices(ctx, c.Builder.ListDevices(), c.listTimeout)
	if err != nil || len(devices) == 0 {
		c.log.Warn("device list load failed", "error", err)
		c.State.SetNotice("Failed to load device list. Make sure minipro is installed.")
		c.State.SetStatus("Failed to load devices")
		return
	}
	if c.devices != nil {
		if err := c.devices.Replace(ctx, devices); err != nil {
			c.log.Warn("device catalog update failed", "error", err)
		}
	}
	c.State.SetDevices(devices)
	c.State.SetStatus(fmt.Sprintf("Loaded %d devices", len(devices)))
	c.State.AppendConsole(KindSuccess, fmt.Sprintf("✓ Loaded %d devices into dropdown", len(devices)))
}

// SearchDevices filters the selectable names by a case-insensitive
// substring.
func (c *Controller) SearchDevices(ctx context.Context, query string) {
	var matches []string
	if c.devices != nil {
		found, err := c.devices.Search(ctx, query, MatchLimit)
		if err == nil && len(found) > 0 {
			matches = found
		}
	}
	if matches == nil {
		q := strings.ToLower(strings.TrimSpace(query))
		for _, d := range c.State.Devices() {
			if strings.Contains(strings.ToLower(d), q) {
				matches = append(matches, d)
				if len(matches) == MatchLimit {
					break
				}
			}
		}
	}
	c.State.SetMatches(matches)
	c.redraw()
}

// DetectProgrammer lists programmers on USB and then asks minipro to
// identify the connected one.
func (c *Controller) DetectProgrammer(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	infos, err := c.discover(ctx)
	cancel()
	if err != nil {
		c.log.Warn("usb scan failed", "error", err)
		c.State.AppendConsole(KindInfo, fmt.Sprintf("USB scan failed: %v", err))
	}
	c.State.SetProgrammers(infos)
	for _, info := range infos {
		c.State.AppendConsole(KindInfo, "USB: "+info.Label())
	}
	if err == nil && len(infos) == 0 {
		c.State.AppendConsole(KindInfo, "USB: no known programmer found")
	}
	c.Run(c.Builder.DetectProgrammer())
}

// SavePreferences persists p if a store is configured.
func (c *Controller) SavePreferences(p config.Preferences) {
	if c.prefs == nil {
		return
	}
	if err := c.prefs.Save(p); err != nil {
		c.log.Warn("save preferences", "error", err)
	}
}

// WatchPreferences reloads preferences edited outside the application.
func (c *Controller) WatchPreferences() {
	if c.prefs == nil {
		return
	}
	c.prefs.Watch(func(p config.Preferences) {
		c.State.SetPreferences(p)
		c.State.AppendConsole(KindInfo, "Preferences reloaded from "+c.prefs.Path())
		c.redraw()
	})
}

func confirmMessage(inv minipro.Invocation) string {
	if inv.Warning == "" {
		return inv.String() + "\n\nContinue?"
	}
	return inv.Warning + "\n\nContinue?"
}

func noticeText(err error) string {
	return capitalize(err.Error())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
