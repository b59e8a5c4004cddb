package ui

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceProg/internal/config"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
)

// progressLinger is how long the bar stays up after a run ends.
const progressLinger = 2 * time.Second

type tab int

const (
	tabDeviceInfo tab = iota
	tabReadWrite
	tabFirmware
	tabConfig
	tabAdvanced
)

type navEntry struct {
	tab   tab
	name  string
	icon  *widget.Icon
	click widget.Clickable
}

// App drives the Gio window.
type App struct {
	Window *app.Window
	Theme  *theme.Theme
	Ctrl   *Controller

	ops      op.Ops
	explorer *explorer.Explorer
	log      *slog.Logger

	current    tab
	navEntries []navEntry

	// device selection
	deviceEditor widget.Editor
	showMatches  bool
	matchList    widget.List
	matchClicks  []widget.Clickable
	loadDevices  widget.Clickable

	// device info tab
	detectBtn    widget.Clickable
	infoBtn      widget.Clickable
	chipIDBtn    widget.Clickable
	pinCheckBtn  widget.Clickable
	blankBtn     widget.Clickable
	logicBtn     widget.Clickable
	queryBtn     widget.Clickable
	hwCheckBtn   widget.Clickable
	deviceScroll widget.List

	// read/write tab
	memory       *choice
	format       *choice
	readFile     *fileField
	writeFile    *fileField
	readBtn      widget.Clickable
	writeBtn     widget.Clickable
	verifyBtn    widget.Clickable
	skipIDCheck  widget.Bool
	unprotect    widget.Bool
	protect      widget.Bool
	skipErase    widget.Bool
	skipVerify   widget.Bool
	noIDError    widget.Bool
	noSizeError  widget.Bool
	rwScroll     widget.List

	// firmware/erase tab
	firmwareFile *fileField
	firmwareBtn  widget.Clickable
	eraseBtn     widget.Clickable

	// configuration tab
	vpp         *choice
	vdd         *choice
	vcc         *choice
	spiClock    *choice
	pulse       widget.Editor
	icsp        widget.Enum
	width       widget.Enum
	autoBtn     widget.Clickable
	cfgScroll   widget.List

	// advanced tab
	customEditor widget.Editor
	customBtn    widget.Clickable

	// console
	consoleList widget.List
	clearBtn    widget.Clickable
	debugToggle widget.Bool

	// overlays
	confirmYes    widget.Clickable
	confirmNo     widget.Clickable
	scrim         int
	noticeDismiss widget.Clickable

	logPaneHeight float32
	logSplitter   gesture.Drag
	logSplitLastY float32
	logSplitDrag  bool

	prefsGen   int
	windowSize image.Point
}

// New wires the window, theme and controller together.
func New(window *app.Window, ctrl *Controller, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Window:   window,
		Theme:    theme.NewTheme("", nil, true),
		Ctrl:     ctrl,
		explorer: explorer.NewExplorer(window),
		log:      logger.With("component", "window"),
	}
	a.Theme.WithPalette(theme.Palette{
		Bg:         color.NRGBA{R: 245, G: 246, B: 252, A: 255},
		Fg:         color.NRGBA{R: 34, G: 37, B: 49, A: 255},
		ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
		ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Bg2:        color.NRGBA{R: 232, G: 235, B: 245, A: 255},
	})

	a.deviceEditor.SingleLine = true
	a.matchList.Axis = layout.Vertical
	a.deviceScroll.Axis = layout.Vertical
	a.rwScroll.Axis = layout.Vertical
	a.cfgScroll.Axis = layout.Vertical
	a.consoleList.Axis = layout.Vertical
	a.consoleList.ScrollToEnd = true
	a.pulse.SingleLine = true
	a.pulse.Filter = "0123456789"
	a.customEditor.SingleLine = true
	a.customEditor.Submit = true
	a.icsp.Value = "none"
	a.width.Value = "8"

	memories := make([]string, len(minipro.MemoryTypes))
	for i, m := range minipro.MemoryTypes {
		memories[i] = string(m)
	}
	formats := make([]string, len(minipro.Formats))
	for i, f := range minipro.Formats {
		formats[i] = f.Label()
	}

	p := ctrl.State.Preferences()
	a.memory = newChoice("Memory type", memories, p.LastMemoryType)
	a.format = newChoice("Format", formats, p.LastFormat)
	a.readFile = newFileField("Output file", true, p.LastReadFile)
	a.writeFile = newFileField("Input file", false, p.LastWriteFile, "bin", "hex", "srec", "s19")
	a.firmwareFile = newFileField("Firmware", false, p.LastFirmwareFile, "dat")
	a.vpp = newChoice("VPP (V)", minipro.VPPChoices, minipro.DefaultOption)
	a.vdd = newChoice("VDD (V)", minipro.VDDChoices, minipro.DefaultOption)
	a.vcc = newChoice("VCC (V)", minipro.VCCChoices, minipro.DefaultOption)
	a.spiClock = newChoice("SPI clock (MHz)", minipro.SPIClockChoices, minipro.DefaultOption)
	a.deviceEditor.SetText(p.LastDevice)
	a.prefsGen = ctrl.State.Snapshot().PreferencesGen

	a.memory.onChange = func(v string) {
		a.remember(func(p *config.Preferences) { p.LastMemoryType = v })
	}
	a.format.onChange = func(v string) {
		a.remember(func(p *config.Preferences) { p.LastFormat = v })
	}

	a.initNavigation()
	ctrl.SetInvalidate(window.Invalidate)
	return a
}

// Run processes Gio events until the window is closed.
func (a *App) Run() error {
	for {
		e := a.Window.Event()
		a.explorer.ListenEvents(e)
		switch ev := e.(type) {
		case app.DestroyEvent:
			a.saveWindow()
			return ev.Err
		case app.FrameEvent:
			a.windowSize = image.Pt(int(ev.Metric.PxToDp(ev.Size.X)), int(ev.Metric.PxToDp(ev.Size.Y)))
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (a *App) initNavigation() {
	makeIcon := func(data []byte, name string) *widget.Icon {
		icon, err := widget.NewIcon(data)
		if err != nil {
			a.log.Warn("failed to load icon", "icon", name, "error", err)
			return nil
		}
		return icon
	}
	a.navEntries = []navEntry{
		{tab: tabDeviceInfo, name: "Device Info", icon: makeIcon(icons.HardwareMemory, "device")},
		{tab: tabReadWrite, name: "Read/Write", icon: makeIcon(icons.ActionSettingsInputComponent, "readwrite")},
		{tab: tabFirmware, name: "Firmware/Erase", icon: makeIcon(icons.ActionAutorenew, "firmware")},
		{tab: tabConfig, name: "Configuration", icon: makeIcon(icons.ActionSettings, "config")},
		{tab: tabAdvanced, name: "Advanced", icon: makeIcon(icons.ActionBuild, "advanced")},
	}
}

func (a *App) invalidate() {
	if a.Window != nil {
		a.Window.Invalidate()
	}
}

// remember edits and persists the preferences.
func (a *App) remember(fn func(*config.Preferences)) {
	p := a.Ctrl.State.UpdatePreferences(fn)
	go a.Ctrl.SavePreferences(p)
}

func (a *App) rememberDevice(name string) {
	a.remember(func(p *config.Preferences) { p.LastDevice = name })
}

func (a *App) saveWindow() {
	if a.windowSize.X <= 0 || a.windowSize.Y <= 0 {
		return
	}
	p := a.Ctrl.State.UpdatePreferences(func(p *config.Preferences) {
		p.WindowWidth = a.windowSize.X
		p.WindowHeight = a.windowSize.Y
		p.LastDevice = a.device()
		p.LastReadFile = a.readFile.Path()
		p.LastWriteFile = a.writeFile.Path()
		p.LastFirmwareFile = a.firmwareFile.Path()
	})
	a.Ctrl.SavePreferences(p)
}

// syncPreferences pushes externally reloaded preferences into the widgets.
func (a *App) syncPreferences(state StateSnapshot) {
	if state.PreferencesGen == a.prefsGen {
		return
	}
	a.prefsGen = state.PreferencesGen
	p := state.Preferences
	a.deviceEditor.SetText(p.LastDevice)
	a.readFile.editor.SetText(p.LastReadFile)
	a.writeFile.editor.SetText(p.LastWriteFile)
	a.firmwareFile.editor.SetText(p.LastFirmwareFile)
	a.memory.Select(p.LastMemoryType)
	a.format.Select(p.LastFormat)
}

func (a *App) device() string {
	return strings.TrimSpace(a.deviceEditor.Text())
}

func (a *App) layout(gtx C) D {
	state := a.Ctrl.State.Snapshot()
	a.syncPreferences(state)
	a.handleDebugToggle(gtx, state)

	paint.FillShape(gtx.Ops, a.Theme.Palette.Bg, clip.Rect{Max: gtx.Constraints.Max}.Op())

	dims := layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(a.layoutNavigation),
		layout.Flexed(1, func(gtx C) D {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx C) D { return a.layoutTopBar(gtx, state) }),
				layout.Rigid(func(gtx C) D { return a.layoutNotice(gtx, state) }),
				layout.Flexed(1, func(gtx C) D {
					return layout.Inset{Left: unit.Dp(12), Right: unit.Dp(12)}.Layout(gtx, func(gtx C) D {
						return a.layoutCard(gtx, func(gtx C) D { return a.layoutTab(gtx, state) })
					})
				}),
				layout.Rigid(func(gtx C) D { return a.layoutProgress(gtx, state) }),
				layout.Rigid(a.layoutLogSplitter),
				layout.Rigid(func(gtx C) D { return a.layoutLogPane(gtx, state) }),
				layout.Rigid(func(gtx C) D { return a.layoutStatus(gtx, state) }),
			)
		}),
	)
	if state.Pending != nil {
		a.layoutConfirm(gtx, state.Pending)
	}
	return dims
}

func (a *App) layoutNavigation(gtx C) D {
	width := gtx.Dp(unit.Dp(170))
	gtx.Constraints.Min.X = width
	gtx.Constraints.Max.X = width
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 45, G: 50, B: 68, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())
			return D{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx C) D {
			return layout.Inset{Top: unit.Dp(24), Bottom: unit.Dp(24), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx C) D {
				children := make([]layout.FlexChild, 0, len(a.navEntries)*2)
				for i := range a.navEntries {
					entry := &a.navEntries[i]
					children = append(children,
						layout.Rigid(func(gtx C) D { return a.layoutNavEntry(gtx, entry) }),
						layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
					)
				}
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
			})
		}),
	)
}

func (a *App) layoutNavEntry(gtx C, entry *navEntry) D {
	if entry.click.Clicked(gtx) {
		a.current = entry.tab
	}

	size := image.Pt(gtx.Constraints.Max.X, gtx.Dp(unit.Dp(48)))
	gtx.Constraints.Min = size
	gtx.Constraints.Max = size

	bg := color.NRGBA{R: 45, G: 50, B: 68, A: 255}
	if entry.click.Hovered() {
		bg = color.NRGBA{R: 60, G: 66, B: 88, A: 255}
	}
	if a.current == entry.tab {
		bg = a.Theme.Palette.ContrastBg
	}
	fg := color.NRGBA{R: 240, G: 244, B: 255, A: 255}

	return entry.click.Layout(gtx, func(gtx C) D {
		return layout.Stack{}.Layout(gtx,
			layout.Expanded(func(gtx C) D {
				rect := image.Rectangle{Max: size}.Inset(gtx.Dp(unit.Dp(2)))
				rr := gtx.Dp(unit.Dp(8))
				paint.FillShape(gtx.Ops, bg, clip.RRect{Rect: rect, NW: rr, NE: rr, SW: rr, SE: rr}.Op(gtx.Ops))
				return D{Size: size}
			}),
			layout.Stacked(func(gtx C) D {
				return layout.Inset{Top: unit.Dp(6), Bottom: unit.Dp(6), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx C) D {
					return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
						layout.Rigid(func(gtx C) D {
							s := gtx.Dp(unit.Dp(24))
							gtx.Constraints.Min = image.Pt(s, s)
							gtx.Constraints.Max = gtx.Constraints.Min
							if entry.icon != nil {
								return entry.icon.Layout(gtx, fg)
							}
							return D{Size: image.Pt(s, s)}
						}),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(func(gtx C) D {
							lbl := material.Body2(a.Theme.Theme, entry.name)
							lbl.Color = fg
							lbl.Alignment = text.Start
							return lbl.Layout(gtx)
						}),
					)
				})
			}),
		)
	})
}

func (a *App) layoutTopBar(gtx C, state StateSnapshot) D {
	return layout.Inset{Top: unit.Dp(12), Bottom: unit.Dp(8), Left: unit.Dp(16), Right: unit.Dp(16)}.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.H6(a.Theme.Theme, "OpenTraceProg").Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx C) D { return a.layoutDeviceSelector(gtx, state) }),
		)
	})
}

func (a *App) layoutDeviceSelector(gtx C, state StateSnapshot) D {
	for {
		ev, ok := a.deviceEditor.Update(gtx)
		if !ok {
			break
		}
		switch ev.(type) {
		case widget.ChangeEvent:
			a.showMatches = true
			a.Ctrl.SearchDevices(context.Background(), a.deviceEditor.Text())
		case widget.SubmitEvent:
			a.showMatches = false
			a.rememberDevice(a.device())
		}
	}
	if a.loadDevices.Clicked(gtx) && !state.DevicesLoading {
		a.Ctrl.RequestDeviceList()
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					gtx.Constraints.Min.X = gtx.Dp(unit.Dp(110))
					return material.Body2(a.Theme.Theme, "Device").Layout(gtx)
				}),
				layout.Flexed(1, func(gtx C) D {
					return inputBox(gtx, a.Theme, material.Editor(a.Theme.Theme, &a.deviceEditor, "Type to search, e.g. AT28C256").Layout)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx C) D {
					label := "Load Device List"
					if state.DevicesLoading {
						label = "Loading..."
					}
					btn := material.Button(a.Theme.Theme, &a.loadDevices, label)
					btn.Inset = layout.UniformInset(unit.Dp(6))
					return btn.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(material.Caption(a.Theme.Theme, strconv.Itoa(state.DeviceCount)+" devices").Layout),
			)
		}),
		layout.Rigid(func(gtx C) D {
			if !a.showMatches || len(state.Matches) == 0 {
				return D{}
			}
			return a.layoutMatches(gtx, state.Matches)
		}),
	)
}

func (a *App) layoutMatches(gtx C, matches []string) D {
	if len(a.matchClicks) < len(matches) {
		a.matchClicks = append(a.matchClicks, make([]widget.Clickable, len(matches)-len(a.matchClicks))...)
	}
	for i := range matches {
		if a.matchClicks[i].Clicked(gtx) {
			a.deviceEditor.SetText(matches[i])
			a.showMatches = false
			a.rememberDevice(matches[i])
		}
	}
	gtx.Constraints.Max.Y = gtx.Dp(unit.Dp(160))
	return layout.Inset{Left: unit.Dp(110), Top: unit.Dp(4)}.Layout(gtx, func(gtx C) D {
		return a.layoutSurface(gtx, func(gtx C) D {
			return material.List(a.Theme.Theme, &a.matchList).Layout(gtx, len(matches), func(gtx C, i int) D {
				return material.Clickable(gtx, &a.matchClicks[i], func(gtx C) D {
					return layout.UniformInset(unit.Dp(4)).Layout(gtx, material.Body2(a.Theme.Theme, matches[i]).Layout)
				})
			})
		})
	})
}

func (a *App) layoutNotice(gtx C, state StateSnapshot) D {
	if state.Notice == "" {
		return D{}
	}
	if a.noticeDismiss.Clicked(gtx) {
		a.Ctrl.State.SetNotice("")
	}
	return layout.Inset{Left: unit.Dp(12), Right: unit.Dp(12), Bottom: unit.Dp(8)}.Layout(gtx, func(gtx C) D {
		return layout.Stack{}.Layout(gtx,
			layout.Expanded(func(gtx C) D {
				rr := gtx.Dp(unit.Dp(6))
				paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 236, B: 179, A: 255}, clip.RRect{
					Rect: image.Rectangle{Max: gtx.Constraints.Min}, NW: rr, NE: rr, SW: rr, SE: rr,
				}.Op(gtx.Ops))
				return D{Size: gtx.Constraints.Min}
			}),
			layout.Stacked(func(gtx C) D {
				return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx C) D {
					return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
						layout.Flexed(1, material.Body1(a.Theme.Theme, state.Notice).Layout),
						layout.Rigid(material.Button(a.Theme.Theme, &a.noticeDismiss, "OK").Layout),
					)
				})
			}),
		)
	})
}

func (a *App) layoutTab(gtx C, state StateSnapshot) D {
	switch a.current {
	case tabReadWrite:
		return a.layoutReadWrite(gtx, state)
	case tabFirmware:
		return a.layoutFirmware(gtx, state)
	case tabConfig:
		return a.layoutConfig(gtx, state)
	case tabAdvanced:
		return a.layoutAdvanced(gtx, state)
	default:
		return a.layoutDeviceInfo(gtx, state)
	}
}

func (a *App) layoutSurface(gtx C, body layout.Widget) D {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			rr := gtx.Dp(unit.Dp(6))
			paint.FillShape(gtx.Ops, a.Theme.Bg2, clip.RRect{
				Rect: image.Rectangle{Max: gtx.Constraints.Min}, NW: rr, NE: rr, SW: rr, SE: rr,
			}.Op(gtx.Ops))
			return D{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(body),
	)
}

func (a *App) layoutCard(gtx C, body layout.Widget) D {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			rr := gtx.Dp(unit.Dp(12))
			paint.FillShape(gtx.Ops, color.NRGBA{R: 252, G: 252, B: 255, A: 255}, clip.RRect{
				Rect: image.Rectangle{Max: gtx.Constraints.Max}, NW: rr, NE: rr, SW: rr, SE: rr,
			}.Op(gtx.Ops))
			return D{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx C) D {
			return layout.UniformInset(unit.Dp(16)).Layout(gtx, body)
		}),
	)
}

// progressVisible hides the bar progressLinger after a run ends and
// schedules the frame that does it.
func (a *App) progressVisible(gtx C, state StateSnapshot) bool {
	pv := state.Progress
	if !pv.Visible {
		return false
	}
	if state.Busy || pv.Finished.IsZero() {
		return true
	}
	hideAt := pv.Finished.Add(progressLinger)
	if gtx.Now.Before(hideAt) {
		gtx.Execute(op.InvalidateCmd{At: hideAt})
		return true
	}
	return false
}

func (a *App) layoutProgress(gtx C, state StateSnapshot) D {
	if !a.progressVisible(gtx, state) {
		return D{}
	}
	pv := state.Progress
	return layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(8)}.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx C) D {
				bar := material.ProgressBar(a.Theme.Theme, float32(pv.Percent)/100)
				if pv.Failed {
					bar.Color = colorError
				}
				return bar.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
			layout.Rigid(func(gtx C) D {
				lbl := material.Caption(a.Theme.Theme, pv.Label)
				if pv.Failed {
					lbl.Color = colorError
				}
				return lbl.Layout(gtx)
			}),
		)
	})
}

func (a *App) layoutLogSplitter(gtx C) D {
	size := image.Pt(gtx.Constraints.Max.X, gtx.Dp(unit.Dp(8)))
	rect := clip.Rect{Max: size}
	paint.FillShape(gtx.Ops, color.NRGBA{R: 210, G: 214, B: 228, A: 255}, rect.Op())

	stack := rect.Push(gtx.Ops)
	pointer.CursorRowResize.Add(gtx.Ops)
	a.logSplitter.Add(gtx.Ops)
	stack.Pop()

	for {
		ev, ok := a.logSplitter.Update(gtx.Metric, gtx.Source, gesture.Vertical)
		if !ok {
			break
		}
		switch ev.Kind {
		case pointer.Press:
			a.logSplitDrag = true
			a.logSplitLastY = ev.Position.Y
		case pointer.Drag:
			if a.logSplitDrag {
				a.logPaneHeight -= ev.Position.Y - a.logSplitLastY
				a.logSplitLastY = ev.Position.Y
				a.clampLogPaneHeight(gtx)
				a.invalidate()
			}
		case pointer.Release, pointer.Cancel:
			a.logSplitDrag = false
		}
	}
	return D{Size: size}
}

func (a *App) clampLogPaneHeight(gtx C) {
	if a.logPaneHeight <= 0 {
		a.logPaneHeight = float32(gtx.Dp(unit.Dp(200)))
	}
	lo := float32(gtx.Dp(unit.Dp(80)))
	hi := float32(gtx.Dp(unit.Dp(480)))
	a.logPaneHeight = min(max(a.logPaneHeight, lo), hi)
}

func (a *App) layoutStatus(gtx C, state StateSnapshot) D {
	programmer := "Programmer: not scanned"
	if len(state.Programmers) > 0 {
		programmer = "Programmer: " + state.Programmers[0].Label()
	}
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 230, G: 234, B: 244, A: 255}, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return D{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx C) D {
			gtx.Constraints.Min.X = gtx.Constraints.Max.X
			return layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(6), Bottom: unit.Dp(6)}.Layout(gtx, func(gtx C) D {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, material.Body2(a.Theme.Theme, state.Status).Layout),
					layout.Rigid(material.Body2(a.Theme.Theme, programmer).Layout),
				)
			})
		}),
	)
}

func (a *App) layoutConfirm(gtx C, c *Confirmation) D {
	if a.confirmYes.Clicked(gtx) {
		a.Ctrl.Confirm(true)
	}
	if a.confirmNo.Clicked(gtx) {
		a.Ctrl.Confirm(false)
	}
	paint.FillShape(gtx.Ops, color.NRGBA{A: 140}, clip.Rect{Max: gtx.Constraints.Max}.Op())
	// Swallow pointer input meant for the widgets underneath.
	for {
		if _, ok := gtx.Event(pointer.Filter{Target: &a.scrim, Kinds: pointer.Press | pointer.Release}); !ok {
			break
		}
	}
	area := clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops)
	event.Op(gtx.Ops, &a.scrim)
	area.Pop()
	gtx.Constraints.Min = gtx.Constraints.Max
	return layout.Center.Layout(gtx, func(gtx C) D {
		gtx.Constraints.Max.X = gtx.Dp(unit.Dp(460))
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		gtx.Constraints.Min.Y = 0
		return a.layoutCardMin(gtx, func(gtx C) D {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(material.H6(a.Theme.Theme, c.Title).Layout),
				layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
				layout.Rigid(material.Body1(a.Theme.Theme, c.Message).Layout),
				layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
				layout.Rigid(func(gtx C) D {
					return layout.Flex{Axis: layout.Horizontal, Spacing: layout.SpaceStart}.Layout(gtx,
						layout.Rigid(material.Button(a.Theme.Theme, &a.confirmNo, "No").Layout),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(material.Button(a.Theme.Theme, &a.confirmYes, "Yes").Layout),
					)
				}),
			)
		})
	})
}

// layoutCardMin is layoutCard sized to its content.
func (a *App) layoutCardMin(gtx C, body layout.Widget) D {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			rr := gtx.Dp(unit.Dp(12))
			paint.FillShape(gtx.Ops, a.Theme.Palette.Bg, clip.RRect{
				Rect: image.Rectangle{Max: gtx.Constraints.Min}, NW: rr, NE: rr, SW: rr, SE: rr,
			}.Op(gtx.Ops))
			return D{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx C) D {
			return layout.UniformInset(unit.Dp(20)).Layout(gtx, body)
		}),
	)
}
