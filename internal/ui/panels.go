package ui

import (
	"context"
	"strconv"
	"strings"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/OpenTraceLab/OpenTraceProg/internal/config"
	"github.com/OpenTraceLab/OpenTraceProg/pkg/minipro"
)

func (a *App) section(title, subtitle string) []layout.FlexChild {
	children := []layout.FlexChild{layout.Rigid(material.H6(a.Theme.Theme, title).Layout)}
	if subtitle != "" {
		children = append(children,
			layout.Rigid(layout.Spacer{Height: unit.Dp(2)}.Layout),
			layout.Rigid(material.Caption(a.Theme.Theme, subtitle).Layout),
		)
	}
	return append(children, layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout))
}

func gap(h unit.Dp) layout.FlexChild {
	return layout.Rigid(layout.Spacer{Height: h}.Layout)
}

// buttonRow lays out buttons left to right, disabled while a run is active.
func (a *App) buttonRow(gtx C, busy bool, buttons ...material.ButtonStyle) D {
	children := make([]layout.FlexChild, 0, len(buttons)*2)
	for i := range buttons {
		btn := buttons[i]
		children = append(children, layout.Rigid(func(gtx C) D {
			if busy {
				gtx = gtx.Disabled()
			}
			return btn.Layout(gtx)
		}))
		children = append(children, layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout))
	}
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx, children...)
}

// scroll lays out rows inside a scrollable list.
func (a *App) scroll(gtx C, list *widget.List, rows []layout.FlexChild) D {
	return material.List(a.Theme.Theme, list).Layout(gtx, 1, func(gtx C, _ int) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, rows...)
	})
}

func (a *App) layoutDeviceInfo(gtx C, state StateSnapshot) D {
	th := a.Theme.Theme
	b := a.Ctrl.Builder
	dev := a.device()

	if a.detectBtn.Clicked(gtx) {
		go a.Ctrl.DetectProgrammer(context.Background())
	}
	if a.infoBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.DeviceInfo(dev))
	}
	if a.chipIDBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.ReadChipID(dev))
	}
	if a.pinCheckBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.PinCheck(dev))
	}
	if a.blankBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.BlankCheck(dev, a.memoryType()))
	}
	if a.logicBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.LogicTest(dev, a.vcc.Value()))
	}
	if a.queryBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.QuerySupported(), nil)
	}
	if a.hwCheckBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.HardwareCheck(), nil)
	}

	rows := a.section("Programmer", "Identify the connected TL866 or T48 programmer.")
	rows = append(rows,
		layout.Rigid(func(gtx C) D {
			return a.buttonRow(gtx, state.Busy,
				material.Button(th, &a.detectBtn, "Detect Programmer"),
				material.Button(th, &a.queryBtn, "Query Supported"),
				material.Button(th, &a.hwCheckBtn, "Hardware Check"),
			)
		}),
		gap(16),
	)
	rows = append(rows, a.section("Device", "Uses the device selected above.")...)
	rows = append(rows,
		layout.Rigid(func(gtx C) D {
			return a.buttonRow(gtx, state.Busy,
				material.Button(th, &a.infoBtn, "Get Device Info"),
				material.Button(th, &a.chipIDBtn, "Read Chip ID"),
				material.Button(th, &a.pinCheckBtn, "Pin Check"),
			)
		}),
		gap(8),
		layout.Rigid(func(gtx C) D {
			return a.buttonRow(gtx, state.Busy,
				material.Button(th, &a.blankBtn, "Blank Check"),
				material.Button(th, &a.logicBtn, "Logic Test"),
			)
		}),
		gap(4),
		layout.Rigid(material.Caption(th, "Blank check uses the memory type from Read/Write. Logic test uses the VCC from Configuration.").Layout),
	)
	return a.scroll(gtx, &a.deviceScroll, rows)
}

func (a *App) layoutReadWrite(gtx C, state StateSnapshot) D {
	th := a.Theme.Theme
	b := a.Ctrl.Builder
	dev := a.device()

	if a.readBtn.Clicked(gtx) {
		format, _ := minipro.ParseFormat(a.format.Value())
		inv, err := b.Read(dev, a.readFile.Path(), minipro.ReadOptions{
			Memory:      a.memoryType(),
			Format:      format,
			SkipIDCheck: a.skipIDCheck.Value,
		})
		if err == nil {
			a.remember(func(p *config.Preferences) {
				p.LastDevice = dev
				p.LastReadFile = a.readFile.Path()
			})
		}
		a.Ctrl.Submit(inv, err)
	}
	if a.writeBtn.Clicked(gtx) {
		opts, err := a.writeOptions()
		var inv minipro.Invocation
		if err == nil {
			inv, err = b.Write(dev, a.writeFile.Path(), opts)
		}
		if err == nil {
			a.remember(func(p *config.Preferences) {
				p.LastDevice = dev
				p.LastWriteFile = a.writeFile.Path()
			})
		}
		a.Ctrl.Submit(inv, err)
	}
	if a.verifyBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.Verify(dev, a.writeFile.Path(), a.memoryType()))
	}

	browse := func(f *fileField) func() {
		return func() { f.choose(a.explorer, a.invalidate, a.reportPicker) }
	}
	check := func(w *widget.Bool, label string) layout.FlexChild {
		return layout.Rigid(material.CheckBox(th, w, label).Layout)
	}

	rows := []layout.FlexChild{
		layout.Rigid(func(gtx C) D { return a.memory.Layout(gtx, a.Theme) }),
		gap(6),
		layout.Rigid(func(gtx C) D { return a.format.Layout(gtx, a.Theme) }),
		gap(16),
	}
	rows = append(rows, a.section("Read", "Read device memory into a file.")...)
	rows = append(rows,
		layout.Rigid(func(gtx C) D { return a.readFile.Layout(gtx, a.Theme, browse(a.readFile)) }),
		gap(4),
		check(&a.skipIDCheck, "Skip chip ID check (-x)"),
		layout.Rigid(func(gtx C) D {
			return a.buttonRow(gtx, state.Busy, material.Button(th, &a.readBtn, "Read Device"))
		}),
		gap(16),
	)
	rows = append(rows, a.section("Write", "Program a file into the device. Voltages and ICSP come from Configuration.")...)
	rows = append(rows,
		layout.Rigid(func(gtx C) D { return a.writeFile.Layout(gtx, a.Theme, browse(a.writeFile)) }),
		gap(4),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Flexed(1, func(gtx C) D {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						check(&a.unprotect, "Unprotect before write (-u)"),
						check(&a.protect, "Protect after write (-P)"),
						check(&a.skipErase, "Skip erase (-e)"),
					)
				}),
				layout.Flexed(1, func(gtx C) D {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						check(&a.skipVerify, "Skip verify (-v)"),
						check(&a.noIDError, "Ignore ID mismatch (-y)"),
						check(&a.noSizeError, "Ignore size mismatch (-s)"),
					)
				}),
			)
		}),
		gap(4),
		layout.Rigid(func(gtx C) D {
			return a.buttonRow(gtx, state.Busy,
				material.Button(th, &a.writeBtn, "Write Device"),
				material.Button(th, &a.verifyBtn, "Verify"),
			)
		}),
	)
	return a.scroll(gtx, &a.rwScroll, rows)
}

func (a *App) layoutFirmware(gtx C, state StateSnapshot) D {
	th := a.Theme.Theme
	b := a.Ctrl.Builder

	if a.firmwareBtn.Clicked(gtx) {
		inv, err := b.UpdateFirmware(a.firmwareFile.Path())
		if err == nil {
			a.remember(func(p *config.Preferences) { p.LastFirmwareFile = a.firmwareFile.Path() })
		}
		a.Ctrl.Submit(inv, err)
	}
	if a.eraseBtn.Clicked(gtx) {
		a.Ctrl.Submit(b.Erase(a.device()))
	}

	rows := a.section("Firmware Update", "Flash the programmer with an updateXXX.dat file from the vendor.")
	rows = append(rows,
		layout.Rigid(func(gtx C) D {
			return a.firmwareFile.Layout(gtx, a.Theme, func() {
				a.firmwareFile.choose(a.explorer, a.invalidate, a.reportPicker)
			})
		}),
		gap(8),
		layout.Rigid(func(gtx C) D {
			return a.buttonRow(gtx, state.Busy, material.Button(th, &a.firmwareBtn, "Update Firmware"))
		}),
		gap(24),
	)
	rows = append(rows, a.section("Erase", "Erase the whole selected device.")...)
	rows = append(rows, layout.Rigid(func(gtx C) D {
		btn := material.Button(th, &a.eraseBtn, "Erase Device")
		btn.Background = colorError
		return a.buttonRow(gtx, state.Busy, btn)
	}))
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, rows...)
}

func (a *App) layoutConfig(gtx C, state StateSnapshot) D {
	th := a.Theme.Theme

	if a.autoBtn.Clicked(gtx) {
		width, _ := strconv.Atoi(a.width.Value)
		a.Ctrl.Submit(a.Ctrl.Builder.AutoDetect(width))
	}

	rows := a.section("Voltages", "Default lets minipro pick the value for the device.")
	rows = append(rows,
		layout.Rigid(func(gtx C) D { return a.vpp.Layout(gtx, a.Theme) }),
		gap(6),
		layout.Rigid(func(gtx C) D { return a.vdd.Layout(gtx, a.Theme) }),
		gap(6),
		layout.Rigid(func(gtx C) D { return a.vcc.Layout(gtx, a.Theme) }),
		gap(6),
		layout.Rigid(func(gtx C) D { return a.spiClock.Layout(gtx, a.Theme) }),
		gap(6),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					gtx.Constraints.Min.X = gtx.Dp(unit.Dp(110))
					return material.Body2(th, "Pulse delay (µs)").Layout(gtx)
				}),
				layout.Rigid(func(gtx C) D {
					gtx.Constraints.Max.X = gtx.Dp(unit.Dp(120))
					gtx.Constraints.Min.X = gtx.Constraints.Max.X
					return inputBox(gtx, a.Theme, material.Editor(th, &a.pulse, "0").Layout)
				}),
			)
		}),
		gap(16),
	)
	rows = append(rows, a.section("ICSP", "In-circuit programming mode used by Write.")...)
	rows = append(rows,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Rigid(material.RadioButton(th, &a.icsp, "none", "Off").Layout),
				layout.Rigid(material.RadioButton(th, &a.icsp, "vcc", "ICSP with VCC (-i)").Layout),
				layout.Rigid(material.RadioButton(th, &a.icsp, "novcc", "ICSP without VCC (-I)").Layout),
			)
		}),
		gap(16),
	)
	rows = append(rows, a.section("Auto Detect", "Identify an 8 or 16 pin SPI flash in the socket.")...)
	rows = append(rows,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(material.RadioButton(th, &a.width, "8", "8 pin").Layout),
				layout.Rigid(material.RadioButton(th, &a.width, "16", "16 pin").Layout),
				layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
				layout.Rigid(func(gtx C) D {
					return a.buttonRow(gtx, state.Busy, material.Button(th, &a.autoBtn, "Auto Detect"))
				}),
			)
		}),
	)
	return a.scroll(gtx, &a.cfgScroll, rows)
}

func (a *App) layoutAdvanced(gtx C, state StateSnapshot) D {
	th := a.Theme.Theme

	submit := a.customBtn.Clicked(gtx)
	for {
		ev, ok := a.customEditor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			submit = true
		}
	}
	if submit && !state.Busy {
		a.Ctrl.Submit(a.Ctrl.Builder.Custom(a.customEditor.Text()))
	}

	rows := a.section("Custom Command", "Arguments passed to minipro. A leading \"minipro\" is optional.")
	rows = append(rows,
		layout.Rigid(func(gtx C) D {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, func(gtx C) D {
					return inputBox(gtx, a.Theme, material.Editor(th, &a.customEditor, "-p \"AT28C256\" -r dump.bin").Layout)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx C) D {
					return a.buttonRow(gtx, state.Busy, material.Button(th, &a.customBtn, "Execute"))
				}),
			)
		}),
		gap(24),
	)
	rows = append(rows, a.section("Device Catalogue", "")...)
	rows = append(rows,
		layout.Rigid(material.Body2(th, strconv.Itoa(state.DeviceCount)+" device names available for search.").Layout),
		layout.Rigid(material.Caption(th, "Use Load Device List to fetch every device minipro supports. The list is cached between sessions.").Layout),
	)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, rows...)
}

func (a *App) memoryType() minipro.MemoryType {
	m, err := minipro.ParseMemoryType(a.memory.Value())
	if err != nil {
		return minipro.MemoryCode
	}
	return m
}

func (a *App) voltages() (minipro.Voltages, error) {
	v := minipro.Voltages{
		VPP:      a.vpp.Value(),
		VDD:      a.vdd.Value(),
		VCC:      a.vcc.Value(),
		SPIClock: a.spiClock.Value(),
	}
	if s := strings.TrimSpace(a.pulse.Text()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return v, err
		}
		v.Pulse = n
	}
	return v, v.Validate()
}

func (a *App) writeOptions() (minipro.WriteOptions, error) {
	v, err := a.voltages()
	if err != nil {
		return minipro.WriteOptions{}, err
	}
	return minipro.WriteOptions{
		Memory:         a.memoryType(),
		Voltages:       v,
		Unprotect:      a.unprotect.Value,
		Protect:        a.protect.Value,
		ICSPWithVCC:    a.icsp.Value == "vcc",
		ICSPWithoutVCC: a.icsp.Value == "novcc",
		SkipErase:      a.skipErase.Value,
		SkipVerify:     a.skipVerify.Value,
		NoIDError:      a.noIDError.Value,
		NoSizeError:    a.noSizeError.Value,
	}, nil
}

func (a *App) reportPicker(err error) {
	a.log.Warn("file picker failed", "error", err)
	a.Ctrl.State.SetNotice("File picker failed: " + err.Error())
	a.invalidate()
}
