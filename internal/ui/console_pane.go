package ui

import (
	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

func (a *App) handleDebugToggle(gtx C, state StateSnapshot) {
	if a.debugToggle.Update(gtx) {
		a.Ctrl.State.SetDebug(a.debugToggle.Value)
		return
	}
	a.debugToggle.Value = state.Debug
}

func (a *App) layoutLogPane(gtx C, state StateSnapshot) D {
	a.clampLogPaneHeight(gtx)
	height := min(int(a.logPaneHeight), gtx.Constraints.Max.Y)
	gtx.Constraints.Min.Y = height
	gtx.Constraints.Max.Y = height

	if a.clearBtn.Clicked(gtx) {
		a.Ctrl.State.ClearConsole()
	}

	th := a.Theme.Theme
	return layout.Inset{Left: unit.Dp(16), Right: unit.Dp(16), Top: unit.Dp(6), Bottom: unit.Dp(6)}.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx C) D {
				return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
					layout.Flexed(1, material.Body1(th, "Console").Layout),
					layout.Rigid(material.CheckBox(th, &a.debugToggle, "Debug progress").Layout),
					layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
					layout.Rigid(func(gtx C) D {
						btn := material.Button(th, &a.clearBtn, "Clear")
						btn.Inset = layout.UniformInset(unit.Dp(6))
						return btn.Layout(gtx)
					}),
				)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
			layout.Flexed(1, func(gtx C) D {
				gtx.Constraints.Min = gtx.Constraints.Max
				return a.layoutSurface(gtx, func(gtx C) D {
					return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx C) D {
						return a.layoutConsole(gtx, state.Console)
					})
				})
			}),
		)
	})
}

func (a *App) layoutConsole(gtx C, entries []ConsoleEntry) D {
	th := a.Theme.Theme
	if len(entries) == 0 {
		lbl := material.Caption(th, "Command output will appear here.")
		lbl.Color = colorMuted
		return lbl.Layout(gtx)
	}
	return material.List(th, &a.consoleList).Layout(gtx, len(entries), func(gtx C, i int) D {
		e := entries[i]
		lbl := material.Body2(th, e.Text)
		lbl.Color = entryColor(e.Kind, th.Palette.Fg)
		return lbl.Layout(gtx)
	})
}
