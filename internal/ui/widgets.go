package ui

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"

	"github.com/OpenTraceLab/OpenTraceProg/internal/console"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// choice is a labelled button that opens a gioview dropdown.
type choice struct {
	label    string
	options  []string
	selected int
	btn      widget.Clickable
	menu     *menu.DropdownMenu
	onChange func(string)
}

func newChoice(label string, options []string, initial string) *choice {
	c := &choice{label: label, options: options}
	c.Select(initial)
	opts := make([]menu.MenuOption, 0, len(options))
	for i, name := range options {
		idx := i
		text := name
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				c.selected = idx
				if c.onChange != nil {
					c.onChange(c.Value())
				}
				return nil
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := material.Body1(th.Theme, text)
				if idx == c.selected {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	c.menu = menu.NewDropdownMenu([][]menu.MenuOption{opts})
	c.menu.MaxWidth = unit.Dp(220)
	return c
}

// Value returns the selected option.
func (c *choice) Value() string {
	if c.selected < 0 || c.selected >= len(c.options) {
		return ""
	}
	return c.options[c.selected]
}

// Select picks v if it is one of the options.
func (c *choice) Select(v string) bool {
	for i, o := range c.options {
		if o == v {
			c.selected = i
			return true
		}
	}
	return false
}

func (c *choice) Layout(gtx C, th *theme.Theme) D {
	if c.btn.Clicked(gtx) {
		c.menu.ToggleVisibility(gtx)
	}
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min.X = gtx.Dp(unit.Dp(110))
			return material.Body2(th.Theme, c.label).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			btn := material.Button(th.Theme, &c.btn, c.Value()+" ▾")
			btn.Inset = layout.UniformInset(unit.Dp(6))
			dims := btn.Layout(gtx)
			c.menu.Layout(gtx, th)
			return dims
		}),
	)
}

// fileField is a path editor with a Browse button backed by the native
// file dialog.
type fileField struct {
	label  string
	save   bool
	exts   []string
	editor widget.Editor
	browse widget.Clickable

	mu      sync.Mutex
	picked  string
	pending bool
}

func newFileField(label string, save bool, initial string, exts ...string) *fileField {
	f := &fileField{label: label, save: save, exts: exts}
	f.editor.SingleLine = true
	f.editor.Submit = true
	f.editor.SetText(initial)
	return f
}

// Path returns the current editor text.
func (f *fileField) Path() string {
	return f.editor.Text()
}

// choose opens the dialog off the UI goroutine. The result is applied on the
// next frame.
func (f *fileField) choose(ex *explorer.Explorer, invalidate func(), report func(error)) {
	go func() {
		var (
			name string
			err  error
		)
		if f.save {
			name, err = createFile(ex, "dump.bin")
		} else {
			name, err = chooseFile(ex, f.exts...)
		}
		if err != nil {
			if err != explorer.ErrUserDecline {
				report(err)
			}
			return
		}
		f.mu.Lock()
		f.picked = name
		f.pending = true
		f.mu.Unlock()
		invalidate()
	}()
}

func (f *fileField) applyPicked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pending {
		return false
	}
	f.editor.SetText(f.picked)
	f.pending = false
	return true
}

func chooseFile(ex *explorer.Explorer, exts ...string) (string, error) {
	file, err := ex.ChooseFile(exts...)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if f, ok := file.(*os.File); ok {
		return f.Name(), nil
	}
	return "", fmt.Errorf("file picker did not return a local path")
}

func createFile(ex *explorer.Explorer, name string) (string, error) {
	file, err := ex.CreateFile(name)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if f, ok := file.(*os.File); ok {
		return f.Name(), nil
	}
	return "", fmt.Errorf("file picker did not return a local path")
}

func (f *fileField) Layout(gtx C, th *theme.Theme, onBrowse func()) D {
	f.applyPicked()
	if f.browse.Clicked(gtx) {
		onBrowse()
	}
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min.X = gtx.Dp(unit.Dp(110))
			return material.Body2(th.Theme, f.label).Layout(gtx)
		}),
		layout.Flexed(1, func(gtx C) D {
			return inputBox(gtx, th, func(gtx C) D {
				return material.Editor(th.Theme, &f.editor, "Select file...").Layout(gtx)
			})
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			btn := material.Button(th.Theme, &f.browse, "Browse...")
			btn.Inset = layout.UniformInset(unit.Dp(6))
			return btn.Layout(gtx)
		}),
	)
}

// inputBox draws the rounded background behind an editor.
func inputBox(gtx C, th *theme.Theme, w layout.Widget) D {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx C) D {
			rr := gtx.Dp(unit.Dp(4))
			paint.FillShape(gtx.Ops, th.Bg2, clip.RRect{
				Rect: image.Rectangle{Max: gtx.Constraints.Min},
				NW:   rr, NE: rr, SW: rr, SE: rr,
			}.Op(gtx.Ops))
			return D{Size: gtx.Constraints.Min}
		}),
		layout.Stacked(func(gtx C) D {
			return layout.UniformInset(unit.Dp(6)).Layout(gtx, w)
		}),
	)
}

func hexColor(s string) color.NRGBA {
	c := color.NRGBA{A: 255}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return color.NRGBA{A: 255}
	}
	return c
}

var (
	colorCommand = hexColor(console.ColorCommand)
	colorError   = hexColor(console.ColorError)
	colorDebug   = hexColor(console.ColorDebug)
	colorSuccess = hexColor(console.ColorSuccess)
	colorMuted   = hexColor(console.ColorMuted)
)

func entryColor(kind EntryKind, fg color.NRGBA) color.NRGBA {
	switch kind {
	case KindCommand:
		return colorCommand
	case KindError:
		return colorError
	case KindDebug:
		return colorDebug
	case KindSuccess:
		return colorSuccess
	case KindInfo:
		return colorMuted
	}
	return fg
}
