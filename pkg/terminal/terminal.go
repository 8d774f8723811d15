// Package terminal draws the foveation zones in a terminal and turns mouse
// movement into pointer gaze.
package terminal

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/teslashibe/go-foveate/pkg/overlay"
	"github.com/teslashibe/go-foveate/pkg/zone"
)

// Action is a command decoded from a key press.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionNextPreset
	ActionNextPattern
	ActionTogglePipeline
	ActionToggleOverlay
	ActionTogglePath
)

var keyActions = map[rune]Action{
	'q': ActionQuit,
	'p': ActionNextPreset,
	'f': ActionNextPattern,
	'v': ActionTogglePipeline,
	'o': ActionToggleOverlay,
	'd': ActionTogglePath,
}

var (
	innerStyle  = tcell.StyleDefault.Background(tcell.ColorMaroon)
	middleStyle = tcell.StyleDefault.Background(tcell.ColorDarkGreen)
	gazeStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// Pointer tracks the mouse over a screen. It satisfies gaze.Pointer.
type Pointer struct {
	mu     sync.RWMutex
	col    int
	row    int
	width  int
	height int
	moved  bool
}

// PointerPosition returns the centre of the hovered cell, origin bottom-left.
func (p *Pointer) PointerPosition() (float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.moved {
		return float64(p.width) / 2, float64(p.height) / 2
	}
	return float64(p.col) + 0.5, float64(p.height-p.row) - 0.5
}

// Viewport returns the screen size in cells.
func (p *Pointer) Viewport() (float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return float64(p.width), float64(p.height)
}

func (p *Pointer) resize(w, h int) {
	p.mu.Lock()
	p.width, p.height = w, h
	p.mu.Unlock()
}

func (p *Pointer) move(col, row int) {
	p.mu.Lock()
	p.col, p.row = col, row
	p.moved = true
	p.mu.Unlock()
}

// View owns a tcell screen.
type View struct {
	screen  tcell.Screen
	pointer *Pointer
}

// New wraps an initialized screen and enables mouse reporting.
func New(screen tcell.Screen) *View {
	screen.EnableMouse(tcell.MouseMotionEvents)
	v := &View{screen: screen, pointer: &Pointer{}}
	v.fit()
	return v
}

// fit sizes the pointer viewport to the drawing area above the status line.
func (v *View) fit() {
	w, h := v.screen.Size()
	v.pointer.resize(w, max(h-1, 0))
}

// Pointer returns the mouse-backed pointer.
func (v *View) Pointer() *Pointer {
	return v.pointer
}

// Screen returns the underlying screen.
func (v *View) Screen() tcell.Screen {
	return v.screen
}

// HandleEvent updates the pointer from mouse and resize events and
// decodes key presses.
func (v *View) HandleEvent(ev tcell.Event) Action {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		col, row := ev.Position()
		v.pointer.move(col, row)
	case *tcell.EventResize:
		v.fit()
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return ActionQuit
		case tcell.KeyRune:
			return keyActions[ev.Rune()]
		}
	}
	return ActionNone
}

// Draw paints the zone ellipses around the overlay centre, the gaze
// marker, and a status line on the last row.
func (v *View) Draw(st overlay.State, status string) {
	v.screen.Clear()
	w, h := v.screen.Size()
	rows := h - 1
	if w <= 0 || rows <= 0 {
		v.screen.Show()
		return
	}

	if st.Enabled {
		cx := (st.Center[0] + 1) / 2 * float64(w)
		cy := (st.Center[1] + 1) / 2 * float64(rows)

		for row := range rows {
			for col := range w {
				dx := (float64(col) + 0.5 - cx) / float64(w)
				dy := (float64(rows-row) - 0.5 - cy) / float64(rows)
				switch {
				case zone.InEllipse(dx, dy, st.Inner):
					v.screen.SetContent(col, row, ' ', nil, innerStyle)
				case zone.InEllipse(dx, dy, st.Middle):
					v.screen.SetContent(col, row, ' ', nil, middleStyle)
				}
			}
		}

		gc, gr := int(cx), rows-1-int(cy)
		if gc >= 0 && gc < w && gr >= 0 && gr < rows {
			style := gazeStyle
			if zone.InEllipse(0, 0, st.Inner) {
				style = style.Background(tcell.ColorMaroon)
			}
			v.screen.SetContent(gc, gr, '+', nil, style)
		}
	}

	line := fmt.Sprintf(" %-*s", w-1, status)
	for i, r := range []rune(line) {
		if i >= w {
			break
		}
		v.screen.SetContent(i, h-1, r, nil, statusStyle)
	}
	v.screen.Show()
}

// Close restores the terminal.
func (v *View) Close() {
	v.screen.Fini()
}
