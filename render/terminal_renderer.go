// Package render draws the world to a terminal. It only reads component
// columns; all reads happen under the world lock shared with the tick consumer.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/tickworld/component"
	"github.com/lixenwraith/tickworld/engine"
	"github.com/lixenwraith/tickworld/status"
)

// cell is one glyph copied out of the world for drawing outside the lock
type cell struct {
	x, y  int
	r     rune
	color tcell.Color
}

// TerminalRenderer handles all terminal rendering
type TerminalRenderer struct {
	screen    tcell.Screen
	world     *engine.World
	statusReg *status.Registry

	cells  []cell
	frames uint64
}

// NewTerminalRenderer creates a renderer drawing w onto screen
func NewTerminalRenderer(screen tcell.Screen, w *engine.World, reg *status.Registry) *TerminalRenderer {
	return &TerminalRenderer{
		screen:    screen,
		world:     w,
		statusReg: reg,
	}
}

// ArenaFor sizes the arena to the screen, reserving the bottom row for the status bar
func ArenaFor(screen tcell.Screen) component.ArenaResource {
	width, height := screen.Size()
	return component.ArenaResource{
		Width:  float64(width),
		Height: float64(max(height-1, 1)),
	}
}

// Frames returns the number of rendered frames
func (r *TerminalRenderer) Frames() uint64 { return r.frames }

// RenderFrame renders the entire frame
func (r *TerminalRenderer) RenderFrame(paused bool) {
	r.snapshot()

	defaultStyle := tcell.StyleDefault.Background(RgbBackground)
	r.screen.Fill(' ', defaultStyle)

	width, height := r.screen.Size()
	for _, c := range r.cells {
		if c.x < 0 || c.y < 0 || c.x >= width || c.y >= height-1 {
			continue
		}
		r.screen.SetContent(c.x, c.y, c.r, nil, defaultStyle.Foreground(c.color))
	}

	r.drawStatusBar(width, height, paused)
	r.screen.Show()
	r.frames++
}

// Run renders every interval until ctx is done; paused reports the driver state per frame
func (r *TerminalRenderer) Run(ctx context.Context, interval time.Duration, paused func() bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RenderFrame(paused())
		}
	}
}

// snapshot copies positions and glyphs while holding the world lock
func (r *TerminalRenderer) snapshot() {
	r.cells = r.cells[:0]
	r.world.RunSafe(func() {
		glyphs := engine.Store[component.GlyphComponent](r.world)
		entities, positions := engine.ComponentColumns[component.PositionComponent](r.world)
		for i, e := range entities {
			g, ok := glyphs.TryGet(e)
			if !ok {
				continue
			}
			r.cells = append(r.cells, cell{
				x:     int(positions[i].X),
				y:     int(positions[i].Y),
				r:     g.Rune,
				color: GlyphColor(g.Type),
			})
		}
	})
}

// drawStatusBar draws tick and world counters on the last row
func (r *TerminalRenderer) drawStatusBar(width, height int, paused bool) {
	if height < 1 {
		return
	}
	y := height - 1

	bg := RgbStatusBar
	state := "running"
	if paused {
		bg = RgbPausedBg
		state = "paused"
	}
	style := tcell.StyleDefault.Background(bg).Foreground(RgbStatusText)

	text := fmt.Sprintf(" %s | %d visible", state, len(r.cells))
	if r.statusReg != nil {
		snap := r.statusReg.Snapshot("tick.", "world.")
		text = fmt.Sprintf(" %s | tick %s | dropped %s | skipped %s | entities %s | components %s | q quit, p pause",
			state,
			orZero(snap[status.KeyTicksFired]),
			orZero(snap[status.KeyTicksDropped]),
			orZero(snap[status.KeyTicksSkipped]),
			orZero(snap[status.KeyWorldEntities]),
			orZero(snap[status.KeyWorldComponents]),
		)
	}

	x := 0
	for _, ch := range text {
		if x >= width {
			break
		}
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	for ; x < width; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
