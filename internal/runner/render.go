package runner

import (
	"fmt"
	"math"

	"github.com/vovakirdan/space-runner/internal/core"
)

// Visual characters for rendering
const (
	PlayerChar  = '▲'
	DividerChar = '┊'
	StarChar    = '·'
)

// Surface is the drawing target the engine requires before it advances.
// *core.Screen satisfies it.
type Surface interface {
	Ready() bool
}

// Render draws the segment onto dst. Row 0 is the HUD.
func (e *Engine) Render(dst *core.Screen) {
	if !dst.Ready() {
		return
	}
	dst.Clear()

	w, h := dst.Width(), dst.Height()
	laneW := float64(w) / Lanes

	for _, s := range e.state.stars {
		dst.SetColored(int(s.X*float64(w)), e.rowFor(s.Y, h), StarChar, core.ColorGray)
	}

	for lane := 1; lane < Lanes; lane++ {
		dst.DrawVLine(int(float64(lane)*laneW), 1, h-1, DividerChar, core.ColorGray)
	}

	for _, ent := range e.state.Entities {
		r, c := ent.Skin.Glyph()
		dst.SetColored(int(laneCentre(ent.Lane)*laneW), e.rowFor(ent.Position, h), r, c)
	}

	px := int(e.state.Player.RenderX * laneW)
	dst.SetColored(px, e.rowFor(e.cfg.PlayerRow, h), PlayerChar, core.ColorYellow)

	left := fmt.Sprintf(" Time: %2ds ", int(math.Ceil(e.Remaining().Seconds())))
	right := fmt.Sprintf(" Lvl: %d%% ", int(e.Level()*100))
	dst.DrawTextColored(1, 0, left, core.ColorCyan)
	dst.DrawTextColored(w-len(right)-1, 0, right, core.ColorCyan)
}

// rowFor maps a track position onto a screen row below the HUD.
// Positions outside the track land off-screen and are clipped by the screen.
func (e *Engine) rowFor(pos float64, h int) int {
	if h <= 1 {
		return 0
	}
	return 1 + int(math.Floor(pos/e.cfg.TrackLength*float64(h-1)))
}
