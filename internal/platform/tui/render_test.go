package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/space-runner/internal/core"
)

func TestRenderScreenKeepsLayout(t *testing.T) {
	s := core.NewScreen(12, 3)
	s.DrawTextColored(1, 0, "Time: 30s", core.ColorCyan)
	s.SetColored(5, 2, '▲', core.ColorYellow)
	s.SetColored(2, 1, '·', core.ColorGray)

	// Tests run without a terminal, so styles render as plain text.
	if got, want := RenderScreen(s, 1), s.String(); got != want {
		t.Errorf("RenderScreen() =\n%q\nexpected\n%q", got, want)
	}
}

func TestHUDRowsAreBarred(t *testing.T) {
	if bg := styleFor(core.ColorCyan, true).GetBackground(); bg != hudBackground {
		t.Errorf("HUD background = %v, expected %v", bg, hudBackground)
	}
	if bg := styleFor(core.ColorCyan, false).GetBackground(); bg != (lipgloss.NoColor{}) {
		t.Errorf("track cell background = %v, expected none", bg)
	}
	if fg := styleFor(core.Color(250), false).GetForeground(); fg != (lipgloss.NoColor{}) {
		t.Errorf("unknown colour should fall back to the default style, got %v", fg)
	}
}
