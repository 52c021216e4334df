// Package tui provides the Bubble Tea front-end for the runner quiz.
// It handles the terminal UI loop, input mapping, and session orchestration.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// referenceFrame is the frame length the runner's speeds are tuned for.
const referenceFrame = time.Second / 60

// maxFrameGap bounds the dt fed to the runner after a long pause
// (suspended terminal, slow SSH link).
const maxFrameGap = 250 * time.Millisecond

// TickMsg is sent to trigger a simulation tick.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends one tick after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// frameDelta converts the real time between two frames into reference frames.
// The first frame of a segment (zero prev) counts as one.
func frameDelta(prev, now time.Time) float64 {
	if prev.IsZero() {
		return 1
	}
	gap := now.Sub(prev)
	if gap < 0 {
		gap = 0
	}
	if gap > maxFrameGap {
		gap = maxFrameGap
	}
	return float64(gap) / float64(referenceFrame)
}
