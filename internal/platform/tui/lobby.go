package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/space-runner/internal/core"
	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/session"
)

// Lobby rows, top to bottom.
const (
	rowLevel = iota
	rowGrade
	rowSubject
	rowCount
	rowStart
	lobbyRows
)

// lobby holds the pickers shown before a session.
type lobby struct {
	focus    int
	level    int
	grade    int
	subject  int
	count    int
	maxCount int
}

// newLobby creates pickers preselected to subject and grade when they
// appear in the catalogue.
func newLobby(subject, grade string, count, maxCount int) lobby {
	if maxCount <= 0 {
		maxCount = 30
	}
	l := lobby{count: core.Clamp(count, 1, maxCount), maxCount: maxCount}
	for li, lv := range quiz.Catalogue {
		for gi, g := range lv.Grades {
			if g == grade {
				l.level, l.grade = li, gi
			}
		}
	}
	for si, s := range quiz.Catalogue[l.level].Subjects() {
		if strings.EqualFold(s, subject) {
			l.subject = si
		}
	}
	return l
}

func (l lobby) currentLevel() quiz.Level { return quiz.Catalogue[l.level] }

// Grade returns the selected grade.
func (l lobby) Grade() string { return l.currentLevel().Grades[l.grade] }

// Subject returns the selected subject.
func (l lobby) Subject() string { return l.currentLevel().Subjects()[l.subject] }

// Request builds the start request for player.
func (l lobby) Request(playerID string) session.StartRequest {
	return session.StartRequest{
		Subject:       l.Subject(),
		Grade:         l.Grade(),
		QuestionCount: l.count,
		PlayerID:      playerID,
	}
}

// apply moves the focus or changes the focused picker.
// It reports true when the player confirmed the start row.
func (l *lobby) apply(a core.Action) bool {
	switch a {
	case core.ActionUp:
		l.focus = (l.focus + lobbyRows - 1) % lobbyRows
	case core.ActionDown:
		l.focus = (l.focus + 1) % lobbyRows
	case core.ActionLeft:
		l.step(-1)
	case core.ActionRight:
		l.step(1)
	case core.ActionConfirm:
		if l.focus == rowStart {
			return true
		}
		l.focus = rowStart
	}
	return false
}

func (l *lobby) step(d int) {
	switch l.focus {
	case rowLevel:
		l.level = wrap(l.level+d, len(quiz.Catalogue))
		l.grade, l.subject = 0, 0
	case rowGrade:
		l.grade = wrap(l.grade+d, len(l.currentLevel().Grades))
	case rowSubject:
		l.subject = wrap(l.subject+d, len(l.currentLevel().Subjects()))
	case rowCount:
		l.count = core.Clamp(l.count+d, 1, l.maxCount)
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// view renders the lobby. notice is shown under the pickers.
func (l lobby) view(width int, loading bool, notice, footer string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("S P A C E   R U N N E R"), width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Dodge the rocks, grab the stars, answer the questions", width))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Level", l.currentLevel().Name},
		{"Grade", l.Grade()},
		{"Subject", l.Subject()},
		{"Questions", fmt.Sprintf("%d", l.count)},
	}
	for i, r := range rows {
		line := fmt.Sprintf("%-10s < %s >", r.label, r.value)
		if i == l.focus {
			b.WriteString(centerText(activeStyle.Render("> "+line), width))
		} else {
			b.WriteString(centerText("  "+line, width))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	start := "[ Launch ]"
	if loading {
		start = "Loading questions..."
	}
	if l.focus == rowStart {
		b.WriteString(centerText(activeStyle.Render("> "+start), width))
	} else {
		b.WriteString(centerText("  "+start, width))
	}
	b.WriteString("\n\n")

	if notice != "" {
		b.WriteString(centerText(noticeStyle.Render(notice), width))
		b.WriteString("\n\n")
	}
	if footer != "" {
		for _, line := range strings.Split(footer, "\n") {
			b.WriteString(centerText(line, width))
			b.WriteString("\n")
		}
	}

	controls := "Up/Down: Navigate  |  Left/Right: Change  |  Enter: Launch  |  Tab: Stats  |  Q: Quit"
	b.WriteString(dimStyle.Render(centerText(controls, width)))
	b.WriteString("\n")

	return b.String()
}

// centerText centers text within given width.
// Width is measured in cells so styled text centres correctly.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
