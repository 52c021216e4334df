package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/space-runner/internal/session"
)

const maxTextWidth = 70

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	rightStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	wrongStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	rewardStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	boxedStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	unlockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	handoffStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Blink(true)
)

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.stats != nil {
		return m.stats.View()
	}

	switch m.ctrl.State() {
	case session.StateRunning:
		return m.runningView()
	case session.StateQuiz:
		return m.quizView()
	case session.StateResult:
		return m.resultView()
	default:
		return m.lobby.view(m.config.ScreenW, m.ctrl.Loading(), m.notice, m.lobbyFooter())
	}
}

func (m Model) lobbyFooter() string {
	var parts []string
	if p := m.profile; p != nil {
		parts = append(parts, fmt.Sprintf("Pilot %s  |  %d pts  |  best streak %d  |  %d tokens",
			m.config.PlayerID, p.Points, p.MaxCorrectStreak, p.AutoWinTokens))
	} else {
		parts = append(parts, "Pilot "+m.config.PlayerID)
	}
	if n := m.ctrl.PendingCount(); n > 0 {
		parts = append(parts, noticeStyle.Render(fmt.Sprintf("%d unsaved result(s)", n)))
	}
	return strings.Join(parts, "\n")
}

// runningView draws the runner with a progress line over its HUD.
func (m Model) runningView() string {
	m.engine.Render(m.screen)
	if m.screen.Ready() {
		score := m.ctrl.Score()
		status := fmt.Sprintf(" Q %d/%d  Stars %d ", m.ctrl.QuestionIndex()+1, m.ctrl.QuestionCount(), score.PointsFromRunner)
		m.screen.DrawTextCentered(0, status)
	}
	return RenderScreen(m.screen, 1)
}

func (m Model) quizView() string {
	width := m.config.ScreenW
	if m.ctrl.HandoffRemaining() > 0 {
		var b strings.Builder
		b.WriteString(strings.Repeat("\n", max(m.config.ScreenH/2-1, 0)))
		b.WriteString(centerText(handoffStyle.Render("SEGMENT CLEAR"), width))
		b.WriteString("\n")
		b.WriteString(centerText(dimStyle.Render("incoming question..."), width))
		return b.String()
	}

	q, ok := m.ctrl.CurrentQuestion()
	if !ok {
		return ""
	}
	req := m.ctrl.Request()
	outcome, answered := m.ctrl.Outcome()
	textWidth := min(max(width-4, 20), maxTextWidth)

	var b strings.Builder
	b.WriteString("\n")
	header := fmt.Sprintf("Question %d of %d  |  %s, grade %s",
		m.ctrl.QuestionIndex()+1, m.ctrl.QuestionCount(), req.Subject, req.Grade)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(textWidth).Render(q.Text))
	b.WriteString("\n\n")

	for i, opt := range q.Options {
		line := fmt.Sprintf("%d) %s", i+1, opt)
		switch {
		case answered && i == outcome.CorrectIndex:
			b.WriteString(rightStyle.Render("✓ " + line))
		case answered && i == outcome.Chosen:
			b.WriteString(wrongStyle.Render("✗ " + line))
		case answered:
			b.WriteString(dimStyle.Render("  " + line))
		case i == m.cursor:
			b.WriteString(activeStyle.Render("> " + line))
		default:
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if answered {
		switch {
		case outcome.AutoWin:
			b.WriteString(rewardStyle.Render("Auto-win token used."))
		case outcome.Correct:
			b.WriteString(rightStyle.Render("Correct!"))
		default:
			b.WriteString(wrongStyle.Render("Not quite."))
		}
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString(lipgloss.NewStyle().Width(textWidth).Render(accentStyle.Render(q.Explanation)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Enter: continue  |  Q: quit"))
		b.WriteString("\n")
		return b.String()
	}

	score := m.ctrl.Score()
	b.WriteString(fmt.Sprintf("Streak %d  |  Tokens %d\n", score.CurrentStreak, m.ctrl.TokenBalance()))
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("1-4 or Up/Down+Enter: answer  |  X: auto-win  |  Q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) resultView() string {
	width := m.config.ScreenW
	reward := m.ctrl.Reward()
	score := m.ctrl.Score()

	var b strings.Builder
	b.WriteString("\n")
	if m.ctrl.EndReason() == session.EndCrashed {
		b.WriteString(centerText(wrongStyle.Render("C R A S H E D"), width))
	} else {
		b.WriteString(centerText(rightStyle.Render("M I S S I O N   C O M P L E T E"), width))
	}
	b.WriteString("\n\n")

	summary := fmt.Sprintf("%s\n\nCorrect answers  %d/%d\nBest streak      %d\nStars collected  %d\nTokens earned    %d",
		rewardStyle.Render(fmt.Sprintf("Total points  %d", reward.TotalPoints)),
		reward.CorrectAnswers, score.Answered, reward.MaxStreak, reward.PointsFromRunner, score.RewardTokensEarned)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, boxedStyle.Render(summary)))
	b.WriteString("\n\n")

	for _, line := range m.saveStatus() {
		b.WriteString(centerText(line, width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerText("R: Replay  |  B: Lobby  |  S: Retry save  |  Q: Quit", width)))
	b.WriteString("\n")
	return b.String()
}

// saveStatus describes where the current result stands with the store.
func (m Model) saveStatus() []string {
	switch {
	case m.store == nil:
		return []string{dimStyle.Render("Offline: results are not saved")}
	case m.submitting:
		return []string{dimStyle.Render("Saving result...")}
	case m.ctrl.PendingCount() > 0:
		msg := "Result not saved"
		if err := m.ctrl.LastError(); err != nil {
			msg += ": " + err.Error()
		}
		return []string{noticeStyle.Render(msg), dimStyle.Render("Press S to retry")}
	}

	totals, ok := m.ctrl.LastTotals()
	if !ok || m.saved != m.ctrl.SessionID() {
		return nil
	}
	lines := []string{accentStyle.Render(fmt.Sprintf("Lifetime: %d pts  |  %d answered  |  best streak %d  |  %d tokens",
		totals.Points, totals.TotalQuizzesAnswered, totals.MaxCorrectStreak, totals.AutoWinTokens))}
	for _, a := range totals.NewAchievements {
		lines = append(lines, unlockStyle.Render("Achievement unlocked: "+a.Title))
	}
	return lines
}
