package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/space-runner/internal/storage"
)

// Stats board layout constants
const (
	minWidthForSidebar = 80  // Minimum width to show the tab sidebar
	sidebarWidth       = 24  // Width of the tab sidebar
	maxRows            = 100 // Max rows to load per tab
	statsQueryTimeout  = 3 * time.Second
)

// StatsSource is the read side of the result store. *storage.Store satisfies it.
type StatsSource interface {
	Player(ctx context.Context, playerID string) (storage.LifetimeTotals, error)
	RecentSessions(ctx context.Context, playerID string, limit int) ([]storage.SessionRecord, error)
	Achievements(ctx context.Context, playerID string) ([]storage.Achievement, error)
	TopPlayers(ctx context.Context, limit int) ([]storage.LifetimeTotals, error)
}

type statsTab int

const (
	tabSessions statsTab = iota
	tabAchievements
	tabLeaderboard
	statsTabCount
)

func (t statsTab) String() string {
	switch t {
	case tabSessions:
		return "Recent sessions"
	case tabAchievements:
		return "Achievements"
	case tabLeaderboard:
		return "Leaderboard"
	default:
		return "?"
	}
}

// StatsKeyMap defines the key bindings for the stats board.
type StatsKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k StatsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.PrevTab, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k StatsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Back, k.Quit},
	}
}

// DefaultStatsKeyMap returns default key bindings.
func DefaultStatsKeyMap() StatsKeyMap {
	return StatsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "prev tab"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev tab"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// StatsModel is the Bubble Tea model for the stats board.
type StatsModel struct {
	source      StatsSource
	playerID    string
	tab         statsTab
	totals      storage.LifetimeTotals
	rows        []table.Row
	loadErr     error
	table       table.Model
	help        help.Model
	keys        StatsKeyMap
	width       int
	height      int
	embedded    bool // Back returns control to the parent instead of quitting
	quitting    bool
	goingBack   bool
	showSidebar bool
}

// NewStatsModel creates a stats board for playerID.
func NewStatsModel(source StatsSource, playerID string, width, height int) StatsModel {
	h := help.New()
	h.ShowAll = false

	m := StatsModel{
		source:      source,
		playerID:    playerID,
		keys:        DefaultStatsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *StatsModel) columns() []table.Column {
	switch m.tab {
	case tabAchievements:
		return []table.Column{
			{Title: "Achievement", Width: 24},
			{Title: "Unlocked", Width: 16},
		}
	case tabLeaderboard:
		return []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Player", Width: 16},
			{Title: "Points", Width: 8},
			{Title: "Best", Width: 6},
		}
	default:
		return []table.Column{
			{Title: "Date", Width: 13},
			{Title: "Subject", Width: 16},
			{Title: "Score", Width: 7},
			{Title: "Right", Width: 7},
			{Title: "End", Width: 10},
		}
	}
}

// createTable creates a new table with columns for the current tab.
func (m *StatsModel) createTable() table.Model {
	height := m.height - 8 // Leave room for header, help, and margins
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Table styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load queries the source for the current tab.
func (m *StatsModel) load() {
	m.rows = nil
	m.loadErr = nil
	if m.source == nil {
		m.updateTableRows()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsQueryTimeout)
	defer cancel()

	if totals, err := m.source.Player(ctx, m.playerID); err == nil {
		m.totals = totals
	}

	switch m.tab {
	case tabSessions:
		recs, err := m.source.RecentSessions(ctx, m.playerID, maxRows)
		m.loadErr = err
		for _, r := range recs {
			m.rows = append(m.rows, table.Row{
				r.CreatedAt.Format("Jan 02 15:04"),
				r.Subject,
				fmt.Sprintf("%d", r.TotalPoints),
				fmt.Sprintf("%d/%d", r.CorrectAnswers, r.QuestionsAnswered),
				r.EndReason,
			})
		}
	case tabAchievements:
		as, err := m.source.Achievements(ctx, m.playerID)
		m.loadErr = err
		for _, a := range as {
			m.rows = append(m.rows, table.Row{a.Title, a.UnlockedAt.Format("Jan 02 15:04")})
		}
	case tabLeaderboard:
		top, err := m.source.TopPlayers(ctx, maxRows)
		m.loadErr = err
		for i, p := range top {
			m.rows = append(m.rows, table.Row{
				fmt.Sprintf("#%d", i+1),
				p.PlayerID,
				fmt.Sprintf("%d", p.Points),
				fmt.Sprintf("%d", p.MaxCorrectStreak),
			})
		}
	}
	m.updateTableRows()
}

// updateTableRows updates the table with the loaded rows.
func (m *StatsModel) updateTableRows() {
	m.table.SetRows(m.rows)
	m.table.GotoTop()
}

func (m *StatsModel) switchTab(d int) {
	m.tab = statsTab(wrap(int(m.tab)+d, int(statsTabCount)))
	// Columns change per tab, so rows must be cleared before the swap.
	m.table.SetRows(nil)
	m.table.SetColumns(m.columns())
	m.load()
}

// Init initializes the stats model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the stats board.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			if m.embedded {
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.Right):
			m.switchTab(1)
			return m, nil

		case key.Matches(msg, m.keys.PrevTab), key.Matches(msg, m.keys.Left):
			m.switchTab(-1)
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			// Pass to table for scrolling
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the stats board.
func (m StatsModel) View() string {
	if m.quitting || (m.goingBack && !m.embedded) {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := fmt.Sprintf("STATS - %s - %s", m.playerID, m.tab)
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if m.showSidebar {
		b.WriteString(m.renderWideLayout())
	} else {
		b.WriteString(m.renderNarrowLayout())
	}

	// Help bar
	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWideLayout renders the board with a sidebar for tabs and totals.
func (m StatsModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Views\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for t := range statsTabCount {
		cursor := "  "
		style := lipgloss.NewStyle()
		if t == m.tab {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}
		sidebar.WriteString(style.Render(cursor + t.String()))
		sidebar.WriteString("\n")
	}

	sidebar.WriteString("\n")
	sidebar.WriteString(m.renderTotals())

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(sidebar.String()), "  ", tableStyle.Render(m.renderTableContent()))
}

// renderNarrowLayout renders the board with tabs above the table.
func (m StatsModel) renderNarrowLayout() string {
	var b strings.Builder

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, 0, statsTabCount)
	for t := range statsTabCount {
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(" "+t.String()+" "))
		}
	}

	tabLine := strings.Join(tabs, " ")
	if lipgloss.Width(tabLine) > m.width-4 {
		tabLine = fmt.Sprintf("< %s >", m.tab)
	}
	b.WriteString(centerText(tabLine, m.width))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, tableStyle.Render(m.renderTableContent())))

	return b.String()
}

func (m StatsModel) renderTotals() string {
	t := m.totals
	return fmt.Sprintf("Points   %d\nAnswered %d\nCorrect  %d\nBest     %d\nTokens   %d\nSessions %d",
		t.Points, t.TotalQuizzesAnswered, t.TotalCorrect, t.MaxCorrectStreak, t.AutoWinTokens, t.SessionsPlayed)
}

// renderTableContent renders the table or an empty message.
func (m StatsModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.source == nil:
		return emptyStyle.Render("No database configured.")
	case m.loadErr != nil:
		return emptyStyle.Render("Could not load stats:\n" + m.loadErr.Error())
	case len(m.rows) == 0:
		return emptyStyle.Render("Nothing recorded yet.\nFinish a run to fill this board!")
	}

	return m.table.View()
}

// IsGoingBack returns true if user wants to go back.
func (m StatsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m StatsModel) IsQuitting() bool {
	return m.quitting
}

// RunStatsBoard runs the stats board as its own program.
func RunStatsBoard(source StatsSource, playerID string, width, height int) error {
	p := tea.NewProgram(
		NewStatsModel(source, playerID, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
