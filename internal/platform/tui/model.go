package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/space-runner/internal/config"
	"github.com/vovakirdan/space-runner/internal/core"
	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/runner"
	"github.com/vovakirdan/space-runner/internal/session"
	"github.com/vovakirdan/space-runner/internal/storage"
)

const (
	fetchTimeout  = 30 * time.Second
	submitTimeout = 10 * time.Second
)

// Store is the result store the front-end talks to. *storage.Store satisfies it.
type Store interface {
	session.Submitter
	StatsSource
}

// Options configures one front-end instance.
type Options struct {
	Game          config.GameConfig
	Runtime       core.RuntimeConfig
	Questions     session.QuestionSource
	Store         Store // Nil plays without persistence
	Logger        *log.Logger
	Subject       string // Lobby preselection
	Grade         string
	QuestionCount int
	Context       context.Context  // Parent of every fetch and submit, nil means Background
	Now           func() time.Time // Nil means time.Now
}

// questionsMsg carries the result of a pool fetch.
type questionsMsg struct {
	req session.StartRequest
	qs  []quiz.Question
	err error
}

// submitMsg carries the result of delivering one session.
type submitMsg struct {
	sessionID string
	totals    storage.LifetimeTotals
	err       error
}

// profileMsg carries the player's lifetime totals.
type profileMsg struct {
	totals storage.LifetimeTotals
	err    error
}

// Model is the Bubble Tea model driving one player's sessions.
type Model struct {
	ctrl       *session.Controller
	engine     *runner.Engine
	questions  session.QuestionSource
	store      Store
	logger     *log.Logger
	ctx        context.Context
	screen     *core.Screen
	config     core.RuntimeConfig
	keyMapper  *KeyMapper
	inputFrame core.InputFrame
	lobby      lobby
	stats      *StatsModel // Non-nil while the stats board is open
	cursor     int         // Highlighted option on the question screen
	lastFrame  time.Time
	submitting bool
	saved      string // Session id of the latest delivered result
	profile    *storage.LifetimeTotals
	notice     string
	quitting   bool
}

// NewModel creates a model sitting in the lobby.
func NewModel(opts Options) Model {
	cfg := opts.Runtime
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.PlayerID == "" {
		cfg.PlayerID = core.DefaultConfig().PlayerID
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	engine := runner.New(opts.Game, cfg.Seed, now)
	deps := session.Deps{
		Questions: opts.Questions,
		Engine:    engine,
		Logger:    logger,
		Now:       now,
		Seed:      cfg.Seed,
	}
	if opts.Store != nil {
		deps.Submitter = opts.Store
	}

	count := opts.QuestionCount
	if count <= 0 {
		count = opts.Game.Session.DefaultQuestions
	}

	return Model{
		ctrl:       session.NewController(opts.Game, deps),
		engine:     engine,
		questions:  opts.Questions,
		store:      opts.Store,
		logger:     logger,
		ctx:        ctx,
		screen:     core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		config:     cfg,
		keyMapper:  NewKeyMapper(),
		inputFrame: core.NewInputFrame(),
		lobby:      newLobby(opts.Subject, opts.Grade, count, opts.Game.Session.MaxQuestions),
	}
}

// Init starts the tick loop and loads the player's profile.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.config.FrameInterval()), m.profileCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick(time.Time(msg))

	case questionsMsg:
		return m.handleQuestions(msg)

	case submitMsg:
		return m.handleSubmit(msg)

	case profileMsg:
		if msg.err == nil {
			m.profile = &msg.totals
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for the current screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.stats != nil {
		return m.updateStats(msg)
	}

	switch msg.String() {
	case "ctrl+s":
		m.saveScreenshot()
		return m, nil
	case "tab":
		if m.ctrl.State() == session.StateLobby {
			s := NewStatsModel(m.store, m.config.PlayerID, m.config.ScreenW, m.config.ScreenH)
			s.embedded = true
			m.stats = &s
			return m, nil
		}
	}

	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		if n := m.ctrl.PendingCount(); n > 0 {
			m.logger.Warn("quitting with undelivered results", "player", m.config.PlayerID, "pending", n)
		}
		m.quitting = true
		return m, tea.Quit
	}

	switch m.ctrl.State() {
	case session.StateLobby:
		return m.handleLobbyKey(action)
	case session.StateRunning:
		if action != core.ActionNone {
			m.inputFrame.Set(action)
		}
		return m, nil
	case session.StateQuiz:
		return m.handleQuizKey(action)
	case session.StateResult:
		return m.handleResultKey(action)
	}
	return m, nil
}

func (m Model) handleLobbyKey(action core.Action) (tea.Model, tea.Cmd) {
	if m.ctrl.Loading() || !m.lobby.apply(action) {
		return m, nil
	}

	req := m.lobby.Request(m.config.PlayerID)
	// With results still queued the store's balance is stale; keep the local one.
	withBalance := m.store != nil && m.ctrl.PendingCount() == 0
	if !withBalance {
		req.TokenBalance = m.ctrl.TokenBalance()
	}
	req, err := m.ctrl.BeginStart(req)
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	return m, m.fetchCmd(req, withBalance)
}

func (m Model) handleQuizKey(action core.Action) (tea.Model, tea.Cmd) {
	q, ok := m.ctrl.CurrentQuestion()
	if !ok {
		return m, nil
	}
	if _, answered := m.ctrl.Outcome(); answered {
		if action == core.ActionConfirm {
			return m.continueSession()
		}
		return m, nil
	}

	if idx, ok := action.OptionIndex(); ok {
		m.answer(idx)
		return m, nil
	}

	switch action {
	case core.ActionUp:
		m.cursor = wrap(m.cursor-1, len(q.Options))
	case core.ActionDown:
		m.cursor = wrap(m.cursor+1, len(q.Options))
	case core.ActionConfirm:
		m.answer(m.cursor)
	case core.ActionAutoWin:
		if _, err := m.ctrl.AutoWin(); errors.Is(err, quiz.ErrNoTokens) {
			m.notice = "No auto-win tokens left"
		}
	}
	return m, nil
}

func (m *Model) answer(option int) {
	if _, err := m.ctrl.Select(option); err == nil {
		m.cursor = option
		m.notice = ""
	}
}

func (m Model) continueSession() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Continue(); err != nil {
		return m, nil
	}
	m.notice = ""
	m.cursor = 0
	m.lastFrame = time.Time{}
	m.inputFrame.Clear()
	if m.ctrl.State() == session.StateResult {
		cmd := m.submitNext()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResultKey(action core.Action) (tea.Model, tea.Cmd) {
	switch action {
	case core.ActionRestart:
		if err := m.ctrl.Replay(); err == nil {
			m.notice = ""
			m.lastFrame = time.Time{}
			m.inputFrame.Clear()
		}
	case core.ActionBack:
		if err := m.ctrl.ToLobby(); err == nil {
			m.notice = ""
		}
	case core.ActionRetry:
		cmd := m.submitNext()
		return m, cmd
	}
	return m, nil
}

// handleResize processes window resize events.
// The runner works in logical units, so a running segment survives a resize.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.config = m.config.WithSize(msg.Width, msg.Height)
	m.screen.Resize(msg.Width, msg.Height)

	if m.stats != nil {
		next, cmd := m.stats.Update(msg)
		if s, ok := next.(StatsModel); ok {
			m.stats = &s
		}
		return m, cmd
	}
	return m, nil
}

// handleTick advances the runner while a segment is live.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	next := tickCmd(m.config.FrameInterval())
	if m.ctrl.State() != session.StateRunning {
		m.lastFrame = time.Time{}
		m.inputFrame.Clear()
		return m, next
	}

	dt := frameDelta(m.lastFrame, now)
	m.lastFrame = now
	out := m.ctrl.Tick(m.screen, dt, IntentFor(m.inputFrame))
	m.inputFrame.Clear()

	switch out.State {
	case session.StateQuiz:
		m.cursor = 0
		m.notice = ""
	case session.StateResult:
		submit := m.submitNext()
		return m, tea.Batch(next, submit)
	}
	return m, next
}

func (m Model) handleQuestions(msg questionsMsg) (tea.Model, tea.Cmd) {
	if err := m.ctrl.FinishStart(msg.req, msg.qs, msg.err); err != nil {
		switch {
		case errors.Is(err, quiz.ErrEmptyPool):
			m.notice = fmt.Sprintf("No questions available for %s, grade %s", msg.req.Subject, msg.req.Grade)
		case msg.err != nil:
			m.notice = "Could not load questions: " + msg.err.Error()
		default:
			m.notice = err.Error()
		}
		return m, nil
	}
	m.notice = ""
	m.lastFrame = time.Time{}
	m.inputFrame.Clear()
	return m, nil
}

func (m Model) handleSubmit(msg submitMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if err := m.ctrl.FinishSubmit(msg.sessionID, msg.totals, msg.err); err != nil {
		return m, nil
	}
	m.saved = msg.sessionID
	totals := msg.totals
	m.profile = &totals
	cmd := m.submitNext()
	return m, cmd
}

func (m Model) updateStats(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.stats.Update(msg)
	s, ok := next.(StatsModel)
	if !ok {
		return m, cmd
	}
	switch {
	case s.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case s.IsGoingBack():
		m.stats = nil
		return m, nil
	}
	m.stats = &s
	return m, cmd
}

// fetchCmd loads the pool off the UI loop. With withBalance it also reads
// the player's token balance from the store, falling back to the local one.
func (m Model) fetchCmd(req session.StartRequest, withBalance bool) tea.Cmd {
	questions, store, logger, parent := m.questions, m.store, m.logger, m.ctx
	local := m.ctrl.TokenBalance()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()

		if withBalance {
			totals, err := store.Player(ctx, req.PlayerID)
			if err != nil {
				logger.Warn("could not read token balance, keeping the local one", "player", req.PlayerID, "err", err)
				req.TokenBalance = local
			} else {
				req.TokenBalance = totals.AutoWinTokens
			}
		}
		qs, err := questions.FetchQuestions(ctx, req.Subject, req.Grade, req.QuestionCount)
		return questionsMsg{req: req, qs: qs, err: err}
	}
}

// submitNext delivers the oldest pending result, one at a time.
func (m *Model) submitNext() tea.Cmd {
	if m.store == nil || m.submitting {
		return nil
	}
	sub, ok := m.ctrl.PendingSubmission()
	if !ok {
		return nil
	}
	m.submitting = true

	store, parent := m.store, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, submitTimeout)
		defer cancel()
		totals, err := store.SubmitSessionResult(ctx, sub.PlayerID, sub.Result)
		return submitMsg{sessionID: sub.Result.SessionID, totals: totals, err: err}
	}
}

func (m Model) profileCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store, player, parent := m.store, m.config.PlayerID, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, statsQueryTimeout)
		defer cancel()
		totals, err := store.Player(ctx, player)
		return profileMsg{totals: totals, err: err}
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.engine.Render(m.screen)

	dir := filepath.Join(os.Getenv("HOME"), ".spacerunner", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("runner_%s.txt", timestamp))

	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		m.logger.Warn("screenshot failed", "path", path, "err", err)
	}
}

// Controller returns the session controller driven by the model.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Run starts the Bubble Tea program with a fresh model.
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err := p.Run()
	return err
}
