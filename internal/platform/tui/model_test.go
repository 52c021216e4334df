package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/space-runner/internal/config"
	"github.com/vovakirdan/space-runner/internal/core"
	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/session"
	"github.com/vovakirdan/space-runner/internal/storage"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type staticSource struct {
	qs    []quiz.Question
	err   error
	calls int
}

func (s *staticSource) FetchQuestions(_ context.Context, _, _ string, _ int) ([]quiz.Question, error) {
	s.calls++
	return s.qs, s.err
}

func sampleQuestions() []quiz.Question {
	return []quiz.Question{
		{Text: "2 + 2 = ?", Options: []string{"3", "4", "5", "22"}, CorrectIndex: 1, Explanation: "Two pairs make four."},
		{Text: "3 * 3 = ?", Options: []string{"6", "9"}, CorrectIndex: 1},
	}
}

type fixture struct {
	clock  *testClock
	source *staticSource
}

// newTestModel builds a model with spawning disabled so segments only end on time.
func newTestModel(t *testing.T, store Store, count int) (Model, *fixture) {
	t.Helper()
	f := &fixture{
		clock:  &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		source: &staticSource{qs: sampleQuestions()},
	}
	cfg := config.DefaultGameConfig()
	cfg.Runner.Spawn = config.SpawnConfig{}
	cfg.Runner.Stars = 0

	m := NewModel(Options{
		Game:          cfg,
		Runtime:       core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 7, PlayerID: "alice"},
		Questions:     f.source,
		Store:         store,
		Subject:       "Mathematics",
		Grade:         "7",
		QuestionCount: count,
		Now:           f.clock.Now,
	})
	return m, f
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// launch presses Enter twice (focus Launch, then start) and completes the fetch.
func launch(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, enter)
	m, cmd := update(t, m, enter)
	if cmd == nil {
		t.Fatal("expected a fetch command")
	}
	if !m.Controller().Loading() {
		t.Error("controller should be loading while the fetch runs")
	}
	m, _ = update(t, m, cmd())
	return m
}

// runSegment ticks through one full runner window.
func runSegment(t *testing.T, m Model, f *fixture) (Model, tea.Cmd) {
	t.Helper()
	m, _ = update(t, m, TickMsg(f.clock.Now()))
	f.clock.Advance(30 * time.Second)
	return update(t, m, TickMsg(f.clock.Now()))
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "runner.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestModelFullSessionIsSaved(t *testing.T) {
	store := openStore(t)
	m, f := newTestModel(t, store, 1)

	m = launch(t, m)
	if got := m.Controller().State(); got != session.StateRunning {
		t.Fatalf("state after launch = %v, expected running", got)
	}
	if req := m.Controller().Request(); req.Subject != "Mathematics" || req.Grade != "7" || req.QuestionCount != 1 {
		t.Errorf("request = %+v", req)
	}

	m, _ = runSegment(t, m, f)
	if got := m.Controller().State(); got != session.StateQuiz {
		t.Fatalf("state after window = %v, expected quiz", got)
	}

	m, _ = update(t, m, keyRune('2'))
	out, answered := m.Controller().Outcome()
	if !answered || !out.Correct {
		t.Fatalf("outcome = %+v answered=%v, expected a correct answer", out, answered)
	}
	f.clock.Advance(time.Second)
	if view := m.View(); !strings.Contains(view, "Two pairs make four.") {
		t.Error("explanation should be shown after answering")
	}

	m, cmd := update(t, m, enter)
	if got := m.Controller().State(); got != session.StateResult {
		t.Fatalf("state after last question = %v, expected result", got)
	}
	if cmd == nil {
		t.Fatal("expected a submit command on entering the result screen")
	}
	m, _ = update(t, m, cmd())

	if n := m.Controller().PendingCount(); n != 0 {
		t.Errorf("pending = %d after a successful save", n)
	}
	totals, err := store.Player(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Player() failed: %v", err)
	}
	if totals.SessionsPlayed != 1 || totals.TotalCorrect != 1 || totals.Points != 20 {
		t.Errorf("stored totals = %+v", totals)
	}
	if view := m.View(); !strings.Contains(view, "Achievement unlocked") {
		t.Error("result screen should announce the first achievement")
	}

	m, _ = update(t, m, keyRune('r'))
	if got := m.Controller().State(); got != session.StateRunning {
		t.Errorf("state after replay = %v, expected running", got)
	}
	if f.source.calls != 1 {
		t.Errorf("replay refetched the pool: %d calls", f.source.calls)
	}
}

// tokenStore serves a fixed token balance and can fail player lookups.
type tokenStore struct {
	tokens    int
	playerErr error
}

func (s *tokenStore) SubmitSessionResult(_ context.Context, playerID string, _ storage.SessionResult) (storage.LifetimeTotals, error) {
	return storage.LifetimeTotals{PlayerID: playerID, AutoWinTokens: s.tokens}, nil
}

func (s *tokenStore) Player(_ context.Context, playerID string) (storage.LifetimeTotals, error) {
	if s.playerErr != nil {
		return storage.LifetimeTotals{}, s.playerErr
	}
	return storage.LifetimeTotals{PlayerID: playerID, AutoWinTokens: s.tokens}, nil
}

func (s *tokenStore) RecentSessions(context.Context, string, int) ([]storage.SessionRecord, error) {
	return nil, nil
}

func (s *tokenStore) Achievements(context.Context, string) ([]storage.Achievement, error) {
	return nil, nil
}

func (s *tokenStore) TopPlayers(context.Context, int) ([]storage.LifetimeTotals, error) {
	return nil, nil
}

func TestModelKeepsLocalBalanceWhenLookupFails(t *testing.T) {
	store := &tokenStore{tokens: 2}
	m, f := newTestModel(t, store, 1)

	m = launch(t, m)
	if got := m.Controller().TokenBalance(); got != 2 {
		t.Fatalf("TokenBalance() = %d, expected 2 from the store", got)
	}
	m, _ = runSegment(t, m, f)
	m, _ = update(t, m, keyRune('2'))
	m, cmd := update(t, m, enter)
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	m, _ = update(t, m, cmd())
	m, _ = update(t, m, keyRune('b'))

	// Focus is still on the start row, so one Enter launches.
	store.playerErr = errors.New("database locked")
	m, cmd = update(t, m, enter)
	if cmd == nil {
		t.Fatal("expected a fetch command")
	}
	m, _ = update(t, m, cmd())
	if got := m.Controller().State(); got != session.StateRunning {
		t.Fatalf("state = %v, expected running", got)
	}
	if got := m.Controller().TokenBalance(); got != 2 {
		t.Errorf("TokenBalance() = %d, expected the local 2 after a failed lookup", got)
	}
}

func TestModelFetchFailureStaysInLobby(t *testing.T) {
	m, f := newTestModel(t, nil, 1)
	f.source.err = errors.New("upstream down")

	m = launch(t, m)
	if got := m.Controller().State(); got != session.StateLobby {
		t.Fatalf("state = %v, expected lobby", got)
	}
	if m.Controller().Loading() {
		t.Error("loading flag should clear after the fetch fails")
	}
	if !strings.Contains(m.View(), "upstream down") {
		t.Error("lobby should show the fetch error")
	}
}

func TestModelEmptyPoolStaysInLobby(t *testing.T) {
	m, f := newTestModel(t, nil, 1)
	f.source.qs = []quiz.Question{{Text: "broken", Options: []string{"only one"}}}

	m = launch(t, m)
	if got := m.Controller().State(); got != session.StateLobby {
		t.Fatalf("state = %v, expected lobby", got)
	}
	if !strings.Contains(m.notice, "No questions available") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModelWithoutStoreKeepsResultPending(t *testing.T) {
	m, f := newTestModel(t, nil, 1)
	m = launch(t, m)
	m, _ = runSegment(t, m, f)
	m, _ = update(t, m, keyRune('1'))

	m, cmd := update(t, m, enter)
	if cmd != nil {
		t.Error("no submit command expected without a store")
	}
	if m.Controller().PendingCount() != 1 {
		t.Errorf("pending = %d, expected 1", m.Controller().PendingCount())
	}
	if !strings.Contains(m.View(), "Offline") {
		t.Error("result screen should say results are not saved")
	}

	m, _ = update(t, m, keyRune('b'))
	if got := m.Controller().State(); got != session.StateLobby {
		t.Errorf("state after back = %v, expected lobby", got)
	}
}

func TestModelQuizCursorAndAutoWin(t *testing.T) {
	m, f := newTestModel(t, nil, 2)
	m = launch(t, m)
	m, _ = runSegment(t, m, f)

	m, _ = update(t, m, keyRune('x'))
	if _, answered := m.Controller().Outcome(); answered {
		t.Fatal("auto-win with no tokens must not answer")
	}
	if m.notice == "" {
		t.Error("expected a notice about missing tokens")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, enter)
	out, answered := m.Controller().Outcome()
	if !answered || out.Chosen != 2 || out.Correct {
		t.Errorf("outcome = %+v, expected a wrong answer on option 3", out)
	}

	m, _ = update(t, m, enter)
	if got := m.Controller().State(); got != session.StateRunning {
		t.Errorf("state = %v, expected the second segment", got)
	}
	if got := m.Controller().DifficultyIndex(); got != 1 {
		t.Errorf("difficulty = %d, expected 1", got)
	}
}

func TestModelSteersDuringSegment(t *testing.T) {
	m, f := newTestModel(t, nil, 1)
	m = launch(t, m)

	m, _ = update(t, m, keyRune('a'))
	m, _ = update(t, m, TickMsg(f.clock.Now()))
	if lane := m.engine.State().Player.Lane; lane != 0 {
		t.Errorf("lane = %d after steering left, expected 0", lane)
	}

	// The frame is cleared after each tick.
	m, _ = update(t, m, TickMsg(f.clock.Now()))
	if lane := m.engine.State().Player.Lane; lane != 0 {
		t.Errorf("lane drifted to %d without input", lane)
	}
}

func TestModelTickIgnoredOutsideSegment(t *testing.T) {
	m, f := newTestModel(t, nil, 1)
	m, cmd := update(t, m, TickMsg(f.clock.Now()))
	if cmd == nil {
		t.Error("tick loop must keep running in the lobby")
	}
	if got := m.Controller().State(); got != session.StateLobby {
		t.Errorf("state = %v, expected lobby", got)
	}
}

func TestModelStatsBoard(t *testing.T) {
	store := openStore(t)
	m, _ := newTestModel(t, store, 1)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.stats == nil {
		t.Fatal("tab should open the stats board")
	}
	if !strings.Contains(m.View(), "STATS") {
		t.Error("stats board not rendered")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.stats != nil {
		t.Error("esc should close the board")
	}
	if cmd != nil {
		t.Error("closing the embedded board must not quit the program")
	}
}

func TestLobbyPickers(t *testing.T) {
	l := newLobby("physics", "11", 3, 30)
	if l.currentLevel().Name != "Upper secondary" || l.Grade() != "11" || l.Subject() != "Physics" {
		t.Fatalf("preselection = %s / %s / %s", l.currentLevel().Name, l.Grade(), l.Subject())
	}

	l.focus = rowCount
	l.apply(core.ActionLeft)
	l.apply(core.ActionLeft)
	l.apply(core.ActionLeft)
	if l.count != 1 {
		t.Errorf("count = %d, expected clamp at 1", l.count)
	}

	l.focus = rowLevel
	l.apply(core.ActionRight)
	if l.currentLevel().Name != "University" || l.grade != 0 || l.subject != 0 {
		t.Errorf("level change should reset grade and subject: %+v", l)
	}

	l.apply(core.ActionUp)
	if l.focus != rowStart {
		t.Errorf("focus = %d, expected wrap to the start row", l.focus)
	}
	if !l.apply(core.ActionConfirm) {
		t.Error("confirm on the start row should launch")
	}

	req := l.Request("bob")
	if req.PlayerID != "bob" || req.Grade != "University" || req.QuestionCount != 1 {
		t.Errorf("request = %+v", req)
	}
}
