// Package session drives one player's play-through: the lobby, the timed
// runner segments, the question after each segment and the final result.
//
// The controller is single-threaded. Network work (fetching the pool,
// submitting the result) only happens at the Lobby and Result boundaries;
// callers that want it off their loop use the Begin/Finish pairs.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/space-runner/internal/config"
	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/runner"
	"github.com/vovakirdan/space-runner/internal/scoring"
	"github.com/vovakirdan/space-runner/internal/storage"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state. Nothing changes.
	ErrInvalidTransition = errors.New("session: invalid transition")
	// ErrNothingPending is returned by Submit when every result has been delivered.
	ErrNothingPending = errors.New("session: no pending result")
	// ErrNoSubmitter is returned by Submit when no store is configured.
	ErrNoSubmitter = errors.New("session: no result store")
)

// State is the controller's mode.
type State int

const (
	StateLobby State = iota
	StateRunning
	StateQuiz
	StateResult
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "lobby"
	case StateRunning:
		return "running"
	case StateQuiz:
		return "quiz"
	case StateResult:
		return "result"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EndReason tells how a session reached Result.
type EndReason int

const (
	EndNone      EndReason = iota
	EndCompleted           // Every question answered
	EndCrashed             // Hazard hit during a runner segment
)

func (r EndReason) String() string {
	switch r {
	case EndCompleted:
		return "completed"
	case EndCrashed:
		return "crashed"
	default:
		return "none"
	}
}

// QuestionSource supplies the pool. registry.Provider satisfies it.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error)
}

// Submitter persists a finished session. *storage.Store satisfies it.
type Submitter interface {
	SubmitSessionResult(ctx context.Context, playerID string, r storage.SessionResult) (storage.LifetimeTotals, error)
}

// Runner is the arcade segment the controller drives. *runner.Engine satisfies it.
type Runner interface {
	Reset(difficultyIndex int)
	Tick(surface runner.Surface, dt float64, intent runner.Intent) runner.TickResult
}

// Deps are the controller's collaborators. Questions is required.
type Deps struct {
	Questions QuestionSource
	Submitter Submitter
	Engine    Runner // Nil builds a runner.Engine from the config
	Logger    *log.Logger
	Now       func() time.Time
	NewID     func() string // Session id generator, nil means uuid
	Seed      int64
}

// StartRequest describes the session the player picked in the lobby.
type StartRequest struct {
	Subject       string
	Grade         string
	QuestionCount int
	PlayerID      string
	TokenBalance  int // Auto-win tokens the store currently holds for the player
}

// Submission is a finished session waiting to be delivered.
type Submission struct {
	PlayerID string
	Result   storage.SessionResult
}

// TickOutcome is the result of one controller tick.
type TickOutcome struct {
	runner.TickResult
	State   State // State after the tick
	Ignored bool  // Not running; nothing happened
}

// Controller is the session state machine.
type Controller struct {
	cfg       config.GameConfig
	questions QuestionSource
	submitter Submitter
	engine    Runner
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	state     State
	loading   bool
	settled   bool // The store's balance arrived while a fetch was in flight
	req       StartRequest
	pool      *quiz.Pool
	index     int
	agg       *scoring.Aggregator
	presenter *quiz.Presenter
	wallet    *quiz.Wallet

	sessionID  string
	startedAt  time.Time
	spentStart int
	quizAt     time.Time
	endReason  EndReason
	lastErr    error

	pending    []Submission
	lastTotals *storage.LifetimeTotals
}

// NewController creates a controller in the Lobby.
func NewController(cfg config.GameConfig, deps Deps) *Controller {
	c := &Controller{
		cfg:       cfg,
		questions: deps.Questions,
		submitter: deps.Submitter,
		engine:    deps.Engine,
		logger:    deps.Logger,
		now:       deps.Now,
		newID:     deps.NewID,
		state:     StateLobby,
		wallet:    quiz.NewWallet(0),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.New().String() }
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.engine == nil {
		c.engine = runner.New(cfg, deps.Seed, c.now)
	}
	c.agg = scoring.NewAggregator(cfg.Scoring)
	c.presenter = quiz.NewPresenter(c.agg, c.wallet)
	return c
}

// Start fetches the pool and begins the first runner segment.
// On failure the controller stays in the Lobby with LastError set.
func (c *Controller) Start(ctx context.Context, req StartRequest) error {
	req, err := c.BeginStart(req)
	if err != nil {
		return err
	}
	qs, err := c.questions.FetchQuestions(ctx, req.Subject, req.Grade, req.QuestionCount)
	return c.FinishStart(req, qs, err)
}

// BeginStart validates req and marks a fetch in flight. The returned request
// has its defaults filled in and must be passed to FinishStart.
func (c *Controller) BeginStart(req StartRequest) (StartRequest, error) {
	if c.state != StateLobby || c.loading {
		return req, ErrInvalidTransition
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return req, fmt.Errorf("session: subject is required")
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = c.cfg.Session.DefaultQuestions
	}
	if maxQ := c.cfg.Session.MaxQuestions; maxQ > 0 && req.QuestionCount > maxQ {
		req.QuestionCount = maxQ
	}
	if req.QuestionCount <= 0 {
		req.QuestionCount = 1
	}
	c.loading = true
	c.settled = false
	c.lastErr = nil
	return req, nil
}

// FinishStart completes a fetch started with BeginStart.
func (c *Controller) FinishStart(req StartRequest, qs []quiz.Question, fetchErr error) error {
	if !c.loading || c.state != StateLobby {
		return ErrInvalidTransition
	}
	c.loading = false

	if fetchErr == nil {
		var dropped int
		qs, dropped = quiz.Filter(qs)
		if dropped > 0 {
			c.logger.Warn("dropped invalid questions", "dropped", dropped)
		}
	}
	var pool *quiz.Pool
	if fetchErr == nil {
		pool, fetchErr = quiz.NewPool(qs)
	}
	if fetchErr != nil {
		c.lastErr = fetchErr
		c.logger.Error("question fetch failed", "subject", req.Subject, "grade", req.Grade, "err", fetchErr)
		return fmt.Errorf("session: fetch questions: %w", fetchErr)
	}

	c.req = req
	c.pool = pool
	if !c.settled {
		c.wallet.Settle(req.TokenBalance)
	}
	c.begin()
	c.logger.Info("session started", "session", c.sessionID, "subject", req.Subject, "grade", req.Grade,
		"questions", req.QuestionCount, "pool", pool.Len())
	return nil
}

// begin resets per-session state and enters Running at question 0.
func (c *Controller) begin() {
	c.agg = scoring.NewAggregator(c.cfg.Scoring)
	c.presenter.SetRecorder(c.agg)
	c.presenter.Clear()
	c.index = 0
	c.sessionID = c.newID()
	c.startedAt = c.now()
	c.spentStart = c.wallet.Spent()
	c.endReason = EndNone
	c.engine.Reset(c.index)
	c.state = StateRunning
}

// Tick advances the runner. It does nothing unless the state is Running,
// so a tick that arrives after a transition cannot touch the new state.
func (c *Controller) Tick(surface runner.Surface, dt float64, intent runner.Intent) TickOutcome {
	if c.state != StateRunning {
		return TickOutcome{State: c.state, Ignored: true}
	}

	res := c.engine.Tick(surface, dt, intent)
	for _, v := range res.ScoreDeltas {
		c.agg.OnRunnerCollectible(v)
	}

	switch {
	case res.HazardHit:
		c.finish(EndCrashed)
	case res.ElapsedExceeded:
		c.state = StateQuiz
		c.quizAt = c.now()
		c.presenter.Present(c.pool.At(c.index))
		c.logger.Debug("segment complete", "question", c.index)
	}
	return TickOutcome{TickResult: res, State: c.state}
}

// Select answers the current question.
func (c *Controller) Select(option int) (quiz.Outcome, error) {
	if c.state != StateQuiz {
		return quiz.Outcome{}, ErrInvalidTransition
	}
	return c.presenter.Select(option)
}

// AutoWin spends a token to answer the current question correctly.
func (c *Controller) AutoWin() (quiz.Outcome, error) {
	if c.state != StateQuiz {
		return quiz.Outcome{}, ErrInvalidTransition
	}
	out, err := c.presenter.ConsumeAutoWin()
	if err == nil {
		c.logger.Info("auto-win token spent", "session", c.sessionID, "question", c.index, "balance", c.wallet.Balance())
	}
	return out, err
}

// Continue leaves an answered question: the next segment starts, or the
// session ends after the last question.
func (c *Controller) Continue() error {
	if c.state != StateQuiz || !c.presenter.Answered() {
		return ErrInvalidTransition
	}
	c.presenter.Clear()
	c.index++
	if c.index >= c.req.QuestionCount {
		c.finish(EndCompleted)
		return nil
	}
	c.engine.Reset(c.index)
	c.state = StateRunning
	return nil
}

// Replay starts a new session with the same pool and settings.
func (c *Controller) Replay() error {
	if c.state != StateResult || c.pool == nil {
		return ErrInvalidTransition
	}
	c.begin()
	c.logger.Info("session replayed", "session", c.sessionID)
	return nil
}

// ToLobby returns to the Lobby. Undelivered results stay pending.
func (c *Controller) ToLobby() error {
	if c.state != StateResult && c.state != StateLobby {
		return ErrInvalidTransition
	}
	c.state = StateLobby
	c.pool = nil
	c.index = 0
	c.endReason = EndNone
	c.presenter.Clear()
	return nil
}

// finish enters Result and queues the session for submission.
func (c *Controller) finish(reason EndReason) {
	c.state = StateResult
	c.endReason = reason

	st := c.agg.State()
	reward := c.agg.FinalReward()
	c.pending = append(c.pending, Submission{PlayerID: c.req.PlayerID, Result: storage.SessionResult{
		SessionID:         c.sessionID,
		Subject:           c.req.Subject,
		Grade:             c.req.Grade,
		QuestionsAnswered: st.Answered,
		TotalPointsEarned: reward.TotalPoints,
		MaxStreak:         reward.MaxStreak,
		CorrectAnswers:    reward.CorrectAnswers,
		PointsFromRunner:  reward.PointsFromRunner,
		TokensEarned:      st.RewardTokensEarned,
		TokensSpent:       c.wallet.Spent() - c.spentStart,
		EndReason:         reason.String(),
		Duration:          c.now().Sub(c.startedAt),
	}})
	c.logger.Info("session finished", "session", c.sessionID, "reason", reason,
		"points", reward.TotalPoints, "correct", reward.CorrectAnswers, "answered", st.Answered)
}

// Submit delivers pending results in order. It stops at the first failure
// and leaves that result pending for a retry.
func (c *Controller) Submit(ctx context.Context) (storage.LifetimeTotals, error) {
	if c.submitter == nil {
		return storage.LifetimeTotals{}, ErrNoSubmitter
	}
	if len(c.pending) == 0 {
		return storage.LifetimeTotals{}, ErrNothingPending
	}

	var totals storage.LifetimeTotals
	for len(c.pending) > 0 {
		sub := c.pending[0]
		var submitErr error
		totals, submitErr = c.submitter.SubmitSessionResult(ctx, sub.PlayerID, sub.Result)
		if err := c.FinishSubmit(sub.Result.SessionID, totals, submitErr); err != nil {
			return storage.LifetimeTotals{}, err
		}
	}
	return totals, nil
}

// PendingSubmission returns the next result awaiting delivery.
func (c *Controller) PendingSubmission() (Submission, bool) {
	if len(c.pending) == 0 {
		return Submission{}, false
	}
	return c.pending[0], true
}

// PendingCount returns how many results await delivery.
func (c *Controller) PendingCount() int {
	return len(c.pending)
}

// FinishSubmit records the outcome of delivering the result with sessionID.
// A failure keeps it pending and is returned wrapped.
func (c *Controller) FinishSubmit(sessionID string, totals storage.LifetimeTotals, submitErr error) error {
	if submitErr != nil {
		c.lastErr = submitErr
		c.logger.Error("result submission failed", "session", sessionID, "err", submitErr)
		return fmt.Errorf("session: submit result: %w", submitErr)
	}
	for i, sub := range c.pending {
		if sub.Result.SessionID == sessionID {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	c.lastErr = nil
	c.lastTotals = &totals

	// The store's balance becomes authoritative once nothing local is in flight.
	if len(c.pending) == 0 && (c.state == StateResult || c.state == StateLobby) {
		c.wallet.Settle(totals.AutoWinTokens)
		c.spentStart = 0
		c.settled = c.loading
	}
	for _, a := range totals.NewAchievements {
		c.logger.Info("achievement unlocked", "player", totals.PlayerID, "achievement", a.ID)
	}
	return nil
}

// SessionID returns the id of the current or last session.
func (c *Controller) SessionID() string { return c.sessionID }

// State returns the current mode.
func (c *Controller) State() State { return c.state }

// Loading reports whether a pool fetch is in flight.
func (c *Controller) Loading() bool { return c.loading }

// QuestionIndex returns the zero-based index of the current question.
func (c *Controller) QuestionIndex() int { return c.index }

// QuestionCount returns the number of questions in the session.
func (c *Controller) QuestionCount() int { return c.req.QuestionCount }

// DifficultyIndex returns the runner difficulty. It equals the question
// index, so it never decreases within a session.
func (c *Controller) DifficultyIndex() int { return c.index }

// CurrentQuestion returns the active question while in Quiz.
func (c *Controller) CurrentQuestion() (quiz.Question, bool) {
	if c.state != StateQuiz {
		return quiz.Question{}, false
	}
	return c.presenter.Question()
}

// Outcome returns the answer to the current question, if given.
func (c *Controller) Outcome() (quiz.Outcome, bool) {
	return c.presenter.Outcome()
}

// Score returns the session score so far.
func (c *Controller) Score() scoring.ScoreState { return c.agg.State() }

// Reward returns the end-of-session reward for the current score.
func (c *Controller) Reward() scoring.Reward { return c.agg.FinalReward() }

// EndReason returns how the session ended, or EndNone.
func (c *Controller) EndReason() EndReason { return c.endReason }

// LastError returns the most recent fetch or submit failure.
func (c *Controller) LastError() error { return c.lastErr }

// TokenBalance returns the local mirror of the auto-win balance.
func (c *Controller) TokenBalance() int { return c.wallet.Balance() }

// LastTotals returns the totals from the latest successful submission.
func (c *Controller) LastTotals() (storage.LifetimeTotals, bool) {
	if c.lastTotals == nil {
		return storage.LifetimeTotals{}, false
	}
	return *c.lastTotals, true
}

// Request returns the settings of the current or last session.
func (c *Controller) Request() StartRequest { return c.req }

// HandoffRemaining is the pause shown between a finished segment and its
// question. Answers are accepted regardless; the delay is presentational.
func (c *Controller) HandoffRemaining() time.Duration {
	if c.state != StateQuiz {
		return 0
	}
	delay := time.Duration(c.cfg.Session.HandoffDelayMilli) * time.Millisecond
	if left := c.quizAt.Add(delay).Sub(c.now()); left > 0 {
		return left
	}
	return 0
}
