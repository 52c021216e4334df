// Package storage provides SQLite-based persistence for lifetime player
// totals, finished sessions and unlocked achievements.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection. It is the sole authority
// for lifetime totals, token balance and achievements.
type Store struct {
	db *sql.DB
}

// SessionResult is what a finished session reports.
type SessionResult struct {
	SessionID         string // Unique per session; a resubmission is not applied twice
	Subject           string
	Grade             string
	QuestionsAnswered int
	TotalPointsEarned int
	MaxStreak         int // Best streak within the session
	CorrectAnswers    int
	PointsFromRunner  int
	TokensEarned      int // Auto-win tokens the session's correct answers earned
	TokensSpent       int // Auto-win tokens used during the session
	EndReason         string
	Duration          time.Duration
}

// LifetimeTotals are the authoritative per-player counters.
type LifetimeTotals struct {
	PlayerID             string
	Points               int
	TotalQuizzesAnswered int
	TotalCorrect         int
	MaxCorrectStreak     int
	AutoWinTokens        int
	SessionsPlayed       int
	NewAchievements      []Achievement // Unlocked by the submission that returned these totals
}

// Achievement is an unlocked milestone.
type Achievement struct {
	ID         string
	Title      string
	UnlockedAt time.Time
}

// SessionRecord is a stored session row.
type SessionRecord struct {
	ID                int64
	SessionID         string
	PlayerID          string
	Subject           string
	Grade             string
	QuestionsAnswered int
	CorrectAnswers    int
	TotalPoints       int
	MaxStreak         int
	TokensSpent       int
	EndReason         string
	DurationSecs      int
	CreatedAt         time.Time
}

// ErrInvalidResult is returned for a submission with impossible counters.
var ErrInvalidResult = errors.New("storage: invalid session result")

// quizMilestones are the lifetime answered-question counts that unlock an achievement.
var quizMilestones = []int{5, 10, 25, 50, 100, 150}

const firstQuizID = "first_quiz"

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY inside transactions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			points INTEGER NOT NULL DEFAULT 0,
			total_quizzes_answered INTEGER NOT NULL DEFAULT 0,
			total_correct INTEGER NOT NULL DEFAULT 0,
			max_correct_streak INTEGER NOT NULL DEFAULT 0,
			auto_win_tokens INTEGER NOT NULL DEFAULT 0,
			sessions_played INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			player_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			grade TEXT NOT NULL,
			questions_answered INTEGER NOT NULL,
			correct_answers INTEGER NOT NULL,
			total_points INTEGER NOT NULL,
			max_streak INTEGER NOT NULL,
			tokens_spent INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_player ON sessions(player_id, id DESC);

		CREATE TABLE IF NOT EXISTS achievements (
			player_id TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			title TEXT NOT NULL,
			unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(player_id, achievement_id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Validate rejects results whose counters cannot come from a real session.
func (r SessionResult) Validate() error {
	switch {
	case r.SessionID == "":
		return fmt.Errorf("%w: missing session id", ErrInvalidResult)
	case r.QuestionsAnswered < 0, r.CorrectAnswers < 0, r.TotalPointsEarned < 0, r.TokensEarned < 0, r.TokensSpent < 0:
		return fmt.Errorf("%w: negative counter", ErrInvalidResult)
	case r.CorrectAnswers > r.QuestionsAnswered:
		return fmt.Errorf("%w: %d correct of %d answered", ErrInvalidResult, r.CorrectAnswers, r.QuestionsAnswered)
	case r.MaxStreak > r.CorrectAnswers:
		return fmt.Errorf("%w: streak %d exceeds correct answers %d", ErrInvalidResult, r.MaxStreak, r.CorrectAnswers)
	case r.TokensEarned > r.CorrectAnswers:
		return fmt.Errorf("%w: %d tokens from %d correct answers", ErrInvalidResult, r.TokensEarned, r.CorrectAnswers)
	}
	return nil
}

// SubmitSessionResult applies a finished session to the player's lifetime
// totals in one transaction and unlocks any milestones reached.
// Submitting the same SessionID again returns the current totals unchanged.
func (s *Store) SubmitSessionResult(ctx context.Context, playerID string, r SessionResult) (LifetimeTotals, error) {
	if strings.TrimSpace(playerID) == "" {
		return LifetimeTotals{}, fmt.Errorf("%w: missing player id", ErrInvalidResult)
	}
	if err := r.Validate(); err != nil {
		return LifetimeTotals{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LifetimeTotals{}, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO players (id) VALUES (?)`, playerID); err != nil {
		return LifetimeTotals{}, fmt.Errorf("storage: cannot create player: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions
		 (session_id, player_id, subject, grade, questions_answered, correct_answers,
		  total_points, max_streak, tokens_spent, end_reason, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, playerID, r.Subject, r.Grade, r.QuestionsAnswered, r.CorrectAnswers,
		r.TotalPointsEarned, r.MaxStreak, r.TokensSpent, r.EndReason, int(r.Duration.Seconds()),
	)
	if err != nil {
		return LifetimeTotals{}, fmt.Errorf("storage: cannot save session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already applied.
		totals, err := playerTotals(ctx, tx, playerID)
		if err != nil {
			return LifetimeTotals{}, err
		}
		return totals, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE players SET
			points = points + ?,
			total_quizzes_answered = total_quizzes_answered + ?,
			total_correct = total_correct + ?,
			max_correct_streak = MAX(max_correct_streak, ?),
			auto_win_tokens = MAX(0, auto_win_tokens + ? - ?),
			sessions_played = sessions_played + 1
		 WHERE id = ?`,
		r.TotalPointsEarned, r.QuestionsAnswered, r.CorrectAnswers, r.MaxStreak,
		r.TokensEarned, r.TokensSpent, playerID,
	)
	if err != nil {
		return LifetimeTotals{}, fmt.Errorf("storage: cannot update player: %w", err)
	}

	totals, err := playerTotals(ctx, tx, playerID)
	if err != nil {
		return LifetimeTotals{}, err
	}

	for _, a := range milestonesFor(totals.TotalQuizzesAnswered) {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO achievements (player_id, achievement_id, title) VALUES (?, ?, ?)`,
			playerID, a.ID, a.Title,
		)
		if err != nil {
			return LifetimeTotals{}, fmt.Errorf("storage: cannot unlock achievement: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			totals.NewAchievements = append(totals.NewAchievements, a)
		}
	}

	if err := tx.Commit(); err != nil {
		return LifetimeTotals{}, fmt.Errorf("storage: cannot commit session: %w", err)
	}
	return totals, nil
}

// milestonesFor lists every achievement a lifetime answer count qualifies for.
func milestonesFor(answered int) []Achievement {
	if answered <= 0 {
		return nil
	}
	out := []Achievement{{ID: firstQuizID, Title: "First quiz completed"}}
	for _, m := range quizMilestones {
		if answered >= m {
			out = append(out, Achievement{
				ID:    fmt.Sprintf("quiz_%d", m),
				Title: fmt.Sprintf("%d questions answered", m),
			})
		}
	}
	return out
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func playerTotals(ctx context.Context, q queryer, playerID string) (LifetimeTotals, error) {
	t := LifetimeTotals{PlayerID: playerID}
	err := q.QueryRowContext(ctx,
		`SELECT points, total_quizzes_answered, total_correct, max_correct_streak,
		        auto_win_tokens, sessions_played
		 FROM players WHERE id = ?`,
		playerID,
	).Scan(&t.Points, &t.TotalQuizzesAnswered, &t.TotalCorrect, &t.MaxCorrectStreak,
		&t.AutoWinTokens, &t.SessionsPlayed)

	if errors.Is(err, sql.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return LifetimeTotals{}, fmt.Errorf("storage: cannot query player: %w", err)
	}
	return t, nil
}

// Player returns lifetime totals. Unknown players have zero totals.
func (s *Store) Player(ctx context.Context, playerID string) (LifetimeTotals, error) {
	return playerTotals(ctx, s.db, playerID)
}

// Achievements returns a player's unlocked achievements, oldest first.
func (s *Store) Achievements(ctx context.Context, playerID string) ([]Achievement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT achievement_id, title, unlocked_at
		 FROM achievements
		 WHERE player_id = ?
		 ORDER BY rowid`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query achievements: %w", err)
	}
	defer rows.Close()

	var out []Achievement
	for rows.Next() {
		var a Achievement
		var unlockedAt any
		if err := rows.Scan(&a.ID, &a.Title, &unlockedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		a.UnlockedAt = parseTime(unlockedAt)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// RecentSessions returns a player's most recent sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, playerID string, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, player_id, subject, grade, questions_answered, correct_answers,
		        total_points, max_streak, tokens_spent, end_reason, duration_secs, created_at
		 FROM sessions
		 WHERE player_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var createdAt any
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.PlayerID, &r.Subject, &r.Grade,
			&r.QuestionsAnswered, &r.CorrectAnswers, &r.TotalPoints, &r.MaxStreak,
			&r.TokensSpent, &r.EndReason, &r.DurationSecs, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// TopPlayers returns players ordered by lifetime points.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]LifetimeTotals, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, points, total_quizzes_answered, total_correct, max_correct_streak,
		        auto_win_tokens, sessions_played
		 FROM players
		 ORDER BY points DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query players: %w", err)
	}
	defer rows.Close()

	var out []LifetimeTotals
	for rows.Next() {
		var t LifetimeTotals
		if err := rows.Scan(&t.PlayerID, &t.Points, &t.TotalQuizzesAnswered, &t.TotalCorrect,
			&t.MaxCorrectStreak, &t.AutoWinTokens, &t.SessionsPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// parseTime handles both time.Time and the SQLite text form.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
