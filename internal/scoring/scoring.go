// Package scoring folds runner pickups and quiz answers into the
// session-local score, streak and reward-token counters.
package scoring

import "github.com/vovakirdan/space-runner/internal/config"

// ScoreState is cumulative across a whole session.
type ScoreState struct {
	CorrectAnswers     int
	CurrentStreak      int
	MaxStreak          int
	PointsFromRunner   int
	RewardTokensEarned int // floor(CorrectAnswers / TokenEvery)
	Answered           int
}

// Reward is the payload handed to the persistence collaborator at session end.
type Reward struct {
	TotalPoints      int
	MaxStreak        int
	CorrectAnswers   int
	PointsFromRunner int
}

// Aggregator owns a ScoreState. It carries no lifetime or milestone data;
// those belong to the store.
type Aggregator struct {
	answerValue int
	tokenEvery  int
	state       ScoreState
}

// NewAggregator creates an aggregator with zeroed state.
func NewAggregator(cfg config.ScoringConfig) *Aggregator {
	every := cfg.TokenEvery
	if every <= 0 {
		every = 5
	}
	return &Aggregator{answerValue: cfg.AnswerValue, tokenEvery: every}
}

// OnRunnerCollectible adds a collectible's value. Negative values are ignored.
func (a *Aggregator) OnRunnerCollectible(value int) {
	if value <= 0 {
		return
	}
	a.state.PointsFromRunner += value
}

// OnAnswer records one quiz answer.
func (a *Aggregator) OnAnswer(correct bool) {
	a.state.Answered++
	if correct {
		a.state.CorrectAnswers++
		a.state.CurrentStreak++
		a.state.MaxStreak = max(a.state.MaxStreak, a.state.CurrentStreak)
	} else {
		a.state.CurrentStreak = 0
	}
	a.state.RewardTokensEarned = a.state.CorrectAnswers / a.tokenEvery
}

// FinalReward converts the current state into the end-of-session reward.
func (a *Aggregator) FinalReward() Reward {
	return Reward{
		TotalPoints:      a.state.CorrectAnswers*a.answerValue + a.state.PointsFromRunner,
		MaxStreak:        a.state.MaxStreak,
		CorrectAnswers:   a.state.CorrectAnswers,
		PointsFromRunner: a.state.PointsFromRunner,
	}
}

// State returns a copy of the score state.
func (a *Aggregator) State() ScoreState {
	return a.state
}
