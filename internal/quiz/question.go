// Package quiz holds the question model, the active-question presenter and
// the subject catalogue shown in the lobby.
package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyAnswered is returned when a question already has its answer.
	ErrAlreadyAnswered = errors.New("quiz: question already answered")
	// ErrNoTokens is returned when auto-win is requested with an empty wallet.
	ErrNoTokens = errors.New("quiz: no auto-win tokens")
	// ErrInvalidOption is returned for an option index outside the question.
	ErrInvalidOption = errors.New("quiz: option out of range")
	// ErrNoQuestion is returned when nothing has been presented.
	ErrNoQuestion = errors.New("quiz: no question presented")
	// ErrEmptyPool is returned when a pool would hold no questions.
	ErrEmptyPool = errors.New("quiz: empty question pool")
)

// MaxOptions is the most options a question may carry; keys 1-4 select them.
const MaxOptions = 4

// Question is a single multiple-choice question.
type Question struct {
	Text         string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correct_index"`
	Explanation  string   `json:"explanation" yaml:"explanation"`
}

// Validate checks that the question can be shown and answered.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("quiz: empty question text")
	}
	if len(q.Options) < 2 || len(q.Options) > MaxOptions {
		return fmt.Errorf("quiz: %q has %d options, want 2..%d", q.Text, len(q.Options), MaxOptions)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("quiz: %q correct index %d out of range", q.Text, q.CorrectIndex)
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("quiz: %q option %d is empty", q.Text, i)
		}
	}
	return nil
}

// Filter returns the valid questions and the number dropped.
func Filter(qs []Question) ([]Question, int) {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		if q.Validate() == nil {
			out = append(out, q)
		}
	}
	return out, len(qs) - len(out)
}
