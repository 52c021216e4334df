// Package questions implements the question-pool providers: a remote
// generator, a local YAML bank and a Redis cache in front of either.
package questions

import (
	"fmt"

	"github.com/vovakirdan/space-runner/internal/quiz"
)

// finish validates a fetched batch and trims it to count.
func finish(qs []quiz.Question, count int) ([]quiz.Question, int, error) {
	valid, dropped := quiz.Filter(qs)
	if len(valid) == 0 {
		return nil, dropped, fmt.Errorf("questions: %w", quiz.ErrEmptyPool)
	}
	if count > 0 && len(valid) > count {
		valid = valid[:count]
	}
	return valid, dropped, nil
}
