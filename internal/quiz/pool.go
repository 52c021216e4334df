package quiz

// Pool is the ordered set of questions fetched for a session.
type Pool struct {
	questions []Question
}

// NewPool creates a pool. An empty slice is rejected.
func NewPool(qs []Question) (*Pool, error) {
	if len(qs) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{questions: append([]Question(nil), qs...)}, nil
}

// Len returns the number of distinct questions.
func (p *Pool) Len() int {
	return len(p.questions)
}

// At returns the question for a session index. Indices past the end wrap
// around so a session may ask more questions than the pool holds.
func (p *Pool) At(i int) Question {
	n := len(p.questions)
	i %= n
	if i < 0 {
		i += n
	}
	return p.questions[i]
}
