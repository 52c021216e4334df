package quiz

// AnswerRecorder receives exactly one result per presented question.
type AnswerRecorder interface {
	OnAnswer(correct bool)
}

// Outcome describes how a question was answered.
type Outcome struct {
	Correct      bool
	Chosen       int
	CorrectIndex int
	AutoWin      bool
}

// Presenter holds the active question and enforces one answer per question.
type Presenter struct {
	recorder AnswerRecorder
	wallet   *Wallet

	question  Question
	presented bool
	answered  bool
	outcome   Outcome
}

// NewPresenter creates a presenter reporting to rec and spending from w.
func NewPresenter(rec AnswerRecorder, w *Wallet) *Presenter {
	if w == nil {
		w = NewWallet(0)
	}
	return &Presenter{recorder: rec, wallet: w}
}

// SetRecorder swaps the aggregator answers are reported to.
func (p *Presenter) SetRecorder(rec AnswerRecorder) {
	p.recorder = rec
}

// Present makes q the active question.
func (p *Presenter) Present(q Question) {
	p.question = q
	p.presented = true
	p.answered = false
	p.outcome = Outcome{}
}

// Clear drops the active question.
func (p *Presenter) Clear() {
	p.presented = false
	p.answered = false
	p.outcome = Outcome{}
}

// Question returns the active question and whether one is presented.
func (p *Presenter) Question() (Question, bool) {
	return p.question, p.presented
}

// Select answers the active question with option i.
func (p *Presenter) Select(i int) (Outcome, error) {
	if err := p.ready(); err != nil {
		return p.outcome, err
	}
	if i < 0 || i >= len(p.question.Options) {
		return Outcome{}, ErrInvalidOption
	}
	return p.record(i, false), nil
}

// ConsumeAutoWin spends a token and answers the active question correctly.
func (p *Presenter) ConsumeAutoWin() (Outcome, error) {
	if err := p.ready(); err != nil {
		return p.outcome, err
	}
	if !p.wallet.Spend() {
		return Outcome{}, ErrNoTokens
	}
	return p.record(p.question.CorrectIndex, true), nil
}

// Answered reports whether the active question has its answer.
func (p *Presenter) Answered() bool {
	return p.answered
}

// Outcome returns the answer given to the active question, if any.
func (p *Presenter) Outcome() (Outcome, bool) {
	return p.outcome, p.answered
}

func (p *Presenter) ready() error {
	switch {
	case !p.presented:
		return ErrNoQuestion
	case p.answered:
		return ErrAlreadyAnswered
	}
	return nil
}

func (p *Presenter) record(chosen int, autoWin bool) Outcome {
	p.answered = true
	p.outcome = Outcome{
		Correct:      chosen == p.question.CorrectIndex,
		Chosen:       chosen,
		CorrectIndex: p.question.CorrectIndex,
		AutoWin:      autoWin,
	}
	if p.recorder != nil {
		p.recorder.OnAnswer(p.outcome.Correct)
	}
	return p.outcome
}
