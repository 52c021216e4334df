package questions

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/registry"
)

//go:embed defaults/bank.yaml
var defaultBank []byte

// AnyGrade in a bank section matches every grade.
const AnyGrade = "*"

func init() {
	registry.Register("bank", "Local question bank", func(opts registry.Options) (registry.Provider, error) {
		return NewBankProvider(opts.BankPath, opts.Seed)
	})
}

// BankFile is the on-disk layout of a question bank.
type BankFile struct {
	Sections []BankSection `yaml:"sections"`
}

// BankSection holds the questions for one subject and grade.
type BankSection struct {
	Subject   string          `yaml:"subject"`
	Grade     string          `yaml:"grade"`
	Questions []quiz.Question `yaml:"questions"`
}

// BankProvider serves questions from a YAML bank, shuffled per fetch.
type BankProvider struct {
	sections []BankSection

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBankProvider loads a bank from path, or the embedded bank when path is empty.
func NewBankProvider(path string, seed int64) (*BankProvider, error) {
	data := defaultBank
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("questions: read bank: %w", err)
		}
	}
	return ParseBank(data, seed)
}

// ParseBank builds a provider from YAML bytes.
func ParseBank(data []byte, seed int64) (*BankProvider, error) {
	var f BankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("questions: parse bank: %w", err)
	}
	return &BankProvider{sections: f.Sections, rng: rand.New(rand.NewSource(seed))}, nil
}

// ID returns the provider identifier.
func (b *BankProvider) ID() string { return "bank" }

// Title returns the display name.
func (b *BankProvider) Title() string { return "Local question bank" }

// FetchQuestions returns up to count shuffled questions for subject and grade.
func (b *BankProvider) FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pool []quiz.Question
	for _, s := range b.sections {
		if !strings.EqualFold(s.Subject, subject) {
			continue
		}
		if s.Grade != AnyGrade && s.Grade != grade {
			continue
		}
		pool = append(pool, s.Questions...)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("questions: no bank entries for %s grade %s: %w", subject, grade, quiz.ErrEmptyPool)
	}

	b.mu.Lock()
	b.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	b.mu.Unlock()

	qs, _, err := finish(pool, count)
	return qs, err
}

// Subjects lists the subject and grade pairs the bank covers.
func (b *BankProvider) Subjects() []BankSection {
	out := make([]BankSection, len(b.sections))
	for i, s := range b.sections {
		out[i] = BankSection{Subject: s.Subject, Grade: s.Grade}
	}
	return out
}
