// Package registry provides a global registry for question-provider factories.
// Providers register themselves in init() functions, allowing the CLI
// to select a question source by name without hardcoded dependencies.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/space-runner/internal/quiz"
)

// Provider supplies the question pool for a session.
// Implementations are called once per session, before the runner starts.
type Provider interface {
	// ID returns a unique identifier for this provider (e.g., "gemini", "bank").
	// Used for the --provider flag.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// FetchQuestions returns up to count questions for subject and grade.
	// Invalid questions are dropped; an empty result is quiz.ErrEmptyPool.
	FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error)
}

// Options carries everything a factory may need. Unused fields are ignored.
type Options struct {
	APIKey     string       // Remote generator credential
	Model      string       // Remote generator model name
	Endpoint   string       // Overrides the remote generator base URL
	BankPath   string       // YAML question bank, empty for the embedded one
	Seed       int64        // Shuffle seed for local banks
	HTTPClient *http.Client // Nil means a client with the provider's default timeout
	Logger     *log.Logger
}

// ProviderInfo contains metadata about a registered provider.
type ProviderInfo struct {
	ID    string
	Title string
}

// Factory creates a provider from options.
type Factory func(opts Options) (Provider, error)

type entry struct {
	title   string
	factory Factory
}

var (
	factories = make(map[string]entry)
	mu        sync.RWMutex
)

// Register adds a provider factory to the registry.
// Typically called from a provider's init() function.
// Panics if a provider with the same ID is already registered.
func Register(id, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: provider %q already registered", id))
	}
	factories[id] = entry{title: title, factory: f}
}

// List returns information about all registered providers, sorted by ID.
func List() []ProviderInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ProviderInfo, 0, len(factories))
	for id, e := range factories {
		result = append(result, ProviderInfo{ID: id, Title: e.title})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a provider by its ID.
// Returns an error if the ID is not registered or the factory fails.
func Create(id string, opts Options) (Provider, error) {
	mu.RLock()
	e, ok := factories[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown provider %q", id)
	}
	p, err := e.factory(opts)
	if err != nil {
		return nil, fmt.Errorf("registry: create %q: %w", id, err)
	}
	return p, nil
}

// Exists checks if a provider with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
