package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/registry"
)

const (
	geminiDefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel    = "gemini-1.5-flash"
	geminiRequestTimeout  = 20 * time.Second
	geminiMaxBody         = 1 << 20
)

func init() {
	registry.Register("gemini", "Gemini question generator", func(opts registry.Options) (registry.Provider, error) {
		return NewGeminiProvider(opts)
	})
}

// GeminiProvider asks the Gemini generateContent API for a fresh batch of
// questions, constrained by a JSON response schema.
type GeminiProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

// NewGeminiProvider creates a provider. An API key is required.
func NewGeminiProvider(opts registry.Options) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("questions: gemini needs an API key (GEMINI_API_KEY)")
	}
	p := &GeminiProvider{
		apiKey:   opts.APIKey,
		model:    opts.Model,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		client:   opts.HTTPClient,
		logger:   opts.Logger,
	}
	if p.model == "" {
		p.model = geminiDefaultModel
	}
	if p.endpoint == "" {
		p.endpoint = geminiDefaultEndpoint
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: geminiRequestTimeout}
	}
	return p, nil
}

// ID returns the provider identifier.
func (p *GeminiProvider) ID() string { return "gemini" }

// Title returns the display name.
func (p *GeminiProvider) Title() string { return "Gemini question generator" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string         `json:"responseMimeType"`
		ResponseSchema   map[string]any `json:"responseSchema"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// quizSchema constrains the model output to {"quizzes": [Question...]}.
var quizSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"quizzes": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"question":     map[string]any{"type": "STRING"},
					"options":      map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
					"correctIndex": map[string]any{"type": "INTEGER"},
					"explanation":  map[string]any{"type": "STRING"},
				},
				"required": []string{"question", "options", "correctIndex", "explanation"},
			},
		},
	},
	"required": []string{"quizzes"},
}

// FetchQuestions generates count questions for subject and grade.
func (p *GeminiProvider) FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error) {
	if count <= 0 {
		count = 5
	}

	var body geminiRequest
	body.Contents = []geminiContent{{
		Role: "user",
		Parts: []geminiPart{{Text: fmt.Sprintf(
			"Write %d multiple-choice questions with exactly 4 options each about %s for grade %s. "+
				"Give the zero-based index of the correct option and a one-sentence explanation.",
			count, subject, grade)}},
	}}
	body.GenerationConfig.ResponseMimeType = "application/json"
	body.GenerationConfig.ResponseSchema = quizSchema

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("questions: encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.endpoint, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("questions: create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("questions: gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, geminiMaxBody))
	if err != nil {
		return nil, fmt.Errorf("questions: read gemini response: %w", err)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("questions: decode gemini response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("questions: gemini status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return nil, fmt.Errorf("questions: gemini status %d", resp.StatusCode)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("questions: gemini returned no candidates: %w", quiz.ErrEmptyPool)
	}

	var batch struct {
		Quizzes []quiz.Question `json:"quizzes"`
	}
	if err := json.Unmarshal([]byte(out.Candidates[0].Content.Parts[0].Text), &batch); err != nil {
		return nil, fmt.Errorf("questions: decode generated quiz: %w", err)
	}

	qs, dropped, err := finish(batch.Quizzes, count)
	if dropped > 0 && p.logger != nil {
		p.logger.Warn("dropped invalid generated questions", "subject", subject, "grade", grade, "dropped", dropped)
	}
	return qs, err
}
