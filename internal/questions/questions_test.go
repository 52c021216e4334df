package questions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/registry"
)

func sampleQuestions(n int) []quiz.Question {
	qs := make([]quiz.Question, n)
	for i := range qs {
		qs[i] = quiz.Question{
			Text:         "Question " + string(rune('A'+i)),
			Options:      []string{"w", "x", "y", "z"},
			CorrectIndex: i % 4,
			Explanation:  "because",
		}
	}
	return qs
}

func geminiServer(t *testing.T, qs []quiz.Question, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"code":401,"message":"bad key"}}`)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("responseMimeType = %q", req.GenerationConfig.ResponseMimeType)
		}

		inner, _ := json.Marshal(map[string]any{"quizzes": qs})
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": string(inner)}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newGemini(t *testing.T, url, key string) *GeminiProvider {
	t.Helper()
	p, err := NewGeminiProvider(registry.Options{APIKey: key, Model: "test-model", Endpoint: url})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	return p
}

func TestGeminiFetch(t *testing.T) {
	bad := sampleQuestions(1)[0]
	bad.CorrectIndex = 7
	srv := geminiServer(t, append(sampleQuestions(3), bad), nil)
	defer srv.Close()

	qs, err := newGemini(t, srv.URL, "test-key").FetchQuestions(context.Background(), "Physics", "7", 5)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 3 {
		t.Errorf("got %d questions, expected 3 after dropping the invalid one", len(qs))
	}
	if qs[1].CorrectIndex != 1 || qs[1].Explanation != "because" {
		t.Errorf("question decoded wrong: %+v", qs[1])
	}
}

func TestGeminiTrimsToCount(t *testing.T) {
	srv := geminiServer(t, sampleQuestions(6), nil)
	defer srv.Close()

	qs, err := newGemini(t, srv.URL, "test-key").FetchQuestions(context.Background(), "Physics", "7", 4)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if len(qs) != 4 {
		t.Errorf("got %d questions, expected 4", len(qs))
	}
}

func TestGeminiErrors(t *testing.T) {
	srv := geminiServer(t, nil, nil)
	defer srv.Close()

	if _, err := newGemini(t, srv.URL, "wrong").FetchQuestions(context.Background(), "Physics", "7", 5); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Errorf("expected status error with message, got %v", err)
	}

	_, err := newGemini(t, srv.URL, "test-key").FetchQuestions(context.Background(), "Physics", "7", 5)
	if !errors.Is(err, quiz.ErrEmptyPool) {
		t.Errorf("empty batch error = %v, expected ErrEmptyPool", err)
	}

	if _, err := NewGeminiProvider(registry.Options{}); err == nil {
		t.Error("missing API key should be rejected")
	}
}

const testBank = `
sections:
  - subject: Mathematics
    grade: "*"
    questions:
      - question: "1 + 1?"
        options: ["1", "2"]
        correct_index: 1
      - question: "2 + 2?"
        options: ["4", "5"]
        correct_index: 0
  - subject: History
    grade: "9"
    questions:
      - question: "Year the First World War began?"
        options: ["1914", "1939"]
        correct_index: 0
      - question: "broken"
        options: ["only one"]
        correct_index: 0
`

func TestBankFilters(t *testing.T) {
	b, err := ParseBank([]byte(testBank), 1)
	if err != nil {
		t.Fatalf("ParseBank: %v", err)
	}
	ctx := context.Background()

	qs, err := b.FetchQuestions(ctx, "mathematics", "6", 10)
	if err != nil || len(qs) != 2 {
		t.Fatalf("wildcard grade: got %d questions, err %v", len(qs), err)
	}

	qs, err = b.FetchQuestions(ctx, "History", "9", 10)
	if err != nil || len(qs) != 1 {
		t.Fatalf("History 9: got %d questions, err %v; invalid entry should be dropped", len(qs), err)
	}

	if _, err := b.FetchQuestions(ctx, "History", "6", 10); !errors.Is(err, quiz.ErrEmptyPool) {
		t.Errorf("History 6 error = %v, expected ErrEmptyPool", err)
	}
}

func TestEmbeddedBankIsValid(t *testing.T) {
	b, err := NewBankProvider("", 1)
	if err != nil {
		t.Fatalf("NewBankProvider: %v", err)
	}
	if len(b.Subjects()) == 0 {
		t.Fatal("embedded bank is empty")
	}
	for _, s := range b.sections {
		for _, q := range s.Questions {
			if err := q.Validate(); err != nil {
				t.Errorf("%s: %v", s.Subject, err)
			}
		}
		if !quiz.Offered(s.Subject, "6") {
			t.Errorf("bank subject %q is not in the catalogue", s.Subject)
		}
	}
}

type countingProvider struct {
	registry.Provider
	calls int32
	delay time.Duration
}

func (p *countingProvider) FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error) {
	atomic.AddInt32(&p.calls, 1)
	time.Sleep(p.delay)
	return p.Provider.FetchQuestions(ctx, subject, grade, count)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedProviderCachesInRedis(t *testing.T) {
	mr, client := newRedis(t)
	bank, err := NewBankProvider("", 1)
	if err != nil {
		t.Fatalf("NewBankProvider: %v", err)
	}
	inner := &countingProvider{Provider: bank}
	c := NewCachedProvider(inner, client, time.Minute, nil)
	ctx := context.Background()

	first, err := c.FetchQuestions(ctx, "Physics", "8", 5)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner called once, got %d", inner.calls)
	}

	second, err := c.FetchQuestions(ctx, "Physics", "8", 5)
	if err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected cache hit, inner calls=%d", inner.calls)
	}
	if len(second) != len(first) || second[0].Text != first[0].Text {
		t.Error("cached pool should match the first fetch")
	}

	key := cacheKey("bank", "Physics", "8")
	ttl := mr.TTL(key)
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Errorf("TTL = %v, expected one minute plus up to 10%% jitter", ttl)
	}

	mr.Del(key)
	if _, err := c.FetchQuestions(ctx, "Physics", "8", 5); err != nil {
		t.Fatalf("FetchQuestions: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected refetch after the entry was dropped, inner calls=%d", inner.calls)
	}
}

func TestCachedProviderCollapsesConcurrentMisses(t *testing.T) {
	_, client := newRedis(t)
	bank, err := NewBankProvider("", 1)
	if err != nil {
		t.Fatalf("NewBankProvider: %v", err)
	}
	inner := &countingProvider{Provider: bank, delay: 50 * time.Millisecond}
	c := NewCachedProvider(inner, client, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FetchQuestions(context.Background(), "Biology", "9", 5); err != nil {
				t.Errorf("FetchQuestions: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&inner.calls); calls != 1 {
		t.Errorf("expected one inner fetch for concurrent misses, got %d", calls)
	}
}

// gatedProvider holds every fetch until release is closed.
type gatedProvider struct {
	registry.Provider
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (p *gatedProvider) FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error) {
	close(p.started)
	<-p.release
	p.ctxErr <- ctx.Err()
	return p.Provider.FetchQuestions(ctx, subject, grade, count)
}

func TestCachedProviderFetchOutlivesCaller(t *testing.T) {
	_, client := newRedis(t)
	bank, err := NewBankProvider("", 1)
	if err != nil {
		t.Fatalf("NewBankProvider: %v", err)
	}
	inner := &gatedProvider{
		Provider: bank,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		ctxErr:   make(chan error, 1),
	}
	c := NewCachedProvider(inner, client, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.FetchQuestions(ctx, "Chemistry", "9", 3)
		done <- err
	}()

	<-inner.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, expected context.Canceled", err)
	}

	close(inner.release)
	if err := <-inner.ctxErr; err != nil {
		t.Errorf("shared fetch saw %v after one caller left", err)
	}

	// The abandoned fetch still fills the cache for everyone else.
	deadline := time.Now().Add(2 * time.Second)
	for {
		qs, ok := c.lookup(context.Background(), cacheKey("bank", "Chemistry", "9"), 3)
		if ok && len(qs) == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pool was never cached")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCachedProviderServesEachCount(t *testing.T) {
	_, client := newRedis(t)
	bank, err := NewBankProvider("", 1)
	if err != nil {
		t.Fatalf("NewBankProvider: %v", err)
	}
	inner := &countingProvider{Provider: bank, delay: 50 * time.Millisecond}
	c := NewCachedProvider(inner, client, time.Minute, nil)

	var wg sync.WaitGroup
	lens := make([]int, 2)
	for i, count := range []int{2, 6} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			qs, err := c.FetchQuestions(context.Background(), "Mathematics", "7", count)
			if err != nil {
				t.Errorf("FetchQuestions(%d): %v", count, err)
			}
			lens[i] = len(qs)
		}()
	}
	wg.Wait()

	if lens[0] != 2 || lens[1] != 6 {
		t.Errorf("pool sizes = %v, expected [2 6]", lens)
	}
}

func TestCachedProviderSurvivesRedisOutage(t *testing.T) {
	mr, client := newRedis(t)
	bank, err := NewBankProvider("", 1)
	if err != nil {
		t.Fatalf("NewBankProvider: %v", err)
	}
	c := NewCachedProvider(bank, client, time.Minute, nil)
	mr.Close()

	qs, err := c.FetchQuestions(context.Background(), "History", "10", 3)
	if err != nil {
		t.Fatalf("FetchQuestions with redis down: %v", err)
	}
	if len(qs) != 3 {
		t.Errorf("got %d questions, expected 3", len(qs))
	}
}

func TestRegistryHasProviders(t *testing.T) {
	for _, id := range []string{"bank", "gemini"} {
		if !registry.Exists(id) {
			t.Errorf("provider %q should be registered", id)
		}
	}

	p, err := registry.Create("bank", registry.Options{Seed: 3})
	if err != nil {
		t.Fatalf("Create(bank): %v", err)
	}
	if p.ID() != "bank" {
		t.Errorf("ID() = %q", p.ID())
	}

	if _, err := registry.Create("gemini", registry.Options{}); err == nil {
		t.Error("gemini without a key should fail to create")
	}
	if _, err := registry.Create("nope", registry.Options{}); err == nil {
		t.Error("unknown provider should fail")
	}
}
