package questions

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/registry"
)

// sharedFetchTimeout bounds a fetch shared by concurrent misses.
const sharedFetchTimeout = 30 * time.Second

// CachedProvider keeps fetched pools in Redis and falls back to the wrapped
// provider on a miss. Concurrent misses for one key share a single fetch.
// Redis failures degrade to uncached fetches.
type CachedProvider struct {
	inner  registry.Provider
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCachedProvider wraps inner with a Redis cache.
func NewCachedProvider(inner registry.Provider, client *redis.Client, ttl time.Duration, logger *log.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ID returns the wrapped provider's identifier.
func (c *CachedProvider) ID() string { return c.inner.ID() }

// Title returns the wrapped provider's display name.
func (c *CachedProvider) Title() string { return c.inner.Title() + " (cached)" }

// FetchQuestions serves from cache when the cached pool holds at least count
// questions; otherwise it fetches and refreshes the cache.
func (c *CachedProvider) FetchQuestions(ctx context.Context, subject, grade string, count int) ([]quiz.Question, error) {
	key := cacheKey(c.inner.ID(), subject, grade)

	if qs, ok := c.lookup(ctx, key, count); ok {
		return qs, nil
	}

	// The shared fetch outlives any one caller, and callers asking for
	// different pool sizes do not share a flight.
	flight := key + ":" + strconv.Itoa(count)
	ch := c.sf.DoChan(flight, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		// Re-check cache in case another caller filled it.
		if qs, ok := c.lookup(fctx, key, count); ok {
			return qs, nil
		}

		qs, err := c.inner.FetchQuestions(fctx, subject, grade, count)
		if err != nil {
			return nil, err
		}
		c.store(fctx, key, qs)
		return qs, nil
	})

	var result interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result = res.Val
	}
	qs := result.([]quiz.Question)
	if count > 0 && len(qs) > count {
		qs = qs[:count]
	}
	return append([]quiz.Question(nil), qs...), nil
}

func (c *CachedProvider) lookup(ctx context.Context, key string, count int) ([]quiz.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("question cache read failed", "key", key, "err", err)
		}
		return nil, false
	}

	var qs []quiz.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		c.warn("question cache entry corrupt", "key", key, "err", err)
		return nil, false
	}
	qs, _ = quiz.Filter(qs)
	if len(qs) == 0 || len(qs) < count {
		return nil, false
	}
	if count > 0 {
		qs = qs[:count]
	}
	return qs, true
}

func (c *CachedProvider) store(ctx context.Context, key string, qs []quiz.Question) {
	raw, err := json.Marshal(qs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err(); err != nil {
		c.warn("question cache write failed", "key", key, "err", err)
	}
}

func (c *CachedProvider) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func (c *CachedProvider) warn(msg string, kv ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, kv...)
	}
}

func cacheKey(provider, subject, grade string) string {
	norm := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	}
	return "questions:" + provider + ":" + norm(subject) + ":" + norm(grade)
}
