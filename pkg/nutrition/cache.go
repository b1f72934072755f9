package nutrition

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/resilience"
)

// Cache persists search responses across runs. internal/store implements it.
type Cache interface {
	GetCachedNutrition(ctx context.Context, name string) ([]byte, error)
	SetCachedNutrition(ctx context.Context, name string, payload []byte, ttl time.Duration) error
}

// CachedClient wraps a Client with an in-process memo and an optional
// persistent cache. Upstream calls go through retry and a circuit breaker.
// The memo is keyed by query text only, so per-call search options should
// be held constant within a process.
type CachedClient struct {
	inner Client
	cache Cache
	ttl   time.Duration

	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker

	mu   sync.Mutex
	memo map[string]*SearchResponse
}

// CachedOption configures a CachedClient.
type CachedOption func(*CachedClient)

// WithCache attaches a persistent cache with the given entry TTL.
func WithCache(cache Cache, ttl time.Duration) CachedOption {
	return func(c *CachedClient) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithRetry overrides the retry policy for upstream calls.
func WithRetry(cfg resilience.RetryConfig) CachedOption {
	return func(c *CachedClient) {
		c.retry = cfg
	}
}

// WithBreaker overrides the circuit breaker for upstream calls.
func WithBreaker(cb *resilience.CircuitBreaker) CachedOption {
	return func(c *CachedClient) {
		c.breaker = cb
	}
}

// NewCachedClient wraps inner with caching and resilience.
func NewCachedClient(inner Client, opts ...CachedOption) *CachedClient {
	c := &CachedClient{
		inner:   inner,
		ttl:     720 * time.Hour,
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		memo:    make(map[string]*SearchResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchFoods returns the cached response for query when one exists,
// otherwise calls the upstream client and caches the result. Cache
// failures degrade to a miss; they never fail the lookup.
func (c *CachedClient) SearchFoods(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	c.mu.Lock()
	if resp, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return resp, nil
	}
	c.mu.Unlock()

	if c.cache != nil {
		payload, err := c.cache.GetCachedNutrition(ctx, key)
		if err != nil {
			zap.L().Warn("nutrition cache read failed",
				zap.String("query", key),
				zap.Error(err))
		} else if payload != nil {
			var resp SearchResponse
			if err := json.Unmarshal(payload, &resp); err != nil {
				zap.L().Warn("nutrition cache entry corrupt",
					zap.String("query", key),
					zap.Error(err))
			} else {
				c.remember(key, &resp)
				return &resp, nil
			}
		}
	}

	resp, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*SearchResponse, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
			return c.inner.SearchFoods(ctx, query, opts...)
		})
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		payload, err := json.Marshal(resp)
		if err == nil {
			if err := c.cache.SetCachedNutrition(ctx, key, payload, c.ttl); err != nil {
				zap.L().Warn("nutrition cache write failed",
					zap.String("query", key),
					zap.Error(err))
			}
		}
	}
	c.remember(key, resp)

	return resp, nil
}

func (c *CachedClient) remember(key string, resp *SearchResponse) {
	c.mu.Lock()
	c.memo[key] = resp
	c.mu.Unlock()
}
