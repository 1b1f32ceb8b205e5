package censor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// VerdictCache memoizes raw censor results by content kind and key. A miss
// is (nil, nil), not an error.
type VerdictCache interface {
	Get(ctx context.Context, kind, key string) (*RawResult, error)
	Set(ctx context.Context, kind, key string, res *RawResult) error
}

type MemVerdictCache struct {
	Data *expirable.LRU[string, string]
}

var _ VerdictCache = (*MemVerdictCache)(nil)

func NewMemVerdictCache(capacity int, ttl time.Duration) *MemVerdictCache {
	return &MemVerdictCache{
		Data: expirable.NewLRU[string, string](capacity, nil, ttl),
	}
}

func cacheKey(kind, key string) string {
	return kind + "/" + key
}

func (c *MemVerdictCache) Get(ctx context.Context, kind, key string) (*RawResult, error) {
	v, ok := c.Data.Get(cacheKey(kind, key))
	if !ok {
		return nil, nil
	}
	var res RawResult
	if err := json.Unmarshal([]byte(v), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *MemVerdictCache) Set(ctx context.Context, kind, key string, res *RawResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	c.Data.Add(cacheKey(kind, key), string(b))
	return nil
}

// CachedClient wraps a Client with verdict memoization: text by content
// hash, images by URL. Only clean results are cached; failures always go
// back to the provider. A nil Cache disables memoization entirely.
type CachedClient struct {
	Inner Client
	Cache VerdictCache
}

var _ Client = (*CachedClient)(nil)

func (c *CachedClient) ClassifyText(ctx context.Context, text string) (*RawResult, error) {
	sum := sha256.Sum256([]byte(text))
	return c.classify(ctx, "text", hex.EncodeToString(sum[:]), func() (*RawResult, error) {
		return c.Inner.ClassifyText(ctx, text)
	})
}

func (c *CachedClient) ClassifyImage(ctx context.Context, imageURL string) (*RawResult, error) {
	return c.classify(ctx, "image", imageURL, func() (*RawResult, error) {
		return c.Inner.ClassifyImage(ctx, imageURL)
	})
}

func (c *CachedClient) classify(ctx context.Context, kind, key string, fetch func() (*RawResult, error)) (*RawResult, error) {
	if c.Cache == nil {
		return fetch()
	}
	cached, err := c.Cache.Get(ctx, kind, key)
	if err == nil && cached != nil {
		verdictCacheHits.WithLabelValues(kind).Inc()
		return cached, nil
	}
	res, err := fetch()
	if err != nil {
		return nil, err
	}
	if res != nil && res.Err == "" {
		// cache write failures are not worth failing the audit over
		_ = c.Cache.Set(ctx, kind, key, res)
	}
	return res, nil
}
