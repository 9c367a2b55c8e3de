package reasoning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// Cached memoizes successful responses by prompt, so re-running a case with
// unchanged inputs does not pay for identical calls twice.
type Cached struct {
	next  core.ReasoningService
	cache *gocache.Cache
}

// NewCached wraps next with an in-memory response cache.
func NewCached(next core.ReasoningService, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Generate implements core.ReasoningService. Errors are never cached.
func (c *Cached) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	key := cacheKey(req)
	if v, found := c.cache.Get(key); found {
		resp := v.(core.GenerateResponse)
		resp.Cached = true
		return resp, nil
	}

	resp, err := c.next.Generate(ctx, req)
	if err != nil {
		return resp, err
	}
	c.cache.SetDefault(key, resp)
	return resp, nil
}

// Len returns the number of cached responses.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

func cacheKey(req core.GenerateRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Tier))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.MaxTokens)))
	h.Write([]byte{0})
	h.Write([]byte(req.SystemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(req.UserPrompt))
	return hex.EncodeToString(h.Sum(nil))
}
