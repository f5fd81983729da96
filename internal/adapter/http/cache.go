package httpadapter

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ResponseCache memoizes encoded JSON responses keyed by request URI.
// Entries expire after the configured TTL; the projections only change when
// a batch job publishes, so short staleness is acceptable.
type ResponseCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewResponseCache creates a cache holding at most size responses for ttl.
func NewResponseCache(size int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *ResponseCache) get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *ResponseCache) set(key string, body []byte) {
	c.lru.Add(key, body)
}
