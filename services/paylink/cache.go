package paylink

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSessionCacheTTL = 15 * time.Minute

// sessionCache keeps authenticated sessions around between requests so
// the initialization calls are not repeated for every link. A nil
// sessionCache never hits.
type sessionCache struct {
	cache *expirable.LRU[string, Session]
}

func newSessionCache(size int, ttl time.Duration) *sessionCache {
	if size <= 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	return &sessionCache{
		cache: expirable.NewLRU[string, Session](size, nil, ttl),
	}
}

func (c *sessionCache) Get(key string) (Session, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *sessionCache) Add(key string, session Session) {
	if c == nil {
		return
	}
	c.cache.Add(key, session)
}

func (c *sessionCache) Remove(key string) {
	if c == nil {
		return
	}
	c.cache.Remove(key)
}

func (c *sessionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
