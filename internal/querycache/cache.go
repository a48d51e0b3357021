// Package querycache caches API reads keyed by resource and query params.
// Mutations invalidate whole resources by prefix; entries are never patched.
package querycache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

type entry struct {
	resource  string
	value     interface{}
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now, entries: map[string]entry{}}
}

// Key is "resource?encoded-params"; url.Values.Encode sorts by key
func Key(resource string, params url.Values) string {
	if len(params) == 0 {
		return resource
	}
	return resource + "?" + params.Encode()
}

func (c *Cache) Get(resource string, params url.Values) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := Key(resource, params)
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, k)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(resource string, params url.Values, v interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(resource, params)] = entry{resource: resource, value: v, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate drops every entry whose resource equals a prefix or lies under
// it ("rfqs" covers "rfqs/42/quotations"). It returns the number removed.
func (c *Cache) Invalidate(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		for _, p := range prefixes {
			if e.resource == p || strings.HasPrefix(e.resource, p+"/") {
				delete(c.entries, k)
				n++
				break
			}
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch returns the cached value or calls load and caches a successful result.
// Concurrent misses may both call load; the later result wins.
func Fetch[T any](ctx context.Context, c *Cache, resource string, params url.Values, load func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(resource, params); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(resource, params, v)
	return v, nil
}

// Prune drops expired entries and returns how many were removed
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}
