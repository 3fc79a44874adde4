package memory

import (
	"context"
	"sync"

	"github.com/aretw0/tendril/pkg/ports"
)

var _ ports.ResultCache = (*Cache)(nil)

// Cache implements ports.ResultCache in memory.
// Safe for concurrent use. Lists and maps are copied on Set and Get, so
// callers never share a cached value.
type Cache struct {
	data map[string]any
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]any),
	}
}

// Get returns the cached value for key.
func (c *Cache) Get(ctx context.Context, key string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.data[key]
	return clone(v), ok, nil
}

// Set stores value under key, replacing any previous value.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = clone(value)
	return nil
}

// clone deep-copies the []any and map[string]any shapes values arrive in.
func clone(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = clone(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = clone(item)
		}
		return out
	default:
		return v
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
