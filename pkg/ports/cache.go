package ports

import "context"

// ResultCache memoises resolved values by chain key. Caching is opt-in:
// without a cache every terminal call re-executes its chain.
type ResultCache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value any) error
}
