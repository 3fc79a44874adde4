package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultCacheContract runs a suite of tests to verify that a ResultCache
// implementation adheres to the defined interface contract.
func RunResultCacheContract(t *testing.T, cache ResultCache) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405") + "-"

	t.Run("Miss", func(t *testing.T) {
		v, found, err := cache.Get(ctx, prefix+"missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, v)
	})

	t.Run("Scalar", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, prefix+"scalar", "hello"))

		v, found, err := cache.Get(ctx, prefix+"scalar")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "hello", v)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, prefix+"list", []any{"a.txt", "b.txt"}))

		v, found, err := cache.Get(ctx, prefix+"list")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []any{"a.txt", "b.txt"}, v)
	})

	t.Run("Isolation", func(t *testing.T) {
		stored := map[string]any{"entries": []any{"a.txt"}, "name": "root"}
		require.NoError(t, cache.Set(ctx, prefix+"isolated", stored))
		stored["name"] = "changed after Set"

		v, _, err := cache.Get(ctx, prefix+"isolated")
		require.NoError(t, err)
		got := v.(map[string]any)
		got["name"] = "changed after Get"
		got["entries"].([]any)[0] = "z.txt"

		v, _, err = cache.Get(ctx, prefix+"isolated")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"entries": []any{"a.txt"}, "name": "root"}, v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, prefix+"over", "one"))
		require.NoError(t, cache.Set(ctx, prefix+"over", "two"))

		v, _, err := cache.Get(ctx, prefix+"over")
		require.NoError(t, err)
		assert.Equal(t, "two", v)
	})
}
