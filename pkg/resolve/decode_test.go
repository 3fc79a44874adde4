package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stat struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	IsDir   bool      `json:"is_dir"`
}

func TestDecode(t *testing.T) {
	t.Run("list from json", func(t *testing.T) {
		var out []string
		require.NoError(t, Decode([]any{"a", "b"}, &out))
		assert.Equal(t, []string{"a", "b"}, out)
	})

	t.Run("number from json", func(t *testing.T) {
		var out int64
		require.NoError(t, Decode(float64(42), &out))
		assert.Equal(t, int64(42), out)
	})

	t.Run("number from cbor", func(t *testing.T) {
		var out int
		require.NoError(t, Decode(uint64(7), &out))
		assert.Equal(t, 7, out)
	})

	t.Run("struct by json tag", func(t *testing.T) {
		var out stat
		require.NoError(t, Decode(map[string]any{
			"name":     "a.txt",
			"size":     float64(5),
			"mod_time": "2024-05-01T10:00:00Z",
			"is_dir":   false,
		}, &out))
		assert.Equal(t, "a.txt", out.Name)
		assert.Equal(t, int64(5), out.Size)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), out.ModTime)
	})

	t.Run("mismatch", func(t *testing.T) {
		var out []string
		assert.Error(t, Decode("a.txt", &out))
	})

	t.Run("nil payload", func(t *testing.T) {
		out := "unchanged"
		require.NoError(t, Decode(nil, &out))
		assert.Equal(t, "unchanged", out)
	})
}
