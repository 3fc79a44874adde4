package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestTree creates a temporary directory holding files, keyed by
// slash-separated relative path. Parent directories are created as needed.
// It returns the absolute path to the temp dir and fails the test
// immediately on error.
func SetupTestTree(t *testing.T, files map[string]string) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		target := filepath.Join(absPath, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755), "Failed to create parent of %s", name)
		require.NoError(t, os.WriteFile(target, []byte(content), 0o644), "Failed to write %s", name)
	}
	return absPath
}
