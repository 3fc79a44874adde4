package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/testutils"
	"github.com/aretw0/tendril/pkg/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// startEngine serves a HostFS engine over a temporary tree:
//
//	a.txt      "hello"
//	notes.md   "# notes"
//	sub/b.txt  "nested"
func startEngine(t *testing.T, opts ...enginetest.Option) string {
	t.Helper()
	dir := testutils.SetupTestTree(t, map[string]string{
		"a.txt":     "hello",
		"notes.md":  "# notes",
		"sub/b.txt": "nested",
	})

	backend := enginetest.NewHostFS(dir, enginetest.WithEnv(map[string]string{"GREETING": "hi there"}))
	engine := enginetest.New(append([]enginetest.Option{enginetest.WithBackend(backend)}, opts...)...)
	srv := httptest.NewServer(engine.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLs(t *testing.T) {
	endpoint := startEngine(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default path", []string{"ls"}, "a.txt\nnotes.md\nsub/\n"},
		{"subdirectory", []string{"ls", "sub"}, "b.txt\n"},
		{"exclude", []string{"ls", "--exclude", "*.txt"}, "notes.md\nsub/\n"},
		{"include", []string{"ls", "--include", "*.md"}, "notes.md\n"},
		{"glob", []string{"ls", "--glob", "**/*.txt"}, "a.txt\nsub/b.txt\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, "--endpoint", endpoint)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestLs_Explain(t *testing.T) {
	endpoint := startEngine(t)

	t.Run("success", func(t *testing.T) {
		out, err := execute(t, "ls", "sub", "--explain", "--endpoint", endpoint)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "graph LR\n"))
		assert.Contains(t, out, "s0_host")
		assert.Contains(t, out, "s2_entries")
		assert.NotContains(t, out, "classDef failed")
	})

	t.Run("failure marks the step", func(t *testing.T) {
		out, err := execute(t, "ls", "missing", "--explain", "--endpoint", endpoint)
		require.Error(t, err)
		assert.Equal(t, "ResolutionError", tendril.KindOf(err))
		assert.Contains(t, out, "class s1_directory failed;")
	})
}

func TestCatEnvStat(t *testing.T) {
	endpoint := startEngine(t)

	out, err := execute(t, "cat", "a.txt", "--endpoint", endpoint)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = execute(t, "env", "GREETING", "--endpoint", endpoint)
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", out)

	out, err = execute(t, "stat", "sub/b.txt", "--endpoint", endpoint)
	require.NoError(t, err)
	var info tendril.FileInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &info))
	assert.Equal(t, "b.txt", info.Name)
	assert.Equal(t, int64(6), info.Size)
	assert.False(t, info.IsDir)
}

func TestErrors(t *testing.T) {
	endpoint := startEngine(t, enginetest.WithCredentials("s3cret"))

	_, err := execute(t, "ls", "--endpoint", endpoint)
	assert.Equal(t, "ConnectionError", tendril.KindOf(err))

	_, err = execute(t, "cat", "nope.txt", "--endpoint", endpoint, "--token", "s3cret")
	assert.Equal(t, "ResolutionError", tendril.KindOf(err))

	_, err = execute(t, "ls", "--endpoint", "ftp://example.com")
	assert.Equal(t, "ConnectionError", tendril.KindOf(err))

	_, err = execute(t, "cat")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	endpoint := startEngine(t, enginetest.WithCredentials("from-file"))
	path := filepath.Join(t.TempDir(), "tendril.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: "+endpoint+"\ntoken: from-file\n"), 0o644))

	out, err := execute(t, "cat", "a.txt", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tendril version "+strings.TrimSpace(tendril.Version)+"\n", out)
}
