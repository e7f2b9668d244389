package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewritePatchesExistingServerIPAndPort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.properties")
	require.NoError(t, os.WriteFile(path, []byte("motd=Hello\nserver-ip=\nserver-port=25565\nmax-players=20\n"), 0o644))

	r := NewPropertiesRewriter()
	require.NoError(t, r.Rewrite(dir, "127.0.0.1:25580"))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(out)
	require.Contains(t, content, "server-ip=127.0.0.1\n")
	require.Contains(t, content, "server-port=25580\n")
	require.Contains(t, content, "motd=Hello\n")
	require.Contains(t, content, "max-players=20\n")
}

func TestRewriteAppendsMissingKeysWhenFileHasNone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.properties")
	require.NoError(t, os.WriteFile(path, []byte("motd=Hello\n"), 0o644))

	r := NewPropertiesRewriter()
	require.NoError(t, r.Rewrite(dir, "0.0.0.0:25565"))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(out)
	require.Contains(t, content, "server-ip=0.0.0.0\n")
	require.Contains(t, content, "server-port=25565\n")
}

func TestRewriteCreatesFileWhenMissing(t *testing.T) {
	dir := t.TempDir()
	r := NewPropertiesRewriter()
	require.NoError(t, r.Rewrite(dir, "0.0.0.0:25565"))

	out, err := os.ReadFile(filepath.Join(dir, "server.properties"))
	require.NoError(t, err)
	require.Contains(t, string(out), "server-port=25565")
}

func TestSplitHostPortRejectsMissingPort(t *testing.T) {
	_, _, err := splitHostPort("localhost")
	require.Error(t, err)
}
