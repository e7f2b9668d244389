package banlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeBanFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "banned-ips.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReloadAndLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeBanFile(t, dir, `[{"ip":"203.0.113.5","reason":"griefing","expires":"forever"}]`)

	l := New(path)
	reloaded, err := l.Reload()
	require.NoError(t, err)
	require.True(t, reloaded)

	e, ok := l.Lookup("203.0.113.5")
	require.True(t, ok)
	require.Equal(t, "griefing", e.Reason)

	_, ok = l.Lookup("127.0.0.1")
	require.False(t, ok)
}

func TestReloadSkipsUnchangedMtime(t *testing.T) {
	dir := t.TempDir()
	path := writeBanFile(t, dir, `[]`)
	l := New(path)
	_, err := l.Reload()
	require.NoError(t, err)

	reloaded, err := l.Reload()
	require.NoError(t, err)
	require.False(t, reloaded)
}

func TestExpiredBanIsNotReturned(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	path := writeBanFile(t, dir, `[{"ip":"1.2.3.4","reason":"temp","expires":"`+past+`"}]`)
	l := New(path)
	_, err := l.Reload()
	require.NoError(t, err)

	_, ok := l.Lookup("1.2.3.4")
	require.False(t, ok)
}
