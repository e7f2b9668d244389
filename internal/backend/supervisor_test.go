package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/state"
)

// writeFakeServer writes an executable shell script standing in for the
// Java process, since Supervisor.Start splits server.command on spaces
// (matching the teacher's own naive split) and so cannot take a quoted
// multi-word shell -c string directly.
func writeFakeServer(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func testSupervisor(t *testing.T, command string) (*Supervisor, *state.ServerState) {
	t.Helper()
	cfg := &config.Config{
		Server: config.Server{
			Command:      command,
			Directory:    t.TempDir(),
			StopTimeout:  1,
			StartTimeout: 5,
		},
	}
	st := state.New()
	log := zaptest.NewLogger(t)
	return New(cfg, st, log, nil), st
}

func waitForLifecycle(t *testing.T, st *state.ServerState, want state.Lifecycle, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if st.Lifecycle() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("lifecycle never reached %s, stuck at %s", want, st.Lifecycle())
}

func TestStartTransitionsToStartedOnDoneMarker(t *testing.T) {
	script := writeFakeServer(t, `echo '[Server thread/INFO]: Done (1.0s)!'
sleep 5`)
	sup, st := testSupervisor(t, script)
	require.NoError(t, sup.Start(context.Background()))
	waitForLifecycle(t, st, state.Started, 2*time.Second)
	require.True(t, sup.IsRunning())

	require.NoError(t, sup.Stop(context.Background(), nil))
	waitForLifecycle(t, st, state.Stopped, 3*time.Second)
}

func TestUnexpectedExitIsReportedAsCrashed(t *testing.T) {
	script := writeFakeServer(t, `echo '[Server thread/INFO]: Done (1.0s)!'
sleep 0.1
exit 1`)
	sup, st := testSupervisor(t, script)
	require.NoError(t, sup.Start(context.Background()))
	waitForLifecycle(t, st, state.Started, 2*time.Second)
	waitForLifecycle(t, st, state.Crashed, 2*time.Second)
	require.Equal(t, 1, sup.CrashCount())
}

func TestStartTimeoutStopsBackendThatNeverReportsReady(t *testing.T) {
	script := writeFakeServer(t, `sleep 5`)
	cfg := &config.Config{
		Server: config.Server{
			Command:      script,
			Directory:    t.TempDir(),
			StopTimeout:  1,
			StartTimeout: 1,
		},
	}
	st := state.New()
	sup := New(cfg, st, zaptest.NewLogger(t), nil)

	require.NoError(t, sup.Start(context.Background()))
	waitForLifecycle(t, st, state.Stopped, 3*time.Second)
	require.Never(t, func() bool { return st.Lifecycle() == state.Started }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestRecentLogsCapturesOutput(t *testing.T) {
	script := writeFakeServer(t, `echo hello-from-backend
echo '[Server thread/INFO]: Done (1.0s)!'
sleep 0.2`)
	sup, st := testSupervisor(t, script)
	require.NoError(t, sup.Start(context.Background()))
	waitForLifecycle(t, st, state.Started, 2*time.Second)

	found := false
	for _, line := range sup.RecentLogs() {
		if line == "hello-from-backend" {
			found = true
		}
	}
	require.True(t, found)
}
