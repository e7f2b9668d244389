// Package backend owns the lifecycle of the Minecraft server process:
// starting, stopping, freezing, crash detection and idle-driven sleep.
// The terminal-ownership pattern (stdio pipes, output-scanning goroutines,
// a WaitGroup gating process exit) follows the hibernation-style process
// wrapper common to this domain.
package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/errs"
	"github.com/slumberproxy/slumber/internal/rcon"
	"github.com/slumberproxy/slumber/internal/state"
)

// logBacklog is how many trailing backend log lines are kept for crash
// diagnostics, surfaced by the control endpoint and in crash log messages.
const logBacklog = 200

// Supervisor owns the single backend server process and drives its
// Lifecycle through the shared state.ServerState. Only the supervisor
// goroutine writes lifecycle transitions; everything else only reads
// them through state.Notifier.
type Supervisor struct {
	cfg    *config.Config
	state  *state.ServerState
	log    *zap.Logger
	rewrite PropertiesRewriter

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    io.ReadCloser
	stderr    io.ReadCloser
	wg        sync.WaitGroup
	startedAt time.Time

	logMu  sync.Mutex
	logBuf deque.Deque

	crashes        int
	lastCrash      time.Time
	stopRequested  bool
	startGen       int64
}

// PropertiesRewriter patches the backend's server.properties file before
// start, e.g. to force server-ip/server-port to match server.address.
type PropertiesRewriter interface {
	Rewrite(directory string, address string) error
}

// New constructs a Supervisor bound to cfg and shared state st.
func New(cfg *config.Config, st *state.ServerState, log *zap.Logger, rewrite PropertiesRewriter) *Supervisor {
	return &Supervisor{cfg: cfg, state: st, log: log, rewrite: rewrite}
}

// Start spawns the backend process if it is not already running.
// It transitions Stopped -> Starting and returns once the process has
// been launched; callers wait on state.Notifier for Started.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cmd != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.rewrite != nil && s.cfg.Advanced.RewriteServerProperties {
		if err := s.rewrite.Rewrite(s.cfg.Server.Directory, s.cfg.Server.Address); err != nil {
			return errs.Wrap(errs.KindFilesystem, fmt.Errorf("rewrite server.properties: %w", err))
		}
	}

	fields := strings.Fields(s.cfg.Server.Command)
	if len(fields) == 0 {
		return errs.Wrap(errs.KindConfig, fmt.Errorf("server.command is empty"))
	}

	cmd := exec.CommandContext(context.Background(), fields[0], fields[1:]...)
	cmd.Dir = s.cfg.Server.Directory
	setProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.Wrap(errs.KindBackend, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errs.Wrap(errs.KindBackend, err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errs.Wrap(errs.KindBackend, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.stdout = stdout
	s.stderr = stderr
	s.stdin = stdin
	s.stopRequested = false
	s.mu.Unlock()

	s.state.SetLifecycle(state.Starting)
	s.log.Info("starting backend server", zap.String("command", s.cfg.Server.Command))

	s.wg.Add(2)
	go s.scan(stdout, false)
	go s.scan(stderr, true)

	if err := cmd.Start(); err != nil {
		s.state.SetLifecycle(state.Stopped)
		return errs.Wrap(errs.KindBackend, fmt.Errorf("start backend: %w", err))
	}

	s.mu.Lock()
	s.startedAt = time.Now()
	s.startGen++
	gen := s.startGen
	s.mu.Unlock()

	go s.waitForExit()
	go s.enforceStartTimeout(gen, s.cfg.Server.StartTimeoutDuration())

	return nil
}

// enforceStartTimeout implements spec §4.3's "otherwise Starting ->
// Stopping and log failure": if the backend is still Starting once
// start_timeout elapses (no ready marker, no crash), the attempt is
// abandoned rather than left hanging forever. gen guards against a
// stale timer from an earlier Start call acting on a later one.
func (s *Supervisor) enforceStartTimeout(gen int64, timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	<-t.C

	s.mu.Lock()
	current := s.startGen
	s.mu.Unlock()
	if current != gen {
		return
	}

	if s.state.Lifecycle() != state.Starting {
		return
	}
	s.log.Error("backend did not become ready within start_timeout", zap.Duration("start_timeout", timeout))
	s.state.SetLifecycle(state.Stopping)
	if err := s.interrupt(); err != nil {
		s.log.Warn("failed to interrupt backend after start_timeout", zap.Error(err))
	}
}

// scan reads one pipe line by line, appending to the crash-diagnostic
// ring buffer and watching for the "Done" readiness marker.
func (s *Supervisor) scan(r io.Reader, isErr bool) {
	defer s.wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		s.appendLog(line)

		if isErr {
			s.log.Warn("backend stderr", zap.String("line", line))
			continue
		}
		s.log.Debug("backend stdout", zap.String("line", line))

		if s.state.Lifecycle() == state.Starting && strings.Contains(line, "Done (") {
			s.state.SetLifecycle(state.Started)
			s.state.Touch()
			s.log.Info("backend server is ready")
		}
	}
}

func (s *Supervisor) appendLog(line string) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.logBuf.PushBack(line)
	for s.logBuf.Len() > logBacklog {
		s.logBuf.PopFront()
	}
}

// RecentLogs returns up to logBacklog trailing backend log lines, oldest
// first, for crash diagnostics.
func (s *Supervisor) RecentLogs() []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	out := make([]string, s.logBuf.Len())
	for i := 0; i < s.logBuf.Len(); i++ {
		out[i] = s.logBuf.At(i).(string)
	}
	return out
}

// waitForExit blocks until the pipe scanners and the process itself
// have finished, then reconciles Lifecycle: Stopping -> Stopped (clean
// shutdown we asked for, or an exit status of 0 or 143) or anything
// else -> Crashed.
func (s *Supervisor) waitForExit() {
	s.wg.Wait()

	s.mu.Lock()
	cmd := s.cmd
	stopRequested := s.stopRequested
	s.mu.Unlock()

	err := cmd.Wait()

	s.mu.Lock()
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	s.stderr = nil
	s.mu.Unlock()

	cleanExit := err == nil
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 143 {
		cleanExit = true
	}
	if stopRequested || cleanExit || s.state.Lifecycle() == state.Stopping {
		s.state.SetLifecycle(state.Stopped)
		s.log.Info("backend server stopped")
		return
	}

	s.mu.Lock()
	s.crashes++
	s.lastCrash = time.Now()
	s.mu.Unlock()

	s.state.SetLifecycle(state.Crashed)
	s.log.Error("backend server exited unexpectedly", zap.Error(err))
}

// Stop requests a graceful shutdown, preferring RCON's "stop" command,
// then writing "stop" to the process's stdin, and falling back to a
// terminal signal only when neither is available or the stdin write
// fails. RCON is mandatory on Windows since there is no SIGTERM
// equivalent there.
func (s *Supervisor) Stop(ctx context.Context, rc *rcon.Client) error {
	s.mu.Lock()
	if s.cmd == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested = true
	stdin := s.stdin
	s.mu.Unlock()

	s.state.SetLifecycle(state.Stopping)

	if rc != nil {
		if err := rc.Stop(true); err == nil {
			return s.waitStopped(ctx)
		}
		s.log.Warn("rcon stop failed, falling back to stdin stop command")
	}

	if stdin != nil {
		if _, err := stdin.Write([]byte("stop\n")); err != nil {
			return s.interrupt()
		}
		return s.waitStopped(ctx)
	}

	return s.interrupt()
}

func (s *Supervisor) waitStopped(ctx context.Context) error {
	deadline := time.Now().Add(s.cfg.Server.StopTimeoutDuration())
	for time.Now().Before(deadline) {
		if s.state.Lifecycle() == state.Stopped {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	s.log.Warn("backend did not stop within timeout, interrupting")
	return s.interrupt()
}

func (s *Supervisor) interrupt() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return interruptProcess(cmd)
}

// IsRunning reports whether a child process is currently tracked.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// Uptime returns how long the current backend process has been running,
// zero if not running.
func (s *Supervisor) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return 0
	}
	return time.Since(s.startedAt)
}

// Freeze suspends the backend process with SIGSTOP instead of stopping
// it, when server.freeze_process is enabled. The process keeps its
// listening socket bound but stops consuming CPU; Thaw resumes it
// almost instantly, which is the point of freezing over a full restart.
func (s *Supervisor) Freeze() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return errs.Wrap(errs.KindBackend, fmt.Errorf("freeze: backend not running"))
	}
	if err := freeze(cmd.Process.Pid); err != nil {
		return errs.Wrap(errs.KindBackend, err)
	}
	s.state.SetLifecycle(state.Frozen)
	s.log.Info("backend server frozen")
	return nil
}

// Thaw resumes a previously frozen backend process.
func (s *Supervisor) Thaw() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return errs.Wrap(errs.KindBackend, fmt.Errorf("thaw: backend not running"))
	}
	if err := thaw(cmd.Process.Pid); err != nil {
		return errs.Wrap(errs.KindBackend, err)
	}
	s.state.SetLifecycle(state.Started)
	s.state.Touch()
	s.log.Info("backend server thawed")
	return nil
}

// CrashCount returns the number of crashes observed so far this run.
func (s *Supervisor) CrashCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crashes
}

// LastCrash returns the time of the most recent crash, zero if none.
func (s *Supervisor) LastCrash() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCrash
}
