package backend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/rcon"
	"github.com/slumberproxy/slumber/internal/state"
)

// crashCooldown is the minimum time between automatic restart attempts
// after a crash, so a server that crashes on every boot doesn't spin.
const crashCooldown = 10 * time.Second

// Monitor drives the idle-sleep and crash-recovery policy by polling
// ServerState on a fixed tick. It is the sole caller of Freeze, of the
// crash-triggered restart and of the idle-driven Supervisor.Stop (the
// start command calls Stop once more on shutdown), keeping "what decides
// to sleep" separate from "how the process is stopped".
type Monitor struct {
	cfg  *config.Config
	st   *state.ServerState
	sup  *Supervisor
	rc   func() *rcon.Client // returns the current rcon client, or nil
	log  *zap.Logger
	tick time.Duration

	lastPoll time.Time
}

// NewMonitor constructs a Monitor. rc supplies the current RCON client
// (if rcon.enabled) lazily, since it may be dialed and redialed over the
// supervisor's lifetime.
func NewMonitor(cfg *config.Config, st *state.ServerState, sup *Supervisor, rc func() *rcon.Client, log *zap.Logger) *Monitor {
	return &Monitor{cfg: cfg, st: st, sup: sup, rc: rc, log: log, tick: time.Second}
}

// Run blocks, polling until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	lc := m.st.Lifecycle()

	switch lc {
	case state.Crashed:
		m.maybeRestartAfterCrash(ctx)
	case state.Started:
		m.pollPlayerCount()
		m.maybeSleep(ctx, lc)
	case state.Frozen:
		m.maybeSleep(ctx, lc)
	}
}

// pollPlayerCount re-queries the backend's status port at most once per
// time.poll_interval (spec §4.3: "a periodic tick ... polls the
// backend's status port, updates player_count"), so a connected player
// who never disconnects still keeps last_active moving and the sleep
// timer from elapsing underneath them.
func (m *Monitor) pollPlayerCount() {
	interval := m.cfg.Time.PollIntervalDuration()
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if time.Since(m.lastPoll) < interval {
		return
	}
	m.lastPoll = time.Now()

	if err := PollPlayerCount(m.cfg, m.st, 2*time.Second); err != nil {
		m.log.Debug("status port poll failed", zap.Error(err))
	}
}

func (m *Monitor) maybeRestartAfterCrash(ctx context.Context) {
	if !m.cfg.Server.WakeOnCrash {
		return
	}
	if time.Since(m.sup.LastCrash()) < crashCooldown {
		return
	}
	m.log.Info("restarting backend after crash", zap.Int("crash_count", m.sup.CrashCount()))
	if err := m.sup.Start(ctx); err != nil {
		m.log.Error("restart after crash failed", zap.Error(err))
	}
}

func (m *Monitor) maybeSleep(ctx context.Context, lc state.Lifecycle) {
	if m.st.ForceOnline() {
		return
	}
	if m.st.PlayerCount() > 0 {
		return
	}
	if m.st.IdleFor() < m.cfg.Time.SleepAfterDuration() {
		return
	}

	if m.cfg.Server.FreezeProcess && freezeSupported {
		if lc == state.Started {
			if err := m.sup.Freeze(); err != nil {
				m.log.Error("idle freeze failed", zap.Error(err))
			}
		}
		return
	}

	if lc == state.Frozen {
		// freeze_process was toggled off mid-run; thaw before stopping
		// so Stop can talk to a live process.
		if err := m.sup.Thaw(); err != nil {
			m.log.Error("thaw before stop failed", zap.Error(err))
			return
		}
	}

	m.log.Info("backend idle, stopping", zap.Duration("idle_for", m.st.IdleFor()))
	var client *rcon.Client
	if m.rc != nil {
		client = m.rc()
	}
	if err := m.sup.Stop(ctx, client); err != nil {
		m.log.Error("idle stop failed", zap.Error(err))
	}
}

// WakeIfAsleep starts (or thaws) the backend on demand, used by the
// session server when a Login arrives, by wake_on_start at startup, and
// by the control endpoint's /wake.
func (m *Monitor) WakeIfAsleep(ctx context.Context) error {
	switch m.st.Lifecycle() {
	case state.Stopped, state.Crashed:
		return m.sup.Start(ctx)
	case state.Frozen:
		return m.sup.Thaw()
	default:
		return nil
	}
}
