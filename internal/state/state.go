// Package state holds the process-wide ServerState singleton shared
// between the listener's session tasks and the backend supervisor, per
// spec §3 and §5: readers many, writer one (the supervisor), guarded by
// a mutex plus a change-notification channel for waiters.
package state

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Lifecycle is the backend's current phase.
type Lifecycle int32

const (
	Stopped Lifecycle = iota
	Starting
	Started
	Stopping
	Crashed
	Frozen
)

func (l Lifecycle) String() string {
	switch l {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	case Crashed:
		return "crashed"
	case Frozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Discovered is the metadata the status prober learns from one
// status query against the backend, cached for the lifetime of the
// process (spec §4.4).
type Discovered struct {
	ProtocolVersion int32
	ServerVersion   string
	ForgeMods       []string
	DimensionCodec  []byte
	DimensionType   string
	Favicon         string
}

// ServerState is the process-wide singleton described in spec §3. The
// supervisor is its only writer for Lifecycle; every other field may be
// updated by whichever task observes it (the monitor for PlayerCount,
// any session task accepting a connection for LastActive).
type ServerState struct {
	mu sync.RWMutex

	lifecycle    atomic.Int32 // Lifecycle, read on every status response so it skips the mutex
	lastActive   time.Time
	playerCount  int
	discovered   *Discovered
	forceOnline  bool

	notifier *Notifier
}

// New returns a ServerState starting in Stopped, with its own notifier.
func New() *ServerState {
	s := &ServerState{
		lastActive: time.Now(),
		notifier:   NewNotifier(),
	}
	s.lifecycle.Store(int32(Stopped))
	return s
}

// Notifier returns the broadcast channel of lifecycle transitions.
func (s *ServerState) Notifier() *Notifier { return s.notifier }

// Lifecycle returns the current lifecycle value.
func (s *ServerState) Lifecycle() Lifecycle {
	return Lifecycle(s.lifecycle.Load())
}

// SetLifecycle transitions the lifecycle and publishes the change. Only
// the supervisor may call this (spec §3 invariant: "the supervisor is
// the only writer of lifecycle").
func (s *ServerState) SetLifecycle(l Lifecycle) {
	s.lifecycle.Store(int32(l))
	s.notifier.Publish(l)
}

// LastActive returns the timestamp of the most recently observed client
// activity.
func (s *ServerState) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Touch bumps LastActive to now, called on any accepted connection that
// proceeds to Login, when the backend becomes ready or is thawed, and
// when a status poll reports players online.
func (s *ServerState) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleFor returns how long the backend has gone without observed
// activity.
func (s *ServerState) IdleFor() time.Duration {
	return time.Since(s.LastActive())
}

// PlayerCount returns the best-known online count.
func (s *ServerState) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerCount
}

// SetPlayerCount updates the best-known online count from a backend
// status poll. Spec invariant: player_count > 0 => lifecycle = Started;
// callers (the monitor) must not call this outside that lifecycle.
func (s *ServerState) SetPlayerCount(n int) {
	s.mu.Lock()
	s.playerCount = n
	s.mu.Unlock()
}

// Discovered returns the prober's findings, or nil if none yet.
func (s *ServerState) Discovered() *Discovered {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discovered
}

// SetDiscovered stores the prober's findings.
func (s *ServerState) SetDiscovered(d *Discovered) {
	s.mu.Lock()
	s.discovered = d
	s.mu.Unlock()
}

// ForceOnline reports whether the force_online latch is set.
func (s *ServerState) ForceOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forceOnline
}

// SetForceOnline sets or clears the force_online latch (spec §3), used
// by external triggers; the optional admin endpoint's /wake call is the
// one that sets it.
func (s *ServerState) SetForceOnline(v bool) {
	s.mu.Lock()
	s.forceOnline = v
	s.mu.Unlock()
}
