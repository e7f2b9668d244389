package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"github.com/slumberproxy/slumber/internal/config"
	"github.com/slumberproxy/slumber/internal/state"
)

type fakeWaker struct {
	called bool
	err    error
}

func (f *fakeWaker) WakeIfAsleep(ctx context.Context) error {
	f.called = true
	return f.err
}

func TestHandleStatusReportsLifecycle(t *testing.T) {
	st := state.New()
	st.SetPlayerCount(3)
	srv := New(&config.Config{}, st, &fakeWaker{}, zaptest.NewLogger(t))

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI("/status")
	ctx.Init(&req, nil, nil)

	srv.handle(&ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.Contains(t, string(ctx.Response.Body()), `"player_count":3`)
}

func TestHandleWakeRequiresPost(t *testing.T) {
	st := state.New()
	waker := &fakeWaker{}
	srv := New(&config.Config{}, st, waker, zaptest.NewLogger(t))

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI("/wake")
	req.Header.SetMethod("GET")
	ctx.Init(&req, nil, nil)

	srv.handle(&ctx)

	require.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	require.False(t, waker.called)
}

func TestHandleWakePostSetsForceOnline(t *testing.T) {
	st := state.New()
	waker := &fakeWaker{}
	srv := New(&config.Config{}, st, waker, zaptest.NewLogger(t))

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI("/wake")
	req.Header.SetMethod("POST")
	ctx.Init(&req, nil, nil)

	srv.handle(&ctx)

	require.Equal(t, fasthttp.StatusAccepted, ctx.Response.StatusCode())
	require.True(t, waker.called)
	require.True(t, st.ForceOnline())
}
