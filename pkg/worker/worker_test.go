package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camofleet/camofleet/pkg/config"
	"github.com/camofleet/camofleet/pkg/keepalive"
	"github.com/camofleet/camofleet/pkg/logging"
)

// fakeKeepAliver scripts status classifications and records calls.
type fakeKeepAliver struct {
	mu               sync.Mutex
	statuses         []keepalive.Status // consumed in order; last repeats
	reconnectResult  keepalive.Status
	classifications  int
	reconnects       int
	idleInteractions int
}

func (f *fakeKeepAliver) ClassifyStatus() keepalive.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifications++
	if len(f.statuses) == 0 {
		return keepalive.StatusUnknown
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status
}

func (f *fakeKeepAliver) Reconnect() keepalive.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	return f.reconnectResult
}

func (f *fakeKeepAliver) IdleInteraction() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idleInteractions++
	return true
}

func (f *fakeKeepAliver) counts() (classifications, reconnects, idles int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classifications, f.reconnects, f.idleInteractions
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, _ := logging.NewLogger("worker-test")
	t.Cleanup(func() { log.Close() })
	return log
}

func fastTuning() config.Tuning {
	return config.Tuning{
		TickInterval:      config.Duration(time.Millisecond),
		DisconnectedGrace: config.Duration(20 * time.Millisecond),
		LaunchStagger:     config.Duration(time.Millisecond),
		ShutdownGrace:     config.Duration(50 * time.Millisecond),
	}
}

func testWorker(t *testing.T) *Worker {
	t.Helper()
	cfg := Config{
		TargetURL:   "https://example.com",
		Headless:    config.HeadlessVirtual,
		DisplayName: "test-worker",
	}
	return New(cfg, fastTuning(), testLogger(t))
}

func TestLoopStopsOnCancel(t *testing.T) {
	w := testWorker(t)
	ka := &fakeKeepAliver{statuses: []keepalive.Status{keepalive.StatusConnected}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.loop(ctx, ka)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}

	classifications, _, idles := ka.counts()
	assert.Greater(t, classifications, 0, "loop should have ticked")
	assert.Greater(t, idles, 0, "each tick performs an idle interaction")
}

func TestLoopReconnectsAfterGrace(t *testing.T) {
	w := testWorker(t)
	ka := &fakeKeepAliver{
		statuses:        []keepalive.Status{keepalive.StatusIdle},
		reconnectResult: keepalive.StatusConnected,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	w.loop(ctx, ka)

	_, reconnects, _ := ka.counts()
	assert.Greater(t, reconnects, 0, "sustained non-connected status must trigger reconnect")
}

func TestLoopConnectedStatusNeverReconnects(t *testing.T) {
	w := testWorker(t)
	ka := &fakeKeepAliver{statuses: []keepalive.Status{keepalive.StatusConnected}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.loop(ctx, ka)

	_, reconnects, _ := ka.counts()
	assert.Zero(t, reconnects)
}

func TestLoopBriefDisconnectWithinGraceDoesNotReconnect(t *testing.T) {
	w := testWorker(t)
	// Grace far longer than the loop runtime: no reconnect despite UNKNOWN.
	w.tuning.DisconnectedGrace = config.Duration(time.Hour)
	ka := &fakeKeepAliver{statuses: []keepalive.Status{keepalive.StatusUnknown}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.loop(ctx, ka)

	_, reconnects, _ := ka.counts()
	assert.Zero(t, reconnects)
}

func TestHandleLifecycle(t *testing.T) {
	started := make(chan struct{})
	h := startHandle(context.Background(), "h1", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}, nil)

	<-started
	assert.True(t, h.Alive())
	assert.NotEmpty(t, h.ID())
	assert.Equal(t, "h1", h.Name())
	assert.False(t, h.Join(10*time.Millisecond), "join should time out while running")

	h.Terminate()
	require.True(t, h.Join(time.Second))
	assert.False(t, h.Alive())
	assert.NoError(t, h.Err())
}

func TestHandleReportsInitFailure(t *testing.T) {
	initErr := errors.New("page never loaded")
	h := startHandle(context.Background(), "h2", func(context.Context) error {
		return initErr
	}, nil)

	require.True(t, h.Join(time.Second))
	assert.False(t, h.Alive())
	assert.ErrorIs(t, h.Err(), initErr)
}

func TestHandleKillInvokesForceClose(t *testing.T) {
	forced := make(chan struct{})
	blocked := make(chan struct{})

	h := startHandle(context.Background(), "h3", func(ctx context.Context) error {
		// Simulates a hung automation call that ignores the context until
		// resources are force-closed.
		<-blocked
		return nil
	}, func() {
		close(forced)
		close(blocked)
	})

	h.Kill()
	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("Kill did not invoke force close")
	}
	require.True(t, h.Join(time.Second))
}

func TestHandleTerminateIsIdempotent(t *testing.T) {
	h := startHandle(context.Background(), "h4", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}, nil)

	h.Terminate()
	h.Terminate()
	require.True(t, h.Join(time.Second))
}
