package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle supervises one running worker. The orchestrator owns it: liveness
// polls, termination, and bounded joins all go through the handle rather
// than touching the worker directly.
type Handle struct {
	id     string
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	force  func()

	mu  sync.Mutex
	err error
}

// Start launches the worker in its own goroutine and returns its handle.
// The worker runs until its derived context is canceled or initialization
// fails.
func Start(ctx context.Context, w *Worker) *Handle {
	return startHandle(ctx, w.cfg.DisplayName, w.Run, w.closeResources)
}

func startHandle(ctx context.Context, name string, run func(context.Context) error, force func()) *Handle {
	workerCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.New().String(),
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
		force:  force,
	}

	go func() {
		defer close(h.done)
		err := run(workerCtx)
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
	}()

	return h
}

// ID returns the handle's unique identity.
func (h *Handle) ID() string {
	return h.id
}

// Name returns the worker's display name.
func (h *Handle) Name() string {
	return h.name
}

// Alive reports whether the worker is still running.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Terminate requests graceful termination by canceling the worker's context.
func (h *Handle) Terminate() {
	h.cancel()
}

// Join waits up to timeout for the worker to finish. Returns true if it
// finished within the timeout.
func (h *Handle) Join(timeout time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Kill force-closes the worker's browser resources, unblocking any hung
// automation call. Used after a graceful Terminate/Join has run out of
// patience.
func (h *Handle) Kill() {
	h.cancel()
	if h.force != nil {
		h.force()
	}
}

// Err returns the worker's exit error. Only meaningful once Alive reports
// false; nil means a clean (canceled) exit.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
