// Package orchestrator turns a sequence of worker configurations into a
// supervised pool: staggered launches, periodic liveness sweeps, and a
// two-phase graceful-then-forced shutdown. Cancellation arrives through a
// context rather than ambient global state; the handle set is only ever
// mutated under its mutex.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/camofleet/camofleet/pkg/config"
	"github.com/camofleet/camofleet/pkg/logging"
	"github.com/camofleet/camofleet/pkg/worker"
)

// Handle is the supervision surface of a launched worker.
type Handle interface {
	Name() string
	Alive() bool
	Terminate()
	Join(timeout time.Duration) bool
	Kill()
}

// Launcher starts a worker for one configuration and returns its handle.
type Launcher func(ctx context.Context, cfg worker.Config) Handle

// NewWorkerLauncher returns the production launcher backed by pkg/worker.
func NewWorkerLauncher(tuning config.Tuning, log *logging.Logger) Launcher {
	return func(ctx context.Context, cfg worker.Config) Handle {
		return worker.Start(ctx, worker.New(cfg, tuning, log))
	}
}

// Health is a read-only snapshot of the pool for health reporting.
type Health struct {
	Launched int `json:"browser_instances"`
	Alive    int `json:"running_instances"`
}

// Orchestrator supervises a pool of workers.
type Orchestrator struct {
	launch Launcher
	tuning config.Tuning
	log    *logging.Logger

	// sweepInterval and liveJoinTimeout shape the supervision loop;
	// tests shrink them.
	sweepInterval   time.Duration
	liveJoinTimeout time.Duration

	mu       sync.Mutex
	handles  []Handle
	launched int
}

// New creates an orchestrator using the given launcher.
func New(launch Launcher, tuning config.Tuning, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		launch:          launch,
		tuning:          tuning,
		log:             log,
		sweepInterval:   time.Second,
		liveJoinTimeout: time.Second,
	}
}

// LaunchAll starts one worker per configuration, in order, with a fixed
// stagger between successive launches. The stagger spreads out the CPU,
// memory, and connection spikes of browser startup; it is not a correctness
// requirement. Launching stops early if the context is canceled.
//
// Configurations missing a target URL are skipped with a warning. Zero
// usable configurations is a hard error: there would be nothing to
// supervise.
func (o *Orchestrator) LaunchAll(ctx context.Context, configs []worker.Config) (int, error) {
	usable := make([]worker.Config, 0, len(configs))
	for _, cfg := range configs {
		if cfg.TargetURL == "" {
			o.log.Warnf("Skipping worker config %q: missing target URL", cfg.DisplayName)
			continue
		}
		usable = append(usable, cfg)
	}

	if len(usable) == 0 {
		return 0, fmt.Errorf("no usable worker configurations")
	}

	for i, cfg := range usable {
		if ctx.Err() != nil {
			o.log.Infof("Launch sequence interrupted after %d of %d workers", i, len(usable))
			break
		}

		o.log.Infof("Launching worker %d/%d (%s)", i+1, len(usable), cfg.DisplayName)
		h := o.launch(ctx, cfg)

		o.mu.Lock()
		o.handles = append(o.handles, h)
		o.launched++
		o.mu.Unlock()

		if i < len(usable)-1 {
			o.log.Infof("Waiting %s before launching next worker", o.tuning.LaunchStagger.Std())
			if !o.staggerWait(ctx) {
				break
			}
		}
	}

	o.mu.Lock()
	launched := o.launched
	o.mu.Unlock()
	return launched, nil
}

// staggerWait sleeps for the launch stagger, returning false if the context
// was canceled first.
func (o *Orchestrator) staggerWait(ctx context.Context) bool {
	timer := time.NewTimer(o.tuning.LaunchStagger.Std())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Supervise sweeps the pool until every worker has finished or the context
// is canceled. Each sweep removes handles that are no longer alive and
// briefly joins the live ones; no single worker can block the sweep.
func (o *Orchestrator) Supervise(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		handles := o.snapshotHandles()
		if len(handles) == 0 {
			o.log.Infof("All workers finished, supervision loop exiting")
			return
		}

		for _, h := range handles {
			if !h.Alive() {
				o.log.Infof("Worker %s exited, removing from pool", h.Name())
				o.removeHandle(h)
				continue
			}
			h.Join(o.liveJoinTimeout)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.sweepInterval):
		}
	}
}

// Shutdown terminates every remaining worker: a graceful terminate with a
// bounded join first, then a forced kill for stragglers. Idempotent; the
// handle set is empty afterwards.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	handles := o.handles
	o.handles = nil
	o.mu.Unlock()

	if len(handles) == 0 {
		return
	}
	o.log.Infof("Shutting down %d workers", len(handles))

	for _, h := range handles {
		h.Terminate()
	}

	grace := o.tuning.ShutdownGrace.Std()
	for _, h := range handles {
		if h.Join(grace) {
			continue
		}
		o.log.Warnf("Worker %s did not stop within %s, forcing", h.Name(), grace)
		h.Kill()
		h.Join(grace)
	}

	o.log.Infof("All workers shut down")
}

// Snapshot reports the pool's aggregate health. Read-only.
func (o *Orchestrator) Snapshot() Health {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Health{
		Launched: o.launched,
		Alive:    lo.CountBy(o.handles, func(h Handle) bool { return h.Alive() }),
	}
}

func (o *Orchestrator) snapshotHandles() []Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Handle(nil), o.handles...)
}

func (o *Orchestrator) removeHandle(target Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handles = lo.Filter(o.handles, func(h Handle, _ int) bool { return h != target })
}
