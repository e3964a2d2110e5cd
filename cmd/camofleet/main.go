// Command camofleet launches and supervises a fleet of browser instances,
// one per detected cookie source, each keeping its page's streaming
// connection alive. In server mode it additionally exposes a health
// endpoint reporting how many instances are running.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/errgroup"

	"github.com/camofleet/camofleet/pkg/config"
	"github.com/camofleet/camofleet/pkg/cookies"
	"github.com/camofleet/camofleet/pkg/health"
	"github.com/camofleet/camofleet/pkg/logging"
	"github.com/camofleet/camofleet/pkg/orchestrator"
	"github.com/camofleet/camofleet/pkg/worker"
)

func main() {
	log, logErr := logging.NewLogger("main")
	defer log.Close()
	if logErr == nil {
		fmt.Fprintf(os.Stderr, "camofleet logging to %s\n", log.LogPath())
	}

	if err := run(log); err != nil {
		log.Errorf("Startup failed: %v", err)
		fmt.Fprintf(os.Stderr, "camofleet: %v\n", err)
		os.Exit(1)
	}
}

func run(log *logging.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}

	log.Infof("--------------------- camofleet starting ---------------------")
	log.Infof("Target URL: %s, headless: %s, run mode: %s", cfg.TargetURL, cfg.HeadlessMode(), cfg.RunMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One driver/browser download for the whole fleet; workers start their
	// own driver processes afterwards.
	if err := playwright.Install(&playwright.RunOptions{
		Verbose:  false,
		Browsers: []string{"firefox"},
		Stdout:   log.Writer(),
		Stderr:   log.Writer(),
	}); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	configs, err := resolveWorkerConfigs(cfg, log)
	if err != nil {
		return err
	}
	log.Infof("Resolved %d worker configurations", len(configs))

	workerLog, _ := logging.NewLogger("worker")
	defer workerLog.Close()
	orch := orchestrator.New(orchestrator.NewWorkerLauncher(tuning, workerLog), tuning, log)

	if cfg.RunMode == config.RunModeServer {
		return runServer(ctx, stop, cfg, orch, configs, log)
	}
	return runStandalone(ctx, orch, configs)
}

// resolveWorkerConfigs detects every cookie source and derives one worker
// configuration per source. Zero sources is a hard startup failure.
func resolveWorkerConfigs(cfg *config.Config, log *logging.Logger) ([]worker.Config, error) {
	manager := cookies.NewManager(cfg.CookiesDir, log)
	sources := manager.DetectAllSources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("no cookie sources found: provide JSON files in %s or USER_COOKIE_<n> env vars", cfg.CookiesDir)
	}

	configs := make([]worker.Config, 0, len(sources))
	for _, source := range sources {
		configs = append(configs, worker.Config{
			TargetURL:   cfg.TargetURL,
			Headless:    cfg.HeadlessMode(),
			Proxy:       cfg.Proxy,
			Source:      source,
			DisplayName: source.DisplayName,
		})
	}
	return configs, nil
}

// runStandalone launches the fleet and supervises it until every worker
// exits or a termination signal arrives.
func runStandalone(ctx context.Context, orch *orchestrator.Orchestrator, configs []worker.Config) error {
	if _, err := orch.LaunchAll(ctx, configs); err != nil {
		return err
	}
	orch.Supervise(ctx)
	orch.Shutdown()
	return nil
}

// runServer runs the fleet alongside an HTTP health server.
func runServer(ctx context.Context, stop context.CancelFunc, cfg *config.Config,
	orch *orchestrator.Orchestrator, configs []worker.Config, log *logging.Logger) error {

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: health.NewRouter(orch),
	}

	go func() {
		log.Infof("Health server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Health server failed: %v", err)
			stop()
		}
	}()

	fleetErr := make(chan error, 1)
	go func() {
		if _, err := orch.LaunchAll(ctx, configs); err != nil {
			fleetErr <- err
			return
		}
		orch.Supervise(ctx)
		fleetErr <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Infof("Shutdown signal received")
	case runErr = <-fleetErr:
		if runErr == nil {
			log.Infof("All workers finished")
		}
	}

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		orch.Shutdown()
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warnf("Shutdown incomplete: %v", err)
	}

	return runErr
}
