// Package worker owns one browser session end-to-end: it launches a
// dedicated Playwright driver process and browser, applies the worker's
// cookie source, navigates to the shared target URL, and runs the
// keep-alive loop until canceled.
package worker

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/playwright-community/playwright-go"

	"github.com/camofleet/camofleet/pkg/config"
	"github.com/camofleet/camofleet/pkg/cookies"
	"github.com/camofleet/camofleet/pkg/driver"
	"github.com/camofleet/camofleet/pkg/keepalive"
	"github.com/camofleet/camofleet/pkg/logging"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720

	navigationTimeout  = 60 * time.Second
	navigationAttempts = 3
	navigationDelay    = 5 * time.Second
)

// Config is the immutable per-worker configuration. One instance exists per
// detected cookie source; it is owned exclusively by its worker.
type Config struct {
	// TargetURL is the page every worker drives.
	TargetURL string

	// Headless selects the browser window mode.
	Headless config.HeadlessMode

	// Proxy is an optional proxy server URL.
	Proxy string

	// Source is the credential source backing this worker.
	Source cookies.Source

	// DisplayName identifies the worker in logs and health output.
	DisplayName string
}

// keepAliver is the slice of the keep-alive monitor the worker loop needs.
// Narrowed to an interface so the loop is testable without a browser.
type keepAliver interface {
	ClassifyStatus() keepalive.Status
	Reconnect() keepalive.Status
	IdleInteraction() bool
}

// Worker drives one browser session.
type Worker struct {
	cfg    Config
	tuning config.Tuning
	log    *logging.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// New creates a worker for the given configuration.
func New(cfg Config, tuning config.Tuning, log *logging.Logger) *Worker {
	return &Worker{cfg: cfg, tuning: tuning, log: log}
}

// Run initializes the browser session and runs the keep-alive loop until the
// context is canceled. Initialization failure (browser cannot launch, page
// never loads) is returned as an error and the worker does not retry itself;
// restart policy belongs to the orchestrator. Cancellation is a normal
// outcome and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	page, err := w.initialize(ctx)
	if err != nil {
		w.closeResources()
		w.log.Errorf("Worker %s: initialization failed: %v", w.cfg.DisplayName, err)
		return fmt.Errorf("worker %s: initialization failed: %w", w.cfg.DisplayName, err)
	}
	defer w.closeResources()

	monitor := keepalive.New(driver.NewPageDriver(page), keepalive.DefaultParams(), w.log)
	w.log.Infof("Worker %s initialized, entering keep-alive loop", w.cfg.DisplayName)

	w.loop(ctx, monitor)
	w.log.Infof("Worker %s stopped", w.cfg.DisplayName)
	return nil
}

// initialize launches a dedicated Playwright driver process and browser,
// applies cookies, and navigates to the target URL with bounded retries.
func (w *Worker) initialize(ctx context.Context) (playwright.Page, error) {
	pw, err := playwright.Run(&playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	w.setResources(pw, nil)

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(w.cfg.Headless == config.HeadlessOn),
	}
	if w.cfg.Proxy != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: w.cfg.Proxy}
	}

	browser, err := pw.Firefox.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	w.setResources(pw, browser)

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  defaultViewportWidth,
			Height: defaultViewportHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := w.applyCookies(browserCtx); err != nil {
		return nil, err
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	err = retry.New(
		retry.Attempts(navigationAttempts),
		retry.Delay(navigationDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		_, err := page.Goto(w.cfg.TargetURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(navigationTimeout.Milliseconds())),
		})
		if err != nil {
			w.log.Warnf("Worker %s: navigation attempt failed: %v", w.cfg.DisplayName, err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", w.cfg.TargetURL, err)
	}

	return page, nil
}

// applyCookies loads the worker's cookie source into the browser context.
func (w *Worker) applyCookies(browserCtx playwright.BrowserContext) error {
	defaultDomain := ""
	if parsed, err := url.Parse(w.cfg.TargetURL); err == nil {
		defaultDomain = cookies.DomainForHost(parsed.Hostname())
	}

	loaded, err := w.cfg.Source.Load(defaultDomain, w.log)
	if err != nil {
		return fmt.Errorf("failed to load cookie source %s: %w", w.cfg.Source.DisplayName, err)
	}
	if len(loaded) == 0 {
		return fmt.Errorf("cookie source %s produced no usable cookies", w.cfg.Source.DisplayName)
	}

	if err := browserCtx.AddCookies(loaded); err != nil {
		return fmt.Errorf("failed to apply cookies: %w", err)
	}

	w.log.Infof("Worker %s: applied %d cookies from %s", w.cfg.DisplayName, len(loaded), w.cfg.Source.DisplayName)
	return nil
}

// loop runs keep-alive ticks until the context is canceled. Each tick
// classifies the connection status, reconnects once the status has been
// non-connected for longer than the grace period, and performs one idle
// interaction.
func (w *Worker) loop(ctx context.Context, ka keepAliver) {
	ticker := time.NewTicker(w.tuning.TickInterval.Std())
	defer ticker.Stop()

	lastConnected := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status := ka.ClassifyStatus()
		if status == keepalive.StatusConnected {
			lastConnected = time.Now()
		} else {
			w.log.Debugf("Worker %s: status %s", w.cfg.DisplayName, status)
			if time.Since(lastConnected) > w.tuning.DisconnectedGrace.Std() {
				w.log.Warnf("Worker %s: not connected for over %s, reconnecting",
					w.cfg.DisplayName, w.tuning.DisconnectedGrace.Std())
				if ka.Reconnect() == keepalive.StatusConnected {
					lastConnected = time.Now()
				}
			}
		}

		ka.IdleInteraction()
	}
}

func (w *Worker) setResources(pw *playwright.Playwright, browser playwright.Browser) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pw = pw
	w.browser = browser
}

// closeResources tears down the browser and driver process. Safe to call
// multiple times and from a goroutine other than Run's: forced shutdown
// uses it to unblock a hung session.
func (w *Worker) closeResources() {
	w.mu.Lock()
	browser := w.browser
	pw := w.pw
	w.browser = nil
	w.pw = nil
	w.mu.Unlock()

	if browser != nil {
		if err := browser.Close(); err != nil {
			w.log.Debugf("Worker %s: browser close: %v", w.cfg.DisplayName, err)
		}
	}
	if pw != nil {
		if err := pw.Stop(); err != nil {
			w.log.Debugf("Worker %s: playwright stop: %v", w.cfg.DisplayName, err)
		}
	}
}
