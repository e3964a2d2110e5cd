// Package keepalive drives the remote page's connection UI: it classifies
// the streaming connection status, cycles Disconnect/Connect to recover a
// dropped connection, defeats the interaction-blocking overlay with
// plausible pointer motion, and performs periodic no-op interaction so the
// remote session never considers the client idle.
//
// Every operation treats automation failure (missing elements, visibility
// timeouts, stale frames) as an expected outcome: it degrades to a sentinel
// value and logs, never returning an error to the caller.
package keepalive

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/camofleet/camofleet/pkg/driver"
	"github.com/camofleet/camofleet/pkg/logging"
)

// Monitor runs keep-alive operations against one page.
type Monitor struct {
	drv    driver.Driver
	params Params
	log    *logging.Logger
	rng    *rand.Rand
	sleep  func(time.Duration)
}

// New creates a monitor for the given page driver.
func New(drv driver.Driver, params Params, log *logging.Logger) *Monitor {
	return &Monitor{
		drv:    drv,
		params: params,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}
}

// SetRand replaces the randomness source. Tests use a seeded source to make
// pointer walks deterministic.
func (m *Monitor) SetRand(rng *rand.Rand) {
	m.rng = rng
}

// SetSleep replaces the sleep function. Tests substitute a no-op recorder.
func (m *Monitor) SetSleep(sleep func(time.Duration)) {
	m.sleep = sleep
}

// frameSelector is the page-level selector for the preview frame element.
func (m *Monitor) frameSelector() string {
	return fmt.Sprintf(`iframe[title=%q]`, m.params.FrameTitle)
}

// ClassifyStatus reads the connection status indicator inside the preview
// frame. Any failure to locate or read the indicator collapses to
// StatusUnknown.
func (m *Monitor) ClassifyStatus() Status {
	frame, ok := m.drv.NestedFrame(m.params.FrameTitle)
	if !ok {
		m.log.Debugf("Preview frame not found while classifying status")
		return StatusUnknown
	}

	indicator, ok := frame.Locate(m.params.StatusSelector)
	if !ok {
		m.log.Debugf("Status indicator not present in preview frame")
		return StatusUnknown
	}
	if !indicator.VisibleWithin(m.params.StatusTimeout) {
		m.log.Debugf("Status indicator not visible within %s", m.params.StatusTimeout)
		return StatusUnknown
	}

	text, ok := indicator.Text()
	if !ok {
		m.log.Debugf("Failed to read status indicator text")
		return StatusUnknown
	}

	return classifyText(text)
}

// Toggle clicks the named connection control inside the preview frame and
// waits a fixed settle delay. Returns false if the control is absent, not
// visible in time, or the click fails.
func (m *Monitor) Toggle(action Action) bool {
	frame, ok := m.drv.NestedFrame(m.params.FrameTitle)
	if !ok {
		m.log.Warnf("Preview frame not found, cannot click %s", action)
		return false
	}

	selector := fmt.Sprintf(`button:has-text(%q)`, string(action))
	button, ok := frame.Locate(selector)
	if !ok {
		m.log.Warnf("No %s button found", action)
		return false
	}
	if !button.VisibleWithin(m.params.ToggleVisibleTimeout) {
		m.log.Warnf("%s button not visible within %s", action, m.params.ToggleVisibleTimeout)
		return false
	}

	if err := button.Click(m.params.ToggleClickTimeout); err != nil {
		m.log.Warnf("Failed to click %s button: %v", action, err)
		return false
	}

	m.log.Infof("Clicked %s button", action)
	m.sleep(m.params.ToggleSettle)
	return true
}

// Reconnect runs the full disconnect/connect cycle and returns the last
// observed status. It never fails: a timeout simply reports whatever status
// was last sampled, leaving retries to the caller. The cycle always runs in
// full, even if the connection already reports CONNECTED.
func (m *Monitor) Reconnect() Status {
	m.log.Infof("Starting reconnect cycle: Disconnect -> Connect")

	// Best-effort: a lingering overlay swallows the button clicks below.
	m.DismissOverlay()

	m.Toggle(ActionDisconnect)
	m.sleep(m.params.ReconnectSettle)

	status := m.ClassifyStatus()
	m.log.Infof("Status after disconnect: %s", status)

	m.Toggle(ActionConnect)
	m.sleep(m.params.ReconnectSettle)

	attempts := int(m.params.ConnectTimeout / m.params.ConnectPoll)
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		status = m.ClassifyStatus()
		if status == StatusConnected {
			m.log.Infof("Reconnected, status: %s", status)
			return status
		}
		m.sleep(m.params.ConnectPoll)
	}

	m.log.Warnf("Reconnect timed out, last status: %s", status)
	return status
}

// DismissOverlay detects the interaction-blocking overlay and tries to
// dismiss it by moving the pointer through a bounded random walk inside the
// preview frame. A single synthetic event does not dismiss it; the overlay
// watches for sustained, plausible motion. Returns true on the first step
// where the overlay is observed gone, false if it survives every step or
// the frame cannot be measured.
func (m *Monitor) DismissOverlay() bool {
	overlay, ok := m.drv.Locate(m.params.OverlaySelector)
	if !ok || !overlay.VisibleWithin(m.params.OverlayCheckTimeout) {
		return false
	}

	m.log.Infof("Interaction overlay detected, attempting dismissal")

	box, ok := m.drv.BoundingBox(m.frameSelector())
	if !ok {
		m.log.Debugf("Preview frame not measurable, cannot dismiss overlay")
		return false
	}

	inset := m.params.OverlayStartInset
	if box.Width <= 2*inset || box.Height <= 2*inset {
		m.log.Debugf("Preview frame too small for overlay walk (%gx%g)", box.Width, box.Height)
		return false
	}

	x := box.X + float64(m.randBetween(int(inset), int(box.Width-inset)))
	y := box.Y + float64(m.randBetween(int(inset), int(box.Height-inset)))

	margin := m.params.OverlayEdgeMargin
	for step := 0; step < m.params.OverlayMaxSteps; step++ {
		x = clamp(x+float64(m.randBetween(-m.params.StepX, m.params.StepX)), box.X+margin, box.X+box.Width-margin)
		y = clamp(y+float64(m.randBetween(-m.params.StepY, m.params.StepY)), box.Y+margin, box.Y+box.Height-margin)

		if err := m.drv.MovePointer(x, y); err != nil {
			m.log.Debugf("Pointer move failed during overlay walk: %v", err)
			return false
		}
		m.sleep(m.params.MoveDelay)

		overlay, ok = m.drv.Locate(m.params.OverlaySelector)
		if !ok || !overlay.VisibleWithin(m.params.OverlayStepTimeout) {
			m.log.Infof("Interaction overlay dismissed after %d steps", step+1)
			return true
		}
	}

	m.log.Warnf("Interaction overlay still present after %d steps", m.params.OverlayMaxSteps)
	return false
}

// IdleInteraction moves the pointer through a short random walk confined to
// a safe interior region of the preview frame and clicks once at the final
// position. The safe region excludes the top band (status and controls) and
// the right band (action buttons) so the interaction never disturbs
// functional UI. Returns false if the frame cannot be measured or the safe
// region is degenerate.
func (m *Monitor) IdleInteraction() bool {
	box, ok := m.drv.BoundingBox(m.frameSelector())
	if !ok {
		m.log.Debugf("Preview frame not measurable, skipping idle interaction")
		return false
	}

	safeLeft := box.X + m.params.SafeInsetLeft
	safeRight := box.X + box.Width - m.params.SafeInsetRight
	safeTop := box.Y + m.params.SafeInsetTop
	safeBottom := box.Y + box.Height - m.params.SafeInsetBottom

	if safeRight <= safeLeft || safeBottom <= safeTop {
		m.log.Debugf("Safe region degenerate, skipping idle interaction")
		return false
	}

	x := float64(m.randBetween(int(safeLeft), int(safeRight)))
	y := float64(m.randBetween(int(safeTop), int(safeBottom)))

	moves := m.randBetween(m.params.IdleMovesMin, m.params.IdleMovesMax)
	for i := 0; i < moves; i++ {
		x = clamp(x+float64(m.randBetween(-m.params.StepX, m.params.StepX)), safeLeft, safeRight)
		y = clamp(y+float64(m.randBetween(-m.params.StepY, m.params.StepY)), safeTop, safeBottom)

		if err := m.drv.MovePointer(x, y); err != nil {
			m.log.Debugf("Pointer move failed during idle interaction: %v", err)
			return false
		}
		m.sleep(m.params.MoveDelay)
	}

	if err := m.drv.ClickAt(x, y); err != nil {
		m.log.Debugf("Idle click failed: %v", err)
		return false
	}
	return true
}

// randBetween returns a uniform random int in [min, max].
func (m *Monitor) randBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + m.rng.Intn(max-min+1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
