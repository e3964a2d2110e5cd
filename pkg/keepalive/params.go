package keepalive

import "time"

// Params collects every selector, margin, and timeout the keep-alive
// machinery uses. Defaults match the remote UI this fleet was built for;
// tests shrink the timings.
type Params struct {
	// FrameTitle is the title of the iframe hosting the connection UI.
	FrameTitle string

	// OverlaySelector matches the interaction-blocking overlay.
	OverlaySelector string

	// StatusSelector matches the connection status indicator text.
	StatusSelector string

	// StatusTimeout bounds the visibility wait for the status indicator.
	StatusTimeout time.Duration

	// ToggleVisibleTimeout bounds the visibility wait for action buttons.
	ToggleVisibleTimeout time.Duration

	// ToggleClickTimeout bounds the click on an action button.
	ToggleClickTimeout time.Duration

	// ToggleSettle is the fixed pause after a successful toggle click.
	ToggleSettle time.Duration

	// ReconnectSettle is the pause after each half of the reconnect cycle.
	ReconnectSettle time.Duration

	// ConnectPoll is the status sampling interval while waiting to connect.
	ConnectPoll time.Duration

	// ConnectTimeout bounds the whole wait for CONNECTED after a reconnect.
	ConnectTimeout time.Duration

	// OverlayCheckTimeout bounds the initial overlay visibility probe.
	OverlayCheckTimeout time.Duration

	// OverlayStepTimeout bounds the per-step overlay recheck.
	OverlayStepTimeout time.Duration

	// OverlayMaxSteps caps the random-walk length when dismissing the overlay.
	OverlayMaxSteps int

	// OverlayStartInset keeps the walk's starting point away from the
	// frame's edges.
	OverlayStartInset float64

	// OverlayEdgeMargin is the interior margin the walk is clamped to,
	// avoiding accidental edge activation.
	OverlayEdgeMargin float64

	// StepX and StepY bound a single random-walk step (± in page units).
	StepX int
	StepY int

	// MoveDelay is the pause between pointer moves.
	MoveDelay time.Duration

	// Safe-region insets for idle interaction: the top band holds the
	// status indicator and controls, the right band holds action buttons.
	SafeInsetLeft   float64
	SafeInsetRight  float64
	SafeInsetTop    float64
	SafeInsetBottom float64

	// IdleMovesMin and IdleMovesMax bound the number of pointer moves in
	// one idle interaction.
	IdleMovesMin int
	IdleMovesMax int
}

// DefaultParams returns the production parameters.
func DefaultParams() Params {
	return Params{
		FrameTitle:      "Preview",
		OverlaySelector: "div.interaction-modal",
		StatusSelector:  `text=/WS:\s*(CONNECTED|IDLE|CONNECTING)/i`,

		StatusTimeout:        3 * time.Second,
		ToggleVisibleTimeout: 3 * time.Second,
		ToggleClickTimeout:   5 * time.Second,
		ToggleSettle:         1 * time.Second,
		ReconnectSettle:      2 * time.Second,
		ConnectPoll:          1 * time.Second,
		ConnectTimeout:       15 * time.Second,

		OverlayCheckTimeout: 500 * time.Millisecond,
		OverlayStepTimeout:  100 * time.Millisecond,
		OverlayMaxSteps:     30,
		OverlayStartInset:   50,
		OverlayEdgeMargin:   20,

		StepX:     30,
		StepY:     20,
		MoveDelay: 50 * time.Millisecond,

		SafeInsetLeft:   50,
		SafeInsetRight:  200,
		SafeInsetTop:    80,
		SafeInsetBottom: 50,

		IdleMovesMin: 3,
		IdleMovesMax: 6,
	}
}
