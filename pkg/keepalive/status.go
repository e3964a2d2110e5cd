package keepalive

import "strings"

// Status is the connection state read from the preview frame's indicator.
// It is derived fresh on every poll and never persisted.
type Status string

const (
	// StatusConnected means the streaming connection is up.
	StatusConnected Status = "CONNECTED"

	// StatusIdle means the connection was dropped and the UI is idle.
	StatusIdle Status = "IDLE"

	// StatusConnecting means a connection attempt is in flight.
	StatusConnecting Status = "CONNECTING"

	// StatusUnknown means the indicator could not be read. Treated as a
	// retryable condition, not an error.
	StatusUnknown Status = "UNKNOWN"
)

// classifyText maps indicator text onto a Status. Matching is
// case-insensitive and tolerant of surrounding text ("WS: CONNECTED").
func classifyText(text string) Status {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, string(StatusConnected)):
		return StatusConnected
	case strings.Contains(upper, string(StatusIdle)):
		return StatusIdle
	case strings.Contains(upper, string(StatusConnecting)):
		return StatusConnecting
	default:
		return StatusUnknown
	}
}

// Action names a connection control inside the preview frame.
type Action string

const (
	// ActionDisconnect drops the streaming connection.
	ActionDisconnect Action = "Disconnect"

	// ActionConnect re-establishes the streaming connection.
	ActionConnect Action = "Connect"
)
