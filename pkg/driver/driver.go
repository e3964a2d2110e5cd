// Package driver provides the page automation capability the keep-alive
// machinery runs against: nested-document lookup, element location and
// probing, and raw pointer input. The production implementation wraps a
// Playwright page; tests substitute fakes.
package driver

import "time"

// Rect is an element bounding box in page coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Element is a located element reference. All probes are best-effort: a
// stale or detached element reports not-visible rather than failing.
type Element interface {
	// VisibleWithin reports whether the element becomes visible within the
	// given timeout.
	VisibleWithin(timeout time.Duration) bool

	// Text returns the element's text content, or ok=false if it cannot
	// be read.
	Text() (text string, ok bool)

	// Click clicks the element, waiting up to timeout for actionability.
	Click(timeout time.Duration) error
}

// Frame is a document that can locate elements: either the top-level page
// or a nested frame within it.
type Frame interface {
	// Locate finds the first element matching the selector, or ok=false if
	// none is present.
	Locate(selector string) (el Element, ok bool)
}

// Driver is the full page automation surface.
type Driver interface {
	Frame

	// NestedFrame locates an embedded document by its iframe title.
	NestedFrame(title string) (frame Frame, ok bool)

	// BoundingBox measures the first element matching the selector.
	BoundingBox(selector string) (box Rect, ok bool)

	// MovePointer moves the pointer to page coordinates.
	MovePointer(x, y float64) error

	// ClickAt clicks at page coordinates.
	ClickAt(x, y float64) error
}
