package driver

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PageDriver implements Driver on top of a Playwright page.
type PageDriver struct {
	page playwright.Page
}

// NewPageDriver wraps a loaded Playwright page.
func NewPageDriver(page playwright.Page) *PageDriver {
	return &PageDriver{page: page}
}

// NestedFrame locates an embedded document by iframe title. The frame
// element must exist in the top-level document; content lookups inside it
// are deferred until elements are located.
func (d *PageDriver) NestedFrame(title string) (Frame, bool) {
	selector := fmt.Sprintf(`iframe[title=%q]`, title)

	count, err := d.page.Locator(selector).Count()
	if err != nil || count == 0 {
		return nil, false
	}
	return &frameLocator{frame: d.page.FrameLocator(selector)}, true
}

// Locate finds the first matching element in the top-level document.
func (d *PageDriver) Locate(selector string) (Element, bool) {
	loc := d.page.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return nil, false
	}
	return &locatorElement{loc: loc.First()}, true
}

// BoundingBox measures the first element matching the selector.
func (d *PageDriver) BoundingBox(selector string) (Rect, bool) {
	loc := d.page.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return Rect{}, false
	}

	box, err := loc.First().BoundingBox()
	if err != nil || box == nil {
		return Rect{}, false
	}
	return Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, true
}

// MovePointer moves the mouse to page coordinates.
func (d *PageDriver) MovePointer(x, y float64) error {
	return d.page.Mouse().Move(x, y)
}

// ClickAt clicks the mouse at page coordinates.
func (d *PageDriver) ClickAt(x, y float64) error {
	return d.page.Mouse().Click(x, y)
}

// frameLocator adapts a Playwright FrameLocator to the Frame interface.
type frameLocator struct {
	frame playwright.FrameLocator
}

func (f *frameLocator) Locate(selector string) (Element, bool) {
	loc := f.frame.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return nil, false
	}
	return &locatorElement{loc: loc.First()}, true
}

// locatorElement adapts a Playwright Locator to the Element interface.
type locatorElement struct {
	loc playwright.Locator
}

func (e *locatorElement) VisibleWithin(timeout time.Duration) bool {
	err := e.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

func (e *locatorElement) Text() (string, bool) {
	text, err := e.loc.TextContent()
	if err != nil {
		return "", false
	}
	return text, true
}

func (e *locatorElement) Click(timeout time.Duration) error {
	return e.loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}
