// Package browser wraps go-rod behind narrow interfaces so the login flow
// can drive a real Chrome process in production and mocks in tests.
package browser

import (
	"context"

	"github.com/go-rod/rod/lib/proto"
)

// Browser is one launched browser process owning one or more pages.
// It must be closed exactly once, regardless of how the flow ends.
type Browser interface {
	// NewPage creates a fresh page (tab) attached to the browser.
	NewPage() (Page, error)

	// Pages lists the currently open pages in the order the browser reports
	// them. The order may shift as tabs open and close; identity comparisons
	// must use Page.ID, never the position in this slice.
	Pages() ([]Page, error)

	// Cookies returns cookies across all domains the browser has stored.
	Cookies() ([]*proto.NetworkCookie, error)

	// Close terminates the browser process and releases its resources.
	Close() error
}

// Page is a reference to a single tab's navigable content.
type Page interface {
	// ID returns the stable identity token of the page (the CDP target ID).
	// It never changes for the lifetime of the tab.
	ID() string

	// Navigate loads the given URL and waits for the load event.
	Navigate(url string) error

	// SetViewport fixes the page viewport to the given size in pixels.
	SetViewport(width, height int) error

	// Element waits until an element matching the selector exists.
	// The wait is bounded by the context deadline.
	Element(ctx context.Context, selector string) (Element, error)

	// VisibleElement waits until an element matching the selector exists
	// and is visible. Existence alone is not enough for inputs that stay
	// hidden until a UI animation completes.
	VisibleElement(ctx context.Context, selector string) (Element, error)

	// Cookies returns the cookies scoped to the origins of the given URLs.
	Cookies(urls []string) ([]*proto.NetworkCookie, error)
}

// Element is a handle to a single DOM element.
type Element interface {
	// Input focuses the element and types the given text into it.
	Input(text string) error

	// Click performs a single left-button click on the element.
	Click() error
}
