package sso

import (
	"fmt"

	"github.com/oshokin/sso-grabber/internal/browser"
)

// windowRegistry tracks page identity across a popup transition.
//
// The original tab is recorded by its stable identity token before the
// provider click, because new tabs can be inserted anywhere in the page list
// and positional lookups would silently pick the wrong tab.
type windowRegistry struct {
	br browser.Browser
	// token is the identity of the page to restore after the popup closes.
	token string
	// known holds the identities of every page open at snapshot time.
	known map[string]struct{}
}

func newWindowRegistry(br browser.Browser) *windowRegistry {
	return &windowRegistry{br: br}
}

// snapshot records the identity of the current page and of every open page.
// It must run immediately before the click that opens the popup.
func (r *windowRegistry) snapshot(current browser.Page) error {
	pages, err := r.br.Pages()
	if err != nil {
		return fmt.Errorf("failed to snapshot open pages: %w", err)
	}

	r.token = current.ID()
	r.known = make(map[string]struct{}, len(pages))

	for _, page := range pages {
		r.known[page.ID()] = struct{}{}
	}

	return nil
}

// switchToNewest returns the page treated as the provider popup: the most
// recently opened page absent from the snapshot, or the newest list entry
// when the popup reused an existing target.
func (r *windowRegistry) switchToNewest() (browser.Page, error) {
	pages, err := r.br.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages after popup: %w", err)
	}

	if len(pages) == 0 {
		return nil, ErrPopupNotFound
	}

	for i := len(pages) - 1; i >= 0; i-- {
		if _, seen := r.known[pages[i].ID()]; !seen {
			return pages[i], nil
		}
	}

	return pages[len(pages)-1], nil
}

// restore returns the page recorded at snapshot time, located by identity.
// A missing token is an explicit error: pointing at whatever tab took the
// original's position would corrupt the rest of the flow.
func (r *windowRegistry) restore() (browser.Page, error) {
	pages, err := r.br.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages for restore: %w", err)
	}

	for _, page := range pages {
		if page.ID() == r.token {
			return page, nil
		}
	}

	return nil, fmt.Errorf("%w: page %q", ErrOriginalPageLost, r.token)
}
