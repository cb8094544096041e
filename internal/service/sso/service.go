package sso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/oshokin/sso-grabber/internal/browser"
	"github.com/oshokin/sso-grabber/internal/config"
	"github.com/oshokin/sso-grabber/internal/otp"
)

const (
	// viewportWidth and viewportHeight fix the page size so the login page
	// never switches to a responsive-layout variant with different controls.
	viewportWidth  = 1280
	viewportHeight = 800

	// defaultStepTimeout is the wait budget applied when the configuration
	// carries no parsed step timeout, matching config.DefaultStepTimeout.
	// Without it, every selector wait would start with an expired context.
	defaultStepTimeout = 30 * time.Second
)

var (
	// ErrStepTimeout is returned when a required selector never appeared or
	// became visible within the step's wait budget.
	ErrStepTimeout = errors.New("selector wait timed out")

	// ErrOriginalPageLost is returned when the tab recorded before a popup
	// switch is no longer attached afterwards.
	ErrOriginalPageLost = errors.New("original page is no longer open")

	// ErrPopupNotFound is returned when no page is open after the provider
	// click that should have produced a popup.
	ErrPopupNotFound = errors.New("provider popup not found")
)

// StepError reports which login step and selector broke the flow.
// The provider's DOM drifts often, so the selector is part of the message.
type StepError struct {
	// Step is the human-readable name of the failed step.
	Step string
	// Selector is the CSS selector the step was waiting on.
	Selector string
	// Err is the underlying wait or interaction error.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed on selector %q: %v", e.Step, e.Selector, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *StepError) Unwrap() error {
	return e.Err
}

// LaunchFunc creates the browser session for one login attempt.
// Injectable so tests can substitute a mock browser.
type LaunchFunc func(ctx context.Context) (browser.Browser, error)

// Service performs browser-based identity-provider logins.
type Service interface {
	// Login drives the configured login flow and returns the harvested
	// cookie set. The browser process is released exactly once on every
	// exit path, success or failure.
	Login(ctx context.Context) ([]*proto.NetworkCookie, error)
}

// ServiceImpl implements Service on top of the browser driver.
type ServiceImpl struct {
	cfg    *config.Config
	launch LaunchFunc
	codes  otp.CodeProvider
	sink   Sink

	// stepTimeout is the per-selector wait budget, defaulted when the
	// configuration was never validated and carries a zero value.
	stepTimeout time.Duration

	// page is the mutable "current page" pointer. It is reassigned only by
	// the window registry at the popup switch and restore points.
	page browser.Page

	// selectors is the table resolved from the rendering mode at flow start.
	selectors providerSelectors
}

// NewService creates a new login service. A nil sink disables diagnostics.
func NewService(cfg *config.Config, launch LaunchFunc, codes otp.CodeProvider, sink Sink) *ServiceImpl {
	if sink == nil {
		sink = NopSink{}
	}

	stepTimeout := cfg.ParsedStepTimeout
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}

	return &ServiceImpl{
		cfg:         cfg,
		launch:      launch,
		codes:       codes,
		sink:        sink,
		stepTimeout: stepTimeout,
	}
}

// DefaultLaunch launches a local Chrome/Chromium per the configuration.
func DefaultLaunch(cfg *config.Config) LaunchFunc {
	return func(ctx context.Context) (browser.Browser, error) {
		return browser.Launch(ctx, browser.LaunchOptions{
			Headless: cfg.Headless,
			Args:     cfg.LaunchArgs,
		})
	}
}

// Login drives the full flow: launch, navigate, sequence the login steps,
// track the popup window if any, harvest cookies, tear down the browser.
func (s *ServiceImpl) Login(ctx context.Context) ([]*proto.NetworkCookie, error) {
	// Credential checks run before any browser process exists.
	if err := config.ValidateCredentials(s.cfg); err != nil {
		return nil, err
	}

	mode := resolveRenderMode(s.cfg.Headless)
	s.selectors = selectorsForMode(mode)

	s.sink.Event(ctx, EventFlowStarted,
		"login_url", s.cfg.LoginURL,
		"render_mode", mode.String(),
		"is_popup", s.cfg.IsPopup,
		"include_otp_code", s.cfg.IncludeOTPCode)

	br, err := s.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	defer func() {
		// The browser is released exactly once, on every exit path.
		if closeErr := br.Close(); closeErr != nil {
			s.sink.Event(ctx, EventBrowserCloseFail, "error", closeErr.Error())
		} else {
			s.sink.Event(ctx, EventBrowserClosed)
		}
	}()

	return s.run(ctx, br)
}

// run executes the flow against a launched browser. Split from Login so the
// deferred close covers every step uniformly.
func (s *ServiceImpl) run(ctx context.Context, br browser.Browser) ([]*proto.NetworkCookie, error) {
	page, err := br.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err = page.SetViewport(viewportWidth, viewportHeight); err != nil {
		return nil, err
	}

	if err = page.Navigate(s.cfg.LoginURL); err != nil {
		return nil, err
	}

	s.page = page
	s.sink.Event(ctx, EventPageReady, "url", s.cfg.LoginURL)

	if err = s.clickPreLogin(ctx); err != nil {
		return nil, err
	}

	registry := newWindowRegistry(br)

	// The original tab's identity must be captured before the click that
	// opens the popup.
	if s.cfg.IsPopup {
		if err = registry.snapshot(s.page); err != nil {
			return nil, err
		}
	}

	if err = s.clickProviderButton(ctx); err != nil {
		return nil, err
	}

	if s.cfg.IsPopup {
		s.delay(ctx, s.cfg.ParsedPopupDelay, "popup_delay")

		popup, switchErr := registry.switchToNewest()
		if switchErr != nil {
			return nil, switchErr
		}

		s.page = popup
		s.sink.Event(ctx, EventWindowSwitched, "page_id", popup.ID())
	}

	if err = s.enterUsername(ctx); err != nil {
		return nil, err
	}

	if err = s.enterPassword(ctx); err != nil {
		return nil, err
	}

	if s.cfg.IncludeOTPCode {
		if err = s.enterOTPCode(ctx); err != nil {
			return nil, err
		}
	}

	if s.cfg.IsPopup {
		s.delay(ctx, s.cfg.ParsedPopupDelay, "popup_delay")

		original, restoreErr := registry.restore()
		if restoreErr != nil {
			return nil, restoreErr
		}

		s.page = original
		s.sink.Event(ctx, EventWindowRestored, "page_id", original.ID())
	}

	return s.harvestCookies(ctx, br)
}

// delay suspends the flow for d to let UI animations settle.
// A zero duration means no suspension at all.
func (s *ServiceImpl) delay(ctx context.Context, d time.Duration, name string) {
	if d <= 0 {
		return
	}

	s.sink.Event(ctx, EventFlowDelay, "name", name, "duration", d.String())

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
