package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/oshokin/sso-grabber/internal/logger"
)

// browserCleanupDelay is the time Chrome gets to release file locks before
// the temporary profile directory is removed.
const browserCleanupDelay = 500 * time.Millisecond

// LaunchOptions describes how the browser process is started.
type LaunchOptions struct {
	// Headless runs the browser without a visible window.
	Headless bool
	// Args are raw Chromium flags forwarded verbatim, e.g. "--no-sandbox".
	Args []string
}

// Launch starts a local Chrome/Chromium process and connects to it.
// A system Chrome installation is preferred; otherwise rod downloads a
// Chromium revision. Each launch gets a throwaway profile directory so
// sessions never leak between runs.
func Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	tempDir, err := os.MkdirTemp("", "sso-grabber-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary user data directory: %w", err)
	}

	l := launcher.New().
		Headless(opts.Headless).
		UserDataDir(tempDir)

	if chromePath, exists := launcher.LookPath(); exists {
		logger.Debugf(ctx, "Using system Chrome installation at: %s", chromePath)

		l = l.Bin(chromePath)
	} else {
		logger.Debug(ctx, "System Chrome not found, downloading Chromium")
	}

	for _, arg := range opts.Args {
		name, values := splitLaunchArg(arg)
		if name == "" {
			continue
		}

		l = l.Set(flags.Flag(name), values...)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		cleanupTempDir(ctx, tempDir)

		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debugf(ctx, "Browser launched at: %s", controlURL)

	instance := rod.New().Context(ctx).ControlURL(controlURL)

	// Trace logs every CDP instruction, useful when a selector misbehaves.
	if logger.IsDebugLevel() {
		instance = instance.Trace(true)
	}

	if err = instance.Connect(); err != nil {
		cleanupTempDir(ctx, tempDir)

		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodBrowser{browser: instance, tempDir: tempDir}, nil
}

// splitLaunchArg turns a raw Chromium flag like "--window-size=1280,800"
// into the name/value form the rod launcher expects.
func splitLaunchArg(arg string) (string, []string) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")

	name, value, found := strings.Cut(arg, "=")
	if !found {
		return name, nil
	}

	return name, []string{value}
}

func cleanupTempDir(ctx context.Context, tempDir string) {
	time.Sleep(browserCleanupDelay)

	if err := os.RemoveAll(tempDir); err != nil {
		// This can fail on Windows or if Chrome hasn't fully exited.
		logger.Debugf(ctx, "Could not clean up temp directory %s: %v", tempDir, err)
	}
}

// rodBrowser adapts *rod.Browser to the Browser interface.
type rodBrowser struct {
	browser *rod.Browser
	tempDir string
}

func (b *rodBrowser) NewPage() (Page, error) {
	// Stealth pages evade the bot detection some identity providers run.
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &rodPage{page: page}, nil
}

func (b *rodBrowser) Pages() ([]Page, error) {
	pages, err := b.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	result := make([]Page, len(pages))
	for i, page := range pages {
		result[i] = &rodPage{page: page}
	}

	return result, nil
}

func (b *rodBrowser) Cookies() ([]*proto.NetworkCookie, error) {
	cookies, err := b.browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}

	return cookies, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()

	if b.tempDir != "" {
		cleanupTempDir(context.Background(), b.tempDir)
	}

	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}

	return nil
}

// rodPage adapts *rod.Page to the Page interface.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) ID() string {
	return string(p.page.TargetID)
}

func (p *rodPage) Navigate(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := p.page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}

	return nil
}

func (p *rodPage) SetViewport(width, height int) error {
	err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  width,
		Height: height,
	})
	if err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	return nil
}

func (p *rodPage) Element(ctx context.Context, selector string) (Element, error) {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, err
	}

	return &rodElement{element: el}, nil
}

func (p *rodPage) VisibleElement(ctx context.Context, selector string) (Element, error) {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, err
	}

	if err = el.WaitVisible(); err != nil {
		return nil, err
	}

	return &rodElement{element: el}, nil
}

func (p *rodPage) Cookies(urls []string) ([]*proto.NetworkCookie, error) {
	cookies, err := p.page.Cookies(urls)
	if err != nil {
		return nil, fmt.Errorf("failed to read page cookies: %w", err)
	}

	return cookies, nil
}

// rodElement adapts *rod.Element to the Element interface.
type rodElement struct {
	element *rod.Element
}

func (e *rodElement) Input(text string) error {
	return e.element.Input(text)
}

func (e *rodElement) Click() error {
	return e.element.Click(proto.InputMouseButtonLeft, 1)
}
