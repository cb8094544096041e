package sso

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/sso-grabber/internal/browser"
)

// Step names reported in StepError and step.completed events.
const (
	stepPreLogin        = "pre-login click"
	stepProviderTrigger = "provider trigger"
	stepUsername        = "username entry"
	stepPassword        = "password entry"
	stepOTP             = "otp entry"
	stepPostLogin       = "post-login marker"
)

// clickPreLogin clicks the optional pre-login element, e.g. a cookie-consent
// banner. No selector configured means no click.
func (s *ServiceImpl) clickPreLogin(ctx context.Context) error {
	if s.cfg.PreLoginSelector == "" {
		return nil
	}

	el, err := s.waitExists(ctx, stepPreLogin, s.cfg.PreLoginSelector)
	if err != nil {
		return err
	}

	if err = el.Click(); err != nil {
		return stepFailure(stepPreLogin, s.cfg.PreLoginSelector, err)
	}

	s.sink.Event(ctx, EventStepCompleted, "step", stepPreLogin)

	return nil
}

// clickProviderButton clicks the identity-provider login button. The click
// waits out the configured settle delay first, because the button can exist
// while the previous click's animation is still moving it. When the provider
// uses a popup, this is the click that opens it.
func (s *ServiceImpl) clickProviderButton(ctx context.Context) error {
	el, err := s.waitExists(ctx, stepProviderTrigger, s.cfg.LoginSelector)
	if err != nil {
		return err
	}

	s.delay(ctx, s.cfg.ParsedLoginSelectorDelay, "login_selector_delay")

	if err = el.Click(); err != nil {
		return stepFailure(stepProviderTrigger, s.cfg.LoginSelector, err)
	}

	s.sink.Event(ctx, EventStepCompleted, "step", stepProviderTrigger)

	return nil
}

// enterUsername types the username into the provider's email input and
// advances to the password screen.
func (s *ServiceImpl) enterUsername(ctx context.Context) error {
	input, err := s.waitExists(ctx, stepUsername, s.selectors.usernameInput)
	if err != nil {
		return err
	}

	if err = input.Input(s.cfg.Username); err != nil {
		return stepFailure(stepUsername, s.selectors.usernameInput, err)
	}

	next, err := s.waitExists(ctx, stepUsername, s.selectors.usernameNext)
	if err != nil {
		return err
	}

	if err = next.Click(); err != nil {
		return stepFailure(stepUsername, s.selectors.usernameNext, err)
	}

	s.sink.Event(ctx, EventStepCompleted, "step", stepUsername)

	return nil
}

// enterPassword types the password and submits the credentials. Both the
// input and the submit control are waited on for visibility, not mere
// existence: the provider keeps them hidden until an animation completes.
func (s *ServiceImpl) enterPassword(ctx context.Context) error {
	input, err := s.waitVisible(ctx, stepPassword, s.selectors.passwordInput)
	if err != nil {
		return err
	}

	if err = input.Input(s.cfg.Password); err != nil {
		return stepFailure(stepPassword, s.selectors.passwordInput, err)
	}

	next, err := s.waitVisible(ctx, stepPassword, s.selectors.passwordNext)
	if err != nil {
		return err
	}

	if err = next.Click(); err != nil {
		return stepFailure(stepPassword, s.selectors.passwordNext, err)
	}

	s.sink.Event(ctx, EventStepCompleted, "step", stepPassword)

	return nil
}

// enterOTPCode fetches the one-time code and submits it. The code is
// requested at typing time, not at flow start, because its 30-second
// validity window can roll over during the earlier steps.
func (s *ServiceImpl) enterOTPCode(ctx context.Context) error {
	input, err := s.waitVisible(ctx, stepOTP, s.selectors.otpInput)
	if err != nil {
		return err
	}

	code, err := s.codes.Code(ctx, s.cfg.OTPSecret)
	if err != nil {
		return fmt.Errorf("failed to obtain one-time code: %w", err)
	}

	if err = input.Input(code); err != nil {
		return stepFailure(stepOTP, s.selectors.otpInput, err)
	}

	next, err := s.waitVisible(ctx, stepOTP, s.selectors.otpNext)
	if err != nil {
		return err
	}

	if err = next.Click(); err != nil {
		return stepFailure(stepOTP, s.selectors.otpNext, err)
	}

	s.sink.Event(ctx, EventStepCompleted, "step", stepOTP)

	return nil
}

// waitExists waits until the selector exists on the current page, bounded by
// the configured step timeout.
func (s *ServiceImpl) waitExists(ctx context.Context, step, selector string) (browser.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	el, err := s.page.Element(waitCtx, selector)
	if err != nil {
		return nil, stepFailure(step, selector, err)
	}

	return el, nil
}

// waitVisible waits until the selector exists and is visible on the current
// page, bounded by the configured step timeout.
func (s *ServiceImpl) waitVisible(ctx context.Context, step, selector string) (browser.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	el, err := s.page.VisibleElement(waitCtx, selector)
	if err != nil {
		return nil, stepFailure(step, selector, err)
	}

	return el, nil
}

// stepFailure wraps a driver error into a StepError naming the step and
// selector. Wait-budget expiries are additionally marked with ErrStepTimeout.
func stepFailure(step, selector string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrStepTimeout, err)
	}

	return &StepError{Step: step, Selector: selector, Err: err}
}
