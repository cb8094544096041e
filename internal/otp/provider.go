// Package otp generates one-time passwords for the login flow.
//
// The cryptography is delegated to github.com/pquerna/otp; this package only
// fixes the parameters identity providers expect (SHA1, 6 digits, 30-second
// period) and makes the clock injectable for tests.
package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
)

// CodeProvider returns the one-time code that is valid right now.
//
// The login flow calls it exactly once per attempt, immediately before
// typing. The validity window can roll over while the UI is still animating;
// no margin or retry is applied here.
type CodeProvider interface {
	Code(ctx context.Context, secret string) (string, error)
}

// TOTPProvider implements CodeProvider using the time-based one-time-password
// algorithm (RFC 6238) with the standard parameters.
type TOTPProvider struct {
	// now returns the current time; replaced in tests.
	now func() time.Time
}

// NewTOTPProvider creates a provider using the system clock.
func NewTOTPProvider() *TOTPProvider {
	return &TOTPProvider{now: time.Now}
}

// Code returns the 6-digit code for the current 30-second window.
func (p *TOTPProvider) Code(_ context.Context, secret string) (string, error) {
	code, err := totp.GenerateCode(secret, p.now())
	if err != nil {
		return "", fmt.Errorf("failed to generate one-time code: %w", err)
	}

	return code, nil
}
