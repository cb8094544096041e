package sso

// RenderMode identifies which DOM variant the identity provider serves.
// The provider renders different control ids to headless and headed
// browsers, so the selector table is resolved once at flow start instead of
// branching on a boolean inside every step.
type RenderMode int

const (
	// RenderModeHeaded is the DOM variant served to a visible browser.
	RenderModeHeaded RenderMode = iota
	// RenderModeHeadless is the DOM variant served to a headless browser.
	RenderModeHeadless
)

// String returns the mode name for diagnostics.
func (m RenderMode) String() string {
	if m == RenderModeHeadless {
		return "headless"
	}

	return "headed"
}

// providerSelectors holds the selectors one rendering mode serves.
type providerSelectors struct {
	// usernameInput matches the account-name field.
	usernameInput string
	// usernameNext advances past the username screen.
	usernameNext string
	// passwordInput matches the password field.
	passwordInput string
	// passwordNext submits the credentials.
	passwordNext string
	// otpInput matches the one-time-code field.
	otpInput string
	// otpNext submits the one-time code.
	otpNext string
}

const (
	usernameInputSelector = `input[type="email"]`
	passwordInputSelector = `input[type="password"]`
	otpInputSelector      = `input[type="tel"]`

	// headedNextButtonSelector is the submit control on the provider's
	// current login DOM.
	headedNextButtonSelector = "#idSIButton9"

	// headlessNextButtonSelector is the submit control on the legacy login
	// DOM the provider serves to headless browsers.
	headlessNextButtonSelector = "#cred_sign_in_button"
)

//nolint:gochecknoglobals // This is an immutable lookup table used as a constant.
var selectorsByMode = map[RenderMode]providerSelectors{
	RenderModeHeaded: {
		usernameInput: usernameInputSelector,
		usernameNext:  headedNextButtonSelector,
		passwordInput: passwordInputSelector,
		passwordNext:  headedNextButtonSelector,
		otpInput:      otpInputSelector,
		otpNext:       headedNextButtonSelector,
	},
	RenderModeHeadless: {
		usernameInput: usernameInputSelector,
		usernameNext:  headlessNextButtonSelector,
		passwordInput: passwordInputSelector,
		passwordNext:  headlessNextButtonSelector,
		otpInput:      otpInputSelector,
		otpNext:       headlessNextButtonSelector,
	},
}

// resolveRenderMode maps the browser mode to the DOM variant the provider
// will serve.
func resolveRenderMode(headless bool) RenderMode {
	if headless {
		return RenderModeHeadless
	}

	return RenderModeHeaded
}

// selectorsForMode returns the selector table for the given rendering mode.
func selectorsForMode(mode RenderMode) providerSelectors {
	return selectorsByMode[mode]
}
