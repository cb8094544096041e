package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/sso-grabber/internal/constants"
)

// validConfig returns a configuration that passes ValidateConfig.
func validConfig() *Config {
	return &Config{
		Username:          "user@example.com",
		Password:          "hunter2",
		LoginURL:          "https://app.example/login",
		LoginSelector:     "#ssoBtn",
		PostLoginSelector: "#dashboard",
		Headless:          true,
	}
}

// TestValidateCredentials tests the fail-fast checks that run before any browser launch.
func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectedErr error
	}{
		{
			name:        "valid credentials",
			mutate:      func(*Config) {},
			expectedErr: nil,
		},
		{
			name:        "missing username",
			mutate:      func(cfg *Config) { cfg.Username = "" },
			expectedErr: ErrMissingUsername,
		},
		{
			name:        "whitespace username",
			mutate:      func(cfg *Config) { cfg.Username = "   " },
			expectedErr: ErrMissingUsername,
		},
		{
			name:        "missing password",
			mutate:      func(cfg *Config) { cfg.Password = "" },
			expectedErr: ErrMissingPassword,
		},
		{
			name: "otp enabled without secret",
			mutate: func(cfg *Config) {
				cfg.IncludeOTPCode = true
				cfg.OTPSecret = ""
			},
			expectedErr: ErrMissingOTPSecret,
		},
		{
			name: "otp enabled with secret",
			mutate: func(cfg *Config) {
				cfg.IncludeOTPCode = true
				cfg.OTPSecret = "JBSWY3DPEHPK3PXP"
			},
			expectedErr: nil,
		},
		{
			name: "otp disabled without secret",
			mutate: func(cfg *Config) {
				cfg.IncludeOTPCode = false
				cfg.OTPSecret = ""
			},
			expectedErr: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateCredentials(cfg)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidateConfig tests full validation including derived fields.
//
//nolint:funlen // Validation tables are naturally long.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectedErr error
		check       func(*testing.T, *Config)
	}{
		{
			name:   "defaults applied",
			mutate: func(*Config) {},
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, 250*time.Millisecond, cfg.ParsedLoginSelectorDelay)
				assert.Equal(t, 30*time.Second, cfg.ParsedStepTimeout)
				assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
				assert.Zero(t, cfg.ParsedPopupDelay)
				assert.Zero(t, cfg.ParsedCookieDelay)
			},
		},
		{
			name: "explicit delays parsed",
			mutate: func(cfg *Config) {
				cfg.PopupDelay = "2s"
				cfg.CookieDelay = "100ms"
				cfg.LoginSelectorDelay = "1s"
			},
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, 2*time.Second, cfg.ParsedPopupDelay)
				assert.Equal(t, 100*time.Millisecond, cfg.ParsedCookieDelay)
				assert.Equal(t, time.Second, cfg.ParsedLoginSelectorDelay)
			},
		},
		{
			name: "zero disables login selector delay",
			mutate: func(cfg *Config) {
				cfg.LoginSelectorDelay = "0"
			},
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Zero(t, cfg.ParsedLoginSelectorDelay)
			},
		},
		{
			name:        "missing login url",
			mutate:      func(cfg *Config) { cfg.LoginURL = "" },
			expectedErr: ErrMissingLoginURL,
		},
		{
			name:        "missing login selector",
			mutate:      func(cfg *Config) { cfg.LoginSelector = "" },
			expectedErr: ErrMissingLoginSelector,
		},
		{
			name:        "missing post login selector",
			mutate:      func(cfg *Config) { cfg.PostLoginSelector = "" },
			expectedErr: ErrMissingPostLoginSelector,
		},
		{
			name:        "negative popup delay",
			mutate:      func(cfg *Config) { cfg.PopupDelay = "-1s" },
			expectedErr: ErrNegativeDelay,
		},
		{
			name:        "garbage cookie delay",
			mutate:      func(cfg *Config) { cfg.CookieDelay = "soon" },
			expectedErr: nil, // wrapped time.ParseDuration error, checked below
		},
		{
			name:        "zero step timeout",
			mutate:      func(cfg *Config) { cfg.StepTimeout = "0s" },
			expectedErr: ErrInvalidStepTimeout,
		},
		{
			name:        "unknown log level",
			mutate:      func(cfg *Config) { cfg.LogLevel = "chatty" },
			expectedErr: ErrUnknownLogLevel,
		},
		{
			name:        "credential check runs first",
			mutate:      func(cfg *Config) { cfg.Username = "" },
			expectedErr: ErrMissingUsername,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)

			switch {
			case tt.expectedErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			case tt.check != nil:
				require.NoError(t, err)
				tt.check(t, cfg)
			default:
				// No sentinel to match, but the input was invalid.
				require.Error(t, err)
			}
		})
	}
}

// TestParseOptionalDuration tests the optional duration semantics.
func TestParseOptionalDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		value       string
		expected    time.Duration
		expectError bool
	}{
		{name: "empty means disabled", value: "", expected: 0},
		{name: "zero means disabled", value: "0", expected: 0},
		{name: "zero with unit", value: "0s", expected: 0},
		{name: "milliseconds", value: "250ms", expected: 250 * time.Millisecond},
		{name: "seconds", value: "2s", expected: 2 * time.Second},
		{name: "whitespace trimmed", value: " 1s ", expected: time.Second},
		{name: "negative rejected", value: "-5ms", expectError: true},
		{name: "garbage rejected", value: "later", expectError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := parseOptionalDuration("test_delay", tt.value)

			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}

// TestLoadConfig tests the LoadConfig function.
//
//nolint:paralleltest // Viper keeps global state, so these cases cannot run in parallel.
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		check          func(*testing.T, *Config)
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
username: "user@example.com"
password: "hunter2"
login_url: "https://app.example/login"
login_selector: "#ssoBtn"
post_login_selector: "#dashboard"
is_popup: true
popup_delay: "2s"
get_all_browser_cookies: true
launch_args:
  - "--no-sandbox"
log_level: "debug"
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "user@example.com", cfg.Username)
				assert.Equal(t, "hunter2", cfg.Password)
				assert.Equal(t, "https://app.example/login", cfg.LoginURL)
				assert.True(t, cfg.IsPopup)
				assert.True(t, cfg.GetAllBrowserCookies)
				assert.Equal(t, []string{"--no-sandbox"}, cfg.LaunchArgs)
				assert.Equal(t, "debug", cfg.LogLevel)
				// Defaults still apply for keys the file omits.
				assert.True(t, cfg.Headless)
				assert.Equal(t, DefaultLoginSelectorDelay, cfg.LoginSelectorDelay)
				assert.Equal(t, DefaultStepTimeout, cfg.StepTimeout)
			},
		},
		{
			name:           "non-existent explicit file",
			configFilename: "non_existent.yaml",
			expectError:    true,
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			configPath := filepath.Join(tempDir, tt.configFilename)
			if tt.configContent != "" {
				require.NoError(t,
					os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions))
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

// TestLoadConfig_EnvOverrides tests that SSO_* environment variables reach the
// unmarshalled config, including keys absent from the config file.
//
//nolint:paralleltest // Viper keeps global state and t.Setenv forbids parallel runs.
func TestLoadConfig_EnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "env_config.yaml")

	configContent := `
username: "user-from-file@example.com"
login_url: "https://app.example/login"
login_selector: "#ssoBtn"
post_login_selector: "#dashboard"
`

	require.NoError(t,
		os.WriteFile(configPath, []byte(configContent), constants.DefaultFilePermissions))

	// Secrets are the documented use case for env variables: the password and
	// the OTP secret have no file entry at all, the username overrides one.
	t.Setenv("SSO_USERNAME", "user-from-env@example.com")
	t.Setenv("SSO_PASSWORD", "password-from-env")
	t.Setenv("SSO_OTP_SECRET", "JBSWY3DPEHPK3PXP")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "user-from-env@example.com", cfg.Username)
	assert.Equal(t, "password-from-env", cfg.Password)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", cfg.OTPSecret)
	// File values without env counterparts stay intact.
	assert.Equal(t, "https://app.example/login", cfg.LoginURL)
}

// TestLoadConfig_EnvOnly tests env-variable configuration with no config file present.
//
//nolint:paralleltest // Viper keeps global state and t.Setenv forbids parallel runs.
func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("SSO_PASSWORD", "env-only-password")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "env-only-password", cfg.Password)
}
