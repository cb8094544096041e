// Package config loads and validates the session configuration describing
// one automated login attempt.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/sso-grabber/internal/logger"
)

// Config holds all configuration settings for one login attempt.
// It is treated as immutable once validated.
type Config struct {
	// Username is the account name typed into the provider's email input.
	Username string `mapstructure:"username"`
	// Password is the account password typed into the provider's password input.
	Password string `mapstructure:"password"`
	// LoginURL is the application page that hosts the provider login button.
	LoginURL string `mapstructure:"login_url"`
	// LoginSelector is the CSS selector of the provider login button.
	LoginSelector string `mapstructure:"login_selector"`
	// PreLoginSelector is an optional selector clicked before the login button,
	// e.g. a cookie-consent banner. Empty means no pre-login click.
	PreLoginSelector string `mapstructure:"pre_login_selector"`
	// PostLoginSelector is the marker element confirming a successful login.
	PostLoginSelector string `mapstructure:"post_login_selector"`
	// LaunchArgs are extra Chromium flags forwarded verbatim to the browser process.
	LaunchArgs []string `mapstructure:"launch_args"`
	// Headless controls the browser mode. It also selects which DOM variant
	// the identity provider serves, so the flow resolves its selector table from it.
	Headless bool `mapstructure:"headless"`
	// IsPopup indicates the provider opens a secondary window for credentials.
	IsPopup bool `mapstructure:"is_popup"`
	// PopupDelay is the settle time around popup transitions (e.g. "2s").
	// Empty or "0" disables the delay entirely.
	PopupDelay string `mapstructure:"popup_delay"`
	// CookieDelay is the settle time before cookies are read (e.g. "100ms").
	// Empty or "0" disables the delay entirely.
	CookieDelay string `mapstructure:"cookie_delay"`
	// LoginSelectorDelay is the settle time between finding the login button
	// and clicking it. Defaults to 250ms; "0" disables it.
	LoginSelectorDelay string `mapstructure:"login_selector_delay"`
	// GetAllBrowserCookies requests cookies across all domains instead of
	// only those scoped to LoginURL's origin.
	GetAllBrowserCookies bool `mapstructure:"get_all_browser_cookies"`
	// IncludeOTPCode enables the one-time-password entry step.
	IncludeOTPCode bool `mapstructure:"include_otp_code"`
	// OTPSecret is the base32 TOTP shared secret, required when IncludeOTPCode is set.
	OTPSecret string `mapstructure:"otp_secret"`
	// StepTimeout is the wait budget for each selector wait (e.g. "30s").
	StepTimeout string `mapstructure:"step_timeout"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// LogFile is an optional path for a size-rotated log file.
	LogFile string `mapstructure:"log_file"`
	// OutputPath is an optional file to write the harvested cookies to as JSON.
	// Empty means the cookies are printed to stdout.
	OutputPath string `mapstructure:"output_path"`
	// ParsedPopupDelay is the parsed popup settle delay.
	ParsedPopupDelay time.Duration
	// ParsedCookieDelay is the parsed cookie settle delay.
	ParsedCookieDelay time.Duration
	// ParsedLoginSelectorDelay is the parsed login button settle delay.
	ParsedLoginSelectorDelay time.Duration
	// ParsedStepTimeout is the parsed per-step wait budget.
	ParsedStepTimeout time.Duration
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".sso-grabber.yaml"

	// DefaultLoginSelectorDelay compensates for UI animations between the
	// pre-login click and the provider button click.
	DefaultLoginSelectorDelay = "250ms"

	// DefaultStepTimeout is the default wait budget per selector wait.
	DefaultStepTimeout = "30s"

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// envPrefix is the prefix for environment variable overrides (e.g. SSO_USERNAME).
	envPrefix = "SSO"
)

// Static error definitions for better error handling.
var (
	// ErrMissingUsername indicates that the username is missing.
	ErrMissingUsername = errors.New("username cannot be empty")
	// ErrMissingPassword indicates that the password is missing.
	ErrMissingPassword = errors.New("password cannot be empty")
	// ErrMissingOTPSecret indicates that OTP entry is enabled without a shared secret.
	ErrMissingOTPSecret = errors.New("otp_secret is required when include_otp_code is enabled")
	// ErrMissingLoginURL indicates that the login page URL is missing.
	ErrMissingLoginURL = errors.New("login_url cannot be empty")
	// ErrMissingLoginSelector indicates that the provider button selector is missing.
	ErrMissingLoginSelector = errors.New("login_selector cannot be empty")
	// ErrMissingPostLoginSelector indicates that the success marker selector is missing.
	ErrMissingPostLoginSelector = errors.New("post_login_selector cannot be empty")
	// ErrNegativeDelay indicates that a delay duration is negative.
	ErrNegativeDelay = errors.New("delay duration cannot be negative")
	// ErrInvalidStepTimeout indicates that the step timeout is not positive.
	ErrInvalidStepTimeout = errors.New("step_timeout must be positive")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
)

// LoadConfig loads configuration settings from a YAML file, the environment
// and built-in defaults. A missing default config file is not an error; a
// missing explicitly requested file is.
func LoadConfig(configFilename string) (*Config, error) {
	explicit := configFilename != ""
	if !explicit {
		configFilename = DefaultConfigFilename
	}

	viper.SetConfigFile(configFilename)
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	bindEnvKeys()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// configKeys lists every key the Config struct maps. AutomaticEnv only
// resolves keys viper already knows about, so each key is bound to its
// SSO_* variable explicitly or env-only values would never reach Unmarshal.
//
//nolint:gochecknoglobals // This is an immutable key list used as a constant.
var configKeys = []string{
	"username",
	"password",
	"login_url",
	"login_selector",
	"pre_login_selector",
	"post_login_selector",
	"launch_args",
	"headless",
	"is_popup",
	"popup_delay",
	"cookie_delay",
	"login_selector_delay",
	"get_all_browser_cookies",
	"include_otp_code",
	"otp_secret",
	"step_timeout",
	"log_level",
	"log_file",
	"output_path",
}

func bindEnvKeys() {
	for _, key := range configKeys {
		viper.MustBindEnv(key)
	}
}

func setDefaults() {
	viper.SetDefault("headless", true)
	viper.SetDefault("login_selector_delay", DefaultLoginSelectorDelay)
	viper.SetDefault("step_timeout", DefaultStepTimeout)
	viper.SetDefault("log_level", DefaultLogLevel)
}

// ValidateCredentials checks the fields that must be present before any
// browser process is launched. The login flow calls it as its first step.
func ValidateCredentials(cfg *Config) error {
	if strings.TrimSpace(cfg.Username) == "" {
		return ErrMissingUsername
	}

	if strings.TrimSpace(cfg.Password) == "" {
		return ErrMissingPassword
	}

	if cfg.IncludeOTPCode && strings.TrimSpace(cfg.OTPSecret) == "" {
		return ErrMissingOTPSecret
	}

	return nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	if err := ValidateCredentials(cfg); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.LoginURL) == "" {
		return ErrMissingLoginURL
	}

	if strings.TrimSpace(cfg.LoginSelector) == "" {
		return ErrMissingLoginSelector
	}

	if strings.TrimSpace(cfg.PostLoginSelector) == "" {
		return ErrMissingPostLoginSelector
	}

	var err error

	cfg.ParsedPopupDelay, err = parseOptionalDuration("popup_delay", cfg.PopupDelay)
	if err != nil {
		return err
	}

	cfg.ParsedCookieDelay, err = parseOptionalDuration("cookie_delay", cfg.CookieDelay)
	if err != nil {
		return err
	}

	if cfg.LoginSelectorDelay == "" {
		cfg.LoginSelectorDelay = DefaultLoginSelectorDelay
	}

	cfg.ParsedLoginSelectorDelay, err = parseOptionalDuration("login_selector_delay", cfg.LoginSelectorDelay)
	if err != nil {
		return err
	}

	if cfg.StepTimeout == "" {
		cfg.StepTimeout = DefaultStepTimeout
	}

	cfg.ParsedStepTimeout, err = time.ParseDuration(cfg.StepTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse step timeout: %w", err)
	}

	if cfg.ParsedStepTimeout <= 0 {
		return ErrInvalidStepTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	return nil
}

// parseOptionalDuration parses a duration string where an empty value or "0"
// means "no suspension at all". Negative durations are rejected.
func parseOptionalDuration(name, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNegativeDelay, name)
	}

	return parsed, nil
}
