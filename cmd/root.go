package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/sso-grabber/internal/app"
	"github.com/oshokin/sso-grabber/internal/config"
	"github.com/oshokin/sso-grabber/internal/logger"
	"github.com/oshokin/sso-grabber/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "sso-grabber [flags]",
		Short: "Log in through a browser SSO flow and harvest the session cookies.",
		Long: `SSO Grabber drives a real Chrome/Chromium browser through an
identity-provider login flow and prints the resulting session cookies as JSON.

It supports:
- Headless and headed browser modes
- Providers that open the credential form in a popup window
- Time-based one-time codes (TOTP) as a second factor
- Harvesting cookies scoped to the login page or across all domains`,
		Args:             cobra.NoArgs,
		Version:          version.Short(),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			app.ExecuteRootCommand(cmd.Context(), appConfig)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.StringP(
		"username",
		"u",
		"",
		"account name typed into the provider's login form.")

	rootCmdFlags.StringP(
		"password",
		"p",
		"",
		"account password (prefer the SSO_PASSWORD environment variable).")

	rootCmdFlags.String(
		"login-url",
		"",
		"application page that hosts the provider login button.")

	rootCmdFlags.String(
		"login-selector",
		"",
		"CSS selector of the provider login button.")

	rootCmdFlags.String(
		"pre-login-selector",
		"",
		"optional selector clicked before the login button, e.g. a consent banner.")

	rootCmdFlags.String(
		"post-login-selector",
		"",
		"selector whose appearance confirms a successful login.")

	rootCmdFlags.Bool(
		"headless",
		true,
		"run the browser without a visible window.")

	rootCmdFlags.Bool(
		"popup",
		false,
		"the provider opens its credential form in a popup window.")

	rootCmdFlags.Bool(
		"otp",
		false,
		"enter a time-based one-time code after the password.")

	rootCmdFlags.String(
		"otp-secret",
		"",
		"base32 TOTP shared secret (prefer the SSO_OTP_SECRET environment variable).")

	rootCmdFlags.Bool(
		"all-cookies",
		false,
		"harvest cookies across all domains instead of only the login page's origin.")

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"file to write the harvested cookies to as JSON (default is stdout).")

	rootCmdFlags.StringArray(
		"launch-arg",
		nil,
		"extra Chromium flag forwarded to the browser process (repeatable).")
}

func initConfig(cmd *cobra.Command, _ []string) {
	// A .env file is a convenience for local runs; its absence is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatalf(cmd.Context(), "Failed to load .env file: %v", err)
	}

	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)

	if appConfig.LogFile != "" {
		logger.SetLogger(logger.NewWithRotation(appConfig.ParsedLogLevel, appConfig.LogFile))
	}
}

//nolint:cyclop // The function is a flat list of flag lookups, one per overridable field.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("username"); flag != nil && flag.Changed {
		cfg.Username, _ = flags.GetString("username")
	}

	if flag := flags.Lookup("password"); flag != nil && flag.Changed {
		cfg.Password, _ = flags.GetString("password")
	}

	if flag := flags.Lookup("login-url"); flag != nil && flag.Changed {
		cfg.LoginURL, _ = flags.GetString("login-url")
	}

	if flag := flags.Lookup("login-selector"); flag != nil && flag.Changed {
		cfg.LoginSelector, _ = flags.GetString("login-selector")
	}

	if flag := flags.Lookup("pre-login-selector"); flag != nil && flag.Changed {
		cfg.PreLoginSelector, _ = flags.GetString("pre-login-selector")
	}

	if flag := flags.Lookup("post-login-selector"); flag != nil && flag.Changed {
		cfg.PostLoginSelector, _ = flags.GetString("post-login-selector")
	}

	if flag := flags.Lookup("headless"); flag != nil && flag.Changed {
		cfg.Headless, _ = flags.GetBool("headless")
	}

	if flag := flags.Lookup("popup"); flag != nil && flag.Changed {
		cfg.IsPopup, _ = flags.GetBool("popup")
	}

	if flag := flags.Lookup("otp"); flag != nil && flag.Changed {
		cfg.IncludeOTPCode, _ = flags.GetBool("otp")
	}

	if flag := flags.Lookup("otp-secret"); flag != nil && flag.Changed {
		cfg.OTPSecret, _ = flags.GetString("otp-secret")
	}

	if flag := flags.Lookup("all-cookies"); flag != nil && flag.Changed {
		cfg.GetAllBrowserCookies, _ = flags.GetBool("all-cookies")
	}

	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("launch-arg"); flag != nil && flag.Changed {
		cfg.LaunchArgs, _ = flags.GetStringArray("launch-arg")
	}

	return config.ValidateConfig(cfg)
}
