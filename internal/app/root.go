package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oshokin/sso-grabber/internal/config"
	"github.com/oshokin/sso-grabber/internal/constants"
	"github.com/oshokin/sso-grabber/internal/logger"
	"github.com/oshokin/sso-grabber/internal/otp"
	sso_service "github.com/oshokin/sso-grabber/internal/service/sso"
)

// ExecuteRootCommand is the entry point for the application.
// It runs one login attempt and delivers the harvested cookies.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config) {
	// Each attempt is tagged with a session ID so interleaved runs stay
	// distinguishable in the logs.
	sessionID := uuid.NewString()
	ctx = logger.ToContext(ctx, logger.Logger().With(zap.String("session_id", sessionID)))

	s := sso_service.NewService(
		cfg,
		sso_service.DefaultLaunch(cfg),
		otp.NewTOTPProvider(),
		sso_service.LogSink{})

	cookies, err := s.Login(ctx)
	if err != nil {
		logger.Fatalf(ctx, "Login flow failed: %v", err)
	}

	if err = deliverCookies(ctx, cfg, cookies); err != nil {
		logger.Fatalf(ctx, "Failed to deliver cookies: %v", err)
	}
}

// deliverCookies renders the harvested set as JSON and writes it to the
// configured output file, or to stdout when no file is configured.
func deliverCookies(ctx context.Context, cfg *config.Config, cookies any) error {
	payload, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if cfg.OutputPath == "" {
		fmt.Println(string(payload))

		return nil
	}

	outputFolder := filepath.Dir(cfg.OutputPath)
	if err = os.MkdirAll(outputFolder, constants.DefaultFolderPermissions); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	if err = os.WriteFile(cfg.OutputPath, payload, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Infof(ctx, "Saved cookies (%s) to %s", humanize.Bytes(uint64(len(payload))), cfg.OutputPath)

	return nil
}
