// Package runtimeinit is the startup sequence shared by the resident app and
// the CLI: configuration, logging, key check and clipboard.
package runtimeinit

import (
	"fmt"
	"log"
	"time"

	"lighthouse/src/clipboard"
	"lighthouse/src/config"
	"lighthouse/src/logutil"
	"lighthouse/src/vision"
)

type Options struct {
	LoadOptions config.LoadOptions
	// SetupLogging replaces the default logutil.Setup call.
	SetupLogging func(cfg *config.Config)
	// RequireAPIKey fails startup when no key is configured. The resident
	// app starts without one so the key can be entered in Settings.
	RequireAPIKey bool
	// SkipClipboard leaves the clipboard uninitialised.
	SkipClipboard bool
}

// Bootstrap loads the configuration and prepares the process around it.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg)
	} else {
		logutil.Setup(cfg.DataDir, cfg.EnableFileLogging, cfg.VerboseLogging)
	}

	if cfg.APIKey == "" {
		if opts.RequireAPIKey {
			return nil, fmt.Errorf("%s is required. Checked key file %s, the OS keychain and the %s env var",
				config.APIKeyEnvVar, cfg.APIKeyPath, config.APIKeyEnvVar)
		}
		log.Printf("No Moondream API key configured; vision requests will fail until one is set")
	} else {
		log.Printf("Moondream API key from %s: %s", cfg.APIKeySource, logutil.RedactKey(cfg.APIKey))
	}

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			log.Printf("Clipboard unavailable: %v", err)
		}
	}

	return cfg, nil
}

// NewVisionClient builds the vision client for cfg.
func NewVisionClient(cfg *config.Config) *vision.Client {
	return vision.New(cfg.BaseURL, cfg.APIKey, time.Duration(cfg.VisionDeadlineSec)*time.Second)
}
