package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		APIKeyEnvVar, APIKeyPathEnvVar, AltEnvFileVar, DataDirEnvVar, "MOONDREAM_BASE_URL",
		"ENABLE_FILE_LOGGING", "VERBOSE_LOGGING", "HOTKEY", "CAPTURE_WIDTH_RATIO", "CAPTURE_SCALE",
		"READY_TIMEOUT_SEC", "FADE_MODE", "VISION_DEADLINE_SEC", "BRIDGE_ADDR", "SKILLS_FILE",
	} {
		// Setenv registers the restore; the unset makes the key absent so
		// .env files can supply it.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	keyring.MockInit()
	clearEnv(t)
	dataDir := t.TempDir()
	t.Setenv(APIKeyEnvVar, "test_api_key")
	t.Setenv(DataDirEnvVar, dataDir)
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("CAPTURE_WIDTH_RATIO", "0.5")
	t.Setenv("FADE_MODE", "Stepped")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.APIKey != "test_api_key" || cfg.APIKeySource != KeySourceEnv {
		t.Errorf("Expected env API key, got %q from %q", cfg.APIKey, cfg.APIKeySource)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true")
	}
	if cfg.Hotkey != "Ctrl+Shift+T" {
		t.Errorf("Expected Hotkey to be 'Ctrl+Shift+T', got '%s'", cfg.Hotkey)
	}
	if cfg.CaptureWidthRatio != 0.5 {
		t.Errorf("Expected ratio 0.5, got %v", cfg.CaptureWidthRatio)
	}
	if cfg.FadeMode != "stepped" {
		t.Errorf("Expected stepped fade, got %q", cfg.FadeMode)
	}
	if cfg.DataDir != dataDir {
		t.Errorf("Expected data dir %q, got %q", dataDir, cfg.DataDir)
	}
	if cfg.SkillsFile != filepath.Join(dataDir, "skills.json") {
		t.Errorf("Unexpected skills file %q", cfg.SkillsFile)
	}
}

func TestDefaults(t *testing.T) {
	keyring.MockInit()
	clearEnv(t)
	t.Setenv(DataDirEnvVar, t.TempDir())
	t.Setenv("CAPTURE_WIDTH_RATIO", "1.7")
	t.Setenv("READY_TIMEOUT_SEC", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected default hotkey, got %q", cfg.Hotkey)
	}
	if cfg.CaptureWidthRatio != 0.75 {
		t.Errorf("Expected out-of-range ratio to fall back to 0.75, got %v", cfg.CaptureWidthRatio)
	}
	if cfg.ReadyTimeoutSec != 5 || cfg.VisionDeadlineSec != 30 {
		t.Errorf("Unexpected timeouts %d/%d", cfg.ReadyTimeoutSec, cfg.VisionDeadlineSec)
	}
	if cfg.BridgeAddr != DefaultBridgeAddr {
		t.Errorf("Expected default bridge addr, got %q", cfg.BridgeAddr)
	}
	if cfg.APIKey != "" || cfg.APIKeySource != KeySourceNone {
		t.Errorf("Expected no API key, got %q", cfg.APIKey)
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	keyring.MockInit()
	clearEnv(t)
	t.Setenv(DataDirEnvVar, t.TempDir())
	t.Setenv(APIKeyEnvVar, "from-env")

	if err := StoreAPIKey("from-keyring"); err != nil {
		t.Fatalf("StoreAPIKey: %v", err)
	}
	cfg, _ := Load()
	if cfg.APIKey != "from-keyring" || cfg.APIKeySource != KeySourceKeyring {
		t.Fatalf("Expected keychain key to win over env, got %q (%s)", cfg.APIKey, cfg.APIKeySource)
	}

	keyFile := filepath.Join(t.TempDir(), "moondream.key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _ = LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if cfg.APIKey != "from-file" || cfg.APIKeySource != KeySourceFile {
		t.Fatalf("Expected key file to win, got %q (%s)", cfg.APIKey, cfg.APIKeySource)
	}

	if err := ClearAPIKey(); err != nil {
		t.Fatalf("ClearAPIKey: %v", err)
	}
	if err := ClearAPIKey(); err != nil {
		t.Fatalf("ClearAPIKey on missing entry: %v", err)
	}
	cfg, _ = Load()
	if cfg.APIKeySource != KeySourceEnv {
		t.Fatalf("Expected env fallback after clearing keychain, got %q", cfg.APIKeySource)
	}
}

func TestEnvFileOverride(t *testing.T) {
	keyring.MockInit()
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "LIGHTHOUSE_DATA_DIR=" + dir + "\nBRIDGE_ADDR=127.0.0.1:50000\nVISION_DEADLINE_SEC=12\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: envFile, BridgeAddrOverride: "127.0.0.1:50001"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EnvPath != envFile {
		t.Errorf("Expected EnvPath %q, got %q", envFile, cfg.EnvPath)
	}
	if cfg.VisionDeadlineSec != 12 {
		t.Errorf("Expected 12 from env file, got %d", cfg.VisionDeadlineSec)
	}
	if cfg.BridgeAddr != "127.0.0.1:50001" {
		t.Errorf("Expected flag override to win, got %q", cfg.BridgeAddr)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	keyring.MockInit()
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("LIGHTHOUSE_DATA_DIR="+dir+"\nREADY_TIMEOUT_SEC=5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadWithOptions(LoadOptions{EnvPathOverride: envFile})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfg, LoadOptions{}, func(c *Config) {
			select {
			case changed <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(envFile, []byte("LIGHTHOUSE_DATA_DIR="+dir+"\nREADY_TIMEOUT_SEC=9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.ReadyTimeoutSec != 9 {
			t.Fatalf("Expected reloaded timeout 9, got %d", c.ReadyTimeoutSec)
		}
	case <-time.After(5 * time.Second):
		t.Skip("no fsnotify event received; filesystem may not support notifications")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func TestWatchWithoutEnvFile(t *testing.T) {
	if err := Watch(context.Background(), &Config{}, LoadOptions{}, func(*Config) {}); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
}
