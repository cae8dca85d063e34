package config

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	APIKeyEnvVar     = "MOONDREAM_API_KEY"
	APIKeyPathEnvVar = "MOONDREAM_API_KEY_FILE"
	AltEnvFileVar    = "LIGHTHOUSE_ENV"
	DataDirEnvVar    = "LIGHTHOUSE_DATA_DIR"

	KeyringService = "lighthouse"
	KeyringUser    = "moondream"

	DefaultHotkey     = "CmdOrCtrl+Enter"
	DefaultBridgeAddr = "127.0.0.1:49610"
	appDirName        = "Lighthouse"
)

// Where the API key came from.
const (
	KeySourceNone    = ""
	KeySourceFile    = "file"
	KeySourceKeyring = "keyring"
	KeySourceEnv     = "env"
)

type LoadOptions struct {
	APIKeyPathOverride string
	DataDirOverride    string
	BridgeAddrOverride string
	EnvPathOverride    string
}

type Config struct {
	APIKey       string
	APIKeyPath   string
	APIKeySource string
	BaseURL      string

	EnableFileLogging bool
	VerboseLogging    bool

	Hotkey            string
	CaptureWidthRatio float64
	CaptureScale      float64
	ReadyTimeoutSec   int
	FadeMode          string
	VisionDeadlineSec int

	BridgeAddr string
	DataDir    string
	SkillsFile string

	// EnvPath is the .env file the values were read from, if any.
	EnvPath string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	return load(opts, godotenv.Load)
}

// Reload re-reads the .env file, letting its values replace ones already in
// the process environment.
func Reload(opts LoadOptions) (*Config, error) {
	return load(opts, godotenv.Overload)
}

func load(opts LoadOptions, apply func(...string) error) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, the file named by LIGHTHOUSE_ENV
	// 3) process environment
	envPath := opts.EnvPathOverride
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		if err := apply(envPath); err != nil {
			log.Printf("config: failed to apply %s: %v", envPath, err)
		}
	}

	dataDir, err := resolveDataDir(opts)
	if err != nil {
		return nil, err
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)
	apiKey, source := resolveAPIKey(apiKeyPath)

	bridgeAddr := getEnvWithDefault("BRIDGE_ADDR", DefaultBridgeAddr)
	if o := strings.TrimSpace(opts.BridgeAddrOverride); o != "" {
		bridgeAddr = o
	}

	cfg := &Config{
		APIKey:            apiKey,
		APIKeyPath:        apiKeyPath,
		APIKeySource:      source,
		BaseURL:           os.Getenv("MOONDREAM_BASE_URL"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		VerboseLogging:    strings.ToLower(os.Getenv("VERBOSE_LOGGING")) == "true",
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		CaptureWidthRatio: getRatio("CAPTURE_WIDTH_RATIO", 0.75),
		CaptureScale:      getRatio("CAPTURE_SCALE", 1.0),
		ReadyTimeoutSec:   getPositiveInt("READY_TIMEOUT_SEC", 5),
		FadeMode:          resolveFadeMode(os.Getenv("FADE_MODE")),
		VisionDeadlineSec: getPositiveInt("VISION_DEADLINE_SEC", 30),
		BridgeAddr:        bridgeAddr,
		DataDir:           dataDir,
		SkillsFile:        resolveSkillsFile(dataDir),
		EnvPath:           envPath,
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(AltEnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveDataDir(opts LoadOptions) (string, error) {
	if o := strings.TrimSpace(opts.DataDirOverride); o != "" {
		return o, nil
	}
	if d := strings.TrimSpace(os.Getenv(DataDirEnvVar)); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New("cannot determine app data directory; set " + DataDirEnvVar)
	}
	return filepath.Join(base, appDirName), nil
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar))

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

// resolveAPIKey tries the key file, then the OS keychain, then the environment.
func resolveAPIKey(keyPath string) (string, string) {
	if keyPath != "" {
		if data, err := os.ReadFile(keyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey, KeySourceFile
			}
		}
	}

	if k, err := keyring.Get(KeyringService, KeyringUser); err == nil && strings.TrimSpace(k) != "" {
		return strings.TrimSpace(k), KeySourceKeyring
	} else if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.Printf("config: keychain lookup failed: %v", err)
	}

	if k := strings.TrimSpace(os.Getenv(APIKeyEnvVar)); k != "" {
		return k, KeySourceEnv
	}
	return "", KeySourceNone
}

// StoreAPIKey saves key in the OS keychain.
func StoreAPIKey(key string) error {
	return keyring.Set(KeyringService, KeyringUser, strings.TrimSpace(key))
}

// ClearAPIKey removes the keychain entry; a missing entry is not an error.
func ClearAPIKey() error {
	if err := keyring.Delete(KeyringService, KeyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func resolveSkillsFile(dataDir string) string {
	if v := strings.TrimSpace(os.Getenv("SKILLS_FILE")); v != "" {
		return v
	}
	return filepath.Join(dataDir, "skills.json")
}

func resolveFadeMode(v string) string {
	if strings.ToLower(strings.TrimSpace(v)) == "stepped" {
		return "stepped"
	}
	return "instant"
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// getRatio reads a float in (0,1].
func getRatio(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			return f
		}
	}
	return def
}
