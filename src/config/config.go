package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/flash-insight"
	APIKeyPathEnvVar  = "GOOGLE_API_KEY_FILE"
	AltEnvPathEnvVar  = "FLASH_INSIGHT_ENV"
	KeyringService    = "flash-insight"

	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"

	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultOpenRouterModel  = "google/gemini-2.0-flash-001"
	DefaultMinSelectionSpan = 5
)

// Where the API key came from, for diagnostics.
const (
	KeySourceNone    = "none"
	KeySourceFile    = "file"
	KeySourceKeyring = "keyring"
	KeySourceEnv     = "env"
)

type LoadOptions struct {
	APIKeyPathOverride string
	ProviderOverride   string
	ModelOverride      string
	// DisplayOverride selects a display when >= 0.
	DisplayOverride    int
}

type Config struct {
	Provider           string
	APIKey             string
	APIKeyPath         string
	APIKeySource       string
	Model              string
	Providers          []string
	EnableFileLogging  bool
	Hotkey             string
	CaptureDeadlineSec int
	PreviewIntervalMs  int
	DisplayIndex       int
	MinSelectionSpan   int
	CopyToClipboard    bool
	DebugSaveImages    bool
	ProfilePath        string
	Profile            Profile
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{DisplayOverride: -1})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use FLASH_INSIGHT_ENV as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	provider := resolveProvider(firstNonEmpty(opts.ProviderOverride, os.Getenv("PROVIDER")))

	profilePath := strings.TrimSpace(os.Getenv("PROFILE_PATH"))
	profile := DefaultProfile()
	if profilePath != "" {
		p, err := LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	display := getEnvInt("DISPLAY_INDEX", 0, 0)
	if opts.DisplayOverride >= 0 {
		display = opts.DisplayOverride
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)
	apiKey, source := resolveAPIKey(apiKeyPath, provider)

	cfg := &Config{
		Provider:           provider,
		APIKey:             apiKey,
		APIKeyPath:         apiKeyPath,
		APIKeySource:       source,
		Model:              firstNonEmpty(opts.ModelOverride, os.Getenv("MODEL"), profile.Model, defaultModel(provider)),
		Providers:          splitList(os.Getenv("PROVIDERS")),
		EnableFileLogging:  strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		Hotkey:             getEnvWithDefault("HOTKEY", "Ctrl+Alt+Q"),
		CaptureDeadlineSec: getEnvInt("CAPTURE_DEADLINE_SEC", 20, 1),
		PreviewIntervalMs:  getEnvInt("PREVIEW_INTERVAL_MS", 1000, 100),
		DisplayIndex:       display,
		MinSelectionSpan:   getEnvInt("MIN_SELECTION_SPAN", DefaultMinSelectionSpan, 0),
		CopyToClipboard:    strings.ToLower(getEnvWithDefault("COPY_TO_CLIPBOARD", "true")) == "true",
		DebugSaveImages:    strings.ToLower(os.Getenv("INSIGHT_DEBUG_SAVE_IMAGES")) == "true",
		ProfilePath:        profilePath,
		Profile:            profile,
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltEnvPathEnvVar); alt != "" {
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

func resolveProvider(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ProviderOpenRouter:
		return ProviderOpenRouter
	default:
		return ProviderGemini
	}
}

func defaultModel(provider string) string {
	if provider == ProviderOpenRouter {
		return DefaultOpenRouterModel
	}
	return DefaultGeminiModel
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

// resolveAPIKey tries the key file, then the OS keyring, then the provider's
// environment variable.
func resolveAPIKey(keyPath, provider string) (string, string) {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey, KeySourceFile
		}
	}

	if k, err := keyring.Get(KeyringService, provider); err == nil && strings.TrimSpace(k) != "" {
		return strings.TrimSpace(k), KeySourceKeyring
	}

	if k := strings.TrimSpace(os.Getenv(apiKeyEnvVar(provider))); k != "" {
		return k, KeySourceEnv
	}
	return "", KeySourceNone
}

func apiKeyEnvVar(provider string) string {
	if provider == ProviderOpenRouter {
		return "OPENROUTER_API_KEY"
	}
	return "GOOGLE_API_KEY"
}

// StoreAPIKey saves key in the OS keyring for provider.
func StoreAPIKey(provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty API key")
	}
	return keyring.Set(KeyringService, resolveProvider(provider), key)
}

// DeleteAPIKey removes the stored key for provider. Missing keys are not an error.
func DeleteAPIKey(provider string) error {
	err := keyring.Delete(KeyringService, resolveProvider(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses key, falling back to def when unset, malformed or below min.
func getEnvInt(key string, def, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= min {
			return n
		}
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
