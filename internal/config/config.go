// ABOUTME: Configuration loader for site-console
// ABOUTME: Reads settings from the environment and an optional .env file

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is used when neither flag nor environment names a backend
const DefaultAPIURL = "http://localhost:8080"

// appDirName is the folder created under the user config directory
const appDirName = "site-console"

type Config struct {
	// Content and auth API
	APIURL   string
	AllProxy string // ssh+socks5://user@host:port?private-key=/path

	// Local state (session file, debug log, recent emails)
	ConfigDir string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // forces log output to a file
}

// LoadDotEnv populates unset environment variables from path.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the environment. Call LoadDotEnv first
// if .env values should be considered.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:    EnsureScheme(getEnv("SITE_API_URL", DefaultAPIURL)),
		AllProxy:  os.Getenv("SITE_API_ALL_PROXY"),
		ConfigDir: getEnv("SITE_CONFIG_DIR", DefaultConfigDir()),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   os.Getenv("LOG_FILE"),
	}

	if err := ValidateAPIURL(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("SITE_API_URL: %w", err)
	}

	if cfg.AllProxy != "" && !strings.Contains(cfg.AllProxy, "socks5://") {
		return nil, fmt.Errorf("SITE_API_ALL_PROXY must be an ssh+socks5:// or socks5:// URL")
	}

	return cfg, nil
}

// ValidateAPIURL checks that raw is an absolute http(s) URL
func ValidateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// DefaultConfigDir returns the XDG config directory for site-console
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EnsureScheme adds http:// prefix if the URL has no scheme
func EnsureScheme(raw string) string {
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}
