package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is loaded, when present, before environment overrides apply.
const DotEnvFile = ".env"

// Load reads and validates a configuration file.
// An empty path skips the file and starts from DefaultConfig.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	// No config file means defaults plus environment
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
	}
	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.Database == "" {
		return errors.New("database: path is required")
	}

	// Zero means the default line limit
	if cfg.Import.MaxLineSize < 0 {
		return fmt.Errorf("import.max_line_size: must not be negative, got %d", cfg.Import.MaxLineSize)
	}
	if cfg.Import.MaxLineSize == 0 {
		cfg.Import.MaxLineSize = DefaultMaxLineSize
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}

	if err := validateWatch(&cfg.Watch); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateWatch(w *WatchConfig) error {
	if w.Pattern == "" {
		w.Pattern = DefaultWatchPattern
	}
	if !doublestar.ValidatePattern(w.Pattern) {
		return fmt.Errorf("invalid pattern %q", w.Pattern)
	}

	if w.Settle < 0 {
		return fmt.Errorf("settle must not be negative, got %s", w.Settle)
	}
	if w.Settle == 0 {
		w.Settle = DefaultWatchSettle
	}

	if w.StateFile == "" {
		w.StateFile = DefaultWatchStateFile
	}

	return nil
}

// ValidateWebhook checks a webhook and fills in its defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	// Validate trigger if specified
	switch wh.Trigger {
	case WebhookTriggerOnImport, WebhookTriggerAlways, WebhookTriggerNever:
		// Valid
	case "":
		// Default to on_import
		wh.Trigger = WebhookTriggerOnImport
	default:
		return fmt.Errorf("invalid trigger %q (must be on_import, always, or never)", wh.Trigger)
	}

	// Default timeout
	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
