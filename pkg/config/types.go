// Package config provides configuration loading and validation for combatlog.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Database is the path to the SQLite database file.
	Database string          `yaml:"database"`
	Import   ImportConfig    `yaml:"import"`
	Server   ServerConfig    `yaml:"server"`
	Watch    WatchConfig     `yaml:"watch"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ImportConfig controls how log files are read.
type ImportConfig struct {
	// MaxLineSize is the longest line, in bytes, a source will accept.
	MaxLineSize int `yaml:"max_line_size"`
}

// ServerConfig configures the HTTP query API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	// Dir is the directory the client writes combat logs into.
	Dir string `yaml:"dir,omitempty"`

	// Pattern is a doublestar pattern matched against file names in Dir.
	Pattern string `yaml:"pattern"`

	// Settle is how long a file must go without writes before it is imported.
	Settle time.Duration `yaml:"settle"`

	// StateFile records which files have already been imported.
	StateFile string `yaml:"state_file"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnImport fires after a successful import (default).
	WebhookTriggerOnImport WebhookTrigger = "on_import"
	// WebhookTriggerAlways fires after every import, including failed ones.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for import reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_import" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
