package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultDatabase       = "combatlog.db"
	DefaultMaxLineSize    = 1024 * 1024
	DefaultServerAddr     = "127.0.0.1:8080"
	DefaultWatchPattern   = "WoWCombatLog*.txt"
	DefaultWatchSettle    = 30 * time.Second
	DefaultWatchStateFile = ".combatlog-state.json"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvDatabase   = "COMBATLOG_DATABASE"
	EnvServerAddr = "COMBATLOG_SERVER_ADDR"
	EnvWatchDir   = "COMBATLOG_WATCH_DIR"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DefaultDatabase,
		Import: ImportConfig{
			MaxLineSize: DefaultMaxLineSize,
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Watch: WatchConfig{
			Pattern:   DefaultWatchPattern,
			Settle:    DefaultWatchSettle,
			StateFile: DefaultWatchStateFile,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if db := os.Getenv(EnvDatabase); db != "" {
		c.Database = db
	}
	if addr := os.Getenv(EnvServerAddr); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv(EnvWatchDir); dir != "" {
		c.Watch.Dir = dir
	}
}
