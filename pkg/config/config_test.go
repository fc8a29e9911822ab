package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
database: /var/lib/combatlog/raids.db
import:
  max_line_size: 65536
server:
  addr: 0.0.0.0:9000
watch:
  dir: /games/wow/_retail_/Logs
  pattern: "WoWCombatLog-*.txt"
  settle: 2m
  state_file: /var/lib/combatlog/state.json
webhooks:
  - name: discord
    url: https://example.com/hook
    trigger: always
    timeout: 5s
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database != "/var/lib/combatlog/raids.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.Import.MaxLineSize != 65536 {
		t.Errorf("MaxLineSize = %d, want 65536", cfg.Import.MaxLineSize)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Watch.Dir != "/games/wow/_retail_/Logs" {
		t.Errorf("Watch.Dir = %q", cfg.Watch.Dir)
	}
	if cfg.Watch.Settle != 2*time.Minute {
		t.Errorf("Watch.Settle = %v, want 2m", cfg.Watch.Settle)
	}
	if len(cfg.Webhooks) != 1 {
		t.Fatalf("Webhooks = %d, want 1", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerAlways {
		t.Errorf("Trigger = %q, want always", cfg.Webhooks[0].Trigger)
	}
	if cfg.Webhooks[0].Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Webhooks[0].Timeout)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(EnvDatabase, "")
	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database != DefaultDatabase {
		t.Errorf("Database = %q, want %q", cfg.Database, DefaultDatabase)
	}
	if cfg.Import.MaxLineSize != DefaultMaxLineSize {
		t.Errorf("MaxLineSize = %d, want %d", cfg.Import.MaxLineSize, DefaultMaxLineSize)
	}
	if cfg.Watch.Pattern != DefaultWatchPattern {
		t.Errorf("Watch.Pattern = %q, want %q", cfg.Watch.Pattern, DefaultWatchPattern)
	}
	if cfg.Watch.Settle != DefaultWatchSettle {
		t.Errorf("Watch.Settle = %v, want %v", cfg.Watch.Settle, DefaultWatchSettle)
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "database: raids.db\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database != "raids.db" {
		t.Errorf("Database = %q, want raids.db", cfg.Database)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvDatabase, "/tmp/from-env.db")
	t.Setenv(EnvServerAddr, "127.0.0.1:1234")
	t.Setenv(EnvWatchDir, "/tmp/logs")

	path := writeTempFile(t, "config.yaml", "database: from-file.db\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database != "/tmp/from-env.db" {
		t.Errorf("Database = %q, want env override", cfg.Database)
	}
	if cfg.Server.Addr != "127.0.0.1:1234" {
		t.Errorf("Server.Addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.Watch.Dir != "/tmp/logs" {
		t.Errorf("Watch.Dir = %q, want env override", cfg.Watch.Dir)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte(EnvDatabase+"=dotenv.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv(EnvDatabase, "")
	os.Unsetenv(EnvDatabase)

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database != "dotenv.db" {
		t.Errorf("Database = %q, want dotenv.db", cfg.Database)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:    "empty database",
			modify:  func(c *Config) { c.Database = "" },
			wantErr: "database",
		},
		{
			name:    "negative line size",
			modify:  func(c *Config) { c.Import.MaxLineSize = -1 },
			wantErr: "max_line_size",
		},
		{
			name:    "bad watch pattern",
			modify:  func(c *Config) { c.Watch.Pattern = "[invalid" },
			wantErr: "watch",
		},
		{
			name:    "negative settle",
			modify:  func(c *Config) { c.Watch.Settle = -time.Second },
			wantErr: "settle",
		},
		{
			name: "webhook without url",
			modify: func(c *Config) {
				c.Webhooks = []WebhookConfig{{Name: "empty"}}
			},
			wantErr: "url is required",
		},
		{
			name: "webhook bad scheme",
			modify: func(c *Config) {
				c.Webhooks = []WebhookConfig{{URL: "ftp://example.com"}}
			},
			wantErr: "scheme",
		},
		{
			name: "webhook without host",
			modify: func(c *Config) {
				c.Webhooks = []WebhookConfig{{URL: "http://"}}
			},
			wantErr: "host",
		},
		{
			name: "webhook bad trigger",
			modify: func(c *Config) {
				c.Webhooks = []WebhookConfig{{URL: "https://example.com", Trigger: "sometimes"}}
			},
			wantErr: "invalid trigger",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := &Config{
		Database: "x.db",
		Webhooks: []WebhookConfig{{URL: "https://example.com/hook"}},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Import.MaxLineSize != DefaultMaxLineSize {
		t.Errorf("MaxLineSize = %d, want default", cfg.Import.MaxLineSize)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
	if cfg.Watch.Pattern != DefaultWatchPattern || cfg.Watch.Settle != DefaultWatchSettle || cfg.Watch.StateFile != DefaultWatchStateFile {
		t.Errorf("Watch = %+v, want defaults", cfg.Watch)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnImport {
		t.Errorf("Trigger = %q, want on_import", cfg.Webhooks[0].Trigger)
	}
	if cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Webhooks[0].Timeout)
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("COMBATLOG_TEST_TOKEN", "secret")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"literal", "literal"},
		{"${COMBATLOG_TEST_TOKEN}", "secret"},
		{"$COMBATLOG_TEST_TOKEN", "secret"},
		{"$COMBATLOG_UNSET_VAR", ""},
	}

	for _, tt := range tests {
		if got := expandEnvVar(tt.in); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
