package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	embeddedconfig "github.com/knowyourrights/kyr/config"
)

func TestParse_ValidConfig(t *testing.T) {
	yaml := `
server:
  url: "https://rights.example.org"
  api_prefix: "/v1"
  token: "secret"
  list_timeout: "3s"
  rate_limit_per_minute: 0
chat:
  category: Contract
  stale_responses: discard
log:
  level: debug
  file: "-"
  max_backups: 0
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.URL != "https://rights.example.org" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.APIPrefix != "/v1" {
		t.Errorf("Server.APIPrefix = %q", cfg.Server.APIPrefix)
	}
	if cfg.Server.Token != "secret" {
		t.Errorf("Server.Token = %q", cfg.Server.Token)
	}
	if cfg.Server.ListTimeout != 3*time.Second {
		t.Errorf("Server.ListTimeout = %v", cfg.Server.ListTimeout)
	}
	if cfg.Server.RateLimitPerMinute != 0 {
		t.Errorf("explicit 0 rate limit became %d", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Chat.Category != "contract" {
		t.Errorf("Chat.Category = %q", cfg.Chat.Category)
	}
	if cfg.Chat.StaleResponses != "discard" {
		t.Errorf("Chat.StaleResponses = %q", cfg.Chat.StaleResponses)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != FileDisabled {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Log.MaxBackups != 0 || cfg.Log.MaxSizeMB != 5 {
		t.Errorf("Log sizes = %d/%d", cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Parse(nil) = %+v, want %+v", cfg, want)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "server: [", "failed to parse config"},
		{"bad url", "server:\n  url: localhost:8000", "server.url"},
		{"ftp url", "server:\n  url: ftp://x", "server.url"},
		{"bad timeout", "server:\n  list_timeout: soon", "server.list_timeout"},
		{"negative rate", "server:\n  rate_limit_per_minute: -1", "rate_limit_per_minute"},
		{"bad stale policy", "chat:\n  stale_responses: drop", "chat.stale_responses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestEmbeddedDefaultsMatchDefault(t *testing.T) {
	cfg, err := Parse(embeddedconfig.DefaultConfigYAML)
	if err != nil {
		t.Fatalf("embedded config does not parse: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("embedded config = %+v, want %+v", cfg, Default())
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	if got := DefaultPath(); got != "/tmp/custom.yaml" {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  url: http://10.0.0.1:9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != "http://10.0.0.1:9000" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestLoadWithFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kyrrc")
	t.Setenv(EnvConfigPath, path)

	res, err := LoadWithFallback()
	if err != nil {
		t.Fatalf("LoadWithFallback failed: %v", err)
	}
	if res.Source != SourceEmbedded || res.SourcePath != "" {
		t.Errorf("missing file: result = %+v", res)
	}

	if err := os.WriteFile(path, []byte("chat:\n  category: union\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = LoadWithFallback()
	if err != nil {
		t.Fatalf("LoadWithFallback failed: %v", err)
	}
	if res.Source != SourceFile || res.SourcePath != path || res.Config.Chat.Category != "union" {
		t.Errorf("file: result = %+v", res)
	}

	if err := os.WriteFile(path, []byte("server:\n  url: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWithFallback(); err == nil {
		t.Error("invalid file did not fail")
	}
}

func TestYAMLRoundTripAndRedacted(t *testing.T) {
	cfg := Default()
	cfg.Server.Token = "tok"
	cfg.Server.RateLimitPerMinute = 0

	data, err := cfg.YAML()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("re-parse: %v\n%s", err, data)
	}
	if *back != *cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}

	red := cfg.Redacted()
	if red.Server.Token == "tok" || cfg.Server.Token != "tok" {
		t.Error("Redacted must mask the copy only")
	}
}
