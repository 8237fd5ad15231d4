package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace flag", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigPath, tt.envValue)
			got := ResolveConfigPath(tt.flag)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.Port != 53 {
		t.Errorf("expected port 53, got %d", cfg.Capture.Port)
	}
	if cfg.Capture.Snaplen != 65536 {
		t.Errorf("expected snaplen 65536, got %d", cfg.Capture.Snaplen)
	}
	if cfg.Capture.ReadWait != 500*time.Millisecond {
		t.Errorf("expected 500ms read wait, got %v", cfg.Capture.ReadWait)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Output.Format)
	}
	if !cfg.Trace.FirstSeen {
		t.Error("expected first-seen tracking on")
	}
	if cfg.Journal.Enabled {
		t.Error("expected journal disabled")
	}
	if cfg.API.Enabled {
		t.Error("expected API disabled")
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected INFO level, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dnstrace.yaml")
	content := `
capture:
  interface: eth0
  port: 5353
  timeout: 250ms
trace:
  watch:
    - example.com
    - "*.internal"
output:
  format: JSON
journal:
  enabled: true
  path: /tmp/events.db
  prune_interval: 30s
api:
  enabled: true
  port: 9090
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.Interface != "eth0" {
		t.Errorf("expected eth0, got %q", cfg.Capture.Interface)
	}
	if cfg.Capture.Port != 5353 {
		t.Errorf("expected port 5353, got %d", cfg.Capture.Port)
	}
	if cfg.Capture.ReadWait != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Capture.ReadWait)
	}
	if len(cfg.Trace.Watch) != 2 {
		t.Errorf("expected 2 watch patterns, got %v", cfg.Trace.Watch)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected format normalized to json, got %q", cfg.Output.Format)
	}
	if !cfg.Journal.Enabled || cfg.Journal.PruneEvery != 30*time.Second {
		t.Errorf("unexpected journal config: %+v", cfg.Journal)
	}
	if cfg.APIAddr() != "127.0.0.1:9090" {
		t.Errorf("unexpected api addr %q", cfg.APIAddr())
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected DEBUG, got %q", cfg.Logging.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Capture.Snaplen != 65536 {
		t.Errorf("expected default snaplen, got %d", cfg.Capture.Snaplen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("capture: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DNSTRACE_INTERFACE", " wlan0 ")
	t.Setenv("DNSTRACE_PORT", "5300")
	t.Setenv("DNSTRACE_FORMAT", "json")
	t.Setenv("DNSTRACE_WATCH", "example.com, ,=exact.org")
	t.Setenv("DNSTRACE_JOURNAL", "/var/lib/dnstrace.db")
	t.Setenv("DNSTRACE_API_ENABLED", "yes")
	t.Setenv("DNSTRACE_API_PORT", "8181")
	t.Setenv("DNSTRACE_API_KEY", "secret")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.Interface != "wlan0" {
		t.Errorf("expected wlan0, got %q", cfg.Capture.Interface)
	}
	if cfg.Capture.Port != 5300 {
		t.Errorf("expected 5300, got %d", cfg.Capture.Port)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected json, got %q", cfg.Output.Format)
	}
	if len(cfg.Trace.Watch) != 2 || cfg.Trace.Watch[1] != "=exact.org" {
		t.Errorf("unexpected watch list %v", cfg.Trace.Watch)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path != "/var/lib/dnstrace.db" {
		t.Errorf("unexpected journal config: %+v", cfg.Journal)
	}
	if !cfg.API.Enabled || cfg.API.Port != 8181 || cfg.API.APIKey != "secret" {
		t.Errorf("unexpected api config: %+v", cfg.API)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("expected WARN, got %q", cfg.Logging.Level)
	}
}

func TestEnvOverrideBadPort(t *testing.T) {
	t.Setenv("DNSTRACE_PORT", "dns")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Capture.Port = 0 }},
		{"port too large", func(c *Config) { c.Capture.Port = 70000 }},
		{"snaplen too small", func(c *Config) { c.Capture.Snaplen = 10 }},
		{"bad timeout", func(c *Config) { c.Capture.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Capture.Timeout = "-1s" }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad fp rate", func(c *Config) { c.Trace.FirstSeenFPRate = 1.5 }},
		{"journal without path", func(c *Config) { c.Journal.Enabled = true; c.Journal.Path = " " }},
		{"bad prune interval", func(c *Config) { c.Journal.Enabled = true; c.Journal.PruneInterval = "x" }},
		{"api bad port", func(c *Config) { c.API.Enabled = true; c.API.Port = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateFillsZeroValues(t *testing.T) {
	cfg := &Config{
		Capture: CaptureConfig{Port: 53},
		Trace:   TraceConfig{FirstSeenFPRate: 0.01},
		Journal: JournalConfig{Enabled: true, Path: "j.db"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capture.Snaplen != 65536 {
		t.Errorf("expected snaplen default, got %d", cfg.Capture.Snaplen)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected text, got %q", cfg.Output.Format)
	}
	if cfg.Trace.RingSize != 1000 {
		t.Errorf("expected ring size default, got %d", cfg.Trace.RingSize)
	}
	if cfg.Journal.QueueSize != 4096 || cfg.Journal.PruneEvery != time.Minute {
		t.Errorf("expected journal defaults, got %+v", cfg.Journal)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("expected loopback host, got %q", cfg.API.Host)
	}
	if cfg.Logging.ExtraFields == nil {
		t.Error("expected extra fields map")
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"y", false, true},
		{"on", false, true},
		{"0", true, false},
		{"false", true, false},
		{"no", true, false},
		{"n", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := envBool(tt.raw, tt.def); got != tt.want {
				t.Errorf("envBool(%q, %v) = %v, want %v", tt.raw, tt.def, got, tt.want)
			}
		})
	}
}
