// Package config loads dnstrace settings from YAML with environment
// overrides.
//
// Precedence, lowest first: built-in defaults, the YAML file, DNSTRACE_*
// environment variables, then command-line flags (applied by the caller).
// Validate normalizes the result and must run last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "DNSTRACE_CONFIG"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Port:    53,
			Snaplen: 65536,
			Promisc: true,
			Timeout: "500ms",
		},
		Trace: TraceConfig{
			FirstSeen:         true,
			FirstSeenCapacity: 100_000,
			FirstSeenFPRate:   0.001,
			RingSize:          1000,
		},
		Output: OutputConfig{Format: "text"},
		Journal: JournalConfig{
			Path:          "dnstrace.db",
			MaxEvents:     100_000,
			PruneInterval: "1m",
			QueueSize:     4096,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:            "INFO",
			StructuredFormat: "json",
		},
	}
}

// ResolveConfigPath returns the flag value if set, else $DNSTRACE_CONFIG.
func ResolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// Load reads path (defaults only when empty), applies environment overrides
// and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv("DNSTRACE_INTERFACE"); ok {
		cfg.Capture.Interface = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("DNSTRACE_READ"); ok {
		cfg.Capture.File = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("DNSTRACE_PORT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("DNSTRACE_PORT: %w", err)
		}
		cfg.Capture.Port = n
	}
	if v, ok := os.LookupEnv("DNSTRACE_FILTER"); ok {
		cfg.Capture.Filter = v
	}
	if v, ok := os.LookupEnv("DNSTRACE_FORMAT"); ok {
		cfg.Output.Format = v
	}
	if v, ok := os.LookupEnv("DNSTRACE_WATCH"); ok {
		cfg.Trace.Watch = splitList(v)
	}
	if v, ok := os.LookupEnv("DNSTRACE_JOURNAL"); ok && strings.TrimSpace(v) != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("DNSTRACE_API_ENABLED"); ok {
		cfg.API.Enabled = envBool(v, cfg.API.Enabled)
	}
	if v, ok := os.LookupEnv("DNSTRACE_API_HOST"); ok {
		cfg.API.Host = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("DNSTRACE_API_PORT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("DNSTRACE_API_PORT: %w", err)
		}
		cfg.API.Port = n
	}
	if v, ok := os.LookupEnv("DNSTRACE_API_KEY"); ok {
		cfg.API.APIKey = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envBool parses common boolean spellings, returning def for anything else.
func envBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	if cfg.Capture.Port <= 0 || cfg.Capture.Port > 65535 {
		return errors.New("capture.port must be 1..65535")
	}
	if cfg.Capture.Snaplen == 0 {
		cfg.Capture.Snaplen = 65536
	}
	if cfg.Capture.Snaplen < 64 || cfg.Capture.Snaplen > 262144 {
		return errors.New("capture.snaplen must be 64..262144")
	}
	if cfg.Capture.Timeout == "" {
		cfg.Capture.Timeout = "500ms"
	}
	d, err := time.ParseDuration(cfg.Capture.Timeout)
	if err != nil || d <= 0 {
		return fmt.Errorf("capture.timeout %q is not a positive duration", cfg.Capture.Timeout)
	}
	cfg.Capture.ReadWait = d

	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Output.Format != "text" && cfg.Output.Format != "json" {
		return fmt.Errorf("output.format must be text or json, got %q", cfg.Output.Format)
	}

	if cfg.Trace.RingSize <= 0 {
		cfg.Trace.RingSize = 1000
	}
	if cfg.Trace.FirstSeenCapacity == 0 {
		cfg.Trace.FirstSeenCapacity = 100_000
	}
	if cfg.Trace.FirstSeenFPRate <= 0 || cfg.Trace.FirstSeenFPRate >= 1 {
		return errors.New("trace.first_seen_fp_rate must be between 0 and 1")
	}

	if cfg.Journal.Enabled {
		if strings.TrimSpace(cfg.Journal.Path) == "" {
			return errors.New("journal.path is required when the journal is enabled")
		}
		if cfg.Journal.PruneInterval == "" {
			cfg.Journal.PruneInterval = "1m"
		}
		d, err := time.ParseDuration(cfg.Journal.PruneInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("journal.prune_interval %q is not a positive duration", cfg.Journal.PruneInterval)
		}
		cfg.Journal.PruneEvery = d
		if cfg.Journal.QueueSize <= 0 {
			cfg.Journal.QueueSize = 4096
		}
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}
	return nil
}

// APIAddr returns host:port for the HTTP listener.
func (cfg *Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
}
