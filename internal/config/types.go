package config

import "time"

// CaptureConfig selects where frames come from.
type CaptureConfig struct {
	// Interface is a live capture device. Ignored when File is set.
	Interface string `yaml:"interface" json:"interface"`
	// File replays a pcap or pcapng capture instead of capturing live.
	File string `yaml:"file" json:"file"`
	// Port is the UDP source port DNS responses come from (default: 53).
	Port int `yaml:"port" json:"port"`
	// Filter is a BPF expression for live capture. Empty selects UDP from Port.
	Filter  string `yaml:"filter" json:"filter"`
	Snaplen int    `yaml:"snaplen" json:"snaplen"`
	Promisc bool   `yaml:"promisc" json:"promisc"`
	// Timeout bounds each live read (e.g., "500ms").
	Timeout  string        `yaml:"timeout" json:"timeout"`
	ReadWait time.Duration `yaml:"-" json:"-"`
}

// TraceConfig controls which events are reported.
type TraceConfig struct {
	// Watch lists domain patterns; when non-empty only matching messages are reported.
	Watch      []string `yaml:"watch" json:"watch,omitempty"`
	WatchFiles []string `yaml:"watch_files" json:"watch_files,omitempty"`
	// FirstSeen marks events whose question name is new in this run.
	FirstSeen         bool    `yaml:"first_seen" json:"first_seen"`
	FirstSeenCapacity uint    `yaml:"first_seen_capacity" json:"first_seen_capacity"`
	FirstSeenFPRate   float64 `yaml:"first_seen_fp_rate" json:"first_seen_fp_rate"`
	// RingSize is how many recent events are kept in memory for the API and TUI.
	RingSize int `yaml:"ring_size" json:"ring_size"`
}

// OutputConfig controls console output.
type OutputConfig struct {
	Format string `yaml:"format" json:"format"` // "text" or "json"
	Quiet  bool   `yaml:"quiet" json:"quiet"`
	TUI    bool   `yaml:"tui" json:"tui"`
}

// JournalConfig controls the SQLite event journal.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Path          string        `yaml:"path" json:"path"`
	MaxEvents     int           `yaml:"max_events" json:"max_events"`
	PruneInterval string        `yaml:"prune_interval" json:"prune_interval"`
	PruneEvery    time.Duration `yaml:"-" json:"-"`
	// QueueSize bounds the events waiting to be written; overflow is dropped.
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// APIConfig contains HTTP API settings.
//
// Note: APIKey is treated as a secret and is never returned by API endpoints.
type APIConfig struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	Host        string   `yaml:"host" json:"host"`
	Port        int      `yaml:"port" json:"port"`
	APIKey      string   `yaml:"api_key" json:"-"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins,omitempty"`
	// StaticDir serves a directory (e.g., an exported report) at /ui.
	StaticDir string `yaml:"static_dir" json:"static_dir,omitempty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level            string            `yaml:"level" json:"level"`
	Structured       bool              `yaml:"structured" json:"structured"`
	StructuredFormat string            `yaml:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid" json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields" json:"extra_fields,omitempty"`
}

// Config is the root configuration structure.
type Config struct {
	Capture CaptureConfig `yaml:"capture" json:"capture"`
	Trace   TraceConfig   `yaml:"trace" json:"trace"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Journal JournalConfig `yaml:"journal" json:"journal"`
	API     APIConfig     `yaml:"api" json:"api"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}
