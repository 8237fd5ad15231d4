package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/jessevdk/go-flags"

	"github.com/jroosing/dnstrace/internal/config"
)

// Options are the command-line flags. Set flags override the config file
// and the environment.
type Options struct {
	Config    string   `short:"c" long:"config" description:"Path to YAML configuration file (or set DNSTRACE_CONFIG)"`
	Interface string   `short:"i" long:"interface" description:"Capture live on this interface"`
	Read      string   `short:"r" long:"read" description:"Replay frames from a pcap or pcapng file"`
	List      bool     `short:"l" long:"list" description:"List capture interfaces and exit"`
	Port      int      `long:"port" description:"UDP source port DNS responses come from (default 53)"`
	Filter    string   `long:"filter" description:"BPF filter for live capture (default: udp and src port <port>)"`
	Format    string   `long:"format" choice:"text" choice:"json" description:"Console output format"`
	TUI       bool     `long:"tui" description:"Show a live table instead of printing events"`
	Quiet     bool     `short:"q" long:"quiet" description:"Do not print events to stdout"`
	Journal   string   `long:"journal" description:"Record events in this SQLite database"`
	API       string   `long:"api" description:"Serve the HTTP API on host:port"`
	Watch     []string `long:"watch" description:"Only report messages that mention this domain (repeatable)"`
	WatchFile []string `long:"watch-file" description:"Read watch patterns from a file (repeatable)"`
	Debug     bool     `long:"debug" description:"Enable debug logging"`
	JSONLogs  bool     `long:"json-logs" description:"Enable JSON structured logging"`
}

func parseOptions(args []string) (*Options, error) {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.Default)
	parser.Usage = "[OPTIONS]"
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// apply copies set flags onto cfg and revalidates it.
func (o *Options) apply(cfg *config.Config) error {
	if o.Interface != "" {
		cfg.Capture.Interface = o.Interface
	}
	if o.Read != "" {
		cfg.Capture.File = o.Read
	}
	if o.Port != 0 {
		cfg.Capture.Port = o.Port
	}
	if o.Filter != "" {
		cfg.Capture.Filter = o.Filter
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.TUI {
		cfg.Output.TUI = true
	}
	if o.Quiet {
		cfg.Output.Quiet = true
	}
	if o.Journal != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = o.Journal
	}
	if o.API != "" {
		host, port, err := net.SplitHostPort(o.API)
		if err != nil {
			return fmt.Errorf("--api: %w", err)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("--api: invalid port %q", port)
		}
		cfg.API.Enabled = true
		cfg.API.Host = host
		cfg.API.Port = n
	}
	if len(o.Watch) > 0 {
		cfg.Trace.Watch = append(cfg.Trace.Watch, o.Watch...)
	}
	if len(o.WatchFile) > 0 {
		cfg.Trace.WatchFiles = append(cfg.Trace.WatchFiles, o.WatchFile...)
	}
	if o.JSONLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if o.Debug {
		cfg.Logging.Level = "DEBUG"
	}
	return cfg.Validate()
}
