// Command dnstrace prints the DNS responses seen on an interface or in a
// capture file. It only observes traffic.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/jroosing/dnstrace/internal/capture"
	"github.com/jroosing/dnstrace/internal/capture/live"
	"github.com/jroosing/dnstrace/internal/config"
	"github.com/jroosing/dnstrace/internal/logging"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		// go-flags has already printed the parse error.
		return 2
	}

	cfg, err := config.Load(config.ResolveConfigPath(opts.Config))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid options: %v\n", err)
		return 1
	}

	if opts.List {
		ifaces, err := live.Interfaces()
		if err == nil {
			err = capture.ListInterfaces(os.Stdout, ifaces)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list interfaces: %v\n", err)
			return 1
		}
		return 0
	}

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, defaultEnv(logger)); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "dnstrace: %v\n", err)
		return 1
	}
	return 0
}
