package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jroosing/dnstrace/internal/api"
	"github.com/jroosing/dnstrace/internal/capture"
	"github.com/jroosing/dnstrace/internal/capture/live"
	"github.com/jroosing/dnstrace/internal/config"
	"github.com/jroosing/dnstrace/internal/database"
	"github.com/jroosing/dnstrace/internal/dissect"
	"github.com/jroosing/dnstrace/internal/filtering"
	"github.com/jroosing/dnstrace/internal/helpers"
	"github.com/jroosing/dnstrace/internal/logging"
	"github.com/jroosing/dnstrace/internal/present"
	"github.com/jroosing/dnstrace/internal/trace"
	"github.com/jroosing/dnstrace/internal/tui"
)

// env holds the process-level collaborators of run.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	logger *slog.Logger

	interfaces func() ([]capture.Interface, error)
	openLive   func(live.Config) (capture.Source, error)
}

func defaultEnv(logger *slog.Logger) env {
	return env{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		logger:     logger,
		interfaces: live.Interfaces,
		openLive: func(cfg live.Config) (capture.Source, error) {
			return live.Open(cfg)
		},
	}
}

// run wires the tracer and blocks until the input is exhausted (file replay
// with nothing else serving), the TUI is closed, or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, e env) error {
	logger := e.logger
	if cfg.Output.TUI {
		// The TUI owns the terminal.
		logger = logging.Discard()
	}

	src, name, err := openSource(cfg, e)
	if err != nil {
		return err
	}
	defer src.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := trace.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	ring := trace.NewRing(cfg.Trace.RingSize)
	sinks := []trace.Sink{ring}
	if !cfg.Output.TUI && !cfg.Output.Quiet {
		sinks = append(sinks, present.NewConsole(e.stdout, cfg.Output.Format, logger))
	}

	var (
		db      *database.DB
		journal *database.Journal
	)
	if cfg.Journal.Enabled {
		db, err = database.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		journal = database.NewJournal(db, cfg.Journal.QueueSize, logger)
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "dnstrace",
			Subsystem: "journal",
			Name:      "dropped_events_total",
			Help:      "Events discarded because the journal write queue was full.",
		}, func() float64 { return float64(journal.Dropped()) }))
		sinks = append(sinks, journal)
	}

	opts := trace.Options{
		Locator: dissect.New(helpers.ClampIntToUint16(cfg.Capture.Port)),
		Sink:    trace.Fanout(sinks...),
		Logger:  logger,
		Metrics: metrics,
	}
	if len(cfg.Trace.Watch) > 0 || len(cfg.Trace.WatchFiles) > 0 {
		watch, err := filtering.NewWatchList(cfg.Trace.Watch, cfg.Trace.WatchFiles)
		if err != nil {
			return fmt.Errorf("failed to load watch list: %w", err)
		}
		opts.Watch = watch
		logger.Info("watch list loaded", "patterns", watch.Len())
	}
	if cfg.Trace.FirstSeen {
		opts.FirstSeen = trace.NewFirstSeen(cfg.Trace.FirstSeenCapacity, cfg.Trace.FirstSeenFPRate)
	}
	dispatcher := trace.NewDispatcher(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// A finished replay ends the process unless something is still serving.
	keepServing := cfg.API.Enabled || cfg.Output.TUI

	logger.Info("dnstrace starting", "source", name, "port", cfg.Capture.Port, "format", cfg.Output.Format)
	g.Go(func() error {
		res, err := capture.Run(gctx, src, dispatcher, logger)
		logger.Info("capture finished", "frames", res.Frames, "bytes", res.Bytes)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("capture: %w", err)
		}
		if !keepServing {
			cancel()
		}
		return nil
	})

	if cfg.API.Enabled {
		srv := api.New(cfg, reg, logger)
		h := srv.Handlers()
		h.SetStats(dispatcher.Stats())
		h.SetRing(ring)
		h.SetSource(name)
		if e.interfaces != nil {
			h.SetInterfaceLister(e.interfaces)
		}
		if db != nil {
			h.SetEventStore(db)
		}
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if db != nil {
		g.Go(func() error {
			journal.Run(gctx)
			return nil
		})
		g.Go(func() error {
			db.RunPruner(gctx, cfg.Journal.MaxEvents, cfg.Journal.PruneEvery, logger)
			return nil
		})
	}

	if cfg.Output.TUI {
		model := tui.New(tui.Options{Ring: ring, Stats: dispatcher.Stats(), Source: name})
		g.Go(func() error {
			defer cancel()
			return tui.Run(gctx, model)
		})
	}

	err = g.Wait()
	if journal != nil && journal.Dropped() > 0 {
		e.logger.Warn("journal dropped events", "count", journal.Dropped())
	}
	e.logger.Info("dnstrace stopped", "stats", dispatcher.Stats().Snapshot())
	return err
}

// openSource opens the replay file, the configured interface, or the
// interface the operator picks from a numbered list.
func openSource(cfg *config.Config, e env) (capture.Source, string, error) {
	if cfg.Capture.File != "" {
		src, err := capture.OpenFile(cfg.Capture.File)
		if err != nil {
			return nil, "", err
		}
		return src, cfg.Capture.File, nil
	}

	iface := cfg.Capture.Interface
	if iface == "" {
		if e.interfaces == nil {
			return nil, "", capture.ErrNoInterfaces
		}
		ifaces, err := e.interfaces()
		if err != nil {
			return nil, "", fmt.Errorf("failed to list interfaces: %w", err)
		}
		picked, err := capture.SelectInterface(e.stdin, e.stdout, ifaces)
		if err != nil {
			return nil, "", err
		}
		iface = picked.Name
	}

	filter := cfg.Capture.Filter
	if filter == "" {
		filter = capture.DefaultFilter(helpers.ClampIntToUint16(cfg.Capture.Port))
	}
	src, err := e.openLive(live.Config{
		Interface: iface,
		Snaplen:   int32(cfg.Capture.Snaplen), //nolint:gosec // bounded by Validate
		Promisc:   cfg.Capture.Promisc,
		Timeout:   cfg.Capture.ReadWait,
		Filter:    filter,
	})
	if err != nil {
		return nil, "", err
	}
	return src, iface, nil
}
