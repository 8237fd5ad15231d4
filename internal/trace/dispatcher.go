package trace

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jroosing/dnstrace/internal/dissect"
	"github.com/jroosing/dnstrace/internal/dns"
	"github.com/jroosing/dnstrace/internal/wire"
)

// Locator finds a DNS payload inside a captured frame.
type Locator interface {
	Locate(frame []byte) (dissect.Location, bool, error)
}

// Decoder parses a DNS payload. dns.Decode is the default.
type Decoder func(payload []byte) (dns.Message, error)

// Watcher decides whether a name is of interest. An empty watch list
// (Len() == 0) lets everything through.
type Watcher interface {
	Match(name string) bool
	Len() int
}

// Options configures a Dispatcher. Only Sink is required.
type Options struct {
	Locator   Locator      // Defaults to dissect.New(dissect.DNSPort)
	Decoder   Decoder      // Defaults to dns.Decode
	Sink      Sink         // Receives every published event
	Logger    *slog.Logger // Defaults to slog.Default()
	Stats     *Stats       // Defaults to a fresh collector
	Metrics   *Metrics     // Optional Prometheus collectors
	Watch     Watcher      // Optional name filter
	FirstSeen *FirstSeen   // Optional first-seen marker
}

// Dispatcher is the per-frame callback. It holds no per-frame state, so
// HandleFrame may be called from any goroutine.
type Dispatcher struct {
	locator   Locator
	decode    Decoder
	sink      Sink
	logger    *slog.Logger
	stats     *Stats
	metrics   *Metrics
	watch     Watcher
	firstSeen *FirstSeen
}

// NewDispatcher creates a dispatcher, filling in defaults.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		locator:   opts.Locator,
		decode:    opts.Decoder,
		sink:      opts.Sink,
		logger:    opts.Logger,
		stats:     opts.Stats,
		metrics:   opts.Metrics,
		watch:     opts.Watch,
		firstSeen: opts.FirstSeen,
	}
	if d.locator == nil {
		d.locator = dissect.New(dissect.DNSPort)
	}
	if d.decode == nil {
		d.decode = dns.Decode
	}
	if d.sink == nil {
		d.sink = SinkFunc(func(Event) {})
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.stats == nil {
		d.stats = NewStats()
	}
	return d
}

// Stats returns the dispatcher's counters.
func (d *Dispatcher) Stats() *Stats { return d.stats }

// HandleFrame inspects one frame and always returns Pass.
//
// Frames that are not DNS-over-UDP responses from the configured port are
// ignored. Malformed frames are counted and logged at debug level. Decoded
// messages, complete or partial, are published as events unless the
// watch list rejects every name in them.
func (d *Dispatcher) HandleFrame(frame []byte, ts time.Time) Verdict {
	d.stats.RecordFrame()
	d.metrics.observeFrame()

	loc, ok, err := d.locator.Locate(frame)
	if err != nil {
		d.stats.RecordDissectError()
		d.metrics.observeError("dissect", wire.Kind(err))
		d.logger.Debug("frame dissection failed", "len", len(frame), "err", err)
		return Pass
	}
	if !ok {
		return Pass
	}

	payload := loc.Payload(frame)
	d.stats.RecordMatch()
	d.metrics.observeMatch(len(payload))

	msg, err := d.decode(payload)
	if err != nil {
		d.stats.RecordDecodeError()
		d.metrics.observeError("decode", wire.Kind(err))
		d.logger.Debug("dns decode failed",
			"src", loc.Source().String(),
			"dst", loc.Destination().String(),
			"len", len(payload),
			"err", err)

		var de *dns.DecodeError
		if errors.As(err, &de) && de.Section == dns.SectionHeader {
			return Pass
		}
	}

	if !d.watched(msg) {
		d.stats.RecordFiltered()
		return Pass
	}

	ev := Event{
		ID:          uuid.New(),
		ObservedAt:  ts,
		Source:      loc.Source(),
		Destination: loc.Destination(),
		PayloadSize: len(payload),
		Message:     msg,
		Err:         err,
	}
	if d.firstSeen != nil && len(msg.Questions) > 0 {
		ev.FirstSeen = d.firstSeen.Mark(msg.Questions[0].Name)
	}

	d.stats.RecordPublished(msg.Header.IsResponse(), msg.Header.RCode() == dns.RCodeNXDomain)
	d.metrics.observeMessage(msg)
	d.sink.Publish(ev)
	return Pass
}

func (d *Dispatcher) watched(msg dns.Message) bool {
	if d.watch == nil || d.watch.Len() == 0 {
		return true
	}
	for _, name := range msg.Names() {
		if d.watch.Match(name) {
			return true
		}
	}
	return false
}
