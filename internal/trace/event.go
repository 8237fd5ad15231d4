// Package trace turns captured frames into DNS observation events.
//
// The Dispatcher is the frame callback: it locates a DNS-over-UDP payload
// with a Locator, decodes it, and publishes an Event to a Sink. It never
// blocks, drops or rewrites traffic; every frame gets the Pass verdict.
package trace

import (
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jroosing/dnstrace/internal/dns"
)

// Verdict is the disposition the frame callback reports back to the capture
// layer.
type Verdict uint8

const (
	// Pass lets the frame continue unmodified.
	Pass Verdict = iota
)

func (v Verdict) String() string {
	if v == Pass {
		return "pass"
	}
	return "unknown"
}

// Event is one observed DNS message.
type Event struct {
	ID          uuid.UUID
	ObservedAt  time.Time
	Source      netip.AddrPort
	Destination netip.AddrPort
	PayloadSize int
	Message     dns.Message
	// Err is set when decoding stopped early; Message then holds what was
	// decoded before the failure.
	Err error
	// FirstSeen reports that the first question name had not been observed
	// before in this run.
	FirstSeen bool
}

// Sink receives published events. Implementations shared between goroutines
// must serialize internally.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Fanout publishes every event to each sink in order. Nil sinks are skipped.
func Fanout(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiSink []Sink

func (m multiSink) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

// Ring keeps the most recent events in memory.
type Ring struct {
	mu    sync.Mutex
	buf   []Event
	next  int
	count int
}

// NewRing returns a Ring holding up to size events (minimum 1).
func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{buf: make([]Event, size)}
}

func (r *Ring) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (r *Ring) Recent(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Len returns the number of events held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
