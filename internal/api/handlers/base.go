// Package handlers implements the dnstrace HTTP API endpoints.
//
// REST API Endpoints:
//
//   - GET /api/v1/health - Liveness, plus journal reachability when enabled
//   - GET /api/v1/stats - Tracer counters and process/host statistics
//   - GET /api/v1/events - Recent decoded messages (journal, else memory)
//   - GET /api/v1/events/export - Journal download as JSON lines or CSV
//   - GET /api/v1/names - Most frequently observed names (journal only)
//   - GET /api/v1/interfaces - Capture devices on this host
//
// When an API key is configured every endpoint except /health requires the
// X-API-Key header.
//
// @title dnstrace API
// @version 1.0
// @description Read-only API over a passive DNS response tracer.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jroosing/dnstrace/internal/capture"
	"github.com/jroosing/dnstrace/internal/database"
	"github.com/jroosing/dnstrace/internal/trace"
)

// EventStore is the journal as seen by the API.
type EventStore interface {
	Events(ctx context.Context, q database.EventQuery) ([]trace.Summary, error)
	CountEvents(ctx context.Context) (int64, error)
	TopNames(ctx context.Context, limit int) ([]database.NameStat, error)
	Export(ctx context.Context, w io.Writer, format string, since time.Time) (int, error)
	Health(ctx context.Context) error
}

// InterfaceLister enumerates capture devices.
type InterfaceLister func() ([]capture.Interface, error)

// Handler contains dependencies for API handlers.
type Handler struct {
	logger    *slog.Logger
	startTime time.Time

	// Runtime components, set once the tracer is wired.
	mu         sync.RWMutex
	stats      *trace.Stats
	ring       *trace.Ring
	store      EventStore
	interfaces InterfaceLister
	source     string
}

// New creates a Handler. Components are attached with the Set* methods.
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		startTime: time.Now(),
	}
}

// SetStats sets the dispatcher counters reported by /stats.
func (h *Handler) SetStats(s *trace.Stats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats = s
}

// SetRing sets the in-memory event buffer used when no journal is attached.
func (h *Handler) SetRing(r *trace.Ring) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring = r
}

// SetEventStore attaches the journal.
func (h *Handler) SetEventStore(s EventStore) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store = s
}

// SetInterfaceLister sets how /interfaces enumerates devices.
func (h *Handler) SetInterfaceLister(fn InterfaceLister) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.interfaces = fn
}

// SetSource records what is being traced (interface name or file path).
func (h *Handler) SetSource(source string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = source
}

func (h *Handler) components() (*trace.Stats, *trace.Ring, EventStore, InterfaceLister, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats, h.ring, h.store, h.interfaces, h.source
}
