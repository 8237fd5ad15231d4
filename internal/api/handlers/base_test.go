package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jroosing/dnstrace/internal/api/handlers"
	"github.com/jroosing/dnstrace/internal/database"
	"github.com/jroosing/dnstrace/internal/dns"
	"github.com/jroosing/dnstrace/internal/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/events", h.Events)
	api.GET("/names", h.Names)
	api.GET("/interfaces", h.Interfaces)
	return r
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// fakeStore records the last query and returns canned results.
type fakeStore struct {
	events     []trace.Summary
	names      []database.NameStat
	count      int64
	err        error
	healthErr  error
	lastQuery  database.EventQuery
	lastLimit  int
	lastFormat string
	lastSince  time.Time
	// exportDelay is slept before each exported row.
	exportDelay time.Duration
}

func (f *fakeStore) Events(_ context.Context, q database.EventQuery) ([]trace.Summary, error) {
	f.lastQuery = q
	return f.events, f.err
}

func (f *fakeStore) CountEvents(context.Context) (int64, error) { return f.count, f.err }

func (f *fakeStore) TopNames(_ context.Context, limit int) ([]database.NameStat, error) {
	f.lastLimit = limit
	return f.names, f.err
}

func (f *fakeStore) Export(_ context.Context, w io.Writer, format string, since time.Time) (int, error) {
	f.lastFormat, f.lastSince = format, since
	if f.err != nil {
		return 0, f.err
	}
	for _, ev := range f.events {
		time.Sleep(f.exportDelay)
		if _, err := io.WriteString(w, ev.ID+"\n"); err != nil {
			return 0, err
		}
	}
	return len(f.events), nil
}

func (f *fakeStore) Health(context.Context) error { return f.healthErr }

func event(qname string, rcode dns.RCode, at time.Time, err error) trace.Event {
	return trace.Event{
		ID:          uuid.New(),
		ObservedAt:  at,
		Source:      netip.MustParseAddrPort("9.9.9.9:53"),
		Destination: netip.MustParseAddrPort("10.0.0.5:40000"),
		PayloadSize: 64,
		Message: dns.Message{
			Header:    dns.Header{ID: 7, Flags: dns.QRFlag | uint16(rcode), QDCount: 1},
			Questions: []dns.Question{{Name: qname, Type: dns.TypeA, Class: 1}},
		},
		Err: err,
	}
}
