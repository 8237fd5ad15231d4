package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnstrace/internal/api/models"
	"github.com/jroosing/dnstrace/internal/database"
	"github.com/jroosing/dnstrace/internal/helpers"
	"github.com/jroosing/dnstrace/internal/trace"
)

var errJournalDisabled = errors.New("journal disabled")

// Events godoc
// @Summary Recent DNS messages
// @Description Returns decoded messages newest first, from the journal when enabled, else from memory
// @Tags events
// @Produce json
// @Param limit query int false "Maximum events (default 50, max 1000)"
// @Param name query string false "Question name or a domain it lies below"
// @Param rcode query string false "Response code mnemonic, e.g. NXDOMAIN"
// @Param errors query bool false "Only messages that failed to decode fully"
// @Param since query string false "RFC 3339 lower bound on observation time"
// @Success 200 {object} models.EventsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /events [get]
func (h *Handler) Events(c *gin.Context) {
	q, err := parseEventQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	_, ring, store, _, _ := h.components()
	switch {
	case store != nil:
		events, err := store.Events(c.Request.Context(), q)
		if err != nil {
			h.logger.Error("failed to query journal", "err", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to query journal"})
			return
		}
		c.JSON(http.StatusOK, models.EventsResponse{Origin: models.OriginJournal, Count: len(events), Events: events})
	case ring != nil:
		events := filterRecent(ring.Recent(0), q)
		c.JSON(http.StatusOK, models.EventsResponse{Origin: models.OriginMemory, Count: len(events), Events: events})
	default:
		c.JSON(http.StatusOK, models.EventsResponse{Origin: models.OriginMemory, Events: []trace.Summary{}})
	}
}

// Names godoc
// @Summary Top observed names
// @Description Returns the names seen most often, with first/last observation times
// @Tags events
// @Produce json
// @Param limit query int false "Maximum names (default 50, max 1000)"
// @Success 200 {object} models.NamesResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /names [get]
func (h *Handler) Names(c *gin.Context) {
	limit, err := queryInt(c, "limit", database.DefaultQueryLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	_, _, store, _, _ := h.components()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: errJournalDisabled.Error()})
		return
	}
	names, err := store.TopNames(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to query names", "err", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to query names"})
		return
	}
	c.JSON(http.StatusOK, models.NamesResponse{Count: len(names), Names: names})
}

func parseEventQuery(c *gin.Context) (database.EventQuery, error) {
	var q database.EventQuery

	limit, err := queryInt(c, "limit", database.DefaultQueryLimit)
	if err != nil {
		return q, err
	}
	q.Limit = helpers.ClampInt(limit, 1, database.MaxQueryLimit)
	q.Name = strings.TrimSpace(c.Query("name"))
	q.RCode = strings.ToUpper(strings.TrimSpace(c.Query("rcode")))

	if v := c.Query("errors"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, errors.New("errors must be a boolean")
		}
		q.ErrorsOnly = b
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, errors.New("since must be an RFC 3339 timestamp")
		}
		q.Since = t
	}
	return q, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return n, nil
}

// filterRecent applies q to in-memory events with the journal's semantics.
func filterRecent(events []trace.Event, q database.EventQuery) []trace.Summary {
	name := strings.ToLower(strings.TrimSuffix(q.Name, "."))
	out := make([]trace.Summary, 0, min(len(events), q.Limit))
	for _, ev := range events {
		if len(out) == q.Limit {
			break
		}
		if !q.Since.IsZero() && ev.ObservedAt.Before(q.Since) {
			continue
		}
		s := trace.Summarize(ev)
		if q.RCode != "" && s.RCode != q.RCode {
			continue
		}
		if q.ErrorsOnly && s.ErrorKind == "" {
			continue
		}
		if name != "" {
			qn := strings.ToLower(s.QuestionName())
			if qn != name && !strings.HasSuffix(qn, "."+name) {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// ExportEvents godoc
// @Summary Export the journal
// @Description Streams every journaled event, oldest first, as JSON lines or CSV
// @Tags events
// @Produce plain
// @Param format query string false "jsonl (default) or csv"
// @Param since query string false "RFC 3339 lower bound on observation time"
// @Success 200 {string} string
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /events/export [get]
func (h *Handler) ExportEvents(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", database.ExportJSONL))
	contentType := "application/x-ndjson"
	switch format {
	case database.ExportJSONL:
	case database.ExportCSV:
		contentType = "text/csv"
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "format must be jsonl or csv"})
		return
	}
	var since time.Time
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "since must be an RFC 3339 timestamp"})
			return
		}
		since = t
	}

	_, _, store, _, _ := h.components()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: errJournalDisabled.Error()})
		return
	}

	// The server's WriteTimeout would cut a long export; the deadline moves
	// forward as rows go out instead.
	w := &deadlineWriter{w: c.Writer, rc: http.NewResponseController(c.Writer), window: exportWriteWindow}
	w.extend()

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="dnstrace-events.`+format+`"`)
	c.Status(http.StatusOK)
	n, err := store.Export(c.Request.Context(), w, format, since)
	if err != nil {
		// Headers are already sent; the client sees a short body.
		h.logger.Error("journal export failed", "written", n, "err", err)
		return
	}
	h.logger.Debug("journal exported", "events", n, "format", format)
}

// exportWriteWindow is how long an export may stall between writes.
const exportWriteWindow = 30 * time.Second

// deadlineWriter pushes the connection's write deadline forward while data
// keeps flowing.
type deadlineWriter struct {
	w        io.Writer
	rc       *http.ResponseController
	window   time.Duration
	extended time.Time
}

func (d *deadlineWriter) Write(p []byte) (int, error) {
	if time.Since(d.extended) > d.window/4 {
		d.extend()
	}
	return d.w.Write(p)
}

func (d *deadlineWriter) extend() {
	now := time.Now()
	// ErrNotSupported (e.g. test recorders) leaves the server timeout in place.
	_ = d.rc.SetWriteDeadline(now.Add(d.window))
	d.extended = now
}
