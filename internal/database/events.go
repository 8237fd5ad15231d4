package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jroosing/dnstrace/internal/helpers"
	"github.com/jroosing/dnstrace/internal/trace"
)

const (
	// DefaultQueryLimit applies when a query does not set Limit.
	DefaultQueryLimit = 50
	// MaxQueryLimit caps Limit.
	MaxQueryLimit = 1000
)

// EventQuery selects journal rows. Zero fields do not filter.
type EventQuery struct {
	Limit      int
	Name       string // question name, or a domain it lies below
	RCode      string
	ErrorsOnly bool
	Since      time.Time
}

// InsertEvent stores one event summary and updates the names table.
func (db *DB) InsertEvent(ctx context.Context, s trace.Summary) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", s.ID, err)
	}

	var qtype string
	if len(s.Questions) > 0 {
		qtype = s.Questions[0].Type
	}
	observed := s.ObservedAt.UnixNano()

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, observed_at, source, destination, transaction_id, response,
			rcode, qname, qtype, answer_count, first_seen, error_kind, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, observed, s.Source, s.Destination, int(s.TransactionID), s.Response,
		s.RCode, strings.ToLower(s.QuestionName()), qtype, len(s.Answers), s.FirstSeen, s.ErrorKind, string(blob))
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", s.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO names (name, first_seen, last_seen, hits)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET
			last_seen = excluded.last_seen,
			hits = hits + 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare name upsert: %w", err)
	}
	defer stmt.Close()

	for _, name := range summaryNames(s) {
		if _, err := stmt.ExecContext(ctx, name, observed, observed); err != nil {
			return fmt.Errorf("failed to record name %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event %s: %w", s.ID, err)
	}
	return nil
}

func summaryNames(s trace.Summary) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(n string) {
		n = strings.ToLower(n)
		if n == "" || n == trace.RootName {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	for _, q := range s.Questions {
		add(q.Name)
	}
	for _, rr := range s.Records() {
		add(rr.Name)
		if rr.Type == "CNAME" {
			add(rr.Data)
		}
	}
	return out
}

// Events returns matching events, newest first.
func (db *DB) Events(ctx context.Context, q EventQuery) ([]trace.Summary, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	limit = helpers.ClampInt(limit, 1, MaxQueryLimit)

	var (
		where []string
		args  []any
	)
	if q.Name != "" {
		name := strings.ToLower(strings.TrimSuffix(q.Name, "."))
		where = append(where, "(qname = ? OR qname LIKE ? ESCAPE '\\')")
		args = append(args, name, "%."+escapeLike(name))
	}
	if q.RCode != "" {
		where = append(where, "rcode = ?")
		args = append(args, strings.ToUpper(q.RCode))
	}
	if q.ErrorsOnly {
		where = append(where, "error_kind <> ''")
	}
	if !q.Since.IsZero() {
		where = append(where, "observed_at >= ?")
		args = append(args, q.Since.UnixNano())
	}

	query := "SELECT summary FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY observed_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	out := make([]trace.Summary, 0, min(limit, DefaultQueryLimit))
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		var s trace.Summary
		if err := json.Unmarshal([]byte(blob), &s); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CountEvents returns the number of stored events.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// NameStat is one row of the names table.
type NameStat struct {
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Hits      int64     `json:"hits"`
}

// TopNames returns the most frequently observed names.
func (db *DB) TopNames(ctx context.Context, limit int) ([]NameStat, error) {
	limit = helpers.ClampInt(limit, 1, MaxQueryLimit)

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, first_seen, last_seen, hits FROM names
		ORDER BY hits DESC, name ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer rows.Close()

	var out []NameStat
	for rows.Next() {
		var (
			ns          NameStat
			first, last int64
		)
		if err := rows.Scan(&ns.Name, &first, &last, &ns.Hits); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		ns.FirstSeen = time.Unix(0, first).UTC()
		ns.LastSeen = time.Unix(0, last).UTC()
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep events and returns how many rows
// were removed. keep <= 0 disables pruning.
func (db *DB) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM events WHERE rowid NOT IN (
			SELECT rowid FROM events ORDER BY observed_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return res.RowsAffected()
}

// DefaultJournalQueue is the queue length NewJournal uses when given none.
const DefaultJournalQueue = 4096

// Journal is a trace.Sink that writes events to the database from its own
// goroutine (see Run). Publish never blocks the capture loop: when the queue
// is full the event is dropped and counted.
type Journal struct {
	db      *DB
	logger  *slog.Logger
	timeout time.Duration
	queue   chan trace.Event
	dropped atomic.Uint64
}

// NewJournal creates a sink writing to db through a queue of queueSize
// events.
func NewJournal(db *DB, queueSize int, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultJournalQueue
	}
	return &Journal{
		db:      db,
		logger:  logger,
		timeout: 5 * time.Second,
		queue:   make(chan trace.Event, queueSize),
	}
}

// Publish queues ev for writing.
func (j *Journal) Publish(ev trace.Event) {
	select {
	case j.queue <- ev:
	default:
		if j.dropped.Add(1) == 1 {
			j.logger.Warn("journal queue full, dropping events", "capacity", cap(j.queue))
		}
	}
}

// Dropped returns how many events were discarded on a full queue.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

// Run writes queued events until ctx ends, then writes whatever is still
// queued and returns.
func (j *Journal) Run(ctx context.Context) {
	for {
		select {
		case ev := <-j.queue:
			j.write(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-j.queue:
					j.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (j *Journal) write(ev trace.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.db.InsertEvent(ctx, trace.Summarize(ev)); err != nil {
		j.logger.Warn("journal write failed", "id", ev.ID.String(), "err", err)
	}
}

// RunPruner trims the journal to keep rows every interval until ctx ends.
func (db *DB) RunPruner(ctx context.Context, keep int, interval time.Duration, logger *slog.Logger) {
	if keep <= 0 || interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.Prune(ctx, keep)
			if err != nil {
				logger.Warn("journal prune failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("journal pruned", "deleted", n)
			}
		}
	}
}
