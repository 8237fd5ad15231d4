package database

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Export formats.
const (
	ExportJSONL = "jsonl"
	ExportCSV   = "csv"
)

// exportBatch bounds how many rows are read per lock acquisition so a long
// export does not stall journal writes.
const exportBatch = 500

var csvHeader = []string{
	"id", "observed_at", "source", "destination", "transaction_id",
	"rcode", "qname", "qtype", "answer_count", "first_seen", "error_kind",
}

type exportRow struct {
	rowid               int64
	id                  string
	observedAt          int64
	source, destination string
	transactionID       int
	rcode, qname, qtype string
	answerCount         int
	firstSeen           bool
	errorKind, summary  string
}

// Export writes every event observed at or after since, oldest first, and
// returns how many were written. JSONL emits the stored display form one
// object per line; CSV emits the indexed columns.
func (db *DB) Export(ctx context.Context, w io.Writer, format string, since time.Time) (int, error) {
	var emit func(exportRow) error
	var flush func() error

	switch format {
	case ExportJSONL, "":
		emit = func(r exportRow) error {
			_, err := io.WriteString(w, r.summary+"\n")
			return err
		}
		flush = func() error { return nil }
	case ExportCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return 0, err
		}
		emit = func(r exportRow) error {
			return cw.Write([]string{
				r.id,
				time.Unix(0, r.observedAt).UTC().Format(time.RFC3339Nano),
				r.source,
				r.destination,
				strconv.Itoa(r.transactionID),
				r.rcode,
				r.qname,
				r.qtype,
				strconv.Itoa(r.answerCount),
				strconv.FormatBool(r.firstSeen),
				r.errorKind,
			})
		}
		flush = func() error {
			cw.Flush()
			return cw.Error()
		}
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}

	var sinceNano int64
	if !since.IsZero() {
		sinceNano = since.UnixNano()
	}

	total := 0
	var after int64
	for {
		rows, err := db.exportPage(ctx, after, sinceNano)
		if err != nil {
			return total, err
		}
		for _, r := range rows {
			if err := emit(r); err != nil {
				return total, fmt.Errorf("failed to write export: %w", err)
			}
			total++
			after = r.rowid
		}
		if len(rows) < exportBatch {
			break
		}
	}
	return total, flush()
}

func (db *DB) exportPage(ctx context.Context, after, since int64) ([]exportRow, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT rowid, id, observed_at, source, destination, transaction_id,
		       rcode, qname, qtype, answer_count, first_seen, error_kind, summary
		FROM events
		WHERE rowid > ? AND observed_at >= ?
		ORDER BY rowid
		LIMIT ?`, after, since, exportBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	out := make([]exportRow, 0, exportBatch)
	for rows.Next() {
		var r exportRow
		if err := rows.Scan(&r.rowid, &r.id, &r.observedAt, &r.source, &r.destination, &r.transactionID,
			&r.rcode, &r.qname, &r.qtype, &r.answerCount, &r.firstSeen, &r.errorKind, &r.summary); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
