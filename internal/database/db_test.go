package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/dnstrace/internal/trace"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var base = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func summary(i int, qname, rcode string) trace.Summary {
	return trace.Summary{
		ID:            fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
		ObservedAt:    base.Add(time.Duration(i) * time.Second),
		Source:        "8.8.8.8:53",
		Destination:   "10.0.0.2:50000",
		TransactionID: uint16(i),
		Response:      true,
		RCode:         rcode,
		Flags:         "qr rd ra",
		QDCount:       1,
		ANCount:       1,
		Questions:     []trace.QuestionSummary{{Name: qname, Type: "A", Class: 1}},
		Answers: []trace.RecordSummary{
			{Name: qname, Type: "CNAME", Class: 1, TTL: 60, Data: "edge." + qname},
		},
		Authorities: []trace.RecordSummary{},
		Additionals: []trace.RecordSummary{},
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Health(ctx))
	v, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)

	n, err := db.CountEvents(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.InsertEvent(context.Background(), summary(1, "a.example", "NOERROR")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInsertAndQueryEvents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertEvent(ctx, summary(1, "www.example.com", "NOERROR")))
	require.NoError(t, db.InsertEvent(ctx, summary(2, "missing.example.com", "NXDOMAIN")))
	require.NoError(t, db.InsertEvent(ctx, summary(3, "example.org", "NOERROR")))
	bad := summary(4, "broken.example.org", "NOERROR")
	bad.Error, bad.ErrorKind = "truncated", "truncated_data"
	require.NoError(t, db.InsertEvent(ctx, bad))

	all, err := db.Events(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, uint16(4), all[0].TransactionID, "newest first")
	assert.True(t, base.Add(4*time.Second).Equal(all[0].ObservedAt))
	assert.Equal(t, "edge.www.example.com", all[3].Answers[0].Data)

	tests := []struct {
		name string
		q    EventQuery
		want []uint16
	}{
		{"limit", EventQuery{Limit: 2}, []uint16{4, 3}},
		{"name and subdomains", EventQuery{Name: "example.com"}, []uint16{2, 1}},
		{"exact name", EventQuery{Name: "WWW.example.com."}, []uint16{1}},
		{"rcode", EventQuery{RCode: "nxdomain"}, []uint16{2}},
		{"errors only", EventQuery{ErrorsOnly: true}, []uint16{4}},
		{"since", EventQuery{Since: base.Add(3 * time.Second)}, []uint16{4, 3}},
		{"like wildcards are literal", EventQuery{Name: "%"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Events(ctx, tt.q)
			require.NoError(t, err)
			ids := make([]uint16, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.TransactionID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestInsertEvent_DuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertEvent(ctx, summary(1, "a.example", "NOERROR")))
	require.Error(t, db.InsertEvent(ctx, summary(1, "a.example", "NOERROR")))

	names, err := db.TopNames(ctx, 10)
	require.NoError(t, err)
	for _, n := range names {
		assert.Equal(t, int64(1), n.Hits, "failed insert must roll back name counts")
	}
}

func TestTopNames(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, db.InsertEvent(ctx, summary(i, "Popular.Example", "NOERROR")))
	}
	require.NoError(t, db.InsertEvent(ctx, summary(4, "rare.example", "NOERROR")))

	names, err := db.TopNames(ctx, 2)
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "edge.popular.example", names[0].Name)
	assert.Equal(t, int64(3), names[0].Hits)
	assert.Equal(t, "popular.example", names[1].Name)
	assert.True(t, base.Add(time.Second).Equal(names[1].FirstSeen))
	assert.True(t, base.Add(3*time.Second).Equal(names[1].LastSeen))
}

func TestPrune(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		require.NoError(t, db.InsertEvent(ctx, summary(i, "p.example", "NOERROR")))
	}

	n, err := db.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = db.Prune(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	left, err := db.Events(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, left, 4)
	assert.Equal(t, uint16(10), left[0].TransactionID)
	assert.Equal(t, uint16(7), left[3].TransactionID)
}

func TestJournal_Publish(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db, 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run(ctx)
	}()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.Publish(trace.Event{ID: uuid.New(), ObservedAt: time.Now()})
		}()
	}
	wg.Wait()
	cancel()
	<-done

	n, err := db.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Zero(t, j.Dropped())
}

func TestJournal_DropsWhenQueueFull(t *testing.T) {
	db := openTestDB(t)
	j := NewJournal(db, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for range 5 {
		j.Publish(trace.Event{ID: uuid.New(), ObservedAt: time.Now()})
	}
	assert.Equal(t, uint64(3), j.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Run(ctx)

	n, err := db.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "queued events are written on shutdown")
}
