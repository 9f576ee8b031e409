package telemetry

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zond/sqly"

	_ "modernc.org/sqlite"

	"github.com/thicketbt/thicket/bt"
)

// TickEvent is one row of the TickEvent table a SQLiteSink writes to.
// RunID distinguishes the events of one process lifetime from another in
// a telemetry.db shared across restarts.
type TickEvent struct {
	Id    int64 `sqly:"pkey,autoinc"`
	Time  sqly.SQLTime
	RunID string
	Path  string
	UID   int64
	Prev  string
	Next  string
}

// SQLiteSink is a bt.Observer that batches status transitions in memory
// and flushes them into a TickEvent table on a schedule or once a batch
// fills, mirroring a MUD server's sqlx/sqly-backed storage layer. Flush
// failures are logged, never propagated back into a tick.
type SQLiteSink struct {
	db    *sqly.DB
	runID string

	mu        sync.Mutex
	pending   []TickEvent
	batchSize int

	flushInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
}

// NewSQLiteSink opens (creating if needed) a SQLite database under dir
// and ensures its TickEvent table exists. batchSize is the number of
// pending events that forces an immediate flush; flushInterval is the
// maximum time pending events may sit unflushed.
func NewSQLiteSink(ctx context.Context, dir string, batchSize int, flushInterval time.Duration) (*SQLiteSink, error) {
	db, err := sqly.Open("sqlite", filepath.Join(dir, "telemetry.db"))
	if err != nil {
		return nil, err
	}
	if err := db.CreateTableIfNotExists(ctx, TickEvent{}); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	s := &SQLiteSink{
		db:            db,
		runID:         uuid.NewString(),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go s.loop(ctx)
	return s, nil
}

// Observe implements bt.Observer: it appends the transition to the
// pending batch, flushing immediately if the batch is full.
func (s *SQLiteSink) Observe(e bt.Event) {
	s.mu.Lock()
	s.pending = append(s.pending, TickEvent{
		Time:  sqly.ToSQLTime(e.Timestamp),
		RunID: s.runID,
		Path:  e.Node.Path(),
		UID:   int64(e.Node.UID()),
		Prev:  e.Prev.String(),
		Next:  e.New.String(),
	})
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()
	if full {
		s.flush(context.Background())
	}
}

func (s *SQLiteSink) loop(ctx context.Context) {
	defer close(s.done)
	interval := s.flushInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.flush(ctx)
		case <-s.stop:
			s.flush(ctx)
			return
		}
	}
}

func (s *SQLiteSink) flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(batch) == 0 {
		return
	}
	if err := s.db.Write(ctx, func(tx *sqly.Tx) error {
		for i := range batch {
			if err := sqly.Upsert(ctx, tx, &batch[i], false); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		log.Printf("telemetry: flushing %d tick events: %v", len(batch), err)
	}
}

// Close stops the background flush loop, flushing any remaining pending
// events, and closes the underlying database.
func (s *SQLiteSink) Close() error {
	close(s.stop)
	<-s.done
	return s.db.Close()
}

// Recent returns the most recently flushed tick events, newest first, up
// to limit rows. Events still sitting in the in-memory batch are not
// included until the next flush.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]TickEvent, error) {
	var rows []TickEvent
	err := sqlx.SelectContext(ctx, s.db, &rows, "SELECT * FROM TickEvent ORDER BY Id DESC LIMIT ?", limit)
	return rows, err
}
