package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteSinkFlushesOnBatchSize(t *testing.T) {
	ctx := context.Background()
	sink, err := NewSQLiteSink(ctx, t.TempDir(), 2, time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteSink: %v", err)
	}
	defer sink.Close()

	sink.Observe(testEvent())
	sink.Observe(testEvent())

	// No wait is needed: Observe's flush call is inline, not asynchronous,
	// so pending is already empty by the time Observe returns.
	sink.mu.Lock()
	pending := len(sink.pending)
	sink.mu.Unlock()
	if pending != 0 {
		t.Fatalf("pending = %d after a full batch, want 0 (should have flushed)", pending)
	}
}
