package telemetry

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thicketbt/thicket/bt"
)

func testEvent() bt.Event {
	cfg := bt.NodeConfig{Path: "/main/leaf", UID: 7}
	n := bt.New(cfg, bt.NewSyncAction(func() (bt.Status, error) { return bt.Success, nil }))
	return bt.Event{Timestamp: time.Now(), Node: n, Prev: bt.Idle, New: bt.Success}
}

func TestFileObserverWritesOneJSONLinePerTransition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.jsonl")
	obs := NewFileObserver(path)
	obs.Observe(testEvent())
	obs.Observe(testEvent())
	if err := obs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() != "" {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("wrote %d lines, want 2", lines)
	}
}
