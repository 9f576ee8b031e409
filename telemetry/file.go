// Package telemetry provides bt.Observer implementations that record a
// tree's status transitions outside the tick path: a rotating JSON-lines
// file, and a batched SQLite sink, patterned on the audit logging and
// storage layers of a MUD server.
package telemetry

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thicketbt/thicket/bt"
)

// TransitionEntry is one JSON line written by FileObserver.
type TransitionEntry struct {
	Time time.Time `json:"time"`
	Path string    `json:"path"`
	UID  uint16    `json:"uid"`
	Prev string    `json:"prev"`
	Next string    `json:"next"`
}

// FileObserver is a bt.Observer that appends one JSON line per status
// transition to a rotating log file.
type FileObserver struct {
	mu     sync.Mutex
	writer io.WriteCloser
	enc    *json.Encoder
}

// NewFileObserver opens (creating if needed) a rotating log file at path.
func NewFileObserver(path string) *FileObserver {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return &FileObserver{writer: writer, enc: json.NewEncoder(writer)}
}

// Observe implements bt.Observer. Panics if encoding fails: TransitionEntry
// is a fixed, JSON-safe struct, so a failure here means the log file
// itself is unwritable.
func (f *FileObserver) Observe(e bt.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enc.Encode(TransitionEntry{
		Time: e.Timestamp,
		Path: e.Node.Path(),
		UID:  e.Node.UID(),
		Prev: e.Prev.String(),
		Next: e.New.String(),
	}); err != nil {
		panic(err)
	}
}

// Close closes the underlying log file.
func (f *FileObserver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writer.Close()
}
