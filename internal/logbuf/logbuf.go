// Package logbuf keeps recent log records in memory so the API can
// serve them without touching disk.
package logbuf

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is a single log record captured from slog.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	RunID   string         `json:"run_id,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Query selects entries from a Ring. Zero values mean no filter.
type Query struct {
	Since    time.Time
	MinLevel slog.Level
	RunID    string
	Limit    int
}

// Ring is a fixed-capacity buffer of recent log entries.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
	head    int
	n       int
}

// NewRing creates a buffer that retains the most recent capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{entries: make([]Entry, capacity), cap: capacity}
}

// Append records an entry, evicting the oldest when full.
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	r.entries[r.head] = e
	r.head = (r.head + 1) % r.cap
	if r.n < r.cap {
		r.n++
	}
	r.mu.Unlock()
}

// Len reports how many entries are currently retained.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Select returns matching entries oldest first. When q.Limit > 0 the
// newest matches win, so clients always see the tail of the log.
func (r *Ring) Select(q Query) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := 0
	if r.n == r.cap {
		start = r.head
	}

	var out []Entry
	for i := 0; i < r.n; i++ {
		e := r.entries[(start+i)%r.cap]
		if !q.Since.IsZero() && e.Time.Before(q.Since) {
			continue
		}
		if levelFromString(e.Level) < q.MinLevel {
			continue
		}
		if q.RunID != "" && e.RunID != q.RunID {
			continue
		}
		out = append(out, e)
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

func levelFromString(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
