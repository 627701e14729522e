package diag

import (
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is a single recorded log line.
type Entry struct {
	Level   zerolog.Level
	Message string
}

// Recorder captures log lines, mostly for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns a logger whose output is captured by the returned Recorder.
func NewRecorder() (*Logger, *Recorder) {
	rec := &Recorder{}
	zlog := zerolog.New(io.Discard).Level(zerolog.TraceLevel).Hook(rec)
	return New(zlog), rec
}

// Run implements zerolog.Hook.
func (r *Recorder) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Warnings returns the messages logged at warn level.
func (r *Recorder) Warnings() []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == zerolog.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

// HasWarning reports whether a warning containing substr was logged.
func (r *Recorder) HasWarning(substr string) bool {
	for _, w := range r.Warnings() {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// Reset clears recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
